package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// buildURL returns a full URL for the given path against the session's
// configured base URL. Paths that are already full URLs are returned
// unchanged, so raw calls may target arbitrary endpoints. A query string
// (without "?") is appended when non-empty.
func buildURL(config *ClusterConfig, path, query string) (string, error) {
	parsed, parseErr := url.Parse(path)
	if parseErr == nil && parsed.Scheme != "" {
		if query != "" {
			if parsed.RawQuery != "" {
				parsed.RawQuery += "&" + query
			} else {
				parsed.RawQuery = query
			}
		}
		return parsed.String(), nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	pathAndQuery, err := url.ParseRequestURI(path)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL %q: %w", path, err)
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}
	full := &url.URL{
		Scheme:   base.Scheme,
		Host:     base.Host,
		Path:     strings.TrimRight(base.Path, "/") + pathAndQuery.Path,
		RawQuery: pathAndQuery.RawQuery,
	}
	if query != "" {
		if full.RawQuery != "" {
			full.RawQuery += "&" + query
		} else {
			full.RawQuery = query
		}
	}
	return full.String(), nil
}

// prettyBody returns the body as pretty-printed JSON when possible,
// otherwise as-is. Used for diagnostics only.
func prettyBody(body []byte) string {
	var b bytes.Buffer
	if err := json.Indent(&b, body, "", "  "); err == nil {
		return b.String()
	}
	return string(body)
}
