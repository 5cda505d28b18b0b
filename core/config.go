package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// ClusterConfig represents the configuration required to create a cluster
// session. It is finalized by Validate and never mutated afterwards; a
// single config may back any number of concurrent requests.
type ClusterConfig struct {
	BaseURL        string         // Base URL of the cluster API, e.g. "https://localhost:9443".
	Username       string         // The username for basic authentication.
	Password       string         // The password for basic authentication.
	Insecure       bool           // If true, skip TLS certificate verification (self-signed cluster certs).
	Timeout        *time.Duration // Default per-request timeout. If nil, a default is applied by validators.
	MaxConnections int            // Maximum number of concurrent HTTP connections.
	UserAgent      string         // Optional custom User-Agent header. If empty, a default is applied.

	// BusyClassifier decides whether a status/body pair is the cluster-busy
	// maintenance signal. Nil selects DefaultBusyClassifier.
	BusyClassifier BusyClassifier

	// Logger receives structured request/response events. Nil selects a
	// logger built from the REDIS_ENTERPRISE_LOG environment variable, or
	// a nop logger when that is unset.
	Logger *zerolog.Logger

	// Context is an optional external context used as the parent for all
	// HTTP requests made through the session.
	Context context.Context

	// BeforeRequestFn is an optional hook executed before a request is
	// sent. Any error returned aborts the request.
	BeforeRequestFn func(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error

	// AfterRequestFn is an optional hook executed after a response is
	// decoded. It may inspect, transform or replace the decoded value.
	AfterRequestFn func(ctx context.Context, response Renderable) (Renderable, error)
}

// ClusterConfigFunc defines a function that can modify or validate a ClusterConfig.
type ClusterConfigFunc func(*ClusterConfig) error

// Validate applies the given ClusterConfigFunc validators to the config.
// Panics if any validator returns an error.
func (config *ClusterConfig) Validate(validators ...ClusterConfigFunc) {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			panic(err)
		}
	}
}

// WithBaseURL returns a ClusterConfigFunc that sets a default base URL if
// none is provided, and rejects URLs that do not parse.
func WithBaseURL(defaultURL string) ClusterConfigFunc {
	return func(config *ClusterConfig) error {
		if config.BaseURL == "" {
			config.BaseURL = defaultURL
		}
		parsed, err := url.Parse(config.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("base URL %q must include scheme and host", config.BaseURL)
		}
		config.BaseURL = strings.TrimRight(config.BaseURL, "/")
		return nil
	}
}

// WithAuth validates that a username/password combination is provided.
func WithAuth(config *ClusterConfig) error {
	if config.Username == "" || config.Password == "" {
		return errors.New("username and password must be provided")
	}
	return nil
}

// WithTimeout returns a ClusterConfigFunc that sets a default timeout if
// none is provided.
func WithTimeout(timeout time.Duration) ClusterConfigFunc {
	return func(config *ClusterConfig) error {
		if config.Timeout == nil {
			config.Timeout = &timeout
		}
		return nil
	}
}

// WithMaxConnections returns a ClusterConfigFunc that sets the maximum
// number of connections if not explicitly provided.
func WithMaxConnections(maxConnections int) ClusterConfigFunc {
	return func(config *ClusterConfig) error {
		if config.MaxConnections == 0 {
			config.MaxConnections = maxConnections
		}
		return nil
	}
}

// WithUserAgent sets a default User-Agent header if none is provided.
func WithUserAgent(config *ClusterConfig) error {
	if config.UserAgent == "" {
		config.UserAgent = fmt.Sprintf(
			"go-redis-enterprise-%s,os:%s,arch:%s",
			ClientVersion(),
			runtime.GOOS,
			runtime.GOARCH,
		)
	}
	return nil
}

// WithBusyClassifier sets the default cluster-busy signature if none is
// provided.
func WithBusyClassifier(config *ClusterConfig) error {
	if config.BusyClassifier == nil {
		config.BusyClassifier = DefaultBusyClassifier
	}
	return nil
}

// WithLogger builds a logger from REDIS_ENTERPRISE_LOG if none is provided.
// An empty or unparsable level disables logging.
func WithLogger(config *ClusterConfig) error {
	if config.Logger != nil {
		return nil
	}
	logger := zerolog.Nop()
	if levelStr := os.Getenv(EnvLogLevel); levelStr != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
		if err == nil {
			logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		}
	}
	config.Logger = &logger
	return nil
}

// DefaultValidators is the validator chain applied to every config built
// through the package constructors.
func DefaultValidators() []ClusterConfigFunc {
	return []ClusterConfigFunc{
		WithBaseURL(DefaultBaseURL),
		WithAuth,
		WithTimeout(30 * time.Second),
		WithMaxConnections(10),
		WithUserAgent,
		WithBusyClassifier,
		WithLogger,
	}
}

// FromEnv builds a ClusterConfig from the REDIS_ENTERPRISE_* environment
// variables. An optional .env file in the working directory is loaded
// first; absence of the file is not an error.
//
// Variables:
//   - REDIS_ENTERPRISE_URL: base URL (default "https://localhost:9443")
//   - REDIS_ENTERPRISE_USER: username (default "admin@redis.local")
//   - REDIS_ENTERPRISE_PASSWORD: password (required)
//   - REDIS_ENTERPRISE_INSECURE: truthy string skips TLS verification
func FromEnv() (*ClusterConfig, error) {
	_ = godotenv.Load()

	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil, &ApiError{
			Kind:   KindAuthentication,
			Method: "CONFIG",
			Path:   EnvPassword,
			Err:    fmt.Errorf("environment variable %s must be set", EnvPassword),
		}
	}
	config := &ClusterConfig{
		BaseURL:  os.Getenv(EnvBaseURL),
		Username: os.Getenv(EnvUsername),
		Password: password,
		Insecure: truthy(os.Getenv(EnvInsecure)),
	}
	if config.Username == "" {
		config.Username = DefaultUsername
	}
	return config, nil
}

func truthy(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}
