package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind is the classification assigned to every failed API exchange.
// The transport never retries on its own; it classifies and surfaces, and
// callers (including the watch engine) decide on retry using the predicates
// below.
type ErrorKind int

const (
	// KindNetwork covers connect, DNS and TLS handshake failures.
	KindNetwork ErrorKind = iota
	// KindTimeout covers request timeouts and exceeded deadlines.
	KindTimeout
	// KindAuthentication is HTTP 401.
	KindAuthentication
	// KindAuthorization is HTTP 403.
	KindAuthorization
	// KindNotFound is HTTP 404.
	KindNotFound
	// KindConflict is HTTP 409.
	KindConflict
	// KindValidation is any other 4xx status.
	KindValidation
	// KindRateLimited is HTTP 429.
	KindRateLimited
	// KindClusterBusy is the maintenance-busy signal emitted while the
	// cluster is mid-operation (shard migration, node addition). It is kept
	// distinct from KindServer so callers can apply operation-specific
	// backoff instead of generic server-error handling.
	KindClusterBusy
	// KindServer is any other 5xx status.
	KindServer
	// KindDeserialization is a body-decode failure on a success status.
	KindDeserialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindClusterBusy:
		return "cluster_busy"
	case KindServer:
		return "server"
	case KindDeserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// Retryable reports whether an exchange that failed with this kind may be
// resubmitted as-is. Authentication, authorization, not-found, conflict,
// validation and decode failures require caller intervention first.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimited, KindClusterBusy, KindServer:
		return true
	default:
		return false
	}
}

// bodyExcerptLimit caps how much of a response body an ApiError carries.
const bodyExcerptLimit = 512

// ApiError represents a classified error returned from an API request.
type ApiError struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int
	Body       string // excerpt of the raw response body, for diagnostics
	Err        error  // underlying transport or decode error, if any
}

// Error implements the error interface.
func (e *ApiError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s request to %s failed: %v", e.Kind, e.Method, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s request to %s failed", e.Kind, e.Method, e.Path)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s: %s request to %s returned status code %d", e.Kind, e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf(
		"%s: %s request to %s returned status code %d, response body: %s",
		e.Kind, e.Method, e.Path, e.StatusCode, e.Body,
	)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// BusyClassifier decides whether a status/body pair is the cluster-busy
// maintenance signal. The exact signature varies across deployments;
// override it via ClusterConfig.BusyClassifier.
type BusyClassifier func(statusCode int, body []byte) bool

// DefaultBusyClassifier treats 503, and any 5xx whose body mentions a busy
// or recovering cluster, as the maintenance-busy signal.
func DefaultBusyClassifier(statusCode int, body []byte) bool {
	if statusCode == http.StatusServiceUnavailable {
		return true
	}
	if statusCode < 500 {
		return false
	}
	lowered := strings.ToLower(string(body))
	return strings.Contains(lowered, "cluster_busy") ||
		strings.Contains(lowered, "cluster is busy") ||
		strings.Contains(lowered, "in recovery")
}

// classifyStatus maps a non-2xx status code onto the taxonomy. busy may be
// nil, in which case DefaultBusyClassifier applies.
func classifyStatus(method, path string, statusCode int, body []byte, busy BusyClassifier) *ApiError {
	if busy == nil {
		busy = DefaultBusyClassifier
	}
	var kind ErrorKind
	switch {
	case statusCode == http.StatusUnauthorized:
		kind = KindAuthentication
	case statusCode == http.StatusForbidden:
		kind = KindAuthorization
	case statusCode == http.StatusNotFound:
		kind = KindNotFound
	case statusCode == http.StatusConflict:
		kind = KindConflict
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimited
	case busy(statusCode, body):
		kind = KindClusterBusy
	case statusCode >= 500:
		kind = KindServer
	default:
		kind = KindValidation
	}
	return &ApiError{
		Kind:       kind,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Body:       excerpt(body),
	}
}

// classifyTransportError maps a failure that produced no HTTP response
// (connect refused, DNS, TLS handshake, timeout) onto the taxonomy.
func classifyTransportError(method, path string, err error) *ApiError {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &ApiError{
		Kind:   kind,
		Method: method,
		Path:   path,
		Err:    err,
	}
}

// classifyDecodeError marks a body-decode mismatch on an otherwise
// successful status.
func classifyDecodeError(method, path string, statusCode int, body []byte, err error) *ApiError {
	return &ApiError{
		Kind:       KindDeserialization,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Body:       excerpt(body),
		Err:        err,
	}
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > bodyExcerptLimit {
		return s[:bodyExcerptLimit]
	}
	return s
}

// IsApiError reports whether err is (or wraps) an *ApiError.
func IsApiError(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr)
}

// KindOf extracts the classification of err. The second return is false
// when err is not an *ApiError.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

func kindIs(err error, kinds ...ErrorKind) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a classified error whose kind permits
// resubmission: network, timeout, rate-limited, cluster-busy or server.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Retryable()
}

// IsTimeout reports whether err is a classified timeout.
func IsTimeout(err error) bool {
	return kindIs(err, KindTimeout)
}

// IsNotFound reports whether err is a classified 404.
func IsNotFound(err error) bool {
	return kindIs(err, KindNotFound)
}

// IsConflict reports whether err is a classified 409.
func IsConflict(err error) bool {
	return kindIs(err, KindConflict)
}

// IsRateLimited reports whether err is a classified 429.
func IsRateLimited(err error) bool {
	return kindIs(err, KindRateLimited)
}

// IsClusterBusy reports whether err is the maintenance-busy signal.
func IsClusterBusy(err error) bool {
	return kindIs(err, KindClusterBusy)
}

// IsAuthError reports whether err is a classified 401 or 403.
func IsAuthError(err error) bool {
	return kindIs(err, KindAuthentication, KindAuthorization)
}

// IgnoreNotFound discards a classified 404, returning val untouched.
// Useful for idempotent deletes.
func IgnoreNotFound(val Record, err error) (Record, error) {
	if IsNotFound(err) {
		return val, nil
	}
	return val, err
}

// IgnoreStatusCodes discards a classified error whose status code is listed.
func IgnoreStatusCodes(err error, codes ...int) error {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return err
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return nil
		}
	}
	return err
}

// ExpectStatusCodes reports whether err is a classified error carrying one
// of the listed status codes.
func ExpectStatusCodes(err error, codes ...int) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}
