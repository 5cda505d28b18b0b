package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ApiRequest is the generic request descriptor the facade operates on:
// method, path and optional body, decoupled from any concrete resource
// type. Immutable once constructed; decorators that need to change a
// request copy it.
type ApiRequest struct {
	Method  string
	Path    string
	Body    Params
	Headers []http.Header
	// Timeout optionally overrides the session default for this call.
	Timeout time.Duration
}

// NewGetRequest creates a GET descriptor.
func NewGetRequest(path string) ApiRequest {
	return ApiRequest{Method: http.MethodGet, Path: path}
}

// NewPostRequest creates a POST descriptor with a JSON body.
func NewPostRequest(path string, body Params) ApiRequest {
	return ApiRequest{Method: http.MethodPost, Path: path, Body: body}
}

// NewPutRequest creates a PUT descriptor with a JSON body.
func NewPutRequest(path string, body Params) ApiRequest {
	return ApiRequest{Method: http.MethodPut, Path: path, Body: body}
}

// NewPatchRequest creates a PATCH descriptor with a JSON body.
func NewPatchRequest(path string, body Params) ApiRequest {
	return ApiRequest{Method: http.MethodPatch, Path: path, Body: body}
}

// NewDeleteRequest creates a DELETE descriptor.
func NewDeleteRequest(path string) ApiRequest {
	return ApiRequest{Method: http.MethodDelete, Path: path}
}

// ApiResponse is the generic decoded response.
type ApiResponse struct {
	Body Renderable
}

// Service expresses the transport core as a request→response function so
// cross-cutting policy (retry, rate limiting, circuit breaking, tracing)
// can compose around it without touching typed resource bindings. A
// Service preserves request/response correspondence per call and never
// serializes unrelated concurrent calls against each other.
type Service interface {
	Call(ctx context.Context, req ApiRequest) (ApiResponse, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, req ApiRequest) (ApiResponse, error)

func (f ServiceFunc) Call(ctx context.Context, req ApiRequest) (ApiResponse, error) {
	return f(ctx, req)
}

// Middleware decorates a Service with additional behavior.
type Middleware func(Service) Service

// Chain wraps svc with the given middleware, first listed outermost.
func Chain(svc Service, middleware ...Middleware) Service {
	for i := len(middleware) - 1; i >= 0; i-- {
		svc = middleware[i](svc)
	}
	return svc
}

// AsService exposes the session as a composable Service. The facade is
// strictly additive: resources talk to the session directly and never
// depend on it.
func AsService(session RESTSession) Service {
	return ServiceFunc(func(ctx context.Context, req ApiRequest) (ApiResponse, error) {
		if ctx == nil {
			ctx = context.Background()
		}
		if req.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, req.Timeout)
			defer cancel()
		}
		var method SessionMethod
		switch strings.ToUpper(req.Method) {
		case http.MethodGet:
			method = session.Get
		case http.MethodPost:
			method = session.Post
		case http.MethodPut:
			method = session.Put
		case http.MethodPatch:
			method = session.Patch
		case http.MethodDelete:
			method = session.Delete
		default:
			return ApiResponse{}, fmt.Errorf("unknown verb: %s", req.Method)
		}
		body, err := method(ctx, req.Path, req.Body, req.Headers)
		if err != nil {
			return ApiResponse{}, err
		}
		return ApiResponse{Body: body}, nil
	})
}

// RetryConfig bounds the WithRetry decorator.
type RetryConfig struct {
	MaxAttempts   int           // including the first attempt
	Interval      time.Duration // initial delay between attempts
	MaxInterval   time.Duration // cap for exponential backoff
	BackoffFactor float64       // rate of interval increase
}

func (c *RetryConfig) normalize() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.Interval == 0 {
		c.Interval = 500 * time.Millisecond
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 0.5
	}
}

// WithRetry retries calls whose errors classify as retryable, with capped
// exponential backoff. Non-retryable classifications surface immediately.
func WithRetry(cfg RetryConfig) Middleware {
	cfg.normalize()
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req ApiRequest) (ApiResponse, error) {
			var (
				resp ApiResponse
				err  error
			)
			interval := cfg.Interval
			for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
				resp, err = next.Call(ctx, req)
				if err == nil || !IsRetryable(err) {
					return resp, err
				}
				if attempt == cfg.MaxAttempts {
					break
				}
				timer := time.NewTimer(interval)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ApiResponse{}, ctx.Err()
				}
				interval = time.Duration(float64(interval) * (1.0 + cfg.BackoffFactor))
				if interval > cfg.MaxInterval {
					interval = cfg.MaxInterval
				}
			}
			return resp, err
		})
	}
}

// WithRateLimit holds calls to at most r per second with the given burst,
// waiting (not dropping) when the limiter is exhausted.
func WithRateLimit(r rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(r, burst)
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req ApiRequest) (ApiResponse, error) {
			if err := limiter.Wait(ctx); err != nil {
				return ApiResponse{}, err
			}
			return next.Call(ctx, req)
		})
	}
}

// WithRequestID stamps every call with a unique X-Request-Id header so
// exchanges can be correlated across client and cluster logs.
func WithRequestID() Middleware {
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req ApiRequest) (ApiResponse, error) {
			stamped := req
			stamped.Headers = append(append([]http.Header{}, req.Headers...), http.Header{
				HeaderRequestID: []string{uuid.NewString()},
			})
			return next.Call(ctx, stamped)
		})
	}
}

// WithLogging records every call outcome on the given logger.
func WithLogging(logger *zerolog.Logger) Middleware {
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req ApiRequest) (ApiResponse, error) {
			start := time.Now()
			resp, err := next.Call(ctx, req)
			event := logger.Info()
			if err != nil {
				event = logger.Error().Err(err)
			}
			event.
				Str("method", req.Method).
				Str("path", req.Path).
				Dur("elapsed", time.Since(start)).
				Msg("service call")
			return resp, err
		})
	}
}
