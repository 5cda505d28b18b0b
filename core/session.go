package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

// caller carries the resource that initiated a request, so its
// interceptors run even when the exchange goes through session verbs.
const caller contextKey = "@caller"

// RESTSession executes single HTTP exchanges against the cluster API.
// Implementations must be safe for concurrent use; the only shared mutable
// state is the underlying connection pool.
type RESTSession interface {
	Get(context.Context, string, Params, []http.Header) (Renderable, error)
	Post(context.Context, string, Params, []http.Header) (Renderable, error)
	Put(context.Context, string, Params, []http.Header) (Renderable, error)
	Patch(context.Context, string, Params, []http.Header) (Renderable, error)
	Delete(context.Context, string, Params, []http.Header) (Renderable, error)
	GetText(context.Context, string) (string, error)
	GetBinary(context.Context, string) ([]byte, error)
	GetConfig() *ClusterConfig
	GetAuthenticator() Authenticator
}

// ClusterSession is the transport core: it executes exactly one logical
// exchange per call and returns either a decoded value or a classified
// error. It never retries internally.
type ClusterSession struct {
	config *ClusterConfig
	client *http.Client
	auth   Authenticator
}

// SessionMethod is the shape shared by all per-verb session methods.
type SessionMethod func(context.Context, string, Params, []http.Header) (Renderable, error)

// NewClusterSession builds a session from a validated config. The pooled
// transport validates server certificates unless Insecure is set.
func NewClusterSession(config *ClusterConfig) (*ClusterSession, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: config.Insecure}
	transport.MaxConnsPerHost = config.MaxConnections
	transport.IdleConnTimeout = *config.Timeout
	client := &http.Client{Transport: transport, Timeout: *config.Timeout}
	auth, err := createAuthenticator(config)
	if err != nil {
		return nil, err
	}
	return &ClusterSession{
		config: config,
		client: client,
		auth:   auth,
	}, nil
}

// Request executes a verb against a resource path through the resource's
// session, normalizing single-record responses into record sets where the
// caller expects a set.
func Request[T RecordUnion](
	ctx context.Context,
	r ResourceAPIWithContext,
	verb, path string,
	params, body Params,
) (T, error) {
	return RequestWithHeaders[T](ctx, r, verb, path, params, body, nil)
}

// RequestWithHeaders is Request with custom headers attached.
func RequestWithHeaders[T RecordUnion](
	ctx context.Context,
	r ResourceAPIWithContext,
	verb, path string,
	params, body Params,
	headers []http.Header,
) (T, error) {
	var (
		method SessionMethod
		query  string
	)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, caller, r)
	verb = strings.ToUpper(verb)
	session := r.Session()

	switch verb {
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
		return nil, fmt.Errorf("unknown verb: %s", verb)
	}
	if params != nil {
		query = params.ToQuery()
	}
	url, err := buildURL(session.GetConfig(), path, query)
	if err != nil {
		return nil, err
	}

	response, err := method(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}

	// Some endpoints return a single object where callers expect a list;
	// cast Record to RecordSet to eliminate the discrepancy.
	if typeMatch[Record](response) {
		var zero T
		if typeMatch[RecordSet](Renderable(zero)) {
			if !response.(Record).Empty() {
				response = RecordSet{response.(Record)}
			} else {
				response = RecordSet{}
			}
		}
	}

	resultVal, ok := response.(T)
	if !ok {
		return nil, fmt.Errorf(
			"unexpected response type for request to %s: got %T, expected %T",
			url, response, *new(T),
		)
	}
	return resultVal, nil
}

func (s *ClusterSession) Get(ctx context.Context, path string, params Params, headers []http.Header) (Renderable, error) {
	if params != nil {
		var err error
		if path, err = buildURL(s.config, path, params.ToQuery()); err != nil {
			return nil, err
		}
	}
	return doRequest(ctx, s, http.MethodGet, path, nil, headers)
}

func (s *ClusterSession) Post(ctx context.Context, path string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPost, path, body, headers)
}

func (s *ClusterSession) Put(ctx context.Context, path string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPut, path, body, headers)
}

func (s *ClusterSession) Patch(ctx context.Context, path string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPatch, path, body, headers)
}

func (s *ClusterSession) Delete(ctx context.Context, path string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodDelete, path, body, headers)
}

// GetText retrieves a text endpoint (log exports, license blobs) without
// JSON decoding. Failures classify through the same taxonomy as typed
// calls.
func (s *ClusterSession) GetText(ctx context.Context, path string) (string, error) {
	body, err := s.getBytes(ctx, path, ContentTypeTextPlain)
	return string(body), err
}

// GetBinary retrieves a binary endpoint (debuginfo tarballs).
func (s *ClusterSession) GetBinary(ctx context.Context, path string) ([]byte, error) {
	return s.getBytes(ctx, path, ContentTypeOctetStream)
}

func (s *ClusterSession) getBytes(ctx context.Context, path, accept string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url, err := buildURL(s.config, path, "")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderAccept, accept)
	req.Header.Set(HeaderUserAgent, s.config.UserAgent)
	s.auth.setAuthHeader(&req.Header)

	response, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(http.MethodGet, url, err)
	}
	defer response.Body.Close()
	body, readErr := io.ReadAll(response.Body)
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, classifyStatus(http.MethodGet, url, response.StatusCode, body, s.config.BusyClassifier)
	}
	if readErr != nil {
		return nil, classifyTransportError(http.MethodGet, url, readErr)
	}
	return body, nil
}

func (s *ClusterSession) GetConfig() *ClusterConfig {
	return s.config
}

func (s *ClusterSession) GetAuthenticator() Authenticator {
	return s.auth
}

// consolidateHeaders merges custom headers with defaults, custom first.
func consolidateHeaders(s RESTSession, customHeaders []http.Header) http.Header {
	finalHeaders := make(http.Header)
	for _, header := range customHeaders {
		for key, values := range header {
			for _, value := range values {
				finalHeaders.Add(key, value)
			}
		}
	}
	if finalHeaders.Get(HeaderAccept) == "" {
		finalHeaders.Set(HeaderAccept, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderContentType) == "" {
		finalHeaders.Set(HeaderContentType, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderUserAgent) == "" {
		finalHeaders.Set(HeaderUserAgent, s.GetConfig().UserAgent)
	}
	return finalHeaders
}

func setupHeaders(s RESTSession, r *http.Request, headers http.Header) {
	// Credentials attach to every request; each call is independently
	// authenticated.
	s.GetAuthenticator().setAuthHeader(&r.Header)
	for key, values := range headers {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
}

// doRequest creates and processes one HTTP exchange using the context.
// Every failure path classifies through the error taxonomy: transport
// failures, non-2xx statuses and decode mismatches alike.
func doRequest(ctx context.Context, s *ClusterSession, verb, path string, body Params, headers []http.Header) (Renderable, error) {
	var (
		config            = s.GetConfig()
		resourceCaller    InterceptableResourceAPI
		requestData       io.Reader
		beforeRequestData io.Reader
		err               error
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if config.Context != nil {
		select {
		case <-config.Context.Done():
			return nil, classifyTransportError(verb, path, config.Context.Err())
		default:
		}
	}
	originResource, resourceExist := ctx.Value(caller).(InterceptableResourceAPI)
	if !resourceExist {
		resourceCaller = NewDummy(ctx, s)
	} else {
		resourceCaller = originResource
	}

	url, err := buildURL(config, path, "")
	if err != nil {
		return nil, err
	}

	finalHeaders := consolidateHeaders(s, headers)
	contentType := finalHeaders.Get(HeaderContentType)
	useMultipart := strings.Contains(strings.ToLower(contentType), ContentTypeMultipartForm)

	if body == nil {
		requestData = bytes.NewReader(nil)
	} else if useMultipart {
		multipartData, err := body.ToMultipartFormData()
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart form data: %w", err)
		}
		requestData = multipartData.Body
		finalHeaders.Set(HeaderContentType, multipartData.ContentType)
	} else {
		if requestData, err = body.ToBody(); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, verb, url, requestData)
	if err != nil {
		return nil, err
	}
	if body != nil && !useMultipart {
		// Fresh copy for interceptor inspection; the original reader is
		// consumed by the request itself.
		if beforeRequestData, err = body.ToBody(); err != nil {
			return nil, err
		}
	}
	setupHeaders(s, req, finalHeaders)

	if err = resourceCaller.doBeforeRequest(ctx, req, verb, url, beforeRequestData); err != nil {
		return nil, err
	}

	start := time.Now()
	response, responseErr := s.client.Do(req)
	if responseErr != nil {
		classified := classifyTransportError(verb, url, responseErr)
		config.Logger.Debug().
			Str("method", verb).
			Str("url", url).
			Str("kind", classified.Kind.String()).
			Dur("elapsed", time.Since(start)).
			Err(responseErr).
			Msg("http request failed")
		return nil, classified
	}
	defer response.Body.Close()

	rawBody, readErr := io.ReadAll(response.Body)
	config.Logger.Debug().
		Str("method", verb).
		Str("url", url).
		Int("status", response.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("http request complete")
	if config.Logger.GetLevel() <= zerolog.TraceLevel {
		config.Logger.Trace().Str("url", url).Msg(prettyBody(rawBody))
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, classifyStatus(verb, url, response.StatusCode, rawBody, config.BusyClassifier)
	}
	if readErr != nil {
		return nil, classifyTransportError(verb, url, readErr)
	}
	result, err := unmarshalBodyToRecordUnion(response.StatusCode, rawBody)
	if err != nil {
		return nil, classifyDecodeError(verb, url, response.StatusCode, rawBody, err)
	}
	return resourceCaller.doAfterRequest(ctx, result)
}
