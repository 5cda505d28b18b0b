package core

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ResourceAPI defines the standard CRUD operations on a cluster resource.
type ResourceAPI interface {
	Session() RESTSession
	GetResourceType() string
	GetResourcePath() string

	List(Params) (RecordSet, error)
	Create(Params) (Record, error)
	Update(any, Params) (Record, error)
	Delete(any) (Record, error)
	Get(Params) (Record, error)
	GetByUID(any) (Record, error)
	Exists(Params) (bool, error)
	// Resource-level mutex lock for concurrent access control
	Lock(...any) func()
}

// ResourceAPIWithContext extends ResourceAPI with context-aware variants.
// These are the asynchronous entry points: each blocks only at network I/O
// and honors cancellation through the supplied context.
type ResourceAPIWithContext interface {
	ResourceAPI
	ListWithContext(context.Context, Params) (RecordSet, error)
	CreateWithContext(context.Context, Params) (Record, error)
	UpdateWithContext(context.Context, any, Params) (Record, error)
	DeleteWithContext(context.Context, any) (Record, error)
	GetWithContext(context.Context, Params) (Record, error)
	GetByUIDWithContext(context.Context, any) (Record, error)
	ExistsWithContext(context.Context, Params) (bool, error)
	WatchWithContext(context.Context, any, TerminalPredicate, *WatchConfig) (*WatchSession, error)
}

// InterceptableResourceAPI combines request interception with resource
// behavior.
type InterceptableResourceAPI interface {
	RequestInterceptor
	ResourceAPIWithContext
}

// Awaitable is implemented by handles over long-running operations.
type Awaitable interface {
	WaitWithContext(context.Context) (Record, error)
	Wait(time.Duration) (Record, error)
}

// RequestInterceptor defines a middleware-style interface for intercepting
// API requests and responses. Implement BeforeRequest/AfterRequest on a
// concrete resource to shadow the no-op defaults.
type RequestInterceptor interface {
	// BeforeRequest is invoked prior to sending the API request.
	BeforeRequest(context.Context, *http.Request, string, string, io.Reader) error

	// AfterRequest is invoked after the API response is decoded. It may
	// inspect, mutate or replace the decoded value.
	AfterRequest(context.Context, Renderable) (Renderable, error)

	// doBeforeRequest and doAfterRequest are internal plumbing; resources
	// must not shadow them.
	doBeforeRequest(context.Context, *http.Request, string, string, io.Reader) error
	doAfterRequest(context.Context, Renderable) (Renderable, error)
}

// EnterpriseRestAPI is the aggregate the resources hang off.
type EnterpriseRestAPI interface {
	GetSession() RESTSession
	GetResourceMap() map[string]ResourceAPIWithContext
	GetCtx() context.Context
	SetCtx(context.Context)
}
