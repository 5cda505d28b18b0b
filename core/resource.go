package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const dummyResourceType = "Dummy"

// Dummy resource backs request interceptors for "low level" session
// methods (GET, POST, ...) issued outside any concrete resource.
type Dummy struct {
	*EnterpriseResource
}

type DummyRest struct {
	ctx         context.Context
	Session     RESTSession
	resourceMap map[string]ResourceAPIWithContext
}

func (rest *DummyRest) GetSession() RESTSession {
	return rest.Session
}

func (rest *DummyRest) GetResourceMap() map[string]ResourceAPIWithContext {
	return rest.resourceMap
}

func (rest *DummyRest) GetCtx() context.Context {
	return rest.ctx
}

func (rest *DummyRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

func NewDummy(ctx context.Context, session RESTSession) *Dummy {
	dummy := &Dummy{
		EnterpriseResource: &EnterpriseResource{
			resourceType: dummyResourceType,
			resourcePath: "",
		},
	}
	rest := &DummyRest{
		ctx:         ctx,
		Session:     session,
		resourceMap: map[string]ResourceAPIWithContext{dummyResourceType: dummy},
	}
	dummy.Rest = rest
	return dummy
}

//  ######################################################
//              RESOURCE BASE CRUD OPS
//  ######################################################

// TooManyRecordsError indicates a singular Get matched multiple records.
type TooManyRecordsError struct {
	ResourcePath string
	Params       Params
}

func (e *TooManyRecordsError) Error() string {
	return fmt.Sprintf("too many records found for resource '%s' with params '%v'", e.ResourcePath, e.Params)
}

// EnterpriseResource implements ResourceAPIWithContext and provides common
// behavior for all cluster resources. Concrete resources embed it and gain
// the full CRUD surface over their path.
type EnterpriseResource struct {
	resourcePath string
	resourceType string
	Rest         EnterpriseRestAPI
	mu           *KeyLocker
}

func NewEnterpriseResource(resourcePath, resourceType string, rest EnterpriseRestAPI) *EnterpriseResource {
	return &EnterpriseResource{
		resourcePath: resourcePath,
		resourceType: resourceType,
		Rest:         rest,
		mu:           NewKeyLocker(),
	}
}

// Session returns the session associated with the resource.
func (e *EnterpriseResource) Session() RESTSession {
	return e.Rest.GetSession()
}

func (e *EnterpriseResource) GetResourceType() string {
	return e.resourceType
}

// GetResourcePath returns the normalized resource path, e.g. "/v1/bdbs".
func (e *EnterpriseResource) GetResourcePath() string {
	return "/" + strings.Trim(e.resourcePath, "/")
}

func (e *EnterpriseResource) uidPath(uid any) string {
	return fmt.Sprintf("%s/%v", e.GetResourcePath(), uid)
}

// Lock acquires a resource-scoped lock over the given keys.
func (e *EnterpriseResource) Lock(keys ...any) func() {
	allKeys := append([]any{e.resourceType}, keys...)
	return e.mu.Lock(allKeys...)
}

// ListWithContext retrieves all records, optionally narrowed by query
// params.
func (e *EnterpriseResource) ListWithContext(ctx context.Context, params Params) (RecordSet, error) {
	return Request[RecordSet](ctx, e.withInterceptors(), http.MethodGet, e.GetResourcePath(), params, nil)
}

// CreateWithContext creates a new record from the given body.
func (e *EnterpriseResource) CreateWithContext(ctx context.Context, body Params) (Record, error) {
	return Request[Record](ctx, e.withInterceptors(), http.MethodPost, e.GetResourcePath(), nil, body)
}

// UpdateWithContext updates the record identified by uid.
func (e *EnterpriseResource) UpdateWithContext(ctx context.Context, uid any, body Params) (Record, error) {
	return Request[Record](ctx, e.withInterceptors(), http.MethodPut, e.uidPath(uid), nil, body)
}

// DeleteWithContext deletes the record identified by uid. Deleting an
// already-absent record surfaces the classified 404 untouched; use
// IgnoreNotFound for idempotent teardown.
func (e *EnterpriseResource) DeleteWithContext(ctx context.Context, uid any) (Record, error) {
	return Request[Record](ctx, e.withInterceptors(), http.MethodDelete, e.uidPath(uid), nil, nil)
}

// GetByUIDWithContext retrieves one record by its unique identifier.
func (e *EnterpriseResource) GetByUIDWithContext(ctx context.Context, uid any) (Record, error) {
	return Request[Record](ctx, e.withInterceptors(), http.MethodGet, e.uidPath(uid), nil, nil)
}

// GetWithContext retrieves exactly one record matching params. The cluster
// API does not filter most collections server-side, so matching happens on
// the decoded set; zero matches classify as not-found, more than one as
// TooManyRecordsError.
func (e *EnterpriseResource) GetWithContext(ctx context.Context, params Params) (Record, error) {
	records, err := e.ListWithContext(ctx, nil)
	if err != nil {
		return nil, err
	}
	var matches RecordSet
	for _, record := range records {
		if recordMatches(record, params) {
			matches = append(matches, record)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &ApiError{
			Kind:   KindNotFound,
			Method: http.MethodGet,
			Path:   e.GetResourcePath(),
			Body:   fmt.Sprintf("no %s record matches params %v", e.resourceType, params),
		}
	case 1:
		return matches[0], nil
	default:
		return nil, &TooManyRecordsError{ResourcePath: e.GetResourcePath(), Params: params}
	}
}

// ExistsWithContext reports whether at least one record matches params.
func (e *EnterpriseResource) ExistsWithContext(ctx context.Context, params Params) (bool, error) {
	_, err := e.GetWithContext(ctx, params)
	if err != nil {
		var tooMany *TooManyRecordsError
		switch {
		case IsNotFound(err):
			return false, nil
		case errors.As(err, &tooMany):
			return true, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// WatchWithContext starts a watch session over the record identified by
// uid, polling until predicate reports a terminal outcome (or forever when
// predicate is nil).
func (e *EnterpriseResource) WatchWithContext(ctx context.Context, uid any, predicate TerminalPredicate, cfg *WatchConfig) (*WatchSession, error) {
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		return e.GetByUIDWithContext(ctx, uid)
	})
	return Watch(ctx, fmt.Sprintf("%s/%v", e.resourceType, uid), fetch, predicate, cfg), nil
}

// List retrieves all resources matching the given parameters.
func (e *EnterpriseResource) List(params Params) (RecordSet, error) {
	return e.ListWithContext(e.Rest.GetCtx(), params)
}

func (e *EnterpriseResource) Create(body Params) (Record, error) {
	return e.CreateWithContext(e.Rest.GetCtx(), body)
}

func (e *EnterpriseResource) Update(uid any, body Params) (Record, error) {
	return e.UpdateWithContext(e.Rest.GetCtx(), uid, body)
}

func (e *EnterpriseResource) Delete(uid any) (Record, error) {
	return e.DeleteWithContext(e.Rest.GetCtx(), uid)
}

func (e *EnterpriseResource) Get(params Params) (Record, error) {
	return e.GetWithContext(e.Rest.GetCtx(), params)
}

func (e *EnterpriseResource) GetByUID(uid any) (Record, error) {
	return e.GetByUIDWithContext(e.Rest.GetCtx(), uid)
}

func (e *EnterpriseResource) Exists(params Params) (bool, error) {
	return e.ExistsWithContext(e.Rest.GetCtx(), params)
}

// withInterceptors returns the registered resource instance so shadowed
// BeforeRequest/AfterRequest hooks run, falling back to the base resource.
func (e *EnterpriseResource) withInterceptors() ResourceAPIWithContext {
	if registered, ok := e.Rest.GetResourceMap()[e.resourceType]; ok {
		return registered
	}
	return e
}

// recordMatches reports whether every param key/value pair equals the
// record's attribute rendered as a string.
func recordMatches(record Record, params Params) bool {
	for key, want := range params {
		got, ok := record[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

