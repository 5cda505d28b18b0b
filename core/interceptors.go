package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ActionResourceType tags records that reference a long-running action.
const ActionResourceType = "Action"

// BeforeRequest is a no-op in the base resource. Shadow this method on a
// concrete resource (Bdbs, Nodes, ...) to intercept outgoing requests.
func (e *EnterpriseResource) BeforeRequest(_ context.Context, r *http.Request, verb, url string, body io.Reader) error {
	return nil
}

// AfterRequest is a no-op in the base resource. Shadow this method on a
// concrete resource to transform decoded responses.
func (e *EnterpriseResource) AfterRequest(_ context.Context, response Renderable) (Renderable, error) {
	return response, nil
}

// doBeforeRequest runs resource-level and config-level hooks. For internal
// use only.
func (e *EnterpriseResource) doBeforeRequest(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error {
	config := e.Session().GetConfig()
	resourceType := e.GetResourceType()
	resourceCaller, ok := e.Rest.GetResourceMap()[resourceType]
	if !ok {
		panic(fmt.Sprintf("resource not found in resourceMap for %s", resourceType))
	}
	if interceptor, ok := resourceCaller.(RequestInterceptor); ok {
		if err := interceptor.BeforeRequest(ctx, r, verb, url, body); err != nil {
			return err
		}
	}
	if config.BeforeRequestFn != nil {
		return config.BeforeRequestFn(ctx, r, verb, url, body)
	}
	return nil
}

// doAfterRequest runs resource-level and config-level hooks plus the
// common response mutations. For internal use only.
func (e *EnterpriseResource) doAfterRequest(ctx context.Context, response Renderable) (Renderable, error) {
	var err error
	config := e.Session().GetConfig()
	resourceType := e.GetResourceType()
	isDummyResource := resourceType == dummyResourceType
	resourceCaller, ok := e.Rest.GetResourceMap()[resourceType]
	if !ok {
		panic(fmt.Sprintf("resource not found in resourceMap for %s", resourceType))
	}
	if !isDummyResource {
		if err = setResourceKey(response, resourceType); err != nil {
			return nil, err
		}
	}
	if interceptor, ok := resourceCaller.(RequestInterceptor); ok {
		response, err = interceptor.AfterRequest(ctx, response)
		if err != nil {
			return nil, err
		}
	}
	if config.AfterRequestFn != nil {
		response, err = config.AfterRequestFn(ctx, response)
		if err != nil {
			return nil, err
		}
	}
	mutated, err := defaultResponseMutations(response)
	if err != nil {
		return nil, err
	}
	// Mutations can produce new Record instances which don't carry the
	// earlier resource key; re-attach it.
	if !isDummyResource {
		if err = setResourceKey(mutated, resourceType); err != nil {
			return nil, err
		}
	}
	return mutated, nil
}

// defaultResponseMutations applies transformations common to all resource
// types. Action endpoints frequently answer a mutation with a task handle
// ({"action_uid": ...}) instead of the resource itself; tagging those
// records lets callers hand them straight to an AsyncResult.
func defaultResponseMutations(response Renderable) (Renderable, error) {
	switch typed := response.(type) {
	case Record:
		if _, ok := typed["action_uid"]; ok {
			typed.SetMissingValue(ResourceTypeKey, ActionResourceType)
		}
		return typed, nil
	case RecordSet:
		return typed, nil
	}
	return nil, fmt.Errorf("unsupported type %T for result", response)
}
