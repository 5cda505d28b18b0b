package rest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/redis-developer/go-redis-enterprise/core"
	"github.com/redis-developer/go-redis-enterprise/resources"
)

// EnterpriseResourceType defines the interface constraint for resources
// attached to the client.
type EnterpriseResourceType interface {
	core.ResourceAPIWithContext
}

// EnterpriseRest is the top-level client. Each field is a handle over one
// REST collection; all handles share one session and one resource map.
type EnterpriseRest struct {
	ctx         context.Context
	Session     core.RESTSession
	resourceMap map[string]core.ResourceAPIWithContext

	Actions   *resources.Action
	Bdbs      *resources.Bdb
	Bootstrap *resources.Bootstrap
	Cluster   *resources.Cluster
	Crdbs     *resources.Crdb
	DebugInfo *resources.DebugInfo
	License   *resources.License
	Logs      *resources.Logs
	Modules   *resources.RedisModule
	Nodes     *resources.Node
	RedisACLs *resources.RedisACL
	Roles     *resources.Role
	Stats     *resources.Stats
	Users     *resources.User
}

// NewEnterpriseRest creates a client from the given config, applying the
// default validators for anything left unset.
func NewEnterpriseRest(config *core.ClusterConfig) (*EnterpriseRest, error) {
	config.Validate(core.DefaultValidators()...)
	session, err := core.NewClusterSession(config)
	if err != nil {
		return nil, err
	}
	return newEnterpriseRest(session, config.Context), nil
}

// NewEnterpriseRestFromEnv creates a client from REDIS_ENTERPRISE_*
// environment variables, reading .env when present.
func NewEnterpriseRestFromEnv() (*EnterpriseRest, error) {
	config, err := core.FromEnv()
	if err != nil {
		return nil, err
	}
	return NewEnterpriseRest(config)
}

func newEnterpriseRest(session core.RESTSession, ctx context.Context) *EnterpriseRest {
	rest := &EnterpriseRest{
		Session:     session,
		resourceMap: make(map[string]core.ResourceAPIWithContext),
	}
	if ctx != nil {
		rest.SetCtx(ctx)
	} else {
		rest.SetCtx(context.Background())
	}

	rest.Actions = newResource[resources.Action](rest, "v1/actions")
	rest.Bdbs = newResource[resources.Bdb](rest, "v1/bdbs")
	rest.Bootstrap = newResource[resources.Bootstrap](rest, "v1/bootstrap")
	rest.Cluster = newResource[resources.Cluster](rest, "v1/cluster")
	rest.Crdbs = newResource[resources.Crdb](rest, "v1/crdbs")
	rest.DebugInfo = newResource[resources.DebugInfo](rest, "v1/debuginfo")
	rest.License = newResource[resources.License](rest, "v1/license")
	rest.Logs = newResource[resources.Logs](rest, "v1/logs")
	rest.Modules = newResource[resources.RedisModule](rest, "v1/modules")
	rest.Nodes = newResource[resources.Node](rest, "v1/nodes")
	rest.RedisACLs = newResource[resources.RedisACL](rest, "v1/redis_acls")
	rest.Roles = newResource[resources.Role](rest, "v1/roles")
	rest.Stats = newResource[resources.Stats](rest, "v1/cluster/stats")
	rest.Users = newResource[resources.User](rest, "v1/users")
	return rest
}

func (rest *EnterpriseRest) GetSession() core.RESTSession {
	return rest.Session
}

func (rest *EnterpriseRest) GetResourceMap() map[string]core.ResourceAPIWithContext {
	return rest.resourceMap
}

func (rest *EnterpriseRest) GetCtx() context.Context {
	return rest.ctx
}

func (rest *EnterpriseRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

func newResource[T EnterpriseResourceType](rest *EnterpriseRest, resourcePath string) *T {
	var zero T
	t := reflect.TypeOf(zero)
	resourceType := t.Name()

	instance := reflect.New(t).Interface()
	resource := core.NewEnterpriseResource(resourcePath, resourceType, rest)

	// Every resource embeds *core.EnterpriseResource; wire it up through
	// reflection so each concrete type stays a plain struct declaration.
	val := reflect.ValueOf(instance).Elem()
	found := false
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Type() == reflect.TypeOf((*core.EnterpriseResource)(nil)) {
			if field.CanSet() {
				field.Set(reflect.ValueOf(resource))
				found = true
				break
			}
		}
	}
	if !found {
		panic(fmt.Sprintf("resource %s does not embed *core.EnterpriseResource", resourceType))
	}

	if res, ok := instance.(core.ResourceAPIWithContext); ok {
		rest.resourceMap[resourceType] = res
	}

	if result, ok := instance.(*T); ok {
		return result
	}
	panic(fmt.Sprintf("failed to convert instance to type *%s", resourceType))
}
