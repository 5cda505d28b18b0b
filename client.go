package redis_enterprise

import (
	"github.com/redis-developer/go-redis-enterprise/core"
	"github.com/redis-developer/go-redis-enterprise/rest"
)

type (
	ClusterConfig            = core.ClusterConfig
	Params                   = core.Params
	Record                   = core.Record
	RecordSet                = core.RecordSet
	Renderable               = core.Renderable
	ApiError                 = core.ApiError
	ErrorKind                = core.ErrorKind
	AsyncResult              = core.AsyncResult
	WatchConfig              = core.WatchConfig
	WatchSession             = core.WatchSession
	Snapshot                 = core.Snapshot
	EnterpriseRest           = rest.EnterpriseRest
	ResourceAPI              = core.ResourceAPI
	ResourceAPIWithContext   = core.ResourceAPIWithContext
	InterceptableResourceAPI = core.InterceptableResourceAPI
)

func NewEnterpriseRest(config *ClusterConfig) (*EnterpriseRest, error) {
	return rest.NewEnterpriseRest(config)
}

// NewEnterpriseRestFromEnv builds a client from REDIS_ENTERPRISE_*
// environment variables.
func NewEnterpriseRestFromEnv() (*EnterpriseRest, error) {
	return rest.NewEnterpriseRestFromEnv()
}
