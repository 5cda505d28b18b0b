package resources

import (
	"context"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Bootstrap drives initial node setup: creating a cluster or joining an
// existing one. The endpoint often replies with an empty body on accept,
// which decodes as an empty record.
type Bootstrap struct {
	*core.EnterpriseResource
}

// StatusWithContext reports the node bootstrap state.
func (b *Bootstrap) StatusWithContext(ctx context.Context) (core.Record, error) {
	return core.Request[core.Record](ctx, b, "GET", b.GetResourcePath(), nil, nil)
}

func (b *Bootstrap) Status() (core.Record, error) {
	return b.StatusWithContext(b.Rest.GetCtx())
}

// StartWithContext submits a bootstrap request. action is
// "create_cluster" or "join_cluster".
func (b *Bootstrap) StartWithContext(ctx context.Context, action string, body core.Params) (core.Record, error) {
	payload := core.Params{"action": action}
	payload.Update(body, false)
	return core.Request[core.Record](ctx, b, "POST", b.GetResourcePath(), nil, payload)
}

func (b *Bootstrap) Start(action string, body core.Params) (core.Record, error) {
	return b.StartWithContext(b.Rest.GetCtx(), action, body)
}

// ValidateWithContext dry-runs a bootstrap request without applying it.
func (b *Bootstrap) ValidateWithContext(ctx context.Context, action string, body core.Params) (core.Record, error) {
	payload := core.Params{"action": action}
	payload.Update(body, false)
	return core.Request[core.Record](ctx, b, "POST", b.GetResourcePath()+"/validate", nil, payload)
}

func (b *Bootstrap) Validate(action string, body core.Params) (core.Record, error) {
	return b.ValidateWithContext(b.Rest.GetCtx(), action, body)
}
