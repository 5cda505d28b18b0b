package resources

import (
	"context"
	"fmt"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Node exposes cluster node inventory and maintenance actions.
type Node struct {
	*core.EnterpriseResource
}

// ActionWithContext runs a node maintenance action (e.g. "maintenance_on",
// "maintenance_off", "remove") and returns the task handle tracking it.
func (n *Node) ActionWithContext(ctx context.Context, uid any, action string, body core.Params) (*core.AsyncResult, error) {
	path := fmt.Sprintf("%s/%v/actions/%s", n.GetResourcePath(), uid, action)
	record, err := core.Request[core.Record](ctx, n, "POST", path, nil, body)
	if err != nil {
		return nil, err
	}
	if ar := core.MaybeAsyncResultFromRecord(ctx, record, n.Rest); ar != nil {
		return ar, nil
	}
	return nil, fmt.Errorf("%s of node %v returned no action_uid", action, uid)
}

func (n *Node) Action(uid any, action string, body core.Params) (*core.AsyncResult, error) {
	return n.ActionWithContext(n.Rest.GetCtx(), uid, action, body)
}

// ActionStatusWithContext reports the status of a pending node action.
func (n *Node) ActionStatusWithContext(ctx context.Context, uid any, action string) (core.Record, error) {
	path := fmt.Sprintf("%s/%v/actions/%s", n.GetResourcePath(), uid, action)
	return core.Request[core.Record](ctx, n, "GET", path, nil, nil)
}

func (n *Node) ActionStatus(uid any, action string) (core.Record, error) {
	return n.ActionStatusWithContext(n.Rest.GetCtx(), uid, action)
}
