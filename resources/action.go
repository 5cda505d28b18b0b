package resources

import (
	"context"
	"fmt"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Action tracks asynchronous cluster tasks (database imports, recovery,
// shard migration). Records carry action_uid, status and progress.
type Action struct {
	*core.EnterpriseResource
}

// CancelWithContext requests cancellation of a queued or running action.
// The cluster acknowledges the request; the action settles into the
// "cancelled" state asynchronously.
func (a *Action) CancelWithContext(ctx context.Context, actionUID string) error {
	path := fmt.Sprintf("%s/%s", a.GetResourcePath(), actionUID)
	_, err := core.Request[core.Record](ctx, a, "DELETE", path, nil, nil)
	return err
}

func (a *Action) Cancel(actionUID string) error {
	return a.CancelWithContext(a.Rest.GetCtx(), actionUID)
}

// WaitWithContext blocks until the action reaches a settled state.
func (a *Action) WaitWithContext(ctx context.Context, actionUID string, cfg *core.WatchConfig) (core.Record, error) {
	ws, err := a.WatchWithContext(ctx, actionUID, core.ActionTerminalPredicate, cfg)
	if err != nil {
		return nil, err
	}
	return ws.WaitWithContext(ctx)
}
