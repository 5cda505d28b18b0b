package resources

import (
	"context"
	"fmt"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Bdb manages cluster databases. Most mutating calls return an action_uid
// and settle asynchronously; the *Async variants hand back a task handle
// for that.
type Bdb struct {
	*core.EnterpriseResource
}

func (b *Bdb) actionPath(uid any, action string) string {
	return fmt.Sprintf("%s/%v/actions/%s", b.GetResourcePath(), uid, action)
}

// CreateAsync creates a database and returns a task handle when the
// cluster queued the creation as an action, or nil when it completed
// synchronously.
func (b *Bdb) CreateAsyncWithContext(ctx context.Context, body core.Params) (core.Record, *core.AsyncResult, error) {
	record, err := b.CreateWithContext(ctx, body)
	if err != nil {
		return nil, nil, err
	}
	return record, core.MaybeAsyncResultFromRecord(ctx, record, b.Rest), nil
}

func (b *Bdb) CreateAsync(body core.Params) (core.Record, *core.AsyncResult, error) {
	return b.CreateAsyncWithContext(b.Rest.GetCtx(), body)
}

func (b *Bdb) runAction(ctx context.Context, uid any, action string, body core.Params) (*core.AsyncResult, error) {
	record, err := core.Request[core.Record](ctx, b, "POST", b.actionPath(uid, action), nil, body)
	if err != nil {
		return nil, err
	}
	if ar := core.MaybeAsyncResultFromRecord(ctx, record, b.Rest); ar != nil {
		return ar, nil
	}
	return nil, fmt.Errorf("%s of bdb %v returned no action_uid", action, uid)
}

// BackupWithContext triggers an immediate backup of the database.
func (b *Bdb) BackupWithContext(ctx context.Context, uid any) (*core.AsyncResult, error) {
	return b.runAction(ctx, uid, "backup", nil)
}

func (b *Bdb) Backup(uid any) (*core.AsyncResult, error) {
	return b.BackupWithContext(b.Rest.GetCtx(), uid)
}

// ExportWithContext exports database contents to the configured location.
func (b *Bdb) ExportWithContext(ctx context.Context, uid any, body core.Params) (*core.AsyncResult, error) {
	return b.runAction(ctx, uid, "export", body)
}

func (b *Bdb) Export(uid any, body core.Params) (*core.AsyncResult, error) {
	return b.ExportWithContext(b.Rest.GetCtx(), uid, body)
}

// ImportWithContext replaces database contents from an RDB source.
func (b *Bdb) ImportWithContext(ctx context.Context, uid any, body core.Params) (*core.AsyncResult, error) {
	return b.runAction(ctx, uid, "import", body)
}

func (b *Bdb) Import(uid any, body core.Params) (*core.AsyncResult, error) {
	return b.ImportWithContext(b.Rest.GetCtx(), uid, body)
}

// RecoverWithContext starts recovery of a database in recoverable state.
func (b *Bdb) RecoverWithContext(ctx context.Context, uid any, body core.Params) (*core.AsyncResult, error) {
	return b.runAction(ctx, uid, "recover", body)
}

func (b *Bdb) Recover(uid any, body core.Params) (*core.AsyncResult, error) {
	return b.RecoverWithContext(b.Rest.GetCtx(), uid, body)
}

// WaitActiveWithContext blocks until the database reports status
// "active", or fails terminally when it lands in an error state.
func (b *Bdb) WaitActiveWithContext(ctx context.Context, uid any, cfg *core.WatchConfig) (core.Record, error) {
	ws, err := b.WatchWithContext(ctx, uid, bdbActivePredicate, cfg)
	if err != nil {
		return nil, err
	}
	return ws.WaitWithContext(ctx)
}

func (b *Bdb) WaitActive(uid any) (core.Record, error) {
	return b.WaitActiveWithContext(b.Rest.GetCtx(), uid, nil)
}

func bdbActivePredicate(record core.Record) core.WatchOutcome {
	switch status, _ := record["status"].(string); status {
	case "active":
		return core.WatchSuccess
	case "delete-pending", "recovery", "creation-failed":
		return core.WatchFailure
	default:
		return core.WatchContinue
	}
}
