package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Action states reported by the actions endpoints.
const (
	ActionStateQueued     = "queued"
	ActionStateStarting   = "starting"
	ActionStateRunning    = "running"
	ActionStateCancelling = "cancelling"
	ActionStateCancelled  = "cancelled"
	ActionStateCompleted  = "completed"
	ActionStateFailed     = "failed"
)

// AsyncResult is the handle over a long-running cluster action. Action
// endpoints answer with an action_uid whose progress must be observed; the
// handle drives that observation through the watch engine and lets
// synchronous callers block until the action resolves.
type AsyncResult struct {
	ActionUID string
	Rest      EnterpriseRestAPI
	Ctx       context.Context
	Success   bool
	Err       error
}

// NewAsyncResult creates an AsyncResult from an action UID.
func NewAsyncResult(ctx context.Context, actionUID string, rest EnterpriseRestAPI) *AsyncResult {
	return &AsyncResult{
		Ctx:       ctx,
		ActionUID: actionUID,
		Rest:      rest,
	}
}

// IsFailed returns true if the action failed.
func (ar *AsyncResult) IsFailed() bool {
	return !ar.Success
}

// IsSuccess returns true if the action completed successfully.
func (ar *AsyncResult) IsSuccess() bool {
	return ar.Success
}

// WatchWithContext starts a watch session over the action's status without
// blocking. Consumers read progress snapshots from the session.
func (ar *AsyncResult) WatchWithContext(ctx context.Context, cfg *WatchConfig) (*WatchSession, error) {
	actions, ok := ar.Rest.GetResourceMap()[ActionResourceType]
	if !ok {
		return nil, fmt.Errorf("actions resource is not registered")
	}
	return actions.WatchWithContext(ctx, ar.ActionUID, ActionTerminalPredicate, cfg)
}

// WaitWithContext polls the action until it completes, fails or the
// context ends, blocking only the calling goroutine. Success and Err are
// updated from the outcome. Must not be invoked from inside a watch
// callback (fails fast with ErrNestedWait rather than deadlocking).
func (ar *AsyncResult) WaitWithContext(ctx context.Context) (Record, error) {
	if err := guardNestedWait(ctx); err != nil {
		return nil, err
	}
	session, err := ar.WatchWithContext(ctx, nil)
	if err != nil {
		ar.Success, ar.Err = false, err
		return nil, err
	}
	record, err := session.WaitWithContext(ctx)
	if err != nil {
		ar.Success, ar.Err = false, err
	} else {
		ar.Success, ar.Err = true, nil
	}
	return record, err
}

// Wait is WaitWithContext bounded by a timeout, using the handle's stored
// context as the parent.
func (ar *AsyncResult) Wait(timeout time.Duration) (Record, error) {
	ctx := ar.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ar.WaitWithContext(ctx)
}

// ActionTerminalPredicate classifies an action record by its status field:
// completed ends with success, failed or cancelled ends with failure,
// anything else continues.
func ActionTerminalPredicate(record Record) WatchOutcome {
	state := strings.ToLower(fmt.Sprintf("%v", record["status"]))
	switch state {
	case ActionStateCompleted:
		return WatchSuccess
	case ActionStateFailed, ActionStateCancelled:
		return WatchFailure
	default:
		return WatchContinue
	}
}

// MaybeAsyncResultFromRecord extracts an action UID from a record and
// creates an AsyncResult handle. Action endpoints either answer with a
// bare task reference ({"action_uid": ...}) or embed one alongside the
// resource body. Returns nil when the record references no action.
func MaybeAsyncResultFromRecord(ctx context.Context, record Record, rest EnterpriseRestAPI) *AsyncResult {
	if record.Empty() {
		return nil
	}
	if uid := record.RecordActionUID(); uid != "" {
		return NewAsyncResult(ctx, uid, rest)
	}
	return nil
}
