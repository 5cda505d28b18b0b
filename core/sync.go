package core

import (
	"context"
	"errors"
)

// The blocking waits in this package (WatchSession.Wait, AsyncResult.Wait)
// are a bridge for callers outside the cooperative polling machinery: they
// block only the calling goroutine while a watch session makes progress on
// its own. Calling a blocking wait from code that is itself running inside
// a watch callback would deadlock the session against itself, so watch
// contexts are marked and such calls fail fast instead of hanging.

// ErrNestedWait is returned when a blocking wait is invoked from inside a
// watch session's own execution context.
var ErrNestedWait = errors.New("blocking wait invoked from inside a watch context; use the asynchronous form instead")

type watchMarkerKey struct{}

// markWatchContext tags a context as belonging to a watch session's
// polling loop. Fetch functions and interceptors observe the tagged
// context.
func markWatchContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, watchMarkerKey{}, true)
}

// insideWatchContext reports whether ctx originates from a watch session's
// polling loop.
func insideWatchContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	marked, _ := ctx.Value(watchMarkerKey{}).(bool)
	return marked
}

// guardNestedWait fails fast on waits that would deadlock.
func guardNestedWait(ctx context.Context) error {
	if insideWatchContext(ctx) {
		return ErrNestedWait
	}
	return nil
}
