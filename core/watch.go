package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// WatchOutcome classifies one snapshot relative to the watch lifecycle.
type WatchOutcome int

const (
	// WatchContinue means the observed state is not terminal; polling goes on.
	WatchContinue WatchOutcome = iota
	// WatchSuccess ends the sequence with the operation completed.
	WatchSuccess
	// WatchFailure ends the sequence with the operation (or the stream
	// itself) failed.
	WatchFailure
)

func (o WatchOutcome) String() string {
	switch o {
	case WatchContinue:
		return "continue"
	case WatchSuccess:
		return "success"
	case WatchFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TerminalPredicate decides whether a snapshot ends a watch sequence, and
// with what outcome. A nil predicate produces an unbounded tail that runs
// until cancellation.
type TerminalPredicate func(Record) WatchOutcome

// FetchFunc acquires one state observation. Fetches returning multiple
// records (log tails, stats feeds) deliver each record as its own
// snapshot; an empty set delivers nothing and only paces the next poll.
type FetchFunc func(context.Context) (RecordSet, error)

// Snapshot is one decoded state observation plus its classification.
// Snapshots are delivered strictly in acquisition order. An unchanged
// remote state may legitimately repeat; deduplication is a consumer
// responsibility.
type Snapshot struct {
	Record  Record
	Outcome WatchOutcome
	Err     error // set on the terminal snapshot of a failed stream
	Seq     int
	Time    time.Time
}

// Terminal reports whether this snapshot ends the sequence.
func (s Snapshot) Terminal() bool {
	return s.Outcome != WatchContinue
}

// ErrStreamFailed marks a watch that terminated because the consecutive
// retryable-failure budget was exhausted.
var ErrStreamFailed = errors.New("watch stream failed")

// WatchConfig defines pacing and resilience parameters for a watch session.
// Zero values are replaced with defaults by normalize.
type WatchConfig struct {
	// Interval is the base delay between polls.
	Interval time.Duration
	// MaxInterval caps backoff growth when polls fail retryably or remote
	// state stops changing.
	MaxInterval time.Duration
	// BackoffFactor is the rate of interval increase (0.25 = 25% per
	// iteration).
	BackoffFactor float64
	// Deadline bounds the whole polling loop, composed with the
	// per-request timeout. Zero means no overall deadline.
	Deadline time.Duration
	// MaxConsecutiveFailures is how many retryable poll failures in a row
	// are absorbed before the stream terminates with ErrStreamFailed.
	MaxConsecutiveFailures int
}

func (c *WatchConfig) normalize() {
	if c.Interval == 0 {
		c.Interval = 500 * time.Millisecond
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = 30 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 0.25
	}
	if c.MaxConsecutiveFailures == 0 {
		c.MaxConsecutiveFailures = 3
	}
}

// next grows an interval by the backoff factor, capped at MaxInterval.
func (c *WatchConfig) next(current time.Duration) time.Duration {
	grown := time.Duration(float64(current) * (1.0 + c.BackoffFactor))
	if grown > c.MaxInterval {
		grown = c.MaxInterval
	}
	return grown
}

// WatchSession is a bounded or unbounded polling loop producing an ordered
// snapshot sequence for one resource. Sessions are created by Watch and
// mutated only by their own polling goroutine.
type WatchSession struct {
	resource  string
	cfg       WatchConfig
	fetch     FetchFunc
	predicate TerminalPredicate

	snapshots chan Snapshot
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}

	mu    sync.Mutex
	final *Snapshot

	// loop-local state: most recent delivered record (pacing only, not a
	// cache) and the consecutive retryable-failure counter.
	last     Record
	failures int
	seq      int
}

// Watch starts a watch session. The session polls fetch every interval,
// classifies each record through predicate, and delivers snapshots in
// acquisition order until a terminal outcome, the configured deadline, the
// context, or Stop ends it. Retryable fetch errors are absorbed up to the
// configured budget; a non-retryable error terminates the stream
// immediately with that error on the final snapshot.
func Watch(ctx context.Context, resource string, fetch FetchFunc, predicate TerminalPredicate, cfg *WatchConfig) *WatchSession {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = &WatchConfig{}
	}
	normalized := *cfg
	normalized.normalize()

	ws := &WatchSession{
		resource:  resource,
		cfg:       normalized,
		fetch:     fetch,
		predicate: predicate,
		// one slot so a terminal snapshot survives an already-departed consumer
		snapshots: make(chan Snapshot, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go ws.run(ctx)
	return ws
}

// Snapshots returns the ordered snapshot sequence. The channel closes when
// the sequence terminates or is cancelled.
func (ws *WatchSession) Snapshots() <-chan Snapshot {
	return ws.snapshots
}

// Stop cancels the session deterministically: the in-flight request is
// released and the poll timer stops. Safe to call multiple times and from
// any goroutine.
func (ws *WatchSession) Stop() {
	ws.stopOnce.Do(func() { close(ws.stop) })
}

// Done closes once the polling loop has fully exited.
func (ws *WatchSession) Done() <-chan struct{} {
	return ws.done
}

// Final returns the terminal snapshot, if the sequence reached one. It is
// valid after Done closes even when the consumer stopped pulling.
func (ws *WatchSession) Final() (Snapshot, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.final == nil {
		return Snapshot{}, false
	}
	return *ws.final, true
}

func (ws *WatchSession) run(ctx context.Context) {
	defer close(ws.done)
	defer close(ws.snapshots)

	if ws.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ws.cfg.Deadline)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(markWatchContext(ctx))
	defer cancel()
	go func() {
		select {
		case <-ws.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	interval := ws.cfg.Interval
	for {
		records, err := ws.fetch(ctx)
		if ctx.Err() != nil {
			// Cancelled or past the overall deadline; the sequence simply ends.
			return
		}
		if err != nil {
			if !IsRetryable(err) {
				ws.deliver(ctx, Snapshot{Outcome: WatchFailure, Err: err, Seq: ws.seq + 1, Time: time.Now()})
				return
			}
			ws.failures++
			if ws.failures > ws.cfg.MaxConsecutiveFailures {
				ws.deliver(ctx, Snapshot{
					Outcome: WatchFailure,
					Err:     errors.Join(ErrStreamFailed, err),
					Seq:     ws.seq + 1,
					Time:    time.Now(),
				})
				return
			}
			// Absorbed: not surfaced to the consumer, backoff before the
			// next poll.
			interval = ws.cfg.next(interval)
			if !ws.sleep(ctx, interval) {
				return
			}
			continue
		}
		ws.failures = 0

		terminal := false
		changed := len(records) > 0
		for _, record := range records {
			outcome := WatchContinue
			if ws.predicate != nil {
				outcome = ws.predicate(record)
			}
			ws.seq++
			if !ws.deliver(ctx, Snapshot{Record: record, Outcome: outcome, Seq: ws.seq, Time: time.Now()}) {
				return
			}
			if outcome != WatchContinue {
				terminal = true
				break
			}
			if reflect.DeepEqual(record, ws.last) {
				changed = false
			}
			ws.last = record
		}
		if terminal {
			// No further requests once the predicate reports terminal.
			return
		}
		if changed {
			interval = ws.cfg.Interval
		} else {
			// Remote state holding still: stretch the poll interval.
			interval = ws.cfg.next(interval)
		}
		if !ws.sleep(ctx, interval) {
			return
		}
	}
}

// deliver sends one snapshot in order, recording terminal snapshots so
// Final works even when the consumer has stopped pulling. Returns false
// when the session was cancelled before the snapshot could be handed over.
func (ws *WatchSession) deliver(ctx context.Context, snap Snapshot) bool {
	if snap.Terminal() {
		ws.mu.Lock()
		final := snap
		ws.final = &final
		ws.mu.Unlock()
	}
	select {
	case ws.snapshots <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep pauses between polls, returning false when cancelled.
func (ws *WatchSession) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// WaitWithContext drives the session to its terminal snapshot, blocking
// the calling goroutine. It returns the final record; a failed stream or
// failed operation returns the terminal error. Must not be called from
// inside a watch callback (see ErrNestedWait).
func (ws *WatchSession) WaitWithContext(ctx context.Context) (Record, error) {
	if err := guardNestedWait(ctx); err != nil {
		ws.Stop()
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var lastSeen *Snapshot
	for {
		select {
		case snap, ok := <-ws.snapshots:
			if !ok {
				return ws.resolve(lastSeen, ctx)
			}
			lastSeen = &snap
			if snap.Terminal() {
				// Drain completes immediately: the loop stops after a
				// terminal snapshot.
				return ws.resolve(lastSeen, ctx)
			}
		case <-ctx.Done():
			ws.Stop()
			return nil, &ApiError{
				Kind:   KindTimeout,
				Method: "WATCH",
				Path:   ws.resource,
				Err:    ctx.Err(),
			}
		}
	}
}

// Wait is WaitWithContext bounded by a timeout.
func (ws *WatchSession) Wait(timeout time.Duration) (Record, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ws.WaitWithContext(ctx)
}

func (ws *WatchSession) resolve(lastSeen *Snapshot, ctx context.Context) (Record, error) {
	snap := lastSeen
	if final, ok := ws.Final(); ok {
		snap = &final
	}
	if snap == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("watch on %s ended without a snapshot", ws.resource)
	}
	switch snap.Outcome {
	case WatchSuccess:
		return snap.Record, nil
	case WatchFailure:
		if snap.Err != nil {
			return snap.Record, snap.Err
		}
		return snap.Record, fmt.Errorf("watch on %s ended in failure state", ws.resource)
	default:
		return snap.Record, fmt.Errorf("watch on %s cancelled before a terminal snapshot", ws.resource)
	}
}

// SingleRecordFetch adapts a single-record fetch into a FetchFunc.
func SingleRecordFetch(fetch func(context.Context) (Record, error)) FetchFunc {
	return func(ctx context.Context) (RecordSet, error) {
		record, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return RecordSet{record}, nil
	}
}
