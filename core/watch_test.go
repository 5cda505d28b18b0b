package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func fastWatchConfig() *WatchConfig {
	return &WatchConfig{
		Interval:    time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
	}
}

func statusPredicate(record Record) WatchOutcome {
	switch record["status"] {
	case "completed":
		return WatchSuccess
	case "failed":
		return WatchFailure
	default:
		return WatchContinue
	}
}

func TestWatch_TerminatesOnSuccess(t *testing.T) {
	var polls atomic.Int32
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		n := polls.Add(1)
		if n >= 3 {
			return Record{"status": "completed", "progress": float64(100)}, nil
		}
		return Record{"status": "running"}, nil
	})

	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())
	record, err := ws.Wait(5 * time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if record["status"] != "completed" {
		t.Errorf("final record = %v", record)
	}

	<-ws.Done()
	settled := polls.Load()
	time.Sleep(20 * time.Millisecond)
	if polls.Load() != settled {
		t.Error("no request may follow the terminal snapshot")
	}
	if settled != 3 {
		t.Errorf("polls = %d, want 3", settled)
	}
}

func TestWatch_SnapshotsAreOrdered(t *testing.T) {
	var polls atomic.Int32
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		n := polls.Add(1)
		if n >= 4 {
			return Record{"status": "completed"}, nil
		}
		return Record{"status": "running", "step": float64(n)}, nil
	})

	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())
	wantSeq := 0
	for snap := range ws.Snapshots() {
		wantSeq++
		if snap.Seq != wantSeq {
			t.Errorf("snapshot seq = %d, want %d", snap.Seq, wantSeq)
		}
		if snap.Terminal() && snap.Outcome != WatchSuccess {
			t.Errorf("terminal outcome = %v", snap.Outcome)
		}
	}
	if wantSeq != 4 {
		t.Errorf("delivered %d snapshots, want 4", wantSeq)
	}
}

func TestWatch_NonRetryableErrorIsTerminal(t *testing.T) {
	var polls atomic.Int32
	notFound := classifyStatus("GET", "/v1/actions/1", 404, nil, nil)
	fetch := func(ctx context.Context) (RecordSet, error) {
		polls.Add(1)
		return nil, notFound
	}

	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())
	_, err := ws.Wait(5 * time.Second)
	if !IsNotFound(err) {
		t.Errorf("Wait() error = %v, want the classified 404", err)
	}
	if polls.Load() != 1 {
		t.Errorf("polls = %d, want 1 (no retry on non-retryable)", polls.Load())
	}
}

func TestWatch_AbsorbsRetryableFailures(t *testing.T) {
	var polls atomic.Int32
	busy := classifyStatus("GET", "/v1/actions/1", 503, nil, nil)
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		if polls.Add(1) <= 2 {
			return nil, busy
		}
		return Record{"status": "completed"}, nil
	})

	cfg := fastWatchConfig()
	cfg.MaxConsecutiveFailures = 3
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, cfg)

	var received []Snapshot
	for snap := range ws.Snapshots() {
		received = append(received, snap)
	}
	// Absorbed failures never surface as snapshots.
	if len(received) != 1 {
		t.Fatalf("received %d snapshots, want 1", len(received))
	}
	if received[0].Outcome != WatchSuccess {
		t.Errorf("outcome = %v", received[0].Outcome)
	}
}

func TestWatch_FailureBudgetExhausted(t *testing.T) {
	busy := classifyStatus("GET", "/v1/actions/1", 503, nil, nil)
	fetch := func(ctx context.Context) (RecordSet, error) {
		return nil, busy
	}

	cfg := fastWatchConfig()
	cfg.MaxConsecutiveFailures = 2
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, cfg)

	_, err := ws.Wait(5 * time.Second)
	if !errors.Is(err, ErrStreamFailed) {
		t.Errorf("Wait() error = %v, want ErrStreamFailed", err)
	}
	if !IsClusterBusy(err) {
		t.Errorf("Wait() error must still carry the classified cause, got %v", err)
	}
}

func TestWatch_FailureCounterResets(t *testing.T) {
	var polls atomic.Int32
	busy := classifyStatus("GET", "/v1/actions/1", 503, nil, nil)
	// Alternate failure and progress: the consecutive counter must never
	// reach the budget.
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		n := polls.Add(1)
		if n%2 == 1 && n < 8 {
			return nil, busy
		}
		if n >= 8 {
			return Record{"status": "completed"}, nil
		}
		return Record{"status": "running", "step": float64(n)}, nil
	})

	cfg := fastWatchConfig()
	cfg.MaxConsecutiveFailures = 2
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, cfg)
	if _, err := ws.Wait(5 * time.Second); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestWatch_UnboundedTailUntilStopped(t *testing.T) {
	var polls atomic.Int32
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		polls.Add(1)
		return Record{"status": "completed"}, nil
	})

	// Nil predicate: even a "completed" record does not terminate.
	ws := Watch(context.Background(), "logs", fetch, nil, fastWatchConfig())
	seen := 0
	for snap := range ws.Snapshots() {
		if snap.Terminal() {
			t.Error("tail must not produce terminal snapshots")
		}
		seen++
		if seen == 3 {
			ws.Stop()
		}
	}
	if seen < 3 {
		t.Errorf("seen = %d, want at least 3", seen)
	}
	if _, ok := ws.Final(); ok {
		t.Error("stopped tail must have no terminal snapshot")
	}

	<-ws.Done()
	settled := polls.Load()
	time.Sleep(20 * time.Millisecond)
	if polls.Load() != settled {
		t.Error("stopped session kept polling")
	}
}

func TestWatch_DeadlineEndsStream(t *testing.T) {
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		return Record{"status": "running"}, nil
	})

	cfg := fastWatchConfig()
	cfg.Deadline = 20 * time.Millisecond
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, cfg)

	select {
	case <-ws.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("deadline did not end the stream")
	}
}

func TestWatch_WaitContextTimeout(t *testing.T) {
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		return Record{"status": "running"}, nil
	})
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ws.WaitWithContext(ctx)
	if !IsTimeout(err) {
		t.Errorf("WaitWithContext() error = %v, want timeout", err)
	}

	select {
	case <-ws.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed-out wait must stop the session")
	}
}

func TestWatch_FinalSurvivesDepartedConsumer(t *testing.T) {
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		return Record{"status": "completed"}, nil
	})
	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())

	// Nobody consumes the channel; the terminal snapshot parks in the
	// buffer and the loop still winds down.
	select {
	case <-ws.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate without a consumer")
	}
	final, ok := ws.Final()
	if !ok || final.Outcome != WatchSuccess {
		t.Errorf("Final() = %+v, %v", final, ok)
	}
}

func TestWatch_NestedWaitFailsFast(t *testing.T) {
	inner := Watch(context.Background(), "actions/2",
		SingleRecordFetch(func(ctx context.Context) (Record, error) {
			return Record{"status": "running"}, nil
		}), statusPredicate, fastWatchConfig())
	t.Cleanup(inner.Stop)

	nestedErr := make(chan error, 1)
	fetch := SingleRecordFetch(func(ctx context.Context) (Record, error) {
		// Blocking on another watch from inside a poll would deadlock the
		// engine; the guard must reject it instead.
		_, err := inner.WaitWithContext(ctx)
		nestedErr <- err
		return Record{"status": "completed"}, nil
	})

	ws := Watch(context.Background(), "actions/1", fetch, statusPredicate, fastWatchConfig())
	if _, err := ws.Wait(5 * time.Second); err != nil {
		t.Fatalf("outer Wait() error = %v", err)
	}
	if err := <-nestedErr; !errors.Is(err, ErrNestedWait) {
		t.Errorf("nested wait error = %v, want ErrNestedWait", err)
	}
}

func TestActionTerminalPredicate(t *testing.T) {
	tests := []struct {
		status string
		want   WatchOutcome
	}{
		{status: ActionStateQueued, want: WatchContinue},
		{status: ActionStateStarting, want: WatchContinue},
		{status: ActionStateRunning, want: WatchContinue},
		{status: ActionStateCancelling, want: WatchContinue},
		{status: ActionStateCompleted, want: WatchSuccess},
		{status: ActionStateCancelled, want: WatchFailure},
		{status: ActionStateFailed, want: WatchFailure},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ActionTerminalPredicate(Record{"status": tt.status}); got != tt.want {
				t.Errorf("ActionTerminalPredicate(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
