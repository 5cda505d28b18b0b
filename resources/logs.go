package resources

import (
	"context"
	"sync"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Logs reads the cluster event log. Entries are addressed by time, not
// uid, so only listing and tailing apply.
type Logs struct {
	*core.EnterpriseResource
}

// TailWithContext streams event log entries as they appear. Each poll
// asks only for entries newer than the last one seen, in ascending
// order, so every entry is delivered exactly once and in order. The
// stream runs until stopped or the watch deadline passes.
func (l *Logs) TailWithContext(ctx context.Context, params core.Params, cfg *core.WatchConfig) (*core.WatchSession, error) {
	var (
		mu    sync.Mutex
		stime string
	)
	if params != nil {
		if s, ok := params["stime"].(string); ok {
			stime = s
		}
	}
	fetch := func(ctx context.Context) (core.RecordSet, error) {
		query := core.Params{"order": "asc"}
		query.Update(params, true)
		mu.Lock()
		if stime != "" {
			query["stime"] = stime
		}
		mu.Unlock()
		records, err := l.ListWithContext(ctx, query)
		if err != nil {
			return nil, err
		}
		records = dropAtOrBefore(records, stime)
		if len(records) > 0 {
			if t, ok := records[len(records)-1]["time"].(string); ok {
				mu.Lock()
				stime = t
				mu.Unlock()
			}
		}
		return records, nil
	}
	return core.Watch(ctx, l.GetResourceType(), fetch, nil, cfg), nil
}

func (l *Logs) Tail(params core.Params, cfg *core.WatchConfig) (*core.WatchSession, error) {
	return l.TailWithContext(l.Rest.GetCtx(), params, cfg)
}

// The stime filter is inclusive, so the entry that set the high-water
// mark comes back on the next poll and must be skipped.
func dropAtOrBefore(records core.RecordSet, stime string) core.RecordSet {
	if stime == "" {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if t, ok := r["time"].(string); ok && t <= stime {
			continue
		}
		out = append(out, r)
	}
	return out
}
