package resources

import (
	"context"
	"fmt"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Stats reads time-series metrics for the cluster and its objects.
// Intervals follow the REST API names: 1sec, 10sec, 5min, 15min, 1hour,
// 12hour, 1week.
type Stats struct {
	*core.EnterpriseResource
}

// ClusterWithContext fetches cluster-wide metrics.
func (s *Stats) ClusterWithContext(ctx context.Context, params core.Params) (core.RecordSet, error) {
	return core.Request[core.RecordSet](ctx, s, "GET", "v1/cluster/stats", params, nil)
}

func (s *Stats) Cluster(params core.Params) (core.RecordSet, error) {
	return s.ClusterWithContext(s.Rest.GetCtx(), params)
}

// BdbWithContext fetches metrics for one database.
func (s *Stats) BdbWithContext(ctx context.Context, uid any, params core.Params) (core.RecordSet, error) {
	return core.Request[core.RecordSet](ctx, s, "GET", fmt.Sprintf("v1/bdbs/stats/%v", uid), params, nil)
}

func (s *Stats) Bdb(uid any, params core.Params) (core.RecordSet, error) {
	return s.BdbWithContext(s.Rest.GetCtx(), uid, params)
}

// NodeWithContext fetches metrics for one node.
func (s *Stats) NodeWithContext(ctx context.Context, uid any, params core.Params) (core.RecordSet, error) {
	return core.Request[core.RecordSet](ctx, s, "GET", fmt.Sprintf("v1/nodes/stats/%v", uid), params, nil)
}

func (s *Stats) Node(uid any, params core.Params) (core.RecordSet, error) {
	return s.NodeWithContext(s.Rest.GetCtx(), uid, params)
}

// ShardWithContext fetches metrics for one shard.
func (s *Stats) ShardWithContext(ctx context.Context, uid any, params core.Params) (core.RecordSet, error) {
	return core.Request[core.RecordSet](ctx, s, "GET", fmt.Sprintf("v1/shards/stats/%v", uid), params, nil)
}

func (s *Stats) Shard(uid any, params core.Params) (core.RecordSet, error) {
	return s.ShardWithContext(s.Rest.GetCtx(), uid, params)
}

// FollowBdbWithContext streams fresh metric windows for a database until
// stopped. Each poll asks only for samples newer than the last window
// seen, using the sample etime as the high-water mark.
func (s *Stats) FollowBdbWithContext(ctx context.Context, uid any, params core.Params, cfg *core.WatchConfig) (*core.WatchSession, error) {
	var stime string
	fetch := func(ctx context.Context) (core.RecordSet, error) {
		query := core.Params{}
		query.Update(params, true)
		if stime != "" {
			query["stime"] = stime
		}
		records, err := s.BdbWithContext(ctx, uid, query)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			if t, ok := records[len(records)-1]["etime"].(string); ok {
				stime = t
			}
		}
		return records, nil
	}
	return core.Watch(ctx, s.GetResourceType(), fetch, nil, cfg), nil
}

func (s *Stats) FollowBdb(uid any, params core.Params, cfg *core.WatchConfig) (*core.WatchSession, error) {
	return s.FollowBdbWithContext(s.Rest.GetCtx(), uid, params, cfg)
}
