package resources

import (
	"context"
	"fmt"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Crdb manages Active-Active (conflict-free replicated) databases.
// CRDB operations always settle asynchronously through crdb tasks.
type Crdb struct {
	*core.EnterpriseResource
}

// TasksWithContext lists pending and settled tasks for a CRDB.
func (c *Crdb) TasksWithContext(ctx context.Context, guid string) (core.RecordSet, error) {
	path := fmt.Sprintf("v1/crdb_tasks?crdb_guid=%s", guid)
	return core.Request[core.RecordSet](ctx, c, "GET", path, nil, nil)
}

func (c *Crdb) Tasks(guid string) (core.RecordSet, error) {
	return c.TasksWithContext(c.Rest.GetCtx(), guid)
}

// TaskWithContext fetches a single CRDB task by its id.
func (c *Crdb) TaskWithContext(ctx context.Context, taskID string) (core.Record, error) {
	return core.Request[core.Record](ctx, c, "GET", fmt.Sprintf("v1/crdb_tasks/%s", taskID), nil, nil)
}

func (c *Crdb) Task(taskID string) (core.Record, error) {
	return c.TaskWithContext(c.Rest.GetCtx(), taskID)
}
