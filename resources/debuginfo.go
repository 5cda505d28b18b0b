package resources

import (
	"context"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// DebugInfo collects support packages. The payloads are tar.gz archives,
// fetched raw rather than decoded.
type DebugInfo struct {
	*core.EnterpriseResource
}

// AllWithContext downloads a support package covering the whole cluster.
func (d *DebugInfo) AllWithContext(ctx context.Context) ([]byte, error) {
	return d.Session().GetBinary(ctx, "v1/cluster/debuginfo")
}

func (d *DebugInfo) All() ([]byte, error) {
	return d.AllWithContext(d.Rest.GetCtx())
}

// NodeWithContext downloads a support package for the local node only.
func (d *DebugInfo) NodeWithContext(ctx context.Context) ([]byte, error) {
	return d.Session().GetBinary(ctx, "v1/nodes/debuginfo")
}

func (d *DebugInfo) Node() ([]byte, error) {
	return d.NodeWithContext(d.Rest.GetCtx())
}
