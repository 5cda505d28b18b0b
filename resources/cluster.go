package resources

import (
	"context"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// Cluster exposes the singleton cluster object. There is exactly one per
// deployment, so listing and uid addressing do not apply.
type Cluster struct {
	*core.EnterpriseResource
}

// InfoWithContext fetches the cluster object.
func (c *Cluster) InfoWithContext(ctx context.Context) (core.Record, error) {
	return core.Request[core.Record](ctx, c, "GET", c.GetResourcePath(), nil, nil)
}

func (c *Cluster) Info() (core.Record, error) {
	return c.InfoWithContext(c.Rest.GetCtx())
}

// SetWithContext updates cluster settings.
func (c *Cluster) SetWithContext(ctx context.Context, body core.Params) (core.Record, error) {
	return core.Request[core.Record](ctx, c, "PUT", c.GetResourcePath(), nil, body)
}

func (c *Cluster) Set(body core.Params) (core.Record, error) {
	return c.SetWithContext(c.Rest.GetCtx(), body)
}

// SoftwareVersionWithContext reports the cluster software version string.
func (c *Cluster) SoftwareVersionWithContext(ctx context.Context) (string, error) {
	record, err := c.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	version, _ := record["software_version"].(string)
	return version, nil
}

func (c *Cluster) SoftwareVersion() (string, error) {
	return c.SoftwareVersionWithContext(c.Rest.GetCtx())
}

// SupportsWithContext checks the running cluster software against a
// version constraint such as ">= 7.2.0".
func (c *Cluster) SupportsWithContext(ctx context.Context, constraint string) (bool, error) {
	version, err := c.SoftwareVersionWithContext(ctx)
	if err != nil {
		return false, err
	}
	return core.ClusterSupports(version, constraint), nil
}

func (c *Cluster) Supports(constraint string) (bool, error) {
	return c.SupportsWithContext(c.Rest.GetCtx(), constraint)
}

// License exposes the singleton cluster license.
type License struct {
	*core.EnterpriseResource
}

// InfoWithContext fetches the installed license with usage counters.
func (l *License) InfoWithContext(ctx context.Context) (core.Record, error) {
	return core.Request[core.Record](ctx, l, "GET", l.GetResourcePath(), nil, nil)
}

func (l *License) Info() (core.Record, error) {
	return l.InfoWithContext(l.Rest.GetCtx())
}

// InstallWithContext installs a new license key.
func (l *License) InstallWithContext(ctx context.Context, licenseKey string) (core.Record, error) {
	return core.Request[core.Record](ctx, l, "PUT", l.GetResourcePath(), nil, core.Params{"license": licenseKey})
}

func (l *License) Install(licenseKey string) (core.Record, error) {
	return l.InstallWithContext(l.Rest.GetCtx(), licenseKey)
}
