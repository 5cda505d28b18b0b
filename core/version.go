package core

import (
	_ "embed"
	"strings"

	version "github.com/hashicorp/go-version"
)

//go:embed version
var clientVersion string

func ClientVersion() string {
	return strings.TrimSpace(clientVersion)
}

// ClusterSupports reports whether the cluster software version satisfies
// the given constraint, e.g. ">= 7.4.0". Unparseable versions count as
// unsupported.
func ClusterSupports(softwareVersion, constraint string) bool {
	v, err := version.NewVersion(strings.TrimSpace(softwareVersion))
	if err != nil {
		return false
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return c.Check(v)
}
