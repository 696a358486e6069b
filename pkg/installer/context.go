package installer

import (
	"github.com/arthur-debert/mum/pkg/paths"
	"github.com/arthur-debert/mum/pkg/plan"
)

// Options are the per-invocation switches of an installation
type Options struct {
	// Clean wipes a non-empty top-level target before anything is copied.
	Clean bool
	// DryRun walks and reports without touching targets, running scripts
	// or writing the record.
	DryRun bool
	// AssumeYes pre-approves the installation.
	AssumeYes bool
	// DisableUpdates reuses cached sources as they are.
	DisableUpdates bool
}

// InstallationContext is fixed once per top-level installation and handed
// down the dependency walk.
type InstallationContext struct {
	Source    string
	TopTarget string
	CacheRoot string
	MapOrder  plan.MapOrder
	Options
}

func newContext(src, target, cacheDir string, order plan.MapOrder, opts Options) (*InstallationContext, error) {
	top, err := paths.Resolve("", target)
	if err != nil {
		return nil, err
	}
	return &InstallationContext{
		Source:    src,
		TopTarget: top,
		CacheRoot: paths.CacheRoot(top, cacheDir),
		MapOrder:  order,
		Options:   opts,
	}, nil
}

// RecordPath returns where the install record of this installation lives
func (c *InstallationContext) RecordPath(fileName string) string {
	return paths.RecordPath(c.TopTarget, fileName)
}
