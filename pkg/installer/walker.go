package installer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/manifest"
	"github.com/arthur-debert/mum/pkg/paths"
	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/arthur-debert/mum/pkg/safety"
	"github.com/arthur-debert/mum/pkg/source"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// walker resolves one dependency tree into plan nodes, post-order.
type walker struct {
	ictx      *InstallationContext
	fs        afero.Fs
	resolver  *source.Resolver
	manifests *manifest.Loader
	guard     *safety.Guard
	logger    zerolog.Logger

	inProgress map[string]bool
	chain      []string
}

func newWalker(ictx *InstallationContext, fs afero.Fs, resolver *source.Resolver, manifests *manifest.Loader, guard *safety.Guard) *walker {
	return &walker{
		ictx:       ictx,
		fs:         fs,
		resolver:   resolver,
		manifests:  manifests,
		guard:      guard,
		logger:     logging.GetLogger("installer.walker"),
		inProgress: make(map[string]bool),
	}
}

// project is what the walker is asked to install
type project struct {
	source    string
	target    string
	name      string
	overrides map[string]interface{}
	top       bool
}

func (w *walker) walk(ctx context.Context, p project) (*plan.Node, error) {
	key := source.Key(w.fs, p.source, w.resolver.DefaultRef())
	if w.inProgress[key] {
		chain := append(append([]string{}, w.chain...), key)
		return nil, errors.Newf(errors.ErrDependencyCycle, "dependency cycle: %s", strings.Join(chain, " -> ")).
			WithDetail("chain", chain)
	}
	w.inProgress[key] = true
	w.chain = append(w.chain, key)
	defer func() {
		delete(w.inProgress, key)
		w.chain = w.chain[:len(w.chain)-1]
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "installation cancelled")
	}

	target, err := paths.Resolve(w.ictx.TopTarget, p.target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve target %s", p.target)
	}
	if err := w.guard.CheckTarget(target); err != nil {
		return nil, err
	}
	// the top-level source may be fetched into the cache, which lives next
	// to the target
	if p.top {
		if err := w.guard.Confirm(target); err != nil {
			return nil, err
		}
	}

	res, err := w.resolver.Resolve(ctx, p.source, p.name, p.overrides)
	if err != nil {
		return nil, err
	}
	dir := res.Directory
	logger := w.logger.With().Str("source", dir).Str("target", target).Logger()

	if !filesystem.IsDir(w.fs, dir) {
		return nil, errors.Newf(errors.ErrSourceNotFound, "the source could not be found: %s", dir).
			WithDetail("source", dir)
	}
	if err := w.guard.Prepare(target, p.top && w.ictx.Clean); err != nil {
		return nil, err
	}

	m, err := w.manifests.Load(dir, p.overrides)
	if err != nil {
		return nil, err
	}
	name := p.name
	if name == "" {
		name = m.Name
	}
	logger.Debug().Str("name", name).Int("dependencies", len(m.Dependencies)).Msg("Project loaded")

	set := func(scripts []string) plan.ScriptSet {
		return plan.ScriptSet{Directory: dir, Target: target, Scripts: scripts}
	}
	node := &plan.Node{
		Name:          name,
		Source:        dir,
		Target:        target,
		BeforeInstall: set(m.Install.Scripts.BeforeInstall),
		BeforeSync:    set(m.Install.Scripts.BeforeSync),
		AfterSync:     set(m.Install.Scripts.AfterSync),
		AfterInstall:  set(m.Install.Scripts.AfterInstall),
		Cleanup:       set(m.Install.Scripts.Cleanup),
		DefaultMap:    m.Install.DefaultMap,
	}

	for _, dep := range m.Dependencies {
		depTarget, err := paths.Resolve(target, dep.Target)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve target %s", dep.Target)
		}
		child, err := w.walk(ctx, project{
			source:    source.Locate(w.fs, dir, dep.Source),
			target:    depTarget,
			name:      dep.Name,
			overrides: dep.Config,
		})
		if err != nil {
			return nil, err
		}
		node.Dependencies = append(node.Dependencies, child)
	}

	if len(m.Dependencies) > 0 {
		if err := w.resolver.Recheckout(ctx, res); err != nil {
			return nil, err
		}
	}

	maps, err := w.mappings(m, dir, target)
	if err != nil {
		return nil, err
	}
	node.Maps = maps
	return node, nil
}

func (w *walker) mappings(m *manifest.Manifest, dir, target string) ([]plan.Mapping, error) {
	if m.Install.DefaultMap {
		return []plan.Mapping{{Source: dir, Target: target, Excludes: m.Install.Excludes}}, nil
	}

	maps := make([]plan.Mapping, 0, len(m.Install.Map))
	for _, entry := range m.Install.Map {
		src := filepath.Join(dir, entry.Source)
		if !filesystem.IsDir(w.fs, src) {
			return nil, errors.Newf(errors.ErrSourceNotFound, "the source could not be found: %s", src).
				WithDetail("source", src)
		}
		dst, err := paths.Resolve(target, entry.Target)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve target %s", entry.Target)
		}
		if err := w.guard.Prepare(dst, false); err != nil {
			return nil, err
		}
		excludes := append(append([]string{}, m.Install.Excludes...), entry.Excludes...)
		maps = append(maps, plan.Mapping{Source: src, Target: dst, Excludes: excludes})
	}
	return maps, nil
}
