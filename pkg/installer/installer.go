// Package installer materializes a project and its dependencies into a
// target directory.
//
// An installation walks the dependency tree once, resolving every source
// into the cache and preparing every target, then flattens the resulting
// nodes into a plan and executes it: before-scripts, overlay, after-scripts.
package installer

import (
	"context"
	"regexp"

	"github.com/arthur-debert/mum/pkg/archive"
	"github.com/arthur-debert/mum/pkg/cache"
	"github.com/arthur-debert/mum/pkg/config"
	"github.com/arthur-debert/mum/pkg/datastore"
	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/manifest"
	"github.com/arthur-debert/mum/pkg/overlay"
	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/arthur-debert/mum/pkg/safety"
	"github.com/arthur-debert/mum/pkg/scripts"
	"github.com/arthur-debert/mum/pkg/source"
	"github.com/arthur-debert/mum/pkg/vcs"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Dependencies are the collaborators of an Installer. Zero fields get the
// defaults selected by Config.
type Dependencies struct {
	Fs        afero.Fs
	Config    *config.Config
	Fetcher   source.Fetcher
	Extractor source.Extractor
	Runtime   scripts.Runtime
	Syncer    overlay.Syncer
	Confirmer safety.Confirmer
	Records   datastore.RecordStore
}

// Installer runs installations
type Installer struct {
	deps     Dependencies
	sentinel *regexp.Regexp
	logger   zerolog.Logger
}

// Result describes a finished (or, in dry-run, a planned) installation
type Result struct {
	Context    *InstallationContext
	Root       *plan.Node
	Plan       *plan.Plan
	Record     *datastore.Record
	RecordPath string
}

// New creates an Installer
func New(deps Dependencies) (*Installer, error) {
	if deps.Fs == nil {
		deps.Fs = filesystem.NewOS()
	}
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	cfg := deps.Config
	sentinel, err := cfg.SentinelPattern()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "invalid scripts.error_pattern %q", cfg.Scripts.ErrorPattern).
			WithDetail("pattern", cfg.Scripts.ErrorPattern)
	}
	if deps.Fetcher == nil {
		switch cfg.Git.Backend {
		case config.GitBackendExec:
			deps.Fetcher = vcs.NewExecFetcher(cfg.Git.Binary)
		default:
			deps.Fetcher = vcs.NewGitFetcher()
		}
	}
	if deps.Extractor == nil {
		deps.Extractor = archive.NewExtractor(deps.Fs)
	}
	if deps.Runtime == nil {
		rt, err := scripts.NewRuntime(cfg.Scripts.Runtime, deps.Fs)
		if err != nil {
			return nil, err
		}
		deps.Runtime = rt
	}
	if deps.Syncer == nil {
		deps.Syncer = overlay.NewFSSyncer(deps.Fs)
	}
	if deps.Records == nil {
		deps.Records = datastore.New(deps.Fs)
	}
	return &Installer{deps: deps, sentinel: sentinel, logger: logging.GetLogger("installer")}, nil
}

// Config returns the engine configuration in use
func (i *Installer) Config() *config.Config {
	return i.deps.Config
}

// Install materializes src into target and persists the install record.
func (i *Installer) Install(ctx context.Context, src, target string, opts Options) (*Result, error) {
	defer logging.LogOperationStart(i.logger, "install")()
	return i.run(ctx, src, target, opts, true)
}

// Plan walks src into target and returns the plan without running it.
// Sources are fetched into the cache; targets are never touched.
func (i *Installer) Plan(ctx context.Context, src, target string, opts Options) (*Result, error) {
	defer logging.LogOperationStart(i.logger, "plan")()
	opts.DryRun = true
	opts.AssumeYes = true
	return i.run(ctx, src, target, opts, false)
}

func (i *Installer) run(ctx context.Context, src, target string, opts Options, execute bool) (*Result, error) {
	cfg := i.deps.Config
	ictx, err := newContext(src, target, cfg.Cache.DirName, plan.MapOrder(cfg.Overlay.MapOrder), opts)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve target %s", target)
	}
	logger := i.logger.With().Str("source", src).Str("target", ictx.TopTarget).Bool("dryRun", opts.DryRun).Logger()

	guard := safety.NewGuard(i.deps.Fs, i.deps.Confirmer, safety.Options{AssumeYes: opts.AssumeYes, DryRun: opts.DryRun})
	if err := guard.CheckTarget(ictx.TopTarget); err != nil {
		return nil, err
	}

	c := cache.New(i.deps.Fs, ictx.CacheRoot, cfg.Cache.TargetMarker)
	manifests := manifest.NewLoader(i.deps.Fs, cfg.ManifestFile)
	resolver := source.NewResolver(i.deps.Fs, c, i.deps.Fetcher, i.deps.Extractor, manifests, source.Options{
		DefaultRef:     cfg.Git.DefaultRef,
		DisableUpdates: opts.DisableUpdates,
	})

	ictx.Source = source.Locate(i.deps.Fs, ".", src)
	root, err := newWalker(ictx, i.deps.Fs, resolver, manifests, guard).walk(ctx, project{
		source: ictx.Source,
		target: ictx.TopTarget,
		top:    true,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Context:    ictx,
		Root:       root,
		Plan:       plan.Flatten(root, ictx.MapOrder),
		Record:     &datastore.Record{Source: ictx.Source, Target: ictx.TopTarget},
		RecordPath: ictx.RecordPath(cfg.Cache.RecordFile),
	}
	logger.Info().
		Int("scripts", result.Plan.ScriptCount()).
		Int("maps", len(result.Plan.Maps)).
		Msg("Installation planned")

	if !execute {
		return result, nil
	}
	if opts.DryRun {
		logger.Info().Msg("Dry run: skipping scripts, overlay and install record")
		return result, nil
	}

	if err := c.WriteMarker(ictx.TopTarget); err != nil {
		return nil, err
	}
	if err := i.execute(ctx, ictx, result.Plan); err != nil {
		return nil, err
	}
	if err := i.deps.Records.Save(result.RecordPath, result.Record); err != nil {
		return nil, err
	}
	logger.Info().Str("record", result.RecordPath).Msg("Installation complete")
	return result, nil
}

func (i *Installer) execute(ctx context.Context, ictx *InstallationContext, p *plan.Plan) error {
	cfg := i.deps.Config
	runner := scripts.NewPhaseRunner(i.deps.Fs, i.deps.Runtime, i.sentinel, scripts.Env{
		InitialInstallDir: ictx.TopTarget,
		CacheDir:          ictx.CacheRoot,
	})

	for _, phase := range plan.PrePhases {
		if err := runner.Run(ctx, phase, p.Sets(phase)); err != nil {
			return err
		}
	}

	excludes := append(append(append([]string{}, overlay.BuiltinExcludes...), cfg.Overlay.Excludes...), cfg.ManifestFile)
	if err := overlay.NewEngine(i.deps.Syncer, excludes).Apply(p.Maps); err != nil {
		return err
	}

	for _, phase := range plan.PostPhases {
		if err := runner.Run(ctx, phase, p.Sets(phase)); err != nil {
			return err
		}
	}
	return nil
}
