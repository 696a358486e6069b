// Package scripts runs lifecycle scripts phase by phase.
package scripts

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Environment variables exported to every script
const (
	EnvSourceDir      = "MUM_CURRENT_SOURCE_DIR"
	EnvInstallDir     = "MUM_CURRENT_INSTALL_DIR"
	EnvInitialInstall = "MUM_INITIAL_INSTALL_DIR"
	EnvCacheDir       = "MUM_CACHE_DIR"
)

// Env is the installation-wide part of the script environment
type Env struct {
	InitialInstallDir string
	CacheDir          string
}

// PhaseRunner runs the script sets of a phase in order, failing fast.
type PhaseRunner struct {
	fs       afero.Fs
	runtime  Runtime
	sentinel *regexp.Regexp
	env      Env
	logger   zerolog.Logger
}

// NewPhaseRunner creates a runner; a nil sentinel disables output scanning.
func NewPhaseRunner(fs afero.Fs, runtime Runtime, sentinel *regexp.Regexp, env Env) *PhaseRunner {
	return &PhaseRunner{
		fs:       fs,
		runtime:  runtime,
		sentinel: sentinel,
		env:      env,
		logger:   logging.GetLogger("scripts"),
	}
}

// Run executes every script of sets, in order.
func (r *PhaseRunner) Run(ctx context.Context, phase plan.Phase, sets []plan.ScriptSet) error {
	logger := r.logger.With().Str("phase", string(phase)).Logger()
	for _, set := range sets {
		for _, script := range set.Scripts {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrScriptFailed, "installation cancelled")
			}
			if err := r.runOne(ctx, logger, phase, set, script); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *PhaseRunner) runOne(ctx context.Context, logger zerolog.Logger, phase plan.Phase, set plan.ScriptSet, script string) error {
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(set.Directory, script)
	}
	logger = logger.With().Str("script", path).Str("dir", set.Directory).Logger()

	fail := func(err error, msg string) *errors.MumError {
		var e *errors.MumError
		if err != nil {
			e = errors.Wrapf(err, errors.ErrScriptFailed, "%s: %s", msg, path)
		} else {
			e = errors.Newf(errors.ErrScriptFailed, "%s: %s", msg, path)
		}
		return e.WithDetail("script", path).WithDetail("phase", string(phase))
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return fail(err, "script not found")
	}
	if err := r.fs.Chmod(path, info.Mode().Perm()|0100); err != nil {
		return fail(err, "cannot make script executable")
	}

	done := logging.LogOperationStart(logger, "script")
	res, err := r.runtime.Run(ctx, path, set.Directory, r.environ(set))
	done()

	output := strings.TrimRight(res.Output, "\n")
	if output != "" {
		logger.Info().Str("output", output).Msg("Script output")
	}
	if err != nil {
		return fail(err, "script could not run")
	}
	if res.ExitCode != 0 {
		return fail(nil, "script exited with non-zero status").
			WithDetail("exitCode", res.ExitCode).
			WithDetail("output", output)
	}
	if r.sentinel != nil && r.sentinel.MatchString(res.Output) {
		return fail(nil, "script reported an error").WithDetail("output", output)
	}
	logger.Debug().Msg("Script succeeded")
	return nil
}

func (r *PhaseRunner) environ(set plan.ScriptSet) []string {
	return append(os.Environ(),
		EnvSourceDir+"="+set.Directory,
		EnvInstallDir+"="+set.Target,
		EnvInitialInstall+"="+r.env.InitialInstallDir,
		EnvCacheDir+"="+r.env.CacheDir,
	)
}
