// Package safety guards installation targets: it refuses the filesystem
// root, asks for confirmation before the first directory is touched, and
// performs the clean wipe.
package safety

import (
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) (bool, error)

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Options tune a Guard
type Options struct {
	// AssumeYes pre-approves the installation.
	AssumeYes bool
	// DryRun keeps every check but performs no mutation.
	DryRun bool
}

// Guard prepares targets for one installation. Approval, once given, holds
// for the rest of the installation.
type Guard struct {
	fs        afero.Fs
	confirmer Confirmer
	confirmed bool
	dryRun    bool
	logger    zerolog.Logger
}

// NewGuard creates a guard; confirmer may be nil when opts.AssumeYes is set.
func NewGuard(fs afero.Fs, confirmer Confirmer, opts Options) *Guard {
	return &Guard{
		fs:        fs,
		confirmer: confirmer,
		confirmed: opts.AssumeYes,
		dryRun:    opts.DryRun,
		logger:    logging.GetLogger("safety"),
	}
}

// Confirmed reports whether the installation has been approved
func (g *Guard) Confirmed() bool {
	return g.confirmed
}

// CheckTarget refuses the filesystem root, on the raw path and on its
// normalized form.
func (g *Guard) CheckTarget(target string) error {
	if paths.IsRoot(target) {
		return unsafeRoot(target)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrUnsafeTarget, "cannot resolve target %s", target)
	}
	if paths.IsRoot(abs) {
		return unsafeRoot(target)
	}
	return nil
}

func unsafeRoot(target string) error {
	return errors.Newf(errors.ErrUnsafeTarget, "refusing to install to the filesystem root: %q", target).
		WithDetail("target", target)
}

// Confirm asks for approval to install to target unless the installation
// is already approved. It touches nothing.
func (g *Guard) Confirm(target string) error {
	if err := g.CheckTarget(target); err != nil {
		return err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrUnsafeTarget, "cannot resolve target %s", target)
	}
	return g.confirm(abs)
}

// Prepare makes target ready to receive files. A missing target is created;
// an existing non-empty one is wiped when clean is set. Nothing is touched
// before the installation is confirmed.
func (g *Guard) Prepare(target string, clean bool) error {
	if err := g.CheckTarget(target); err != nil {
		return err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrUnsafeTarget, "cannot resolve target %s", target)
	}
	logger := g.logger.With().Str("target", abs).Bool("clean", clean).Logger()

	if err := g.confirm(abs); err != nil {
		return err
	}

	info, statErr := g.fs.Stat(abs)
	if statErr == nil {
		if !info.IsDir() {
			return errors.Newf(errors.ErrDirectoryCreateFailed, "installation target exists and is not a directory: %s", abs).
				WithDetail("target", abs)
		}
		if !clean {
			return nil
		}
		empty, err := filesystem.IsEmptyDir(g.fs, abs)
		if err != nil {
			return errors.Wrapf(err, errors.ErrDirectoryNotEmpty, "cannot inspect %s", abs)
		}
		if empty {
			return nil
		}
		if g.dryRun {
			logger.Info().Msg("Dry run: would wipe the installation directory")
			return nil
		}
		logger.Warn().Msg("Wiping the installation directory")
		if err := filesystem.RemoveChildren(g.fs, abs); err != nil {
			return errors.Wrapf(err, errors.ErrDirectoryNotEmpty, "failed to wipe the installation directory: %s", abs).
				WithDetail("target", abs)
		}
		if empty, err := filesystem.IsEmptyDir(g.fs, abs); err != nil || !empty {
			return errors.Newf(errors.ErrDirectoryNotEmpty, "directory is not empty after wipe: %s", abs).
				WithDetail("target", abs)
		}
		return nil
	}

	if g.dryRun {
		logger.Info().Msg("Dry run: would create the installation directory")
		return nil
	}
	logger.Info().Msg("Creating the installation directory")
	if err := g.fs.MkdirAll(abs, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirectoryCreateFailed, "failed to create the installation directory: %s", abs).
			WithDetail("target", abs)
	}
	if !filesystem.IsDir(g.fs, abs) {
		return errors.Newf(errors.ErrDirectoryCreateFailed, "failed to create the installation directory: %s", abs).
			WithDetail("target", abs)
	}
	return nil
}

func (g *Guard) confirm(target string) error {
	if g.confirmed {
		return nil
	}
	if g.confirmer == nil {
		return errors.Newf(errors.ErrUnsafeTarget, "installation to %s needs confirmation", target).
			WithDetail("target", target)
	}
	ok, err := g.confirmer.Confirm("Are you sure you want to install to: " + target + "?")
	if err != nil {
		return errors.Wrap(err, errors.ErrUnsafeTarget, "cannot read confirmation")
	}
	if !ok {
		return errors.New(errors.ErrUnsafeTarget, "cancelling installation").WithDetail("target", target)
	}
	g.confirmed = true
	return nil
}
