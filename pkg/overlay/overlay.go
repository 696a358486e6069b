// Package overlay copies project trees onto installation targets.
package overlay

import (
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// BuiltinExcludes are never copied
var BuiltinExcludes = []string{".git", ".gitignore", ".placeholder", ".DS_Store"}

// SyncOptions tune one sync
type SyncOptions struct {
	// Overwrite replaces files already present in the target.
	Overwrite bool
	Excludes  []string
}

// Syncer copies a mapping's source tree onto its target
type Syncer interface {
	Sync(m plan.Mapping, opts SyncOptions) error
}

// FSSyncer is a Syncer over an afero filesystem. Symlinks in the source
// are skipped.
type FSSyncer struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewFSSyncer creates an FSSyncer
func NewFSSyncer(fs afero.Fs) *FSSyncer {
	return &FSSyncer{fs: fs, logger: logging.GetLogger("overlay")}
}

// Sync copies m.Source onto m.Target, creating m.Target when missing.
func (s *FSSyncer) Sync(m plan.Mapping, opts SyncOptions) error {
	logger := s.logger.With().Str("source", m.Source).Str("target", m.Target).Logger()

	if !filesystem.IsDir(s.fs, m.Source) {
		return errors.Newf(errors.ErrSourceNotFound, "the source could not be found: %s", m.Source).
			WithDetail("source", m.Source)
	}
	if err := s.fs.MkdirAll(m.Target, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirectoryCreateFailed, "failed to create %s", m.Target).
			WithDetail("target", m.Target)
	}

	matcher := NewMatcher(opts.Excludes)
	var copied, skipped int
	err := afero.Walk(s.fs, m.Source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(m.Source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if matcher.Excluded(rel, info.IsDir()) {
			logger.Trace().Str("path", rel).Msg("Excluded")
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		dest := filepath.Join(m.Target, rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			logger.Debug().Str("path", rel).Msg("Skipping symlink")
			return nil
		case info.IsDir():
			return s.ensureDir(dest, info.Mode().Perm())
		case info.Mode().IsRegular():
			if !opts.Overwrite && filesystem.Exists(s.fs, dest) {
				skipped++
				return nil
			}
			copied++
			return s.copyFile(path, dest, info.Mode().Perm())
		default:
			logger.Debug().Str("path", rel).Msg("Skipping special file")
			return nil
		}
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrOverlayFailed, "failed to overlay %s onto %s", m.Source, m.Target).
			WithDetail("source", m.Source).
			WithDetail("target", m.Target)
	}
	logger.Debug().Int("copied", copied).Int("skipped", skipped).Msg("Overlay applied")
	return nil
}

func (s *FSSyncer) ensureDir(dest string, perm os.FileMode) error {
	if info, err := filesystem.Lstat(s.fs, dest); err == nil {
		if info.IsDir() {
			return nil
		}
		if err := s.fs.Remove(dest); err != nil {
			return err
		}
	}
	return s.fs.MkdirAll(dest, perm|0700)
}

func (s *FSSyncer) copyFile(src, dest string, perm os.FileMode) error {
	if info, err := filesystem.Lstat(s.fs, dest); err == nil && (info.IsDir() || info.Mode()&os.ModeSymlink != 0) {
		if err := s.fs.RemoveAll(dest); err != nil {
			return err
		}
	}

	in, err := s.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := s.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return s.fs.Chmod(dest, perm)
}

// Engine applies a plan's mappings in order, later mappings winning.
type Engine struct {
	syncer   Syncer
	excludes []string
	logger   zerolog.Logger
}

// NewEngine creates an engine; excludes are added to every mapping's own.
func NewEngine(syncer Syncer, excludes []string) *Engine {
	return &Engine{
		syncer:   syncer,
		excludes: excludes,
		logger:   logging.GetLogger("overlay"),
	}
}

// Apply syncs every mapping with overwrite forced.
func (e *Engine) Apply(maps []plan.Mapping) error {
	for i, m := range maps {
		excludes := append(append([]string{}, e.excludes...), m.Excludes...)
		e.logger.Info().Int("index", i).Str("source", m.Source).Str("target", m.Target).Msg("Overlaying")
		if err := e.syncer.Sync(m, SyncOptions{Overwrite: true, Excludes: excludes}); err != nil {
			return err
		}
	}
	return nil
}
