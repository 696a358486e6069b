package source

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/cache"
	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/arthur-debert/mum/pkg/manifest"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultCommitIsh is checked out when a repository reference has no fragment
const DefaultCommitIsh = "master"

// Resolved is a source materialized on disk
type Resolved struct {
	Kind Kind
	// Directory is the effective project source directory.
	Directory string
	// URL and CommitIsh are set for repositories.
	URL       string
	CommitIsh string
	// LinkName is the cache link created or reused for a named repository.
	LinkName string
}

// Options tune a Resolver
type Options struct {
	DefaultRef string
	// DisableUpdates skips archive re-extraction of populated cache
	// directories and every repository update and checkout.
	DisableUpdates bool
}

// Resolver materializes sources into a cache
type Resolver struct {
	fs        afero.Fs
	cache     *cache.Cache
	fetcher   Fetcher
	extractor Extractor
	manifests *manifest.Loader
	opts      Options
	logger    zerolog.Logger
}

// NewResolver wires a resolver
func NewResolver(fs afero.Fs, c *cache.Cache, fetcher Fetcher, extractor Extractor, manifests *manifest.Loader, opts Options) *Resolver {
	if opts.DefaultRef == "" {
		opts.DefaultRef = DefaultCommitIsh
	}
	return &Resolver{
		fs:        fs,
		cache:     c,
		fetcher:   fetcher,
		extractor: extractor,
		manifests: manifests,
		opts:      opts,
		logger:    logging.GetLogger("source"),
	}
}

// DefaultRef returns the commit-ish used for bare repository URLs
func (r *Resolver) DefaultRef() string {
	return r.opts.DefaultRef
}

// Resolve materializes src. name, when set, overrides the repository's
// manifest name for the cache link; overrides are merged into that manifest
// before its name is read.
func (r *Resolver) Resolve(ctx context.Context, src, name string, overrides map[string]interface{}) (*Resolved, error) {
	kind, err := Classify(r.fs, src)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindDirectory:
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", src)
		}
		return &Resolved{Kind: KindDirectory, Directory: abs}, nil
	case KindArchive:
		return r.resolveArchive(ctx, src)
	default:
		return r.resolveRepository(ctx, src, name, overrides)
	}
}

// Recheckout puts a repository back on its commit-ish. A dependency may have
// checked out another ref of the same repository in the same cache dir.
func (r *Resolver) Recheckout(ctx context.Context, res *Resolved) error {
	if res == nil || res.Kind != KindRepository || r.opts.DisableUpdates {
		return nil
	}
	return r.fetcher.Checkout(ctx, res.Directory, res.CommitIsh)
}

func (r *Resolver) resolveArchive(ctx context.Context, archive string) (*Resolved, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", archive)
	}
	dir := r.cache.ArchiveDir(abs)
	logger := r.logger.With().Str("archive", abs).Str("dir", dir).Logger()

	empty, err := filesystem.IsEmptyDir(r.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExtractionFailed, "cannot inspect %s", dir)
	}
	if r.opts.DisableUpdates && !empty {
		logger.Warn().Msg("Skipping archive extraction, source updates disabled")
	} else {
		if err := r.fs.RemoveAll(dir); err != nil {
			return nil, errors.Wrapf(err, errors.ErrExtractionFailed, "cannot clear %s", dir)
		}
		if err := r.extractor.Extract(ctx, abs, dir); err != nil {
			return nil, err
		}
	}

	effective, err := r.unwrap(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("source", effective).Msg("Archive resolved")
	return &Resolved{Kind: KindArchive, Directory: effective}, nil
}

// unwrap returns the single top-level directory of dir when dir holds
// exactly one directory and no files, dir itself otherwise.
func (r *Resolver) unwrap(dir string) (string, error) {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrExtractionFailed, "cannot read extracted archive %s", dir)
	}
	var dirs, files int
	var last string
	for _, e := range entries {
		if e.IsDir() {
			dirs++
			last = filepath.Join(dir, e.Name())
		} else {
			files++
		}
	}
	if dirs == 1 && files == 0 {
		return last, nil
	}
	return dir, nil
}

func (r *Resolver) resolveRepository(ctx context.Context, src, name string, overrides map[string]interface{}) (*Resolved, error) {
	url, ref := ParseRepository(src, r.opts.DefaultRef)
	if url == "" {
		return nil, errors.Newf(errors.ErrSourceNotFound, "the source could not be found: %s", src).
			WithDetail("source", src)
	}
	dir := r.cache.RepositoryDir(url)
	logger := r.logger.With().Str("url", url).Str("commitIsh", ref).Str("dir", dir).Logger()

	if err := r.cache.Ensure(); err != nil {
		return nil, err
	}

	if filesystem.Exists(r.fs, filepath.Join(dir, ".git")) {
		if r.opts.DisableUpdates {
			logger.Warn().Msg("Skipping repository update, source updates disabled")
		} else if err := r.fetcher.Update(ctx, dir, ref); err != nil {
			return nil, err
		}
	} else {
		if filesystem.IsDir(r.fs, dir) {
			if err := filesystem.RemoveChildren(r.fs, dir); err != nil {
				return nil, errors.Wrapf(err, errors.ErrCloneFailed, "could not clear clone target directory: %s", dir)
			}
		}
		if err := r.fetcher.Clone(ctx, url, dir); err != nil {
			return nil, err
		}
		if r.opts.DisableUpdates {
			logger.Warn().Msg("Skipping repository checkout, source updates disabled")
		} else if err := r.fetcher.Checkout(ctx, dir, ref); err != nil {
			return nil, err
		}
	}

	res := &Resolved{Kind: KindRepository, Directory: dir, URL: url, CommitIsh: ref}

	linkName := name
	if linkName == "" {
		m, err := r.manifests.Load(dir, overrides)
		if err != nil {
			return nil, err
		}
		linkName = m.Name
	}
	if linkName != "" {
		if _, err := r.cache.Link(linkName, dir); err != nil {
			return nil, err
		}
		res.LinkName = linkName
	}

	logger.Debug().Str("link", linkName).Msg("Repository resolved")
	return res, nil
}
