// Package source turns a dependency's declared source into a local directory.
//
// A declared source is a directory, an archive file, or a repository
// reference of the form <url>[#<commit-ish>]. Directories are used in place;
// archives and repositories are materialized in the installation cache.
package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/spf13/afero"
)

// Kind classifies a declared source
type Kind int

const (
	KindDirectory Kind = iota
	KindArchive
	KindRepository
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindArchive:
		return "archive"
	default:
		return "repository"
	}
}

// Fetcher manages repository working copies
type Fetcher interface {
	Clone(ctx context.Context, url, dir string) error
	Update(ctx context.Context, dir, ref string) error
	Checkout(ctx context.Context, dir, ref string) error
}

// Extractor unpacks an archive file into a directory
type Extractor interface {
	Extract(ctx context.Context, archive, dest string) error
}

// Classify inspects src without following a final symlink. Anything that
// does not exist is taken to be a repository reference.
func Classify(fs afero.Fs, src string) (Kind, error) {
	info, err := filesystem.Lstat(fs, src)
	if err != nil {
		return KindRepository, nil
	}
	mode := info.Mode()
	switch {
	case mode.IsDir():
		return KindDirectory, nil
	case mode.IsRegular():
		return KindArchive, nil
	case mode&os.ModeSymlink != 0:
		return 0, errors.Newf(errors.ErrUnsupportedSource, "installing from symbolic links is not supported: %s", src).
			WithDetail("source", src)
	default:
		return 0, errors.Newf(errors.ErrUnsupportedSource, "unsupported source type %s: %s", mode.Type(), src).
			WithDetail("source", src)
	}
}

// ParseRepository splits <url>#<commit-ish> on the last '#'. An absent or
// empty fragment yields defaultRef.
func ParseRepository(src, defaultRef string) (url, commitIsh string) {
	url = src
	if i := strings.LastIndex(src, "#"); i >= 0 {
		url, commitIsh = src[:i], src[i+1:]
	}
	if commitIsh == "" {
		commitIsh = defaultRef
	}
	return url, commitIsh
}

// Locate resolves a declared source against base. When base/raw exists the
// absolute path is returned; otherwise raw is returned untouched, as it
// names a repository.
func Locate(fs afero.Fs, base, raw string) string {
	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(base, raw)
	}
	if filesystem.Exists(fs, candidate) {
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs
		}
		return candidate
	}
	return raw
}

// Key identifies a source for cycle detection: the absolute path of local
// sources, url#commit-ish for repositories.
func Key(fs afero.Fs, src, defaultRef string) string {
	kind, err := Classify(fs, src)
	if err == nil && kind == KindRepository {
		url, ref := ParseRepository(src, defaultRef)
		return url + "#" + ref
	}
	if abs, err := filepath.Abs(src); err == nil {
		return abs
	}
	return src
}
