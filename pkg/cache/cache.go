// Package cache manages the on-disk cache namespace of an installation.
//
// The cache root sits next to the top-level target and is shared by every
// install into the same parent directory. Repositories live in directories
// named after the hash of their URL, archives in directories named after the
// archive file, and named projects get a convenience link to their directory.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/spf13/afero"
)

// Cache is rooted at a single directory
type Cache struct {
	fs     afero.Fs
	root   string
	marker string
}

// New creates a cache rooted at root; marker names the file recording the
// top-level target.
func New(fs afero.Fs, root, marker string) *Cache {
	return &Cache{fs: fs, root: root, marker: marker}
}

// Root returns the cache root directory
func (c *Cache) Root() string {
	return c.root
}

// Ensure creates the cache root if needed
func (c *Cache) Ensure() error {
	if err := c.fs.MkdirAll(c.root, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirectoryCreateFailed, "cannot create cache directory %s", c.root).
			WithDetail("path", c.root)
	}
	return nil
}

// WriteMarker records the top-level target inside the cache root
func (c *Cache) WriteMarker(target string) error {
	if err := c.Ensure(); err != nil {
		return err
	}
	path := filepath.Join(c.root, c.marker)
	if err := afero.WriteFile(c.fs, path, []byte(target), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot write %s", path)
	}
	return nil
}

// Marker returns the recorded top-level target, or "" when none is recorded
func (c *Cache) Marker() string {
	data, err := afero.ReadFile(c.fs, filepath.Join(c.root, c.marker))
	if err != nil {
		return ""
	}
	return string(data)
}

// ArchiveDir is where an archive's contents are extracted
func (c *Cache) ArchiveDir(archive string) string {
	return filepath.Join(c.root, filepath.Base(archive))
}

// RepositoryDir is the working copy location for a repository URL
func (c *Cache) RepositoryDir(url string) string {
	return filepath.Join(c.root, Key(url))
}

// Link creates root/name pointing at dir unless root/name already exists.
// The first project to claim a name keeps it.
func (c *Cache) Link(name, dir string) (bool, error) {
	logger := logging.GetLogger("cache")
	link := filepath.Join(c.root, name)

	if filesystem.Exists(c.fs, link) {
		logger.Debug().Str("link", link).Msg("Cache link already present")
		return false, nil
	}
	if err := c.fs.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrSymlinkFailed, "cannot create repository symlink %s to %s", link, dir)
	}
	if err := filesystem.Symlink(c.fs, dir, link); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrSymlinkFailed, "cannot create repository symlink %s to %s", link, dir).
			WithDetail("link", link).
			WithDetail("target", dir)
	}

	logger.Info().Str("link", link).Str("target", dir).Msg("Created repository symlink")
	return true, nil
}

// Key is the stable directory name for a repository URL: its SHA-1 in hex.
func Key(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
