// Package archive extracts zip and tar (optionally gzip-compressed) archives
// into cache directories.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Format is an archive container format
type Format string

const (
	FormatZip Format = "zip"
	FormatTar Format = "tar"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return FormatZip, true
	case ".tar", ".tgz", ".gz":
		return FormatTar, true
	default:
		return "", false
	}
}

// Extractor unpacks archives on an afero filesystem
type Extractor struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewExtractor creates an extractor working on fs
func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs, logger: logging.GetLogger("archive")}
}

// Extract unpacks archive into dest. Entries that would land outside dest
// are rejected.
func (e *Extractor) Extract(ctx context.Context, archive, dest string) error {
	format, ok := DetectFormat(archive)
	if !ok {
		return errors.Newf(errors.ErrExtractionFailed, "unknown archive file type: %s", filepath.Ext(archive)).
			WithDetail("archive", archive)
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return errors.Wrap(err, errors.ErrExtractionFailed, "cannot resolve extraction directory")
	}
	if err := e.fs.MkdirAll(absDest, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrExtractionFailed, "could not create extraction target directory: %s", absDest)
	}

	e.logger.Info().Str("archive", archive).Str("dest", absDest).Str("format", string(format)).Msg("Extracting archive")

	switch format {
	case FormatZip:
		err = e.extractZip(ctx, archive, absDest)
	default:
		err = e.extractTar(ctx, archive, absDest)
	}
	if err != nil {
		if errors.GetErrorCode(err) == errors.ErrExtractionFailed {
			return err
		}
		return errors.Wrapf(err, errors.ErrExtractionFailed, "could not extract the archive: %s", archive).
			WithDetail("archive", archive)
	}
	return nil
}

func (e *Extractor) extractZip(ctx context.Context, archive, dest string) (err error) {
	f, err := e.fs.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return err
	}

	for _, file := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		destPath, err := entryPath(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := e.fs.MkdirAll(destPath, 0o755); err != nil {
				return err
			}
			continue
		}
		if file.Mode()&os.ModeSymlink != 0 {
			e.logger.Debug().Str("entry", file.Name).Msg("Skipping symlink entry")
			continue
		}
		if err := e.writeZipFile(file, destPath); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) writeZipFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return e.writeFile(destPath, rc, file.Mode().Perm())
}

func (e *Extractor) extractTar(ctx context.Context, archive, dest string) (err error) {
	f, err := e.fs.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// compression is sniffed, not taken from the extension
	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		destPath, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := e.fs.MkdirAll(destPath, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := e.writeFile(destPath, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := e.writeSymlink(dest, destPath, hdr.Linkname); err != nil {
				return err
			}
		default:
			e.logger.Debug().Str("entry", hdr.Name).Int("type", int(hdr.Typeflag)).Msg("Skipping tar entry")
		}
	}
}

func (e *Extractor) writeSymlink(dest, destPath, linkname string) error {
	resolved := linkname
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(destPath), linkname)
	}
	if !within(dest, resolved) {
		return errors.Newf(errors.ErrExtractionFailed, "symlink %s escapes the extraction directory", destPath)
	}
	if err := e.fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	_ = e.fs.Remove(destPath)
	return filesystem.Symlink(e.fs, linkname, destPath)
}

func (e *Extractor) writeFile(destPath string, r io.Reader, perm os.FileMode) (err error) {
	if perm == 0 {
		perm = 0o644
	}
	if err := e.fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	out, err := e.fs.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	//nolint:gosec // archives come from the user's own project sources
	_, err = io.Copy(out, r)
	return err
}

// entryPath joins an archive entry name to dest, refusing escapes.
func entryPath(dest, name string) (string, error) {
	destPath := filepath.Join(dest, filepath.FromSlash(name))
	if !within(dest, destPath) {
		return "", errors.Newf(errors.ErrExtractionFailed, "invalid path in archive: %s", name).
			WithDetail("entry", name)
	}
	return destPath, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
