package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name    string
	content string
	dir     bool
}

func zipBytes(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		name := e.name
		if e.dir {
			name += "/"
		}
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !e.dir {
			_, err = w.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarBytes(t *testing.T, entries []entry, compress bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	var gz *gzip.Writer
	tw := tar.NewWriter(&buf)
	if compress {
		gz = gzip.NewWriter(&buf)
		tw = tar.NewWriter(gz)
	}
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.content)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name + "/", Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	if gz != nil {
		require.NoError(t, gz.Close())
	}
	return buf.Bytes()
}

var sample = []entry{
	{name: "pkg", dir: true},
	{name: "pkg/mum.json", content: `{"name":"pkg"}`},
	{name: "pkg/lib/util.sh", content: "echo hi"},
}

func assertExtracted(t *testing.T, fs afero.Fs) {
	t.Helper()
	content, err := afero.ReadFile(fs, "/cache/a/pkg/lib/util.sh")
	require.NoError(t, err)
	assert.Equal(t, "echo hi", string(content))
	content, err = afero.ReadFile(fs, "/cache/a/pkg/mum.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"pkg"}`, string(content))
}

func TestExtractFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data func(t *testing.T) []byte
	}{
		{"zip", "/dl/a.zip", func(t *testing.T) []byte { return zipBytes(t, sample) }},
		{"tar", "/dl/a.tar", func(t *testing.T) []byte { return tarBytes(t, sample, false) }},
		{"tgz", "/dl/a.tgz", func(t *testing.T) []byte { return tarBytes(t, sample, true) }},
		{"tar.gz", "/dl/a.tar.gz", func(t *testing.T) []byte { return tarBytes(t, sample, true) }},
		{"gzip under .tar", "/dl/a.tar", func(t *testing.T) []byte { return tarBytes(t, sample, true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.file, tt.data(t), 0o644))

			require.NoError(t, NewExtractor(fs).Extract(context.Background(), tt.file, "/cache/a"))
			assertExtracted(t, fs)
		})
	}
}

func TestExtractUnknownExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/a.rar", []byte("x"), 0o644))

	err := NewExtractor(fs).Extract(context.Background(), "/dl/a.rar", "/cache/a")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExtractionFailed))
}

func TestExtractCorruptArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/a.zip", []byte("not a zip"), 0o644))

	err := NewExtractor(fs).Extract(context.Background(), "/dl/a.zip", "/cache/a")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExtractionFailed))
}

func TestExtractRejectsTraversal(t *testing.T) {
	for _, name := range []string{"/dl/evil.zip", "/dl/evil.tar"} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			evil := []entry{{name: "../../etc/passwd", content: "root"}}
			data := tarBytes(t, evil, false)
			if name == "/dl/evil.zip" {
				data = zipBytes(t, evil)
			}
			require.NoError(t, afero.WriteFile(fs, name, data, 0o644))

			err := NewExtractor(fs).Extract(context.Background(), name, "/cache/a")
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrExtractionFailed))
			exists, _ := afero.Exists(fs, "/etc/passwd")
			assert.False(t, exists)
		})
	}
}

func TestExtractHonoursCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/a.zip", zipBytes(t, sample), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewExtractor(fs).Extract(ctx, "/dl/a.zip", "/cache/a")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{"a.zip", FormatZip, true},
		{"a.ZIP", FormatZip, true},
		{"a.tar", FormatTar, true},
		{"a.tgz", FormatTar, true},
		{"a.tar.gz", FormatTar, true},
		{"a.7z", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectFormat(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
