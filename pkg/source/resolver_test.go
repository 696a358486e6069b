package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/mum/pkg/cache"
	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/filesystem"
	"github.com/arthur-debert/mum/pkg/manifest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op  string
	arg string
	ref string
}

type fakeFetcher struct {
	fs    afero.Fs
	calls []call
	files map[string]string
	err   error
}

func (f *fakeFetcher) Clone(ctx context.Context, url, dir string) error {
	f.calls = append(f.calls, call{op: "clone", arg: url})
	if f.err != nil {
		return f.err
	}
	if err := f.fs.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		return err
	}
	for name, content := range f.files {
		if err := afero.WriteFile(f.fs, filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFetcher) Update(ctx context.Context, dir, ref string) error {
	f.calls = append(f.calls, call{op: "update", arg: dir, ref: ref})
	return f.err
}

func (f *fakeFetcher) Checkout(ctx context.Context, dir, ref string) error {
	f.calls = append(f.calls, call{op: "checkout", arg: dir, ref: ref})
	return f.err
}

type fakeExtractor struct {
	fs      afero.Fs
	entries map[string]string
	count   int
}

func (e *fakeExtractor) Extract(ctx context.Context, archive, dest string) error {
	e.count++
	for name, content := range e.entries {
		if err := afero.WriteFile(e.fs, filepath.Join(dest, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

type fixture struct {
	fs        afero.Fs
	cache     *cache.Cache
	fetcher   *fakeFetcher
	extractor *fakeExtractor
}

func newFixture(opts Options) (*fixture, *Resolver) {
	fs := afero.NewMemMapFs()
	fx := &fixture{
		fs:        fs,
		cache:     cache.New(fs, "/srv/.mum", "install_to"),
		fetcher:   &fakeFetcher{fs: fs, files: map[string]string{}},
		extractor: &fakeExtractor{fs: fs, entries: map[string]string{}},
	}
	return fx, NewResolver(fs, fx.cache, fx.fetcher, fx.extractor, manifest.NewLoader(fs, "mum.json"), opts)
}

func TestClassify(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0755))
	require.NoError(t, afero.WriteFile(fs, "/a.zip", []byte("x"), 0644))

	kind, err := Classify(fs, "/proj")
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, kind)

	kind, err = Classify(fs, "/a.zip")
	require.NoError(t, err)
	assert.Equal(t, KindArchive, kind)

	kind, err = Classify(fs, "https://example.com/r.git#dev")
	require.NoError(t, err)
	assert.Equal(t, KindRepository, kind)
}

func TestClassifyRejectsSymlinks(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, filesystem.Symlink(fs, dir, link))

	_, err := Classify(fs, link)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedSource))
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		src, url, ref string
	}{
		{"https://h/r.git", "https://h/r.git", "master"},
		{"https://h/r.git#", "https://h/r.git", "master"},
		{"https://h/r.git#v1.2", "https://h/r.git", "v1.2"},
		{"git@h:r.git#feature/x", "git@h:r.git", "feature/x"},
	}
	for _, tt := range tests {
		url, ref := ParseRepository(tt.src, "master")
		assert.Equal(t, tt.url, url, tt.src)
		assert.Equal(t, tt.ref, ref, tt.src)
	}
}

func TestLocate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/parent/libs/a", 0755))

	assert.Equal(t, "/parent/libs/a", Locate(fs, "/parent", "libs/a"))
	assert.Equal(t, "/parent/libs/a", Locate(fs, "/elsewhere", "/parent/libs/a"))
	assert.Equal(t, "https://h/r.git#v1", Locate(fs, "/parent", "https://h/r.git#v1"))
}

func TestKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0755))

	assert.Equal(t, "/proj", Key(fs, "/proj", "master"))
	assert.Equal(t, "https://h/r.git#master", Key(fs, "https://h/r.git", "master"))
	assert.Equal(t, "https://h/r.git#dev", Key(fs, "https://h/r.git#dev", "master"))
}

func TestResolveDirectory(t *testing.T) {
	fx, r := newFixture(Options{})
	require.NoError(t, fx.fs.MkdirAll("/proj", 0755))

	res, err := r.Resolve(context.Background(), "/proj", "", nil)
	require.NoError(t, err)
	assert.Equal(t, &Resolved{Kind: KindDirectory, Directory: "/proj"}, res)
	assert.Empty(t, fx.fetcher.calls)
}

func TestResolveArchiveStripsWrapper(t *testing.T) {
	fx, r := newFixture(Options{})
	require.NoError(t, afero.WriteFile(fx.fs, "/dl/site.zip", []byte("zip"), 0644))
	fx.extractor.entries = map[string]string{"site-1.0/index.html": "<html>"}

	res, err := r.Resolve(context.Background(), "/dl/site.zip", "", nil)
	require.NoError(t, err)
	assert.Equal(t, KindArchive, res.Kind)
	assert.Equal(t, "/srv/.mum/site.zip/site-1.0", res.Directory)
}

func TestResolveArchiveKeepsRootWithSeveralEntries(t *testing.T) {
	fx, r := newFixture(Options{})
	require.NoError(t, afero.WriteFile(fx.fs, "/dl/site.zip", []byte("zip"), 0644))
	fx.extractor.entries = map[string]string{"a/x": "1", "b/y": "2"}

	res, err := r.Resolve(context.Background(), "/dl/site.zip", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/.mum/site.zip", res.Directory)

	fx.extractor.entries = map[string]string{"a/x": "1", "README": "2"}
	res, err = r.Resolve(context.Background(), "/dl/site.zip", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/.mum/site.zip", res.Directory)
}

func TestResolveArchiveReextractsUnlessDisabled(t *testing.T) {
	fx, r := newFixture(Options{})
	require.NoError(t, afero.WriteFile(fx.fs, "/dl/site.zip", []byte("zip"), 0644))
	fx.extractor.entries = map[string]string{"new.txt": "x"}
	require.NoError(t, afero.WriteFile(fx.fs, "/srv/.mum/site.zip/stale.txt", []byte("old"), 0644))

	_, err := r.Resolve(context.Background(), "/dl/site.zip", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.extractor.count)
	assert.False(t, filesystem.Exists(fx.fs, "/srv/.mum/site.zip/stale.txt"))

	frozen := NewResolver(fx.fs, fx.cache, fx.fetcher, fx.extractor, manifest.NewLoader(fx.fs, ""), Options{DisableUpdates: true})
	_, err = frozen.Resolve(context.Background(), "/dl/site.zip", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.extractor.count)
}

func TestResolveRepositoryClones(t *testing.T) {
	fx, r := newFixture(Options{})
	fx.fetcher.files = map[string]string{"mum.json": `{"name": "tool"}`}
	url := "https://h/tool.git"
	dir := fx.cache.RepositoryDir(url)

	res, err := r.Resolve(context.Background(), url+"#v2", "", nil)
	require.NoError(t, err)

	assert.Equal(t, &Resolved{Kind: KindRepository, Directory: dir, URL: url, CommitIsh: "v2", LinkName: "tool"}, res)
	assert.Equal(t, []call{{op: "clone", arg: url}, {op: "checkout", arg: dir, ref: "v2"}}, fx.fetcher.calls)

	target, err := filesystem.Readlink(fx.fs, "/srv/.mum/tool")
	require.NoError(t, err)
	assert.Equal(t, dir, target)
}

func TestResolveRepositoryUpdatesInPlace(t *testing.T) {
	fx, r := newFixture(Options{})
	url := "https://h/tool.git"
	dir := fx.cache.RepositoryDir(url)
	require.NoError(t, fx.fs.MkdirAll(filepath.Join(dir, ".git"), 0755))

	_, err := r.Resolve(context.Background(), url, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []call{{op: "update", arg: dir, ref: "master"}}, fx.fetcher.calls)
}

func TestResolveRepositoryUpdatesDisabled(t *testing.T) {
	fx, r := newFixture(Options{DisableUpdates: true})
	url := "https://h/tool.git"
	dir := fx.cache.RepositoryDir(url)
	require.NoError(t, fx.fs.MkdirAll(filepath.Join(dir, ".git"), 0755))

	res, err := r.Resolve(context.Background(), url, "", nil)
	require.NoError(t, err)
	assert.Empty(t, fx.fetcher.calls)

	require.NoError(t, r.Recheckout(context.Background(), res))
	assert.Empty(t, fx.fetcher.calls)
}

func TestResolveRepositoryNameOverrideAndFirstLinkWins(t *testing.T) {
	fx, r := newFixture(Options{})
	fx.fetcher.files = map[string]string{"mum.json": `{"name": "tool"}`}

	first, err := r.Resolve(context.Background(), "https://h/a.git", "shared", nil)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "https://h/b.git", "shared", nil)
	require.NoError(t, err)

	target, err := filesystem.Readlink(fx.fs, "/srv/.mum/shared")
	require.NoError(t, err)
	assert.Equal(t, first.Directory, target)
	assert.False(t, filesystem.Exists(fx.fs, "/srv/.mum/tool"))
}

func TestResolveRepositoryCloneFailure(t *testing.T) {
	fx, r := newFixture(Options{})
	fx.fetcher.err = errors.New(errors.ErrCloneFailed, "boom")

	_, err := r.Resolve(context.Background(), "https://h/a.git", "", nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCloneFailed))
}

func TestRecheckout(t *testing.T) {
	fx, r := newFixture(Options{})

	require.NoError(t, r.Recheckout(context.Background(), &Resolved{Kind: KindDirectory, Directory: "/p"}))
	assert.Empty(t, fx.fetcher.calls)

	require.NoError(t, r.Recheckout(context.Background(), &Resolved{Kind: KindRepository, Directory: "/c/x", CommitIsh: "v1"}))
	assert.Equal(t, []call{{op: "checkout", arg: "/c/x", ref: "v1"}}, fx.fetcher.calls)
}
