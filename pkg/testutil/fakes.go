package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/mum/pkg/scripts"
	"github.com/spf13/afero"
)

// FakeFetcher clones repositories from in-memory trees
type FakeFetcher struct {
	t     *testing.T
	fs    afero.Fs
	repos map[string]FileTree

	Calls []string
	// Heads records the last ref checked out per directory.
	Heads map[string]string
}

// NewFakeFetcher creates a fetcher serving repos (url -> tree)
func NewFakeFetcher(t *testing.T, fs afero.Fs, repos map[string]FileTree) *FakeFetcher {
	return &FakeFetcher{t: t, fs: fs, repos: repos, Heads: map[string]string{}}
}

func (f *FakeFetcher) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// Clone writes the tree of url into dir with a .git directory
func (f *FakeFetcher) Clone(_ context.Context, url, dir string) error {
	f.record("clone %s", url)
	tree, ok := f.repos[url]
	if !ok {
		return fmt.Errorf("repository not found: %s", url)
	}
	CreateFileTree(f.t, f.fs, dir, tree)
	return f.fs.MkdirAll(filepath.Join(dir, ".git"), 0755)
}

// Update records an in-place update
func (f *FakeFetcher) Update(_ context.Context, dir, ref string) error {
	f.record("update %s", ref)
	f.Heads[dir] = ref
	return nil
}

// Checkout records a checkout
func (f *FakeFetcher) Checkout(_ context.Context, dir, ref string) error {
	f.record("checkout %s", ref)
	f.Heads[dir] = ref
	return nil
}

// ScriptResult is what FakeRuntime returns for a script
type ScriptResult struct {
	ExitCode int
	Output   string
	// Do runs before the result is returned.
	Do func()
}

// FakeRuntime records script runs instead of executing them
type FakeRuntime struct {
	Results map[string]ScriptResult
	Ran     []string
	Dirs    []string
}

// Run records script; results are looked up by base name.
func (f *FakeRuntime) Run(_ context.Context, script, dir string, _ []string) (scripts.Result, error) {
	f.Ran = append(f.Ran, script)
	f.Dirs = append(f.Dirs, dir)
	res := f.Results[filepath.Base(script)]
	if res.Do != nil {
		res.Do()
	}
	return scripts.Result{ExitCode: res.ExitCode, Output: res.Output}, nil
}
