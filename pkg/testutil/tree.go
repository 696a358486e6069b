package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// FileTree is a nested directory layout: string values are file contents,
// FileTree values are directories.
type FileTree map[string]interface{}

// CreateFileTree writes tree under base
func CreateFileTree(t *testing.T, fs afero.Fs, base string, tree FileTree) {
	t.Helper()

	for name, content := range tree {
		fullPath := filepath.Join(base, name)

		switch v := content.(type) {
		case string:
			require.NoError(t, fs.MkdirAll(filepath.Dir(fullPath), 0755))
			require.NoError(t, afero.WriteFile(fs, fullPath, []byte(v), 0644), "write %s", fullPath)
		case FileTree:
			require.NoError(t, fs.MkdirAll(fullPath, 0755), "mkdir %s", fullPath)
			CreateFileTree(t, fs, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, content)
		}
	}
}

// Manifest is a mum.json document under construction
type Manifest map[string]interface{}

// Project describes a project directory for WriteProject
type Project struct {
	Name         string
	Files        FileTree
	Scripts      map[string][]string
	Map          []map[string]interface{}
	Excludes     []string
	Dependencies []map[string]interface{}
	// Raw, when set, is written as the manifest verbatim.
	Raw string
}

// WriteProject writes p under dir, manifest included. A project with no
// manifest content gets no manifest file.
func WriteProject(t *testing.T, fs afero.Fs, dir string, p Project) string {
	t.Helper()

	require.NoError(t, fs.MkdirAll(dir, 0755))
	CreateFileTree(t, fs, dir, p.Files)

	data := []byte(p.Raw)
	if p.Raw == "" {
		m := p.manifest()
		if len(m) == 0 {
			return dir
		}
		var err error
		data, err = json.MarshalIndent(m, "", "  ")
		require.NoError(t, err)
	}
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "mum.json"), data, 0644))
	return dir
}

func (p Project) manifest() Manifest {
	m := Manifest{}
	if p.Name != "" {
		m["name"] = p.Name
	}
	install := map[string]interface{}{}
	if len(p.Scripts) > 0 {
		install["scripts"] = p.Scripts
	}
	if len(p.Map) > 0 {
		install["map"] = p.Map
	}
	if len(p.Excludes) > 0 {
		install["excludes"] = p.Excludes
	}
	if len(install) > 0 {
		m["install"] = install
	}
	if len(p.Dependencies) > 0 {
		m["dependencies"] = p.Dependencies
	}
	return m
}

// ReadFile returns the content of path, failing the test when unreadable
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err, "read %s", path)
	return string(data)
}
