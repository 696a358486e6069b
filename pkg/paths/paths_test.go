package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		p    string
		want string
	}{
		{"relative against base", "/srv/app", "lib", "/srv/app/lib"},
		{"dot is base", "/srv/app", ".", "/srv/app"},
		{"parent segments", "/srv/app", "../shared", "/srv/shared"},
		{"absolute ignores base", "/srv/app", "/opt/x", "/opt/x"},
		{"trailing slash trimmed", "/srv/app/", "lib/", "/srv/app/lib"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.base, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	got, err := Resolve("/ignored", "~/projects")
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/projects", got)
}

func TestIsRoot(t *testing.T) {
	tests := []struct {
		p    string
		want bool
	}{
		{"/", true},
		{"//", true},
		{"/./", true},
		{"/tmp/..", true},
		{"/tmp/../..", true},
		{"/tmp", false},
		{"", false},
		{"relative", false},
	}

	for _, tt := range tests {
		t.Run(tt.p, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRoot(tt.p))
		})
	}
}

func TestCacheRootAndRecord(t *testing.T) {
	assert.Equal(t, "/srv/.mum", CacheRoot("/srv/site", ".mum"))
	assert.Equal(t, "/srv/mumi.json", RecordPath("/srv/site", "mumi.json"))
}

func TestConfigFilePath(t *testing.T) {
	t.Setenv(EnvConfigFile, "/etc/mum.toml")
	assert.Equal(t, "/etc/mum.toml", ConfigFilePath())

	t.Setenv(EnvConfigFile, "")
	assert.Equal(t, filepath.Join("mum", "config.toml"), filepath.Join(filepath.Base(filepath.Dir(ConfigFilePath())), filepath.Base(ConfigFilePath())))
}
