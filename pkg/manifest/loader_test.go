package manifest

import (
	"testing"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, content string, overrides map[string]interface{}) (*Manifest, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/mum.json", []byte(content), 0644))
	return NewLoader(fs, "").Load("/proj", overrides)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0755))

	m, err := NewLoader(fs, "mum.json").Load("/proj", nil)
	require.NoError(t, err)

	assert.Equal(t, Default(), m)
	assert.True(t, m.Install.DefaultMap)
	assert.Equal(t, []MapEntry{{Source: ".", Target: ".", Excludes: []string{}}}, m.Install.Map)
	assert.NotNil(t, m.Install.Scripts.Cleanup)
	assert.NotNil(t, m.Dependencies)
}

func TestLoadNonObjectGivesDefaults(t *testing.T) {
	for _, content := range []string{`[]`, `"text"`, `42`, `null`} {
		t.Run(content, func(t *testing.T) {
			m, err := loadFrom(t, content, nil)
			require.NoError(t, err)
			assert.Equal(t, Default(), m)
		})
	}
}

func TestLoadFullManifest(t *testing.T) {
	m, err := loadFrom(t, `{
		"name": "site",
		"install": {
			"map": [
				{"source": "public", "target": "www", "excludes": ["*.log"]},
				{"source": "conf", "installTo": "etc"},
				{}
			],
			"scripts": {
				"beforeInstall": ["scripts/pre.sh"],
				"afterSync": ["scripts/post.sh", "scripts/post2.sh"]
			},
			"excludes": ["tmp"]
		},
		"dependencies": [
			{"name": "lib", "source": "../lib", "target": "vendor/lib"},
			{"source": "https://example.com/x.git#v1", "installTo": "x", "config": {"name": "renamed"}},
			{"source": "archive.zip"}
		]
	}`, nil)
	require.NoError(t, err)

	assert.Equal(t, "site", m.Name)
	assert.False(t, m.Install.DefaultMap)
	assert.Equal(t, []MapEntry{
		{Source: "public", Target: "www", Excludes: []string{"*.log"}},
		{Source: "conf", Target: "etc", Excludes: []string{}},
		{Source: ".", Target: ".", Excludes: []string{}},
	}, m.Install.Map)
	assert.Equal(t, []string{"scripts/pre.sh"}, m.Install.Scripts.BeforeInstall)
	assert.Equal(t, []string{}, m.Install.Scripts.BeforeSync)
	assert.Equal(t, []string{"scripts/post.sh", "scripts/post2.sh"}, m.Install.Scripts.AfterSync)
	assert.Equal(t, []string{}, m.Install.Scripts.Cleanup)
	assert.Equal(t, []string{"tmp"}, m.Install.Excludes)

	require.Len(t, m.Dependencies, 3)
	assert.Equal(t, Dependency{Name: "lib", Source: "../lib", Target: "vendor/lib", Config: map[string]interface{}{}}, m.Dependencies[0])
	assert.Equal(t, "x", m.Dependencies[1].Target)
	assert.Equal(t, "renamed", m.Dependencies[1].Config["name"])
	assert.Equal(t, ".", m.Dependencies[2].Target)
}

func TestLoadEmptyMapUsesDefaultMapping(t *testing.T) {
	m, err := loadFrom(t, `{"install": {"map": []}}`, nil)
	require.NoError(t, err)
	assert.True(t, m.Install.DefaultMap)
	assert.Len(t, m.Install.Map, 1)
}

func TestLoadInvalidShapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"name": `},
		{"map not a list", `{"install": {"map": {"source": "."}}}`},
		{"map entry not an object", `{"install": {"map": ["src"]}}`},
		{"scripts not an object", `{"install": {"scripts": ["a.sh"]}}`},
		{"phase not a list", `{"install": {"scripts": {"beforeInstall": "a.sh"}}}`},
		{"phase entry not a string", `{"install": {"scripts": {"cleanup": [1]}}}`},
		{"dependencies not a list", `{"dependencies": {"source": "x"}}`},
		{"dependency without source", `{"dependencies": [{"target": "x"}]}`},
		{"install not an object", `{"install": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFrom(t, tt.content, nil)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrManifestInvalid), "got %v", err)
			assert.Contains(t, err.Error(), "/proj/mum.json")
		})
	}
}

func TestLoadMergesOverrides(t *testing.T) {
	m, err := loadFrom(t, `{
		"name": "lib",
		"install": {
			"map": [{"source": "dist", "target": "."}],
			"scripts": {"beforeInstall": ["a.sh"], "afterInstall": ["z.sh"]}
		}
	}`, map[string]interface{}{
		"name": "custom",
		"install": map[string]interface{}{
			"scripts": map[string]interface{}{
				"beforeInstall": []interface{}{"b.sh", "c.sh"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "custom", m.Name)
	// lists replace, objects merge
	assert.Equal(t, []string{"b.sh", "c.sh"}, m.Install.Scripts.BeforeInstall)
	assert.Equal(t, []string{"z.sh"}, m.Install.Scripts.AfterInstall)
	assert.Equal(t, "dist", m.Install.Map[0].Source)
}

func TestOverridesApplyWithoutFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0755))

	m, err := NewLoader(fs, "").Load("/proj", map[string]interface{}{"name": "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", m.Name)
	assert.True(t, m.Install.DefaultMap)
}

func TestCustomFileName(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/project.json", []byte(`{"name": "p"}`), 0644))

	l := NewLoader(fs, "project.json")
	assert.Equal(t, "project.json", l.FileName())
	m, err := l.Load("/proj", nil)
	require.NoError(t, err)
	assert.Equal(t, "p", m.Name)
}
