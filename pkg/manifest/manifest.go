// Package manifest loads and validates the per-project mum.json file.
package manifest

// DefaultPath is the source and target of the implicit mapping
const DefaultPath = "."

// Manifest is a project's configuration after defaults are applied. Every
// list is non-nil.
type Manifest struct {
	Name         string
	Install      Install
	Dependencies []Dependency
}

// Install groups what the project contributes to an installation
type Install struct {
	// Map is never empty: without explicit entries it holds the default mapping.
	Map []MapEntry
	// DefaultMap is true when Map holds only the implicit {".", "."} entry.
	DefaultMap bool
	Scripts    Scripts
	// Excludes apply to every mapping of the project.
	Excludes []string
}

// MapEntry overlays Source (relative to the project source) onto Target
// (relative to the project target).
type MapEntry struct {
	Source   string
	Target   string
	Excludes []string
}

// Scripts lists script paths per lifecycle phase, relative to the project source
type Scripts struct {
	BeforeInstall []string
	BeforeSync    []string
	AfterSync     []string
	AfterInstall  []string
	Cleanup       []string
}

// Dependency is a project required by another one
type Dependency struct {
	Name   string
	Source string
	// Target resolves against the parent's target when relative.
	Target string
	// Config is merged over the dependency's own manifest.
	Config map[string]interface{}
}

// Default returns the manifest of a project without a mum.json
func Default() *Manifest {
	return &Manifest{
		Install: Install{
			Map:        []MapEntry{{Source: DefaultPath, Target: DefaultPath, Excludes: []string{}}},
			DefaultMap: true,
			Scripts: Scripts{
				BeforeInstall: []string{},
				BeforeSync:    []string{},
				AfterSync:     []string{},
				AfterInstall:  []string{},
				Cleanup:       []string{},
			},
			Excludes: []string{},
		},
		Dependencies: []Dependency{},
	}
}
