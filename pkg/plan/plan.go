// Package plan holds the result of walking a dependency tree: one immutable
// Node per project, and the flattened Plan the installer executes.
package plan

// Phase names a lifecycle script phase
type Phase string

const (
	PhaseBeforeInstall Phase = "beforeInstall"
	PhaseBeforeSync    Phase = "beforeSync"
	PhaseAfterSync     Phase = "afterSync"
	PhaseAfterInstall  Phase = "afterInstall"
	PhaseCleanup       Phase = "cleanup"
)

// PrePhases run before the overlay, PostPhases after it.
var (
	PrePhases  = []Phase{PhaseBeforeInstall, PhaseBeforeSync}
	PostPhases = []Phase{PhaseAfterSync, PhaseAfterInstall, PhaseCleanup}
)

// MapOrder selects where a project's mappings land relative to its
// dependencies'.
type MapOrder string

const (
	// MapOrderLegacy puts an implicit default mapping in front of
	// everything and appends explicit mappings after the dependencies.
	MapOrderLegacy MapOrder = "legacy"
	// MapOrderParentWins always appends a project's mappings after its
	// dependencies', so the parent overrides them.
	MapOrderParentWins MapOrder = "parent-wins"
)

// ScriptSet is one project's scripts for one phase. Directory is the
// project source (scripts resolve and run there), Target its install dir.
type ScriptSet struct {
	Directory string   `json:"directory" yaml:"directory"`
	Target    string   `json:"target" yaml:"target"`
	Scripts   []string `json:"scripts" yaml:"scripts"`
}

// Mapping overlays an absolute Source directory onto an absolute Target.
type Mapping struct {
	Source   string   `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	Excludes []string `json:"excludes" yaml:"excludes"`
}

// Node is the resolved contribution of a single project.
type Node struct {
	Name   string
	Source string
	Target string

	BeforeInstall ScriptSet
	BeforeSync    ScriptSet
	AfterSync     ScriptSet
	AfterInstall  ScriptSet
	Cleanup       ScriptSet

	Maps       []Mapping
	DefaultMap bool

	Dependencies []*Node
}

// Set returns the node's script set for phase
func (n *Node) Set(phase Phase) ScriptSet {
	switch phase {
	case PhaseBeforeInstall:
		return n.BeforeInstall
	case PhaseBeforeSync:
		return n.BeforeSync
	case PhaseAfterSync:
		return n.AfterSync
	case PhaseAfterInstall:
		return n.AfterInstall
	default:
		return n.Cleanup
	}
}

// Plan is the flattened, ordered work of a whole installation.
type Plan struct {
	BeforeInstall []ScriptSet `json:"beforeInstall" yaml:"beforeInstall"`
	BeforeSync    []ScriptSet `json:"beforeSync" yaml:"beforeSync"`
	AfterSync     []ScriptSet `json:"afterSync" yaml:"afterSync"`
	AfterInstall  []ScriptSet `json:"afterInstall" yaml:"afterInstall"`
	Cleanup       []ScriptSet `json:"cleanup" yaml:"cleanup"`
	Maps          []Mapping   `json:"maps" yaml:"maps"`
}

// Sets returns the plan's script sets for phase
func (p *Plan) Sets(phase Phase) []ScriptSet {
	switch phase {
	case PhaseBeforeInstall:
		return p.BeforeInstall
	case PhaseBeforeSync:
		return p.BeforeSync
	case PhaseAfterSync:
		return p.AfterSync
	case PhaseAfterInstall:
		return p.AfterInstall
	default:
		return p.Cleanup
	}
}

// ScriptCount returns the total number of scripts across phases
func (p *Plan) ScriptCount() int {
	count := 0
	for _, phase := range append(append([]Phase{}, PrePhases...), PostPhases...) {
		for _, set := range p.Sets(phase) {
			count += len(set.Scripts)
		}
	}
	return count
}
