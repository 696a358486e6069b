// Package display holds the view model shared by every renderer.
package display

import (
	"github.com/arthur-debert/mum/pkg/plan"
)

// Report is what a command hands to a renderer
type Report struct {
	Command   string     `json:"command" yaml:"command"`
	Source    string     `json:"source,omitempty" yaml:"source,omitempty"`
	Target    string     `json:"target,omitempty" yaml:"target,omitempty"`
	CacheRoot string     `json:"cacheRoot,omitempty" yaml:"cacheRoot,omitempty"`
	DryRun    bool       `json:"dryRun" yaml:"dryRun"`
	Projects  []Project  `json:"projects,omitempty" yaml:"projects,omitempty"`
	Plan      *plan.Plan `json:"plan,omitempty" yaml:"plan,omitempty"`
	Record    string     `json:"record,omitempty" yaml:"record,omitempty"`
	Message   string     `json:"message,omitempty" yaml:"message,omitempty"`
}

// Project is one node of the dependency tree, flattened with its depth
type Project struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Depth  int    `json:"depth" yaml:"depth"`
}

// Projects lists the tree rooted at root in depth-first declaration order
func Projects(root *plan.Node) []Project {
	var out []Project
	var walk func(n *plan.Node, depth int)
	walk = func(n *plan.Node, depth int) {
		out = append(out, Project{Name: n.Name, Source: n.Source, Target: n.Target, Depth: depth})
		for _, dep := range n.Dependencies {
			walk(dep, depth+1)
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return out
}

// Phase pairs a phase name with its sets, skipping sets without scripts
type Phase struct {
	Name string
	Sets []plan.ScriptSet
}

// Phases returns the non-empty script phases of p in execution order
func Phases(p *plan.Plan) []Phase {
	if p == nil {
		return nil
	}
	var out []Phase
	for _, name := range append(append([]plan.Phase{}, plan.PrePhases...), plan.PostPhases...) {
		var sets []plan.ScriptSet
		for _, s := range p.Sets(name) {
			if len(s.Scripts) > 0 {
				sets = append(sets, s)
			}
		}
		if len(sets) > 0 {
			out = append(out, Phase{Name: string(name), Sets: sets})
		}
	}
	return out
}
