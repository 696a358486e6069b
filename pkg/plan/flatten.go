package plan

// Flatten folds the tree rooted at root into a Plan.
//
// Walking depth first, each project:
//   - inserts its beforeInstall and beforeSync sets at the front, before
//     its dependencies are folded
//   - appends its afterSync, afterInstall and cleanup sets after them
//   - places its mappings according to order
//
// Before-phase sets therefore run deepest first with siblings in reverse
// declaration order; after-phase sets run deepest first in declaration order.
func Flatten(root *Node, order MapOrder) *Plan {
	p := &Plan{
		BeforeInstall: []ScriptSet{},
		BeforeSync:    []ScriptSet{},
		AfterSync:     []ScriptSet{},
		AfterInstall:  []ScriptSet{},
		Cleanup:       []ScriptSet{},
		Maps:          []Mapping{},
	}
	if root != nil {
		p.fold(root, order)
	}
	return p
}

func (p *Plan) fold(n *Node, order MapOrder) {
	p.BeforeInstall = prepend(p.BeforeInstall, n.BeforeInstall)
	p.BeforeSync = prepend(p.BeforeSync, n.BeforeSync)

	for _, dep := range n.Dependencies {
		p.fold(dep, order)
	}

	p.AfterSync = append(p.AfterSync, n.AfterSync)
	p.AfterInstall = append(p.AfterInstall, n.AfterInstall)
	p.Cleanup = append(p.Cleanup, n.Cleanup)

	if n.DefaultMap && order != MapOrderParentWins {
		p.Maps = append(append([]Mapping{}, n.Maps...), p.Maps...)
	} else {
		p.Maps = append(p.Maps, n.Maps...)
	}
}

func prepend(sets []ScriptSet, set ScriptSet) []ScriptSet {
	return append([]ScriptSet{set}, sets...)
}
