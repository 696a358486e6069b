package display

import (
	"testing"

	"github.com/arthur-debert/mum/pkg/plan"
	"github.com/stretchr/testify/assert"
)

func TestProjects(t *testing.T) {
	root := &plan.Node{Name: "top", Source: "/p/top", Target: "/t", Dependencies: []*plan.Node{
		{Name: "b", Source: "/p/b", Target: "/t", Dependencies: []*plan.Node{{Source: "/p/a", Target: "/t/a"}}},
		{Name: "c", Source: "/p/c", Target: "/t"},
	}}

	got := Projects(root)

	assert.Equal(t, []Project{
		{Name: "top", Source: "/p/top", Target: "/t", Depth: 0},
		{Name: "b", Source: "/p/b", Target: "/t", Depth: 1},
		{Source: "/p/a", Target: "/t/a", Depth: 2},
		{Name: "c", Source: "/p/c", Target: "/t", Depth: 1},
	}, got)
	assert.Nil(t, Projects(nil))
}

func TestPhasesSkipsEmptySets(t *testing.T) {
	p := &plan.Plan{
		BeforeInstall: []plan.ScriptSet{{Directory: "/a"}, {Directory: "/b", Scripts: []string{"x.sh"}}},
		AfterSync:     []plan.ScriptSet{{Directory: "/a"}},
		Cleanup:       []plan.ScriptSet{{Directory: "/c", Scripts: []string{"y.sh"}}},
	}

	got := Phases(p)

	assert.Len(t, got, 2)
	assert.Equal(t, "beforeInstall", got[0].Name)
	assert.Equal(t, "/b", got[0].Sets[0].Directory)
	assert.Equal(t, "cleanup", got[1].Name)
	assert.Nil(t, Phases(nil))
}
