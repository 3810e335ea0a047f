package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster(t *testing.T) {
	specs, err := Roster()
	require.NoError(t, err)
	require.Len(t, specs, 4)

	g, err := NewGraph(specs)
	require.NoError(t, err)
	assert.Equal(t, "career_orchestrator", g.Root.Name)

	var names []string
	tools := map[string]string{}
	for _, l := range g.Leaves {
		names = append(names, l.Name)
		tools[l.Name] = l.Tool
		assert.NotEmpty(t, l.Instruction)
	}
	assert.Equal(t, []string{"profile_analyzer", "job_researcher", "github_analyzer"}, names)
	assert.Equal(t, "job_search", tools["job_researcher"])
	assert.Equal(t, "github_profile", tools["github_analyzer"])
	assert.Empty(t, tools["profile_analyzer"])
	assert.True(t, g.Leaves[0].RequiresResume)
	assert.Len(t, g.Specs(), 4)
}

func TestRoster_InstructionsHaveNoPlaceholders(t *testing.T) {
	specs, err := Roster()
	require.NoError(t, err)
	for _, s := range specs {
		assert.NotContains(t, s.Instruction, "{", s.Name)
	}
}

func TestNewGraph_Invalid(t *testing.T) {
	leaf := Spec{Name: "a", Instruction: "x"}
	cases := []struct {
		name  string
		specs []Spec
	}{
		{"empty name", []Spec{{Instruction: "x"}}},
		{"duplicate", []Spec{leaf, leaf, {Name: "root", DependsOn: []string{"a"}}}},
		{"no root", []Spec{leaf}},
		{"two roots", []Spec{leaf, {Name: "r1", DependsOn: []string{"a"}}, {Name: "r2", DependsOn: []string{"a"}}}},
		{"unknown dep", []Spec{leaf, {Name: "root", DependsOn: []string{"b"}}}},
		{"self dep", []Spec{leaf, {Name: "root", DependsOn: []string{"root"}}}},
		{"repeated dep", []Spec{leaf, {Name: "root", DependsOn: []string{"a", "a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGraph(tc.specs)
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestNewGraph_DropsUnreferencedLeaves(t *testing.T) {
	g, err := NewGraph([]Spec{
		{Name: "a"}, {Name: "b"},
		{Name: "root", DependsOn: []string{"b"}},
	})
	require.NoError(t, err)
	require.Len(t, g.Leaves, 1)
	assert.Equal(t, "b", g.Leaves[0].Name)
}

func TestParse_Error(t *testing.T) {
	_, err := Parse([]byte("agents: [oops"))
	assert.Error(t, err)
}
