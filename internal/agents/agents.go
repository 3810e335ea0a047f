package agents

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var defaultRoster []byte

var ErrInvalidGraph = errors.New("invalid agent graph")

// Spec pairs an instruction with at most one tool. Specs are built once at start
// up and never mutated.
type Spec struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Instruction    string   `yaml:"instruction"`
	Tool           string   `yaml:"tool,omitempty"`
	DependsOn      []string `yaml:"depends_on,omitempty"`
	RequiresResume bool     `yaml:"requires_resume,omitempty"`
}

type roster struct {
	Agents []Spec `yaml:"agents"`
}

// Roster returns the built-in agent specs.
func Roster() ([]Spec, error) {
	return Parse(defaultRoster)
}

// Parse decodes a YAML roster document.
func Parse(data []byte) ([]Spec, error) {
	var r roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse agent roster: %w", err)
	}
	return r.Agents, nil
}

// Graph is a two level fan-out/fan-in: every leaf runs before Root.
type Graph struct {
	Leaves []Spec
	Root   Spec
}

// NewGraph validates specs and splits them into leaves and the single root.
func NewGraph(specs []Spec) (*Graph, error) {
	byName := make(map[string]Spec, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: agent with empty name", ErrInvalidGraph)
		}
		if _, ok := byName[s.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate agent %q", ErrInvalidGraph, s.Name)
		}
		byName[s.Name] = s
	}

	g := &Graph{}
	var roots []Spec
	for _, s := range specs {
		if len(s.DependsOn) == 0 {
			g.Leaves = append(g.Leaves, s)
			continue
		}
		roots = append(roots, s)
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one orchestrator, found %d", ErrInvalidGraph, len(roots))
	}
	g.Root = roots[0]

	seen := map[string]bool{}
	for _, dep := range g.Root.DependsOn {
		if dep == g.Root.Name {
			return nil, fmt.Errorf("%w: %s depends on itself", ErrInvalidGraph, dep)
		}
		if _, ok := byName[dep]; !ok {
			return nil, fmt.Errorf("%w: %s depends on unknown agent %q", ErrInvalidGraph, g.Root.Name, dep)
		}
		if seen[dep] {
			return nil, fmt.Errorf("%w: %s lists %q twice", ErrInvalidGraph, g.Root.Name, dep)
		}
		seen[dep] = true
	}
	// only leaves the orchestrator consumes take part in a run
	var leaves []Spec
	for _, l := range g.Leaves {
		if seen[l.Name] {
			leaves = append(leaves, l)
		}
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: orchestrator %s has no leaves", ErrInvalidGraph, g.Root.Name)
	}
	g.Leaves = leaves
	return g, nil
}

// Specs returns leaves followed by the root.
func (g *Graph) Specs() []Spec {
	return append(append([]Spec{}, g.Leaves...), g.Root)
}
