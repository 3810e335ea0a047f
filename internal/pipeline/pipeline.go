package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/muhammadolammi/careerprep/internal/tools"
	"golang.org/x/sync/errgroup"
)

// Agent sends a prompt to the hosted model under an agent's instruction.
type Agent interface {
	Invoke(ctx context.Context, userID, prompt string) (string, error)
}

// Pipeline evaluates the agent graph once per request: leaves concurrently, then
// the orchestrator with their outputs.
type Pipeline struct {
	graph  *agents.Graph
	agents map[string]Agent
	tools  tools.Registry
}

// New checks that every spec in graph has an agent and that every bound tool is
// registered.
func New(graph *agents.Graph, agentsByName map[string]Agent, registry tools.Registry) (*Pipeline, error) {
	for _, spec := range graph.Specs() {
		if _, ok := agentsByName[spec.Name]; !ok {
			return nil, fmt.Errorf("no agent registered for %s", spec.Name)
		}
		if spec.Tool == "" {
			continue
		}
		if _, ok := registry[spec.Tool]; !ok {
			return nil, fmt.Errorf("agent %s: tool %s is not registered", spec.Name, spec.Tool)
		}
	}
	return &Pipeline{graph: graph, agents: agentsByName, tools: registry}, nil
}

func (p *Pipeline) Graph() *agents.Graph { return p.graph }

// Run executes the graph. The first leaf failure cancels the remaining leaves and
// is returned as *AgentError; the orchestrator then never runs.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if in.RequestID == "" {
		in.RequestID = uuid.NewString()
	}
	logger := slog.With("request_id", in.RequestID)
	result := &Result{RequestID: in.RequestID}

	var leaves []agents.Spec
	for _, spec := range p.graph.Leaves {
		if spec.RequiresResume && strings.TrimSpace(in.Resume) == "" {
			result.Skipped = append(result.Skipped, spec.Name)
			continue
		}
		leaves = append(leaves, spec)
	}

	outputs := make([]AgentOutput, len(leaves))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range leaves {
		g.Go(func() error {
			started := time.Now()
			out, err := p.runLeaf(gctx, spec, in)
			if err != nil {
				logger.Error("agent failed", "agent", spec.Name, "error", err)
				return &AgentError{Agent: spec.Name, Err: err}
			}
			logger.Info("agent finished", "agent", spec.Name, "duration", time.Since(started))
			outputs[i] = *out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Outputs = outputs

	root := p.graph.Root
	started := time.Now()
	final, err := p.agents[root.Name].Invoke(ctx, in.UserID, OrchestratorPrompt(in, outputs, result.Skipped))
	if err != nil {
		return nil, &AgentError{Agent: root.Name, Err: err}
	}
	logger.Info("roadmap ready", "agent", root.Name, "duration", time.Since(started))
	result.Final = final
	return result, nil
}

func (p *Pipeline) runLeaf(ctx context.Context, spec agents.Spec, in Input) (*AgentOutput, error) {
	var call *tools.ToolCall
	if spec.Tool != "" {
		var err error
		call, err = p.tools[spec.Tool].Call(ctx, in.toolRequest())
		if err != nil {
			return nil, err
		}
	}
	text, err := p.agents[spec.Name].Invoke(ctx, in.UserID, LeafPrompt(in, spec, call))
	if err != nil {
		return nil, err
	}
	return &AgentOutput{Agent: spec.Name, Text: text, ToolCall: call}, nil
}
