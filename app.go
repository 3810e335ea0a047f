package main

import (
	"context"
	"fmt"

	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/muhammadolammi/careerprep/internal/llm"
	"github.com/muhammadolammi/careerprep/internal/pipeline"
	"github.com/muhammadolammi/careerprep/internal/tools"
)

func loadGraph() (*agents.Graph, error) {
	specs, err := agents.Roster()
	if err != nil {
		return nil, err
	}
	return agents.NewGraph(specs)
}

// buildPipeline wires the roster, the hosted model and the tool adapters.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	if err := cfg.ValidateModel(); err != nil {
		return nil, err
	}
	graph, err := loadGraph()
	if err != nil {
		return nil, err
	}
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	invokers, err := llm.NewInvokers(model, graph.Specs())
	if err != nil {
		return nil, err
	}
	byName := make(map[string]pipeline.Agent, len(invokers))
	for name, inv := range invokers {
		byName[name] = inv
	}

	github, err := tools.NewGitHub(cfg.GitHubToken, cfg.GitHubAPIURL, nil)
	if err != nil {
		return nil, err
	}
	registry := tools.NewRegistry(github, &tools.JobSearch{URL: cfg.JobSearchURL, APIKey: cfg.JobSearchAPIKey})

	p, err := pipeline.New(graph, byName, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, nil
}
