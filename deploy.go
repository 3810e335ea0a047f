package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/muhammadolammi/careerprep/internal/deploy"
	"github.com/muhammadolammi/careerprep/internal/pipeline"
)

const consoleURL = "https://console.cloud.google.com/vertex-ai/agent-engine"

type DeployOptions struct {
	Credentials string `long:"credentials" description:"service account JSON file"`
}

func (o DeployOptions) client(ctx context.Context) (*deploy.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.Credentials != "" {
		if err := cfg.SetCredentials(o.Credentials); err != nil {
			return nil, nil, err
		}
	}
	client, err := deploy.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// DeployCmd packages the agent graph and creates the remote deployment.
type DeployCmd struct {
	DeployOptions
	Wait        bool   `long:"wait" description:"block until the deployment is ready"`
	SmokeGitHub string `long:"smoke-github" description:"run the pipeline locally for this GitHub handle before deploying"`
}

func (c *DeployCmd) Execute(_ []string) error {
	ctx := context.Background()
	client, cfg, err := c.client(ctx)
	if err != nil {
		return err
	}
	cfg.Display(os.Stdout)

	if c.SmokeGitHub != "" {
		p, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		result, err := p.Run(ctx, pipeline.Input{
			UserID:       "test-user",
			Role:         "Machine Learning Engineer",
			Company:      "Google",
			GitHubHandle: c.SmokeGitHub,
		})
		if err != nil {
			return fmt.Errorf("local test failed: %w", err)
		}
		fmt.Printf("local test complete (%d reports)\n%s\n", len(result.Outputs), result.Final)
	}

	graph, err := loadGraph()
	if err != nil {
		return err
	}
	d, err := client.Deploy(ctx, deploy.NewManifest(cfg, graph), c.Wait)
	if err != nil {
		return err
	}
	switch {
	case d.Existing:
		fmt.Printf("deployment already exists: %s\n", d.Name)
	case c.Wait:
		fmt.Printf("deployment ready: %s\n", d.Name)
	default:
		fmt.Printf("deployment initiated: %s\noperation: %s\nthis may take 5-10 minutes\n", d.Name, d.Operation)
	}
	fmt.Printf("console: %s\n", consoleURL)
	return nil
}

type GetCmd struct {
	DeployOptions
	Name string `long:"name" required:"true" description:"deployment resource name"`
}

func (c *GetCmd) Execute(_ []string) error {
	ctx := context.Background()
	client, _, err := c.client(ctx)
	if err != nil {
		return err
	}
	engine, err := client.Get(ctx, c.Name)
	if err != nil {
		return err
	}
	printEngine(os.Stdout, engine)
	return nil
}

// OperationsCmd prints the operations a deployed agent exposes.
type OperationsCmd struct {
	DeployOptions
	Name string `long:"name" required:"true" description:"deployment resource name"`
}

func (c *OperationsCmd) Execute(_ []string) error {
	ctx := context.Background()
	client, _, err := c.client(ctx)
	if err != nil {
		return err
	}
	engine, err := client.Get(ctx, c.Name)
	if err != nil {
		return err
	}
	printMethods(os.Stdout, engine)
	return nil
}

type ListCmd struct {
	DeployOptions
	Filter string `long:"filter" description:"list filter, e.g. display_name=\"x\""`
}

func (c *ListCmd) Execute(_ []string) error {
	ctx := context.Background()
	client, _, err := c.client(ctx)
	if err != nil {
		return err
	}
	engines, err := client.List(ctx, c.Filter)
	if err != nil {
		return err
	}
	for _, e := range engines {
		printEngine(os.Stdout, e)
	}
	return nil
}

type QueryCmd struct {
	DeployOptions
	Name    string `long:"name" required:"true" description:"deployment resource name"`
	User    string `short:"u" long:"user" default:"cli-user" description:"user id"`
	Message string `short:"m" long:"message" required:"true" description:"message to send"`
	Session string `long:"session" description:"session id to continue"`
}

func (c *QueryCmd) Execute(_ []string) error {
	ctx := context.Background()
	client, _, err := c.client(ctx)
	if err != nil {
		return err
	}
	return client.Query(ctx, c.Name, c.User, c.Message, c.Session, func(author, text string) {
		fmt.Printf("[%s] %s\n", author, text)
	})
}

type DeleteCmd struct {
	DeployOptions
	Name string `long:"name" required:"true" description:"deployment resource name"`
	Yes  bool   `short:"y" long:"yes" description:"skip the confirmation prompt"`
}

func (c *DeleteCmd) Execute(_ []string) error {
	if !c.Yes && !confirm(os.Stdin, os.Stdout, "Are you sure you want to delete this agent? (yes/no): ") {
		fmt.Println("deletion cancelled")
		return nil
	}
	ctx := context.Background()
	client, _, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := client.Delete(ctx, c.Name); err != nil {
		if errors.Is(err, deploy.ErrNotFound) {
			return fmt.Errorf("%s does not exist", c.Name)
		}
		return err
	}
	fmt.Printf("deleted %s and its managed sessions\n", c.Name)
	return nil
}

type ConfigCmd struct{}

func (c *ConfigCmd) Execute(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Display(os.Stdout)
	return nil
}

func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	answer, _ := bufio.NewReader(r).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

func printEngine(w io.Writer, e *deploy.ReasoningEngine) {
	fmt.Fprintf(w, "%s\n  display name: %s\n  updated: %s\n", e.Name, e.DisplayName, e.UpdateTime)
	if e.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", e.Description)
	}
}

func printMethods(w io.Writer, e *deploy.ReasoningEngine) {
	methods := e.Methods()
	if len(methods) == 0 {
		fmt.Fprintf(w, "%s exposes no operations\n", e.Name)
		return
	}
	fmt.Fprintf(w, "operations of %s:\n", e.Name)
	for _, m := range methods {
		if m.Description == "" {
			fmt.Fprintf(w, "  - %s\n", m.Name)
			continue
		}
		fmt.Fprintf(w, "  - %s: %s\n", m.Name, m.Description)
	}
}
