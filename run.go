package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/muhammadolammi/careerprep/internal/pipeline"
	"github.com/muhammadolammi/careerprep/internal/tools"
	"github.com/viant/afs"
)

// RunCmd generates one roadmap in-process.
type RunCmd struct {
	Role     string `short:"r" long:"role" required:"true" description:"target role"`
	Company  string `short:"c" long:"company" required:"true" description:"target company"`
	Status   string `short:"s" long:"status" default:"not applied" description:"application status"`
	GitHub   string `short:"g" long:"github" required:"true" description:"GitHub handle"`
	Location string `short:"l" long:"location" description:"preferred job location"`
	Resume   string `long:"resume" description:"resume path or URL (txt, md, pdf, docx)"`
	User     string `short:"u" long:"user" default:"local-user" description:"user id for the agent sessions"`
	Verbose  bool   `short:"v" long:"verbose" description:"print every agent report"`
	JSON     bool   `long:"json" description:"print the full result as JSON"`
}

func (c *RunCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	in, err := c.input(ctx, afs.New())
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, in)
	if err != nil {
		return err
	}
	return c.print(os.Stdout, result)
}

func (c *RunCmd) input(ctx context.Context, fs afs.Service) (pipeline.Input, error) {
	in := pipeline.Input{
		UserID:       c.User,
		Role:         c.Role,
		Company:      c.Company,
		Status:       c.Status,
		GitHubHandle: c.GitHub,
		Location:     c.Location,
	}
	if c.Resume == "" {
		return in, nil
	}
	text, err := tools.ReadResume(ctx, fs, c.Resume)
	if err != nil {
		return in, err
	}
	in.Resume = text
	return in, nil
}

func (c *RunCmd) print(w io.Writer, result *pipeline.Result) error {
	if c.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	line := strings.Repeat("=", 70)
	if c.Verbose {
		for _, o := range result.Outputs {
			fmt.Fprintf(w, "%s\n%s\n%s\n%s\n\n", line, o.Agent, line, o.Text)
		}
		if len(result.Skipped) > 0 {
			fmt.Fprintf(w, "skipped: %s\n\n", strings.Join(result.Skipped, ", "))
		}
	}
	fmt.Fprintf(w, "%s\nRoadmap\n%s\n%s\n", line, line, result.Final)
	return nil
}
