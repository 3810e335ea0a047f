package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/muhammadolammi/careerprep/internal/deploy"
	"github.com/muhammadolammi/careerprep/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestRunCmd_Flags_DataDriven(t *testing.T) {
	type testCase struct {
		name    string
		args    []string
		expect  RunCmd
		wantErr bool
	}

	cases := []testCase{
		{
			name:   "defaults",
			args:   []string{"-r", "SRE", "-c", "Acme", "-g", "octo"},
			expect: RunCmd{Role: "SRE", Company: "Acme", GitHub: "octo", Status: "not applied", User: "local-user"},
		},
		{
			name: "all flags",
			args: []string{"--role", "ML Engineer", "--company", "Google", "--github", "octo", "--status", "interviewing",
				"--resume", "cv.pdf", "--location", "Zurich", "-v", "--json"},
			expect: RunCmd{Role: "ML Engineer", Company: "Google", GitHub: "octo", Status: "interviewing",
				Resume: "cv.pdf", Location: "Zurich", User: "local-user", Verbose: true, JSON: true},
		},
		{
			name:    "missing github",
			args:    []string{"-r", "SRE", "-c", "Acme"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := &RunCmd{}
			parser := flags.NewParser(cmd, flags.HelpFlag|flags.PassDoubleDash)
			_, err := parser.ParseArgs(tc.args)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, tc.expect, *cmd)
		})
	}
}

func TestOptions_Init(t *testing.T) {
	opts := &Options{}
	opts.Init("delete")
	assert.NotNil(t, opts.Delete)
	assert.Nil(t, opts.Run)

	opts = &Options{}
	opts.Init("operations")
	assert.NotNil(t, opts.Operations)

	opts = &Options{}
	opts.Init("unknown")
	assert.Nil(t, opts.Deploy)
}

func TestRun_RequiredFlags(t *testing.T) {
	err := run([]string{"query", "--name", "projects/p/locations/l/reasoningEngines/1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message")
}

func TestRun_Help(t *testing.T) {
	assert.NoError(t, run([]string{"--help"}))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("yes\n"), &out, "sure? "))
	assert.Equal(t, "sure? ", out.String())
	assert.True(t, confirm(strings.NewReader(" YES "), &out, ""))
	assert.False(t, confirm(strings.NewReader("no\n"), &out, ""))
	assert.False(t, confirm(strings.NewReader(""), &out, ""))
}

func TestRunCmd_Input(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	require.NoError(t, fs.Upload(ctx, "mem://localhost/cli/cv.txt", 0o644, strings.NewReader("Skills: Rust")))

	cmd := &RunCmd{Role: "SRE", Company: "Acme", GitHub: "octo", Status: "applied", User: "u1", Resume: "mem://localhost/cli/cv.txt"}
	in, err := cmd.input(ctx, fs)
	require.NoError(t, err)
	assert.Equal(t, "Skills: Rust", in.Resume)
	assert.Equal(t, "octo", in.GitHubHandle)
	assert.Equal(t, "u1", in.UserID)

	cmd.Resume = "mem://localhost/cli/cv.bmp"
	_, err = cmd.input(ctx, fs)
	assert.Error(t, err)
}

func TestRunCmd_Print(t *testing.T) {
	result := &pipeline.Result{
		RequestID: "r1",
		Outputs:   []pipeline.AgentOutput{{Agent: "github_analyzer", Text: "solid Go"}},
		Skipped:   []string{"profile_analyzer"},
		Final:     "Week 1: graphs",
	}

	var plain bytes.Buffer
	require.NoError(t, (&RunCmd{}).print(&plain, result))
	assert.Contains(t, plain.String(), "Week 1: graphs")
	assert.NotContains(t, plain.String(), "solid Go")

	var verbose bytes.Buffer
	require.NoError(t, (&RunCmd{Verbose: true}).print(&verbose, result))
	assert.Contains(t, verbose.String(), "solid Go")
	assert.Contains(t, verbose.String(), "skipped: profile_analyzer")

	var js bytes.Buffer
	require.NoError(t, (&RunCmd{JSON: true}).print(&js, result))
	assert.Contains(t, js.String(), `"final": "Week 1: graphs"`)
}

func TestLoadGraph(t *testing.T) {
	graph, err := loadGraph()
	require.NoError(t, err)
	assert.Equal(t, "career_orchestrator", graph.Root.Name)
}

func TestPrintEngine(t *testing.T) {
	var out bytes.Buffer
	printEngine(&out, &deploy.ReasoningEngine{Name: "projects/p/locations/l/reasoningEngines/1", DisplayName: "Career Preparation Assistant", Description: "multi agent"})
	assert.Contains(t, out.String(), "display name: Career Preparation Assistant")
	assert.Contains(t, out.String(), "description: multi agent")
}

func TestPrintMethods(t *testing.T) {
	var out bytes.Buffer
	printMethods(&out, &deploy.ReasoningEngine{
		Name: "projects/p/locations/l/reasoningEngines/1",
		Spec: &deploy.EngineSpec{ClassMethods: []map[string]any{
			{"name": "stream_query", "description": "Streams responses.\nArgs: message"},
			{"name": "list_sessions"},
		}},
	})
	assert.Contains(t, out.String(), "  - stream_query: Streams responses.\n")
	assert.Contains(t, out.String(), "  - list_sessions\n")
	assert.NotContains(t, out.String(), "Args")

	out.Reset()
	printMethods(&out, &deploy.ReasoningEngine{Name: "e1"})
	assert.Equal(t, "e1 exposes no operations\n", out.String())
}
