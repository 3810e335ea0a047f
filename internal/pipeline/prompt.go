package pipeline

import (
	"fmt"
	"strings"

	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/muhammadolammi/careerprep/internal/tools"
)

func writeHeader(b *strings.Builder, in Input) {
	fmt.Fprintf(b, "Target role: %s\n", in.Role)
	fmt.Fprintf(b, "Target company: %s\n", in.Company)
	fmt.Fprintf(b, "Application status: %s\n", in.Status)
	fmt.Fprintf(b, "GitHub handle: %s\n", in.GitHubHandle)
	if in.Location != "" {
		fmt.Fprintf(b, "Preferred location: %s\n", in.Location)
	}
}

// LeafPrompt builds the user turn for a leaf agent.
func LeafPrompt(in Input, spec agents.Spec, call *tools.ToolCall) string {
	var b strings.Builder
	writeHeader(&b, in)
	if spec.RequiresResume {
		fmt.Fprintf(&b, "\n## Resume\n%s\n", strings.TrimSpace(in.Resume))
	}
	if call != nil {
		fmt.Fprintf(&b, "\n## Tool output: %s\n%s\n", call.Tool, strings.TrimSpace(call.Output))
	}
	return b.String()
}

// OrchestratorPrompt appends every leaf output, in graph order, to the request
// header. Skipped agents are listed so the model can say what is missing.
func OrchestratorPrompt(in Input, outputs []AgentOutput, skipped []string) string {
	var b strings.Builder
	writeHeader(&b, in)
	for _, o := range outputs {
		fmt.Fprintf(&b, "\n## Report: %s\n%s\n", o.Agent, strings.TrimSpace(o.Text))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\n## Unavailable reports\n%s (no input provided)\n", strings.Join(skipped, ", "))
	}
	return b.String()
}
