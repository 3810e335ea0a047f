package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muhammadolammi/careerprep/internal/tools"
)

const DefaultStatus = "not applied"

var ErrInvalidInput = errors.New("invalid pipeline input")

// Input is what the user supplies for one roadmap request.
type Input struct {
	RequestID    string `json:"request_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Role         string `json:"role"`
	Company      string `json:"company"`
	Status       string `json:"application_status"`
	GitHubHandle string `json:"github_handle"`
	Location     string `json:"location,omitempty"`
	Resume       string `json:"resume,omitempty"`
}

func (in Input) normalize() (Input, error) {
	in.Role = strings.TrimSpace(in.Role)
	in.Company = strings.TrimSpace(in.Company)
	in.GitHubHandle = strings.TrimPrefix(strings.TrimSpace(in.GitHubHandle), "@")
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	var missing []string
	if in.Role == "" {
		missing = append(missing, "role")
	}
	if in.Company == "" {
		missing = append(missing, "company")
	}
	if in.GitHubHandle == "" {
		missing = append(missing, "github handle")
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return in, nil
}

func (in Input) toolRequest() tools.Request {
	return tools.Request{
		Role:         in.Role,
		Company:      in.Company,
		Location:     in.Location,
		GitHubHandle: in.GitHubHandle,
	}
}

// AgentOutput is the text one leaf agent produced, with the tool call it made.
type AgentOutput struct {
	Agent    string          `json:"agent"`
	Text     string          `json:"text"`
	ToolCall *tools.ToolCall `json:"tool_call,omitempty"`
}

// Result holds everything one run produced. It lives only for the request.
type Result struct {
	RequestID string        `json:"request_id"`
	Outputs   []AgentOutput `json:"outputs"`
	Skipped   []string      `json:"skipped,omitempty"`
	Final     string        `json:"final"`
}

// Output returns the text produced by the named agent.
func (r *Result) Output(agent string) (string, bool) {
	for _, o := range r.Outputs {
		if o.Agent == agent {
			return o.Text, true
		}
	}
	return "", false
}

// AgentError reports which agent failed.
type AgentError struct {
	Agent string
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s failed: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }
