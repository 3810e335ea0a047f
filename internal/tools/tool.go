package tools

import "context"

// Request carries the user inputs a tool may read its parameters from.
type Request struct {
	Role         string
	Company      string
	Location     string
	GitHubHandle string
}

// ToolCall records one invocation of a tool and what it returned.
type ToolCall struct {
	Tool   string            `json:"tool"`
	Params map[string]string `json:"params"`
	Output string            `json:"output"`
}

// Tool wraps a single outbound call. Errors are returned to the caller as is;
// tools do not retry.
type Tool interface {
	Name() string
	Call(ctx context.Context, req Request) (*ToolCall, error)
}

// Registry maps tool names to implementations.
type Registry map[string]Tool

func NewRegistry(tools ...Tool) Registry {
	r := make(Registry, len(tools))
	for _, t := range tools {
		r[t.Name()] = t
	}
	return r
}
