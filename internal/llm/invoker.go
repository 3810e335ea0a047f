package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/muhammadolammi/careerprep/internal/config"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const defaultUserID = "local-user"

var ErrEmptyResponse = errors.New("empty agent response")

// NewModel creates the Gemini model shared by every agent. The Gemini API is used
// when an API key is configured, Vertex AI otherwise.
func NewModel(ctx context.Context, cfg *config.Config) (model.LLM, error) {
	clientConfig := &genai.ClientConfig{APIKey: cfg.GoogleAPIKey}
	if cfg.UseVertex() {
		clientConfig = &genai.ClientConfig{
			Project:  cfg.ProjectID,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}
	m, err := gemini.NewModel(ctx, cfg.ModelName, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return m, nil
}

// Invoker runs one agent spec on the hosted model. Each call gets its own session
// which is deleted once the response is read.
type Invoker struct {
	spec     agents.Spec
	runner   *runner.Runner
	sessions session.Service
}

func NewInvoker(m model.LLM, spec agents.Spec, sessions session.Service) (*Invoker, error) {
	a, err := llmagent.New(llmagent.Config{
		Name:        spec.Name,
		Model:       m,
		Description: spec.Description,
		Instruction: spec.Instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent %s: %w", spec.Name, err)
	}
	r, err := runner.New(runner.Config{
		AppName:        spec.Name,
		Agent:          a,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner for %s: %w", spec.Name, err)
	}
	return &Invoker{spec: spec, runner: r, sessions: sessions}, nil
}

// NewInvokers builds one invoker per spec over a shared in-memory session service.
func NewInvokers(m model.LLM, specs []agents.Spec) (map[string]*Invoker, error) {
	sessions := session.InMemoryService()
	invokers := make(map[string]*Invoker, len(specs))
	for _, spec := range specs {
		inv, err := NewInvoker(m, spec, sessions)
		if err != nil {
			return nil, err
		}
		invokers[spec.Name] = inv
	}
	return invokers, nil
}

func (i *Invoker) Name() string { return i.spec.Name }

// Invoke sends prompt as the user turn and returns the agent's final text.
func (i *Invoker) Invoke(ctx context.Context, userID, prompt string) (string, error) {
	if userID == "" {
		userID = defaultUserID
	}
	created, err := i.sessions.Create(ctx, &session.CreateRequest{
		AppName:   i.spec.Name,
		UserID:    userID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	sess := created.Session
	defer func() {
		err := i.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   sess.AppName(),
			UserID:    sess.UserID(),
			SessionID: sess.ID(),
		})
		if err != nil {
			slog.Warn("failed to delete agent session", "agent", i.spec.Name, "session_id", sess.ID(), "error", err)
		}
	}()

	stream := i.runner.Run(ctx, sess.UserID(), sess.ID(), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", i.spec.Name, err)
		}
		if event == nil || event.Content == nil || !event.IsFinalResponse() {
			continue
		}
		if text := contentText(event.Content); text != "" {
			output = text
		}
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("agent %s: %w", i.spec.Name, ErrEmptyResponse)
	}
	return output, nil
}

func contentText(c *genai.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
