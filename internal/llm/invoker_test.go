package llm

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

type fakeLLM struct {
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) Name() string { return "fake-model" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	f.mu.Lock()
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	f.mu.Unlock()
	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		yield(&model.LLMResponse{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.reply}}},
		}, nil)
	}
}

func (f *fakeLLM) sawPrompt(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, s) {
			return true
		}
	}
	return false
}

var testSpec = agents.Spec{Name: "github_analyzer", Description: "test", Instruction: "Review the profile."}

func TestInvoker_Invoke(t *testing.T) {
	llm := &fakeLLM{reply: "strong Go background"}
	inv, err := NewInvoker(llm, testSpec, session.InMemoryService())
	require.NoError(t, err)
	assert.Equal(t, "github_analyzer", inv.Name())

	out, err := inv.Invoke(context.Background(), "user-1", "Profile: octo")
	require.NoError(t, err)
	assert.Equal(t, "strong Go background", out)
	assert.True(t, llm.sawPrompt("Profile: octo"))
}

func TestInvoker_EmptyResponse(t *testing.T) {
	inv, err := NewInvoker(&fakeLLM{reply: "  "}, testSpec, session.InMemoryService())
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestInvoker_ModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	inv, err := NewInvoker(&fakeLLM{err: boom}, testSpec, session.InMemoryService())
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), "user-1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewInvokers(t *testing.T) {
	specs, err := agents.Roster()
	require.NoError(t, err)

	invokers, err := NewInvokers(&fakeLLM{reply: "ok"}, specs)
	require.NoError(t, err)
	assert.Len(t, invokers, len(specs))
	assert.Contains(t, invokers, "career_orchestrator")
}
