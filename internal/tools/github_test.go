package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"octo","name":"Octo Cat","bio":"ML tinkerer","html_url":"https://github.com/octo","public_repos":3,"followers":12,"following":1}`)
	})
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `[
			{"name":"vision","language":"Python","stargazers_count":5,"forks_count":1,"description":"image models","topics":["ml","cv"],"pushed_at":"2024-05-01T10:00:00Z"},
			{"name":"forked","language":"Go","fork":true,"stargazers_count":100},
			{"name":"cli","language":"Go","stargazers_count":9,"pushed_at":"2024-04-01T10:00:00Z"},
			{"name":"notes","language":"Python","stargazers_count":0}
		]`)
	})
	mux.HandleFunc("/users/octo/events/public", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"type":"PushEvent","repo":{"name":"octo/vision"},"created_at":"2024-05-02T10:00:00Z"},
			{"type":"PushEvent","repo":{"name":"octo/cli"},"created_at":"2024-05-01T10:00:00Z"},
			{"type":"PullRequestEvent","repo":{"name":"other/lib"},"created_at":"2024-04-30T10:00:00Z"}
		]`)
	})
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	return httptest.NewServer(mux)
}

func TestGitHub_Call(t *testing.T) {
	server := newGitHubServer(t)
	defer server.Close()

	gh, err := NewGitHub("", server.URL, server.Client())
	require.NoError(t, err)

	call, err := gh.Call(context.Background(), Request{GitHubHandle: "@octo"})
	require.NoError(t, err)
	assert.Equal(t, GitHubToolName, call.Tool)
	assert.Equal(t, "octo", call.Params["username"])

	out := call.Output
	assert.Contains(t, out, "Profile: octo (https://github.com/octo)")
	assert.Contains(t, out, "Bio: ML tinkerer")
	assert.Contains(t, out, "Languages: Python=2, Go=1")
	assert.Contains(t, out, "1. cli [Go] stars=9")
	assert.Contains(t, out, "topics: ml, cv")
	assert.NotContains(t, out, "forked")
	assert.Contains(t, out, "Recent activity (3 events, latest 2024-05-02): PushEvent=2, PullRequestEvent=1")
}

func TestGitHub_ErrorPropagates(t *testing.T) {
	server := newGitHubServer(t)
	defer server.Close()

	gh, err := NewGitHub("token", server.URL, server.Client())
	require.NoError(t, err)

	_, err = gh.Call(context.Background(), Request{GitHubHandle: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get user ghost")
}

func TestGitHub_RequiresHandle(t *testing.T) {
	gh, err := NewGitHub("", "", nil)
	require.NoError(t, err)
	_, err = gh.Call(context.Background(), Request{GitHubHandle: "  "})
	assert.Error(t, err)
}
