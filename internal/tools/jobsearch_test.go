package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req jobSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ML Engineer", req.Role)
		assert.Equal(t, "Google", req.Company)

		json.NewEncoder(w).Encode(jobSearchResponse{Jobs: []jobPosting{
			{Title: "ML Engineer", Company: "Google", Location: "Zurich", URL: "https://jobs.example/1", Description: strings.Repeat("x", 700)},
			{Title: "Senior ML Engineer", Company: "Google"},
		}})
	}))
	defer server.Close()

	js := &JobSearch{URL: server.URL, APIKey: "key", Client: server.Client()}
	call, err := js.Call(context.Background(), Request{Role: "ML Engineer", Company: "Google"})
	require.NoError(t, err)
	assert.Equal(t, JobSearchToolName, call.Tool)
	assert.Equal(t, map[string]string{"role": "ML Engineer", "company": "Google"}, call.Params)
	assert.Contains(t, call.Output, "1. ML Engineer at Google (Zurich)")
	assert.Contains(t, call.Output, "2. Senior ML Engineer at Google")
	assert.Contains(t, call.Output, strings.Repeat("x", maxPostingChars)+"...")
}

func TestJobSearch_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs":[]}`))
	}))
	defer server.Close()

	js := &JobSearch{URL: server.URL}
	call, err := js.Call(context.Background(), Request{Role: "SRE"})
	require.NoError(t, err)
	assert.Equal(t, "No postings found.", call.Output)
}

func TestJobSearch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad-json":
			w.Write([]byte(`{"jobs":`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		}
	}))
	defer server.Close()

	_, err := (&JobSearch{URL: server.URL + "/limited"}).Call(context.Background(), Request{Role: "SRE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")

	_, err = (&JobSearch{URL: server.URL + "/bad-json"}).Call(context.Background(), Request{Role: "SRE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")

	_, err = (&JobSearch{}).Call(context.Background(), Request{Role: "SRE"})
	assert.Error(t, err)

	_, err = (&JobSearch{URL: server.URL}).Call(context.Background(), Request{})
	assert.Error(t, err)
}

func TestJobSearch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := (&JobSearch{URL: url}).Call(context.Background(), Request{Role: "SRE"})
	assert.Error(t, err)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	desc := "a" + strings.Repeat("é", 400)
	out := truncate(desc, maxPostingChars)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.LessOrEqual(t, len(out), maxPostingChars+3)

	assert.Equal(t, "short", truncate("short", maxPostingChars))

	rendered := renderPostings([]jobPosting{{Title: "SRE", Company: "Acme", Description: "x" + strings.Repeat("日本", 200)}})
	assert.True(t, utf8.ValidString(rendered))
}
