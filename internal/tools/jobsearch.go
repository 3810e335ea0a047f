package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	JobSearchToolName = "job_search"
	jobSearchTimeout  = 60 * time.Second
	maxPostingChars   = 600
)

// JobSearch triggers a job postings search and returns the postings it finds.
type JobSearch struct {
	URL    string
	APIKey string
	Client *http.Client
}

type jobSearchRequest struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Location string `json:"location,omitempty"`
}

type jobPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	PostedAt    string `json:"posted_at"`
	Description string `json:"description"`
}

type jobSearchResponse struct {
	Jobs []jobPosting `json:"jobs"`
}

func (j *JobSearch) Name() string { return JobSearchToolName }

func (j *JobSearch) Call(ctx context.Context, req Request) (*ToolCall, error) {
	if j.URL == "" {
		return nil, fmt.Errorf("%s: search url is not configured", JobSearchToolName)
	}
	if strings.TrimSpace(req.Role) == "" {
		return nil, fmt.Errorf("%s: role is required", JobSearchToolName)
	}

	body, err := json.Marshal(jobSearchRequest{Role: req.Role, Company: req.Company, Location: req.Location})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", JobSearchToolName, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", JobSearchToolName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if j.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+j.APIKey)
	}

	client := j.Client
	if client == nil {
		client = &http.Client{Timeout: jobSearchTimeout}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", JobSearchToolName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s: API returned %d: %s", JobSearchToolName, resp.StatusCode, string(msg))
	}

	var result jobSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: parse response: %w", JobSearchToolName, err)
	}

	params := map[string]string{"role": req.Role, "company": req.Company}
	if req.Location != "" {
		params["location"] = req.Location
	}
	return &ToolCall{Tool: JobSearchToolName, Params: params, Output: renderPostings(result.Jobs)}, nil
}

func renderPostings(jobs []jobPosting) string {
	if len(jobs) == 0 {
		return "No postings found."
	}
	var b strings.Builder
	for i, p := range jobs {
		fmt.Fprintf(&b, "%d. %s at %s", i+1, p.Title, p.Company)
		if p.Location != "" {
			fmt.Fprintf(&b, " (%s)", p.Location)
		}
		b.WriteString("\n")
		if p.URL != "" {
			fmt.Fprintf(&b, "   %s\n", p.URL)
		}
		if p.PostedAt != "" {
			fmt.Fprintf(&b, "   posted: %s\n", p.PostedAt)
		}
		if desc := strings.TrimSpace(p.Description); desc != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(desc, maxPostingChars))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
