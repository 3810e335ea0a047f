package deploy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/viant/afs"
	"golang.org/x/oauth2/google"
)

const (
	cloudPlatformScope  = "https://www.googleapis.com/auth/cloud-platform"
	defaultPollInterval = 10 * time.Second
	agentFramework      = "google-adk"
)

var ErrNotFound = errors.New("deployment not found")

// APIError is the error body returned by the platform.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent engine API returned %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type PackageSpec struct {
	DependencyFilesGcsURI string `json:"dependencyFilesGcsUri,omitempty"`
	RequirementsGcsURI    string `json:"requirementsGcsUri,omitempty"`
}

type EngineSpec struct {
	AgentFramework string           `json:"agentFramework,omitempty"`
	PackageSpec    *PackageSpec     `json:"packageSpec,omitempty"`
	ClassMethods   []map[string]any `json:"classMethods,omitempty"`
}

// MethodSchema is one operation a deployed agent exposes.
type MethodSchema struct {
	Name        string
	Description string
}

// ReasoningEngine is a deployed agent as the platform describes it.
type ReasoningEngine struct {
	Name        string            `json:"name,omitempty"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Spec        *EngineSpec       `json:"spec,omitempty"`
	CreateTime  string            `json:"createTime,omitempty"`
	UpdateTime  string            `json:"updateTime,omitempty"`
}

// Methods lists the exposed operations with the first line of each description.
func (e *ReasoningEngine) Methods() []MethodSchema {
	if e.Spec == nil {
		return nil
	}
	var out []MethodSchema
	for _, m := range e.Spec.ClassMethods {
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		desc, _ := m["description"].(string)
		desc, _, _ = strings.Cut(strings.TrimSpace(desc), "\n")
		out = append(out, MethodSchema{Name: name, Description: strings.TrimSpace(desc)})
	}
	return out
}

// Operation is a long-running platform operation.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *APIError       `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Deployment is the handle returned by Deploy.
type Deployment struct {
	Name      string
	Operation string
	Existing  bool
	Engine    *ReasoningEngine
}

// Client talks to the Agent Engine REST API.
type Client struct {
	HTTP          *http.Client
	BaseURL       string
	Project       string
	Location      string
	StagingBucket string
	FS            afs.Service
	PollInterval  time.Duration
}

// NewClient authenticates with application default credentials.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hc, err := google.DefaultClient(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %w", err)
	}
	return &Client{
		HTTP:          hc,
		BaseURL:       fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", cfg.Location),
		Project:       cfg.ProjectID,
		Location:      cfg.Location,
		StagingBucket: cfg.StagingBucket,
		FS:            afs.New(),
		PollInterval:  defaultPollInterval,
	}, nil
}

func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.Project, c.Location)
}

// Deploy creates the deployment unless one with the same display name already
// exists, in which case that one is returned with Existing set. When wait is true
// Deploy blocks until the create operation finishes.
func (c *Client) Deploy(ctx context.Context, m *Manifest, wait bool) (*Deployment, error) {
	existing, err := c.FindByDisplayName(ctx, m.DisplayName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Info("deployment already exists", "name", existing.Name, "display_name", m.DisplayName)
		return &Deployment{Name: existing.Name, Existing: true, Engine: existing}, nil
	}

	staged, err := m.Stage(ctx, c.FS, c.StagingBucket)
	if err != nil {
		return nil, err
	}
	engine := &ReasoningEngine{
		DisplayName: m.DisplayName,
		Description: m.Description,
		Labels:      m.Labels,
		Spec: &EngineSpec{
			AgentFramework: agentFramework,
			PackageSpec: &PackageSpec{
				DependencyFilesGcsURI: staged.Dependencies,
				RequirementsGcsURI:    staged.Requirements,
			},
		},
	}
	var op Operation
	if err := c.do(ctx, http.MethodPost, c.parent()+"/reasoningEngines", nil, engine, &op); err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}
	slog.Info("deployment initiated", "operation", op.Name, "display_name", m.DisplayName)

	d := &Deployment{Name: resourceFromOperation(op.Name), Operation: op.Name}
	if !wait {
		return d, nil
	}
	done, err := c.Wait(ctx, &op)
	if err != nil {
		return nil, err
	}
	created := &ReasoningEngine{}
	if len(done.Response) > 0 {
		if err := json.Unmarshal(done.Response, created); err != nil {
			return nil, fmt.Errorf("failed to decode created deployment: %w", err)
		}
	}
	if created.Name != "" {
		d.Name = created.Name
	}
	d.Engine = created
	return d, nil
}

// Wait polls op until it is done or ctx ends.
func (c *Client) Wait(ctx context.Context, op *Operation) (*Operation, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	current := op
	for !current.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		next := &Operation{}
		if err := c.do(ctx, http.MethodGet, current.Name, nil, nil, next); err != nil {
			return nil, fmt.Errorf("failed to poll operation %s: %w", op.Name, err)
		}
		current = next
	}
	if current.Error != nil {
		return nil, fmt.Errorf("operation %s failed: %s", current.Name, current.Error.Message)
	}
	return current, nil
}

func (c *Client) Get(ctx context.Context, name string) (*ReasoningEngine, error) {
	if name == "" {
		return nil, errors.New("deployment name is required")
	}
	engine := &ReasoningEngine{}
	if err := c.do(ctx, http.MethodGet, name, nil, nil, engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// List returns every deployment in the project and location matching filter.
func (c *Client) List(ctx context.Context, filter string) ([]*ReasoningEngine, error) {
	var all []*ReasoningEngine
	pageToken := ""
	for {
		query := url.Values{}
		if filter != "" {
			query.Set("filter", filter)
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		var page struct {
			ReasoningEngines []*ReasoningEngine `json:"reasoningEngines"`
			NextPageToken    string             `json:"nextPageToken"`
		}
		if err := c.do(ctx, http.MethodGet, c.parent()+"/reasoningEngines", query, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}
		all = append(all, page.ReasoningEngines...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// FindByDisplayName returns nil when no deployment carries displayName.
func (c *Client) FindByDisplayName(ctx context.Context, displayName string) (*ReasoningEngine, error) {
	engines, err := c.List(ctx, fmt.Sprintf("display_name=%q", displayName))
	if err != nil {
		return nil, err
	}
	for _, e := range engines {
		if e.DisplayName == displayName {
			return e, nil
		}
	}
	return nil, nil
}

// Delete removes the deployment together with its managed sessions.
func (c *Client) Delete(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("deployment name is required")
	}
	query := url.Values{"force": []string{"true"}}
	var op Operation
	if err := c.do(ctx, http.MethodDelete, name, query, nil, &op); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

type queryRequest struct {
	ClassMethod string     `json:"class_method"`
	Input       queryInput `json:"input"`
}

type queryInput struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type queryEvent struct {
	Author  string `json:"author"`
	Content *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// Query streams a message to a deployment and calls onText for every text part
// of every event, in order.
func (c *Client) Query(ctx context.Context, name, userID, message, sessionID string, onText func(author, text string)) error {
	body, err := json.Marshal(queryRequest{
		ClassMethod: "async_stream_query",
		Input:       queryInput{UserID: userID, Message: message, SessionID: sessionID},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(name+":streamQuery", url.Values{"alt": []string{"sse"}}), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "data:"))
		if line == "" {
			continue
		}
		var event queryEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return fmt.Errorf("failed to decode query event: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, p := range event.Content.Parts {
			if p.Text != "" {
				onText(event.Author, p.Text)
			}
		}
	}
	return scanner.Err()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var wrapped struct {
		Error *APIError `json:"error"`
	}
	apiErr := &APIError{Message: strings.TrimSpace(string(data))}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != nil {
		apiErr = wrapped.Error
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// resourceFromOperation strips the operation suffix:
// projects/p/locations/l/reasoningEngines/1/operations/2 -> .../reasoningEngines/1
// Names without the suffix are returned as is.
func resourceFromOperation(op string) string {
	if i := strings.Index(op, "/operations/"); i >= 0 {
		return op[:i]
	}
	return op
}
