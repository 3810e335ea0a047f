package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultLocation    = "us-central1"
	DefaultModel       = "gemini-2.0-flash-exp"
	DefaultDisplayName = "Career Preparation Assistant"
	DefaultDescription = "Multi-agent system with parallel GitHub/job analysis " +
		"and sequential resume processing"
)

// Config holds everything the pipeline and the deployment commands read from the
// environment.
type Config struct {
	ProjectID       string
	Location        string
	StagingBucket   string
	CredentialsPath string

	ModelName    string
	GoogleAPIKey string

	GitHubToken  string
	GitHubAPIURL string

	JobSearchURL    string
	JobSearchAPIKey string

	DisplayName  string
	Description  string
	Labels       map[string]string
	Requirements []string
}

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// WorkerConfig extends Config with the queue, database and object storage settings
// the worker needs.
type WorkerConfig struct {
	*Config
	DBURL       string
	RabbitMQURL string
	R2          R2Config
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		ProjectID:       os.Getenv("GCP_PROJECT_ID"),
		Location:        getenv("GCP_LOCATION", DefaultLocation),
		StagingBucket:   os.Getenv("GCP_STAGING_BUCKET"),
		CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ModelName:       getenv("MODEL_NAME", DefaultModel),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:    os.Getenv("GITHUB_API_URL"),
		JobSearchURL:    os.Getenv("JOB_SEARCH_URL"),
		JobSearchAPIKey: os.Getenv("JOB_SEARCH_API_KEY"),
		DisplayName:     getenv("AGENT_DISPLAY_NAME", DefaultDisplayName),
		Description:     getenv("AGENT_DESCRIPTION", DefaultDescription),
		Labels: map[string]string{
			"environment": "production",
			"team":        "career-services",
			"version":     "v2-parallel",
		},
		Requirements: []string{
			"google-cloud-aiplatform[agent_engines,adk]>=1.112",
			"requests>=2.31.0",
			"PyPDF2>=3.0.0",
		},
	}
	return cfg, nil
}

// LoadWorker loads Config plus the worker settings. Every worker setting is
// required.
func LoadWorker() (*WorkerConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	wc := &WorkerConfig{Config: cfg}
	required := []struct {
		key string
		dst *string
	}{
		{"DB_URL", &wc.DBURL},
		{"RABBITMQ_URL", &wc.RabbitMQURL},
		{"R2_ACCCOUNT_ID", &wc.R2.AccountID},
		{"R2_BUCKET", &wc.R2.Bucket},
		{"R2_ACCESS_KEY", &wc.R2.AccessKey},
		{"R2_SECRET_KEY", &wc.R2.SecretKey},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.key)
		if *r.dst == "" {
			return nil, fmt.Errorf("empty %s in environment", r.key)
		}
	}
	return wc, nil
}

// Validate checks the settings the deployment commands depend on.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("GCP_PROJECT_ID is not set")
	}
	if c.StagingBucket == "" {
		return errors.New("GCP_STAGING_BUCKET is not set")
	}
	if !strings.HasPrefix(c.StagingBucket, "gs://") {
		return errors.New("GCP_STAGING_BUCKET must start with gs://")
	}
	return nil
}

// ValidateModel checks that either the Gemini API or Vertex AI can be reached.
func (c *Config) ValidateModel() error {
	if c.GoogleAPIKey == "" && c.ProjectID == "" {
		return errors.New("either GOOGLE_API_KEY or GCP_PROJECT_ID must be set")
	}
	if c.ModelName == "" {
		return errors.New("MODEL_NAME is empty")
	}
	return nil
}

// UseVertex reports whether model calls go through Vertex AI rather than the
// Gemini API.
func (c *Config) UseVertex() bool {
	return c.GoogleAPIKey == ""
}

// SetCredentials points Google client libraries at a service account file.
func (c *Config) SetCredentials(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("credentials file not found: %s: %w", path, err)
	}
	if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path); err != nil {
		return err
	}
	c.CredentialsPath = path
	return nil
}

// Display writes the non-secret part of the configuration.
func (c *Config) Display(w io.Writer) {
	line := strings.Repeat("=", 70)
	creds := "not set"
	if c.CredentialsPath != "" {
		creds = "set"
	}
	backend := "vertex ai"
	if !c.UseVertex() {
		backend = "gemini api"
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Project ID:      %s\n", c.ProjectID)
	fmt.Fprintf(w, "Location:        %s\n", c.Location)
	fmt.Fprintf(w, "Staging Bucket:  %s\n", c.StagingBucket)
	fmt.Fprintf(w, "Model:           %s (%s)\n", c.ModelName, backend)
	fmt.Fprintf(w, "Credentials:     %s\n", creds)
	fmt.Fprintln(w, line)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
