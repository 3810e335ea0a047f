package deploy

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/muhammadolammi/careerprep/internal/agents"
	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"
)

const (
	manifestFile     = "manifest.yaml"
	requirementsFile = "requirements.txt"
	dependenciesFile = "dependencies.tar.gz"
)

// Manifest is the packaged agent graph handed to the hosting platform.
type Manifest struct {
	DisplayName  string            `yaml:"display_name"`
	Description  string            `yaml:"description"`
	Labels       map[string]string `yaml:"labels"`
	Model        string            `yaml:"model"`
	Requirements []string          `yaml:"requirements"`
	Root         string            `yaml:"root"`
	Agents       []agents.Spec     `yaml:"agents"`
}

func NewManifest(cfg *config.Config, graph *agents.Graph) *Manifest {
	return &Manifest{
		DisplayName:  cfg.DisplayName,
		Description:  cfg.Description,
		Labels:       cfg.Labels,
		Model:        cfg.ModelName,
		Requirements: cfg.Requirements,
		Root:         graph.Root.Name,
		Agents:       graph.Specs(),
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug is the staging directory name derived from the display name.
func (m *Manifest) Slug() string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(m.DisplayName), "-"), "-")
}

// Staged lists the URLs of the uploaded package files.
type Staged struct {
	Manifest     string
	Requirements string
	Dependencies string
}

// Stage uploads the manifest, the requirements and a dependency archive under
// bucket/slug.
func (m *Manifest) Stage(ctx context.Context, fs afs.Service, bucket string) (*Staged, error) {
	manifest, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	requirements := []byte(strings.Join(m.Requirements, "\n") + "\n")
	archive, err := tarball(map[string][]byte{manifestFile: manifest})
	if err != nil {
		return nil, fmt.Errorf("failed to archive manifest: %w", err)
	}

	base := strings.TrimSuffix(bucket, "/") + "/" + m.Slug()
	staged := &Staged{
		Manifest:     base + "/" + manifestFile,
		Requirements: base + "/" + requirementsFile,
		Dependencies: base + "/" + dependenciesFile,
	}
	uploads := []struct {
		url  string
		data []byte
	}{
		{staged.Manifest, manifest},
		{staged.Requirements, requirements},
		{staged.Dependencies, archive},
	}
	if err := ensureFolder(ctx, fs, base); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := fs.Upload(ctx, u.url, 0o644, bytes.NewReader(u.data)); err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", u.url, err)
		}
	}
	return staged, nil
}

func ensureFolder(ctx context.Context, fs afs.Service, url string) error {
	exists, err := fs.Exists(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", url, err)
	}
	if exists {
		return nil
	}
	if err := fs.Create(ctx, url, file.DefaultDirOsMode, true); err != nil {
		return fmt.Errorf("failed to create %s: %w", url, err)
	}
	return nil
}

func tarball(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(data)), ModTime: time.Now()}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
