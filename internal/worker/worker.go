package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerprep/internal/database"
	"github.com/muhammadolammi/careerprep/internal/pipeline"
	"github.com/muhammadolammi/careerprep/internal/tools"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Request is the queued message describing one roadmap request.
type Request struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Role              string    `json:"role"`
	Company           string    `json:"company"`
	ApplicationStatus string    `json:"application_status"`
	GitHubHandle      string    `json:"github_handle"`
	Location          string    `json:"location,omitempty"`
	ResumeObjectKey   string    `json:"resume_object_key,omitempty"`
	ResumeMime        string    `json:"resume_mime,omitempty"`
}

// StatusUpdate is published on every status transition of a request.
type StatusUpdate struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Store interface {
	UpdateRequestStatus(ctx context.Context, arg database.UpdateRequestStatusParams) error
	CreateOrUpdateRoadmap(ctx context.Context, arg database.CreateOrUpdateRoadmapParams) error
}

type Publisher interface {
	Publish(ctx context.Context, update StatusUpdate) error
}

type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// Worker turns queued requests into persisted roadmaps.
type Worker struct {
	Store     Store
	Publisher Publisher
	Runner    Runner
	Objects   tools.ObjectGetter
	Bucket    string

	DownloadAttempts int
	SaveAttempts     int
	RetryDelay       time.Duration
}

// Process handles one message body. The returned error has already been
// reported through the request status.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("error unmarshalling message body: %w", err)
	}
	if req.ID == uuid.Nil {
		return errors.New("message has no request id")
	}
	logger := slog.With("request_id", req.ID)
	logger.Info("processing roadmap request")

	w.setStatus(ctx, req.ID, StatusProcessing, "roadmap generation started")
	// terminal statuses are written even when ctx was cancelled mid-run
	final := context.WithoutCancel(ctx)
	if err := w.handle(ctx, req); err != nil {
		logger.Error("roadmap generation failed", "error", err)
		w.setStatus(final, req.ID, StatusFailed, "roadmap generation failed")
		return err
	}
	w.setStatus(final, req.ID, StatusCompleted, "roadmap generation completed")
	logger.Info("roadmap request completed")
	return nil
}

func (w *Worker) handle(ctx context.Context, req Request) error {
	in := pipeline.Input{
		RequestID:    req.ID.String(),
		UserID:       req.UserID.String(),
		Role:         req.Role,
		Company:      req.Company,
		Status:       req.ApplicationStatus,
		GitHubHandle: req.GitHubHandle,
		Location:     req.Location,
	}

	if req.ResumeObjectKey != "" {
		data, err := retry(ctx, w.DownloadAttempts, w.RetryDelay, func() ([]byte, error) {
			return tools.DownloadObject(ctx, w.Objects, w.Bucket, req.ResumeObjectKey)
		})
		if err != nil {
			return fmt.Errorf("resume download error: %w", err)
		}
		mime := req.ResumeMime
		if mime == "" {
			if mime, err = tools.MimeFromName(req.ResumeObjectKey); err != nil {
				return err
			}
		}
		if in.Resume, err = tools.ExtractResumeText(mime, data); err != nil {
			return fmt.Errorf("resume extraction error: %w", err)
		}
	}

	result, err := w.Runner.Run(ctx, in)
	if err != nil {
		return err
	}

	outputs, err := json.Marshal(result.Outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal agent outputs: %w", err)
	}
	_, err = retry(ctx, w.SaveAttempts, w.RetryDelay, func() (any, error) {
		return nil, w.Store.CreateOrUpdateRoadmap(ctx, database.CreateOrUpdateRoadmapParams{
			AgentOutputs: outputs,
			Roadmap:      result.Final,
			RequestID:    req.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save roadmap after retries: %w", err)
	}
	return nil
}

func (w *Worker) setStatus(ctx context.Context, id uuid.UUID, status, message string) {
	err := w.Store.UpdateRequestStatus(ctx, database.UpdateRequestStatusParams{Status: status, ID: id})
	if err != nil {
		slog.Error("failed to update request status", "request_id", id, "status", status, "error", err)
	}
	update := StatusUpdate{RequestID: id, Status: status, Message: message, Timestamp: time.Now()}
	if err := w.Publisher.Publish(ctx, update); err != nil {
		slog.Error("failed to publish update", "request_id", id, "status", status, "error", err)
	}
}

// retry calls fn up to attempts times, waiting delay*(i+1) between tries.
func retry[T any](ctx context.Context, attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay * time.Duration(i+1)):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
