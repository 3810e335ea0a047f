package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Roadmap struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	AgentOutputs json.RawMessage
	Roadmap      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RoadmapRequest struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Role              string
	Company           string
	ApplicationStatus string
	GithubHandle      string
	ResumeObjectKey   sql.NullString
	ResumeMime        sql.NullString
	Status            string
	CreatedAt         time.Time
}
