package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createOrUpdateRoadmap = `-- name: CreateOrUpdateRoadmap :exec
INSERT INTO roadmaps (
agent_outputs, roadmap, request_id)
VALUES ( $1, $2, $3)
ON CONFLICT (request_id)
DO UPDATE SET
    agent_outputs = EXCLUDED.agent_outputs,
    roadmap = EXCLUDED.roadmap,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateRoadmapParams struct {
	AgentOutputs json.RawMessage
	Roadmap      string
	RequestID    uuid.UUID
}

func (q *Queries) CreateOrUpdateRoadmap(ctx context.Context, arg CreateOrUpdateRoadmapParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateRoadmap, arg.AgentOutputs, arg.Roadmap, arg.RequestID)
	return err
}

const getRoadmapByRequest = `-- name: GetRoadmapByRequest :one
SELECT id, request_id, agent_outputs, roadmap, created_at, updated_at FROM roadmaps WHERE request_id=$1
`

func (q *Queries) GetRoadmapByRequest(ctx context.Context, requestID uuid.UUID) (Roadmap, error) {
	row := q.db.QueryRowContext(ctx, getRoadmapByRequest, requestID)
	var i Roadmap
	err := row.Scan(
		&i.ID,
		&i.RequestID,
		&i.AgentOutputs,
		&i.Roadmap,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
