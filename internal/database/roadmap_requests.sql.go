package database

import (
	"context"

	"github.com/google/uuid"
)

const getRoadmapRequest = `-- name: GetRoadmapRequest :one
SELECT id, user_id, role, company, application_status, github_handle, resume_object_key, resume_mime, status, created_at FROM roadmap_requests WHERE id=$1
`

func (q *Queries) GetRoadmapRequest(ctx context.Context, id uuid.UUID) (RoadmapRequest, error) {
	row := q.db.QueryRowContext(ctx, getRoadmapRequest, id)
	var i RoadmapRequest
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Role,
		&i.Company,
		&i.ApplicationStatus,
		&i.GithubHandle,
		&i.ResumeObjectKey,
		&i.ResumeMime,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const updateRequestStatus = `-- name: UpdateRequestStatus :exec
UPDATE roadmap_requests
SET status=$1
WHERE id=$2
`

type UpdateRequestStatusParams struct {
	Status string
	ID     uuid.UUID
}

func (q *Queries) UpdateRequestStatus(ctx context.Context, arg UpdateRequestStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateRequestStatus, arg.Status, arg.ID)
	return err
}
