package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type MemberRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMemberRepository(db *pgxpool.Pool, logger *zap.Logger) *MemberRepository {
	return &MemberRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MemberRepository) Insert(ctx context.Context, m *model.ProjectMember) error {
	query := `
        INSERT INTO project_members (project_id, name, role, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		m.ProjectID,
		m.Name,
		m.Role,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert member", zap.Error(err))
		return apperr.Storage(err, "failed to insert member")
	}
	return nil
}

// ListAccepted returns the accepted roster, the set frozen into closure
// snapshots.
func (r *MemberRepository) ListAccepted(ctx context.Context, projectID int) ([]model.ProjectMember, error) {
	query := `
        SELECT id, project_id, name, role, status, created_at
        FROM project_members
        WHERE project_id = $1 AND status = $2
        ORDER BY created_at ASC
    `

	rows, err := r.db.Query(ctx, query, projectID, model.MemberStatusAccepted)
	if err != nil {
		r.logger.Error("Failed to list members", zap.Int("project_id", projectID), zap.Error(err))
		return nil, apperr.Storage(err, "failed to list members of project %d", projectID)
	}
	defer rows.Close()

	var members []model.ProjectMember
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(
			&m.ID,
			&m.ProjectID,
			&m.Name,
			&m.Role,
			&m.Status,
			&m.CreatedAt,
		); err != nil {
			return nil, apperr.Storage(err, "failed to scan member")
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
