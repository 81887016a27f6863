package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type DefectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDefectRepository(db *pgxpool.Pool, logger *zap.Logger) *DefectRepository {
	return &DefectRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DefectRepository) Insert(ctx context.Context, d *model.Defect) error {
	query := `
        INSERT INTO defects (project_id, title, severity, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		d.ProjectID,
		d.Title,
		d.Severity,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert defect", zap.Error(err))
		return apperr.Storage(err, "failed to insert defect")
	}
	return nil
}

func (r *DefectRepository) Resolve(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE defects SET status = $1, updated_at = NOW() WHERE id = $2
    `, model.DefectStatusResolved, id)
	if err != nil {
		return apperr.Storage(err, "failed to resolve defect %d", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("defect %d not found", id)
	}
	return nil
}

// CountOpenByProject feeds the advisory defect line of the closure report.
func (r *DefectRepository) CountOpenByProject(ctx context.Context, projectID int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*) FROM defects WHERE project_id = $1 AND status = $2
    `, projectID, model.DefectStatusOpen).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count defects", zap.Int("project_id", projectID), zap.Error(err))
		return 0, apperr.Storage(err, "failed to count open defects of project %d", projectID)
	}
	return count, nil
}
