package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type PhaseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPhaseRepository(db *pgxpool.Pool, logger *zap.Logger) *PhaseRepository {
	return &PhaseRepository{
		db:     db,
		logger: logger,
	}
}

const phaseColumns = `id, project_id, kind, status, ordering, created_at, updated_at`

func scanPhase(row pgx.Row) (*model.ProjectPhase, error) {
	var p model.ProjectPhase
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Kind,
		&p.Status,
		&p.Ordering,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PhaseRepository) FindByID(ctx context.Context, id int) (*model.ProjectPhase, error) {
	query := `SELECT ` + phaseColumns + ` FROM project_phases WHERE id = $1`

	p, err := scanPhase(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("phase %d not found", id)
		}
		r.logger.Error("Failed to find phase", zap.Int("id", id), zap.Error(err))
		return nil, apperr.Storage(err, "failed to find phase %d", id)
	}
	return p, nil
}

func (r *PhaseRepository) FindByProjectAndKind(ctx context.Context, projectID int, kind string) (*model.ProjectPhase, error) {
	query := `SELECT ` + phaseColumns + ` FROM project_phases WHERE project_id = $1 AND kind = $2`

	p, err := scanPhase(r.db.QueryRow(ctx, query, projectID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project %d has no %s phase", projectID, kind)
		}
		r.logger.Error("Failed to find phase",
			zap.Int("project_id", projectID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, apperr.Storage(err, "failed to find %s phase of project %d", kind, projectID)
	}
	return p, nil
}

func (r *PhaseRepository) ListByProject(ctx context.Context, projectID int) ([]model.ProjectPhase, error) {
	query := `SELECT ` + phaseColumns + ` FROM project_phases WHERE project_id = $1 ORDER BY ordering ASC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list phases", zap.Int("project_id", projectID), zap.Error(err))
		return nil, apperr.Storage(err, "failed to list phases of project %d", projectID)
	}
	defer rows.Close()

	var phases []model.ProjectPhase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, apperr.Storage(err, "failed to scan phase")
		}
		phases = append(phases, *p)
	}

	return phases, rows.Err()
}

// UpdateStatus moves a phase to a new status.
func (r *PhaseRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE project_phases SET status = $1, updated_at = NOW() WHERE id = $2
    `, status, id)
	if err != nil {
		return apperr.Storage(err, "failed to update phase %d", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("phase %d not found", id)
	}
	return nil
}
