package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
	"phasetrack/pkg/metrics"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the project, seeds its four methodology phases and records
// the owner as an accepted member, all in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project, owner string) error {
	r.logger.Debug("Creating project",
		zap.String("name", p.Name),
		zap.String("code", p.Code),
	)

	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO projects (name, code, description, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		p.Name,
		p.Code,
		p.Description,
		model.ProjectStatusActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return apperr.Storage(err, "failed to insert project")
	}
	p.Status = model.ProjectStatusActive

	for i, kind := range model.PhaseKinds {
		_, err = tx.Exec(ctx, `
            INSERT INTO project_phases (project_id, kind, status, ordering)
            VALUES ($1, $2, $3, $4)
        `, p.ID, kind, model.PhaseStatusPending, i+1)
		if err != nil {
			r.logger.Error("Failed to seed phase", zap.String("kind", kind), zap.Error(err))
			return apperr.Storage(err, "failed to seed phase %s", kind)
		}
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO project_members (project_id, name, role, status)
        VALUES ($1, $2, 'owner', $3)
    `, p.ID, owner, model.MemberStatusAccepted)
	if err != nil {
		return apperr.Storage(err, "failed to insert owner member")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "failed to commit project creation")
	}

	metrics.RecordDBQueryDuration("create", "projects", time.Since(start))
	r.logger.Info("Project created",
		zap.Int("id", p.ID),
		zap.String("code", p.Code),
	)
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int) (*model.Project, error) {
	query := `
        SELECT id, name, code, description, status, archived_at, created_at, updated_at
        FROM projects
        WHERE id = $1
    `

	var p model.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Code,
		&p.Description,
		&p.Status,
		&p.ArchivedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project %d not found", id)
		}
		r.logger.Error("Failed to find project", zap.Int("id", id), zap.Error(err))
		return nil, apperr.Storage(err, "failed to find project %d", id)
	}

	return &p, nil
}
