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
	"phasetrack/internal/mq"
	"phasetrack/internal/outbox"
	"phasetrack/pkg/metrics"
)

// ClosureCommit is everything a successful close persists as one unit of
// work: the audit record, the project status flip, the synthesized closure
// document (when none existed) and the outbox event.
type ClosureCommit struct {
	Closure *model.ProjectClosure
	// Artifact and Version are the synthesized closure document; both nil when
	// a closure document already exists.
	Artifact *model.Artifact
	Version  *model.ArtifactVersion
	Event    mq.ProjectClosedPayload
}

type ClosureRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewClosureRepository(db *pgxpool.Pool, ob *outbox.Repository, logger *zap.Logger) *ClosureRepository {
	return &ClosureRepository{
		db:     db,
		outbox: ob,
		logger: logger,
	}
}

// CommitClosure lands all closure effects in one transaction. The status flip
// is guarded by the current status, so the loser of a concurrent close race
// observes a conflict instead of double-closing.
func (r *ClosureRepository) CommitClosure(ctx context.Context, commit ClosureCommit) error {
	c := commit.Closure

	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE projects
        SET status = $1, archived_at = NOW(), updated_at = NOW()
        WHERE id = $2 AND status = $3
    `, model.ProjectStatusClosed, c.ProjectID, model.ProjectStatusActive)
	if err != nil {
		return apperr.Storage(err, "failed to close project %d", c.ProjectID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("project %d is already closed", c.ProjectID)
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO project_closures
            (project_id, closed_by, forced, justification, validation_snapshot, artifact_snapshot, team_snapshot)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, closed_at
    `,
		c.ProjectID,
		c.ClosedBy,
		c.Forced,
		nullableString(c.Justification),
		c.ValidationSnapshot,
		c.ArtifactSnapshot,
		c.TeamSnapshot,
	).Scan(&c.ID, &c.ClosedAt)
	if err != nil {
		r.logger.Error("Failed to insert closure record", zap.Error(err))
		return apperr.Storage(err, "failed to insert closure record")
	}

	if commit.Artifact != nil {
		if err := insertArtifact(ctx, tx, commit.Artifact); err != nil {
			return err
		}
		commit.Version.ArtifactID = commit.Artifact.ID
		commit.Version.Number = 1
		if err := insertVersion(ctx, tx, commit.Version); err != nil {
			return err
		}
	}

	aggregateID := int64(c.ProjectID)
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "project", &aggregateID, mq.EventProjectClosed, commit.Event); err != nil {
		return apperr.Storage(err, "failed to enqueue project.closed event")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "failed to commit closure")
	}

	metrics.RecordDBQueryDuration("commit_closure", "project_closures", time.Since(start))
	r.logger.Info("Project closed",
		zap.Int("project_id", c.ProjectID),
		zap.String("closed_by", c.ClosedBy),
		zap.Bool("forced", c.Forced),
	)
	return nil
}

// Reopen flips the project back to active, records the audit-trail entry and
// enqueues the project.reopened event, all in one transaction. The prior
// closure record is left untouched.
func (r *ClosureRepository) Reopen(ctx context.Context, projectID int, actor, reason string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE projects
        SET status = $1, archived_at = NULL, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `, model.ProjectStatusActive, projectID, model.ProjectStatusClosed)
	if err != nil {
		return apperr.Storage(err, "failed to reopen project %d", projectID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Validation("project %d is not closed", projectID)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO project_audit_log (project_id, action, actor, reason)
        VALUES ($1, 'reopen', $2, $3)
    `, projectID, actor, nullableString(reason))
	if err != nil {
		return apperr.Storage(err, "failed to insert audit entry")
	}

	aggregateID := int64(projectID)
	payload := mq.ProjectReopenedPayload{
		ProjectID:  projectID,
		ReopenedBy: actor,
		Reason:     reason,
		ReopenedAt: time.Now(),
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "project", &aggregateID, mq.EventProjectReopened, payload); err != nil {
		return apperr.Storage(err, "failed to enqueue project.reopened event")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "failed to commit reopen")
	}

	r.logger.Info("Project reopened",
		zap.Int("project_id", projectID),
		zap.String("actor", actor),
	)
	return nil
}

// FindByProject returns the most recent closure record of the project.
func (r *ClosureRepository) FindByProject(ctx context.Context, projectID int) (*model.ProjectClosure, error) {
	query := `
        SELECT id, project_id, closed_by, closed_at, forced, justification,
               validation_snapshot, artifact_snapshot, team_snapshot
        FROM project_closures
        WHERE project_id = $1
        ORDER BY closed_at DESC
        LIMIT 1
    `

	var (
		c             model.ProjectClosure
		justification *string
	)
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&c.ID,
		&c.ProjectID,
		&c.ClosedBy,
		&c.ClosedAt,
		&c.Forced,
		&justification,
		&c.ValidationSnapshot,
		&c.ArtifactSnapshot,
		&c.TeamSnapshot,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project %d has no closure record", projectID)
		}
		return nil, apperr.Storage(err, "failed to find closure record of project %d", projectID)
	}
	if justification != nil {
		c.Justification = *justification
	}

	return &c, nil
}
