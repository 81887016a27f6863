package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
	"phasetrack/internal/model"
)

type NotificationLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationLogRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationLogRepository {
	return &NotificationLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationLogRepository) Insert(ctx context.Context, n *model.NotificationLog) error {
	query := `
        INSERT INTO notification_log (project_id, event, message)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		n.ProjectID,
		n.Event,
		n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert notification log", zap.Error(err))
		return apperr.Storage(err, "failed to insert notification log")
	}
	return nil
}
