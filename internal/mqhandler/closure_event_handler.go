package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"phasetrack/internal/model"
	"phasetrack/internal/mq"
	"phasetrack/internal/repository"
)

// ClosureEventHandler turns project lifecycle events into notification log
// entries.
type ClosureEventHandler struct {
	repo   *repository.NotificationLogRepository
	logger *zap.Logger
}

func NewClosureEventHandler(repo *repository.NotificationLogRepository, logger *zap.Logger) *ClosureEventHandler {
	return &ClosureEventHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *ClosureEventHandler) HandleProjectClosed(ctx context.Context, raw json.RawMessage) error {
	var p mq.ProjectClosedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal project closed payload", zap.Error(err))
		return err
	}

	message := fmt.Sprintf("Project %d was closed by %s", p.ProjectID, p.ClosedBy)
	if p.Forced {
		message = fmt.Sprintf("Project %d was force-closed by %s", p.ProjectID, p.ClosedBy)
	}

	log := &model.NotificationLog{
		ProjectID: p.ProjectID,
		Event:     mq.EventProjectClosed,
		Message:   message,
	}

	if err := h.repo.Insert(ctx, log); err != nil {
		h.logger.Error("Failed to insert notification log",
			zap.Int("project_id", p.ProjectID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Closure notification recorded",
		zap.Int("project_id", p.ProjectID),
		zap.Bool("forced", p.Forced),
	)
	return nil
}

func (h *ClosureEventHandler) HandleProjectReopened(ctx context.Context, raw json.RawMessage) error {
	var p mq.ProjectReopenedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal project reopened payload", zap.Error(err))
		return err
	}

	message := fmt.Sprintf("Project %d was reopened by %s", p.ProjectID, p.ReopenedBy)
	if p.Reason != "" {
		message += ": " + p.Reason
	}

	log := &model.NotificationLog{
		ProjectID: p.ProjectID,
		Event:     mq.EventProjectReopened,
		Message:   message,
	}

	if err := h.repo.Insert(ctx, log); err != nil {
		h.logger.Error("Failed to insert notification log",
			zap.Int("project_id", p.ProjectID),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("Reopen notification recorded", zap.Int("project_id", p.ProjectID))
	return nil
}
