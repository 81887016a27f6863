package main

import (
	"context"

	"go.uber.org/zap"

	"phasetrack/internal/config"
	"phasetrack/internal/db"
	"phasetrack/internal/mq"
	"phasetrack/internal/mqhandler"
	"phasetrack/internal/repository"
	"phasetrack/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.InitSchema(context.Background(), dbConn); err != nil {
		logger.Fatal("Schema initialization failed", zap.Error(err))
	}

	notificationRepo := repository.NewNotificationLogRepository(dbConn, logger)
	closureHandler := mqhandler.NewClosureEventHandler(notificationRepo, logger)

	ctx := context.Background()

	closedConsumer, err := mq.NewConsumer(cfg.MQ.URL, mq.EventProjectClosed, logger)
	if err != nil {
		logger.Fatal("Failed to create project.closed consumer", zap.Error(err))
	}
	defer closedConsumer.Close()
	closedConsumer.SetHandler(closureHandler.HandleProjectClosed)

	reopenedConsumer, err := mq.NewConsumer(cfg.MQ.URL, mq.EventProjectReopened, logger)
	if err != nil {
		logger.Fatal("Failed to create project.reopened consumer", zap.Error(err))
	}
	defer reopenedConsumer.Close()
	reopenedConsumer.SetHandler(closureHandler.HandleProjectReopened)

	go func() {
		if err := closedConsumer.StartConsuming(ctx); err != nil {
			logger.Fatal("project.closed consumer stopped", zap.Error(err))
		}
	}()

	logger.Info("Worker started")
	if err := reopenedConsumer.StartConsuming(ctx); err != nil {
		logger.Fatal("project.reopened consumer stopped", zap.Error(err))
	}
}
