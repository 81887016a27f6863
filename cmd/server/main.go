package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"phasetrack/internal/config"
	"phasetrack/internal/db"
	"phasetrack/internal/handler"
	"phasetrack/internal/httpserver"
	"phasetrack/internal/mq"
	"phasetrack/internal/outbox"
	redisclient "phasetrack/internal/redis"
	"phasetrack/internal/repository"
	"phasetrack/internal/service/closure"
	"phasetrack/internal/service/versioning"
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

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("MQ publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	outboxRepo := outbox.NewRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn, logger)
	phaseRepo := repository.NewPhaseRepository(dbConn, logger)
	artifactRepo := repository.NewArtifactRepository(dbConn, logger)
	closureRepo := repository.NewClosureRepository(dbConn, outboxRepo, logger)
	defectRepo := repository.NewDefectRepository(dbConn, logger)
	memberRepo := repository.NewMemberRepository(dbConn, logger)
	blobRepo := repository.NewBlobRepository(dbConn, logger)

	// Services
	versioningService := versioning.NewService(phaseRepo, artifactRepo, blobRepo, publisher, logger)
	validator := closure.NewValidator(phaseRepo, artifactRepo, defectRepo, logger)
	closeLock := util.NewCloseLock(rdb, 30*time.Second)
	closureService := closure.NewService(
		projectRepo,
		phaseRepo,
		artifactRepo,
		memberRepo,
		closureRepo,
		validator,
		closeLock,
		logger,
	)

	// Outbox dispatcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger)
	go dispatcher.Start(ctx)

	// Handlers
	projectHandler := handler.NewProjectHandler(projectRepo, phaseRepo, cfg.JWT.Secret, logger)
	artifactHandler := handler.NewArtifactHandler(versioningService, artifactRepo, phaseRepo, logger)
	closureHandler := handler.NewClosureHandler(closureService, validator, logger)
	defectHandler := handler.NewDefectHandler(defectRepo, logger)

	router := httpserver.NewRouter(
		projectHandler,
		artifactHandler,
		closureHandler,
		defectHandler,
		cfg.JWT.Secret,
		logger,
		dbConn,
		publisher,
	)

	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
