package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"phasetrack/internal/handler"
	"phasetrack/internal/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	projectHandler *handler.ProjectHandler,
	artifactHandler *handler.ArtifactHandler,
	closureHandler *handler.ClosureHandler,
	defectHandler *handler.DefectHandler,
	jwtSecret string,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.Default()

	r.Use(RequestLogMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/token", projectHandler.IssueToken)

	api := r.Group("/")
	api.Use(IdentityMiddleware(jwtSecret))
	{
		api.POST("/projects", projectHandler.CreateProject)
		api.GET("/projects/:id", projectHandler.GetProject)

		api.PATCH("/phases/:id/status", projectHandler.UpdatePhaseStatus)
		api.POST("/phases/:id/artifacts", artifactHandler.CreateArtifact)
		api.GET("/phases/:id/artifacts", artifactHandler.ListPhaseArtifacts)

		api.GET("/artifacts/:id", artifactHandler.GetArtifact)
		api.PATCH("/artifacts/:id", artifactHandler.UpdateArtifact)
		api.POST("/artifacts/:id/versions", artifactHandler.AddVersion)
		api.GET("/artifacts/:id/compare", artifactHandler.CompareVersions)
		api.GET("/artifacts/:id/versions/:number/file", artifactHandler.DownloadFile)

		api.GET("/projects/:id/closure/validate", closureHandler.ValidateClosure)
		api.GET("/projects/:id/closure/report", closureHandler.ClosureReport)
		api.POST("/projects/:id/close", closureHandler.CloseProject)
		api.POST("/projects/:id/reopen", closureHandler.ReopenProject)
		api.GET("/projects/:id/closure", closureHandler.GetClosure)

		api.POST("/projects/:id/defects", defectHandler.CreateDefect)
		api.POST("/defects/:id/resolve", defectHandler.ResolveDefect)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
