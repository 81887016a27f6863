package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/model"
	"phasetrack/internal/repository"
	"phasetrack/internal/util"
)

type ProjectHandler struct {
	projects  *repository.ProjectRepository
	phases    *repository.PhaseRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewProjectHandler(projects *repository.ProjectRepository, phases *repository.PhaseRepository, jwtSecret string, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects:  projects,
		phases:    phases,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// CreateProject handles POST /projects. The four methodology phases are
// seeded together with the project.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Code        string `json:"code" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	owner := actorName(c)
	if owner == "" {
		owner = "System"
	}

	p := &model.Project{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	}
	if err := h.projects.Create(c.Request.Context(), p, owner); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// GetProject handles GET /projects/:id, returning the project with its phases.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	p, err := h.projects.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	phases, err := h.phases.ListByProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": p,
		"phases":  phases,
	})
}

// UpdatePhaseStatus handles PATCH /phases/:id/status.
func (h *ProjectHandler) UpdatePhaseStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	switch req.Status {
	case model.PhaseStatusPending, model.PhaseStatusInProgress, model.PhaseStatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown phase status"})
		return
	}

	if err := h.phases.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IssueToken handles POST /token: a development identity helper that mints
// the bearer token carrying the actor's display name.
func (h *ProjectHandler) IssueToken(c *gin.Context) {
	var req struct {
		UserID int    `json:"user_id" binding:"required"`
		Name   string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := util.GenerateJWT(req.UserID, req.Name, h.jwtSecret)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
