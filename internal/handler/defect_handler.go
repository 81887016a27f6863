package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/model"
	"phasetrack/internal/repository"
)

type DefectHandler struct {
	defects *repository.DefectRepository
	logger  *zap.Logger
}

func NewDefectHandler(defects *repository.DefectRepository, logger *zap.Logger) *DefectHandler {
	return &DefectHandler{defects: defects, logger: logger}
}

// CreateDefect handles POST /projects/:id/defects.
func (h *DefectHandler) CreateDefect(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required"`
		Severity string `json:"severity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Severity == "" {
		req.Severity = "minor"
	}

	d := &model.Defect{
		ProjectID: projectID,
		Title:     req.Title,
		Severity:  req.Severity,
		Status:    model.DefectStatusOpen,
	}
	if err := h.defects.Insert(c.Request.Context(), d); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// ResolveDefect handles POST /defects/:id/resolve.
func (h *DefectHandler) ResolveDefect(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid defect id"})
		return
	}

	if err := h.defects.Resolve(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
