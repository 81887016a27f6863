package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/service/closure"
)

type ClosureHandler struct {
	service   *closure.Service
	validator *closure.Validator
	logger    *zap.Logger
}

func NewClosureHandler(service *closure.Service, validator *closure.Validator, logger *zap.Logger) *ClosureHandler {
	return &ClosureHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// ValidateClosure handles GET /projects/:id/closure/validate.
func (h *ClosureHandler) ValidateClosure(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	result, err := h.validator.ValidateForClosure(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClosureReport handles GET /projects/:id/closure/report.
func (h *ClosureHandler) ClosureReport(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	report, err := h.validator.PerformClosureValidation(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// CloseProject handles POST /projects/:id/close.
func (h *ClosureHandler) CloseProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req struct {
		Force         bool   `json:"force"`
		Justification string `json:"justification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	record, err := h.service.Close(c.Request.Context(), projectID, req.Force, req.Justification, actorName(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ReopenProject handles POST /projects/:id/reopen.
func (h *ClosureHandler) ReopenProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.service.Reopen(c.Request.Context(), projectID, req.Reason, actorName(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reopened"})
}

// GetClosure handles GET /projects/:id/closure, returning the most recent
// closure record.
func (h *ClosureHandler) GetClosure(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	record, err := h.service.GetClosure(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, record)
}
