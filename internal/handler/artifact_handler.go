package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/model"
	"phasetrack/internal/repository"
	"phasetrack/internal/service/closure"
	"phasetrack/internal/service/versioning"
)

type ArtifactHandler struct {
	versioning *versioning.Service
	artifacts  *repository.ArtifactRepository
	phases     *repository.PhaseRepository
	logger     *zap.Logger
}

func NewArtifactHandler(
	vs *versioning.Service,
	artifacts *repository.ArtifactRepository,
	phases *repository.PhaseRepository,
	logger *zap.Logger,
) *ArtifactHandler {
	return &ArtifactHandler{
		versioning: vs,
		artifacts:  artifacts,
		phases:     phases,
		logger:     logger,
	}
}

type fileUploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 in JSON
}

func (f *fileUploadRequest) toUpload() *versioning.FileUpload {
	if f == nil {
		return nil
	}
	return &versioning.FileUpload{
		Name:        f.Name,
		ContentType: f.ContentType,
		Data:        f.Data,
	}
}

// CreateArtifact handles POST /phases/:id/artifacts.
func (h *ArtifactHandler) CreateArtifact(c *gin.Context) {
	phaseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}

	var req struct {
		Category          string                `json:"category" binding:"required"`
		Mandatory         bool                  `json:"mandatory"`
		ChangeDescription string                `json:"change_description"`
		Content           string                `json:"content"`
		RepoLink          string                `json:"repo_link"`
		File              *fileUploadRequest    `json:"file"`
		Build             *model.BuildInfo      `json:"build"`
		Checklist         []model.ChecklistItem `json:"checklist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.versioning.CreateArtifact(c.Request.Context(), versioning.CreateArtifactInput{
		PhaseID:           phaseID,
		Category:          req.Category,
		Mandatory:         req.Mandatory,
		Author:            actorName(c),
		ChangeDescription: req.ChangeDescription,
		Content:           req.Content,
		RepoLink:          req.RepoLink,
		File:              req.File.toUpload(),
		Build:             req.Build,
		Checklist:         req.Checklist,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, a)
}

// ListPhaseArtifacts handles GET /phases/:id/artifacts, returning the phase's
// artifacts together with expected categories and, for the Transition phase,
// which mandatory categories are still missing.
func (h *ArtifactHandler) ListPhaseArtifacts(c *gin.Context) {
	phaseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}

	phase, err := h.phases.FindByID(c.Request.Context(), phaseID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	artifacts, err := h.artifacts.ListByPhase(c.Request.Context(), phaseID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := gin.H{
		"artifacts":           artifacts,
		"expected_categories": closure.ExpectedCategories[phase.Kind],
	}
	if phase.Kind == model.PhaseTransition {
		present := make(map[string]bool, len(artifacts))
		for _, a := range artifacts {
			present[a.Category] = true
		}
		missing := []string{}
		for _, cat := range closure.TransitionMandatoryCategories() {
			if !present[cat] {
				missing = append(missing, cat)
			}
		}
		body["missing_mandatory"] = missing
	}

	c.JSON(http.StatusOK, body)
}

// GetArtifact handles GET /artifacts/:id with full version history.
func (h *ArtifactHandler) GetArtifact(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	a, err := h.versioning.GetArtifact(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// UpdateArtifact handles PATCH /artifacts/:id (status, build info, checklist).
func (h *ArtifactHandler) UpdateArtifact(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req struct {
		Status    *string                `json:"status"`
		Build     *model.BuildInfo       `json:"build"`
		Checklist *[]model.ChecklistItem `json:"checklist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	a, err := h.versioning.UpdateArtifact(c.Request.Context(), id, versioning.UpdateArtifactInput{
		Status:    req.Status,
		Build:     req.Build,
		Checklist: req.Checklist,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// AddVersion handles POST /artifacts/:id/versions.
func (h *ArtifactHandler) AddVersion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req struct {
		ChangeDescription string             `json:"change_description"`
		Content           string             `json:"content"`
		RepoLink          string             `json:"repo_link"`
		File              *fileUploadRequest `json:"file"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	v, err := h.versioning.AddVersion(c.Request.Context(), id, versioning.AddVersionInput{
		Author:            actorName(c),
		ChangeDescription: req.ChangeDescription,
		Content:           req.Content,
		RepoLink:          req.RepoLink,
		File:              req.File.toUpload(),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, v)
}

// CompareVersions handles GET /artifacts/:id/compare?from=1&to=2.
func (h *ArtifactHandler) CompareVersions(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from version"})
		return
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to version"})
		return
	}

	diffs, err := h.versioning.CompareVersions(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"differences": diffs})
}

// DownloadFile handles GET /artifacts/:id/versions/:number/file.
func (h *ArtifactHandler) DownloadFile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version number"})
		return
	}

	name, contentType, data, err := h.versioning.DownloadFile(c.Request.Context(), id, number)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}
