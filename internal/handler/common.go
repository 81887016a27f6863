package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Validation
// rejections carry their structured details so the caller can render exactly
// what is missing, never just a boolean.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.KindValidation:
		body := gin.H{"error": err.Error()}
		if details := apperr.DetailsOf(err); details != nil {
			body["validation"] = details
		}
		c.JSON(http.StatusBadRequest, body)
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// actorName returns the display name the identity middleware extracted, or
// empty when the request was anonymous.
func actorName(c *gin.Context) string {
	return c.GetString("actor")
}
