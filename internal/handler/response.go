package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor-app/internal/models"
	"tailor-app/internal/utils"
)

// handleServiceError maps service errors to the API's status codes. failure is the
// message used for unexpected errors, which also carry the raw error string.
func handleServiceError(c *gin.Context, err error, failure string) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order", "errors": verr.Errors})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	case errors.Is(err, models.ErrIdempotencyMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Idempotency-Key was already used for a different order"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "Order is already being submitted"})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	default:
		_ = c.Error(err)
		utils.LoggerFrom(c).Error(failure, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": failure, "error": err.Error()})
	}
}
