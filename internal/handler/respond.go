package handler

import (
	"errors"
	"net/http"

	"stylit/internal/domain"

	"github.com/gin-gonic/gin"
)

// flowError maps service errors onto the two response conventions: guided
// flows answer with {"success": false, "error": ...}, ownership and lookup
// failures with a bare {"error": ...}.
func flowError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"success":   false,
			"error":     "insufficient credits",
			"remaining": insufficient.Remaining,
		})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidItems),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrUnknownPackage):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		hardError(c, err)
	}
}

func hardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
