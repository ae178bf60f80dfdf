package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.uber.org/zap"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// statusFor maps a service error kind onto its HTTP status
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindInvalidState, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err in the error envelope. Dependency failures are
// logged with their cause and reported generically.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		logger.Error("Unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	status := statusFor(se.Kind)
	if status == http.StatusInternalServerError {
		logger.Error(se.Message, zap.String("path", c.FullPath()), zap.Error(se.Err))
	}
	respondError(c, status, se.Code, se.Message)
}

// principal returns the caller or writes 401 and reports false
func principal(c *gin.Context) (models.Principal, bool) {
	p, err := middleware.GetPrincipal(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not identify user")
		return models.Principal{}, false
	}
	return p, true
}
