package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.uber.org/zap"
)

// NotificationController serves the caller's notification inbox
type NotificationController struct {
	store  *services.NotificationStore
	logger *zap.Logger
}

// NewNotificationController creates a NotificationController
func NewNotificationController(store *services.NotificationStore, logger *zap.Logger) *NotificationController {
	return &NotificationController{store: store, logger: logger}
}

// List handles GET /api/v1/notifications
func (ctl *NotificationController) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	notifications, err := ctl.store.ListForUser(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, notifications)
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	n, err := ctl.store.MarkRead(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, n)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	updated, err := ctl.store.MarkAllRead(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": updated})
}
