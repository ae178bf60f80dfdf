package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.uber.org/zap"
)

// RegisterSHGRequest represents the request body for registering an SHG
type RegisterSHGRequest struct {
	ShgName            string `json:"shgName" binding:"required,notblank,max=200"`
	Description        string `json:"description"`
	RegistrationNumber string `json:"registrationNumber" binding:"required,notblank,max=100"`
}

// RejectSHGRequest represents the request body for rejecting an SHG
type RejectSHGRequest struct {
	Reason string `json:"reason" binding:"required,notblank"`
}

// SHGController serves SHG self-service and admin review endpoints
type SHGController struct {
	service *services.SHGService
	logger  *zap.Logger
}

// NewSHGController creates an SHGController
func NewSHGController(service *services.SHGService, logger *zap.Logger) *SHGController {
	return &SHGController{service: service, logger: logger}
}

// Register handles POST /api/v1/shg/register
func (ctl *SHGController) Register(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req RegisterSHGRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	shg, err := ctl.service.Register(c.Request.Context(), p.ID, services.RegisterSHGInput{
		ShgName:            req.ShgName,
		Description:        req.Description,
		RegistrationNumber: req.RegistrationNumber,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusCreated, shg)
}

// Profile handles GET /api/v1/shg/profile
func (ctl *SHGController) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	shg, err := ctl.service.FindByOwner(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, shg)
}

// Orders handles GET /api/v1/shg/orders
func (ctl *SHGController) Orders(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	orders, err := ctl.service.ListOrders(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

// ListPending handles GET /api/v1/admin/shgs/pending
func (ctl *SHGController) ListPending(c *gin.Context) {
	shgs, err := ctl.service.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, shgs)
}

// Approve handles PUT /api/v1/admin/shgs/:id/approve
func (ctl *SHGController) Approve(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	shgID, ok := parseSHGID(c)
	if !ok {
		return
	}

	shg, err := ctl.service.Approve(c.Request.Context(), p.ID, shgID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, shg)
}

// Reject handles PUT /api/v1/admin/shgs/:id/reject
func (ctl *SHGController) Reject(c *gin.Context) {
	shgID, ok := parseSHGID(c)
	if !ok {
		return
	}

	var req RejectSHGRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	shg, err := ctl.service.Reject(c.Request.Context(), shgID, req.Reason)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, shg)
}

func parseSHGID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "SHG ID must be a valid number")
		return 0, false
	}
	return uint(id), true
}
