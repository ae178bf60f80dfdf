package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.uber.org/zap"
)

// CreateOpenOrderRequest represents the request body for posting a requirement
type CreateOpenOrderRequest struct {
	Title         string  `json:"title" binding:"required,notblank,max=200"`
	Description   string  `json:"description" binding:"required,notblank"`
	Category      string  `json:"category" binding:"required,notblank"`
	ExpectedPrice float64 `json:"expectedPrice" binding:"required,gt=0"`
	Quantity      string  `json:"quantity" binding:"required,notblank"`
}

// PlaceBidRequest represents the request body for bidding on a requirement
type PlaceBidRequest struct {
	Message string  `json:"message" binding:"required,notblank"`
	Price   float64 `json:"price" binding:"required,gt=0"`
}

// AcceptBidRequest represents the request body for accepting a bid
type AcceptBidRequest struct {
	BidID string `json:"bidId" binding:"required,notblank"`
}

// OpenOrderController serves the open order bidding endpoints
type OpenOrderController struct {
	service *services.OpenOrderService
	logger  *zap.Logger
}

// NewOpenOrderController creates an OpenOrderController
func NewOpenOrderController(service *services.OpenOrderService, logger *zap.Logger) *OpenOrderController {
	return &OpenOrderController{service: service, logger: logger}
}

// Create handles POST /api/v1/open-orders - customer posts a requirement
func (ctl *OpenOrderController) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateOpenOrderRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	order, err := ctl.service.Create(c.Request.Context(), p.ID, services.CreateOpenOrderInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		ExpectedPrice: req.ExpectedPrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	middleware.RecordOpenOrderCreated()
	respond(c, http.StatusCreated, order)
}

// ListOpen handles GET /api/v1/open-orders - SHGs browse open requirements
func (ctl *OpenOrderController) ListOpen(c *gin.Context) {
	orders, err := ctl.service.ListOpen(c.Request.Context())
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

// ListMine handles GET /api/v1/open-orders/my - customer reviews their requests and bids
func (ctl *OpenOrderController) ListMine(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	orders, err := ctl.service.ListMine(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

// PlaceBid handles POST /api/v1/open-orders/:id/bid
func (ctl *OpenOrderController) PlaceBid(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PlaceBidRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	order, err := ctl.service.PlaceBid(c.Request.Context(), c.Param("id"), p, services.PlaceBidInput{
		Message: req.Message,
		Price:   req.Price,
	})
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	middleware.RecordBidPlaced()
	respond(c, http.StatusOK, order)
}

// AcceptBid handles PUT /api/v1/open-orders/:id/accept-bid
func (ctl *OpenOrderController) AcceptBid(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req AcceptBidRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	order, _, err := ctl.service.AcceptBid(c.Request.Context(), c.Param("id"), p, req.BidID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	middleware.RecordBidAccepted()
	respond(c, http.StatusOK, order)
}

// Cancel handles PUT /api/v1/open-orders/:id/cancel
func (ctl *OpenOrderController) Cancel(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	order, err := ctl.service.Cancel(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}

	middleware.RecordOpenOrderCancelled()
	respond(c, http.StatusOK, order)
}
