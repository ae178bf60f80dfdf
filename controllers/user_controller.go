package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.uber.org/zap"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Phone string `json:"phone" binding:"omitempty,max=20"`
}

// UserController serves the caller's own profile
type UserController struct {
	service *services.UserService
	logger  *zap.Logger
}

// NewUserController creates a UserController
func NewUserController(service *services.UserService, logger *zap.Logger) *UserController {
	return &UserController{service: service, logger: logger}
}

// CreateUser handles POST /api/v1/users - creates the caller's profile from Auth0 userinfo.
// The role comes from the token's role claim and defaults to customer.
func (ctl *UserController) CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	user, err := ctl.service.CreateFromToken(c.Request.Context(), auth0ID, accessToken, middleware.GetRoleClaim(c))
	if err != nil {
		if services.KindOf(err) == services.KindConflict {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		respondServiceError(c, ctl.logger, err)
		return
	}

	respond(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me
func (ctl *UserController) GetMyProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := ctl.service.Get(c.Request.Context(), p.ID)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (ctl *UserController) UpdateMyProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if msg, ok := bindJSON(c, &req); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	user, err := ctl.service.UpdateProfile(c.Request.Context(), p.ID, req.Name, req.Phone)
	if err != nil {
		respondServiceError(c, ctl.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}
