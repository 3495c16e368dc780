package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, string, error)
	Logout(ctx context.Context, token, ip, userAgent string) (*models.AuthResult, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  middleware.CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password and open a cookie session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.AuthResult
// @Failure 400 {object} models.AuthResult
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResult{Success: false, Message: "invalid login payload"})
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	result, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, models.AuthResult{Success: false, Message: appErrors.FromError(err).Message})
			return
		}
		response.Error(c, err)
		return
	}
	if result.Success {
		middleware.SetSessionCookie(c, h.cookie, token)
	}

	c.JSON(http.StatusOK, result)
}

// Logout godoc
// @Summary Logout current session
// @Description Destroy the session and clear its cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.AuthResult
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	result, err := h.service.Logout(c.Request.Context(), middleware.SessionToken(c, h.cookie), c.ClientIP(), c.GetHeader("User-Agent"))
	middleware.ClearSessionCookie(c, h.cookie)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me godoc
// @Summary Get current user
// @Description Returns the signed-in user re-read from the store, or null
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, middleware.CurrentUser(c), nil)
}
