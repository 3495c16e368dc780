package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/models"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/logger"
	"github.com/noah-isme/incident-admin/pkg/response"
)

// Context keys for the authenticated request.
const (
	ContextSessionKey = "currentSession"
	ContextUserKey    = "currentUser"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, *models.UserInfo, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// SetSessionCookie writes an httpOnly, SameSite=Lax session cookie.
func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Name, "", -1, "/", "", cfg.Secure, true)
}

// SessionToken returns the raw cookie value or an empty string.
func SessionToken(c *gin.Context, cfg CookieConfig) string {
	token, err := c.Cookie(cfg.Name)
	if err != nil {
		return ""
	}
	return token
}

// LoadSession attaches the session and its current user when the cookie is valid. It never blocks.
func LoadSession(auth authenticator, cfg CookieConfig, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cfg)
		if token == "" {
			c.Next()
			return
		}
		session, user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.FromContext(c, log).Warn("session lookup failed", zap.Error(err))
		}
		if session != nil && user != nil {
			c.Set(ContextSessionKey, session)
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// CurrentSession returns the session attached by LoadSession.
func CurrentSession(c *gin.Context) *models.Session {
	if v, ok := c.Get(ContextSessionKey); ok {
		if s, ok := v.(*models.Session); ok {
			return s
		}
	}
	return nil
}

// CurrentUser returns the user attached by LoadSession.
func CurrentUser(c *gin.Context) *models.UserInfo {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok := v.(*models.UserInfo); ok {
			return u
		}
	}
	return nil
}

// RequireSession rejects API requests without a session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "User not authenticated"))
			return
		}
		c.Next()
	}
}

// RequirePageSession sends anonymous page visitors to the login page, remembering where they were going.
func RequirePageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}
