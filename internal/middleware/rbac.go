package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/models"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/response"
)

func roleAllowed(c *gin.Context, roles []models.UserRole) (authenticated, allowed bool) {
	user := CurrentUser(c)
	if user == nil {
		return false, false
	}
	for _, r := range roles {
		if user.Role == r {
			return true, true
		}
	}
	return true, false
}

// RequireRoles enforces role-based access control for API routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated, allowed := roleAllowed(c, roles)
		switch {
		case !authenticated:
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "User not authenticated"))
		case !allowed:
			response.Error(c, appErrors.ErrForbidden)
		default:
			c.Next()
		}
	}
}

// RequirePageRoles redirects page visitors lacking a role to the dashboard.
func RequirePageRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated, allowed := roleAllowed(c, roles)
		switch {
		case !authenticated:
			RequirePageSession()(c)
		case !allowed:
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
		default:
			c.Next()
		}
	}
}
