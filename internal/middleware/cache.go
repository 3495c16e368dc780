package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/pkg/middleware/requestid"
	"github.com/noah-isme/incident-admin/pkg/response"
)

const cacheHitKey = "cache_hit"

// WithResponseMeta seeds response metadata with the request id.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := requestid.Value(c); id != "" {
			response.SetMeta(c, "request_id", id)
		}
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	response.SetMeta(c, cacheHitKey, hit)
}
