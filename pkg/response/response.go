package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/models"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

const metaKey = "response_meta"

// SetMeta attaches a meta field to the response about to be written.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, _ := c.Get(metaKey)
	m, ok := meta.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
	}
	m[key] = value
	c.Set(metaKey, m)
}

func collectMeta(c *gin.Context, extra []map[string]interface{}) map[string]interface{} {
	var out map[string]interface{}
	if v, ok := c.Get(metaKey); ok {
		if m, ok := v.(map[string]interface{}); ok && len(m) > 0 {
			out = make(map[string]interface{}, len(m))
			for k, val := range m {
				out[k] = val
			}
		}
	}
	for _, m := range extra {
		for k, val := range m {
			if out == nil {
				out = map[string]interface{}{}
			}
			out[k] = val
		}
	}
	return out
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Pagination: pagination, Meta: collectMeta(c, meta)})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr, Meta: collectMeta(c, nil)})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
