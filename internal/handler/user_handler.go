package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/table"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/export"
	"github.com/noah-isme/incident-admin/pkg/response"
)

type userService interface {
	List(ctx context.Context, req dto.ListUsersRequest) (*dto.ListUsersResponse, bool, error)
	Get(ctx context.Context, id string) (*models.UserInfo, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateUserRequest) (*models.UserInfo, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	BulkDelete(ctx context.Context, actor service.Actor, req dto.BulkDeleteRequest) (int, error)
}

type userExporter interface {
	ExportUsers(ctx context.Context, state table.State, format export.Format) (*service.ExportResult, error)
}

// UserHandler handles the users list and admin mutations.
type UserHandler struct {
	service  userService
	exporter userExporter
	defaults table.Defaults
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, exporter userExporter, defaults table.Defaults) *UserHandler {
	return &UserHandler{service: svc, exporter: exporter, defaults: defaults}
}

func refreshRequested(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("refresh"))
	return err == nil && v
}

// List godoc
// @Summary List users
// @Description One page of users filtered by name or email. The count uses the same filter.
// @Tags Users
// @Produce json
// @Param q query string false "Search term"
// @Param pageIndex query int false "Zero-based page index"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "Sort column"
// @Param sortDesc query bool false "Sort descending"
// @Param refresh query bool false "Bypass the cached page"
// @Success 200 {object} response.Envelope{data=dto.ListUsersResponse}
// @Failure 403 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	state := table.Decode(c.Request.URL.Query(), h.defaults)
	h.list(c, dto.NewListUsersRequest(state, refreshRequested(c)))
}

// Query godoc
// @Summary Query users
// @Description Same as GET /users with a JSON body. Unknown sort fields are rejected.
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.ListUsersRequest true "List request"
// @Success 200 {object} response.Envelope{data=dto.ListUsersResponse}
// @Failure 400 {object} response.Envelope
// @Router /users/list [post]
func (h *UserHandler) Query(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list payload"))
		return
	}
	h.list(c, req)
}

func (h *UserHandler) list(c *gin.Context, req dto.ListUsersRequest) {
	resp, hit, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, resp, &models.Pagination{
		PageIndex: resp.Pagination.PageIndex,
		PageSize:  resp.Pagination.PageSize,
		RowCount:  resp.RowCount,
	})
}

// Get godoc
// @Summary Get user
// @Description Get user detail
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update user
// @Description Change name, role and status. Only a super admin may act, never on themselves or another super admin.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Delete user
// @Description Soft delete: the user is marked inactive
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete several users
// @Description All listed users are deactivated in one transaction, or none are
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteRequest true "User ids"
// @Success 200 {object} response.Envelope{data=dto.BulkDeleteResponse}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/bulk-delete [post]
func (h *UserHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	deleted, err := h.service.BulkDelete(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted}, nil)
}

// Export godoc
// @Summary Export users
// @Description Download every user matching the list parameters as CSV or PDF
// @Tags Users
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param q query string false "Search term"
// @Param sortBy query string false "Sort column"
// @Param sortDesc query bool false "Sort descending"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	state := table.Decode(c.Request.URL.Query(), h.defaults)

	result, err := h.exporter.ExportUsers(c.Request.Context(), state, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("Cache-Control", "no-store")
	if result.Truncated {
		c.Header("X-Export-Truncated", "true")
	}
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
