package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/table"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/export"
)

func newUserRouter(svc *userServiceMock, exporter *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc, exporter, testDefaults)
	router := gin.New()
	router.Use(middleware.WithResponseMeta(), withUser(superAdmin()))
	router.GET("/users", h.List)
	router.POST("/users/list", h.Query)
	router.GET("/users/export", h.Export)
	router.POST("/users/bulk-delete", h.BulkDelete)
	router.GET("/users/:id", h.Get)
	router.PUT("/users/:id", h.Update)
	router.DELETE("/users/:id", h.Delete)
	return router
}

func samplePage() *dto.ListUsersResponse {
	created := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return &dto.ListUsersResponse{
		Rows:       []models.UserInfo{{ID: testJohnID, Name: "John Doe", Email: "john.doe@example.com", Role: models.RoleUser, IsActive: true, CreatedAt: created}},
		RowCount:   11,
		Pagination: table.Pagination{PageIndex: 1, PageSize: 10},
		Sorting:    []table.Sort{{ID: "createdAt", Desc: true}},
		Search:     "john",
	}
}

func TestUserHandlerListDecodesQuery(t *testing.T) {
	svc := &userServiceMock{listResp: samplePage(), listHit: true}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodGet, "/users?q=%20john%20&pageIndex=1&sortBy=bogus&refresh=true", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "john", svc.lastList.Search)
	require.NotNil(t, svc.lastList.Pagination)
	require.NotNil(t, svc.lastList.Pagination.PageIndex)
	assert.Equal(t, 1, *svc.lastList.Pagination.PageIndex)
	assert.Equal(t, 10, svc.lastList.Pagination.PageSize)
	assert.Empty(t, svc.lastList.Sorting, "unknown sort columns are dropped from URLs")
	assert.True(t, svc.lastList.Refresh)

	var body struct {
		Data       dto.ListUsersResponse  `json:"data"`
		Pagination models.Pagination      `json:"pagination"`
		Meta       map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 11, body.Data.RowCount)
	assert.Equal(t, "John Doe", body.Data.Rows[0].Name)
	assert.Equal(t, models.Pagination{PageIndex: 1, PageSize: 10, RowCount: 11}, body.Pagination)
	assert.Equal(t, true, body.Meta["cache_hit"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUserHandlerQueryRejectsMalformedBody(t *testing.T) {
	router := newUserRouter(&userServiceMock{}, nil)

	rec := serve(router, http.MethodPost, "/users/list", `{"pagination":`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlerQueryPassesBody(t *testing.T) {
	svc := &userServiceMock{listResp: samplePage()}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodPost, "/users/list", `{"pagination":{"pageIndex":0,"pageSize":20},"sorting":[{"id":"name","desc":false}],"search":"doe"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.lastList.Pagination.PageSize)
	assert.Equal(t, []dto.SortInput{{ID: "name", Desc: false}}, svc.lastList.Sorting)
	assert.Equal(t, "doe", svc.lastList.Search)
}

func TestUserHandlerListMapsStoreError(t *testing.T) {
	svc := &userServiceMock{listErr: appErrors.Clone(appErrors.ErrStoreUnavailable, "failed to load users")}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to load users")
}

func TestUserHandlerGet(t *testing.T) {
	svc := &userServiceMock{user: &models.UserInfo{ID: testJohnID, Name: "John Doe"}}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodGet, "/users/"+testJohnID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John Doe")

	rec = serve(router, http.MethodGet, "/users/"+testSuperID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandlerUpdateUsesActor(t *testing.T) {
	svc := &userServiceMock{}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodPut, "/users/"+testJohnID, `{"name":"John Updated","role":"admin","isActive":false}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testSuperID, svc.lastActor.Viewer.ID)
	assert.Equal(t, models.RoleSuperAdmin, svc.lastActor.Viewer.Role)
	assert.Equal(t, "John Updated", svc.lastUpdate.Name)
	require.NotNil(t, svc.lastUpdate.IsActive)
	assert.False(t, *svc.lastUpdate.IsActive)
}

func TestUserHandlerUpdateForbidden(t *testing.T) {
	svc := &userServiceMock{updateErr: appErrors.Clone(appErrors.ErrForbidden, "you are not allowed to modify this user")}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodPut, "/users/"+testSuperID, `{"name":"Me","role":"super_admin","isActive":true}`, "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserHandlerDelete(t *testing.T) {
	svc := &userServiceMock{}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodDelete, "/users/"+testJohnID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testJohnID, svc.deletedID)
}

func TestUserHandlerBulkDelete(t *testing.T) {
	svc := &userServiceMock{bulkDeleted: 2}
	router := newUserRouter(svc, nil)

	rec := serve(router, http.MethodPost, "/users/bulk-delete", `{"ids":["`+testJohnID+`","44444444-4444-4444-8444-444444444444"]}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.lastBulk.IDs, 2)
	assert.JSONEq(t, `{"data":{"deleted":2}}`, rec.Body.String())
}

func TestUserHandlerExport(t *testing.T) {
	exporter := &exporterMock{result: &service.ExportResult{
		Filename:    "users_john_20240115_080000.csv",
		ContentType: "text/csv",
		Payload:     []byte("Name,Email\n"),
		Rows:        1,
		Truncated:   true,
	}}
	router := newUserRouter(&userServiceMock{}, exporter)

	rec := serve(router, http.MethodGet, "/users/export?format=csv&q=john&sortBy=name", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatCSV, exporter.format)
	assert.Equal(t, "john", exporter.state.Search)
	assert.Equal(t, []table.Sort{{ID: "name"}}, exporter.state.Sorting)
	assert.Equal(t, `attachment; filename="users_john_20240115_080000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "true", rec.Header().Get("X-Export-Truncated"))
	assert.Equal(t, "Name,Email\n", rec.Body.String())
}

func TestUserHandlerExportRejectsFormat(t *testing.T) {
	exporter := &exporterMock{err: errors.New("unreachable")}
	router := newUserRouter(&userServiceMock{}, exporter)

	rec := serve(router, http.MethodGet, "/users/export?format=xlsx", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
