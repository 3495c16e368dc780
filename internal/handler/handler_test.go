package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/export"
)

const (
	testSuperID = "11111111-1111-4111-8111-111111111111"
	testJohnID  = "33333333-3333-4333-8333-333333333333"
)

var testCookie = middleware.CookieConfig{Name: "incident_report_session", TTL: 7 * 24 * time.Hour}

var testDefaults = table.Defaults{PageSize: 10, MaxPageSize: 100, Sortable: usertable.SortFields}

type authServiceMock struct {
	loginResult  *models.AuthResult
	loginToken   string
	loginErr     error
	lastLogin    models.LoginRequest
	logoutResult *models.AuthResult
	logoutToken  string
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, string, error) {
	m.lastLogin = req
	return m.loginResult, m.loginToken, m.loginErr
}

func (m *authServiceMock) Logout(ctx context.Context, token, ip, userAgent string) (*models.AuthResult, error) {
	m.logoutToken = token
	if m.logoutResult == nil {
		return &models.AuthResult{Success: false, Message: service.MsgNotAuthenticated}, nil
	}
	return m.logoutResult, nil
}

type userServiceMock struct {
	listResp    *dto.ListUsersResponse
	listHit     bool
	listErr     error
	lastList    dto.ListUsersRequest
	user        *models.UserInfo
	getErr      error
	updateErr   error
	lastUpdate  dto.UpdateUserRequest
	lastActor   service.Actor
	deleteErr   error
	deletedID   string
	bulkDeleted int
	bulkErr     error
	lastBulk    dto.BulkDeleteRequest
}

func (m *userServiceMock) List(ctx context.Context, req dto.ListUsersRequest) (*dto.ListUsersResponse, bool, error) {
	m.lastList = req
	return m.listResp, m.listHit, m.listErr
}

func (m *userServiceMock) Get(ctx context.Context, id string) (*models.UserInfo, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.user == nil || m.user.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	u := *m.user
	return &u, nil
}

func (m *userServiceMock) Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateUserRequest) (*models.UserInfo, error) {
	m.lastActor = actor
	m.lastUpdate = req
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &models.UserInfo{ID: id, Name: req.Name, Role: req.Role, IsActive: *req.IsActive}, nil
}

func (m *userServiceMock) Delete(ctx context.Context, actor service.Actor, id string) error {
	m.lastActor = actor
	m.deletedID = id
	return m.deleteErr
}

func (m *userServiceMock) BulkDelete(ctx context.Context, actor service.Actor, req dto.BulkDeleteRequest) (int, error) {
	m.lastActor = actor
	m.lastBulk = req
	return m.bulkDeleted, m.bulkErr
}

type exporterMock struct {
	state  table.State
	format export.Format
	result *service.ExportResult
	err    error
}

func (m *exporterMock) ExportUsers(ctx context.Context, state table.State, format export.Format) (*service.ExportResult, error) {
	m.state = state
	m.format = format
	return m.result, m.err
}

// withUser simulates LoadSession for a signed-in user.
func withUser(user *models.UserInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextSessionKey, &models.Session{ID: "s1", UserID: user.ID, Role: user.Role})
			c.Set(middleware.ContextUserKey, user)
		}
		c.Next()
	}
}

func superAdmin() *models.UserInfo {
	return &models.UserInfo{ID: testSuperID, Name: "Super Admin", Email: "superadmin@example.com", Role: models.RoleSuperAdmin, IsActive: true}
}

func serve(router *gin.Engine, method, target, body, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
