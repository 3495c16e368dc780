package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
	"github.com/noah-isme/incident-admin/internal/web"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/logger"
)

const usersPath = "/admin/users"

// transient query parameters never carried into table links.
var transientParams = []string{"refresh", "notice", "noticeType"}

// PageConfig configures the server-rendered pages.
type PageConfig struct {
	AppName   string
	APIPrefix string
	Debounce  time.Duration
	Defaults  table.Defaults
	Cookie    middleware.CookieConfig
}

// PageHandler renders the HTML admin.
type PageHandler struct {
	auth   authService
	users  userService
	cfg    PageConfig
	logger *zap.Logger
}

// NewPageHandler constructs a PageHandler.
func NewPageHandler(auth authService, users userService, cfg PageConfig, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{auth: auth, users: users, cfg: cfg, logger: log}
}

func (h *PageHandler) page(c *gin.Context, title string) web.Page {
	user := middleware.CurrentUser(c)
	p := web.Page{
		Title:       title,
		AppName:     h.cfg.AppName,
		User:        user,
		Notice:      c.Query("notice"),
		NoticeError: c.Query("noticeType") == "error",
	}
	if user != nil {
		p.CanManage = usertable.CanManage(user.Role)
	}
	return p
}

// LoginPage renders the sign-in form, or skips it for signed-in users.
func (h *PageHandler) LoginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, safeRedirect(c.Query("redirect"), "/dashboard"))
		return
	}
	c.HTML(http.StatusOK, "login.html", web.LoginPage{Page: h.page(c, "Sign in"), Redirect: c.Query("redirect")})
}

// LoginSubmit handles the sign-in form. Failures re-render the form with a message.
func (h *PageHandler) LoginSubmit(c *gin.Context) {
	var req models.LoginRequest
	_ = c.ShouldBind(&req)
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")
	redirect := c.PostForm("redirect")

	fail := func(status int, message string) {
		page := h.page(c, "Sign in")
		page.Notice, page.NoticeError = message, true
		c.HTML(status, "login.html", web.LoginPage{Page: page, Redirect: redirect, Email: req.Email})
	}

	result, token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code != appErrors.ErrValidation.Code {
			logger.FromContext(c, h.logger).Error("login failed", zap.Error(err))
			fail(appErr.Status, "Sign in is unavailable right now, please try again.")
			return
		}
		fail(http.StatusBadRequest, appErr.Message)
		return
	}
	if !result.Success {
		fail(http.StatusUnauthorized, result.Message)
		return
	}

	middleware.SetSessionCookie(c, h.cfg.Cookie, token)
	c.Redirect(http.StatusSeeOther, safeRedirect(redirect, "/dashboard"))
}

// LogoutSubmit ends the session and returns to the sign-in page.
func (h *PageHandler) LogoutSubmit(c *gin.Context) {
	if _, err := h.auth.Logout(c.Request.Context(), middleware.SessionToken(c, h.cfg.Cookie), c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		logger.FromContext(c, h.logger).Warn("logout failed", zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.cfg.Cookie)
	c.Redirect(http.StatusSeeOther, "/")
}

// Dashboard renders the landing page for every signed-in user.
func (h *PageHandler) Dashboard(c *gin.Context) {
	page := h.page(c, "Dashboard")
	c.HTML(http.StatusOK, "dashboard.html", web.DashboardPage{Page: page, RoleTone: usertable.RoleTone(page.User.Role)})
}

func (h *PageHandler) tableQuery(c *gin.Context) url.Values {
	q := c.Request.URL.Query()
	for _, p := range transientParams {
		q.Del(p)
	}
	return q
}

func (h *PageHandler) fragment(c *gin.Context, state table.State, rows []models.UserInfo, rowCount int, loading bool, err error, oob bool) web.TableFragment {
	viewer := viewerFromContext(c)
	in := usertable.Input(viewer, usersPath, rows, rowCount, state, h.cfg.Defaults)
	in.Loading = loading
	in.Err = err
	in.Path = usersPath
	in.Query = h.tableQuery(c)

	params := map[string]string{}
	for k, v := range table.Encode(state, h.cfg.Defaults) {
		if k == table.ParamSearch || k == table.ParamPageIndex || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}
	return web.TableFragment{
		View:        table.Render(in),
		Params:      params,
		BulkEnabled: viewer.Role == models.RoleSuperAdmin,
		OOB:         oob,
	}
}

func (h *PageHandler) exportHref(state table.State, format string) string {
	q := table.Encode(state, h.cfg.Defaults)
	q.Del(table.ParamPageIndex)
	q.Del(table.ParamPageSize)
	q.Set("format", format)
	return h.cfg.APIPrefix + "/users/export?" + q.Encode()
}

// UsersPage renders the users shell. Rows arrive through UsersTable.
func (h *PageHandler) UsersPage(c *gin.Context) {
	state := table.Decode(c.Request.URL.Query(), h.cfg.Defaults)
	c.HTML(http.StatusOK, "users.html", web.UsersPage{
		Page:          h.page(c, "Users"),
		Search:        state.Search,
		DebounceMS:    h.cfg.Debounce.Milliseconds(),
		ExportCSVHref: h.exportHref(state, "csv"),
		ExportPDFHref: h.exportHref(state, "pdf"),
		Table:         h.fragment(c, state, nil, 0, true, nil, false),
	})
}

// UsersTable renders the table fragment for the state in the query and tells the browser which
// page URL it corresponds to.
func (h *PageHandler) UsersTable(c *gin.Context) {
	state := table.Decode(c.Request.URL.Query(), h.cfg.Defaults)

	resp, _, err := h.users.List(c.Request.Context(), dto.NewListUsersRequest(state, refreshRequested(c)))
	var frag web.TableFragment
	if err != nil {
		logger.FromContext(c, h.logger).Warn("users table load failed", zap.Error(err))
		frag = h.fragment(c, state, nil, 0, false, errors.New(appErrors.FromError(err).Message), true)
	} else {
		state.Pagination = resp.Pagination
		frag = h.fragment(c, state, resp.Rows, resp.RowCount, false, nil, true)
	}

	replaceURL(c, frag.View.RefreshHref)
	c.HTML(http.StatusOK, "users_table", frag)
}

// replaceURL asks htmx to rewrite the address bar unless it already shows href, so the first
// load of a seeded page does not write the location.
func replaceURL(c *gin.Context, href string) {
	if sameLocation(c.GetHeader("HX-Current-URL"), href) {
		return
	}
	c.Header("HX-Replace-Url", href)
}

func sameLocation(current, href string) bool {
	if current == "" {
		return false
	}
	cur, err := url.Parse(current)
	if err != nil {
		return false
	}
	want, err := url.Parse(href)
	if err != nil {
		return false
	}
	return cur.Path == want.Path && cur.Query().Encode() == want.Query().Encode()
}

func (h *PageHandler) renderError(c *gin.Context, err error, back string) {
	appErr := appErrors.FromError(err)
	heading := "Something went wrong"
	switch appErr.Status {
	case http.StatusNotFound:
		heading = "User not found"
	case http.StatusForbidden:
		heading = "Not allowed"
	case http.StatusBadRequest:
		heading = "Invalid request"
	}
	if appErr.Status >= http.StatusInternalServerError {
		logger.FromContext(c, h.logger).Error("page error", zap.Error(err))
	}
	c.HTML(appErr.Status, "error.html", web.ErrorPage{Page: h.page(c, heading), Heading: heading, Message: appErr.Message, BackHref: back})
}

func userPath(id string) string {
	return usersPath + "/" + url.PathEscape(id)
}

// UserDetail renders one user.
func (h *PageHandler) UserDetail(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err, usersPath)
		return
	}
	label, tone := usertable.StatusBadge(user.IsActive)
	c.HTML(http.StatusOK, "user_detail.html", web.UserDetailPage{
		Page:        h.page(c, user.Name),
		Target:      *user,
		BackHref:    usersPath,
		Initials:    usertable.Initials(user.Name),
		RoleTone:    usertable.RoleTone(user.Role),
		StatusLabel: label,
		StatusTone:  tone,
		CanModify:   usertable.CanModify(viewerFromContext(c), *user),
	})
}

var editableRoles = []models.UserRole{models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin}

func (h *PageHandler) renderEdit(c *gin.Context, status int, user models.UserInfo, form web.UserForm, notice string) {
	page := h.page(c, "Edit "+user.Name)
	if notice != "" {
		page.Notice, page.NoticeError = notice, true
	}
	c.HTML(status, "user_edit.html", web.UserEditPage{Page: page, Target: user, Form: form, Roles: editableRoles})
}

// EditForm renders the edit form for a user the viewer may modify.
func (h *PageHandler) EditForm(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err, usersPath)
		return
	}
	if !usertable.CanModify(viewerFromContext(c), *user) {
		c.Redirect(http.StatusSeeOther, withNotice(userPath(user.ID), "You are not allowed to edit this user.", true))
		return
	}
	h.renderEdit(c, http.StatusOK, *user, web.UserForm{Name: user.Name, Role: user.Role, IsActive: user.IsActive}, "")
}

// EditSubmit saves the edit form.
func (h *PageHandler) EditSubmit(c *gin.Context) {
	id := c.Param("id")
	active, _ := strconv.ParseBool(c.DefaultPostForm("isActive", "false"))
	if c.PostForm("isActive") == "on" {
		active = true
	}
	req := dto.UpdateUserRequest{Name: c.PostForm("name"), Role: models.UserRole(c.PostForm("role")), IsActive: &active}

	if _, err := h.users.Update(c.Request.Context(), actorFromContext(c), id, req); err != nil {
		switch {
		case appErrors.Is(err, appErrors.ErrForbidden):
			c.Redirect(http.StatusSeeOther, withNotice(userPath(id), appErrors.FromError(err).Message, true))
		case appErrors.Is(err, appErrors.ErrValidation):
			user, getErr := h.users.Get(c.Request.Context(), id)
			if getErr != nil {
				h.renderError(c, getErr, usersPath)
				return
			}
			h.renderEdit(c, http.StatusBadRequest, *user, web.UserForm{Name: req.Name, Role: req.Role, IsActive: active}, "Please check the name and role and try again.")
		default:
			h.renderError(c, err, usersPath)
		}
		return
	}
	c.Redirect(http.StatusSeeOther, withNotice(userPath(id), "User updated.", false))
}

// DeleteSubmit soft deletes one user and returns to the list.
func (h *PageHandler) DeleteSubmit(c *gin.Context) {
	target := safeRedirect(c.PostForm("redirect"), usersPath)
	if err := h.users.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		c.Redirect(http.StatusSeeOther, withNotice(target, appErrors.FromError(err).Message, true))
		return
	}
	c.Redirect(http.StatusSeeOther, withNotice(target, "User deleted.", false))
}

// BulkDeleteSubmit soft deletes the selected users.
func (h *PageHandler) BulkDeleteSubmit(c *gin.Context) {
	target := safeRedirect(c.PostForm("redirect"), usersPath)
	ids := c.PostFormArray("ids")
	if len(ids) == 0 {
		c.Redirect(http.StatusSeeOther, withNotice(target, "Select at least one user.", true))
		return
	}
	deleted, err := h.users.BulkDelete(c.Request.Context(), actorFromContext(c), dto.BulkDeleteRequest{IDs: ids})
	if err != nil {
		c.Redirect(http.StatusSeeOther, withNotice(target, appErrors.FromError(err).Message, true))
		return
	}
	c.Redirect(http.StatusSeeOther, withNotice(target, fmt.Sprintf("%d users deleted.", deleted), false))
}
