package handler

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/usertable"
)

func viewerFromContext(c *gin.Context) usertable.Viewer {
	user := middleware.CurrentUser(c)
	if user == nil {
		return usertable.Viewer{}
	}
	return usertable.Viewer{ID: user.ID, Role: user.Role}
}

func actorFromContext(c *gin.Context) service.Actor {
	return service.Actor{
		Viewer:    viewerFromContext(c),
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// safeRedirect accepts only same-site absolute paths.
func safeRedirect(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}

// withNotice appends a notice parameter shown as a toast on the target page.
func withNotice(target, notice string, isError bool) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("notice", notice)
	if isError {
		q.Set("noticeType", "error")
	} else {
		q.Del("noticeType")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
