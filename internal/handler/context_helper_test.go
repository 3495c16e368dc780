package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/dashboard",
		"/admin/users?q=john":  "/admin/users?q=john",
		"//evil.example/x":     "/dashboard",
		"/\\evil.example":      "/dashboard",
		"https://evil.example": "/dashboard",
		"javascript:alert(1)":  "/dashboard",
		"  /admin/users/abc  ": "/admin/users/abc",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in, "/dashboard"), in)
	}
}

func TestWithNotice(t *testing.T) {
	assert.Equal(t, "/admin/users?notice=Saved&q=john", withNotice("/admin/users?q=john&noticeType=error", "Saved", false))
	assert.Equal(t, "/admin/users?notice=Nope&noticeType=error", withNotice("/admin/users", "Nope", true))
}
