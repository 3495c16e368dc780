package table

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionToggleRespectsEligibility(t *testing.T) {
	s := NewSelection()
	assert.False(t, s.Toggle("root", false))
	assert.False(t, s.Selected("root"))

	assert.True(t, s.Toggle("u1", true))
	assert.False(t, s.Toggle("u1", true))
	assert.Zero(t, s.Len())
}

func TestSelectionHeaderState(t *testing.T) {
	s := NewSelection()
	eligible := []string{"a", "b"}
	assert.Equal(t, Unchecked, s.Header(eligible))
	assert.Equal(t, Unchecked, s.Header(nil))

	s.Toggle("a", true)
	assert.Equal(t, Indeterminate, s.Header(eligible))
	assert.Equal(t, "indeterminate", s.Header(eligible).String())

	s.ToggleAll(eligible)
	assert.Equal(t, Checked, s.Header(eligible))
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	s.ToggleAll(eligible)
	assert.Equal(t, Unchecked, s.Header(eligible))
}

func TestHistoryBackForward(t *testing.T) {
	h := NewHistory("/admin/users", nil)
	h.Push("/admin/users", url.Values{"pageIndex": {"1"}})
	h.Push("/admin/users", url.Values{"pageIndex": {"2"}})
	assert.True(t, h.Back())
	assert.True(t, h.Back())
	assert.False(t, h.Back())

	assert.True(t, h.Forward())
	_, q := h.Location()
	assert.Equal(t, "1", q.Get("pageIndex"))

	h.Push("/admin/users/42", nil)
	assert.False(t, h.Forward())
	assert.Equal(t, 3, h.Len())

	h.Replace("/admin/users/43", nil)
	route, _ := h.Location()
	assert.Equal(t, "/admin/users/43", route)
	assert.Equal(t, 3, h.Len())
}
