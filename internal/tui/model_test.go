package tui

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
)

const (
	superID = "11111111-1111-4111-8111-111111111111"
	johnID  = "33333333-3333-4333-8333-333333333333"
	janeID  = "44444444-4444-4444-8444-444444444444"
)

type fakeAPI struct {
	mu      sync.Mutex
	users   []models.UserInfo
	states  []table.State
	refresh []bool
	deleted []string
	bulk    [][]string
}

func (f *fakeAPI) FetchPage(_ context.Context, state table.State, refresh bool) (table.Page[models.UserInfo], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	f.refresh = append(f.refresh, refresh)

	var matched []models.UserInfo
	q := strings.ToLower(state.Search)
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			matched = append(matched, u)
		}
	}
	size := state.Pagination.PageSize
	index := state.Pagination.PageIndex
	if last := table.PageCount(len(matched), size) - 1; index > last {
		index = max(last, 0)
	}
	start := min(index*size, len(matched))
	end := min(start+size, len(matched))

	served := state
	served.Pagination.PageIndex = index
	return table.Page[models.UserInfo]{Rows: matched[start:end], RowCount: len(matched), Served: served}, nil
}

func (f *fakeAPI) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) BulkDelete(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, ids)
	return len(ids), nil
}

func (f *fakeAPI) fetches() []table.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]table.State(nil), f.states...)
}

func seedUsers(n int) []models.UserInfo {
	users := []models.UserInfo{
		{ID: superID, Name: "Super Admin", Email: "superadmin@example.com", Role: models.RoleSuperAdmin, IsActive: true},
		{ID: johnID, Name: "John Doe", Email: "john.doe@example.com", Role: models.RoleUser, IsActive: true},
		{ID: janeID, Name: "Jane Smith", Email: "jane.smith@example.com", Role: models.RoleAdmin, IsActive: true},
	}
	for i := len(users); i < n; i++ {
		users = append(users, models.UserInfo{
			ID:    "00000000-0000-4000-8000-" + strings.Repeat("0", 10) + string(rune('a'+i/10)) + string(rune('0'+i%10)),
			Name:  "Filler User",
			Email: "filler@example.com",
			Role:  models.RoleUser,
		})
	}
	return users
}

func newModel(api *fakeAPI, query string) Model {
	q, _ := url.ParseQuery(query)
	m := New(api, Config{
		Viewer:   usertable.Viewer{ID: superID, Role: models.RoleSuperAdmin},
		Defaults: table.Defaults{PageSize: 10, MaxPageSize: 50, Sortable: usertable.SortFields},
		Debounce: 100 * time.Millisecond,
		Query:    q,
	})
	m.ctl.Mount()
	return m
}

// settle runs cmd and feeds back every fetch or delete result that arrives promptly. Commands
// that block, such as the debounced search listener, are abandoned.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		next, more := m.Update(msg)
		m = settle(t, next.(Model), more)
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		switch msg := msg.(type) {
		case tea.BatchMsg:
			var out []tea.Msg
			for _, c := range msg {
				out = append(out, collect(c)...)
			}
			return out
		case pageMsg, deletedMsg:
			return []tea.Msg{msg}
		}
	case <-time.After(50 * time.Millisecond):
	}
	return nil
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	for _, r := range keys {
		var msg tea.KeyMsg
		switch r {
		case '\n':
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case ' ':
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		next, cmd := m.Update(msg)
		m = settle(t, next.(Model), cmd)
	}
	return m
}

func TestBrowserMountsFromLocation(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "q=jane")
	m = settle(t, m, m.query())

	fetches := api.fetches()
	require.Len(t, fetches, 1)
	assert.Equal(t, "jane", fetches[0].Search)
	assert.Contains(t, m.View(), "Jane Smith")
	assert.NotContains(t, m.View(), "John Doe")
	assert.Equal(t, "/admin/users?q=jane", m.Location())
}

func TestBrowserPagingWritesLocation(t *testing.T) {
	api := &fakeAPI{users: seedUsers(25)}
	m := newModel(api, "")
	m = settle(t, m, m.query())

	m = press(t, m, "n")
	assert.Equal(t, "/admin/users?pageIndex=1", m.Location())
	m = press(t, m, "G")
	assert.Equal(t, "/admin/users?pageIndex=2", m.Location())
	m = press(t, m, "n")
	assert.Equal(t, "/admin/users?pageIndex=2", m.Location(), "next on the last page is a no-op")
	m = press(t, m, "g")
	assert.Equal(t, "/admin/users", m.Location())

	// the first page is cached, so going back to it does not fetch
	assert.Len(t, api.fetches(), 3)
}

func TestBrowserAdoptsClampedPage(t *testing.T) {
	api := &fakeAPI{users: seedUsers(25)}
	m := newModel(api, "pageIndex=9")
	m = settle(t, m, m.query())

	assert.Equal(t, "/admin/users?pageIndex=2", m.Location())
	assert.Len(t, api.fetches(), 1)
	assert.Contains(t, m.View(), "Page 3 of 3")
}

func TestBrowserSortCyclesDirection(t *testing.T) {
	api := &fakeAPI{users: seedUsers(25)}
	m := newModel(api, "pageIndex=1")
	m = settle(t, m, m.query())

	m = press(t, m, "1")
	assert.Equal(t, "/admin/users?pageIndex=1&sortBy=name", m.Location())
	m = press(t, m, "1")
	assert.Equal(t, "/admin/users?pageIndex=1&sortBy=name&sortDesc=true", m.Location())
	m = press(t, m, "1")
	assert.Equal(t, "/admin/users?pageIndex=1&sortBy=name", m.Location())
}

func TestBrowserLatestFetchWins(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "")

	first := m.query()
	require.NotNil(t, first)
	stale := first()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	m = next.(Model)
	fresh := cmd()

	next, _ = m.Update(fresh)
	m = next.(Model)
	freshRows := m.ctl.Snapshot().Rows

	next, _ = m.Update(stale)
	m = next.(Model)
	assert.Equal(t, freshRows, m.ctl.Snapshot().Rows)
	assert.Equal(t, []table.Sort{{ID: "name"}}, m.ctl.State().Sorting)
}

func TestBrowserDebouncedSearch(t *testing.T) {
	api := &fakeAPI{users: seedUsers(25)}
	m := newModel(api, "pageIndex=1")
	m = settle(t, m, m.query())

	m = press(t, m, "/")
	require.True(t, m.searching)
	for _, r := range "jan" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	assert.Len(t, api.fetches(), 1, "keystrokes alone never fetch")

	select {
	case v := <-m.ctl.Settled():
		next, cmd := m.Update(settledMsg(v))
		m = settle(t, next.(Model), cmd)
	case <-time.After(time.Second):
		t.Fatal("search never settled")
	}
	assert.Equal(t, "/admin/users?q=jan", m.Location(), "a new search resets the page")
	assert.Equal(t, "jan", api.fetches()[1].Search)
	assert.Contains(t, m.View(), "Jane Smith")
}

func TestBrowserSelectionRespectsPermission(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "")
	m = settle(t, m, m.query())

	m = press(t, m, " ")
	assert.Equal(t, 0, m.ctl.Selection().Len(), "the viewer's own row is not selectable")

	m = press(t, m, "j ")
	assert.Equal(t, []string{johnID}, m.ctl.Selection().IDs())

	m = press(t, m, "a")
	assert.ElementsMatch(t, []string{johnID, janeID}, m.ctl.Selection().IDs())
	m = press(t, m, "a")
	assert.Equal(t, 0, m.ctl.Selection().Len())
}

func TestBrowserBulkDeleteRefreshes(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "")
	m = settle(t, m, m.query())

	m = press(t, m, "D")
	assert.Equal(t, "Select at least one user.", m.notice)

	m = press(t, m, "a")
	m = press(t, m, "D")
	assert.Equal(t, actionBulkDelete, m.pending)
	m = press(t, m, "y")

	require.Len(t, api.bulk, 1)
	assert.ElementsMatch(t, []string{johnID, janeID}, api.bulk[0])
	assert.Equal(t, "2 users deleted.", m.notice)
	assert.Equal(t, 0, m.ctl.Selection().Len())
	assert.True(t, api.refresh[len(api.refresh)-1], "the list is refetched after a mutation")
}

func TestBrowserDeleteNeedsPermission(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "")
	m = settle(t, m, m.query())

	m = press(t, m, "d")
	assert.True(t, m.noticeErr)
	assert.Equal(t, actionNone, m.pending)

	m = press(t, m, "jdn")
	assert.Equal(t, actionNone, m.pending)
	assert.Empty(t, api.deleted)

	m = press(t, m, "dy")
	assert.Equal(t, []string{johnID}, api.deleted)
	assert.Equal(t, "User deleted.", m.notice)
}

func TestBrowserHistory(t *testing.T) {
	api := &fakeAPI{users: seedUsers(3)}
	m := newModel(api, "q=o")
	m = settle(t, m, m.query())

	m = press(t, m, "j\n")
	assert.True(t, strings.HasPrefix(m.Location(), "/admin/users/"))
	assert.Contains(t, m.View(), "@example.com")

	m = press(t, m, "[")
	assert.Equal(t, "/admin/users?q=o", m.Location())
	m = press(t, m, "]")
	assert.True(t, strings.HasPrefix(m.Location(), "/admin/users/"))
}

func TestNextPageSizeCycles(t *testing.T) {
	assert.Equal(t, 20, nextPageSize(10))
	assert.Equal(t, 10, nextPageSize(50))
	assert.Equal(t, 10, nextPageSize(7))
}
