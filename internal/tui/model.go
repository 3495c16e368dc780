// Package tui is a terminal browser for the users table. It drives the same table controller as
// the web pages: the location is an in-memory history and every fetch goes through the API.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/internal/usertable"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

// Route is the location of the users list.
const Route = "/admin/users"

const requestTimeout = 15 * time.Second

// API is what the browser needs from the server.
type API interface {
	FetchPage(ctx context.Context, state table.State, refresh bool) (table.Page[models.UserInfo], error)
	DeleteUser(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

// Config configures a Model.
type Config struct {
	Viewer   usertable.Viewer
	Defaults table.Defaults
	Debounce time.Duration
	// Query seeds the location, e.g. "q=jane&pageIndex=1".
	Query url.Values
}

type pageMsg struct {
	req  table.Request
	page table.Page[models.UserInfo]
	err  error
}

type settledMsg string

type deletedMsg struct {
	count int
	err   error
}

type pendingAction int

const (
	actionNone pendingAction = iota
	actionDelete
	actionBulkDelete
)

// Model is the bubbletea model of the browser.
type Model struct {
	api      API
	ctl      *table.Controller[models.UserInfo]
	history  *table.History
	viewer   usertable.Viewer
	defaults table.Defaults
	columns  []table.Column[models.UserInfo]
	sortIDs  []string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	search  textinput.Model
	styles  styles

	searching bool
	cursor    int
	pending   pendingAction
	target    *models.UserInfo
	notice    string
	noticeErr bool
	width     int
}

// New creates a browser over api.
func New(api API, cfg Config) Model {
	history := table.NewHistory(Route, cfg.Query)
	columns := usertable.Build(cfg.Viewer, Route)

	search := textinput.New()
	search.Placeholder = "Search by name or email"
	search.Prompt = "/ "
	search.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:     api,
		history: history,
		ctl: table.NewController(table.ControllerConfig[models.UserInfo]{
			Route:     Route,
			KeyPrefix: usertable.KeyPrefix,
			Defaults:  cfg.Defaults,
			Debounce:  cfg.Debounce,
			Navigator: history,
		}),
		viewer:   cfg.Viewer,
		defaults: cfg.Defaults,
		columns:  columns,
		sortIDs:  table.SortableIDs(columns),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		search:   search,
		styles:   defaultStyles(),
	}
}

// Location is the current in-memory URL.
func (m Model) Location() string {
	route, query := m.history.Location()
	if enc := query.Encode(); enc != "" {
		return route + "?" + enc
	}
	return route
}

func (m Model) Init() tea.Cmd {
	m.ctl.Mount()
	return tea.Batch(m.query(), m.waitSettled(), m.spinner.Tick)
}

func (m Model) waitSettled() tea.Cmd {
	ch := m.ctl.Settled()
	return func() tea.Msg {
		return settledMsg(<-ch)
	}
}

func (m Model) fetch(req table.Request, refresh bool) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := api.FetchPage(ctx, req.State, refresh)
		return pageMsg{req: req, page: page, err: err}
	}
}

// query issues a fetch when the current state has no cached page.
func (m Model) query() tea.Cmd {
	req, ok := m.ctl.Query()
	if !ok {
		return nil
	}
	return m.fetch(req, false)
}

func (m Model) refresh() tea.Cmd {
	req, _ := m.ctl.Refresh()
	return m.fetch(req, true)
}

func (m Model) rows() []models.UserInfo {
	return m.ctl.Snapshot().Rows
}

func (m Model) cursorRow() (models.UserInfo, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return models.UserInfo{}, false
	}
	return rows[m.cursor], true
}

func (m Model) eligibleIDs() []string {
	var ids []string
	for _, row := range m.rows() {
		if usertable.CanModify(m.viewer, row) {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice, m.noticeErr = text, isErr
}

// onDetail reports whether the location is a user detail page.
func (m Model) onDetail() bool {
	route, _ := m.history.Location()
	return route != Route
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settledMsg:
		cmds := []tea.Cmd{m.waitSettled()}
		if m.ctl.CommitSearch(string(msg)) {
			m.cursor = 0
			cmds = append(cmds, m.query())
		}
		return m, tea.Batch(cmds...)

	case pageMsg:
		if m.ctl.Receive(msg.req, msg.page, msg.err) {
			if n := len(m.rows()); m.cursor >= n {
				m.cursor = max(n-1, 0)
			}
			// a clamped page index changes the state, which may need its own page
			return m, m.query()
		}
		return m, nil

	case deletedMsg:
		m.pending, m.target = actionNone, nil
		if msg.err != nil {
			m.setNotice(appErrors.FromError(msg.err).Message, true)
			return m, nil
		}
		m.ctl.Selection().Clear()
		m.ctl.InvalidateAll()
		if msg.count == 1 {
			m.setNotice("User deleted.", false)
		} else {
			m.setNotice(fmt.Sprintf("%d users deleted.", msg.count), false)
		}
		return m, m.refresh()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.pending != actionNone {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.ctl.SetSearchInput(m.search.Value())
		if m.ctl.CommitSearch(m.search.Value()) {
			m.cursor = 0
			return m, m.query()
		}
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.ctl.SetSearchInput(m.search.Value())
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		api := m.api
		switch m.pending {
		case actionDelete:
			id := m.target.ID
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				if err := api.DeleteUser(ctx, id); err != nil {
					return deletedMsg{err: err}
				}
				return deletedMsg{count: 1}
			}
		case actionBulkDelete:
			ids := m.ctl.Selection().IDs()
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				n, err := api.BulkDelete(ctx, ids)
				return deletedMsg{count: n, err: err}
			}
		}
	case key.Matches(msg, m.keys.Cancel):
		m.pending, m.target = actionNone, nil
		m.setNotice("", false)
	}
	return m, nil
}

func (m Model) changed(ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	m.cursor = 0
	return m, m.query()
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctl.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		if m.history.Back() {
			m.ctl.SyncFromLocation()
			return m, m.query()
		}
		return m, nil
	case key.Matches(msg, m.keys.Forward):
		if m.history.Forward() {
			m.ctl.SyncFromLocation()
			return m, m.query()
		}
		return m, nil
	}

	if m.onDetail() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.ctl.Snapshot().Input)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Next):
		return m.changed(m.ctl.NextPage())
	case key.Matches(msg, m.keys.Prev):
		return m.changed(m.ctl.PrevPage())
	case key.Matches(msg, m.keys.First):
		return m.changed(m.ctl.FirstPage())
	case key.Matches(msg, m.keys.Last):
		return m.changed(m.ctl.LastPage())
	case key.Matches(msg, m.keys.Sort):
		idx := int(msg.Runes[0] - '1')
		if idx < 0 || idx >= len(m.sortIDs) {
			return m, nil
		}
		return m.changed(m.ctl.ToggleSort(m.sortIDs[idx]))
	case key.Matches(msg, m.keys.Size):
		return m.changed(m.ctl.SetPageSize(nextPageSize(m.ctl.State().Pagination.PageSize)))
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if row, ok := m.cursorRow(); ok {
			m.ctl.Selection().Toggle(row.ID, usertable.CanModify(m.viewer, row))
		}
	case key.Matches(msg, m.keys.All):
		m.ctl.Selection().ToggleAll(m.eligibleIDs())
	case key.Matches(msg, m.keys.Delete):
		row, ok := m.cursorRow()
		if !ok {
			return m, nil
		}
		if !usertable.CanModify(m.viewer, row) {
			m.setNotice("You are not allowed to delete this user.", true)
			return m, nil
		}
		m.pending, m.target = actionDelete, &row
		m.setNotice(fmt.Sprintf("Delete %s? (y/n)", row.Name), false)
	case key.Matches(msg, m.keys.Bulk):
		n := m.ctl.Selection().Len()
		if n == 0 {
			m.setNotice("Select at least one user.", true)
			return m, nil
		}
		m.pending = actionBulkDelete
		m.setNotice(fmt.Sprintf("Delete %d selected users? (y/n)", n), false)
	case key.Matches(msg, m.keys.Refresh):
		m.setNotice("", false)
		return m, m.refresh()
	case key.Matches(msg, m.keys.Open):
		if row, ok := m.cursorRow(); ok {
			m.history.Push(Route+"/"+row.ID, nil)
		}
	}
	return m, nil
}

func nextPageSize(current int) int {
	for i, size := range table.PageSizes {
		if size == current {
			return table.PageSizes[(i+1)%len(table.PageSizes)]
		}
	}
	return table.PageSizes[0]
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Users"))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(m.Location()))
	b.WriteString("\n\n")

	if m.onDetail() {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.listView())
	}

	if m.notice != "" {
		style := m.styles.Notice
		if m.noticeErr {
			style = m.styles.Error
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) detailView() string {
	route, _ := m.history.Location()
	id := strings.TrimPrefix(route, Route+"/")
	var user *models.UserInfo
	for _, row := range m.rows() {
		if row.ID == id {
			user = &row
			break
		}
	}
	if user == nil {
		return m.styles.Error.Render("User not found.") + "\n"
	}
	status, statusTone := usertable.StatusBadge(user.IsActive)
	lines := []string{
		m.styles.Title.Render(usertable.Initials(user.Name) + "  " + user.Name),
		user.Email,
		"Role:    " + tone(usertable.RoleTone(user.Role)).Render(user.Role.Label()),
		"Status:  " + tone(statusTone).Render(status),
		"Joined:  " + user.CreatedAt.Format("2006-01-02"),
		"Updated: " + user.UpdatedAt.Format("2006-01-02 15:04"),
	}
	return m.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) listView() string {
	snap := m.ctl.Snapshot()
	in := usertable.Input(m.viewer, Route, snap.Rows, snap.RowCount, snap.State, m.defaults)
	in.Loading = snap.Loading && len(snap.Rows) == 0
	in.Err = snap.Err
	in.Selection = m.ctl.Selection()
	view := table.Render(in)

	var b strings.Builder
	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(m.styles.Muted.Render("search: "))
		b.WriteString(snap.Input)
	}
	if snap.Loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderTable(view))

	p := view.Pagination
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Page %d of %d · %d users · %d per page · %d selected",
		p.PageIndex+1, max(p.PageCount, 1), p.RowCount, p.PageSize, view.SelectedCount)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTable(view table.View) string {
	var b strings.Builder
	widths := make([]int, len(view.Headers))
	for i, h := range view.Headers {
		widths[i] = max(h.Width/8, 4)
		label := h.Label
		switch {
		case h.Kind == table.CellSelect:
			label = selectMark(view.SelectAll)
		case h.Sortable:
			label = fmt.Sprintf("%d %s", indexOf(m.sortIDs, h.ID)+1, label)
			if h.Sorted && h.Desc {
				label += " ▼"
			} else if h.Sorted {
				label += " ▲"
			}
		}
		b.WriteString(m.styles.Header.Render(pad(label, widths[i])))
		b.WriteString(" ")
	}
	b.WriteString("\n")

	switch view.Body {
	case table.BodyLoading:
		for i := 0; i < view.SkeletonRows; i++ {
			for _, w := range widths {
				b.WriteString(m.styles.Skeleton.Render(strings.Repeat("░", w)))
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
	case table.BodyError:
		b.WriteString(m.styles.Error.Render(view.ErrMessage))
		b.WriteString(m.styles.Muted.Render("  press r to try again"))
		b.WriteString("\n")
	case table.BodyEmpty:
		b.WriteString(m.styles.Muted.Render("No users found."))
		b.WriteString("\n")
	default:
		for i, row := range view.Rows {
			var line strings.Builder
			for j, cell := range row.Cells {
				line.WriteString(m.renderCell(cell, widths[j]))
				line.WriteString(" ")
			}
			if i == m.cursor {
				b.WriteString(m.styles.Cursor.Render(line.String()))
			} else {
				b.WriteString(line.String())
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderCell(cell table.Cell, width int) string {
	switch cell.Kind {
	case table.CellSelect:
		if !cell.Enabled {
			return pad(" - ", width)
		}
		if cell.Checked {
			return pad("[x]", width)
		}
		return pad("[ ]", width)
	case table.CellUser:
		return pad(cell.Avatar+" "+cell.Text+" <"+cell.Detail+">", width)
	case table.CellBadge:
		return tone(cell.Tone).Render(pad(cell.Text, width))
	case table.CellActions:
		var labels []string
		for _, a := range cell.Actions {
			if a.Enabled {
				labels = append(labels, a.Label)
			}
		}
		return pad(strings.Join(labels, "/"), width)
	}
	return pad(cell.Text, width)
}

func selectMark(h table.HeaderState) string {
	switch h {
	case table.Checked:
		return "[x]"
	case table.Indeterminate:
		return "[-]"
	}
	return "[ ]"
}

// pad truncates or right-pads s to exactly width cells.
func pad(s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		return string(r) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
