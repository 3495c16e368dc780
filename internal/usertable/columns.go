// Package usertable declares the columns of the users table and the rule deciding which rows a
// viewer may edit, delete or select.
package usertable

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
	"github.com/noah-isme/incident-admin/pkg/config"
)

// KeyPrefix namespaces cached pages of the users list.
const KeyPrefix = "users:list"

// SortFields are the column ids the list query accepts for ordering.
var SortFields = []string{"name", "email", "role", "isActive", "createdAt", "updatedAt"}

// DefaultSort applies when a request carries no sorting.
var DefaultSort = []table.Sort{{ID: "createdAt", Desc: true}}

// Viewer is the signed-in user looking at the table.
type Viewer struct {
	ID   string
	Role models.UserRole
}

// ViewerFromSession adapts a session.
func ViewerFromSession(s *models.Session) Viewer {
	if s == nil {
		return Viewer{}
	}
	return Viewer{ID: s.UserID, Role: s.Role}
}

// CanModify is the single permission rule for edit, delete and selection: only a super admin
// may act, never on their own record and never on another super admin.
func CanModify(viewer Viewer, row models.UserInfo) bool {
	return row.ID != viewer.ID &&
		row.Role != models.RoleSuperAdmin &&
		viewer.Role == models.RoleSuperAdmin
}

// CanManage reports whether the viewer may open the admin area at all.
func CanManage(role models.UserRole) bool {
	return role == models.RoleSuperAdmin || role == models.RoleAdmin
}

// Defaults returns the table defaults from configuration.
func Defaults(cfg config.TableConfig) table.Defaults {
	return table.Defaults{
		PageSize:    cfg.DefaultPageSize,
		MaxPageSize: cfg.MaxPageSize,
		Sortable:    SortFields,
	}
}

// Initials joins the upper-cased first letter of every word of name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// RoleTone maps a role to its badge colour.
func RoleTone(role models.UserRole) string {
	switch role {
	case models.RoleSuperAdmin:
		return "purple"
	case models.RoleAdmin:
		return "info"
	default:
		return "gray"
	}
}

// StatusBadge returns the label and colour of an activity badge.
func StatusBadge(active bool) (string, string) {
	if active {
		return "Active", "success"
	}
	return "Inactive", "danger"
}

// Build declares the users table columns for viewer. basePath prefixes row links.
func Build(viewer Viewer, basePath string) []table.Column[models.UserInfo] {
	return []table.Column[models.UserInfo]{
		{ID: "select", Kind: table.CellSelect, Width: 20},
		{
			ID: "name", Header: "Name", Kind: table.CellUser, Sortable: true, Width: 200,
			Cell: func(u models.UserInfo) table.Cell {
				return table.Cell{Text: u.Name, Detail: u.Email, Avatar: Initials(u.Name), Tone: RoleTone(u.Role)}
			},
		},
		{
			ID: "role", Header: "Role", Kind: table.CellBadge, Sortable: true, Width: 200,
			Cell: func(u models.UserInfo) table.Cell {
				label := u.Role.Label()
				if !u.Role.Valid() {
					label = models.RoleUser.Label()
				}
				return table.Cell{Text: label, Tone: RoleTone(u.Role)}
			},
		},
		{
			ID: "isActive", Header: "Status", Kind: table.CellBadge, Sortable: true, Width: 120,
			Cell: func(u models.UserInfo) table.Cell {
				label, tone := StatusBadge(u.IsActive)
				return table.Cell{Text: label, Tone: tone}
			},
		},
		{
			ID: "createdAt", Header: "Joined", Kind: table.CellText, Sortable: true, Width: 120,
			Cell: func(u models.UserInfo) table.Cell {
				return table.Cell{Text: u.CreatedAt.Format("2006-01-02")}
			},
		},
		{
			ID: "actions", Header: "Actions", Kind: table.CellActions, Width: 150,
			Cell: func(u models.UserInfo) table.Cell {
				allowed := CanModify(viewer, u)
				link := strings.TrimSuffix(basePath, "/") + "/" + u.ID
				return table.Cell{Actions: []table.Action{
					{ID: "view", Label: "View", Href: link, Method: "GET", Enabled: true},
					{ID: "edit", Label: "Edit", Href: link + "/edit", Method: "GET", Enabled: allowed},
					{ID: "delete", Label: "Delete", Href: link + "/delete", Method: "POST", Enabled: allowed},
				}}
			},
		},
	}
}

// Input assembles a render input for a page of users.
func Input(viewer Viewer, basePath string, rows []models.UserInfo, rowCount int, state table.State, defaults table.Defaults) table.Input[models.UserInfo] {
	return table.Input[models.UserInfo]{
		Columns:  Build(viewer, basePath),
		Rows:     rows,
		RowCount: rowCount,
		State:    state,
		Defaults: defaults,
		RowID:    func(u models.UserInfo) string { return u.ID },
		Eligible: func(u models.UserInfo) bool { return CanModify(viewer, u) },
	}
}
