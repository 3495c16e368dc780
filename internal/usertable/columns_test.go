package usertable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/repository"
	"github.com/noah-isme/incident-admin/internal/table"
)

var (
	superAdmin = models.UserInfo{ID: "sa", Name: "Super Admin", Role: models.RoleSuperAdmin, IsActive: true}
	admin      = models.UserInfo{ID: "ad", Name: "Admin User", Role: models.RoleAdmin, IsActive: true}
	john       = models.UserInfo{ID: "jd", Name: "John Doe", Role: models.RoleUser, IsActive: true}
	inactive   = models.UserInfo{ID: "in", Name: "Inactive User", Role: models.RoleUser}
)

func TestCanModify(t *testing.T) {
	sa := Viewer{ID: superAdmin.ID, Role: models.RoleSuperAdmin}
	ad := Viewer{ID: admin.ID, Role: models.RoleAdmin}

	assert.True(t, CanModify(sa, admin))
	assert.True(t, CanModify(sa, john))
	assert.False(t, CanModify(sa, superAdmin), "own record")
	assert.False(t, CanModify(sa, models.UserInfo{ID: "other", Role: models.RoleSuperAdmin}))

	assert.False(t, CanModify(ad, superAdmin))
	assert.False(t, CanModify(ad, john))
	assert.False(t, CanModify(Viewer{}, john))
}

func TestAdminCannotDeleteSuperAdminRow(t *testing.T) {
	viewer := Viewer{ID: admin.ID, Role: models.RoleAdmin}
	in := Input(viewer, "/admin/users", []models.UserInfo{superAdmin}, 1, table.State{Pagination: table.Pagination{PageSize: 10}}, table.Defaults{PageSize: 10})
	sel := table.NewSelection()
	in.Selection = sel

	sel.Toggle(superAdmin.ID, in.Eligible(superAdmin))
	v := table.Render(in)

	require.Len(t, v.Rows, 1)
	row := v.Rows[0]
	assert.False(t, row.Eligible)
	assert.False(t, row.Selected)
	for _, cell := range row.Cells {
		if cell.Kind != table.CellActions {
			continue
		}
		for _, a := range cell.Actions {
			if a.ID == "delete" || a.ID == "edit" {
				assert.False(t, a.Enabled, a.ID)
			}
		}
	}
}

func TestPredicateIsSharedBySelectionAndActions(t *testing.T) {
	viewer := Viewer{ID: superAdmin.ID, Role: models.RoleSuperAdmin}
	rows := []models.UserInfo{superAdmin, admin, john, inactive}
	in := Input(viewer, "/admin/users", rows, len(rows), table.State{Pagination: table.Pagination{PageSize: 10}}, table.Defaults{PageSize: 10})
	v := table.Render(in)

	for _, r := range v.Rows {
		var canDelete, canEdit bool
		for _, cell := range r.Cells {
			for _, a := range cell.Actions {
				switch a.ID {
				case "delete":
					canDelete = a.Enabled
				case "edit":
					canEdit = a.Enabled
				}
			}
			if cell.Kind == table.CellSelect {
				assert.Equal(t, r.Eligible, cell.Enabled)
			}
		}
		assert.Equal(t, r.Eligible, canDelete, r.ID)
		assert.Equal(t, r.Eligible, canEdit, r.ID)
	}
}

func TestCellFormatting(t *testing.T) {
	cols := Build(Viewer{}, "/admin/users/")
	byID := map[string]table.Column[models.UserInfo]{}
	for _, c := range cols {
		byID[c.ID] = c
	}

	name := byID["name"].Cell(superAdmin)
	assert.Equal(t, "SA", name.Avatar)
	assert.Equal(t, "purple", name.Tone)

	assert.Equal(t, "Admin", byID["role"].Cell(admin).Text)
	assert.Equal(t, "Inactive", byID["isActive"].Cell(inactive).Text)
	assert.Equal(t, "danger", byID["isActive"].Cell(inactive).Tone)

	actions := byID["actions"].Cell(john).Actions
	require.Len(t, actions, 3)
	assert.Equal(t, "/admin/users/jd", actions[0].Href)
	assert.True(t, actions[0].Enabled, "view is always allowed")
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", Initials("john doe"))
	assert.Equal(t, "É", Initials("  élodie "))
	assert.Equal(t, "", Initials(""))
}

func TestSortableColumnsAreAcceptedByRepository(t *testing.T) {
	for _, id := range table.SortableIDs(Build(Viewer{}, "/admin/users")) {
		assert.Contains(t, SortFields, id)
		_, ok := repository.UserSortColumns[id]
		assert.True(t, ok, id)
	}
	for _, id := range SortFields {
		_, ok := repository.UserSortColumns[id]
		assert.True(t, ok, id)
	}
}
