package web

import (
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
)

// Page carries what the layout needs on every page.
type Page struct {
	Title       string
	AppName     string
	User        *models.UserInfo
	CanManage   bool
	Notice      string
	NoticeError bool
}

type LoginPage struct {
	Page
	Redirect string
	Email    string
}

type DashboardPage struct {
	Page
	RoleTone string
}

// TableFragment is the data of the users table partial. OOB marks a fragment response that
// also refreshes the hidden search-form parameters.
type TableFragment struct {
	View        table.View
	Params      map[string]string
	BulkEnabled bool
	OOB         bool
}

type UsersPage struct {
	Page
	Search        string
	DebounceMS    int64
	ExportCSVHref string
	ExportPDFHref string
	Table         TableFragment
}

type UserDetailPage struct {
	Page
	Target      models.UserInfo
	BackHref    string
	Initials    string
	RoleTone    string
	StatusLabel string
	StatusTone  string
	CanModify   bool
}

type UserForm struct {
	Name     string
	Role     models.UserRole
	IsActive bool
}

type UserEditPage struct {
	Page
	Target models.UserInfo
	Form   UserForm
	Roles  []models.UserRole
}

type ErrorPage struct {
	Page
	Heading  string
	Message  string
	BackHref string
}
