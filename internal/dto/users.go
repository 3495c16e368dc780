package dto

import (
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
)

// PaginationInput is the requested page window. PageIndex is a pointer so that an absent value
// fails validation while zero passes.
type PaginationInput struct {
	PageIndex *int `json:"pageIndex" validate:"required,min=0"`
	PageSize  int  `json:"pageSize" validate:"required,gt=0"`
}

// SortInput is one ordering entry of a list request.
type SortInput struct {
	ID   string `json:"id" validate:"required,max=64"`
	Desc bool   `json:"desc"`
}

// ListUsersRequest is the body of POST /users/list.
type ListUsersRequest struct {
	Pagination *PaginationInput `json:"pagination" validate:"required"`
	Sorting    []SortInput      `json:"sorting" validate:"omitempty,max=5,dive"`
	Search     string           `json:"search" validate:"max=200"`
	Refresh    bool             `json:"refresh"`
}

// NewListUsersRequest builds a request from decoded table state.
func NewListUsersRequest(s table.State, refresh bool) ListUsersRequest {
	index := s.Pagination.PageIndex
	req := ListUsersRequest{
		Pagination: &PaginationInput{PageIndex: &index, PageSize: s.Pagination.PageSize},
		Search:     s.Search,
		Refresh:    refresh,
	}
	for _, sort := range s.Sorting {
		req.Sorting = append(req.Sorting, SortInput{ID: sort.ID, Desc: sort.Desc})
	}
	return req
}

// State converts a validated request to table state.
func (r ListUsersRequest) State() table.State {
	s := table.State{Search: r.Search}
	if r.Pagination != nil {
		s.Pagination.PageSize = r.Pagination.PageSize
		if r.Pagination.PageIndex != nil {
			s.Pagination.PageIndex = *r.Pagination.PageIndex
		}
	}
	for _, sort := range r.Sorting {
		s.Sorting = append(s.Sorting, table.Sort{ID: sort.ID, Desc: sort.Desc})
	}
	return s
}

// ListUsersResponse echoes the state actually served next to the rows.
type ListUsersResponse struct {
	Rows       []models.UserInfo `json:"rows"`
	RowCount   int               `json:"rowCount"`
	Pagination table.Pagination  `json:"pagination"`
	Sorting    []table.Sort      `json:"sorting"`
	Search     string            `json:"search"`
}

// UpdateUserRequest is the body of PUT /users/:id and the edit form.
type UpdateUserRequest struct {
	Name     string          `json:"name" form:"name" validate:"required,max=120"`
	Role     models.UserRole `json:"role" form:"role" validate:"required,oneof=super_admin admin user"`
	IsActive *bool           `json:"isActive" form:"isActive" validate:"required"`
}

// BulkDeleteRequest is the body of POST /users/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" form:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

// BulkDeleteResponse reports how many users were deactivated.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}
