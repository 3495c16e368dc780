// Package table keeps the pagination, sorting and search state of a server-backed table
// consistent with a URL query string, and derives everything a renderer needs from it.
package table

import (
	"math"
	"strings"
)

// Pagination is a zero-based page window.
type Pagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// Sort is one ordering entry. Only the first entry is honoured by the toggle helpers.
type Sort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// State fully determines a list request.
type State struct {
	Pagination Pagination `json:"pagination"`
	Sorting    []Sort     `json:"sorting,omitempty"`
	Search     string     `json:"search,omitempty"`
}

// Defaults describe what an absent parameter means.
type Defaults struct {
	PageSize    int
	MaxPageSize int
	// Sortable limits the column ids accepted from a URL. Empty accepts any id.
	Sortable []string
}

// Initial is the state of a freshly mounted table with no URL parameters.
func (d Defaults) Initial() State {
	return State{Pagination: Pagination{PageIndex: 0, PageSize: d.pageSize()}}
}

func (d Defaults) pageSize() int {
	if d.PageSize <= 0 {
		return 10
	}
	return d.PageSize
}

func (d Defaults) sortable(id string) bool {
	if len(d.Sortable) == 0 {
		return true
	}
	for _, s := range d.Sortable {
		if s == id {
			return true
		}
	}
	return false
}

// Normalize clamps a state into the range the defaults allow.
func (d Defaults) Normalize(s State) State {
	out := State{
		Pagination: s.Pagination,
		Search:     strings.TrimSpace(s.Search),
	}
	if out.Pagination.PageIndex < 0 {
		out.Pagination.PageIndex = 0
	}
	if out.Pagination.PageSize <= 0 {
		out.Pagination.PageSize = d.pageSize()
	}
	if d.MaxPageSize > 0 && out.Pagination.PageSize > d.MaxPageSize {
		out.Pagination.PageSize = d.MaxPageSize
	}
	for _, sort := range s.Sorting {
		id := strings.TrimSpace(sort.ID)
		if id == "" || !d.sortable(id) {
			continue
		}
		out.Sorting = []Sort{{ID: id, Desc: sort.Desc}}
		break
	}
	return out
}

// Equal compares two states field by field; nil and empty sorting are equal.
func (s State) Equal(o State) bool {
	if s.Pagination != o.Pagination || s.Search != o.Search || len(s.Sorting) != len(o.Sorting) {
		return false
	}
	for i := range s.Sorting {
		if s.Sorting[i] != o.Sorting[i] {
			return false
		}
	}
	return true
}

// Offset is the number of rows skipped before the current page. It saturates at math.MaxInt so
// an absurd page index reads past the end of the table instead of wrapping.
func (s State) Offset() int {
	index, size := s.Pagination.PageIndex, s.Pagination.PageSize
	if index <= 0 || size <= 0 {
		return 0
	}
	if index > math.MaxInt/size {
		return math.MaxInt
	}
	return index * size
}

// SortFor reports how the column is currently sorted.
func (s State) SortFor(id string) (sorted bool, desc bool) {
	for _, sort := range s.Sorting {
		if sort.ID == id {
			return true, sort.Desc
		}
	}
	return false, false
}

// WithPageIndex moves to another page; negative indexes mean the first page.
func (s State) WithPageIndex(index int) State {
	if index < 0 {
		index = 0
	}
	next := s.clone()
	next.Pagination.PageIndex = index
	return next
}

// WithPageSize changes the window size and returns to the first page.
func (s State) WithPageSize(size int) State {
	if size <= 0 {
		return s.clone()
	}
	next := s.clone()
	next.Pagination = Pagination{PageIndex: 0, PageSize: size}
	return next
}

// ToggleSort sorts by id ascending, or descending when it is already ascending.
func (s State) ToggleSort(id string) State {
	sorted, desc := s.SortFor(id)
	next := s.clone()
	next.Sorting = []Sort{{ID: id, Desc: sorted && !desc}}
	return next
}

// WithSearch commits a search value. The page index resets only when the committed value changes.
func (s State) WithSearch(search string) (State, bool) {
	search = strings.TrimSpace(search)
	next := s.clone()
	if search == s.Search {
		return next, false
	}
	next.Search = search
	next.Pagination.PageIndex = 0
	return next, true
}

func (s State) clone() State {
	out := s
	if s.Sorting != nil {
		out.Sorting = append([]Sort(nil), s.Sorting...)
	}
	return out
}

// PageCount is ceil(rowCount/pageSize), never less than one.
func PageCount(rowCount, pageSize int) int {
	if pageSize <= 0 || rowCount <= 0 {
		return 1
	}
	return (rowCount + pageSize - 1) / pageSize
}
