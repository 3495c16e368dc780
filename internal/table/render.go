package table

import (
	"net/url"
)

// CellKind tells a renderer how to draw a cell.
type CellKind string

const (
	CellText    CellKind = "text"
	CellUser    CellKind = "user"
	CellBadge   CellKind = "badge"
	CellActions CellKind = "actions"
	CellSelect  CellKind = "select"
)

// Action is a row-level operation such as view, edit or delete.
type Action struct {
	ID      string
	Label   string
	Href    string
	Method  string
	Enabled bool
}

// Cell is a formatted value. Which fields matter depends on Kind.
type Cell struct {
	Kind    CellKind
	Text    string
	Detail  string
	Avatar  string
	Tone    string
	Actions []Action
	Checked bool
	Enabled bool
}

// Column describes one table column over rows of type T.
type Column[T any] struct {
	ID       string
	Header   string
	Kind     CellKind
	Sortable bool
	// Width is a relative width used for headers and loading placeholders.
	Width int
	Cell  func(row T) Cell
}

// SortableIDs lists the ids of sortable columns.
func SortableIDs[T any](columns []Column[T]) []string {
	var ids []string
	for _, col := range columns {
		if col.Sortable {
			ids = append(ids, col.ID)
		}
	}
	return ids
}

// BodyState is the mutually exclusive state of the table body.
type BodyState string

const (
	BodyLoading   BodyState = "loading"
	BodyError     BodyState = "error"
	BodyEmpty     BodyState = "empty"
	BodyPopulated BodyState = "populated"
)

// maxSkeletonRows caps loading placeholders for large page sizes.
const maxSkeletonRows = 10

// Input is everything Render needs. It holds no callbacks: every mutation is a link or key.
type Input[T any] struct {
	Columns   []Column[T]
	Rows      []T
	RowCount  int
	State     State
	Defaults  Defaults
	Loading   bool
	Err       error
	RowID     func(row T) string
	Eligible  func(row T) bool
	Selection *Selection
	// Path and Query build hrefs; unrelated query parameters survive.
	Path  string
	Query url.Values
}

// HeaderView is one column header with its sort affordance.
type HeaderView struct {
	ID         string
	Label      string
	Kind       CellKind
	Width      int
	Sortable   bool
	Sorted     bool
	Desc       bool
	ToggleHref string
}

// RowView is one rendered row.
type RowView struct {
	ID       string
	Cells    []Cell
	Selected bool
	Eligible bool
}

// PageSizeOption is one entry of the page size picker.
type PageSizeOption struct {
	Size     int
	Href     string
	Selected bool
}

// PaginationView holds the pager: position, counts and the links to move.
type PaginationView struct {
	PageIndex int
	PageCount int
	PageSize  int
	RowCount  int
	From      int
	To        int
	HasPrev   bool
	HasNext   bool
	FirstHref string
	PrevHref  string
	NextHref  string
	LastHref  string
	Sizes     []PageSizeOption
}

// View is a complete table frame.
type View struct {
	Headers       []HeaderView
	Rows          []RowView
	Body          BodyState
	SkeletonRows  int
	ErrMessage    string
	RefreshHref   string
	SelectAll     HeaderState
	SelectedCount int
	Pagination    PaginationView
}

// PageSizes offered by the pagination control.
var PageSizes = []int{10, 20, 30, 50}

// Render derives the presentation model for one table frame.
func Render[T any](in Input[T]) View {
	state := in.Defaults.Normalize(in.State)
	sel := in.Selection
	if sel == nil {
		sel = NewSelection()
	}
	href := func(s State) string {
		q := Merge(in.Query, s, in.Defaults).Encode()
		if q == "" {
			return in.Path
		}
		return in.Path + "?" + q
	}

	view := View{}
	for _, col := range in.Columns {
		h := HeaderView{ID: col.ID, Label: col.Header, Kind: col.Kind, Width: col.Width, Sortable: col.Sortable}
		if col.Sortable {
			h.Sorted, h.Desc = state.SortFor(col.ID)
			h.ToggleHref = href(state.ToggleSort(col.ID))
		}
		view.Headers = append(view.Headers, h)
	}

	var eligible []string
	for _, row := range in.Rows {
		id := in.RowID(row)
		ok := in.Eligible == nil || in.Eligible(row)
		if ok {
			eligible = append(eligible, id)
		}
		rv := RowView{ID: id, Eligible: ok, Selected: sel.Selected(id)}
		for _, col := range in.Columns {
			var cell Cell
			if col.Kind == CellSelect {
				cell = Cell{Kind: CellSelect, Checked: rv.Selected, Enabled: ok}
			} else if col.Cell != nil {
				cell = col.Cell(row)
				if cell.Kind == "" {
					cell.Kind = col.Kind
				}
			}
			rv.Cells = append(rv.Cells, cell)
		}
		view.Rows = append(view.Rows, rv)
	}
	view.SelectAll = sel.Header(eligible)
	for _, id := range eligible {
		if sel.Selected(id) {
			view.SelectedCount++
		}
	}

	switch {
	case in.Loading:
		view.Body = BodyLoading
		view.SkeletonRows = state.Pagination.PageSize
		if view.SkeletonRows > maxSkeletonRows {
			view.SkeletonRows = maxSkeletonRows
		}
	case in.Err != nil:
		view.Body = BodyError
		view.ErrMessage = in.Err.Error()
	case len(in.Rows) == 0:
		view.Body = BodyEmpty
	default:
		view.Body = BodyPopulated
	}
	view.RefreshHref = href(state)

	view.Pagination = paginate(state, in.RowCount, len(in.Rows), href)
	return view
}

func paginate(state State, rowCount, shown int, href func(State) string) PaginationView {
	size := state.Pagination.PageSize
	pages := PageCount(rowCount, size)
	p := PaginationView{
		PageIndex: state.Pagination.PageIndex,
		PageCount: pages,
		PageSize:  size,
		RowCount:  rowCount,
		HasPrev:   state.Pagination.PageIndex > 0,
		HasNext:   state.Pagination.PageIndex+1 < pages,
	}
	if shown > 0 {
		p.From = state.Offset() + 1
		p.To = state.Offset() + shown
	}
	p.FirstHref = href(state.WithPageIndex(0))
	p.LastHref = href(state.WithPageIndex(pages - 1))
	if p.HasPrev {
		p.PrevHref = href(state.WithPageIndex(state.Pagination.PageIndex - 1))
	}
	if p.HasNext {
		p.NextHref = href(state.WithPageIndex(state.Pagination.PageIndex + 1))
	}
	for _, n := range PageSizes {
		p.Sizes = append(p.Sizes, PageSizeOption{Size: n, Href: href(state.WithPageSize(n)), Selected: n == size})
	}
	return p
}
