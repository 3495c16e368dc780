package table

import "sort"

// HeaderState is the tri-state of a select-all checkbox.
type HeaderState int

const (
	Unchecked HeaderState = iota
	Indeterminate
	Checked
)

func (h HeaderState) String() string {
	switch h {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Selection is a set of row ids. Only eligible rows can enter it.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

// Toggle flips one row; ineligible rows are ignored.
func (s *Selection) Toggle(id string, eligible bool) bool {
	if !eligible {
		return false
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// ToggleAll selects every eligible row, or clears them when all are already selected.
func (s *Selection) ToggleAll(eligible []string) {
	if s.Header(eligible) == Checked {
		for _, id := range eligible {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range eligible {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Selected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Header computes the select-all state over the eligible rows on screen.
func (s *Selection) Header(eligible []string) HeaderState {
	if len(eligible) == 0 {
		return Unchecked
	}
	n := 0
	for _, id := range eligible {
		if s.Selected(id) {
			n++
		}
	}
	switch {
	case n == 0:
		return Unchecked
	case n == len(eligible):
		return Checked
	default:
		return Indeterminate
	}
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) Clear() {
	s.ids = map[string]struct{}{}
}
