package table

import (
	"net/url"
	"sync"
)

// Navigator is the location a controller reads from and writes to.
type Navigator interface {
	Location() (route string, query url.Values)
	Replace(route string, query url.Values)
}

type entry struct {
	route string
	query url.Values
}

// History is an in-memory browser-style history stack.
type History struct {
	mu      sync.Mutex
	entries []entry
	current int
}

// NewHistory starts a stack with a single entry.
func NewHistory(route string, query url.Values) *History {
	return &History{entries: []entry{{route: route, query: copyValues(query)}}}
}

// Location returns the current entry.
func (h *History) Location() (string, url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.entries[h.current]
	return e.route, copyValues(e.query)
}

// Push adds an entry after the current one and discards any forward entries.
func (h *History) Push(route string, query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.current+1], entry{route: route, query: copyValues(query)})
	h.current = len(h.entries) - 1
}

// Replace overwrites the current entry without growing the stack.
func (h *History) Replace(route string, query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.current] = entry{route: route, query: copyValues(query)}
}

// Back moves to the previous entry, reporting false at the start.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == 0 {
		return false
	}
	h.current--
	return true
}

// Forward moves to the next entry, reporting false at the end.
func (h *History) Forward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current >= len(h.entries)-1 {
		return false
	}
	h.current++
	return true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func copyValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
