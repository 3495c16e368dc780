package table

import (
	"sync"
	"time"
)

// Page is one fetched window plus the state the server actually served.
type Page[T any] struct {
	Rows     []T
	RowCount int
	Served   State
}

// Request identifies one fetch. Seq orders requests so only the newest is accepted.
type Request struct {
	Key   string
	State State
	Seq   uint64
}

// Snapshot is a consistent read of the controller for rendering.
type Snapshot[T any] struct {
	State     State
	Input     string
	Key       string
	Rows      []T
	RowCount  int
	PageCount int
	Loading   bool
	Err       error
	Mounted   bool
}

// ControllerConfig wires a controller to its route, navigator and cache.
type ControllerConfig[T any] struct {
	Route     string
	KeyPrefix string
	Defaults  Defaults
	Debounce  time.Duration
	Navigator Navigator
	Cache     *QueryCache[Page[T]]
}

// Controller owns a table's state. The URL is the persisted copy: user actions write it with
// Replace, external navigation is pulled in by SyncFromLocation and never written back.
type Controller[T any] struct {
	mu sync.Mutex

	route     string
	keyPrefix string
	defaults  Defaults
	nav       Navigator
	cache     *QueryCache[Page[T]]
	debouncer *Debouncer
	settled   chan string

	mounted   bool
	state     State
	input     string
	seq       uint64
	inflight  *Request
	page      Page[T]
	hasPage   bool
	err       error
	selection *Selection
}

// NewController builds an unmounted controller. Call Mount before any other method.
func NewController[T any](cfg ControllerConfig[T]) *Controller[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Cache == nil {
		cfg.Cache = NewQueryCache[Page[T]](64, 0)
	}
	c := &Controller[T]{
		route:     cfg.Route,
		keyPrefix: cfg.KeyPrefix,
		defaults:  cfg.Defaults,
		nav:       cfg.Navigator,
		cache:     cfg.Cache,
		settled:   make(chan string, 1),
		state:     cfg.Defaults.Initial(),
		selection: NewSelection(),
	}
	c.debouncer = NewDebouncer(cfg.Debounce, c.deliver)
	return c
}

// deliver keeps only the newest settled value in the channel.
func (c *Controller[T]) deliver(value string) {
	for {
		select {
		case c.settled <- value:
			return
		default:
		}
		select {
		case <-c.settled:
		default:
		}
	}
}

// drainSettled discards a settled value nobody has consumed yet.
func (c *Controller[T]) drainSettled() {
	select {
	case <-c.settled:
	default:
	}
}

// Settled yields debounced search values. Pass each one to CommitSearch.
func (c *Controller[T]) Settled() <-chan string {
	return c.settled
}

// Mount seeds state from the current location once. It never writes the location.
func (c *Controller[T]) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted {
		return
	}
	_, query := c.nav.Location()
	c.state = Decode(query, c.defaults)
	c.input = c.state.Search
	c.mounted = true
}

// Unmount cancels pending work and forgets everything but the URL.
func (c *Controller[T]) Unmount() {
	c.debouncer.Cancel()
	c.drainSettled()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = false
	c.state = c.defaults.Initial()
	c.input = ""
	c.inflight = nil
	c.page = Page[T]{}
	c.hasPage = false
	c.err = nil
	c.selection.Clear()
}

// Close stops the debouncer for good.
func (c *Controller[T]) Close() {
	c.debouncer.Stop()
}

// SetPageIndex jumps to a page.
func (c *Controller[T]) SetPageIndex(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(c.state.WithPageIndex(index))
}

// SetPageSize changes the window size and returns to the first page.
func (c *Controller[T]) SetPageSize(size int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(c.state.WithPageSize(size))
}

// NextPage advances unless the last known page is showing.
func (c *Controller[T]) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Pagination.PageIndex+1 >= c.pageCountLocked() {
		return false
	}
	return c.applyLocked(c.state.WithPageIndex(c.state.Pagination.PageIndex + 1))
}

// PrevPage steps back unless the first page is showing.
func (c *Controller[T]) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Pagination.PageIndex == 0 {
		return false
	}
	return c.applyLocked(c.state.WithPageIndex(c.state.Pagination.PageIndex - 1))
}

// FirstPage jumps to page zero.
func (c *Controller[T]) FirstPage() bool {
	return c.SetPageIndex(0)
}

// LastPage jumps to the last page of the last received row count.
func (c *Controller[T]) LastPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(c.state.WithPageIndex(c.pageCountLocked() - 1))
}

// ToggleSort sorts by a sortable column, flipping the direction on repeat.
func (c *Controller[T]) ToggleSort(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.defaults.sortable(id) {
		return false
	}
	return c.applyLocked(c.state.ToggleSort(id))
}

// SetSearchInput records a keystroke. The value reaches the state only after the debounce window.
func (c *Controller[T]) SetSearchInput(raw string) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.input = raw
	c.mu.Unlock()
	c.debouncer.Trigger(raw)
}

// CommitSearch applies a settled search value.
func (c *Controller[T]) CommitSearch(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, changed := c.state.WithSearch(value)
	if !changed {
		return false
	}
	return c.applyLocked(next)
}

// SyncFromLocation pulls an externally changed location into the state.
func (c *Controller[T]) SyncFromLocation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return false
	}
	route, query := c.nav.Location()
	if route != c.route {
		return false
	}
	next := Decode(query, c.defaults)
	if next.Equal(c.state) {
		return false
	}
	c.debouncer.Cancel()
	c.drainSettled()
	c.setStateLocked(next)
	c.input = next.Search
	return true
}

func (c *Controller[T]) applyLocked(next State) bool {
	if !c.mounted {
		return false
	}
	next = c.defaults.Normalize(next)
	if next.Equal(c.state) {
		return false
	}
	c.setStateLocked(next)
	if route, query := c.nav.Location(); route == c.route {
		c.nav.Replace(c.route, Merge(query, next, c.defaults))
	}
	return true
}

func (c *Controller[T]) setStateLocked(next State) {
	if QueryKey(c.keyPrefix, next) != QueryKey(c.keyPrefix, c.state) {
		c.selection.Clear()
	}
	c.state = next
}

// Query returns the request needed for the current state. It returns false when the page is
// cached or the same key is already in flight.
func (c *Controller[T]) Query() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Request{}, false
	}
	key := QueryKey(c.keyPrefix, c.state)
	if page, ok := c.cache.Get(key); ok {
		c.inflight = nil
		c.page, c.hasPage, c.err = page, true, nil
		return Request{}, false
	}
	if c.inflight != nil && c.inflight.Key == key {
		return Request{}, false
	}
	return c.issueLocked(key), true
}

// Refresh drops the cached page for the current key and always issues a new request.
func (c *Controller[T]) Refresh() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return Request{}, false
	}
	key := QueryKey(c.keyPrefix, c.state)
	c.cache.InvalidateKey(key)
	return c.issueLocked(key), true
}

func (c *Controller[T]) issueLocked(key string) Request {
	c.seq++
	req := Request{Key: key, State: c.state, Seq: c.seq}
	c.inflight = &req
	c.err = nil
	return req
}

// Receive applies a fetch result if it answers the newest request and drops it otherwise.
func (c *Controller[T]) Receive(req Request, page Page[T], err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == nil || c.inflight.Seq != req.Seq {
		return false
	}
	c.inflight = nil
	if err != nil {
		c.err = err
		return true
	}
	c.err = nil
	c.cache.Add(req.Key, page)
	c.page, c.hasPage = page, true

	// adopt values the server clamped, without a second fetch
	served := c.defaults.Normalize(page.Served)
	if page.Served.Pagination.PageSize > 0 && !served.Equal(req.State) && c.state.Equal(req.State) {
		c.cache.Add(QueryKey(c.keyPrefix, served), page)
		c.applyLocked(served)
	}
	return true
}

// InvalidateAll drops every cached page of this table, e.g. after a mutation.
func (c *Controller[T]) InvalidateAll() int {
	return c.cache.InvalidatePrefix(KeyPrefix(c.keyPrefix))
}

// Selection is the row selection, cleared whenever the query key changes.
func (c *Controller[T]) Selection() *Selection {
	return c.selection
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Snapshot returns everything a renderer needs under one lock.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot[T]{
		State:     c.state.clone(),
		Input:     c.input,
		Key:       QueryKey(c.keyPrefix, c.state),
		Loading:   c.inflight != nil,
		Err:       c.err,
		Mounted:   c.mounted,
		PageCount: c.pageCountLocked(),
	}
	if c.hasPage {
		snap.Rows = c.page.Rows
		snap.RowCount = c.page.RowCount
	}
	return snap
}

func (c *Controller[T]) pageCountLocked() int {
	if !c.hasPage {
		return 1
	}
	return PageCount(c.page.RowCount, c.state.Pagination.PageSize)
}
