// Package feed implements the paginated list state shared by every article
// listing: refresh, load more, and load only if nothing is loaded yet.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"go-wanandroid/internal/metrics"
	"go-wanandroid/internal/result"
)

const (
	modeRefresh  = "refresh"
	modeLoadMore = "load_more"
)

// Page is one fetched page of items. PageCount is the total number of pages
// the upstream reports for the listing.
type Page[T any] struct {
	Items     []T
	PageCount int
}

// Fetcher loads page number page, counted from 0.
type Fetcher[T any] func(ctx context.Context, page int) result.Outcome[Page[T]]

// State is a point-in-time copy of a pager.
type State[T any] struct {
	Items         []T    `json:"items"`
	CurrentPage   int    `json:"current_page"`
	PageCount     int    `json:"page_count"`
	IsRefreshing  bool   `json:"is_refreshing"`
	IsLoadingMore bool   `json:"is_loading_more"`
	HasMore       bool   `json:"has_more"`
	Loaded        bool   `json:"loaded"`
	Error         string `json:"error,omitempty"`
}

// Pager holds one paginated list. Fetches run outside the lock; a refresh
// bumps the generation so results of older loads are discarded on arrival.
type Pager[T any] struct {
	name  string
	fetch Fetcher[T]
	key   func(T) int

	mu          sync.Mutex
	gen         uint64
	items       []T
	seen        map[int]struct{}
	current     int
	pageCount   int
	refreshing  bool
	loadingMore bool
	loaded      bool
	errMsg      string
}

// New returns an empty pager. key identifies an item; items whose key was
// already seen are not appended again.
func New[T any](name string, fetch Fetcher[T], key func(T) int) *Pager[T] {
	return &Pager[T]{
		name:  name,
		fetch: fetch,
		key:   key,
		seen:  map[int]struct{}{},
	}
}

func (p *Pager[T]) Name() string { return p.name }

// Refresh reloads page 0 and replaces the list. On failure the list and page
// are left as they were and the error message is recorded.
func (p *Pager[T]) Refresh(ctx context.Context) (State[T], error) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.refreshing = true
	p.loadingMore = false
	p.mu.Unlock()

	out := p.fetch(ctx, 0)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return p.snapshotLocked(), nil
	}
	p.refreshing = false

	metrics.ObserveFeedLoad(p.name, modeRefresh, out.Kind().String())

	page, ok := out.Get()
	if !ok {
		p.errMsg = out.Message()
		slog.Warn("feed refresh failed", "feed", p.name, "error", p.errMsg)
		return p.snapshotLocked(), out.Err()
	}

	p.items = p.items[:0:0]
	p.seen = map[int]struct{}{}
	p.appendLocked(page.Items)
	p.current = 0
	p.pageCount = page.PageCount
	p.loaded = true
	p.errMsg = ""

	return p.snapshotLocked(), nil
}

// LoadMore fetches the page after the current one and appends it. It is a
// no-op on the last page or while another load is running. Before the first
// successful load it behaves like Refresh.
func (p *Pager[T]) LoadMore(ctx context.Context) (State[T], error) {
	p.mu.Lock()
	if !p.loaded && !p.refreshing {
		p.mu.Unlock()
		return p.Refresh(ctx)
	}
	if p.refreshing || p.loadingMore || !p.hasMoreLocked() {
		state := p.snapshotLocked()
		p.mu.Unlock()
		return state, nil
	}

	next := p.current + 1
	gen := p.gen
	p.loadingMore = true
	p.mu.Unlock()

	out := p.fetch(ctx, next)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return p.snapshotLocked(), nil
	}
	p.loadingMore = false

	metrics.ObserveFeedLoad(p.name, modeLoadMore, out.Kind().String())

	page, ok := out.Get()
	if !ok {
		p.errMsg = out.Message()
		slog.Warn("feed load more failed", "feed", p.name, "page", next, "error", p.errMsg)
		return p.snapshotLocked(), out.Err()
	}

	// A page is only ever applied once, directly after the current one.
	if next != p.current+1 {
		return p.snapshotLocked(), nil
	}

	p.appendLocked(page.Items)
	p.current = next
	p.pageCount = page.PageCount
	p.errMsg = ""

	return p.snapshotLocked(), nil
}

// RefreshIfNeeded refreshes only when nothing has been loaded yet.
func (p *Pager[T]) RefreshIfNeeded(ctx context.Context) (State[T], error) {
	p.mu.Lock()
	if p.loaded || p.refreshing {
		state := p.snapshotLocked()
		p.mu.Unlock()
		return state, nil
	}
	p.mu.Unlock()

	return p.Refresh(ctx)
}

// Reset forgets everything loaded and discards any load still running.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	p.items = nil
	p.seen = map[int]struct{}{}
	p.current = 0
	p.pageCount = 0
	p.refreshing = false
	p.loadingMore = false
	p.loaded = false
	p.errMsg = ""
}

func (p *Pager[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// UpdateItems applies fn to every loaded item in place.
func (p *Pager[T]) UpdateItems(fn func(item *T)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.items {
		fn(&p.items[i])
	}
}

// Find returns the first loaded item matching pred.
func (p *Pager[T]) Find(pred func(T) bool) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range p.items {
		if pred(item) {
			return item, true
		}
	}

	var zero T
	return zero, false
}

// Remove drops every loaded item matching pred and reports how many were
// removed.
func (p *Pager[T]) Remove(pred func(T) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.items[:0]
	removed := 0
	for _, item := range p.items {
		if pred(item) {
			delete(p.seen, p.key(item))
			removed++
			continue
		}
		kept = append(kept, item)
	}

	var zero T
	for i := len(kept); i < len(p.items); i++ {
		p.items[i] = zero
	}
	p.items = kept

	return removed
}

func (p *Pager[T]) appendLocked(items []T) {
	for _, item := range items {
		k := p.key(item)
		if _, dup := p.seen[k]; dup {
			continue
		}
		p.seen[k] = struct{}{}
		p.items = append(p.items, item)
	}
}

func (p *Pager[T]) hasMoreLocked() bool {
	return p.current < p.pageCount-1
}

func (p *Pager[T]) snapshotLocked() State[T] {
	items := make([]T, len(p.items))
	copy(items, p.items)

	return State[T]{
		Items:         items,
		CurrentPage:   p.current,
		PageCount:     p.pageCount,
		IsRefreshing:  p.refreshing,
		IsLoadingMore: p.loadingMore,
		HasMore:       p.loaded && p.hasMoreLocked(),
		Loaded:        p.loaded,
		Error:         p.errMsg,
	}
}
