package controller

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"pokedex/catalog/internal/domain"
	"pokedex/catalog/internal/observable"

	"github.com/benbjohnson/clock"
)

// FilterItems keeps items whose name contains query (case-insensitive) or whose ID equals
// query. A blank query keeps everything.
func FilterItems(items []domain.ListItem, query string) []domain.ListItem {
	if strings.TrimSpace(query) == "" {
		return items
	}

	queryLower := strings.ToLower(query)
	filtered := make([]domain.ListItem, 0)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), queryLower) {
			filtered = append(filtered, item)
			continue
		}
		if id, ok := item.ID(); ok && strconv.Itoa(id) == query {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// filterView derives the filtered list from list state snapshots. Typing is debounced; a blank
// query or a running initial load applies at once.
type filterView struct {
	clock clock.Clock
	delay time.Duration
	out   *observable.Store[[]domain.ListItem]

	mu         sync.Mutex
	seen       bool
	items      []domain.ListItem
	query      string
	generation uint64
	timer      *clock.Timer
}

func newFilterView(clk clock.Clock, delay time.Duration) *filterView {
	return &filterView{
		clock: clk,
		delay: delay,
		out:   observable.NewStore([]domain.ListItem{}),
	}
}

func (f *filterView) observe(state ListState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen && f.query == state.SearchQuery && slices.Equal(f.items, state.Items) {
		return
	}
	f.seen = true
	f.items = state.Items
	f.query = state.SearchQuery
	f.generation++

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}

	if strings.TrimSpace(f.query) == "" || state.IsLoadingInitial || f.delay <= 0 {
		f.out.Set(FilterItems(f.items, f.query))
		return
	}

	generation := f.generation
	f.timer = f.clock.AfterFunc(f.delay, func() { f.fire(generation) })
}

func (f *filterView) fire(generation uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Superseded by a newer input
	if generation != f.generation {
		return
	}
	f.timer = nil
	f.out.Set(FilterItems(f.items, f.query))
}

func (f *filterView) close() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.generation++
	f.mu.Unlock()

	f.out.Close()
}
