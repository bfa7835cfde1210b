package dedup

import (
	"context"
	"strings"
	"sync"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/types"
)

// Filter reports whether an event was already seen within a sliding window.
// An event is marked as seen the first time it is checked, so a run that
// aborts later in the pipeline still suppresses a replay of the same event.
type Filter struct {
	mu             sync.Mutex
	seen           map[string]time.Time
	window         time.Duration
	matchHeadlines bool
	lastSweep      time.Time
	now            func() time.Time
}

var _ interfaces.DuplicateFilter = (*Filter)(nil)

// New creates a filter. When matchHeadlines is set, two events with different
// ids but the same ticker and normalized headline also count as duplicates.
func New(window time.Duration, matchHeadlines bool) *Filter {
	return &Filter{
		seen:           make(map[string]time.Time),
		window:         window,
		matchHeadlines: matchHeadlines,
		now:            time.Now,
	}
}

// IsDuplicate implements interfaces.DuplicateFilter.
func (f *Filter) IsDuplicate(ctx context.Context, ev types.NewsEvent) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	keys := f.keys(ev)

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if now.Sub(f.lastSweep) > f.window {
		f.sweep(now)
	}

	dup := false
	for _, k := range keys {
		if at, ok := f.seen[k]; ok && now.Sub(at) <= f.window {
			dup = true
			continue
		}
		f.seen[k] = now
	}

	if dup {
		logger.Debug(ctx, "Duplicate event suppressed", "id", ev.ID, "ticker", ev.Ticker)
	}
	return dup, nil
}

// Len returns the number of tracked keys.
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func (f *Filter) keys(ev types.NewsEvent) []string {
	keys := []string{"id:" + ev.ID}
	if f.matchHeadlines {
		keys = append(keys, "hl:"+strings.ToUpper(ev.Ticker)+"|"+normalize(ev.Headline))
	}
	return keys
}

// sweep drops expired entries. Callers hold mu.
func (f *Filter) sweep(now time.Time) {
	for k, at := range f.seen {
		if now.Sub(at) > f.window {
			delete(f.seen, k)
		}
	}
	f.lastSweep = now
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
