package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestFilter(window time.Duration, matchHeadlines bool) (*Filter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	f := New(window, matchHeadlines)
	f.now = clk.now
	return f, clk
}

func event(id, ticker, headline string) types.NewsEvent {
	return types.NewsEvent{ID: id, Ticker: ticker, Headline: headline, Source: "Reuters", Timestamp: time.Now()}
}

func TestSameIDIsDuplicate(t *testing.T) {
	f, _ := newTestFilter(time.Hour, false)
	ctx := context.Background()

	dup, err := f.IsDuplicate(ctx, event("a", "TSLA", "TSLA beats"))
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = f.IsDuplicate(ctx, event("a", "TSLA", "TSLA beats"))
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestWindowExpiry(t *testing.T) {
	f, clk := newTestFilter(time.Minute, false)
	ctx := context.Background()

	dup, _ := f.IsDuplicate(ctx, event("a", "TSLA", "x"))
	require.False(t, dup)

	clk.advance(30 * time.Second)
	dup, _ = f.IsDuplicate(ctx, event("a", "TSLA", "x"))
	assert.True(t, dup)

	clk.advance(2 * time.Minute)
	dup, _ = f.IsDuplicate(ctx, event("a", "TSLA", "x"))
	assert.False(t, dup, "entry should expire after the window")
}

func TestHeadlineMatching(t *testing.T) {
	ctx := context.Background()

	f, _ := newTestFilter(time.Hour, true)
	dup, _ := f.IsDuplicate(ctx, event("a", "TSLA", "TSLA  beats estimates"))
	require.False(t, dup)
	dup, _ = f.IsDuplicate(ctx, event("b", "tsla", "tsla beats Estimates"))
	assert.True(t, dup)
	dup, _ = f.IsDuplicate(ctx, event("c", "AAPL", "TSLA beats estimates"))
	assert.False(t, dup, "different ticker is a different story")

	plain, _ := newTestFilter(time.Hour, false)
	dup, _ = plain.IsDuplicate(ctx, event("a", "TSLA", "TSLA beats estimates"))
	require.False(t, dup)
	dup, _ = plain.IsDuplicate(ctx, event("b", "TSLA", "TSLA beats estimates"))
	assert.False(t, dup)
}

func TestSweepDropsExpired(t *testing.T) {
	f, clk := newTestFilter(time.Minute, false)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, _ = f.IsDuplicate(ctx, event(id, "GS", "h"))
	}
	require.Equal(t, 3, f.Len())

	clk.advance(5 * time.Minute)
	_, _ = f.IsDuplicate(ctx, event("d", "GS", "h"))
	assert.Equal(t, 1, f.Len())
}

func TestCancelledContext(t *testing.T) {
	f, _ := newTestFilter(time.Hour, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.IsDuplicate(ctx, event("a", "GS", "h"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.Len())
}
