package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/types"
)

// racingStore simulates another writer by bumping the stored version before
// the first `conflicts` saves land.
type racingStore struct {
	*MemoryStore
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (r *racingStore) Save(ctx context.Context, p types.Portfolio, expected int64) error {
	r.mu.Lock()
	r.saves++
	bump := r.conflicts > 0
	if bump {
		r.conflicts--
	}
	r.mu.Unlock()

	if bump {
		cur, _ := r.MemoryStore.Load(ctx)
		cur.CashBalance = cur.CashBalance.Sub(decimal.NewFromInt(10))
		_ = r.MemoryStore.Save(ctx, cur, cur.Version)
	}
	return r.MemoryStore.Save(ctx, p, expected)
}

func buy(ticker string, shares int, price int64) types.TradeRecord {
	return types.TradeRecord{
		Ticker:    ticker,
		Action:    types.ActionBuy,
		Shares:    shares,
		Price:     decimal.NewFromInt(price),
		Timestamp: time.Now(),
	}
}

func TestUpdateCommitsAndBumpsVersion(t *testing.T) {
	l := New(NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), 3)
	ctx := context.Background()

	p, err := l.Update(ctx, func(p *types.Portfolio) (bool, error) {
		return true, Apply(p, buy("TSLA", 3, 100))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)
	assert.False(t, p.LastUpdated.IsZero())

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.CashBalance.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, 3, snap.Holdings["TSLA"])
	require.Len(t, snap.TradeHistory, 1)
	assert.Equal(t, int64(1), snap.Version)
}

func TestUpdateUnchangedSkipsWrite(t *testing.T) {
	store := NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000)))
	l := New(store, 3)

	p, err := l.Update(context.Background(), func(*types.Portfolio) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Version)
}

func TestUpdateMutationErrorLeavesStore(t *testing.T) {
	store := NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000)))
	l := New(store, 3)
	boom := errors.New("boom")

	_, err := l.Update(context.Background(), func(p *types.Portfolio) (bool, error) {
		p.CashBalance = decimal.Zero
		return true, boom
	})
	assert.ErrorIs(t, err, boom)

	snap, _ := l.Snapshot(context.Background())
	assert.True(t, snap.CashBalance.Equal(decimal.NewFromInt(1000)))
}

func TestUpdateRetriesWithFreshRead(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), conflicts: 2}
	l := New(store, 3)

	var seen []string
	p, err := l.Update(context.Background(), func(p *types.Portfolio) (bool, error) {
		seen = append(seen, p.CashBalance.String())
		return true, Apply(p, buy("AAPL", 1, 100))
	})
	require.NoError(t, err)

	// every retry observes the competing writer's debit
	assert.Equal(t, []string{"1000", "990", "980"}, seen)
	assert.True(t, p.CashBalance.Equal(decimal.NewFromInt(880)))
	assert.Equal(t, 3, store.saves)
}

func TestUpdateConflictExhausted(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), conflicts: 10}
	l := New(store, 3)

	_, err := l.Update(context.Background(), func(p *types.Portfolio) (bool, error) {
		return true, Apply(p, buy("AAPL", 1, 100))
	})
	assert.ErrorIs(t, err, types.ErrLedgerConflict)
	assert.Equal(t, 3, store.saves)

	snap, _ := l.Snapshot(context.Background())
	assert.Equal(t, 0, snap.Holdings["AAPL"], "no partial trade is booked")
}

func TestUpdateThenRunsHookOnceAfterCommit(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), conflicts: 2}
	l := New(store, 3)

	var committed []types.Portfolio
	p, err := l.UpdateThen(context.Background(), func(p *types.Portfolio) (bool, error) {
		return true, Apply(p, buy("AAPL", 1, 100))
	}, func(p types.Portfolio) {
		committed = append(committed, p)
	})
	require.NoError(t, err)

	require.Len(t, committed, 1, "conflicted attempts do not reach the hook")
	assert.Equal(t, p.Version, committed[0].Version)
	assert.True(t, committed[0].CashBalance.Equal(decimal.NewFromInt(880)))
	require.Len(t, committed[0].TradeHistory, 1)
}

func TestUpdateThenSkipsHookWithoutCommit(t *testing.T) {
	calls := 0
	hook := func(types.Portfolio) { calls++ }
	ctx := context.Background()

	l := New(NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), 3)
	_, err := l.UpdateThen(ctx, func(*types.Portfolio) (bool, error) { return false, nil }, hook)
	require.NoError(t, err)
	_, err = l.UpdateThen(ctx, func(*types.Portfolio) (bool, error) { return false, errors.New("boom") }, hook)
	require.Error(t, err)

	exhausted := New(&racingStore{MemoryStore: NewMemoryStore(NewPortfolio(decimal.NewFromInt(1000))), conflicts: 10}, 3)
	_, err = exhausted.UpdateThen(ctx, func(p *types.Portfolio) (bool, error) {
		return true, Apply(p, buy("AAPL", 1, 100))
	}, hook)
	require.ErrorIs(t, err, types.ErrLedgerConflict)

	assert.Zero(t, calls)
}

func TestApply(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(1000))

	require.NoError(t, Apply(&p, buy("TSLA", 2, 100)))
	require.NoError(t, Apply(&p, types.TradeRecord{Ticker: "TSLA", Action: types.ActionSell, Shares: 5, Price: decimal.NewFromInt(100)}))

	assert.True(t, p.CashBalance.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, -3, p.Holdings["TSLA"])
	require.Len(t, p.TradeHistory, 2)
	assert.Equal(t, types.ActionSell, p.TradeHistory[0].Action, "newest first")

	assert.Error(t, Apply(&p, buy("TSLA", 20, 100)), "cannot spend more than cash")
	assert.Error(t, Apply(&p, buy("TSLA", 0, 100)))
	assert.Error(t, Apply(&p, types.TradeRecord{Ticker: "TSLA", Action: types.ActionSkip, Shares: 1, Price: decimal.NewFromInt(1)}))
	assert.Len(t, p.TradeHistory, 2)
}

func TestSizePosition(t *testing.T) {
	price := decimal.NewFromInt(100)
	assert.Equal(t, 20, SizePosition(decimal.NewFromInt(100000), 2, price))
	assert.Equal(t, 4, SizePosition(decimal.NewFromInt(800), 50, price))
	assert.Equal(t, 1, SizePosition(decimal.NewFromInt(399), 50, price))
	assert.Equal(t, 0, SizePosition(decimal.NewFromInt(199), 50, price))
	assert.Equal(t, 0, SizePosition(decimal.NewFromInt(1000), 2, decimal.Zero))
}
