package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

// DefaultMaxRetries bounds how often Update re-reads after a conflict.
const DefaultMaxRetries = 3

// Mutation edits a working copy of the portfolio. It reports whether the copy
// changed; an unchanged copy is not written back.
type Mutation func(p *types.Portfolio) (bool, error)

// Committed observes a saved portfolio. It runs under the ledger lock, so
// hooks see commits in the same order as the stored trade history.
type Committed func(p types.Portfolio)

// Ledger serializes read-modify-write cycles on the shared portfolio. Writes
// inside one process are ordered by a mutex, and every write is also a
// compare-and-swap on the stored version so a second writer on the same
// store is detected and retried with a fresh read.
type Ledger struct {
	mu         sync.Mutex
	store      interfaces.LedgerStore
	maxRetries int
	now        func() time.Time
}

func New(store interfaces.LedgerStore, maxRetries int) *Ledger {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Ledger{store: store, maxRetries: maxRetries, now: time.Now}
}

// Snapshot returns a copy of the current portfolio.
func (l *Ledger) Snapshot(ctx context.Context) (types.Portfolio, error) {
	p, err := l.store.Load(ctx)
	if err != nil {
		return types.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return p.Clone(), nil
}

// Update applies fn to the freshest portfolio and commits the result as one
// unit. On a version conflict fn runs again against a new read. After
// maxRetries conflicts the error wraps types.ErrLedgerConflict.
func (l *Ledger) Update(ctx context.Context, fn Mutation) (types.Portfolio, error) {
	return l.UpdateThen(ctx, fn, nil)
}

// UpdateThen is Update with a hook that runs once, after the winning save and
// before the lock is released. It does not run for unchanged copies, failed
// mutations or exhausted retries.
func (l *Ledger) UpdateThen(ctx context.Context, fn Mutation, then Committed) (types.Portfolio, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.Update")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return types.Portfolio{}, err
		}

		current, err := l.store.Load(ctx)
		if err != nil {
			return types.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
		}

		work := current.Clone()
		changed, err := fn(&work)
		if err != nil {
			return types.Portfolio{}, err
		}
		if !changed {
			return current, nil
		}

		work.LastUpdated = l.now().UTC()
		err = l.store.Save(ctx, work, current.Version)
		if errors.Is(err, types.ErrLedgerConflict) {
			logger.Warn(ctx, "Ledger conflict, retrying with fresh read",
				"attempt", attempt,
				"max_attempts", l.maxRetries,
				"expected_version", current.Version)
			continue
		}
		if err != nil {
			return types.Portfolio{}, fmt.Errorf("failed to save portfolio: %w", err)
		}

		work.Version = current.Version + 1
		if then != nil {
			then(work.Clone())
		}
		return work, nil
	}

	return types.Portfolio{}, fmt.Errorf("%w: gave up after %d attempts", types.ErrLedgerConflict, l.maxRetries)
}
