package ledger

import (
	"context"
	"sync"

	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

// MemoryStore keeps the portfolio row in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu sync.Mutex
	p  types.Portfolio
}

var _ interfaces.LedgerStore = (*MemoryStore)(nil)

func NewMemoryStore(initial types.Portfolio) *MemoryStore {
	return &MemoryStore{p: initial.Clone()}
}

func (m *MemoryStore) Load(ctx context.Context) (types.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return types.Portfolio{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p.Clone(), nil
}

// Save replaces the row when expectedVersion still matches.
func (m *MemoryStore) Save(ctx context.Context, p types.Portfolio, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p.Version != expectedVersion {
		return types.ErrLedgerConflict
	}
	next := p.Clone()
	next.Version = expectedVersion + 1
	m.p = next
	return nil
}
