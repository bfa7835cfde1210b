package interfaces

import (
	"context"

	"news-trader/internal/types"
)

// EventStore is durable storage for analyzed events, keyed by event id.
type EventStore interface {
	UpsertEvent(ctx context.Context, ev types.StoredEvent) error
	RecentEvents(ctx context.Context, limit int) ([]types.StoredEvent, error)
}

// SearchIndex is the external similarity-search store. Best effort.
type SearchIndex interface {
	Index(ctx context.Context, doc types.SearchDocument) error
}

// LedgerStore holds the single portfolio row. Save must fail with
// types.ErrLedgerConflict when the stored version differs from expectedVersion.
type LedgerStore interface {
	Load(ctx context.Context) (types.Portfolio, error)
	Save(ctx context.Context, p types.Portfolio, expectedVersion int64) error
}
