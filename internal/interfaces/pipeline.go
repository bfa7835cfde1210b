package interfaces

import (
	"context"

	"news-trader/internal/types"
)

// DuplicateFilter reports whether an event has already been seen.
type DuplicateFilter interface {
	IsDuplicate(ctx context.Context, ev types.NewsEvent) (bool, error)
}

// ContentAnalyzer extracts entities and an impact assessment from an event.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, ev types.NewsEvent) (types.Analysis, error)
}

// EventRecorder persists an analyzed event. An error means the event was not
// durably recorded.
type EventRecorder interface {
	Record(ctx context.Context, rec *types.AnalysisRecord) error
}

// EventSource produces news events.
type EventSource interface {
	Fetch(ctx context.Context, n int) ([]types.NewsEvent, error)
}
