package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/search"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

// Config bounds the durable write and the search forward.
type Config struct {
	WriteRetries  int           // attempts for the durable upsert
	RetryBackoff  time.Duration // wait before the second attempt; doubles after
	WriteTimeout  time.Duration // per attempt
	SearchTimeout time.Duration
}

// Recorder writes analyzed events to durable storage and then forwards them
// to the search index. Only the durable write can fail a run.
type Recorder struct {
	store interfaces.EventStore
	index interfaces.SearchIndex
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

var _ interfaces.EventRecorder = (*Recorder)(nil)

func New(store interfaces.EventStore, index interfaces.SearchIndex, cfg Config) *Recorder {
	if cfg.WriteRetries <= 0 {
		cfg.WriteRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 1500 * time.Millisecond
	}
	if index == nil {
		index = search.Noop{}
	}
	return &Recorder{store: store, index: index, cfg: cfg, sleep: sleepCtx}
}

// Record implements interfaces.EventRecorder.
func (r *Recorder) Record(ctx context.Context, rec *types.AnalysisRecord) error {
	ctx, span := trace.StartSpan(ctx, "recorder.Record")
	defer span.End()

	ev := Stored(rec)
	if err := r.upsert(ctx, ev); err != nil {
		return err
	}
	r.forward(ctx, ev)
	return nil
}

// Stored builds the durable row for rec. The summary is the headline.
func Stored(rec *types.AnalysisRecord) types.StoredEvent {
	return types.StoredEvent{
		ID:             rec.Event.ID,
		Ticker:         rec.Event.Ticker,
		Headline:       rec.Event.Headline,
		Source:         rec.Event.Source,
		Timestamp:      rec.Event.Timestamp,
		SentimentScore: rec.Sentiment,
		MarketImpact:   rec.Impact,
		Summary:        rec.Event.Headline,
		Entities:       rec.Entities,
	}
}

func (r *Recorder) upsert(ctx context.Context, ev types.StoredEvent) error {
	op := logger.StartOperation(ctx, "recorder.upsert", "event_id", ev.ID, "ticker", ev.Ticker)
	ctx = op.GetContext()

	backoff := r.cfg.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= r.cfg.WriteRetries; attempt++ {
		wctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
		err := r.store.UpsertEvent(wctx, ev)
		cancel()
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "Event stored after retry", "event_id", ev.ID, "attempt", attempt)
			}
			op.End("attempts", attempt)
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		logger.Warn(ctx, "Event write failed",
			"event_id", ev.ID,
			"attempt", attempt,
			"max_attempts", r.cfg.WriteRetries,
			"error", err.Error())

		if attempt < r.cfg.WriteRetries {
			if err := r.sleep(ctx, backoff); err != nil {
				lastErr = errors.Join(lastErr, err)
				break
			}
			backoff *= 2
		}
	}
	err := fmt.Errorf("failed to store event %s: %w", ev.ID, lastErr)
	op.EndWithError(err)
	return err
}

// forward is best-effort: failures are logged and dropped.
func (r *Recorder) forward(ctx context.Context, ev types.StoredEvent) {
	sctx, cancel := context.WithTimeout(ctx, r.cfg.SearchTimeout)
	defer cancel()

	if err := r.index.Index(sctx, search.Document(ev)); err != nil {
		logger.Warn(ctx, "Search index write failed, continuing",
			"event_id", ev.ID,
			"ticker", ev.Ticker,
			"error", err.Error())
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
