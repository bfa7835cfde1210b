package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"news-trader/internal/logger"
	"news-trader/internal/types"
)

// ErrStopped is returned by Submit once the runner has been stopped.
var ErrStopped = errors.New("runner stopped")

// Processor runs one event to completion.
type Processor interface {
	Run(ctx context.Context, ev types.NewsEvent) (*types.AnalysisRecord, error)
}

// Stats counts completed runs by outcome.
type Stats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Aborted    int64 `json:"aborted"`
	Queued     int   `json:"queued"`
}

// Runner drains a bounded queue with a single worker, so runs never overlap
// and events are processed in submission order.
type Runner struct {
	proc     Processor
	queue    chan types.NewsEvent
	stop     chan struct{}
	done     chan struct{}
	start    sync.Once
	stopOnce sync.Once
	onResult func(*types.AnalysisRecord, error)

	processed  atomic.Int64
	duplicates atomic.Int64
	aborted    atomic.Int64
}

// NewRunner creates a runner with room for depth pending events.
func NewRunner(proc Processor, depth int) *Runner {
	if depth < 1 {
		depth = 1
	}
	return &Runner{
		proc:  proc,
		queue: make(chan types.NewsEvent, depth),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// OnResult registers a callback invoked on the worker after every run.
// Must be called before Start.
func (r *Runner) OnResult(fn func(*types.AnalysisRecord, error)) {
	r.onResult = fn
}

// Start launches the worker. Runs use a context detached from ctx
// cancellation so an in-flight run is never cut short by shutdown; ctx
// cancellation stops the worker like Stop does.
func (r *Runner) Start(ctx context.Context) {
	r.start.Do(func() {
		go r.work(ctx)
	})
}

// Submit enqueues ev, waiting while the queue is full.
func (r *Runner) Submit(ctx context.Context, ev types.NewsEvent) error {
	select {
	case <-r.stop:
		return ErrStopped
	default:
	}
	select {
	case r.queue <- ev:
		return nil
	case <-r.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop lets the current run finish, starts no new one and waits for the
// worker to exit. Events still queued are dropped.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.start.Do(func() { close(r.done) })
	<-r.done
}

// Stats returns counters for completed runs.
func (r *Runner) Stats() Stats {
	return Stats{
		Processed:  r.processed.Load(),
		Duplicates: r.duplicates.Load(),
		Aborted:    r.aborted.Load(),
		Queued:     len(r.queue),
	}
}

func (r *Runner) work(ctx context.Context) {
	defer close(r.done)
	runCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-r.stop:
			r.drop(ctx)
			return
		case <-ctx.Done():
			r.stopOnce.Do(func() { close(r.stop) })
			r.drop(ctx)
			return
		case ev := <-r.queue:
			select {
			case <-r.stop:
				r.drop(ctx, ev)
				return
			default:
			}
			r.process(runCtx, ev)
		}
	}
}

func (r *Runner) process(ctx context.Context, ev types.NewsEvent) {
	rec, err := r.proc.Run(ctx, ev)

	r.processed.Add(1)
	switch {
	case err != nil:
		r.aborted.Add(1)
	case rec != nil && rec.Duplicate:
		r.duplicates.Add(1)
	}
	if r.onResult != nil {
		r.onResult(rec, err)
	}
}

func (r *Runner) drop(ctx context.Context, pending ...types.NewsEvent) {
	n := len(pending) + len(r.queue)
	if n > 0 {
		logger.Warn(ctx, "Runner stopped with pending events", "dropped", n)
	}
}
