package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

// Deps are the capabilities a run consults, one per stage.
type Deps struct {
	Dedup    interfaces.DuplicateFilter
	Analyzer interfaces.ContentAnalyzer
	Recorder interfaces.EventRecorder
	Regime   interfaces.RegimeClassifier
	Forensic interfaces.ForensicScanner
	Engine   interfaces.Engine
}

// Timeouts bound the calls that leave the process. The recorder carries its
// own per-attempt timeouts.
type Timeouts struct {
	Dedup    time.Duration
	Analyze  time.Duration
	Classify time.Duration
}

// transition advances rec out of one non-terminal state.
type transition func(ctx context.Context, rec *types.AnalysisRecord) (types.State, error)

// Orchestrator runs one event through the stage graph
// Received → Filtered → Analyzed → Recorded → Decided → Done. A duplicate
// jumps from Received straight to Done; any error moves the run to Aborted.
type Orchestrator struct {
	deps        Deps
	timeouts    Timeouts
	transitions map[types.State]transition
}

func New(deps Deps, timeouts Timeouts) *Orchestrator {
	if timeouts.Dedup <= 0 {
		timeouts.Dedup = 2 * time.Second
	}
	if timeouts.Analyze <= 0 {
		timeouts.Analyze = 5 * time.Second
	}
	if timeouts.Classify <= 0 {
		timeouts.Classify = 5 * time.Second
	}
	o := &Orchestrator{deps: deps, timeouts: timeouts}
	o.transitions = map[types.State]transition{
		types.StateReceived: o.filter,
		types.StateFiltered: o.analyze,
		types.StateAnalyzed: o.record,
		types.StateRecorded: o.decide,
		types.StateDecided:  o.finish,
	}
	return o
}

// Run processes ev and returns its completed record. The error is the one
// that aborted the run, if any; the record is returned either way.
func (o *Orchestrator) Run(ctx context.Context, ev types.NewsEvent) (*types.AnalysisRecord, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	rec := types.NewAnalysisRecord(ev)
	start := time.Now()

	for !rec.State.Terminal() {
		step, ok := o.transitions[rec.State]
		if !ok {
			return o.abort(ctx, rec, fmt.Errorf("no transition from state %s", rec.State))
		}

		sctx, sspan := trace.StartSpan(ctx, "pipeline."+string(rec.State))
		next, err := step(sctx, rec)
		sspan.End()
		if err != nil {
			return o.abort(ctx, rec, err)
		}

		logger.Debug(ctx, "Pipeline transition",
			"event_id", ev.ID,
			"ticker", ev.Ticker,
			"from", rec.State,
			"to", next)
		rec.State = next
	}

	logger.Info(ctx, "Pipeline run complete",
		"event_id", ev.ID,
		"ticker", ev.Ticker,
		"duplicate", rec.Duplicate,
		"duration_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func (o *Orchestrator) abort(ctx context.Context, rec *types.AnalysisRecord, err error) (*types.AnalysisRecord, error) {
	from := rec.State
	rec.State = types.StateAborted
	rec.Err = err
	rec.Error = err.Error()

	if errors.Is(err, types.ErrInvalidEvent) {
		logger.Warn(ctx, "Event discarded",
			"event_id", rec.Event.ID,
			"ticker", rec.Event.Ticker,
			"reason", err.Error())
	} else {
		logger.ErrorWithErr(ctx, "Pipeline run aborted", err,
			"event_id", rec.Event.ID,
			"ticker", rec.Event.Ticker,
			"state", from)
	}
	return rec, err
}
