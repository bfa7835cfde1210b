package pipeline

import (
	"context"
	"fmt"
	"strings"

	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

// filter validates the event and checks it against the duplicate filter.
func (o *Orchestrator) filter(ctx context.Context, rec *types.AnalysisRecord) (types.State, error) {
	if err := rec.Event.Validate(); err != nil {
		return "", err
	}

	dctx, cancel := context.WithTimeout(ctx, o.timeouts.Dedup)
	defer cancel()

	dup, err := o.deps.Dedup.IsDuplicate(dctx, rec.Event)
	if err != nil {
		return "", fmt.Errorf("duplicate check failed: %w", err)
	}
	if dup {
		rec.Duplicate = true
		return types.StateDone, nil
	}
	return types.StateFiltered, nil
}

func (o *Orchestrator) analyze(ctx context.Context, rec *types.AnalysisRecord) (types.State, error) {
	actx, cancel := context.WithTimeout(ctx, o.timeouts.Analyze)
	defer cancel()

	a, err := o.deps.Analyzer.Analyze(actx, rec.Event)
	if err != nil {
		return "", fmt.Errorf("content analysis failed: %w", err)
	}
	rec.Entities = a.Entities
	rec.Sentiment = a.Sentiment
	rec.Impact = a.Impact
	return types.StateAnalyzed, nil
}

func (o *Orchestrator) record(ctx context.Context, rec *types.AnalysisRecord) (types.State, error) {
	if err := o.deps.Recorder.Record(ctx, rec); err != nil {
		return "", err
	}
	return types.StateRecorded, nil
}

// decide classifies risk and asks the engine for a decision.
func (o *Orchestrator) decide(ctx context.Context, rec *types.AnalysisRecord) (types.State, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeouts.Classify)
	defer cancel()

	regime, err := o.deps.Regime.Classify(cctx)
	if err != nil {
		return "", fmt.Errorf("regime classification failed: %w", err)
	}
	rec.Regime = regime

	score, err := o.deps.Forensic.Scan(cctx, scanText(rec.Event))
	if err != nil {
		return "", fmt.Errorf("forensic scan failed: %w", err)
	}
	rec.ForensicScore = score

	d, err := o.deps.Engine.Decide(ctx, interfaces.DecisionInput{
		Ticker:        rec.Event.Ticker,
		Headline:      rec.Event.Headline,
		Sentiment:     rec.Sentiment,
		Regime:        rec.Regime,
		ForensicScore: rec.ForensicScore,
	})
	if err != nil {
		return "", err
	}
	rec.Decision = &d
	return types.StateDecided, nil
}

func (o *Orchestrator) finish(_ context.Context, _ *types.AnalysisRecord) (types.State, error) {
	return types.StateDone, nil
}

func scanText(ev types.NewsEvent) string {
	if strings.TrimSpace(ev.Body) == "" {
		return ev.Headline
	}
	return ev.Headline + "\n" + ev.Body
}
