package engineobs

import (
	"context"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Decide(ctx context.Context, in interfaces.DecisionInput) (types.TradeDecision, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Decide")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Evaluating trade",
		"ticker", in.Ticker,
		"sentiment_score", in.Sentiment,
		"market_regime", in.Regime,
		"forensic_score", in.ForensicScore,
	)

	decision, err := oe.engine.Decide(ctx, in)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trade evaluation failed", err,
			"ticker", in.Ticker,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return decision, err
	}

	logger.InfoSkip(ctx, 1, "Trade evaluation completed",
		"ticker", in.Ticker,
		"action", decision.Action,
		"reason", decision.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return decision, nil
}
