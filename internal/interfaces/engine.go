package interfaces

import (
	"context"

	"news-trader/internal/types"
)

// DecisionInput carries everything the decision engine consumes for one event.
type DecisionInput struct {
	Ticker        string
	Headline      string
	Sentiment     float64
	Regime        types.Regime
	ForensicScore int
}

// Engine turns an analyzed event into exactly one trade decision, committing
// any resulting trade to the portfolio ledger.
type Engine interface {
	Decide(ctx context.Context, in DecisionInput) (types.TradeDecision, error)
}
