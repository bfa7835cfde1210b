package interfaces

import (
	"context"

	"news-trader/internal/types"
)

// ForensicScanner maps free text to a risk score in [0,100].
type ForensicScanner interface {
	Scan(ctx context.Context, text string) (int, error)
}

// RegimeClassifier reports the current market-wide regime.
type RegimeClassifier interface {
	Classify(ctx context.Context) (types.Regime, error)
}
