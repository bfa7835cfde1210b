package macro

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

// IndicatorSource supplies the current macro readings.
type IndicatorSource interface {
	Indicators(ctx context.Context) (types.MacroIndicators, error)
}

// Thresholds above which the market is considered Risk-Off.
type Thresholds struct {
	VIX          float64
	TenYearYield float64
}

// DefaultThresholds are VIX 25 and a 4.5% ten-year yield.
var DefaultThresholds = Thresholds{VIX: 25, TenYearYield: 4.5}

// Classifier labels the market regime from an indicator source.
type Classifier struct {
	src        IndicatorSource
	thresholds Thresholds
}

var _ interfaces.RegimeClassifier = (*Classifier)(nil)

func NewClassifier(src IndicatorSource, th Thresholds) *Classifier {
	if th.VIX <= 0 {
		th.VIX = DefaultThresholds.VIX
	}
	if th.TenYearYield <= 0 {
		th.TenYearYield = DefaultThresholds.TenYearYield
	}
	return &Classifier{src: src, thresholds: th}
}

// Classify implements interfaces.RegimeClassifier.
func (c *Classifier) Classify(ctx context.Context) (types.Regime, error) {
	ctx, span := trace.StartSpan(ctx, "macro.Classify")
	defer span.End()

	ind, err := c.src.Indicators(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read macro indicators: %w", err)
	}
	regime := Regime(ind, c.thresholds)
	logger.Debug(ctx, "Macro regime classified",
		"vix", ind.VIX,
		"ten_year_yield", ind.TenYearYield,
		"oil", ind.Oil,
		"regime", regime)
	return regime, nil
}

// Regime applies the thresholds: either reading strictly above its cutoff
// makes the market Risk-Off.
func Regime(ind types.MacroIndicators, th Thresholds) types.Regime {
	if ind.VIX > th.VIX || ind.TenYearYield > th.TenYearYield {
		return types.RiskOff
	}
	return types.RiskOn
}

// RandomIndicators simulates readings uniformly within fixed ranges.
type RandomIndicators struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomIndicators(rng *rand.Rand) *RandomIndicators {
	return &RandomIndicators{rng: rng}
}

func (r *RandomIndicators) Indicators(ctx context.Context) (types.MacroIndicators, error) {
	if err := ctx.Err(); err != nil {
		return types.MacroIndicators{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return types.MacroIndicators{
		VIX:          15 + r.rng.Float64()*20,
		TenYearYield: 3.5 + r.rng.Float64()*1.5,
		Oil:          70 + r.rng.Float64()*25,
	}, nil
}

// StaticIndicators always returns the same readings.
type StaticIndicators types.MacroIndicators

func (s StaticIndicators) Indicators(ctx context.Context) (types.MacroIndicators, error) {
	return types.MacroIndicators(s), ctx.Err()
}
