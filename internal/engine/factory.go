package engine

import (
	"github.com/shopspring/decimal"

	"news-trader/internal/interfaces"
	"news-trader/internal/ledger"
	"news-trader/internal/store"
	"news-trader/internal/tradelog"
)

func New(cfg *store.Config, l *ledger.Ledger, j *tradelog.Journal) interfaces.Engine {
	return newEngine(SettingsFromConfig(cfg), l, j)
}

// SettingsFromConfig maps the portfolio and gate sections of cfg.
func SettingsFromConfig(cfg *store.Config) Settings {
	return Settings{
		DryRun:             cfg.Mode == store.ModeDryRun,
		AllocationPct:      cfg.Portfolio.AllocationPct,
		ReferencePrice:     decimal.NewFromFloat(cfg.Portfolio.ReferencePrice),
		MinConfidence:      cfg.Gates.MinConfidence,
		ForensicBlockScore: cfg.Gates.ForensicBlockScore,
	}
}
