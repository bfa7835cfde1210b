package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"news-trader/internal/interfaces"
	"news-trader/internal/ledger"
	"news-trader/internal/logger"
	"news-trader/internal/tradelog"
	"news-trader/internal/types"
)

const (
	ReasonMacroBlocked      = "macro regime blocks long positions"
	ReasonLowConfidence     = "confidence too low"
	ReasonInsufficientFunds = "insufficient capital"
)

// Settings are the gate thresholds and sizing parameters.
type Settings struct {
	DryRun             bool
	AllocationPct      float64
	ReferencePrice     decimal.Decimal
	MinConfidence      float64
	ForensicBlockScore int
}

type Engine struct {
	cfg     Settings
	ledger  *ledger.Ledger
	journal *tradelog.Journal
	now     func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

func newEngine(cfg Settings, l *ledger.Ledger, j *tradelog.Journal) *Engine {
	return &Engine{cfg: cfg, ledger: l, journal: j, now: time.Now}
}

// Decide runs the gates in order and, for a BUY or SELL, sizes and books the
// trade against the ledger as one update. A trade that cannot buy a single
// share degrades to SKIP.
func (e *Engine) Decide(ctx context.Context, in interfaces.DecisionInput) (types.TradeDecision, error) {
	if err := validate(in); err != nil {
		return types.TradeDecision{}, err
	}

	decision, err := e.decide(ctx, in)
	if err != nil {
		return types.TradeDecision{}, err
	}

	logger.Decision(ctx, in.Ticker, string(decision.Action), math.Abs(in.Sentiment), decision.Reason,
		"sentiment_score", in.Sentiment,
		"market_regime", in.Regime,
		"forensic_score", in.ForensicScore)
	e.journalDecision(ctx, in, decision)
	return decision, nil
}

func (e *Engine) decide(ctx context.Context, in interfaces.DecisionInput) (types.TradeDecision, error) {
	if reason, blocked := e.gate(in); blocked {
		return skip(reason), nil
	}

	action := types.ActionSell
	if in.Sentiment > 0 {
		action = types.ActionBuy
	}

	if e.cfg.DryRun {
		return e.simulate(ctx, in, action)
	}

	var booked *types.TradeRecord
	mutate := func(p *types.Portfolio) (bool, error) {
		booked = nil
		shares := ledger.SizePosition(p.CashBalance, e.cfg.AllocationPct, e.cfg.ReferencePrice)
		if shares == 0 {
			return false, nil
		}
		t := types.TradeRecord{
			Ticker:    in.Ticker,
			Action:    action,
			Shares:    shares,
			Price:     e.cfg.ReferencePrice,
			Reason:    in.Headline,
			Timestamp: e.now().UTC(),
		}
		if err := ledger.Apply(p, t); err != nil {
			return false, err
		}
		booked = &t
		return true, nil
	}
	// Journal under the ledger lock so the file order matches TradeHistory.
	journal := func(types.Portfolio) {
		if e.journal == nil {
			return
		}
		if err := e.journal.AppendTrade(*booked); err != nil {
			logger.ErrorWithErr(ctx, "Failed to journal trade", err, "ticker", booked.Ticker)
		}
	}
	_, err := e.ledger.UpdateThen(ctx, mutate, journal)
	if err != nil {
		return types.TradeDecision{}, fmt.Errorf("failed to book %s %s: %w", action, in.Ticker, err)
	}
	if booked == nil {
		logger.Risk(ctx, in.Ticker, "INSUFFICIENT_CAPITAL", "action", action)
		return skip(ReasonInsufficientFunds), nil
	}

	price, _ := booked.Price.Float64()
	logger.Trade(ctx, booked.Ticker, string(booked.Action), booked.Shares, price, "cost", booked.Cost().String())
	return types.TradeDecision{Action: action, Reason: in.Headline, Trade: booked}, nil
}

// gate returns the SKIP reason of the first gate that blocks in.
func (e *Engine) gate(in interfaces.DecisionInput) (string, bool) {
	switch {
	case in.Regime == types.RiskOff && in.Sentiment > 0:
		return ReasonMacroBlocked, true
	case in.ForensicScore > e.cfg.ForensicBlockScore:
		return fmt.Sprintf("forensic risk too high (%d)", in.ForensicScore), true
	case math.Abs(in.Sentiment) < e.cfg.MinConfidence:
		return ReasonLowConfidence, true
	}
	return "", false
}

// simulate sizes against a snapshot without touching the ledger.
func (e *Engine) simulate(ctx context.Context, in interfaces.DecisionInput, action types.Action) (types.TradeDecision, error) {
	p, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return types.TradeDecision{}, err
	}
	shares := ledger.SizePosition(p.CashBalance, e.cfg.AllocationPct, e.cfg.ReferencePrice)
	if shares == 0 {
		return skip(ReasonInsufficientFunds), nil
	}
	return types.TradeDecision{
		Action: action,
		Reason: in.Headline + " (dry run)",
		Trade: &types.TradeRecord{
			Ticker:    in.Ticker,
			Action:    action,
			Shares:    shares,
			Price:     e.cfg.ReferencePrice,
			Reason:    in.Headline,
			Timestamp: e.now().UTC(),
		},
	}, nil
}

func (e *Engine) journalDecision(ctx context.Context, in interfaces.DecisionInput, d types.TradeDecision) {
	if e.journal == nil {
		return
	}
	err := e.journal.AppendDecision(tradelog.DecisionEntry{
		Ticker:        in.Ticker,
		Headline:      in.Headline,
		Sentiment:     in.Sentiment,
		Regime:        in.Regime,
		ForensicScore: in.ForensicScore,
		Decision:      d,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal decision", err, "ticker", in.Ticker)
	}
}

func validate(in interfaces.DecisionInput) error {
	switch {
	case in.Ticker == "":
		return fmt.Errorf("%w: missing ticker", types.ErrInvalidDecisionInput)
	case !in.Regime.Valid():
		return fmt.Errorf("%w: unknown regime %q", types.ErrInvalidDecisionInput, in.Regime)
	case in.ForensicScore < 0 || in.ForensicScore > 100:
		return fmt.Errorf("%w: forensic score %d out of range", types.ErrInvalidDecisionInput, in.ForensicScore)
	case math.IsNaN(in.Sentiment) || in.Sentiment < -1 || in.Sentiment > 1:
		return fmt.Errorf("%w: sentiment %v out of range", types.ErrInvalidDecisionInput, in.Sentiment)
	}
	return nil
}

func skip(reason string) types.TradeDecision {
	return types.TradeDecision{Action: types.ActionSkip, Reason: reason}
}
