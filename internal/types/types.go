package types

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEvent marks an event missing one of its required fields.
	ErrInvalidEvent = errors.New("invalid news event")
	// ErrLedgerConflict is returned when the ledger row changed between read and write.
	ErrLedgerConflict = errors.New("ledger conflict")
	// ErrInvalidDecisionInput marks malformed regime or score inputs to the decision engine.
	ErrInvalidDecisionInput = errors.New("invalid decision input")
)

// NewsEvent is a single market-relevant headline. Immutable once created.
type NewsEvent struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Body      string    `json:"body,omitempty"` // optional article or filing text
}

// Validate checks that all required fields are present.
func (e NewsEvent) Validate() error {
	switch {
	case e.ID == "":
		return errors.Join(ErrInvalidEvent, errors.New("missing id"))
	case e.Ticker == "":
		return errors.Join(ErrInvalidEvent, errors.New("missing ticker"))
	case e.Headline == "":
		return errors.Join(ErrInvalidEvent, errors.New("missing headline"))
	case e.Source == "":
		return errors.Join(ErrInvalidEvent, errors.New("missing source"))
	case e.Timestamp.IsZero():
		return errors.Join(ErrInvalidEvent, errors.New("missing timestamp"))
	}
	return nil
}

type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

type Regime string

const (
	RiskOn  Regime = "Risk-On"
	RiskOff Regime = "Risk-Off"
)

// Valid reports whether r is one of the two known regimes.
func (r Regime) Valid() bool {
	return r == RiskOn || r == RiskOff
}

type Action string

const (
	ActionSkip Action = "SKIP"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// TradeRecord is an executed simulated trade. Append-only.
type TradeRecord struct {
	Ticker    string          `json:"ticker"`
	Action    Action          `json:"action"`
	Shares    int             `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cost returns shares × price.
func (t TradeRecord) Cost() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(int64(t.Shares)))
}

// TradeDecision is the output of the decision engine. Trade is set only when
// Action is not SKIP.
type TradeDecision struct {
	Action Action       `json:"action"`
	Reason string       `json:"reason"`
	Trade  *TradeRecord `json:"trade,omitempty"`
}

// Portfolio is the single shared ledger: cash, holdings and trade history.
// Holdings are signed share counts (negative = short). TradeHistory is newest first.
type Portfolio struct {
	CashBalance  decimal.Decimal `json:"cash_balance"`
	Holdings     map[string]int  `json:"holdings"`
	TradeHistory []TradeRecord   `json:"trade_history"`
	LastUpdated  time.Time       `json:"last_updated"`
	Version      int64           `json:"version"`
}

// Clone returns a deep copy safe to mutate.
func (p Portfolio) Clone() Portfolio {
	out := p
	out.Holdings = make(map[string]int, len(p.Holdings))
	for k, v := range p.Holdings {
		out.Holdings[k] = v
	}
	out.TradeHistory = append([]TradeRecord(nil), p.TradeHistory...)
	return out
}

// RecentTrades returns at most limit trades, newest first.
func (p Portfolio) RecentTrades(limit int) []TradeRecord {
	if limit <= 0 || limit > len(p.TradeHistory) {
		limit = len(p.TradeHistory)
	}
	return append([]TradeRecord(nil), p.TradeHistory[:limit]...)
}

// StoredEvent is the durable form of an analyzed event.
type StoredEvent struct {
	ID             string    `json:"id"`
	Ticker         string    `json:"ticker"`
	Headline       string    `json:"headline"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
	SentimentScore float64   `json:"sentiment_score"`
	MarketImpact   Impact    `json:"market_impact"`
	Summary        string    `json:"summary"`
	Entities       []string  `json:"entities"`
}

// SearchDocument is forwarded to the searchable store.
type SearchDocument struct {
	StoredEvent
	Text string `json:"text"`
}

// Analysis is the Content Analyzer output.
type Analysis struct {
	Entities  []string `json:"entities"`
	Sentiment float64  `json:"sentiment_score"`
	Impact    Impact   `json:"market_impact"`
}

// MacroIndicators are the ambient market inputs to the regime classifier.
type MacroIndicators struct {
	VIX          float64 `json:"vix"`
	TenYearYield float64 `json:"ten_year_yield"`
	Oil          float64 `json:"oil"`
}
