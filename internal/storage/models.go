package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"news-trader/internal/types"
)

// eventRow is the news table: one row per analyzed event, keyed by event id.
type eventRow struct {
	ID             string    `gorm:"primaryKey"`
	Ticker         string    `gorm:"index"`
	Headline       string    `gorm:"type:text"`
	Source         string
	Timestamp      time.Time `gorm:"index"`
	SentimentScore float64
	MarketImpact   string
	Summary        string   `gorm:"type:text"`
	Entities       []string `gorm:"serializer:json"`
}

func (eventRow) TableName() string {
	return "news"
}

func toEventRow(ev types.StoredEvent) eventRow {
	return eventRow{
		ID:             ev.ID,
		Ticker:         ev.Ticker,
		Headline:       ev.Headline,
		Source:         ev.Source,
		Timestamp:      ev.Timestamp.UTC(),
		SentimentScore: ev.SentimentScore,
		MarketImpact:   string(ev.MarketImpact),
		Summary:        ev.Summary,
		Entities:       ev.Entities,
	}
}

func (r eventRow) toStored() types.StoredEvent {
	return types.StoredEvent{
		ID:             r.ID,
		Ticker:         r.Ticker,
		Headline:       r.Headline,
		Source:         r.Source,
		Timestamp:      r.Timestamp,
		SentimentScore: r.SentimentScore,
		MarketImpact:   types.Impact(r.MarketImpact),
		Summary:        r.Summary,
		Entities:       r.Entities,
	}
}

// portfolioID is the id of the single portfolio row.
const portfolioID = 1

type portfolioRow struct {
	ID           uint                `gorm:"primaryKey"`
	CashBalance  decimal.Decimal     `gorm:"type:text"`
	Holdings     map[string]int      `gorm:"serializer:json"`
	TradeHistory []types.TradeRecord `gorm:"serializer:json"`
	LastUpdated  time.Time
	Version      int64 `gorm:"not null;default:0"`
}

func (portfolioRow) TableName() string {
	return "portfolio"
}

func toPortfolioRow(p types.Portfolio) portfolioRow {
	holdings := p.Holdings
	if holdings == nil {
		holdings = map[string]int{}
	}
	history := p.TradeHistory
	if history == nil {
		history = []types.TradeRecord{}
	}
	return portfolioRow{
		ID:           portfolioID,
		CashBalance:  p.CashBalance,
		Holdings:     holdings,
		TradeHistory: history,
		LastUpdated:  p.LastUpdated.UTC(),
		Version:      p.Version,
	}
}

func (r portfolioRow) toPortfolio() types.Portfolio {
	p := types.Portfolio{
		CashBalance:  r.CashBalance,
		Holdings:     r.Holdings,
		TradeHistory: r.TradeHistory,
		LastUpdated:  r.LastUpdated,
		Version:      r.Version,
	}
	if p.Holdings == nil {
		p.Holdings = map[string]int{}
	}
	if p.TradeHistory == nil {
		p.TradeHistory = []types.TradeRecord{}
	}
	return p
}
