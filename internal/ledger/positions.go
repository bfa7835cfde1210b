package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"news-trader/internal/types"
)

// Apply books an executed trade onto p: cash, holdings and history move
// together. BUY debits cash and adds shares. SELL opens or adds to a short by
// crediting cash and subtracting shares; there is no margin check.
func Apply(p *types.Portfolio, t types.TradeRecord) error {
	if t.Shares <= 0 {
		return fmt.Errorf("trade for %s has non-positive shares %d", t.Ticker, t.Shares)
	}
	if p.Holdings == nil {
		p.Holdings = map[string]int{}
	}

	cost := t.Cost()
	switch t.Action {
	case types.ActionBuy:
		if cost.GreaterThan(p.CashBalance) {
			return fmt.Errorf("trade for %s costs %s, cash is %s", t.Ticker, cost, p.CashBalance)
		}
		p.CashBalance = p.CashBalance.Sub(cost)
		p.Holdings[t.Ticker] += t.Shares
	case types.ActionSell:
		p.CashBalance = p.CashBalance.Add(cost)
		p.Holdings[t.Ticker] -= t.Shares
	default:
		return fmt.Errorf("cannot book %s trade", t.Action)
	}

	p.TradeHistory = append([]types.TradeRecord{t}, p.TradeHistory...)
	return nil
}

// SizePosition returns floor(cash * pct / 100 / price). Zero means the
// allocation cannot buy a single share.
func SizePosition(cash decimal.Decimal, pct float64, price decimal.Decimal) int {
	if !price.IsPositive() || !cash.IsPositive() || pct <= 0 {
		return 0
	}
	allocation := cash.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	return int(allocation.Div(price).Floor().IntPart())
}

// NewPortfolio returns an empty portfolio holding only cash.
func NewPortfolio(cash decimal.Decimal) types.Portfolio {
	return types.Portfolio{
		CashBalance:  cash,
		Holdings:     map[string]int{},
		TradeHistory: []types.TradeRecord{},
	}
}
