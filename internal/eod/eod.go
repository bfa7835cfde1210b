package eod

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

// DefaultCutoff is the UTC time of day after which the day's summary is due.
const DefaultCutoff = 21*time.Hour + 10*time.Minute

// tradeLine is one "trade" entry of the journal's daily trade file.
type tradeLine struct {
	Event  string          `json:"event"`
	Ticker string          `json:"ticker"`
	Action string          `json:"action"`
	Shares int             `json:"shares"`
	Price  decimal.Decimal `json:"price"`
}

// aggRow holds per-ticker totals for one day.
type aggRow struct {
	Ticker     string
	BuyShares  int
	BuyValue   decimal.Decimal
	SellShares int
	SellValue  decimal.Decimal
}

// Summarizer reads the journal's trade files under dir and writes
// dir/eod/YYYY-MM-DD.csv.
type Summarizer struct {
	dir    string
	cutoff time.Duration
	now    func() time.Time
}

var _ interfaces.EodSummarizer = (*Summarizer)(nil)

func NewSummarizer(dir string, cutoff time.Duration) *Summarizer {
	if cutoff <= 0 || cutoff >= 24*time.Hour {
		cutoff = DefaultCutoff
	}
	return &Summarizer{dir: dir, cutoff: cutoff, now: time.Now}
}

// SummarizeDay writes the summary for day. It returns an empty path when no
// trades were journaled that day.
func (s *Summarizer) SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	day = day.UTC()

	aggs, err := s.aggregate(s.tradeFile(day))
	if err != nil || len(aggs) == 0 {
		return "", err
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(day)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"ticker", "buy_shares", "buy_avg", "sell_shares", "sell_avg", "net_shares", "net_cash", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var totalBuy, totalSell decimal.Decimal
	for _, k := range keys {
		r := aggs[k]
		net := r.SellValue.Sub(r.BuyValue)
		rec := []string{
			r.Ticker,
			strconv.Itoa(r.BuyShares),
			average(r.BuyValue, r.BuyShares).StringFixed(4),
			strconv.Itoa(r.SellShares),
			average(r.SellValue, r.SellShares).StringFixed(4),
			strconv.Itoa(r.BuyShares - r.SellShares),
			net.StringFixed(2),
			r.BuyValue.StringFixed(2),
			r.SellValue.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy = totalBuy.Add(r.BuyValue)
		totalSell = totalSell.Add(r.SellValue)
	}
	if err := w.Write([]string{"TOTAL", "", "", "", "", "",
		totalSell.Sub(totalBuy).StringFixed(2), totalBuy.StringFixed(2), totalSell.StringFixed(2)}); err != nil {
		return "", err
	}
	w.Flush()
	return outPath, w.Error()
}

// ShouldRunNow reports whether today's cutoff has passed and no summary
// exists yet.
func (s *Summarizer) ShouldRunNow() (bool, string) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	outPath := s.csvPath(now)
	if now.After(midnight.Add(s.cutoff)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}

func (s *Summarizer) aggregate(path string) (map[string]*aggRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var tl tradeLine
		if err := json.Unmarshal(sc.Bytes(), &tl); err != nil || tl.Event != "trade" {
			continue
		}
		row := aggs[tl.Ticker]
		if row == nil {
			row = &aggRow{Ticker: tl.Ticker}
			aggs[tl.Ticker] = row
		}
		value := tl.Price.Mul(decimal.NewFromInt(int64(tl.Shares)))
		switch types.Action(tl.Action) {
		case types.ActionBuy:
			row.BuyShares += tl.Shares
			row.BuyValue = row.BuyValue.Add(value)
		case types.ActionSell:
			row.SellShares += tl.Shares
			row.SellValue = row.SellValue.Add(value)
		}
	}
	return aggs, sc.Err()
}

func (s *Summarizer) tradeFile(day time.Time) string {
	return filepath.Join(s.dir, day.Format("2006-01-02")+".txt")
}

func (s *Summarizer) csvPath(day time.Time) string {
	return filepath.Join(s.dir, "eod", day.Format("2006-01-02")+".csv")
}

func average(value decimal.Decimal, shares int) decimal.Decimal {
	if shares == 0 {
		return decimal.Zero
	}
	return value.Div(decimal.NewFromInt(int64(shares)))
}
