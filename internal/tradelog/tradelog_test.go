package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestAppendTradeAndDecision(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	day := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	j.now = func() time.Time { return day }

	require.NoError(t, j.AppendTrade(types.TradeRecord{
		Ticker: "TSLA", Action: types.ActionBuy, Shares: 20,
		Price: decimal.NewFromInt(100), Reason: "positive news", Timestamp: day,
	}))
	require.NoError(t, j.AppendDecision(DecisionEntry{
		Ticker: "GS", Sentiment: -0.7, Regime: types.RiskOff, ForensicScore: 0,
		Decision: types.TradeDecision{Action: types.ActionSkip, Reason: "confidence too low"},
	}))
	require.NoError(t, j.Close())

	trades := readLines(t, filepath.Join(dir, "2024-05-01.txt"))
	require.Len(t, trades, 1)
	assert.Equal(t, "trade", trades[0]["event"])
	assert.Equal(t, "TSLA", trades[0]["ticker"])
	assert.Equal(t, float64(20), trades[0]["shares"])
	assert.Equal(t, "2000", trades[0]["cost"])

	decisions := readLines(t, filepath.Join(dir, "decisions", "2024-05-01.txt"))
	require.Len(t, decisions, 1)
	assert.Equal(t, "SKIP", decisions[0]["action"])
	assert.Equal(t, "Risk-Off", decisions[0]["market_regime"])
}

func TestDayRollover(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	trade := types.TradeRecord{Ticker: "AAPL", Action: types.ActionSell, Shares: 1, Price: decimal.NewFromInt(100)}
	require.NoError(t, j.AppendTrade(trade))
	now = now.Add(2 * time.Minute)
	require.NoError(t, j.AppendTrade(trade))
	require.NoError(t, j.Close())

	assert.Len(t, readLines(t, filepath.Join(dir, "2024-05-01.txt")), 1)
	assert.Len(t, readLines(t, filepath.Join(dir, "2024-05-02.txt")), 1)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)

	old := filepath.Join(dir, "2024-01-01.txt")
	fresh := filepath.Join(dir, "2024-05-01.txt")
	require.NoError(t, os.WriteFile(old, []byte("{\"event\":\"trade\"}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, j.CompressOlder(7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "{\"event\":\"trade\"}\n", string(data))
}
