package eod

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/eod/eodobs"
	"news-trader/internal/logger"
	"news-trader/internal/tradelog"
	"news-trader/internal/types"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSummarizeDayAggregatesByTicker(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	lines := []string{
		`{"event":"trade","ticker":"TSLA","action":"BUY","shares":20,"price":"100"}`,
		`{"event":"trade","ticker":"TSLA","action":"BUY","shares":10,"price":"130"}`,
		`{"event":"trade","ticker":"GS","action":"SELL","shares":20,"price":"100"}`,
		`not json`,
		`{"event":"decision","ticker":"AAPL","action":"SKIP"}`,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-05-01.txt"), []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	path, err := NewSummarizer(dir, 0).SummarizeDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eod", "2024-05-01.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, "ticker", rows[0][0])
	assert.Equal(t, []string{"GS", "0", "0.0000", "20", "100.0000", "-20", "2000.00", "0.00", "2000.00"}, rows[1])
	assert.Equal(t, []string{"TSLA", "30", "110.0000", "0", "0.0000", "30", "-3300.00", "3300.00", "0.00"}, rows[2])
	assert.Equal(t, []string{"TOTAL", "", "", "", "", "", "-1300.00", "3300.00", "2000.00"}, rows[3])
}

func TestSummarizeDayWithoutTrades(t *testing.T) {
	path, err := NewSummarizer(t.TempDir(), 0).SummarizeDay(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestSummarizeJournalOutput(t *testing.T) {
	dir := t.TempDir()
	j := tradelog.New(dir)
	require.NoError(t, j.AppendTrade(types.TradeRecord{
		Ticker:    "NVDA",
		Action:    types.ActionBuy,
		Shares:    5,
		Price:     decimal.NewFromInt(100),
		Reason:    "NVDA headline",
		Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, j.Close())

	path, err := eodobs.Wrap(NewSummarizer(dir, 0)).SummarizeDay(context.Background(), time.Now())
	require.NoError(t, err)
	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "NVDA", rows[1][0])
	assert.Equal(t, "5", rows[1][1])
}

func TestShouldRunNow(t *testing.T) {
	dir := t.TempDir()
	s := NewSummarizer(dir, 0)

	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	run, _ := s.ShouldRunNow()
	assert.False(t, run)

	s.now = func() time.Time { return time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC) }
	run, path := s.ShouldRunNow()
	assert.True(t, run)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("done"), 0o644))
	run, _ = s.ShouldRunNow()
	assert.False(t, run)
}

func TestWrappedSummaryFailureIsWarned(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithConfig(logger.LogConfig{Level: "INFO", Format: "json", Output: &buf}))
	t.Cleanup(func() {
		_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "json"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path, err := eodobs.Wrap(NewSummarizer(t.TempDir(), 0)).SummarizeDay(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, path)

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"msg":"EOD summary generation failed"`)
	assert.Contains(t, out, `"date":"2024-05-01"`)
}
