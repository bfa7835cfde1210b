package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/store"
	"news-trader/internal/types"
)

func testConfig(t *testing.T) *store.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := store.Default()
	cfg.Storage.SQLitePath = filepath.Join(dir, "db", "news.db")
	cfg.TradeLog.Dir = filepath.Join(dir, "logs")
	cfg.Macro.Source = "STATIC"
	cfg.Macro.Static.VIX = 18
	cfg.Macro.Static.TenYearYield = 4.0
	cfg.Analyzer.Seed = 42
	return cfg
}

func TestAppProcessesEventEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.close(ctx)

	rec, err := a.orch.Run(ctx, types.NewsEvent{
		ID:        "cli-1",
		Ticker:    "TSLA",
		Headline:  "TSLA reports Q3 earnings beat, stock jumps 5%",
		Source:    "Bloomberg",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Decision)
	assert.Equal(t, types.ActionBuy, rec.Decision.Action)

	p, err := a.ledger.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Holdings["TSLA"])
	assert.True(t, p.CashBalance.Equal(decimal.NewFromInt(98000)))

	events, err := a.db.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "cli-1", events[0].ID)

	docs := a.search.Query("tsla", "earnings")
	require.Len(t, docs, 1)
	assert.Equal(t, "cli-1", docs[0].ID)
}

func TestAppReopenKeepsPortfolio(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	_, err = a.orch.Run(ctx, types.NewsEvent{
		ID:        "cli-2",
		Ticker:    "AAPL",
		Headline:  "AAPL shares rally after upgrade",
		Source:    "Reuters",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	a.close(ctx)

	b, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer b.close(ctx)

	p, err := b.ledger.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, p.TradeHistory, 1)
	assert.Equal(t, "AAPL", p.TradeHistory[0].Ticker)
}

func TestScanCommand(t *testing.T) {
	cmd := newScanCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "json", "auditor resignation and going concern doubts"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"forensic_score": 50`)
}
