package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"news-trader/internal/dedup"
	"news-trader/internal/engine"
	"news-trader/internal/engine/engineobs"
	"news-trader/internal/eod"
	"news-trader/internal/eod/eodobs"
	"news-trader/internal/forensic"
	"news-trader/internal/httpapi"
	"news-trader/internal/interfaces"
	"news-trader/internal/ledger"
	"news-trader/internal/logger"
	"news-trader/internal/macro"
	"news-trader/internal/news"
	"news-trader/internal/pipeline"
	"news-trader/internal/recorder"
	"news-trader/internal/search"
	"news-trader/internal/storage"
	"news-trader/internal/store"
	"news-trader/internal/trace"
	"news-trader/internal/tradelog"
)

// app holds every wired component for one process.
type app struct {
	cfg      *store.Config
	db       *storage.Store
	ledger   *ledger.Ledger
	journal  *tradelog.Journal
	eod      interfaces.EodSummarizer
	scanner  *forensic.Scanner
	search   *search.MemoryIndex
	orch     *pipeline.Orchestrator
	runner   *pipeline.Runner
	source   interfaces.EventSource
	api      *httpapi.Server
	shutdown []func(context.Context) error
}

// initializeSystem loads .env and sets up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if os.IsNotExist(err) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.Default(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// newApp opens storage and wires the pipeline. Callers must call close.
func newApp(ctx context.Context, cfg *store.Config) (*app, error) {
	db, err := storage.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := db.EnsurePortfolio(ctx, decimal.NewFromFloat(cfg.Portfolio.InitialCash)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize portfolio: %w", err)
	}

	a := &app{
		cfg:     cfg,
		db:      db,
		ledger:  ledger.New(db, cfg.Portfolio.MaxConflictRetries),
		journal: tradelog.New(cfg.TradeLog.Dir),
		eod:     eodobs.Wrap(eod.NewSummarizer(cfg.TradeLog.Dir, 0)),
		scanner: forensic.NewScanner(nil),
		search:  search.NewMemoryIndex(),
	}
	a.compressOldLogs(ctx)

	if cfg.Mode == store.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - trades will be sized but not booked")
	}

	a.orch = pipeline.New(pipeline.Deps{
		Dedup:    dedup.New(cfg.DedupWindow(), cfg.Dedup.MatchHeadlines),
		Analyzer: news.NewSentimentAnalyzer(newRand(cfg.Analyzer.Seed), cfg.Universe),
		Recorder: recorder.New(db, initializeSearch(ctx, cfg, a.search), recorder.Config{
			WriteRetries:  cfg.Storage.WriteRetries,
			RetryBackoff:  time.Duration(cfg.Storage.RetryBackoffMs) * time.Millisecond,
			WriteTimeout:  time.Duration(cfg.Storage.TimeoutMs) * time.Millisecond,
			SearchTimeout: time.Duration(cfg.Search.TimeoutMs) * time.Millisecond,
		}),
		Regime:   initializeRegime(ctx, cfg),
		Forensic: a.scanner,
		Engine:   engineobs.Wrap(engine.New(cfg, a.ledger, a.journal)),
	}, pipeline.Timeouts{})

	a.runner = pipeline.NewRunner(a.orch, cfg.QueueDepth)
	a.source = initializeSource(ctx, cfg)
	return a, nil
}

func (a *app) compressOldLogs(ctx context.Context) {
	if err := a.journal.CompressOlder(a.cfg.TradeLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeSearch always indexes into local, which backs /api/search, and
// also forwards to the HTTP search index when enabled.
func initializeSearch(ctx context.Context, cfg *store.Config, local *search.MemoryIndex) interfaces.SearchIndex {
	if !cfg.Search.Enabled {
		logger.Info(ctx, "External search index disabled, indexing in memory only")
		return local
	}
	logger.Info(ctx, "Forwarding events to search index", "url", cfg.Search.URL, "collection", cfg.Search.Collection)
	return search.Tee{
		search.NewHTTPIndex(search.HTTPConfig{
			URL:        cfg.Search.URL,
			Collection: cfg.Search.Collection,
			Timeout:    time.Duration(cfg.Search.TimeoutMs) * time.Millisecond,
			RatePerSec: cfg.Search.RatePerSec,
		}),
		local,
	}
}

func initializeRegime(ctx context.Context, cfg *store.Config) interfaces.RegimeClassifier {
	var src macro.IndicatorSource
	if strings.EqualFold(cfg.Macro.Source, "STATIC") {
		s := cfg.Macro.Static
		src = macro.StaticIndicators{VIX: s.VIX, TenYearYield: s.TenYearYield, Oil: s.Oil}
		logger.Info(ctx, "Using STATIC macro indicators", "vix", s.VIX, "ten_year_yield", s.TenYearYield)
	} else {
		src = macro.NewRandomIndicators(newRand(cfg.Macro.Seed))
	}
	return macro.NewClassifier(src, macro.Thresholds{
		VIX:          cfg.Macro.VIXCutoff,
		TenYearYield: cfg.Macro.YieldCutoff,
	})
}

func initializeSource(ctx context.Context, cfg *store.Config) interfaces.EventSource {
	if strings.EqualFold(cfg.Source.Kind, "SCRAPE") {
		logger.Info(ctx, "Using scraped headlines", "pages", len(cfg.Source.URLs))
		return news.NewScraperSource(news.ScraperConfig{
			URLs:       cfg.Source.URLs,
			Selector:   cfg.Source.Selector,
			Universe:   cfg.Universe,
			RatePerSec: cfg.Source.RatePerSec,
			Timeout:    time.Duration(cfg.Source.TimeoutSecs) * time.Second,
		})
	}
	logger.Info(ctx, "Using MOCK news feed", "tickers", len(cfg.Universe))
	return news.NewGenerator(newRand(cfg.Source.Seed), cfg.Universe)
}

func (a *app) startAPI(ctx context.Context) {
	if !a.cfg.API.Enabled {
		return
	}
	a.api = httpapi.New(httpapi.Deps{
		Events:    a.db,
		Portfolio: a.ledger,
		Forensic:  a.scanner,
		Search:    a.search,
		Stats:     func() any { return a.runner.Stats() },
	})
	go func() {
		if err := a.api.Start(ctx, a.cfg.API.Addr); err != nil {
			logger.ErrorWithErr(ctx, "Read API stopped", err)
		}
	}()
	a.shutdown = append(a.shutdown, a.api.Shutdown)
}

// runEOD writes the day's summary once the cutoff passes.
func (a *app) runEOD(ctx context.Context) {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if ok, _ := a.eod.ShouldRunNow(); ok {
				_, _ = a.eod.SummarizeDay(ctx, time.Now())
			}
		}
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			logger.Warn(ctx, "Shutdown step failed", "error", err)
		}
	}
	if err := a.journal.Close(); err != nil {
		logger.Warn(ctx, "Failed to close trade journal", "error", err)
	}
	if err := a.db.Close(); err != nil {
		logger.Warn(ctx, "Failed to close storage", "error", err)
	}
}

// newRand seeds from the clock when seed is zero.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
