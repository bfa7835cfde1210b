package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModePaper  = "PAPER"
	ModeDryRun = "DRY_RUN"
)

// Gate defaults. Zero is a meaningful threshold for both gates, so they are
// seeded before decoding rather than filled in afterwards.
const (
	DefaultMinConfidence      = 0.5
	DefaultForensicBlockScore = 50
)

type Config struct {
	Mode        string   `yaml:"mode"`
	PollSeconds int      `yaml:"poll_seconds"`
	QueueDepth  int      `yaml:"queue_depth"`
	Universe    []string `yaml:"universe"`
	Source      struct {
		Kind        string   `yaml:"kind"` // MOCK or SCRAPE
		Seed        int64    `yaml:"seed"`
		BatchSize   int      `yaml:"batch_size"`
		URLs        []string `yaml:"urls"`
		Selector    string   `yaml:"selector"`
		RatePerSec  float64  `yaml:"rate_per_sec"`
		TimeoutSecs int      `yaml:"timeout_seconds"`
	} `yaml:"source"`
	Portfolio struct {
		InitialCash        float64 `yaml:"initial_cash"`
		AllocationPct      float64 `yaml:"allocation_pct"`
		ReferencePrice     float64 `yaml:"reference_price"`
		MaxConflictRetries int     `yaml:"max_conflict_retries"`
	} `yaml:"portfolio"`
	Gates struct {
		MinConfidence      float64 `yaml:"min_confidence"`
		ForensicBlockScore int     `yaml:"forensic_block_score"`
	} `yaml:"gates"`
	Analyzer struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"analyzer"`
	Macro struct {
		Source      string  `yaml:"source"` // RANDOM or STATIC
		Seed        int64   `yaml:"seed"`
		VIXCutoff   float64 `yaml:"vix_cutoff"`
		YieldCutoff float64 `yaml:"yield_cutoff"`
		Static      struct {
			VIX          float64 `yaml:"vix"`
			TenYearYield float64 `yaml:"ten_year_yield"`
			Oil          float64 `yaml:"oil"`
		} `yaml:"static"`
	} `yaml:"macro"`
	Dedup struct {
		WindowMinutes  int  `yaml:"window_minutes"`
		MatchHeadlines bool `yaml:"match_headlines"`
	} `yaml:"dedup"`
	Storage struct {
		SQLitePath     string `yaml:"sqlite_path"`
		WriteRetries   int    `yaml:"write_retries"`
		RetryBackoffMs int    `yaml:"retry_backoff_ms"`
		TimeoutMs      int    `yaml:"timeout_ms"`
	} `yaml:"storage"`
	Search struct {
		Enabled    bool    `yaml:"enabled"`
		URL        string  `yaml:"url"`
		Collection string  `yaml:"collection"`
		TimeoutMs  int     `yaml:"timeout_ms"`
		RatePerSec float64 `yaml:"rate_per_sec"`
	} `yaml:"search"`
	API struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"api"`
	TradeLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"tradelog"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.Gates.MinConfidence = DefaultMinConfidence
	c.Gates.ForensicBlockScore = DefaultForensicBlockScore
	c.applyDefaults()
	return c
}

// applyDefaults fills fields where zero means unset. Gate thresholds are not
// touched here.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModePaper
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 10
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = 16
	}
	if len(c.Universe) == 0 {
		c.Universe = []string{"AAPL", "TSLA", "GOOGL", "AMZN", "MSFT", "NVDA", "JPM", "GS"}
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "MOCK"
	}
	if c.Source.BatchSize == 0 {
		c.Source.BatchSize = 1
	}
	if c.Source.Selector == "" {
		c.Source.Selector = "article h3, article h2"
	}
	if c.Source.RatePerSec == 0 {
		c.Source.RatePerSec = 0.5
	}
	if c.Source.TimeoutSecs == 0 {
		c.Source.TimeoutSecs = 30
	}
	if c.Portfolio.InitialCash == 0 {
		c.Portfolio.InitialCash = 100000
	}
	if c.Portfolio.AllocationPct == 0 {
		c.Portfolio.AllocationPct = 2
	}
	if c.Portfolio.ReferencePrice == 0 {
		c.Portfolio.ReferencePrice = 100
	}
	if c.Portfolio.MaxConflictRetries == 0 {
		c.Portfolio.MaxConflictRetries = 3
	}
	if c.Macro.Source == "" {
		c.Macro.Source = "RANDOM"
	}
	if c.Macro.VIXCutoff == 0 {
		c.Macro.VIXCutoff = 25
	}
	if c.Macro.YieldCutoff == 0 {
		c.Macro.YieldCutoff = 4.5
	}
	if c.Dedup.WindowMinutes == 0 {
		c.Dedup.WindowMinutes = 60
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/news-trader.db"
	}
	if c.Storage.WriteRetries == 0 {
		c.Storage.WriteRetries = 3
	}
	if c.Storage.RetryBackoffMs == 0 {
		c.Storage.RetryBackoffMs = 200
	}
	if c.Storage.TimeoutMs == 0 {
		c.Storage.TimeoutMs = 2000
	}
	if c.Search.Collection == "" {
		c.Search.Collection = "news_embeddings"
	}
	if c.Search.TimeoutMs == 0 {
		c.Search.TimeoutMs = 1500
	}
	if c.Search.RatePerSec == 0 {
		c.Search.RatePerSec = 5
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8000"
	}
	if c.TradeLog.Dir == "" {
		c.TradeLog.Dir = "logs"
	}
}

func (c *Config) Validate() error {
	if c.Mode != ModePaper && c.Mode != ModeDryRun {
		return fmt.Errorf("invalid mode '%s': must be 'PAPER' or 'DRY_RUN'", c.Mode)
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", c.QueueDepth)
	}
	if k := strings.ToUpper(c.Source.Kind); k != "MOCK" && k != "SCRAPE" {
		return fmt.Errorf("source.kind must be 'MOCK' or 'SCRAPE', got '%s'", c.Source.Kind)
	}
	if strings.EqualFold(c.Source.Kind, "SCRAPE") && len(c.Source.URLs) == 0 {
		return errors.New("source.urls cannot be empty when source.kind is SCRAPE")
	}
	if c.Portfolio.InitialCash < 0 {
		return fmt.Errorf("portfolio.initial_cash must be non-negative, got %.2f", c.Portfolio.InitialCash)
	}
	if c.Portfolio.AllocationPct <= 0 || c.Portfolio.AllocationPct > 100 {
		return fmt.Errorf("portfolio.allocation_pct must be between 0-100, got %.2f", c.Portfolio.AllocationPct)
	}
	if c.Portfolio.ReferencePrice <= 0 {
		return fmt.Errorf("portfolio.reference_price must be positive, got %.2f", c.Portfolio.ReferencePrice)
	}
	if c.Gates.MinConfidence < 0 || c.Gates.MinConfidence > 1 {
		return fmt.Errorf("gates.min_confidence must be between 0-1, got %.2f", c.Gates.MinConfidence)
	}
	if c.Gates.ForensicBlockScore < 0 || c.Gates.ForensicBlockScore > 100 {
		return fmt.Errorf("gates.forensic_block_score must be between 0-100, got %d", c.Gates.ForensicBlockScore)
	}
	if m := strings.ToUpper(c.Macro.Source); m != "RANDOM" && m != "STATIC" {
		return fmt.Errorf("macro.source must be 'RANDOM' or 'STATIC', got '%s'", c.Macro.Source)
	}
	if c.Search.Enabled && c.Search.URL == "" {
		return errors.New("search.url is required when search is enabled")
	}
	if c.Storage.WriteRetries < 1 {
		return fmt.Errorf("storage.write_retries must be at least 1, got %d", c.Storage.WriteRetries)
	}
	return nil
}

// PollInterval is the scheduler tick.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// DedupWindow is how long a seen event stays a duplicate.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Dedup.WindowMinutes) * time.Minute
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Keys absent from the file keep their Default value.
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
