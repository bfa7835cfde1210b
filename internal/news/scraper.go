package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/types"
)

// ScraperConfig configures a headline scraper.
type ScraperConfig struct {
	URLs       []string      // pages listing headlines
	Selector   string        // CSS selector for a headline element
	Universe   []string      // tickers to attribute headlines to
	RatePerSec float64       // page fetch rate
	Timeout    time.Duration // per-request timeout
}

// ScraperSource scrapes headlines from configured pages and keeps only those
// that mention a ticker of the universe.
type ScraperSource struct {
	cfg     ScraperConfig
	limiter *rate.Limiter
	now     func() time.Time
}

var _ interfaces.EventSource = (*ScraperSource)(nil)

func NewScraperSource(cfg ScraperConfig) *ScraperSource {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 0.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ScraperSource{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		now:     time.Now,
	}
}

// Fetch implements interfaces.EventSource. Pages that fail are logged and skipped.
func (s *ScraperSource) Fetch(ctx context.Context, n int) ([]types.NewsEvent, error) {
	events := []types.NewsEvent{}
	for _, page := range s.cfg.URLs {
		if len(events) >= n {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return events, err
		}
		got, err := s.scrapePage(ctx, page, n-len(events))
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape page", err, "url", page)
			continue
		}
		events = append(events, got...)
	}
	return events, nil
}

func (s *ScraperSource) scrapePage(ctx context.Context, page string, max int) ([]types.NewsEvent, error) {
	events := []types.NewsEvent{}
	source := getDomain(page)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.cfg.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML(s.cfg.Selector, func(e *colly.HTMLElement) {
		if len(events) >= max {
			return
		}
		headline := strings.Join(strings.Fields(e.Text), " ")
		ticker := matchTicker(headline, s.cfg.Universe)
		if headline == "" || ticker == "" {
			return
		}
		events = append(events, types.NewsEvent{
			ID:        headlineID(source, headline),
			Ticker:    ticker,
			Headline:  headline,
			Source:    source,
			Timestamp: s.now().UTC(),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "url", r.Request.URL.String())
	})

	if err := c.Visit(page); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", page, err)
	}
	c.Wait()

	logger.Debug(ctx, "Page scraped", "url", page, "events", len(events))
	return events, nil
}

// headlineID derives a stable id so a headline scraped twice keeps its identity.
func headlineID(source, headline string) string {
	sum := sha256.Sum256([]byte(source + "|" + headline))
	return hex.EncodeToString(sum[:16])
}

// matchTicker returns the first universe ticker appearing as a word in headline.
func matchTicker(headline string, universe []string) string {
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(headline, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ':' || r == '(' || r == ')' || r == '$' || r == '\''
	}) {
		words[w] = struct{}{}
	}
	for _, t := range universe {
		if _, ok := words[strings.ToUpper(t)]; ok {
			return strings.ToUpper(t)
		}
	}
	return ""
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
