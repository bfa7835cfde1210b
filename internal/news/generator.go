package news

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

var (
	defaultSources = []string{"Bloomberg", "Reuters", "CNBC", "WSJ", "Financial Times"}

	headlineTemplates = []string{
		"{ticker} reports Q3 earnings beat, stock jumps 5%",
		"{ticker} faces regulatory scrutiny over new AI product",
		"Analysts upgrade {ticker} to Buy, citing strong demand",
		"{ticker} CEO announces surprise resignation",
		"Market rally led by {ticker} and tech sector",
		"{ticker} to acquire smaller rival for $2B",
		"Supply chain issues hit {ticker} production",
		"{ticker} unveils revolutionary new battery tech",
		"Inflation concerns weigh on {ticker} outlook",
		"{ticker} partners with major auto manufacturer",
	}
)

// Generator is a mock feed that produces synthetic headlines for a ticker universe.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	tickers []string
	now     func() time.Time
}

var _ interfaces.EventSource = (*Generator)(nil)

func NewGenerator(rng *rand.Rand, tickers []string) *Generator {
	return &Generator{rng: rng, tickers: tickers, now: time.Now}
}

// Fetch implements interfaces.EventSource.
func (g *Generator) Fetch(ctx context.Context, n int) ([]types.NewsEvent, error) {
	out := make([]types.NewsEvent, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, g.next())
	}
	return out, nil
}

func (g *Generator) next() types.NewsEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	ticker := g.tickers[g.rng.Intn(len(g.tickers))]
	tmpl := headlineTemplates[g.rng.Intn(len(headlineTemplates))]
	return types.NewsEvent{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		Headline:  strings.ReplaceAll(tmpl, "{ticker}", ticker),
		Source:    defaultSources[g.rng.Intn(len(defaultSources))],
		Timestamp: g.now().UTC(),
	}
}
