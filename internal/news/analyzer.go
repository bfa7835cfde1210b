package news

import (
	"context"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"news-trader/internal/interfaces"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

// band is a closed score range drawn from when a rule matches.
type band struct {
	lo, hi float64
}

var (
	positiveKeywords = []string{"beat", "upgrade", "rally", "jump", "acquire", "revolutionary"}
	negativeKeywords = []string{"scrutiny", "resignation", "issues", "hit", "weigh"}

	positiveBand = band{0.5, 0.9}
	negativeBand = band{-0.9, -0.5}
	neutralBand  = band{-0.2, 0.2}

	cashtagPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
)

// SentimentAnalyzer scores headlines with a keyword rule table. The draw
// inside a matched band comes from the injected random source, so a fixed
// seed replays the same scores.
type SentimentAnalyzer struct {
	mu       sync.Mutex
	rng      *rand.Rand
	universe map[string]struct{}
}

var _ interfaces.ContentAnalyzer = (*SentimentAnalyzer)(nil)

// NewSentimentAnalyzer creates an analyzer. universe lists tickers that are
// extracted as entities when they appear in a headline.
func NewSentimentAnalyzer(rng *rand.Rand, universe []string) *SentimentAnalyzer {
	u := make(map[string]struct{}, len(universe))
	for _, t := range universe {
		u[strings.ToUpper(t)] = struct{}{}
	}
	return &SentimentAnalyzer{rng: rng, universe: u}
}

// Analyze implements interfaces.ContentAnalyzer.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, ev types.NewsEvent) (types.Analysis, error) {
	_, span := trace.StartSpan(ctx, "news.Analyze")
	defer span.End()

	score := a.Score(ev.Headline)
	return types.Analysis{
		Entities:  a.ExtractEntities(ev),
		Sentiment: score,
		Impact:    ImpactLabel(score),
	}, nil
}

// Score draws a sentiment score for headline from the band its keywords select.
// Positive keywords take precedence over negative ones.
func (a *SentimentAnalyzer) Score(headline string) float64 {
	b := bandFor(headline)

	a.mu.Lock()
	f := a.rng.Float64()
	a.mu.Unlock()

	return b.lo + f*(b.hi-b.lo)
}

func bandFor(headline string) band {
	h := strings.ToLower(headline)
	switch {
	case containsAny(h, positiveKeywords):
		return positiveBand
	case containsAny(h, negativeKeywords):
		return negativeBand
	default:
		return neutralBand
	}
}

// ExtractEntities returns the event ticker first, then cashtags and universe
// tickers mentioned in the headline, without repeats.
func (a *SentimentAnalyzer) ExtractEntities(ev types.NewsEvent) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(t string) {
		t = strings.ToUpper(t)
		if _, ok := seen[t]; ok || t == "" {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	add(ev.Ticker)
	for _, m := range cashtagPattern.FindAllStringSubmatch(ev.Headline, -1) {
		add(m[1])
	}
	for _, word := range strings.FieldsFunc(ev.Headline, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if _, ok := a.universe[word]; ok {
			add(word)
		}
	}
	return out
}

// ImpactLabel maps a sentiment score to an impact label by magnitude.
// |s| > 0.6 is High, |s| > 0.3 is Medium, anything else is Low; the boundary
// values 0.6 and 0.3 fall into the lower label.
func ImpactLabel(score float64) types.Impact {
	m := math.Abs(score)
	switch {
	case m > 0.6:
		return types.ImpactHigh
	case m > 0.3:
		return types.ImpactMedium
	default:
		return types.ImpactLow
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
