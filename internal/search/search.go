package search

import (
	"context"
	"fmt"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"news-trader/internal/api"
	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

// Text builds the indexed text blob: "headline - source", plus ": summary"
// when the summary adds something beyond the headline.
func Text(ev types.StoredEvent) string {
	s := ev.Headline + " - " + ev.Source
	if ev.Summary != "" && ev.Summary != ev.Headline {
		s += ": " + ev.Summary
	}
	return s
}

// Document wraps ev with its text blob.
func Document(ev types.StoredEvent) types.SearchDocument {
	return types.SearchDocument{StoredEvent: ev, Text: Text(ev)}
}

// HTTPIndex forwards documents to a Chroma-compatible collection endpoint.
type HTTPIndex struct {
	client     *api.Client
	collection string
}

var _ interfaces.SearchIndex = (*HTTPIndex)(nil)

type HTTPConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
	RatePerSec float64
}

func NewHTTPIndex(cfg HTTPConfig) *HTTPIndex {
	if cfg.Collection == "" {
		cfg.Collection = "news"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &HTTPIndex{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.URL, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithRateLimit(cfg.RatePerSec),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
		collection: cfg.Collection,
	}
}

type addRequest struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

// Index implements interfaces.SearchIndex.
func (h *HTTPIndex) Index(ctx context.Context, doc types.SearchDocument) error {
	body := addRequest{
		IDs:       []string{doc.ID},
		Documents: []string{doc.Text},
		Metadatas: []map[string]any{{
			"ticker":          doc.Ticker,
			"source":          doc.Source,
			"timestamp":       doc.Timestamp.UTC().Format(time.RFC3339),
			"sentiment_score": doc.SentimentScore,
			"market_impact":   string(doc.MarketImpact),
		}},
	}
	path := "/api/v1/collections/" + url.PathEscape(h.collection) + "/upsert"
	if _, err := h.client.POST(ctx, path, body); err != nil {
		return fmt.Errorf("failed to index %s: %w", doc.ID, err)
	}
	return nil
}

// MemoryIndex keeps documents in memory, keyed by id.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]types.SearchDocument
}

var _ interfaces.SearchIndex = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: map[string]types.SearchDocument{}}
}

func (m *MemoryIndex) Index(ctx context.Context, doc types.SearchDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

// Query returns documents whose text contains every term, case-insensitively,
// newest first.
func (m *MemoryIndex) Query(terms ...string) []types.SearchDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.SearchDocument
	for _, d := range m.docs {
		text := strings.ToLower(d.Text)
		match := true
		for _, t := range terms {
			if !strings.Contains(text, strings.ToLower(t)) {
				match = false
				break
			}
		}
		if match {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Tee writes every document to each index in turn. All indexes are tried;
// their errors are joined.
type Tee []interfaces.SearchIndex

func (t Tee) Index(ctx context.Context, doc types.SearchDocument) error {
	var errs []error
	for _, idx := range t {
		if err := idx.Index(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards documents. Used when search forwarding is disabled.
type Noop struct{}

func (Noop) Index(context.Context, types.SearchDocument) error { return nil }
