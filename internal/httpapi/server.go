package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"news-trader/internal/forensic"
	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/types"
)

// PortfolioReader returns the current ledger snapshot.
type PortfolioReader interface {
	Snapshot(ctx context.Context) (types.Portfolio, error)
}

// Inspector scores text and lists the red flags found.
type Inspector interface {
	Inspect(text string) forensic.Report
}

// Searcher matches stored events against free-text terms.
type Searcher interface {
	Query(terms ...string) []types.SearchDocument
}

// StatsFunc reports pipeline counters for the health endpoint.
type StatsFunc func() any

// Deps are the read-side handles the API serves from.
type Deps struct {
	Events    interfaces.EventStore
	Portfolio PortfolioReader
	Forensic  Inspector
	Search    Searcher
	Stats     StatsFunc
}

// Server is the read API over stored events and the ledger.
type Server struct {
	deps   Deps
	engine *gin.Engine
	srv    *http.Server
}

// New builds the router. Routes live under /api.
func New(deps Deps) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	s := &Server{
		deps:   deps,
		engine: r,
		srv:    &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
	}

	api := r.Group("/api")
	{
		api.GET("/latest-news", s.latestNews)
		api.GET("/portfolio", s.portfolio)
		api.GET("/trades", s.trades)
		api.GET("/search", s.search)
		api.POST("/forensic/scan", s.forensicScan)
		api.GET("/health", s.health)
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until Shutdown is called. A Shutdown that lands
// before Serve makes it return nil at once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.Info(ctx, "Read API listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugSkip(c.Request.Context(), 1, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
