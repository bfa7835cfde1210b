package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"news-trader/internal/logger"
)

const (
	defaultNewsLimit   = 50
	defaultTradeLimit  = 50
	defaultSearchLimit = 20
	maxLimit           = 500
)

func (s *Server) latestNews(c *gin.Context) {
	limit := queryLimit(c, defaultNewsLimit)

	events, err := s.deps.Events.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to load recent events", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) portfolio(c *gin.Context) {
	p, err := s.deps.Portfolio.Snapshot(c.Request.Context())
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to load portfolio", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) trades(c *gin.Context) {
	limit := queryLimit(c, defaultTradeLimit)

	p, err := s.deps.Portfolio.Snapshot(c.Request.Context())
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to load trades", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p.RecentTrades(limit))
}

func (s *Server) search(c *gin.Context) {
	if s.deps.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not available"})
		return
	}
	terms := strings.Fields(c.Query("q"))
	if len(terms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	docs := s.deps.Search.Query(terms...)
	if limit := queryLimit(c, defaultSearchLimit); len(docs) > limit {
		docs = docs[:limit]
	}
	c.JSON(http.StatusOK, docs)
}

type scanRequest struct {
	Text string `json:"text"`
}

func (s *Server) forensicScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	report := s.deps.Forensic.Inspect(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"risk_score": report.Score,
		"flags":      report.Flags,
	})
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.deps.Stats != nil {
		resp["pipeline"] = s.deps.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// queryLimit reads ?limit=, falling back to def for missing or bad values.
func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
