package forensic

import (
	"context"
	"strings"
	"time"

	"news-trader/internal/interfaces"
	"news-trader/internal/logger"
	"news-trader/internal/trace"
)

const (
	// PointsPerFlag is added once for every distinct red-flag phrase present.
	PointsPerFlag = 25
	// MaxScore caps the forensic score.
	MaxScore = 100
)

// DefaultRedFlags are the phrases that indicate accounting or governance risk.
var DefaultRedFlags = []string{
	"auditor resignation",
	"delayed filing",
	"restatement",
	"sec probe",
	"short seller report",
	"accounting irregularities",
	"material weakness",
	"going concern",
}

// Report is the detailed result of a scan.
type Report struct {
	Ticker    string    `json:"ticker,omitempty"`
	Score     int       `json:"forensic_score"`
	Flags     []string  `json:"flags"`
	ScannedAt time.Time `json:"scanned_at"`
}

// RiskLevel buckets the score for display.
func (r Report) RiskLevel() string {
	switch {
	case r.Score >= 75:
		return "CRITICAL"
	case r.Score >= 50:
		return "HIGH"
	case r.Score >= 25:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Scanner scores free text by counting distinct red-flag phrases.
type Scanner struct {
	flags []string
	now   func() time.Time
}

var _ interfaces.ForensicScanner = (*Scanner)(nil)

// NewScanner creates a scanner over flags, or DefaultRedFlags when flags is empty.
func NewScanner(flags []string) *Scanner {
	if len(flags) == 0 {
		flags = DefaultRedFlags
	}
	lower := make([]string, 0, len(flags))
	for _, f := range flags {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			lower = append(lower, f)
		}
	}
	return &Scanner{flags: lower, now: time.Now}
}

// Scan implements interfaces.ForensicScanner. A phrase repeated many times
// counts once. Markup is stripped before matching.
func (s *Scanner) Scan(ctx context.Context, text string) (int, error) {
	_, span := trace.StartSpan(ctx, "forensic.Scan")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if looksLikeHTML(text) {
		plain, err := ExtractText(text)
		if err != nil {
			return 0, err
		}
		text = plain
	}
	return s.Inspect(text).Score, nil
}

// Inspect scans text and returns the matched phrases along with the score.
func (s *Scanner) Inspect(text string) Report {
	lower := strings.ToLower(text)
	report := Report{Flags: []string{}, ScannedAt: s.now().UTC()}
	for _, f := range s.flags {
		if strings.Contains(lower, f) {
			report.Flags = append(report.Flags, f)
		}
	}
	report.Score = clamp(len(report.Flags) * PointsPerFlag)
	return report
}

// ScanDocument extracts the visible text of an HTML document and inspects it.
func (s *Scanner) ScanDocument(ctx context.Context, ticker, html string) (Report, error) {
	text, err := ExtractText(html)
	if err != nil {
		return Report{}, err
	}
	report := s.Inspect(text)
	report.Ticker = ticker

	logger.Info(ctx, "Forensic scan complete",
		"ticker", ticker,
		"forensic_score", report.Score,
		"red_flags_count", len(report.Flags))
	return report, nil
}

func clamp(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
