package tradelog

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"news-trader/internal/types"
)

// Journal appends executed trades and engine decisions to daily JSONL files:
// <dir>/YYYY-MM-DD.txt for trades and <dir>/decisions/YYYY-MM-DD.txt for
// decisions. Days roll over in UTC.
type Journal struct {
	dir       string
	trades    *dailySink
	decisions *dailySink
	now       func() time.Time
}

func New(dir string) *Journal {
	if dir == "" {
		dir = "logs"
	}
	return &Journal{
		dir:       dir,
		trades:    &dailySink{dir: dir},
		decisions: &dailySink{dir: filepath.Join(dir, "decisions")},
		now:       time.Now,
	}
}

// Dir returns the journal root.
func (j *Journal) Dir() string { return j.dir }

// AppendTrade records an executed trade.
func (j *Journal) AppendTrade(t types.TradeRecord) error {
	return j.trades.write(j.now().UTC(), "trade",
		zap.String("ticker", t.Ticker),
		zap.String("action", string(t.Action)),
		zap.Int("shares", t.Shares),
		zap.String("price", t.Price.String()),
		zap.String("cost", t.Cost().String()),
		zap.String("reason", t.Reason),
		zap.Time("executed_at", t.Timestamp.UTC()),
	)
}

// DecisionEntry is the engine input and outcome of one decision.
type DecisionEntry struct {
	Ticker        string
	Headline      string
	Sentiment     float64
	Regime        types.Regime
	ForensicScore int
	Decision      types.TradeDecision
}

// AppendDecision records a decision, including SKIPs.
func (j *Journal) AppendDecision(e DecisionEntry) error {
	return j.decisions.write(j.now().UTC(), "decision",
		zap.String("ticker", e.Ticker),
		zap.String("headline", e.Headline),
		zap.Float64("sentiment_score", e.Sentiment),
		zap.String("market_regime", string(e.Regime)),
		zap.Int("forensic_score", e.ForensicScore),
		zap.String("action", string(e.Decision.Action)),
		zap.String("reason", e.Decision.Reason),
	)
}

// Close flushes and closes the open day files.
func (j *Journal) Close() error {
	err1 := j.trades.close()
	err2 := j.decisions.close()
	if err1 != nil {
		return err1
	}
	return err2
}

// dailySink owns one open file and the zap logger writing to it.
type dailySink struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	log  *zap.Logger
}

func (s *dailySink) write(now time.Time, msg string, fields ...zap.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if day := now.Format("2006-01-02"); day != s.day || s.log == nil {
		if err := s.open(day); err != nil {
			return err
		}
	}
	s.log.Info(msg, append([]zap.Field{zap.Time("time", now)}, fields...)...)
	return nil
}

func (s *dailySink) open(day string) error {
	if err := s.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, day+".txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	})
	s.file = f
	s.day = day
	s.log = zap.New(zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel))
	return nil
}

func (s *dailySink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *dailySink) closeLocked() error {
	if s.file == nil {
		return nil
	}
	_ = s.log.Sync()
	err := s.file.Close()
	s.file, s.log, s.day = nil, nil, ""
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays
// ago and removes the originals.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
