package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "mode: PAPER\n"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.Equal(t, 100000.0, cfg.Portfolio.InitialCash)
	assert.Equal(t, 2.0, cfg.Portfolio.AllocationPct)
	assert.Equal(t, 100.0, cfg.Portfolio.ReferencePrice)
	assert.Equal(t, 0.5, cfg.Gates.MinConfidence)
	assert.Equal(t, 50, cfg.Gates.ForensicBlockScore)
	assert.Equal(t, 25.0, cfg.Macro.VIXCutoff)
	assert.Equal(t, 4.5, cfg.Macro.YieldCutoff)
	assert.Equal(t, "MOCK", cfg.Source.Kind)
	assert.Len(t, cfg.Universe, 8)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
mode: DRY_RUN
poll_seconds: 3
portfolio:
  allocation_pct: 5
macro:
  source: STATIC
  static:
    vix: 30
`))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, 5.0, cfg.Portfolio.AllocationPct)
	assert.Equal(t, 30.0, cfg.Macro.Static.VIX)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"mode":       "mode: LIVE\n",
		"allocation": "portfolio:\n  allocation_pct: 150\n",
		"source":     "source:\n  kind: RSS\n",
		"scrape":     "source:\n  kind: SCRAPE\n",
		"search":     "search:\n  enabled: true\n",
		"macro":      "macro:\n  source: LIVE\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigKeepsZeroGates(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
gates:
  min_confidence: 0
  forensic_block_score: 0
`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Gates.MinConfidence)
	assert.Equal(t, 0, cfg.Gates.ForensicBlockScore)

	cfg, err = LoadConfig(writeConfig(t, "gates:\n  min_confidence: 0.3\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Gates.MinConfidence)
	assert.Equal(t, DefaultForensicBlockScore, cfg.Gates.ForensicBlockScore)
}

func TestLoadConfigReplacesUniverse(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "universe: [TSLA, GS]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA", "GS"}, cfg.Universe)
}
