package forensic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanScoresDistinctPhrases(t *testing.T) {
	s := NewScanner(nil)
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want int
	}{
		{"clean", "Quarterly revenue grew 12% on strong demand", 0},
		{"one flag", "Company announces auditor resignation", 25},
		{"repeat counts once", "restatement, restatement and another RESTATEMENT", 25},
		{"two flags", "SEC probe follows delayed filing", 50},
		{"three flags", "auditor resignation, restatement, going concern", 75},
		{"case insensitive", "MATERIAL WEAKNESS identified", 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Scan(ctx, tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScanClampsAtMax(t *testing.T) {
	s := NewScanner(nil)
	got, err := s.Scan(context.Background(), strings.Join(DefaultRedFlags, ". "))
	require.NoError(t, err)
	assert.Equal(t, MaxScore, got)
}

func TestScanBounds(t *testing.T) {
	s := NewScanner(nil)
	inputs := []string{"", "nothing", strings.Repeat("going concern ", 100), strings.Join(DefaultRedFlags, " ")}
	for _, in := range inputs {
		got, err := s.Scan(context.Background(), in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, MaxScore)
	}
}

func TestScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(nil).Scan(ctx, "restatement")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomFlags(t *testing.T) {
	s := NewScanner([]string{"  Pledge Invoked ", ""})
	r := s.Inspect("Promoter pledge invoked by lenders; restatement pending")
	assert.Equal(t, []string{"pledge invoked"}, r.Flags)
	assert.Equal(t, 25, r.Score)
}

func TestExtractText(t *testing.T) {
	html := `<html><head><style>.going{}</style><script>var concern = 1;</script></head>
	<body><h1>Notice</h1><div><p>The company disclosed a</p><p>material weakness</p></div></body></html>`

	text, err := ExtractText(html)
	require.NoError(t, err)
	assert.Contains(t, text, "material weakness")
	assert.Contains(t, text, "Notice")
	assert.NotContains(t, text, "var concern")
	assert.NotContains(t, text, ".going")
}

func TestScanDocument(t *testing.T) {
	s := NewScanner(nil)
	r, err := s.ScanDocument(context.Background(), "ACME",
		`<body><p>Short seller report alleges accounting irregularities</p></body>`)
	require.NoError(t, err)
	assert.Equal(t, "ACME", r.Ticker)
	assert.Equal(t, 50, r.Score)
	assert.Equal(t, "HIGH", r.RiskLevel())
	assert.ElementsMatch(t, []string{"short seller report", "accounting irregularities"}, r.Flags)
}

func TestScanStripsMarkup(t *testing.T) {
	got, err := NewScanner(nil).Scan(context.Background(),
		`ACME update <div><p>going</p> <p>concern</p></div><script>restatement()</script>`)
	require.NoError(t, err)
	assert.Equal(t, 25, got)
}

func TestRender(t *testing.T) {
	r := NewScanner(nil).Inspect("going concern")
	r.Ticker = "ACME"

	text, err := Render(r, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "FORENSIC SCAN - ACME")
	assert.Contains(t, text, "Forensic Score: 25/100 (MEDIUM)")

	js, err := Render(r, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, js, `"forensic_score": 25`)

	csv, err := Render(r, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, csv, `ACME,`)
	assert.Contains(t, csv, `"going concern"`)

	_, err = Render(r, ReportFormat("xml"))
	assert.Error(t, err)
}
