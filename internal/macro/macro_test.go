package macro

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/types"
)

type failingSource struct{}

func (failingSource) Indicators(context.Context) (types.MacroIndicators, error) {
	return types.MacroIndicators{}, errors.New("feed down")
}

func TestRegimeThresholds(t *testing.T) {
	cases := []struct {
		vix, yield float64
		want       types.Regime
	}{
		{18, 4.0, types.RiskOn},
		{25, 4.5, types.RiskOn},
		{25.01, 4.0, types.RiskOff},
		{18, 4.51, types.RiskOff},
		{35, 5.0, types.RiskOff},
	}
	for _, tc := range cases {
		got := Regime(types.MacroIndicators{VIX: tc.vix, TenYearYield: tc.yield}, DefaultThresholds)
		assert.Equal(t, tc.want, got, "vix=%v yield=%v", tc.vix, tc.yield)
	}
}

func TestClassifyStatic(t *testing.T) {
	c := NewClassifier(StaticIndicators{VIX: 30, TenYearYield: 4.0, Oil: 80}, Thresholds{})
	got, err := c.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RiskOff, got)

	c = NewClassifier(StaticIndicators{VIX: 30, TenYearYield: 4.0}, Thresholds{VIX: 40, TenYearYield: 4.5})
	got, err = c.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RiskOn, got)
}

func TestClassifySourceError(t *testing.T) {
	_, err := NewClassifier(failingSource{}, DefaultThresholds).Classify(context.Background())
	assert.Error(t, err)
}

func TestRandomIndicatorsRanges(t *testing.T) {
	src := NewRandomIndicators(rand.New(rand.NewSource(11)))
	for i := 0; i < 200; i++ {
		ind, err := src.Indicators(context.Background())
		require.NoError(t, err)
		assert.True(t, ind.VIX >= 15 && ind.VIX <= 35, "vix %v", ind.VIX)
		assert.True(t, ind.TenYearYield >= 3.5 && ind.TenYearYield <= 5.0, "yield %v", ind.TenYearYield)
		assert.True(t, ind.Oil >= 70 && ind.Oil <= 95, "oil %v", ind.Oil)
	}
}

func TestRandomClassifierAlwaysValid(t *testing.T) {
	c := NewClassifier(NewRandomIndicators(rand.New(rand.NewSource(5))), DefaultThresholds)
	for i := 0; i < 100; i++ {
		r, err := c.Classify(context.Background())
		require.NoError(t, err)
		assert.True(t, r.Valid())
	}
}
