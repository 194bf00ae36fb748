package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestEMAInsufficientHistory(t *testing.T) {
	assert.Nil(t, EMA(nil, 5))
	assert.Nil(t, EMA([]float64{1, 2, 3}, 5))
	assert.Nil(t, EMA([]float64{1, 2, 3}, 0))
}

func TestEMAConstantSeries(t *testing.T) {
	values := []float64{10, 10, 10, 10, 10, 10}
	ema := EMA(values, 3)
	require.NotNil(t, ema)
	assert.InDelta(t, 10.0, *ema, 1e-9)
}

func TestEMAKnownValue(t *testing.T) {
	// Seed = avg(1,2) = 1.5, k = 2/3:
	// 1.5 -> 2.5 -> 3.5 -> 4.5
	ema := EMA([]float64{1, 2, 3, 4, 5}, 2)
	require.NotNil(t, ema)
	assert.InDelta(t, 4.5, *ema, 1e-9)
}

func TestRSIInsufficientHistory(t *testing.T) {
	closes := make([]float64, 14)
	assert.Nil(t, RSI(closes, 14)) // needs period+1
	assert.Nil(t, RSI(nil, 14))
}

func TestRSIAllGains(t *testing.T) {
	// 14 consecutive equal positive deltas, zero losses.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 100.0, *rsi)
}

func TestRSIFlatSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	rsi := RSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 50.0, *rsi)
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.1,
		45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.0, 46.03,
		46.41, 46.22, 45.64}
	rsi := RSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 0.0)
	assert.Less(t, *rsi, 100.0)
}

func TestVolumeDivergence(t *testing.T) {
	tests := []struct {
		name     string
		volumes  []float64
		expected bool
	}{
		{"strictly decreasing", []float64{10, 5, 4, 3}, true},
		{"increasing", []float64{3, 4, 5}, false},
		{"flat tail", []float64{5, 4, 4}, false},
		{"insufficient data", []float64{2, 1}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VolumeDivergence(tt.volumes, 3))
		})
	}
}

func TestVolatilityZoneBuckets(t *testing.T) {
	tests := []struct {
		pct      *float64
		zone     string
		strategy string
	}{
		{f(0), ZoneVeryLow, StrategyMicroScalp},
		{f(3), ZoneVeryLow, StrategyMicroScalp},
		{f(3.01), ZoneLow, StrategyShortTight},
		{f(7), ZoneLow, StrategyShortTight},
		{f(10), ZoneMedium, StrategyBalanced},
		{f(12), ZoneMedium, StrategyBalanced},
		{f(15), ZoneHigh, StrategySwing},
		{f(18), ZoneHigh, StrategySwing},
		{f(100), ZoneVeryHigh, StrategyBigSwing},
		{nil, ZoneUnknown, StrategyUnknown},
		{f(-1), ZoneUnknown, StrategyUnknown},
	}
	for _, tt := range tests {
		zone, strategy := VolatilityZone(tt.pct)
		assert.Equal(t, tt.zone, zone)
		assert.Equal(t, tt.strategy, strategy)
	}
}

func TestVolatilityZoneExhaustiveAndMonotonic(t *testing.T) {
	order := map[string]int{
		ZoneVeryLow:  0,
		ZoneLow:      1,
		ZoneMedium:   2,
		ZoneHigh:     3,
		ZoneVeryHigh: 4,
	}
	prev := -1
	for pct := 0.0; pct <= 50; pct += 0.25 {
		zone, _ := VolatilityZone(&pct)
		idx, ok := order[zone]
		require.True(t, ok, "pct %v mapped outside the five zones: %q", pct, zone)
		require.GreaterOrEqual(t, idx, prev, "zone order regressed at pct %v", pct)
		prev = idx
	}
}

func TestMomentumHealth(t *testing.T) {
	tests := []struct {
		name       string
		rsi        *float64
		divergence bool
		expected   string
	}{
		{"missing rsi", nil, false, HealthUnknown},
		{"missing rsi with divergence", nil, true, HealthUnknown},
		{"overbought and diverging", f(90), true, HealthWeak},
		{"overbought only", f(90), false, HealthWeak},
		{"divergence dominates oversold", f(20), true, HealthWeak},
		{"oversold", f(20), false, HealthOversold},
		{"strong low edge", f(40), false, HealthStrong},
		{"strong high edge", f(65), false, HealthStrong},
		{"neutral gap below strong", f(35), false, HealthNeutral},
		{"neutral above strong", f(70), false, HealthNeutral},
		{"boundary 75 is not weak", f(75), false, HealthNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MomentumHealth(tt.rsi, tt.divergence))
		})
	}
}
