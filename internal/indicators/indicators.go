// Package indicators holds the pure numeric functions of the pipeline.
// Every function either returns a finite value or reports the input as
// insufficient; none of them panic or produce NaN.
package indicators

// EMA calculates the exponential moving average over a series. Returns nil
// when the series is shorter than the period. The seed is the simple average
// of the first period points rather than the first point alone, which avoids
// a large initial bias from a single seed value.
func EMA(values []float64, period int) *float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}

	return &ema
}

// minAvgLoss keeps the Wilder smoothing well-defined once losses have been
// observed; the all-gain and no-movement cases are handled explicitly below.
const minAvgLoss = 1e-10

// RSI calculates Wilder's smoothed Relative Strength Index. Requires at
// least period+1 closes; returns nil otherwise. An average loss of exactly
// zero yields 100, or 50 when the average gain is also zero (a flat series
// has no meaningful strength either way).
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(closes); i++ {
		if avgLoss < minAvgLoss && avgLoss > 0 {
			avgLoss = minAvgLoss
		}
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
	}

	var rsi float64
	switch {
	case avgLoss == 0 && avgGain == 0:
		rsi = 50.0
	case avgLoss == 0:
		rsi = 100.0
	default:
		rs := avgGain / avgLoss
		rsi = 100.0 - (100.0 / (1.0 + rs))
	}
	return &rsi
}

// VolumeDivergence reports whether the last lookback volumes are strictly
// decreasing. Insufficient data yields false: "no divergence detected" is the
// conservative default here, not a missing-value sentinel.
func VolumeDivergence(volumes []float64, lookback int) bool {
	if lookback < 2 || len(volumes) < lookback {
		return false
	}
	tail := volumes[len(volumes)-lookback:]
	for i := 1; i < len(tail); i++ {
		if tail[i] >= tail[i-1] {
			return false
		}
	}
	return true
}

// Volatility zone labels and their strategy descriptions.
const (
	ZoneVeryLow  = "Very Low Volatility"
	ZoneLow      = "Low Volatility"
	ZoneMedium   = "Medium Volatility"
	ZoneHigh     = "High Volatility"
	ZoneVeryHigh = "Very High Volatility"
	ZoneUnknown  = "Unknown"

	StrategyMicroScalp = "Micro Scalping Strategy"
	StrategyShortTight = "Short-Term Tight Strategy"
	StrategyBalanced   = "Balanced Normal Strategy"
	StrategySwing      = "Flexible Swing Strategy"
	StrategyBigSwing   = "Big Swing Survival Strategy"
	StrategyUnknown    = "Unknown"
)

// VolatilityZone buckets a 24h volatility percentage into a zone and a
// strategy label. A nil or negative input maps to the explicit Unknown zone,
// never silently to a numeric bucket.
func VolatilityZone(pct *float64) (zone, strategy string) {
	if pct == nil || *pct < 0 {
		return ZoneUnknown, StrategyUnknown
	}
	switch {
	case *pct <= 3:
		return ZoneVeryLow, StrategyMicroScalp
	case *pct <= 7:
		return ZoneLow, StrategyShortTight
	case *pct <= 12:
		return ZoneMedium, StrategyBalanced
	case *pct <= 18:
		return ZoneHigh, StrategySwing
	default:
		return ZoneVeryHigh, StrategyBigSwing
	}
}

// Momentum health categories.
const (
	HealthUnknown  = "unknown"
	HealthWeak     = "weak"
	HealthOversold = "oversold but healthy"
	HealthStrong   = "strong"
	HealthNeutral  = "neutral"
)

// MomentumHealth categorizes momentum from RSI and volume divergence. The
// check order is a tie-break policy: overbought/divergence dominate the
// oversold and strong bands, so an RSI of 90 with divergence is weak even
// though 90 is outside every other band.
func MomentumHealth(rsi *float64, volumeDivergence bool) string {
	if rsi == nil {
		return HealthUnknown
	}
	switch {
	case *rsi > 75 || volumeDivergence:
		return HealthWeak
	case *rsi < 30:
		return HealthOversold
	case *rsi >= 40 && *rsi <= 65:
		return HealthStrong
	default:
		return HealthNeutral
	}
}
