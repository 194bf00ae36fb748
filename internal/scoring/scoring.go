// Package scoring combines the per-symbol technical, order-book and
// sentiment signals into a single bounded breakout score and a qualitative
// trading signal. Everything here is a pure function of its inputs.
package scoring

import (
	"strings"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/indicators"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

// Score bounds. The delta table below sums to a narrower theoretical range;
// the clamp keeps the contract stable if the table grows.
const (
	ScoreMin = -5
	ScoreMax = 10
)

// Trading signals.
const (
	SignalBuy     = "BUY"
	SignalAvoid   = "SELL/AVOID"
	SignalCaution = "CAUTION"
)

// News sentiment labels.
const (
	NewsPositive = "positive"
	NewsNegative = "negative"
	NewsNeutral  = "neutral"
)

// Thresholds are the configurable cut-offs referenced by the delta table.
// The defaults in config are untuned observations, not validated constants.
type Thresholds struct {
	CommunityScore      float64
	DeveloperScore      float64
	PublicInterestScore float64
	SentimentPct        float64
	TightSpread         float64
}

// Inputs is the fixed set of named signals the score is computed from. Any
// nil pointer means the signal is unavailable and contributes zero.
type Inputs struct {
	MomentumHealth string
	RSI            *float64
	VolumeRising   bool
	SpreadPercent  *float64
	OrderBookThin  bool
	NewsSentiment  string
	// InflowSpike flags a suspected exchange-inflow event. No data source
	// currently sets it; the delta is reserved for one.
	InflowSpike bool
	Metrics     *models.SymbolMetrics
}

// Score sums the breakout delta table and clamps to [ScoreMin, ScoreMax].
//
//	momentum health "strong"            +2
//	momentum health "oversold but healthy" +1
//	40 <= RSI < 70                      +1
//	RSI >= 75                           -1
//	volume rising                       +1
//	spread% < TightSpread               +1
//	news sentiment positive             +1
//	news sentiment negative             -1
//	community score >= threshold        +1
//	developer score >= threshold        +1
//	public-interest score >= threshold  +1
//	sentiment% >= threshold             +1
//	order book thin                     -1
//	exchange-inflow spike               -2
func Score(in Inputs, th Thresholds) int {
	score := 0

	switch in.MomentumHealth {
	case indicators.HealthStrong:
		score += 2
	case indicators.HealthOversold:
		score++
	}

	if in.RSI != nil {
		if *in.RSI >= 40 && *in.RSI < 70 {
			score++
		} else if *in.RSI >= 75 {
			score--
		}
	}

	if in.VolumeRising {
		score++
	}

	if in.SpreadPercent != nil && *in.SpreadPercent < th.TightSpread {
		score++
	}

	switch in.NewsSentiment {
	case NewsPositive:
		score++
	case NewsNegative:
		score--
	}

	if m := in.Metrics; m != nil {
		if m.CommunityScore != nil && *m.CommunityScore >= th.CommunityScore {
			score++
		}
		if m.DeveloperScore != nil && *m.DeveloperScore >= th.DeveloperScore {
			score++
		}
		if m.PublicInterestScore != nil && *m.PublicInterestScore >= th.PublicInterestScore {
			score++
		}
		if m.SentimentPct != nil && *m.SentimentPct >= th.SentimentPct {
			score++
		}
	}

	if in.OrderBookThin {
		score--
	}
	if in.InflowSpike {
		score -= 2
	}

	if score < ScoreMin {
		score = ScoreMin
	}
	if score > ScoreMax {
		score = ScoreMax
	}
	return score
}

// EstimateTimeToTarget gives a rough time window for the setup to play out.
func EstimateTimeToTarget(score int, zone string) string {
	switch {
	case score >= 7 && strings.Contains(zone, "Low"):
		return "1-3h"
	case score >= 5:
		return "4-6h"
	case score >= 3:
		return "6-12h"
	default:
		return "uncertain"
	}
}

// SignalRules holds the configurable gates for the signal decision.
type SignalRules struct {
	BuyScoreFloor         int
	AvoidScoreCeiling     int
	FearGreedBuyFloor     int
	FearGreedAvoidCeiling int
}

// Signal derives the qualitative signal. The first matching rule wins and
// BUY is checked before SELL/AVOID.
func Signal(score int, mtfConfirmed bool, fearGreed int, momentumHealth string, rules SignalRules) string {
	if score >= rules.BuyScoreFloor && mtfConfirmed &&
		fearGreed > rules.FearGreedBuyFloor && momentumHealth == indicators.HealthStrong {
		return SignalBuy
	}
	if score <= rules.AvoidScoreCeiling ||
		fearGreed < rules.FearGreedAvoidCeiling || momentumHealth == indicators.HealthWeak {
		return SignalAvoid
	}
	return SignalCaution
}
