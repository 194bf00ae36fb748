package models

import (
	"time"
)

// MarketTicker is one symbol's 24h market summary, refreshed wholesale each
// cycle and immutable within it.
type MarketTicker struct {
	Symbol      string  `json:"symbol"`
	LastPrice   float64 `json:"last"`
	HighPrice24 float64 `json:"high"`
	LowPrice24  float64 `json:"low"`
	Volume24    float64 `json:"volume"`
}

// TickerBook is the full ticker map from one fetch, published as a unit.
type TickerBook struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Tickers   map[string]MarketTicker `json:"tickers"`
}

// OrderBookLevel is a single price level.
type OrderBookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBookSnapshot holds the top of book for a symbol. Bids are sorted by
// price descending, asks ascending, both truncated to the top levels.
type OrderBookSnapshot struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderBookLevel `json:"bids"`
	Asks   []OrderBookLevel `json:"asks"`
}

// SpreadPercent computes the bid/ask spread relative to the last traded
// price. Returns nil when either side is empty or the best bid is not a
// positive price.
func (ob *OrderBookSnapshot) SpreadPercent(lastPrice float64) *float64 {
	if ob == nil || len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return nil
	}
	bestBid := ob.Bids[0].Price
	bestAsk := ob.Asks[0].Price
	if bestBid <= 0 || lastPrice <= 0 {
		return nil
	}
	spread := (bestAsk - bestBid) / lastPrice * 100
	return &spread
}

// Candle represents a single price candle.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// CandleSeries is a chronological candle sequence for one (symbol, interval).
type CandleSeries struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// Closes returns the close prices in chronological order.
func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volumes in chronological order.
func (s *CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// NewsItem is one news post with community votes.
type NewsItem struct {
	Title         string `json:"title"`
	PositiveVotes int    `json:"positive_votes"`
	NegativeVotes int    `json:"negative_votes"`
}

// SentimentIndex is the market-wide fear & greed reading.
type SentimentIndex struct {
	Score int    `json:"score"`
	Label string `json:"classification"`
}

// SymbolMetrics are slow-moving per-coin community and developer metrics.
// Any score may be nil when the provider did not report it. Degraded marks an
// entry served past its TTL because the refresh failed.
type SymbolMetrics struct {
	CoinID              string    `json:"coin_id"`
	FetchedAt           time.Time `json:"fetched_at"`
	SentimentPct        *float64  `json:"sentiment_pct,omitempty"`
	CommunityScore      *float64  `json:"community_score,omitempty"`
	DeveloperScore      *float64  `json:"developer_score,omitempty"`
	PublicInterestScore *float64  `json:"public_interest_score,omitempty"`
	Degraded            bool      `json:"degraded,omitempty"`
}

// TimeframeStatus is the trend verdict for one timeframe.
type TimeframeStatus struct {
	Price float64  `json:"price"`
	EMA20 *float64 `json:"ema20,omitempty"`
	Trend string   `json:"trend"`
}

// CoinAnalysis is the fused per-symbol result of one full cycle. Immutable
// once published.
type CoinAnalysis struct {
	Symbol            string                     `json:"symbol"`
	Price             float64                    `json:"price"`
	VolatilityPercent float64                    `json:"volatility_percent"`
	VolatilityZone    string                     `json:"volatility_zone"`
	Strategy          string                     `json:"strategy_description"`
	SpreadPercent     *float64                   `json:"bid_ask_spread_percent,omitempty"`
	TopBids           []OrderBookLevel           `json:"top_5_bids,omitempty"`
	TopAsks           []OrderBookLevel           `json:"top_5_asks,omitempty"`
	MTFConfirmed      bool                       `json:"multi_timeframe_confirmation"`
	Timeframes        map[string]TimeframeStatus `json:"timeframes_status,omitempty"`
	RSI               *float64                   `json:"rsi,omitempty"`
	VolumeDivergence  bool                       `json:"volume_divergence"`
	MomentumHealth    string                     `json:"momentum_health"`
	BreakoutScore     int                        `json:"breakout_score"`
	Signal            string                     `json:"signal"`
	TimeToTarget      string                     `json:"time_to_target"`
	Sector            string                     `json:"sector"`
	NewsSentiment     string                     `json:"news_sentiment"`
	RedditMentions    int                        `json:"reddit_mentions"`
	MetricsFetchedAt  *time.Time                 `json:"metrics_fetched_at,omitempty"`
	AnalyzedAt        time.Time                  `json:"analyzed_at"`
}

/// UpdateSummary reports how a cycle went: how many symbols were scored and
// how many were skipped, keyed by reason.
type UpdateSummary struct {
	Analyzed int            `json:"analyzed"`
	Skipped  map[string]int `json:"skipped,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Snapshot is the complete, atomically published result of one full cycle.
// Readers never observe a partially built snapshot.
type Snapshot struct {
	UpdatedAt time.Time      `json:"timestamp"`
	FearGreed SentimentIndex `json:"fear_greed"`
	Analyses  []CoinAnalysis `json:"trending_coins"`
	Summary   UpdateSummary  `json:"update_summary"`
}
