package models

import "context"

// Gateway is the single boundary to every external provider. All methods are
// fallible: an error means the data is unavailable for this call and the
// caller must degrade (skip the symbol, fall back to a cached value, or use a
// score-neutral default). No method panics across this boundary.
type Gateway interface {
	// FetchTickers returns the full spot ticker map keyed by symbol.
	FetchTickers(ctx context.Context) (map[string]MarketTicker, error)
	// FetchOrderBook returns the top of book for a symbol.
	FetchOrderBook(ctx context.Context, symbol string) (*OrderBookSnapshot, error)
	// FetchCandles returns a chronological candle series for an interval
	// ("15m", "1h", "4h").
	FetchCandles(ctx context.Context, symbol, interval string) (*CandleSeries, error)
	// FetchNews returns the current hot news posts with votes.
	FetchNews(ctx context.Context) ([]NewsItem, error)
	// FetchSentimentIndex returns the market-wide fear & greed index.
	FetchSentimentIndex(ctx context.Context) (SentimentIndex, error)
	// FetchSymbolMetrics resolves a symbol to its coin id and fetches its
	// community/developer metrics. Expensive and tightly rate limited;
	// callers must go through the symbol-detail cache.
	FetchSymbolMetrics(ctx context.Context, symbol string) (*SymbolMetrics, error)
	// FetchTrending returns trending coin symbols, uppercased.
	FetchTrending(ctx context.Context) ([]string, error)
	// FetchSectorLookup returns a symbol -> sector/category map.
	FetchSectorLookup(ctx context.Context) (map[string]string, error)
	// FetchMentions counts social mentions for the given symbols.
	FetchMentions(ctx context.Context, symbols []string) (map[string]int, error)
}

// MetricsFetcher is the slice of Gateway the symbol-detail cache needs.
type MetricsFetcher interface {
	FetchSymbolMetrics(ctx context.Context, symbol string) (*SymbolMetrics, error)
}
