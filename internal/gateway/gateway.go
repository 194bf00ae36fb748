// Package gateway is the single boundary between the pipeline and every
// external provider. Transport errors, rate limiting, provider-side errors
// and malformed payloads are all collapsed into ErrUnavailable here: nothing
// downstream of this package ever sees a raw provider failure.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/alternative"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/bybit"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/coingecko"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/cryptopanic"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/provider/reddit"
)

// ErrUnavailable is returned for every failed external call once retries are
// exhausted. Callers match it with errors.Is and degrade.
var ErrUnavailable = errors.New("provider data unavailable")

// Gateway fans calls out to the concrete provider clients and normalizes
// their failures. It implements models.Gateway.
type Gateway struct {
	market      *bybit.Client
	coingecko   *coingecko.Client
	news        *cryptopanic.Client
	fearGreed   *alternative.Client
	social      *reddit.Client
	candleLimit int
	logger      zerolog.Logger
}

// New wires a Gateway from already-configured provider clients. candleLimit
// is how many candles each FetchCandles call requests.
func New(market *bybit.Client, cg *coingecko.Client, news *cryptopanic.Client,
	fearGreed *alternative.Client, social *reddit.Client, candleLimit int) *Gateway {
	return &Gateway{
		market:      market,
		coingecko:   cg,
		news:        news,
		fearGreed:   fearGreed,
		social:      social,
		candleLimit: candleLimit,
		logger:      log.With().Str("component", "gateway").Logger(),
	}
}

var _ models.Gateway = (*Gateway)(nil)

func (g *Gateway) unavailable(op string, err error) error {
	g.logger.Warn().Err(err).Str("op", op).Msg("Provider call failed")
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// FetchTickers returns the full spot ticker map.
func (g *Gateway) FetchTickers(ctx context.Context) (map[string]models.MarketTicker, error) {
	tickers, err := g.market.GetTickers(ctx)
	if err != nil {
		return nil, g.unavailable("fetch_tickers", err)
	}
	return tickers, nil
}

// FetchOrderBook returns the top of book for a symbol.
func (g *Gateway) FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBookSnapshot, error) {
	ob, err := g.market.GetOrderBook(ctx, symbol)
	if err != nil {
		return nil, g.unavailable("fetch_orderbook", err)
	}
	return ob, nil
}

// FetchCandles returns a chronological candle series.
func (g *Gateway) FetchCandles(ctx context.Context, symbol, interval string) (*models.CandleSeries, error) {
	series, err := g.market.GetCandles(ctx, symbol, interval, g.candleLimit)
	if err != nil {
		return nil, g.unavailable("fetch_candles", err)
	}
	return series, nil
}

// FetchNews returns the current hot news posts.
func (g *Gateway) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	items, err := g.news.GetHotNews(ctx)
	if err != nil {
		return nil, g.unavailable("fetch_news", err)
	}
	return items, nil
}

// FetchSentimentIndex returns the fear & greed index.
func (g *Gateway) FetchSentimentIndex(ctx context.Context) (models.SentimentIndex, error) {
	idx, err := g.fearGreed.GetIndex(ctx)
	if err != nil {
		return models.SentimentIndex{}, g.unavailable("fetch_sentiment_index", err)
	}
	return idx, nil
}

// FetchSymbolMetrics resolves a symbol to a coin id and fetches its metrics.
// Expensive: funnel through the symbol-detail cache.
func (g *Gateway) FetchSymbolMetrics(ctx context.Context, symbol string) (*models.SymbolMetrics, error) {
	coinID, err := g.coingecko.ResolveCoinID(ctx, symbol)
	if err != nil {
		return nil, g.unavailable("resolve_coin_id", err)
	}
	metrics, err := g.coingecko.GetCoinMetrics(ctx, coinID)
	if err != nil {
		return nil, g.unavailable("fetch_symbol_metrics", err)
	}
	return metrics, nil
}

// FetchTrending returns trending coin symbols.
func (g *Gateway) FetchTrending(ctx context.Context) ([]string, error) {
	symbols, err := g.coingecko.GetTrending(ctx)
	if err != nil {
		return nil, g.unavailable("fetch_trending", err)
	}
	return symbols, nil
}

// FetchSectorLookup returns a symbol -> sector map.
func (g *Gateway) FetchSectorLookup(ctx context.Context) (map[string]string, error) {
	lookup, err := g.coingecko.GetSectorLookup(ctx)
	if err != nil {
		return nil, g.unavailable("fetch_sector_lookup", err)
	}
	return lookup, nil
}

// FetchMentions counts social mentions for the given symbols.
func (g *Gateway) FetchMentions(ctx context.Context, symbols []string) (map[string]int, error) {
	mentions, err := g.social.CountMentions(ctx, symbols)
	if err != nil {
		return nil, g.unavailable("fetch_mentions", err)
	}
	return mentions, nil
}
