package bybit

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/platform/httpx"
)

// Interval codes accepted by the Bybit v5 kline endpoint.
var intervalCodes = map[string]string{
	"15m": "15",
	"1h":  "60",
	"4h":  "240",
}

// Client is the Bybit v5 spot market-data client.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	depth      int
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Bybit client.
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
	// Depth is how many order book levels to keep per side.
	Depth int
}

// NewClient creates a new Bybit API client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.bybit.com"
	}
	if opts.Depth <= 0 {
		opts.Depth = 5
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: httpx.NewClient(httpx.ClientOptions{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
			MaxRetries:     opts.MaxRetries,
		}),
		depth:  opts.Depth,
		logger: log.With().Str("component", "bybit_client").Logger(),
	}
}

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol      string `json:"symbol"`
			LastPrice   string `json:"lastPrice"`
			HighPrice24 string `json:"highPrice24h"`
			LowPrice24  string `json:"lowPrice24h"`
			Volume24    string `json:"volume24h"`
		} `json:"list"`
	} `json:"result"`
}

// GetTickers fetches the full spot ticker list.
func (c *Client) GetTickers(ctx context.Context) (map[string]models.MarketTicker, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=spot", c.baseURL)

	var data tickersResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	if data.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", data.RetCode, data.RetMsg)
	}
	if len(data.Result.List) == 0 {
		return nil, fmt.Errorf("empty ticker list returned")
	}

	tickers := make(map[string]models.MarketTicker, len(data.Result.List))
	for _, t := range data.Result.List {
		last, err1 := strconv.ParseFloat(t.LastPrice, 64)
		high, err2 := strconv.ParseFloat(t.HighPrice24, 64)
		low, err3 := strconv.ParseFloat(t.LowPrice24, 64)
		vol, err4 := strconv.ParseFloat(t.Volume24, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			c.logger.Debug().Str("symbol", t.Symbol).Msg("Skipping ticker with malformed numbers")
			continue
		}
		tickers[t.Symbol] = models.MarketTicker{
			Symbol:      t.Symbol,
			LastPrice:   last,
			HighPrice24: high,
			LowPrice24:  low,
			Volume24:    vol,
		}
	}

	c.logger.Debug().Int("count", len(tickers)).Msg("Fetched tickers")
	return tickers, nil
}

type orderBookResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string      `json:"s"`
		Bids   [][2]string `json:"b"`
		Asks   [][2]string `json:"a"`
	} `json:"result"`
}

// GetOrderBook fetches the order book for one symbol, truncated to the
// configured depth per side.
func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*models.OrderBookSnapshot, error) {
	url := fmt.Sprintf("%s/v5/market/orderbook?category=spot&symbol=%s&limit=%d", c.baseURL, symbol, c.depth)

	var data orderBookResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	if data.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", data.RetCode, data.RetMsg)
	}

	ob := &models.OrderBookSnapshot{Symbol: symbol}
	ob.Bids = parseLevels(data.Result.Bids)
	ob.Asks = parseLevels(data.Result.Asks)

	// Bybit returns both sides sorted best-first, but sort anyway: the
	// spread derivation depends on the ordering.
	sort.Slice(ob.Bids, func(i, j int) bool { return ob.Bids[i].Price > ob.Bids[j].Price })
	sort.Slice(ob.Asks, func(i, j int) bool { return ob.Asks[i].Price < ob.Asks[j].Price })

	if len(ob.Bids) > c.depth {
		ob.Bids = ob.Bids[:c.depth]
	}
	if len(ob.Asks) > c.depth {
		ob.Asks = ob.Asks[:c.depth]
	}

	return ob, nil
}

func parseLevels(raw [][2]string) []models.OrderBookLevel {
	levels := make([]models.OrderBookLevel, 0, len(raw))
	for _, entry := range raw {
		price, err1 := strconv.ParseFloat(entry[0], 64)
		size, err2 := strconv.ParseFloat(entry[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, models.OrderBookLevel{Price: price, Size: size})
	}
	return levels
}

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

// GetCandles fetches up to limit candles for an interval ("15m", "1h", "4h")
// and returns them in chronological order.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) (*models.CandleSeries, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	url := fmt.Sprintf("%s/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=%d",
		c.baseURL, symbol, code, limit)

	var data klineResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}
	if data.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", data.RetCode, data.RetMsg)
	}
	if len(data.Result.List) == 0 {
		return nil, fmt.Errorf("empty kline list returned")
	}

	series := &models.CandleSeries{Symbol: symbol, Interval: interval}
	// Bybit returns newest first; walk backwards for chronological order.
	for i := len(data.Result.List) - 1; i >= 0; i-- {
		row := data.Result.List[i]
		if len(row) < 6 {
			continue
		}
		candle, err := parseCandle(row)
		if err != nil {
			c.logger.Debug().Str("symbol", symbol).Err(err).Msg("Skipping malformed candle")
			continue
		}
		series.Candles = append(series.Candles, candle)
	}

	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).
		Int("count", len(series.Candles)).Msg("Fetched candles")
	return series, nil
}

func parseCandle(row []string) (models.Candle, error) {
	startMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("timestamp: %w", err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return models.Candle{
		Timestamp: time.UnixMilli(startMs).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
