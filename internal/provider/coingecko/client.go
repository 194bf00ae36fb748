package coingecko

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/platform/httpx"
)

// Client talks to the CoinGecko public API. The free tier allows only a
// handful of calls per minute, so every call goes through a min-interval
// limiter and the per-coin detail lookups are expected to be funneled
// through the symbol-detail cache.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	logger     zerolog.Logger

	// symbol -> coin id (slug) lookup, refreshed at most every slugTTL.
	slugMu        sync.Mutex
	slugs         map[string]string
	slugFetchedAt time.Time
	slugTTL       time.Duration
}

// ClientOptions holds options for creating a new CoinGecko client.
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	MinInterval    time.Duration
	MaxRetries     int
	SlugTTL        time.Duration
}

// NewClient creates a new CoinGecko API client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = 6 * time.Second
	}
	if opts.SlugTTL == 0 {
		opts.SlugTTL = 6 * time.Hour
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: httpx.NewClient(httpx.ClientOptions{
			Timeout:     opts.RequestTimeout,
			MinInterval: opts.MinInterval,
			MaxRetries:  opts.MaxRetries,
		}),
		slugs:   make(map[string]string),
		slugTTL: opts.SlugTTL,
		logger:  log.With().Str("component", "coingecko_client").Logger(),
	}
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			Symbol string `json:"symbol"`
		} `json:"item"`
	} `json:"coins"`
}

// GetTrending returns the trending coin symbols, uppercased.
func (c *Client) GetTrending(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/search/trending", c.baseURL)

	var data trendingResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(data.Coins))
	for _, coin := range data.Coins {
		if coin.Item.Symbol != "" {
			symbols = append(symbols, strings.ToUpper(coin.Item.Symbol))
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("empty trending list returned")
	}

	c.logger.Debug().Int("count", len(symbols)).Msg("Fetched trending coins")
	return symbols, nil
}

type marketItem struct {
	Symbol   string `json:"symbol"`
	Category string `json:"category"`
}

// GetSectorLookup builds a symbol -> category map from the top coins by
// market cap. Coins without a category map to "Unknown".
func (c *Client) GetSectorLookup(ctx context.Context) (map[string]string, error) {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=250&page=1&sparkline=false", c.baseURL)

	var items []marketItem
	if err := c.httpClient.GetJSON(ctx, url, &items); err != nil {
		return nil, err
	}

	lookup := make(map[string]string, len(items))
	for _, item := range items {
		if item.Symbol == "" {
			continue
		}
		category := item.Category
		if category == "" {
			category = "Unknown"
		}
		lookup[strings.ToUpper(item.Symbol)] = category
	}

	c.logger.Debug().Int("count", len(lookup)).Msg("Fetched sector lookup")
	return lookup, nil
}

type coinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// ResolveCoinID maps a symbol to its CoinGecko coin id using the cached list.
// Returns an error if the list cannot be fetched or the symbol is unknown.
func (c *Client) ResolveCoinID(ctx context.Context, symbol string) (string, error) {
	c.slugMu.Lock()
	defer c.slugMu.Unlock()

	if len(c.slugs) == 0 || time.Since(c.slugFetchedAt) > c.slugTTL {
		if err := c.refreshSlugsLocked(ctx); err != nil {
			// A stale slug list is still usable for lookups.
			if len(c.slugs) == 0 {
				return "", err
			}
			c.logger.Warn().Err(err).Msg("Slug list refresh failed, using stale list")
		}
	}

	id, ok := c.slugs[strings.ToUpper(symbol)]
	if !ok {
		return "", fmt.Errorf("no coin id for symbol %s", symbol)
	}
	return id, nil
}

func (c *Client) refreshSlugsLocked(ctx context.Context) error {
	url := fmt.Sprintf("%s/coins/list?include_platform=false", c.baseURL)

	var entries []coinListEntry
	if err := c.httpClient.GetJSON(ctx, url, &entries); err != nil {
		return err
	}

	slugs := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Symbol == "" {
			continue
		}
		symbol := strings.ToUpper(e.Symbol)
		// Duplicate symbols exist; keep the first id encountered.
		if _, exists := slugs[symbol]; !exists {
			slugs[symbol] = e.ID
		}
	}
	if len(slugs) == 0 {
		return fmt.Errorf("empty coin list returned")
	}

	c.slugs = slugs
	c.slugFetchedAt = time.Now()
	c.logger.Info().Int("count", len(slugs)).Msg("Refreshed coin list cache")
	return nil
}

type coinDetailResponse struct {
	SentimentVotesUpPct *float64 `json:"sentiment_votes_up_percentage"`
	CommunityScore      *float64 `json:"community_score"`
	DeveloperScore      *float64 `json:"developer_score"`
	PublicInterestScore *float64 `json:"public_interest_score"`
}

// GetCoinMetrics fetches community/developer metrics for a coin id. These are
// proxy signals, not on-chain data.
func (c *Client) GetCoinMetrics(ctx context.Context, coinID string) (*models.SymbolMetrics, error) {
	url := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&market_data=false&community_data=true&developer_data=true&sparkline=false",
		c.baseURL, coinID)

	var data coinDetailResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return nil, err
	}

	return &models.SymbolMetrics{
		CoinID:              coinID,
		FetchedAt:           time.Now(),
		SentimentPct:        data.SentimentVotesUpPct,
		CommunityScore:      data.CommunityScore,
		DeveloperScore:      data.DeveloperScore,
		PublicInterestScore: data.PublicInterestScore,
	}, nil
}
