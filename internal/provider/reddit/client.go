package reddit

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/platform/httpx"
)

// Client counts coin mentions on the r/CryptoCurrency daily top page. This is
// a rough, low-confidence social signal: plain word-boundary matching over
// the page body, no post parsing.
type Client struct {
	pageURL    string
	httpClient *httpx.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new client.
type ClientOptions struct {
	PageURL        string
	RequestTimeout time.Duration
	MaxRetries     int
}

// NewClient creates a new Reddit mentions client.
func NewClient(opts ClientOptions) *Client {
	if opts.PageURL == "" {
		opts.PageURL = "https://www.reddit.com/r/CryptoCurrency/top/?t=day"
	}

	return &Client{
		pageURL: opts.PageURL,
		httpClient: httpx.NewClient(httpx.ClientOptions{
			Timeout:    opts.RequestTimeout,
			MaxRetries: opts.MaxRetries,
			UserAgent:  "Mozilla/5.0",
		}),
		logger: log.With().Str("component", "reddit_client").Logger(),
	}
}

// CountMentions fetches the top page once and counts case-insensitive
// whole-word occurrences of each symbol.
func (c *Client) CountMentions(ctx context.Context, symbols []string) (map[string]int, error) {
	body, err := c.httpClient.GetBody(ctx, c.pageURL)
	if err != nil {
		return nil, err
	}

	mentions := make(map[string]int, len(symbols))
	for _, symbol := range symbols {
		re, err := regexp.Compile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(symbol)))
		if err != nil {
			continue
		}
		mentions[symbol] = len(re.FindAll(body, -1))
	}

	c.logger.Debug().Int("symbols", len(symbols)).Msg("Counted reddit mentions")
	return mentions, nil
}
