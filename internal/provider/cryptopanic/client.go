package cryptopanic

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/platform/httpx"
)

// Client fetches hot crypto news with community votes from CryptoPanic.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httpx.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new CryptoPanic client.
type ClientOptions struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
}

// NewClient creates a new CryptoPanic API client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://cryptopanic.com/api/v1"
	}

	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		httpClient: httpx.NewClient(httpx.ClientOptions{
			Timeout:    opts.RequestTimeout,
			MaxRetries: opts.MaxRetries,
		}),
		logger: log.With().Str("component", "cryptopanic_client").Logger(),
	}
}

type postsResponse struct {
	Results []struct {
		Title string `json:"title"`
		Votes struct {
			Positive int `json:"positive"`
			Negative int `json:"negative"`
		} `json:"votes"`
	} `json:"results"`
}

// GetHotNews fetches the current hot English news posts.
func (c *Client) GetHotNews(ctx context.Context) ([]models.NewsItem, error) {
	params := url.Values{}
	params.Set("auth_token", c.apiKey)
	params.Set("filter", "hot")
	params.Set("kind", "news")
	params.Set("regions", "en")
	params.Set("public", "true")

	endpoint := fmt.Sprintf("%s/posts/?%s", c.baseURL, params.Encode())

	var data postsResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &data); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(data.Results))
	for _, r := range data.Results {
		items = append(items, models.NewsItem{
			Title:         r.Title,
			PositiveVotes: r.Votes.Positive,
			NegativeVotes: r.Votes.Negative,
		})
	}

	c.logger.Debug().Int("count", len(items)).Msg("Fetched news posts")
	return items, nil
}
