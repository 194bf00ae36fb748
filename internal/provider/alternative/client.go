package alternative

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/platform/httpx"
)

// Client fetches the fear & greed index from alternative.me.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new client.
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
}

// NewClient creates a new fear & greed client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.alternative.me"
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: httpx.NewClient(httpx.ClientOptions{
			Timeout:    opts.RequestTimeout,
			MaxRetries: opts.MaxRetries,
		}),
		logger: log.With().Str("component", "feargreed_client").Logger(),
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// GetIndex fetches the current fear & greed reading.
func (c *Client) GetIndex(ctx context.Context) (models.SentimentIndex, error) {
	url := fmt.Sprintf("%s/fng/", c.baseURL)

	var data fngResponse
	if err := c.httpClient.GetJSON(ctx, url, &data); err != nil {
		return models.SentimentIndex{}, err
	}
	if len(data.Data) == 0 {
		return models.SentimentIndex{}, fmt.Errorf("empty fear/greed response")
	}

	score, err := strconv.Atoi(data.Data[0].Value)
	if err != nil {
		return models.SentimentIndex{}, fmt.Errorf("parsing score: %w", err)
	}

	return models.SentimentIndex{
		Score: score,
		Label: data.Data[0].Classification,
	}, nil
}
