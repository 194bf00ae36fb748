package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration. Scoring thresholds and filter
// bounds are deliberately configuration, not constants: the defaults are the
// untuned values the system shipped with and are expected to be adjusted per
// deployment.
type Config struct {
	HTTPPort int
	LogLevel string

	// Cycle cadence.
	FullInterval  time.Duration
	BasicInterval time.Duration
	CycleTimeout  time.Duration
	StaleAfter    time.Duration

	// Worker pool for per-symbol analysis. Sized against the slowest
	// provider's sustainable request rate, not raw CPU.
	AnalysisWorkers int
	MaxSymbols      int

	// Provider access.
	RequestTimeout    time.Duration
	MaxRetries        int
	BybitRPS          int
	CoinGeckoInterval time.Duration
	CryptoPanicKey    string

	// Symbol-detail cache.
	MetricsTTL time.Duration
	SlugTTL    time.Duration

	// Indicators.
	RSIPeriod      int
	EMAPeriod      int
	CandleLimit    int
	VolumeLookback int

	// Filters applied before the expensive per-symbol work.
	SpreadCeiling float64
	AllowedZones  []string // empty = all zones pass

	// Scoring thresholds (see the scoring delta table).
	CommunityScoreThreshold float64
	DeveloperScoreThreshold float64
	PublicInterestThreshold float64
	SentimentPctThreshold   float64
	TightSpreadThreshold    float64
	OrderBookDepthLevels    int
	FearGreedBuyFloor       int
	FearGreedAvoidCeiling   int
	BuyScoreFloor           int
	AvoidScoreCeiling       int

	// Optional Telegram alerting. Disabled when the token is empty.
	TelegramToken  string
	TelegramChatID string
	NotifyCooldown time.Duration
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		HTTPPort: getEnvIntWithDefault("HTTP_PORT", 8000),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		FullInterval:  getEnvDurationWithDefault("FULL_UPDATE_INTERVAL", 30*time.Minute),
		BasicInterval: getEnvDurationWithDefault("BASIC_UPDATE_INTERVAL", 5*time.Minute),
		CycleTimeout:  getEnvDurationWithDefault("CYCLE_TIMEOUT", 10*time.Minute),
		StaleAfter:    getEnvDurationWithDefault("STALE_AFTER", 90*time.Minute),

		AnalysisWorkers: getEnvIntWithDefault("ANALYSIS_WORKERS", 4),
		MaxSymbols:      getEnvIntWithDefault("MAX_SYMBOLS_PER_CYCLE", 25),

		RequestTimeout:    getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:        getEnvIntWithDefault("MAX_RETRIES", 3),
		BybitRPS:          getEnvIntWithDefault("BYBIT_RPS", 5),
		CoinGeckoInterval: getEnvDurationWithDefault("COINGECKO_MIN_INTERVAL", 6*time.Second),
		CryptoPanicKey:    os.Getenv("CRYPTOPANIC_API_KEY"),

		MetricsTTL: getEnvDurationWithDefault("METRICS_CACHE_TTL", 2*time.Hour),
		SlugTTL:    getEnvDurationWithDefault("SLUG_CACHE_TTL", 6*time.Hour),

		RSIPeriod:      getEnvIntWithDefault("RSI_PERIOD", 14),
		EMAPeriod:      getEnvIntWithDefault("EMA_PERIOD", 20),
		CandleLimit:    getEnvIntWithDefault("CANDLE_LIMIT", 20),
		VolumeLookback: getEnvIntWithDefault("VOLUME_LOOKBACK", 3),

		SpreadCeiling: getEnvFloatWithDefault("SPREAD_CEILING_PERCENT", 2.0),
		AllowedZones:  getEnvListWithDefault("ALLOWED_ZONES", nil),

		CommunityScoreThreshold: getEnvFloatWithDefault("CG_COMMUNITY_SCORE_THRESHOLD", 60),
		DeveloperScoreThreshold: getEnvFloatWithDefault("CG_DEVELOPER_SCORE_THRESHOLD", 65),
		PublicInterestThreshold: getEnvFloatWithDefault("CG_PUBLIC_INTEREST_THRESHOLD", 30),
		SentimentPctThreshold:   getEnvFloatWithDefault("CG_SENTIMENT_THRESHOLD", 70),
		TightSpreadThreshold:    getEnvFloatWithDefault("TIGHT_SPREAD_THRESHOLD", 0.5),
		OrderBookDepthLevels:    getEnvIntWithDefault("ORDERBOOK_DEPTH_LEVELS", 5),
		FearGreedBuyFloor:       getEnvIntWithDefault("FEAR_GREED_BUY_FLOOR", 40),
		FearGreedAvoidCeiling:   getEnvIntWithDefault("FEAR_GREED_AVOID_CEILING", 30),
		BuyScoreFloor:           getEnvIntWithDefault("BUY_SCORE_FLOOR", 5),
		AvoidScoreCeiling:       getEnvIntWithDefault("AVOID_SCORE_CEILING", 1),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		NotifyCooldown: getEnvDurationWithDefault("NOTIFY_COOLDOWN", 6*time.Hour),
	}

	return cfg, nil
}

// ZoneAllowed reports whether a volatility zone passes the allow-list. An
// empty list allows every zone.
func (c *Config) ZoneAllowed(zone string) bool {
	if len(c.AllowedZones) == 0 {
		return true
	}
	for _, z := range c.AllowedZones {
		if strings.EqualFold(z, zone) {
			return true
		}
	}
	return false
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
