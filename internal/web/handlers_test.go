package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/config"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/indicators"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/snapshot"
)

func f(v float64) *float64 { return &v }

func newTestServer() (*Server, *snapshot.Store) {
	store := snapshot.New()
	cfg := &config.Config{StaleAfter: 90 * time.Minute}
	return NewServer(0, store, cfg), store
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestMarketNotReady(t *testing.T) {
	s, _ := newTestServer()
	rec := do(s, http.MethodGet, "/market")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMarketReturnsTickerBook(t *testing.T) {
	s, store := newTestServer()
	store.PublishTickers(&models.TickerBook{
		FetchedAt: time.Now(),
		Tickers: map[string]models.MarketTicker{
			"BTCUSDT": {Symbol: "BTCUSDT", LastPrice: 50000},
		},
	})

	rec := do(s, http.MethodGet, "/market")
	require.Equal(t, http.StatusOK, rec.Code)

	var book models.TickerBook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.Contains(t, book.Tickers, "BTCUSDT")
}

func TestSentimentNotReady(t *testing.T) {
	s, _ := newTestServer()
	rec := do(s, http.MethodGet, "/sentiment")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSentimentReturnsSnapshot(t *testing.T) {
	s, store := newTestServer()
	store.Publish(&models.Snapshot{
		UpdatedAt: time.Now(),
		FearGreed: models.SentimentIndex{Score: 55, Label: "Greed"},
		Analyses:  []models.CoinAnalysis{{Symbol: "BTC", Signal: "CAUTION"}},
		Summary:   models.UpdateSummary{Analyzed: 1},
	})

	rec := do(s, http.MethodGet, "/sentiment")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 55, snap.FearGreed.Score)
	require.Len(t, snap.Analyses, 1)
	assert.Equal(t, "BTC", snap.Analyses[0].Symbol)
}

func scalper() models.CoinAnalysis {
	return models.CoinAnalysis{
		Symbol:         "BTC",
		SpreadPercent:  f(0.2),
		VolatilityZone: indicators.ZoneVeryLow,
		MTFConfirmed:   true,
		BreakoutScore:  7,
		RSI:            f(55),
		TimeToTarget:   "1-3h",
		MomentumHealth: indicators.HealthStrong,
	}
}

func TestScalpEligibility(t *testing.T) {
	s, _ := newTestServer()

	mutations := []struct {
		name     string
		mutate   func(*models.CoinAnalysis)
		eligible bool
	}{
		{"fully qualifying", func(a *models.CoinAnalysis) {}, true},
		{"low zone also qualifies", func(a *models.CoinAnalysis) { a.VolatilityZone = indicators.ZoneLow }, true},
		{"spread too wide", func(a *models.CoinAnalysis) { a.SpreadPercent = f(0.3) }, false},
		{"spread unknown", func(a *models.CoinAnalysis) { a.SpreadPercent = nil }, false},
		{"volatile zone", func(a *models.CoinAnalysis) { a.VolatilityZone = indicators.ZoneMedium }, false},
		{"no mtf confirmation", func(a *models.CoinAnalysis) { a.MTFConfirmed = false }, false},
		{"score below floor", func(a *models.CoinAnalysis) { a.BreakoutScore = 5 }, false},
		{"rsi below band", func(a *models.CoinAnalysis) { a.RSI = f(44) }, false},
		{"rsi above band", func(a *models.CoinAnalysis) { a.RSI = f(66) }, false},
		{"rsi unknown", func(a *models.CoinAnalysis) { a.RSI = nil }, false},
		{"slow estimate", func(a *models.CoinAnalysis) { a.TimeToTarget = "4-6h" }, false},
		{"weak momentum", func(a *models.CoinAnalysis) { a.MomentumHealth = indicators.HealthWeak }, false},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			a := scalper()
			tt.mutate(&a)
			assert.Equal(t, tt.eligible, s.scalpEligible(a))
		})
	}
}

func TestScalpSentimentFiltersSnapshot(t *testing.T) {
	s, store := newTestServer()

	other := scalper()
	other.Symbol = "DOGE"
	other.BreakoutScore = 2 // disqualified

	store.Publish(&models.Snapshot{
		UpdatedAt: time.Now(),
		Analyses:  []models.CoinAnalysis{scalper(), other},
	})

	rec := do(s, http.MethodGet, "/scalp-sentiment")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total      int                   `json:"total"`
		Qualifying int                   `json:"qualifying"`
		Coins      []models.CoinAnalysis `json:"coins"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Qualifying)
	require.Len(t, resp.Coins, 1)
	assert.Equal(t, "BTC", resp.Coins[0].Symbol)
}

func TestHealthStatuses(t *testing.T) {
	s, store := newTestServer()

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	// Before anything has been fetched.
	resp := decode(do(s, http.MethodGet, "/health"))
	assert.Equal(t, statusInitializing, resp["status"])

	// Tickers alone are not a full cycle.
	store.PublishTickers(&models.TickerBook{FetchedAt: time.Now()})
	resp = decode(do(s, http.MethodGet, "/health"))
	assert.Equal(t, statusInitializing, resp["status"])
	assert.Contains(t, resp, "last_ticker_update")

	// Fresh full cycle.
	store.Publish(&models.Snapshot{UpdatedAt: time.Now()})
	resp = decode(do(s, http.MethodGet, "/health"))
	assert.Equal(t, statusOK, resp["status"])
	assert.Contains(t, resp, "last_full_update")

	// Prolonged silence turns the status stale but keeps the timestamps.
	store.Publish(&models.Snapshot{UpdatedAt: time.Now().Add(-2 * time.Hour)})
	resp = decode(do(s, http.MethodGet, "/health"))
	assert.Equal(t, statusStale, resp["status"])
	assert.Contains(t, resp, "last_full_update")
}

func TestRootBanner(t *testing.T) {
	s, _ := newTestServer()
	rec := do(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}
