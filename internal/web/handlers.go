package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/indicators"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/scoring"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Spot Trading Assistant API is running\n"))
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	book := s.store.Tickers()
	if book == nil {
		s.writeError(w, http.StatusServiceUnavailable, "market data not ready yet")
		return
	}
	s.writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no full update cycle has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// scalpEligible is the fixed rule set for the scalp view: tight spread, calm
// zone, confirmed multi-timeframe trend, high score, mid-band RSI, a short
// time estimate, and strong momentum.
func (s *Server) scalpEligible(a models.CoinAnalysis) bool {
	if a.SpreadPercent == nil || *a.SpreadPercent >= 0.3 {
		return false
	}
	if a.VolatilityZone != indicators.ZoneVeryLow && a.VolatilityZone != indicators.ZoneLow {
		return false
	}
	if !a.MTFConfirmed {
		return false
	}
	if a.BreakoutScore < 6 {
		return false
	}
	if a.RSI == nil || *a.RSI < 45 || *a.RSI > 65 {
		return false
	}
	if !strings.HasPrefix(a.TimeToTarget, "1") && !strings.HasPrefix(a.TimeToTarget, "2") {
		return false
	}
	return a.MomentumHealth == indicators.HealthStrong
}

func (s *Server) handleScalpSentiment(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no full update cycle has completed yet")
		return
	}

	qualifying := make([]models.CoinAnalysis, 0)
	for _, a := range snap.Analyses {
		if s.scalpEligible(a) {
			qualifying = append(qualifying, a)
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":  snap.UpdatedAt,
		"fear_greed": snap.FearGreed,
		"total":      len(snap.Analyses),
		"qualifying": len(qualifying),
		"coins":      qualifying,
	})
}

// Health statuses.
const (
	statusOK           = "ok"
	statusInitializing = "initializing"
	statusStale        = "stale"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": statusInitializing}

	if book := s.store.Tickers(); book != nil {
		resp["last_ticker_update"] = book.FetchedAt
	}

	snap := s.store.Current()
	if snap != nil {
		resp["last_full_update"] = snap.UpdatedAt
		if time.Since(snap.UpdatedAt) > s.cfg.StaleAfter {
			resp["status"] = statusStale
		} else {
			resp["status"] = statusOK
		}
		resp["buy_signals"] = countSignals(snap.Analyses, scoring.SignalBuy)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func countSignals(analyses []models.CoinAnalysis, signal string) int {
	n := 0
	for _, a := range analyses {
		if a.Signal == signal {
			n++
		}
	}
	return n
}
