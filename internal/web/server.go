// Package web is the thin HTTP layer over the published snapshot. Handlers
// only read from the snapshot store and serialize; no handler ever triggers
// provider work.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/config"
	"github.com/Dmitrii6776/PersonalTradeAssist/internal/snapshot"
)

// Server serves the read-only API.
type Server struct {
	router *http.ServeMux
	server *http.Server
	store  *snapshot.Store
	cfg    *config.Config
	logger zerolog.Logger
}

// NewServer creates the HTTP server over the snapshot store.
func NewServer(port int, store *snapshot.Store, cfg *config.Config) *Server {
	s := &Server{
		router: http.NewServeMux(),
		store:  store,
		cfg:    cfg,
		logger: log.With().Str("component", "web").Logger(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /", s.handleRoot)
	s.router.HandleFunc("GET /market", s.handleMarket)
	s.router.HandleFunc("GET /sentiment", s.handleSentiment)
	s.router.HandleFunc("GET /scalp-sentiment", s.handleScalpSentiment)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
