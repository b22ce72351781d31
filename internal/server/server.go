// Package server wires the interaction endpoint and the admin API into one
// HTTP surface.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/analytics"
	"github.com/Jforjo/IsleofDucks-sub001/internal/config"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"go.uber.org/zap"
)

// reportWindow is how far back /api/report aggregates by default.
const reportWindow = 7 * 24 * time.Hour

type Server struct {
	cfg        config.Config
	logger     *zap.Logger
	analytics  *analytics.Service
	httpServer *http.Server
}

func New(cfg config.Config, logger *zap.Logger, dispatcher *interactions.Dispatcher, analyticsSvc *analytics.Service) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		analytics: analyticsSvc,
	}

	mux := http.NewServeMux()
	mux.Handle("/interactions", dispatcher)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/report", s.handleReport)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start listens in the foreground and returns when the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.ListenAddr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleReport serves the aggregate report the admin website polls. It is
// not Discord-facing, so access is a shared bearer secret rather than a
// request signature.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	report, err := s.analytics.Report(r.Context(), s.cfg.GuildID, time.Now().Add(-reportWindow))
	if err != nil {
		s.logger.Error("report build failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.ServiceSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.ServiceSecret)) == 1
}
