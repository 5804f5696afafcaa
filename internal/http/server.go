// Package http serves metrics and health probes while an enrichment run is in progress.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"linkenricher/internal/core"
	"linkenricher/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config *core.ServerConfig
	logger *zap.Logger
	server *http.Server
	ready  atomic.Bool
}

func NewServer(config *core.ServerConfig, m *metrics.Metrics, logger *zap.Logger) *Server {
	s := &Server{
		config: config,
		logger: logger,
	}
	s.server = createHTTPServer(config, s.setupRoutes(m))
	return s
}

// SetReady flips /readyz. The runner marks the server ready once providers are authenticated.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) setupRoutes(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeStatus(w, http.StatusOK, `{"status":"ok","service":"linkenricher"}`)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready.Load() {
			s.writeStatus(w, http.StatusServiceUnavailable, `{"status":"starting","service":"linkenricher"}`)
			return
		}
		s.writeStatus(w, http.StatusOK, `{"status":"ready","service":"linkenricher"}`)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))

	return mux
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.logger.Debug("Failed to write probe response", zap.Error(err))
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         config.Addr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}
