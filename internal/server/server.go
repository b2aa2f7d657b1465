package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/metrics"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds the graceful shutdown
const DefaultShutdownTimeout = 5 * time.Second

// Config holds the server configuration
type Config struct {
	// Addr is the listen address, e.g. ":9120"
	Addr string

	// ShutdownTimeout bounds the graceful shutdown (DefaultShutdownTimeout if zero)
	ShutdownTimeout time.Duration
}

// Server exposes the monitor's HTTP endpoints: /metrics and /healthz
type Server struct {
	config   Config
	http     *http.Server
	listener net.Listener
}

// New creates a server exporting the given metrics collector
func New(config Config, collector *metrics.Collector) *Server {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(collector)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return &Server{
		config: config,
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Listen binds the listen address. Run calls it when it has not been called.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Metrics server listening", zap.String("addr", s.Addr()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown() error {
	logging.Info("Shutting down metrics server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.http.Close()
	}
	return nil
}
