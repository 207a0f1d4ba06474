package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/keyip-smiles/internal/config"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

// Server owns the http.Server of the parse API.
type Server struct {
	srv             *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
}

// NewServer binds handler to cfg.Host:cfg.Port with cfg's timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger:          logger.Named("http"),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Serve accepts connections on l until Stop is called.  A graceful stop
// returns nil.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("HTTP server listening", logging.String("addr", l.Addr().String()))
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("http server: listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(l)
}

// Stop drains in-flight requests, waiting at most the configured shutdown
// timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.Stop(context.Background()); err != nil {
			return err
		}
		return <-errCh
	}
}
