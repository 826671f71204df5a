package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	// Chat requests can wait on several generation calls.
	writeTimeout    = 2 * time.Minute
	shutdownTimeout = 15 * time.Second
)

// Server represents the HTTP server
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New creates a server listening on addr.
func New(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
		logger: logger,
	}
}

// Serve accepts connections on l until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("http server listening", zap.String("addr", l.Addr().String()))
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and blocks until ctx is cancelled
// or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
