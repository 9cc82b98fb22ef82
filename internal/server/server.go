// Package server exposes the analysis pipeline over HTTP.
//
// Runs, reports, artifacts and document generation are plain JSON
// endpoints. Pipeline events stream over a websocket at /v1/events.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// Server wraps an http.Server that speaks HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// New creates a Server listening on addr.
func New(addr string, handler http.Handler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start listens on the configured address and blocks until the server stops.
// A graceful shutdown is not an error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("api server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is done, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.logger.Info("api server shutting down", "timeout", timeout.String())
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
