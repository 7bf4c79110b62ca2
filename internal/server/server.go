package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"enchantment-resolver/internal/common/logging"
)

// Server represents the admin HTTP server
type Server struct {
	srv *http.Server
}

// New creates a new server instance listening on port
func New(handler http.Handler, port string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start binds the port and serves in the background. Bind errors are returned
// instead of surfacing later from the serving goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server stopped unexpectedly", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
