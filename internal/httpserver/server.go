package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may run during shutdown.
var ShutdownTimeout = 10 * time.Second

// Server wraps http.Server with timeouts suited to an API that accepts
// multipart uploads: header reads stay tight while bodies get more room.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start serves HTTP traffic until Shutdown is called. A graceful shutdown is
// not reported as an error.
func (s *Server) Start() error {
	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
