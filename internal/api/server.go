package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mesh-intelligence/teamboard/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server runs an http.Server until its context is canceled.
type Server struct {
	srv *http.Server
	log *logging.Logger
}

// NewServer returns a server for handler on addr.
func NewServer(addr string, handler http.Handler, log *logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
