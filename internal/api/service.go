// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/melodex/core/internal/config"
)

// Server is the request-side interface (C11) wrapped as a
// suture.Service, so internal/supervisor.Tree.AddAPIService can run it
// alongside the background loop layer. Grounded on
// internal/ytlink.Prefetch's Serve/String shape and
// internal/supervisor/tree.go's AddAPIService doc comment.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// NewServer builds a Server bound to cfg's host/port, serving router's
// routes.
func NewServer(router *Router, cfg config.ServerConfig, log zerolog.Logger) *Server {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router.Setup(),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		log: log.With().Str("component", "api-server").Logger(),
	}
}

// String implements fmt.Stringer for suture's logging.
func (s *Server) String() string { return "api-server" }

// Serve implements suture.Service: it runs the HTTP server until ctx
// is cancelled, then shuts it down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("api server shutdown error")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
