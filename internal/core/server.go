// Package core provides the HTTP chassis for the Teltrip reporting service:
// a chi router with the cross-cutting middleware chain (panic recovery,
// request correlation, structured logging, CORS, metrics, response
// compression, session auth) applied before requests reach the domain
// handlers.
package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teltrip/internal/auth"
	"teltrip/internal/config"
)

// Server encapsulates the router and the cross-cutting dependencies,
// allowing injection during testing.
type Server struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *Metrics
	Sessions *auth.Service

	router *chi.Mux
}

// NewServer initializes the chassis. The caller mounts routes afterwards via
// MountRoutes; the separation lets tests customize route registration.
func NewServer(cfg *config.Config, sessions *auth.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:   cfg,
		Logger:   logger,
		Metrics:  NewMetrics(),
		Sessions: sessions,
		router:   chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}
