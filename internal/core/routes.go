package core

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
)

// RouteRegistrar mounts a domain handler's routes onto a router group.
// Handlers register themselves through this indirection to avoid import
// cycles between core and the handler packages.
type RouteRegistrar func(r chi.Router)

// MountRoutes applies the global middleware chain and mounts the handler
// routes. The public registrars (login, health) skip the session guard;
// the protected registrars (report data, accounts, export) require one.
//
// Ordering: Recoverer is outermost so every panic is caught; RequestID runs
// before the logger so correlation IDs appear in every log line; compression
// wraps last so large row sets and CSV exports ship gzipped.
func (s *Server) MountRoutes(public, protected []RouteRegistrar) {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(CORSMiddleware(s.Config.Server.CORSAllowedOrigins))
	s.router.Use(s.Metrics.Middleware)
	s.router.Use(func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	})

	s.router.Get("/health", s.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		for _, register := range public {
			register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(s.RequireSession)
			for _, register := range protected {
				register(r)
			}
		})
	})
}

// HandleHealth reports process liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
