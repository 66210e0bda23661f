package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
)

const healthCheckTimeout = 2 * time.Second

// newRouter builds the HTTP route tree.
func newRouter(deps *dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware(deps.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler(deps))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.authHandler.Register)
			r.Post("/login", deps.authHandler.Login)
			r.Post("/refresh", deps.authHandler.RefreshToken)
		})

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(deps.authMiddleware.Authenticate)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", deps.taskHandler.List)
				r.Post("/", deps.taskHandler.Create)
				r.Get("/stats/summary", deps.taskHandler.Stats)
				r.Get("/{id}", deps.taskHandler.Get)
				r.Delete("/{id}", deps.taskHandler.Delete)
				r.Patch("/{id}/status", deps.taskHandler.UpdateStatus)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", deps.userHandler.List)
				r.Get("/me", deps.userHandler.Me)
				r.Delete("/me", deps.userHandler.DeleteMe)
			})

			r.Route("/assistant", func(r chi.Router) {
				r.Post("/query", deps.assistantHandler.Query)
				r.Get("/examples", deps.assistantHandler.Examples)
			})
		})
	})

	return r
}

// healthHandler reports liveness and database reachability.
func healthHandler(deps *dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := deps.db.PingContext(ctx); err != nil {
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
