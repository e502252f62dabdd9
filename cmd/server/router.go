package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uservault/uservault-api/internal/api"
	apiMiddleware "github.com/uservault/uservault-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.accountService, app.jwtService, app.tokenLifetime())
	accountHandler := api.NewAccountHandler(app.accountService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Self-or-admin endpoints
			r.Get("/users/validate", accountHandler.ValidateSelf)
			r.Put("/users/{login}/name", accountHandler.Rename)
			r.Put("/users/{login}/password", accountHandler.ChangePassword)
			r.Put("/users/{login}/login", accountHandler.ChangeLogin)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin)
				r.Post("/users", accountHandler.Create)
				r.Get("/users", accountHandler.List)
				r.Get("/users/older-than/{age}", accountHandler.ListOlderThan)
				r.Get("/users/{login}", accountHandler.Get)
				r.Delete("/users/{login}", accountHandler.SoftDelete)
				r.Put("/users/{login}/restore", accountHandler.Restore)
			})
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
