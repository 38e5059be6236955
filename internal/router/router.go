// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// inkpost backend. It organizes the API into public reads and
// authenticated writes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/handlers"
	"inkpost/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. authLimiter throttles the sign-in endpoints.
func New(resolver middleware.Resolver, metrics *middleware.Metrics, authLimiter *middleware.RateLimiter, auth *handlers.Auth, blogs *handlers.Blogs) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request. Metrics and Logger wrap
	// Recoverer so they see the 500 it writes for a panicking handler.
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(resolver))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/signup", auth.SignUp)
			r.With(authLimiter.Middleware).Post("/token", auth.Token)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/logout", auth.Logout)
				r.Get("/user", auth.User)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", blogs.List)
			r.Get("/{id}", blogs.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", blogs.Create)
				r.Patch("/{id}", blogs.Update)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found"}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"Method Not Allowed"}`))
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
