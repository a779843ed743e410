// Package router sets up all HTTP routes and middleware chains for the
// Storesmith API. Generation requests get an extra per-IP rate limit on
// top of the global middleware stack.
package router

import (
	"time"

	"github.com/go-chi/chi/v5"

	"storesmith/internal/handlers"
	"storesmith/internal/middleware"
)

// Per-IP limit on generation requests. Generations are expensive; browsing
// endpoints stay unthrottled.
const (
	generateLimit  = 10
	generateWindow = 1 * time.Minute
)

// New creates and returns the configured Chi router with all middleware
// and routes wired up. The returned rate limiter must be stopped on
// shutdown.
func New(sites *handlers.Sites) (chi.Router, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", sites.Health)

	limiter := middleware.NewRateLimiter(generateLimit, generateWindow)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/generate", sites.Generate)
	})

	r.Get("/results/{id}", sites.Result)
	r.Get("/gallery", sites.Gallery)

	r.Route("/sites/{id}", func(r chi.Router) {
		r.Get("/html", sites.HTML)
		r.Delete("/", sites.Delete)
	})

	return r, limiter
}
