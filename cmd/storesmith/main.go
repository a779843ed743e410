// Package main is the entry point for the Storesmith server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storesmith/internal/ai"
	"storesmith/internal/cache"
	"storesmith/internal/config"
	"storesmith/internal/database"
	"storesmith/internal/generator"
	"storesmith/internal/handlers"
	"storesmith/internal/images"
	"storesmith/internal/jobs"
	"storesmith/internal/prompt"
	"storesmith/internal/ratelimit"
	"storesmith/internal/reference"
	"storesmith/internal/router"
	"storesmith/internal/store"
)

func main() {
	// A .env file is optional; real environments set variables directly.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"contract", cfg.Contract,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible cache for served pages).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	siteStore := store.NewSiteStore(db)
	siteCache := cache.NewSiteCache(valkeyClient, cache.DefaultSiteTTL)

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai": {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini": {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude": {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	// One limiter guards every outbound model call, page generations and
	// image keyword derivations alike.
	aiLimiter := ratelimit.New(cfg.MinRequestInterval, cfg.PerMinuteCap, cfg.DailyCap)

	imageSourcer := images.NewSourcer(images.Config{
		APIKey:  cfg.PhotoAPIKey,
		BaseURL: cfg.PhotoAPIBaseURL,
	}, aiRegistry, aiLimiter)
	if cfg.PhotoAPIKey == "" {
		slog.Warn("photo api not configured, pages fall back to placeholder images")
	}

	refFetcher := reference.NewFetcher(cfg.ReferenceTimeout)

	gen := generator.New(aiRegistry, aiLimiter, imageSourcer, refFetcher, prompt.Contract(cfg.Contract))
	coordinator := jobs.New(gen, siteStore)

	sitesHandlers := handlers.NewSites(siteStore, coordinator, siteCache)

	// Set up the Chi router with all middleware and routes.
	r, ipLimiter := router.New(sitesHandlers)
	defer ipLimiter.Stop()

	// Generation runs in the background, so handler responses are quick;
	// the write timeout only needs to cover serving stored pages.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight generations finalize their records before closing the
	// database connection.
	slog.Info("waiting for in-flight generations")
	coordinator.Wait()

	slog.Info("server stopped gracefully")
}
