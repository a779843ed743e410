// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"storesmith/internal/cache"
	"storesmith/internal/database"
	"storesmith/internal/extract"
	"storesmith/internal/generator"
	"storesmith/internal/jobs"
	"storesmith/internal/models"
	"storesmith/internal/store"
)

// stubRunner implements jobs.Runner with a canned outcome so handler tests
// never touch a real AI provider.
type stubRunner struct {
	mu     sync.Mutex
	result *extract.Result
	err    error
	calls  int
}

func (r *stubRunner) Generate(_ context.Context, _ generator.Request) (*extract.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "storesmith")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "storesmith")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "site:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	SiteStore   *store.SiteStore
	SiteCache   *cache.SiteCache
	Runner      *stubRunner
	Coordinator *jobs.Coordinator
	Sites       *Sites
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	siteStore := store.NewSiteStore(db)
	siteCache := cache.NewSiteCache(vk, 1*time.Minute)

	runner := &stubRunner{
		result: &extract.Result{
			HTML: "<!DOCTYPE html><html><body>Test storefront</body></html>",
			Metadata: models.Metadata{
				Explanation:  "A clean test layout.",
				KeyPoints:    []string{"hero section"},
				ColorPalette: []string{"#112233"},
			},
		},
	}
	coordinator := jobs.New(runner, siteStore)
	t.Cleanup(coordinator.Wait)

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		SiteStore:   siteStore,
		SiteCache:   siteCache,
		Runner:      runner,
		Coordinator: coordinator,
		Sites:       NewSites(siteStore, coordinator, siteCache),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// cleanSites removes test site records by product type.
func cleanSites(t *testing.T, db *sql.DB, productTypes ...string) {
	t.Helper()
	for _, pt := range productTypes {
		db.Exec("DELETE FROM sites WHERE product_type = $1", pt)
	}
}

// waitForTerminal polls until the site leaves pending or the deadline hits.
func waitForTerminal(t *testing.T, env *testEnv, id string) *models.Site {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		site := findSiteByIDString(t, env, id)
		if site != nil && site.IsTerminal() {
			return site
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("site %s never reached a terminal state", id)
	return nil
}

func findSiteByIDString(t *testing.T, env *testEnv, id string) *models.Site {
	t.Helper()

	var site models.Site
	var keyPoints, palette []byte
	err := env.DB.QueryRow(`
		SELECT id, product_type, status, html_content, explanation,
		       COALESCE(key_points, '[]'), COALESCE(color_palette, '[]'), error_message
		FROM sites WHERE id = $1
	`, id).Scan(&site.ID, &site.ProductType, &site.Status, &site.HTMLContent,
		&site.Explanation, &keyPoints, &palette, &site.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		t.Fatalf("query site: %v", err)
	}
	return &site
}
