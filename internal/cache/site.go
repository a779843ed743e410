// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// site.go provides a Valkey-backed cache for generated storefront HTML.
// Completed markup never changes, so serving it from Valkey skips the
// Postgres query on every preview request.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// siteKeyPrefix is the Valkey key prefix for cached storefront pages.
	siteKeyPrefix = "site:"

	// DefaultSiteTTL is how long generated markup stays cached.
	DefaultSiteTTL = 30 * time.Minute
)

// SiteCache manages generated-page HTML caching in Valkey.
type SiteCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSiteCache creates a new site cache backed by the given Valkey client.
func NewSiteCache(client *redis.Client, ttl time.Duration) *SiteCache {
	if ttl == 0 {
		ttl = DefaultSiteTTL
	}
	return &SiteCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a site. The second return reports a hit.
// Cache errors degrade to a miss.
func (sc *SiteCache) Get(ctx context.Context, id uuid.UUID) ([]byte, bool) {
	val, err := sc.client.Get(ctx, siteKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("site cache get error", "site_id", id, "error", err)
		return nil, false
	}
	slog.Debug("site cache hit", "site_id", id)
	return val, true
}

// Set stores generated HTML for a site with the configured TTL.
func (sc *SiteCache) Set(ctx context.Context, id uuid.UUID, html []byte) {
	if err := sc.client.Set(ctx, siteKeyPrefix+id.String(), html, sc.ttl).Err(); err != nil {
		slog.Warn("site cache set error", "site_id", id, "error", err)
	}
}

// Invalidate removes a site's cached HTML. Called when the record is
// deleted.
func (sc *SiteCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := sc.client.Del(ctx, siteKeyPrefix+id.String()).Err(); err != nil {
		slog.Warn("site cache invalidate error", "site_id", id, "error", err)
	}
	slog.Debug("site cache invalidated", "site_id", id)
}
