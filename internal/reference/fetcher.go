// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package reference retrieves an optional reference page and reduces it to a
// compact structural skeleton for prompt embedding. Every failure in this
// package degrades to "no digest": a missing reference never fails a
// generation.
package reference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"storesmith/internal/models"
)

// browserUserAgent is sent on reference fetches. Many storefronts serve
// bot-detected requests a stripped or blocked page.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodyBytes bounds how much of a reference page is read. Pages beyond
// this carry no additional style signal worth the prompt budget.
const maxBodyBytes = 2 << 20

// rawCharBudget is the hard truncation budget for raw mode and for the
// sanitizer's parse-failure fallback.
const rawCharBudget = 8000

// Fetcher retrieves and digests reference pages.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves url and returns a digest of its markup according to mode.
// The second return reports whether a digest was produced; false means the
// caller should fall back to a generic no-reference instruction. Fetch never
// returns an error: retrieval problems are logged and reported as no digest.
func (f *Fetcher) Fetch(ctx context.Context, url string, mode models.ReferenceMode) (string, bool) {
	if url == "" || mode == models.ReferenceModeNone {
		return "", false
	}

	body, err := f.get(ctx, url)
	if err != nil {
		slog.Warn("reference fetch failed", "url", url, "error", err)
		return "", false
	}

	if mode == models.ReferenceModeRaw {
		return truncateRunes(body, rawCharBudget), true
	}

	digest, err := Sanitize(body)
	if err != nil {
		slog.Warn("reference sanitize failed, using raw truncation", "url", url, "error", err)
		return truncateRunes(body, rawCharBudget), true
	}
	return digest, true
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reference returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading reference body: %w", err)
	}
	return string(body), nil
}

// truncateRunes cuts s to at most n runes. Rune-aware so a multi-byte
// character is never split mid-sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
