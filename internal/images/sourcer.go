// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package images sources candidate product photo URLs for prompt embedding.
// Sourcing is strictly best-effort: every failure path yields an empty list,
// which downstream treats as "use the placeholder keyword scheme".
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// TextGenerator is the slice of the model provider the keyword derivation
// needs.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Gater blocks or rejects before an upstream model call. Satisfied by
// *ratelimit.Limiter.
type Gater interface {
	Acquire(ctx context.Context) error
}

// Config holds photo API access parameters.
type Config struct {
	APIKey  string
	BaseURL string
}

// Sourcer queries an external photo API for landscape product photos.
type Sourcer struct {
	config  Config
	ai      TextGenerator
	limiter Gater
	client  *http.Client
}

// NewSourcer creates a Sourcer. ai and limiter may be nil: without ai the
// keyword heuristic is used directly, without limiter keyword sub-calls are
// not gated.
func NewSourcer(cfg Config, ai TextGenerator, limiter Gater) *Sourcer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.unsplash.com"
	}
	return &Sourcer{
		config:  cfg,
		ai:      ai,
		limiter: limiter,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// minURLLength rejects garbage entries the API occasionally returns in
// place of a URL.
const minURLLength = 12

// Fetch returns up to count landscape photo URLs matching the product
// description. It never returns an error: any failure along the way is
// logged and yields an empty list.
func (s *Sourcer) Fetch(ctx context.Context, description string, count int) []string {
	if s.config.APIKey == "" || count <= 0 {
		return nil
	}

	keywords := s.deriveKeywords(ctx, description)
	if keywords == "" {
		return nil
	}

	urls, err := s.search(ctx, keywords, count)
	if err != nil {
		slog.Warn("photo search failed", "keywords", keywords, "error", err)
		return nil
	}
	return urls
}

// photo is one entry of the photo API response. The random-photo endpoint
// returns a bare object for count=1 and an array otherwise.
type photo struct {
	URLs struct {
		Regular string `json:"regular"`
		Full    string `json:"full"`
	} `json:"urls"`
}

func (p photo) url() string {
	if p.URLs.Regular != "" {
		return p.URLs.Regular
	}
	return p.URLs.Full
}

func (s *Sourcer) search(ctx context.Context, keywords string, count int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/photos/random?query=%s&orientation=landscape&count=%d",
		s.config.BaseURL, url.QueryEscape(keywords), count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("photo request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("photo read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo API error (status %d): %s", resp.StatusCode, string(body))
	}

	photos, err := decodePhotos(body)
	if err != nil {
		return nil, fmt.Errorf("photo unmarshal: %w", err)
	}

	var urls []string
	for _, p := range photos {
		if u := p.url(); len(u) >= minURLLength {
			urls = append(urls, u)
		}
		if len(urls) == count {
			break
		}
	}
	return urls, nil
}

// decodePhotos accepts both response shapes: an array of photos, or a
// single photo object.
func decodePhotos(body []byte) ([]photo, error) {
	var list []photo
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var single photo
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []photo{single}, nil
}
