// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generator composes the full generation pipeline: rate limit,
// reference digest, image sourcing, prompt assembly, model invocation and
// response extraction. Collaborators are injected as interfaces; the
// generator owns only the sequencing and the retry policy.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storesmith/internal/extract"
	"storesmith/internal/models"
	"storesmith/internal/prompt"
)

// imageCount is how many candidate photos are sourced per generation.
const imageCount = 3

// retryBudget is how many additional model invocations a parse or transport
// failure may consume before the generation is terminal.
const retryBudget = 2

// ModelCaller invokes the generative model. Satisfied by *ai.Registry.
type ModelCaller interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Limiter gates model invocations. Satisfied by *ratelimit.Limiter.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// ImageSourcer provides candidate photo URLs. Satisfied by *images.Sourcer.
type ImageSourcer interface {
	Fetch(ctx context.Context, description string, count int) []string
}

// ReferenceFetcher digests an optional reference page. Satisfied by
// *reference.Fetcher.
type ReferenceFetcher interface {
	Fetch(ctx context.Context, url string, mode models.ReferenceMode) (string, bool)
}

// Request carries the caller-supplied generation inputs. Text fields are
// forwarded into prompts as-is.
type Request struct {
	ProductType  string
	DesignStyle  string
	ReferenceURL string
	Mode         models.ReferenceMode
}

// Generator runs one generation end to end.
type Generator struct {
	model     ModelCaller
	limiter   Limiter
	images    ImageSourcer
	reference ReferenceFetcher
	composer  prompt.Composer
}

// New wires a Generator from its collaborators.
func New(model ModelCaller, limiter Limiter, images ImageSourcer, reference ReferenceFetcher, contract prompt.Contract) *Generator {
	return &Generator{
		model:     model,
		limiter:   limiter,
		images:    images,
		reference: reference,
		composer:  prompt.Composer{Contract: contract},
	}
}

// Generate produces a storefront page for req. Auxiliary inputs (reference
// digest, photos) are gathered once; the model invocation is retried on
// parse and transport failures until the retry budget is exhausted. Limiter
// rejections are terminal: a saturated quota must not be hammered further.
func (g *Generator) Generate(ctx context.Context, req Request) (*extract.Result, error) {
	// Acquire before the auxiliary fetches: a saturated quota rejects the
	// generation without spending a reference fetch or a photo search.
	if err := g.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("generation rejected: %w", err)
	}

	var digest string
	if req.ReferenceURL != "" && req.Mode != models.ReferenceModeNone {
		digest, _ = g.reference.Fetch(ctx, req.ReferenceURL, req.Mode)
	}

	urls := g.images.Fetch(ctx, req.ProductType, imageCount)

	userPrompt := g.composer.Compose(prompt.Input{
		ProductType:     req.ProductType,
		DesignStyle:     req.DesignStyle,
		ReferenceURL:    req.ReferenceURL,
		ReferenceDigest: digest,
		ImageURLs:       urls,
	})
	systemPrompt := g.composer.System()

	var lastErr error
	for attempt := 0; attempt <= retryBudget; attempt++ {
		if attempt > 0 {
			if err := g.limiter.Acquire(ctx); err != nil {
				return nil, fmt.Errorf("generation rejected: %w", err)
			}
		}

		raw, err := g.model.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			lastErr = fmt.Errorf("model call: %w", err)
			slog.Warn("model call failed", "attempt", attempt+1, "error", err)
			continue
		}

		result, err := extract.Extract(g.composer.Contract, raw)
		if err != nil {
			var pe *extract.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			lastErr = err
			slog.Warn("response extraction failed", "attempt", attempt+1, "error", err)
			continue
		}

		return result, nil
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", retryBudget+1, lastErr)
}
