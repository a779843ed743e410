// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs generations in the background and ties their outcome to
// the persisted site record. A dispatched job finalizes its record exactly
// once, as completed or error, and never lets a failure escape the
// goroutine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"storesmith/internal/extract"
	"storesmith/internal/generator"
	"storesmith/internal/models"
)

// jobTimeout bounds one full generation including retries.
const jobTimeout = 5 * time.Minute

// Runner produces a storefront page. Satisfied by *generator.Generator.
type Runner interface {
	Generate(ctx context.Context, req generator.Request) (*extract.Result, error)
}

// SiteStore is the slice of the persistence layer a job needs to finalize
// its record. The pending record already exists when Dispatch is called.
type SiteStore interface {
	MarkCompleted(id uuid.UUID, html string, md models.Metadata) error
	MarkError(id uuid.UUID, message string) error
}

// Coordinator dispatches generations to background goroutines.
type Coordinator struct {
	runner Runner
	store  SiteStore
	wg     sync.WaitGroup
}

// New creates a Coordinator.
func New(runner Runner, store SiteStore) *Coordinator {
	return &Coordinator{runner: runner, store: store}
}

// Dispatch starts the generation for an already-created pending record and
// returns immediately. The record reaches exactly one terminal state.
func (c *Coordinator) Dispatch(id uuid.UUID, req generator.Request) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(id, req)
	}()
}

// Wait blocks until every in-flight job has finalized its record. Used for
// graceful shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) run(id uuid.UUID, req generator.Request) {
	// The originating HTTP request already returned; the job owns its own
	// lifetime.
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("generation job panicked", "site_id", id, "panic", r)
			c.markError(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	slog.Info("generation started", "site_id", id, "product_type", req.ProductType)
	started := time.Now()

	result, err := c.runner.Generate(ctx, req)
	if err != nil {
		slog.Error("generation failed", "site_id", id, "error", err)
		c.markError(id, err.Error())
		return
	}

	if err := c.store.MarkCompleted(id, result.HTML, result.Metadata); err != nil {
		slog.Error("marking site completed failed", "site_id", id, "error", err)
		return
	}

	slog.Info("generation completed", "site_id", id, "duration", time.Since(started))
}

func (c *Coordinator) markError(id uuid.UUID, message string) {
	if err := c.store.MarkError(id, message); err != nil {
		slog.Error("marking site errored failed", "site_id", id, "error", err)
	}
}
