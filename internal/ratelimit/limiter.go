// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ratelimit gates outbound model calls. A Limiter enforces a minimum
// spacing between acquisitions by waiting, and optional per-minute and
// per-day quotas by rejecting. Spacing protects against bursty local calls;
// hard caps protect against exceeding externally billed quotas, so those
// fail fast instead of queueing work that would be billed anyway.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// QuotaBound identifies which hard cap a rejected acquisition hit.
type QuotaBound string

const (
	BoundPerMinute QuotaBound = "per-minute"
	BoundPerDay    QuotaBound = "per-day"
)

// QuotaError is returned by Acquire when a hard cap is already saturated.
type QuotaError struct {
	Bound QuotaBound
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("ratelimit: %s quota of %d requests exceeded", e.Bound, e.Limit)
}

// Limiter serializes access to a shared request budget. All state is
// in-memory and guarded by a mutex; counters do not survive restarts.
type Limiter struct {
	mu sync.Mutex

	minInterval time.Duration
	perMinute   int // 0 disables the sliding-window cap
	perDay      int // 0 disables the daily cap

	last     time.Time
	window   []time.Time // acquisitions in the trailing minute
	dayCount int
	dayStart time.Time // midnight of the day dayCount refers to

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given minimum spacing and optional caps.
// A cap of 0 disables that bound.
func New(minInterval time.Duration, perMinute, perDay int) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		perMinute:   perMinute,
		perDay:      perDay,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Acquire blocks until the minimum spacing since the last successful
// acquisition has elapsed, then records the acquisition. If a per-minute or
// per-day cap is already saturated it returns a *QuotaError immediately
// rather than waiting. Returns ctx.Err() if the context is cancelled while
// waiting out the spacing.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()

		// Day counter resets on the first acquisition of a new calendar day.
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if !midnight.Equal(l.dayStart) {
			l.dayStart = midnight
			l.dayCount = 0
		}

		if l.perDay > 0 && l.dayCount >= l.perDay {
			l.mu.Unlock()
			return &QuotaError{Bound: BoundPerDay, Limit: l.perDay}
		}

		l.pruneWindow(now)
		if l.perMinute > 0 && len(l.window) >= l.perMinute {
			l.mu.Unlock()
			return &QuotaError{Bound: BoundPerMinute, Limit: l.perMinute}
		}

		wait := l.minInterval - now.Sub(l.last)
		if wait <= 0 {
			l.last = now
			l.window = append(l.window, now)
			l.dayCount++
			l.mu.Unlock()
			return nil
		}

		// Sleep without the lock so concurrent callers are not stuck behind
		// this wait; cancellations and cap rejections stay immediate. Another
		// caller may acquire in the meantime, so re-check from the top.
		l.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// pruneWindow drops timestamps older than one minute. Caller holds the lock.
func (l *Limiter) pruneWindow(now time.Time) {
	cutoff := now.Add(-time.Minute)
	valid := l.window[:0]
	for _, ts := range l.window {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	l.window = valid
}

// sleepCtx sleeps for d, returning early with ctx.Err() on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
