// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteStatus represents the lifecycle state of a generated storefront site.
// A site is created pending, and moves exactly once to completed or error.
type SiteStatus string

const (
	SiteStatusPending   SiteStatus = "pending"
	SiteStatusCompleted SiteStatus = "completed"
	SiteStatusError     SiteStatus = "error"
)

// ReferenceMode controls how a reference URL is fetched and reduced before
// being embedded in the generation prompt.
type ReferenceMode string

const (
	// ReferenceModeNone skips the reference fetch entirely.
	ReferenceModeNone ReferenceMode = "none"
	// ReferenceModeSmart fetches and sanitizes the page down to a compact
	// style-relevant skeleton. This is the default.
	ReferenceModeSmart ReferenceMode = "smart"
	// ReferenceModeRaw fetches and hard-truncates the page without cleanup.
	ReferenceModeRaw ReferenceMode = "raw"
)

// ValidReferenceMode reports whether s names a known reference mode.
func ValidReferenceMode(s string) bool {
	switch ReferenceMode(s) {
	case ReferenceModeNone, ReferenceModeSmart, ReferenceModeRaw:
		return true
	}
	return false
}

// Site is a single storefront generation record. The request fields are
// captured at creation time; the result fields are filled in exactly once
// when the background generation settles.
type Site struct {
	ID           uuid.UUID     `json:"id"`
	ProductType  string        `json:"product_type"`
	DesignStyle  string        `json:"design_style"`
	ReferenceURL *string       `json:"reference_url,omitempty"`
	Mode         ReferenceMode `json:"mode"`
	Status       SiteStatus    `json:"status"`

	// Result fields, set on completion.
	HTMLContent  string   `json:"html,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
	KeyPoints    []string `json:"key_points,omitempty"`
	ColorPalette []string `json:"color_palette,omitempty"`

	// Set on failure.
	ErrorMessage *string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal returns true once the site has settled to completed or error.
func (s *Site) IsTerminal() bool {
	return s.Status == SiteStatusCompleted || s.Status == SiteStatusError
}

// Metadata is the design rationale bundle produced alongside the markup.
type Metadata struct {
	Explanation  string   `json:"explanation"`
	KeyPoints    []string `json:"key_points"`
	ColorPalette []string `json:"color_palette"`
}
