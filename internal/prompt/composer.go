// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prompt assembles the instruction document sent to the model for a
// storefront generation. Composition is pure string work with no I/O; every
// variable block (reference analysis, image sources) has a fixed fallback so
// the document is always complete.
package prompt

import (
	"fmt"
	"strings"
)

// MetadataSeparator is the literal line the separator contract places between
// the HTML document and the trailing metadata JSON.
const MetadataSeparator = "<<<METADATA_SEPARATOR>>>"

// Contract selects which output format the model is instructed to produce.
// The extractor must be configured with the same contract.
type Contract string

const (
	// ContractJSON asks for a single JSON object carrying the markup and
	// the design rationale together.
	ContractJSON Contract = "json"
	// ContractSeparator asks for raw HTML, then MetadataSeparator on its
	// own line, then a JSON object with the design rationale.
	ContractSeparator Contract = "separator"
)

// ValidContract reports whether s names a supported output contract.
func ValidContract(s string) bool {
	switch Contract(s) {
	case ContractJSON, ContractSeparator:
		return true
	}
	return false
}

// Input carries everything a composition needs. ReferenceDigest and
// ImageURLs may be empty; the composer substitutes fallback instructions.
type Input struct {
	ProductType     string
	DesignStyle     string
	ReferenceURL    string
	ReferenceDigest string
	ImageURLs       []string
}

// Composer builds generation prompts for one output contract.
type Composer struct {
	Contract Contract
}

// System returns the fixed system instruction shared by both contracts.
func (c Composer) System() string {
	return `You are a world-class UI/UX designer and frontend developer. You build
complete, self-contained storefront landing pages: all CSS and JavaScript
embedded in a single HTML document, responsive from 320px mobile up to
desktop, using only vanilla JavaScript with no external libraries.`
}

// Compose builds the user instruction document for one generation.
func (c Composer) Compose(in Input) string {
	var sb strings.Builder

	sb.WriteString("Goal: create a responsive shopping website for a product and explain your design choices.\n\n")

	sb.WriteString("Input details:\n")
	fmt.Fprintf(&sb, "- Product: %s\n", in.ProductType)
	fmt.Fprintf(&sb, "- Design style: %s\n", in.DesignStyle)
	if in.ReferenceURL != "" {
		fmt.Fprintf(&sb, "- Reference URL: %s\n", in.ReferenceURL)
	}
	sb.WriteString("\n")

	sb.WriteString(c.referenceBlock(in))
	sb.WriteString("\n")
	sb.WriteString(c.imageBlock(in.ImageURLs, in.ProductType))
	sb.WriteString("\n")
	sb.WriteString(structuralRequirements)
	sb.WriteString("\n")
	sb.WriteString(c.formatContract())

	return sb.String()
}

// referenceBlock renders the reference-analysis section, or a generic
// instruction when no digest is available.
func (c Composer) referenceBlock(in Input) string {
	if in.ReferenceDigest == "" {
		if in.ReferenceURL == "" {
			return "Reference: none provided. Design freely from the product and style description.\n"
		}
		return fmt.Sprintf(`Reference: the page at %s could not be retrieved. Design freely from the
product and style description, and mention in your explanation that the
reference could not be considered.
`, in.ReferenceURL)
	}

	var sb strings.Builder
	sb.WriteString(`Reference analysis: below is a sanitized structural skeleton of the
reference page. Study its layout, spacing, typography and color usage and
incorporate a similar design philosophy. Mention in your explanation that
the reference was considered.

--- BEGIN REFERENCE SKELETON ---
`)
	sb.WriteString(in.ReferenceDigest)
	sb.WriteString("\n--- END REFERENCE SKELETON ---\n")
	return sb.String()
}

// imageBlock renders the pre-fetched image URL list, or the keyword
// placeholder-scheme instructions when no images were sourced.
func (c Composer) imageBlock(urls []string, productType string) string {
	if len(urls) == 0 {
		return fmt.Sprintf(`Images: no pre-fetched photos are available. Use the Lorem Flickr keyword
scheme, which serves real photographs matching keywords:

  https://loremflickr.com/WIDTH/HEIGHT/KEYWORD1,KEYWORD2

Keyword rules:
- 2-3 specific lowercase English keywords that exactly match "%s"
- comma-separated, no spaces, no generic terms like "product" or "item"
- vary keywords and dimensions between images for variety
- real photographs only: no icons, no illustrations, no placeholders
`, productType)
	}

	var sb strings.Builder
	sb.WriteString(`Images: use ONLY the photo URLs listed below, in order of importance.
Do not invent other image URLs. Every img tag needs a descriptive alt
attribute and loading="lazy".

`)
	for i, u := range urls {
		fmt.Fprintf(&sb, "- Image %d: %s\n", i+1, u)
	}
	return sb.String()
}

// structuralRequirements is the fixed catalogue of layout and interactivity
// requirements embedded in every prompt.
const structuralRequirements = `Page requirements:
- Max content width 1000px, centered.
- Responsive across mobile (320-767px), tablet (768-1023px) and desktop (1024px+).
- Interactive elements: smooth scroll animations (fade-in, slide-up),
  hover effects on images, an animated navigation menu with a hamburger
  variant on mobile, a product gallery with click-to-enlarge or carousel,
  a shopping cart icon with a badge animation, and form validation with
  visual feedback.
- Vanilla JavaScript only, no external libraries.
- Modern design: clean typography, ample whitespace, high-quality imagery.
- Self-contained: all CSS and JS embedded in the HTML document.

Design rationale:
- explanation: 1-2 sentences on the overall design choice, mentioning
  whether the reference was considered when one was provided.
- key_points: 3-5 key design decisions.
- color_palette: the 4-5 main hex color codes used in the design.
`

// formatContract returns the verbatim output-format contract for the active
// contract. The extractor relies on this text matching its parsing strategy.
func (c Composer) formatContract() string {
	if c.Contract == ContractSeparator {
		return `Output format (follow EXACTLY):
1. The complete HTML document, starting with <!DOCTYPE html>.
2. On its own line, the exact separator: ` + MetadataSeparator + `
3. A JSON object with exactly the keys "explanation", "key_points" and
   "color_palette".

No markdown fencing anywhere in the output.`
	}
	return `Output format (follow EXACTLY): return a single valid JSON object with
exactly these keys and nothing else:

{
  "html": "<!DOCTYPE html>...",
  "explanation": "...",
  "key_points": ["...", "...", "..."],
  "color_palette": ["#hex1", "#hex2", "#hex3", "#hex4"]
}

No markdown fencing. The html value must be a single line with line breaks
and quotes escaped.`
}
