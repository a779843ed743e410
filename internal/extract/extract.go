// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package extract recovers a structured storefront result from a raw model
// completion. Models do not reliably honor format instructions: they wrap
// output in markdown fences, prepend prose, truncate JSON, or embed raw
// newlines inside string literals. Extraction is layered so that each
// violation degrades to a recovery pass before becoming a parse failure.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"storesmith/internal/models"
	"storesmith/internal/prompt"
)

// MetadataSeparator is the literal line the separator contract places
// between the HTML document and the trailing metadata JSON. It must match
// the token the prompt composer embeds.
const MetadataSeparator = prompt.MetadataSeparator

// Result is the structured outcome of a successful extraction.
type Result struct {
	HTML     string
	Metadata models.Metadata
}

// ParseError marks a hard contract violation that warrants a full
// re-generation rather than another recovery pass.
type ParseError struct {
	Contract prompt.Contract
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: %s contract violated: %v", e.Contract, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// fallbackMetadata is substituted when the markup survived but the trailing
// metadata JSON did not. The markup is the valuable artifact; it is never
// discarded over metadata corruption.
var fallbackMetadata = models.Metadata{
	Explanation:  "Design rationale was not provided by the model.",
	KeyPoints:    []string{},
	ColorPalette: []string{},
}

// FallbackMetadata returns the neutral metadata bundle used when the
// metadata segment of a response is unusable.
func FallbackMetadata() models.Metadata {
	md := fallbackMetadata
	md.KeyPoints = append([]string(nil), fallbackMetadata.KeyPoints...)
	md.ColorPalette = append([]string(nil), fallbackMetadata.ColorPalette...)
	return md
}

// Extract parses a raw completion under the given output contract.
func Extract(contract prompt.Contract, raw string) (*Result, error) {
	switch contract {
	case prompt.ContractSeparator:
		return extractSeparator(raw)
	default:
		return extractJSON(raw)
	}
}

// jsonPayload mirrors the single-document contract: one object with exactly
// these four keys.
type jsonPayload struct {
	HTML         string   `json:"html"`
	Explanation  string   `json:"explanation"`
	KeyPoints    []string `json:"key_points"`
	ColorPalette []string `json:"color_palette"`
}

// extractJSON handles the single-JSON-document contract. Recovery order:
// fence strip, relaxed parse, then brace-bounded substring re-parse for
// completions with leading or trailing prose.
func extractJSON(raw string) (*Result, error) {
	text := StripFence(raw)

	payload, err := parseRelaxed(text)
	if err != nil {
		// The model often wraps the object in commentary despite
		// instructions. Re-parse the outermost {...} span.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return nil, &ParseError{Contract: prompt.ContractJSON, Err: err}
		}
		payload, err = parseRelaxed(text[start : end+1])
		if err != nil {
			return nil, &ParseError{Contract: prompt.ContractJSON, Err: err}
		}
	}

	if payload.HTML == "" {
		return nil, &ParseError{
			Contract: prompt.ContractJSON,
			Err:      fmt.Errorf("response object has no html field"),
		}
	}

	return &Result{
		HTML: payload.HTML,
		Metadata: models.Metadata{
			Explanation:  payload.Explanation,
			KeyPoints:    payload.KeyPoints,
			ColorPalette: payload.ColorPalette,
		},
	}, nil
}

// extractSeparator handles the HTML + separator + JSON contract.
func extractSeparator(raw string) (*Result, error) {
	text := StripFence(raw)

	before, after, found := strings.Cut(text, MetadataSeparator)
	if !found {
		// No separator at all. If the text is recognizably an HTML
		// document, keep it as a best-effort result; otherwise fail hard.
		if looksLikeHTML(text) {
			return &Result{HTML: strings.TrimSpace(text), Metadata: FallbackMetadata()}, nil
		}
		return nil, &ParseError{
			Contract: prompt.ContractSeparator,
			Err:      fmt.Errorf("separator %q not found and no HTML document detected", MetadataSeparator),
		}
	}

	markup := strings.TrimSpace(before)
	if markup == "" {
		return nil, &ParseError{
			Contract: prompt.ContractSeparator,
			Err:      fmt.Errorf("empty markup segment before separator"),
		}
	}

	// The metadata segment is often fenced on its own even when the markup
	// was not. Corrupt metadata is non-terminal: substitute the fallback.
	metaText := StripFence(strings.TrimSpace(after))
	var md models.Metadata
	if err := json.Unmarshal([]byte(metaText), &md); err != nil {
		return &Result{HTML: markup, Metadata: FallbackMetadata()}, nil
	}
	if md.KeyPoints == nil {
		md.KeyPoints = []string{}
	}
	if md.ColorPalette == nil {
		md.ColorPalette = []string{}
	}

	return &Result{HTML: markup, Metadata: md}, nil
}

// parseRelaxed unmarshals text, first as-is and then after escaping bare
// control characters inside string literals. Models routinely emit literal
// newlines inside the html value, which strict JSON rejects.
func parseRelaxed(text string) (*jsonPayload, error) {
	var payload jsonPayload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return &payload, nil
	}

	escaped := escapeControlChars(text)
	if err := json.Unmarshal([]byte(escaped), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// escapeControlChars rewrites bare control characters that occur inside
// JSON string literals to their escaped forms. Characters outside string
// literals are left untouched.
func escapeControlChars(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	inString := false
	escaped := false
	for _, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				sb.WriteString(`\n`)
				continue
			case r == '\r':
				sb.WriteString(`\r`)
				continue
			case r == '\t':
				sb.WriteString(`\t`)
				continue
			case r < 0x20:
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// StripFence removes one layer of surrounding markdown code-fence markers.
// Content without a leading fence is returned unchanged, so stripping is a
// no-op on clean completions.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	// Drop the opening fence line (``` or ```json etc.).
	lines = lines[1:]
	// Drop the closing fence line if present.
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	inner := strings.TrimSpace(strings.Join(lines, "\n"))
	// A stray language tag can survive when the model fences twice.
	inner = strings.TrimPrefix(inner, "json\n")
	return strings.TrimSpace(inner)
}

// looksLikeHTML reports whether text contains a recognizable HTML root
// marker.
func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
}
