// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package images

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

const keywordSystemPrompt = `You translate free-text product descriptions into photo search keywords.
Respond with 2-3 lowercase English keywords, space-separated, no punctuation,
no quotes, nothing else. Example: "천연 수제 비누" -> natural handmade soap`

// fillerWords are dropped by the heuristic fallback. They describe the
// offer, not the photographable subject.
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "for": true, "with": true, "made": true, "from": true,
	"our": true, "your": true, "new": true, "best": true, "premium": true,
	"quality": true, "product": true, "products": true, "item": true,
	"items": true, "shop": true, "store": true, "online": true,
}

// deriveKeywords turns a free-text product description into a compact photo
// search query, preferring a model translation and falling back to a
// deterministic heuristic. Derivation never fails: any model problem,
// including limiter quota saturation, degrades to the heuristic.
func (s *Sourcer) deriveKeywords(ctx context.Context, description string) string {
	if s.ai == nil {
		return heuristicKeywords(description)
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			slog.Warn("keyword derivation skipped", "error", err)
			return heuristicKeywords(description)
		}
	}

	result, err := s.ai.Generate(ctx, keywordSystemPrompt, description)
	if err != nil {
		slog.Warn("keyword derivation failed, using heuristic", "error", err)
		return heuristicKeywords(description)
	}

	keywords := cleanKeywords(result)
	if keywords == "" {
		return heuristicKeywords(description)
	}
	return keywords
}

// cleanKeywords normalizes a model keyword response: quotes and newlines
// stripped, lowercased, collapsed to single spaces.
func cleanKeywords(s string) string {
	s = strings.NewReplacer("\"", "", "'", "", "`", "", "\n", " ", "\r", " ").Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// heuristicKeywords derives keywords without a model call: lowercase,
// punctuation stripped, filler words dropped, first three words kept.
func heuristicKeywords(description string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, description)

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if fillerWords[w] {
			continue
		}
		words = append(words, w)
		if len(words) == 3 {
			break
		}
	}
	return strings.Join(words, " ")
}
