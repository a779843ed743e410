// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"storesmith/internal/models"
	"storesmith/internal/prompt"
)

const validJSON = `{"html":"<!DOCTYPE html><html><body>x</body></html>","explanation":"clean layout","key_points":["spacing","contrast"],"color_palette":["#fff","#000"]}`

// ---------- JSON contract ----------

func TestExtractJSON(t *testing.T) {
	want := &Result{
		HTML: "<!DOCTYPE html><html><body>x</body></html>",
		Metadata: models.Metadata{
			Explanation:  "clean layout",
			KeyPoints:    []string{"spacing", "contrast"},
			ColorPalette: []string{"#fff", "#000"},
		},
	}

	t.Run("plain object", func(t *testing.T) {
		got, err := Extract(prompt.ContractJSON, validJSON)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("fenced object matches unfenced", func(t *testing.T) {
		got, err := Extract(prompt.ContractJSON, "```json\n"+validJSON+"\n```")
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("fenced result differs: got %+v, want %+v", got, want)
		}
	})

	t.Run("bare fence without language tag", func(t *testing.T) {
		got, err := Extract(prompt.ContractJSON, "```\n"+validJSON+"\n```")
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != want.HTML {
			t.Errorf("html: got %q, want %q", got.HTML, want.HTML)
		}
	})

	t.Run("leading prose recovered via brace pass", func(t *testing.T) {
		raw := "Sure! Here is your storefront page:\n\n" + validJSON + "\n\nLet me know if you need changes."
		got, err := Extract(prompt.ContractJSON, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("bare newline inside string literal", func(t *testing.T) {
		raw := "{\"html\":\"<html>\nline two</html>\",\"explanation\":\"e\",\"key_points\":[],\"color_palette\":[]}"
		got, err := Extract(prompt.ContractJSON, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != "<html>\nline two</html>" {
			t.Errorf("html: got %q", got.HTML)
		}
	})

	t.Run("tab inside string literal", func(t *testing.T) {
		raw := "{\"html\":\"<html>\ta</html>\",\"explanation\":\"\",\"key_points\":[],\"color_palette\":[]}"
		got, err := Extract(prompt.ContractJSON, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != "<html>\ta</html>" {
			t.Errorf("html: got %q", got.HTML)
		}
	})

	t.Run("no json at all is a parse error", func(t *testing.T) {
		_, err := Extract(prompt.ContractJSON, "I could not generate the page, sorry.")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want *ParseError, got %v", err)
		}
		if pe.Contract != prompt.ContractJSON {
			t.Errorf("contract: got %s", pe.Contract)
		}
	})

	t.Run("truncated object is a parse error", func(t *testing.T) {
		_, err := Extract(prompt.ContractJSON, `{"html":"<html>","explanation":"trunca`)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want *ParseError, got %v", err)
		}
	})

	t.Run("missing html field is a parse error", func(t *testing.T) {
		_, err := Extract(prompt.ContractJSON, `{"explanation":"e","key_points":[],"color_palette":[]}`)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want *ParseError, got %v", err)
		}
		if !strings.Contains(err.Error(), "no html field") {
			t.Errorf("error message: %v", err)
		}
	})
}

// ---------- separator contract ----------

func TestExtractSeparator(t *testing.T) {
	t.Run("markup plus valid metadata", func(t *testing.T) {
		raw := "<html>X</html>" + MetadataSeparator + `{"explanation":"e","key_points":["a"],"color_palette":["#fff"]}`
		got, err := Extract(prompt.ContractSeparator, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != "<html>X</html>" {
			t.Errorf("html: got %q", got.HTML)
		}
		if got.Metadata.Explanation != "e" {
			t.Errorf("explanation: got %q", got.Metadata.Explanation)
		}
		if !reflect.DeepEqual(got.Metadata.KeyPoints, []string{"a"}) {
			t.Errorf("key_points: got %v", got.Metadata.KeyPoints)
		}
		if !reflect.DeepEqual(got.Metadata.ColorPalette, []string{"#fff"}) {
			t.Errorf("color_palette: got %v", got.Metadata.ColorPalette)
		}
	})

	t.Run("fenced metadata segment", func(t *testing.T) {
		raw := "<!DOCTYPE html><html></html>\n" + MetadataSeparator + "\n```json\n{\"explanation\":\"e\",\"key_points\":[],\"color_palette\":[]}\n```"
		got, err := Extract(prompt.ContractSeparator, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.Metadata.Explanation != "e" {
			t.Errorf("explanation: got %q", got.Metadata.Explanation)
		}
	})

	t.Run("corrupt metadata keeps markup with fallback", func(t *testing.T) {
		raw := "<html>kept</html>\n" + MetadataSeparator + "\n{not json at all"
		got, err := Extract(prompt.ContractSeparator, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != "<html>kept</html>" {
			t.Errorf("html: got %q", got.HTML)
		}
		if !reflect.DeepEqual(got.Metadata, FallbackMetadata()) {
			t.Errorf("metadata: got %+v, want fallback", got.Metadata)
		}
	})

	t.Run("missing separator with html root marker", func(t *testing.T) {
		raw := "<!DOCTYPE html>\n<html><body>best effort</body></html>"
		got, err := Extract(prompt.ContractSeparator, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.HTML != raw {
			t.Errorf("html: got %q", got.HTML)
		}
		if !reflect.DeepEqual(got.Metadata, FallbackMetadata()) {
			t.Errorf("metadata: got %+v, want fallback", got.Metadata)
		}
	})

	t.Run("missing separator without html is a parse error", func(t *testing.T) {
		_, err := Extract(prompt.ContractSeparator, "no markup here")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want *ParseError, got %v", err)
		}
		if pe.Contract != prompt.ContractSeparator {
			t.Errorf("contract: got %s", pe.Contract)
		}
	})

	t.Run("empty markup segment is a parse error", func(t *testing.T) {
		_, err := Extract(prompt.ContractSeparator, MetadataSeparator+`{"explanation":"e"}`)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("want *ParseError, got %v", err)
		}
	})

	t.Run("nil metadata slices normalized to empty", func(t *testing.T) {
		raw := "<html></html>" + MetadataSeparator + `{"explanation":"e"}`
		got, err := Extract(prompt.ContractSeparator, raw)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.Metadata.KeyPoints == nil || got.Metadata.ColorPalette == nil {
			t.Errorf("slices not normalized: %+v", got.Metadata)
		}
	})
}

// ---------- fence stripping ----------

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"html fence", "```html\n<html></html>\n```", "<html></html>"},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"missing closing fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"double fence language tag", "```\njson\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------- fallback metadata ----------

func TestFallbackMetadataIsCopied(t *testing.T) {
	a := FallbackMetadata()
	a.KeyPoints = append(a.KeyPoints, "mutated")
	b := FallbackMetadata()
	if len(b.KeyPoints) != 0 {
		t.Errorf("fallback metadata shared state across calls: %v", b.KeyPoints)
	}
}
