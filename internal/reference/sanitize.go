// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reference

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Markers substituted for stripped binary or vector content. They survive
// re-sanitization unchanged, which keeps the whole pass idempotent.
const (
	svgRemovedMarker   = "SVG_CONTENT_REMOVED"
	base64ImageMarker  = "BASE64_IMAGE_REMOVED"
	textTruncateMarker = "…"
)

// textNodeLimit is the rune threshold above which a text node is truncated.
// Long prose carries no style signal; the structure around it does.
const textNodeLimit = 120

// svgKeepAttrs and imgKeepAttrs are the attribute whitelists for their
// respective elements.
var (
	svgKeepAttrs    = map[string]bool{"class": true, "id": true, "width": true, "height": true, "viewbox": true}
	imgKeepAttrs    = map[string]bool{"src": true, "alt": true, "class": true, "id": true, "width": true, "height": true}
	scriptKeepAttrs = map[string]bool{"src": true, "type": true}
)

// Sanitize reduces markup to a compact structural skeleton: scripts and
// binary payloads removed, long text truncated, tracking and accessibility
// attributes stripped. The output preserves layout, class names and external
// resource references so a model can study the page's design. Sanitizing
// already-sanitized markup is a no-op.
func Sanitize(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing reference markup: %w", err)
	}

	doc.Find("noscript, iframe, object, embed").Remove()

	doc.Find("svg").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			filterAttrs(n, svgKeepAttrs)
		}
		s.SetHtml(svgRemovedMarker)
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.HasPrefix(src, "data:") {
			s.SetAttr("src", base64ImageMarker)
		}
		for _, n := range s.Nodes {
			filterAttrs(n, imgKeepAttrs)
		}
	})

	// External library usage stays visible through the src attribute; the
	// inline body itself is noise.
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			filterAttrs(n, scriptKeepAttrs)
		}
		s.SetHtml("")
	})

	for _, root := range doc.Selection.Nodes {
		walkNodes(root)
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("rendering sanitized markup: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// walkNodes strips comment nodes, truncates long text nodes and removes
// data-/aria-/event-handler attributes across the whole tree.
func walkNodes(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		switch c.Type {
		case html.CommentNode:
			n.RemoveChild(c)
		case html.TextNode:
			if !isVerbatimContext(n) {
				c.Data = truncateText(c.Data)
			}
		case html.ElementNode:
			stripNoiseAttrs(c)
			walkNodes(c)
		default:
			walkNodes(c)
		}
	}
}

// isVerbatimContext reports whether text under n must not be truncated.
// Style rules break when cut; script bodies are already emptied.
func isVerbatimContext(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "style" || n.Data == "script")
}

// truncateText cuts text beyond textNodeLimit runes and appends an ellipsis.
// Applying it to its own output yields the same string.
func truncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= textNodeLimit {
		return text
	}
	return string(runes[:textNodeLimit]) + textTruncateMarker
}

// stripNoiseAttrs removes data-*, aria-* and on* attributes from an element.
func stripNoiseAttrs(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "on") {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// filterAttrs drops every attribute of n whose lowercased key is not in keep.
func filterAttrs(n *html.Node, keep map[string]bool) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if keep[strings.ToLower(a.Key)] {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
