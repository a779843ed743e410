package handlers

import (
	"net/url"
	"unicode/utf8"

	"storesmith/internal/models"
)

// Validation limits for generation request fields.
const (
	maxProductTypeLen  = 500
	maxDesignStyleLen  = 500
	maxReferenceURLLen = 2_000
)

// validateGenerateRequest checks generation inputs and returns the first
// error found. Inputs are already trimmed.
func validateGenerateRequest(productType, designStyle, referenceURL, mode string) string {
	if productType == "" {
		return "Product type is required."
	}
	if utf8.RuneCountInString(productType) > maxProductTypeLen {
		return "Product type is too long (max 500 characters)."
	}
	if designStyle == "" {
		return "Design style is required."
	}
	if utf8.RuneCountInString(designStyle) > maxDesignStyleLen {
		return "Design style is too long (max 500 characters)."
	}
	if !models.ValidReferenceMode(mode) {
		return "Mode must be one of: none, smart, raw."
	}
	if referenceURL != "" {
		if utf8.RuneCountInString(referenceURL) > maxReferenceURLLen {
			return "Reference URL is too long (max 2,000 characters)."
		}
		u, err := url.Parse(referenceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "Reference URL must be a valid http(s) URL."
		}
	}
	return ""
}
