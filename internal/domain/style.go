package domain

import "strings"

// StyleRules maps a sex category to a marker style with one designated
// fallback for everything unmatched. Lookup is total and can never fail:
// field data routinely carries unexpected or missing category labels and a
// missing style must never abort a render.
type StyleRules struct {
	byCategory map[string]Style
	fallback   Style
}

// NewStyleRules builds rules from a category→style table plus the fallback.
// Keys are normalized (trimmed, lowercased) once here so "Male" and "male"
// resolve identically at lookup time.
func NewStyleRules(byCategory map[string]Style, fallback Style) StyleRules {
	normalized := make(map[string]Style, len(byCategory))
	for category, style := range byCategory {
		normalized[normalizeCategory(category)] = style
	}
	return StyleRules{byCategory: normalized, fallback: fallback}
}

// Lookup resolves a raw category value to exactly one style.
func (r StyleRules) Lookup(category string) Style {
	if style, ok := r.byCategory[normalizeCategory(category)]; ok {
		return style
	}
	return r.fallback
}

// Fallback returns the designated default style.
func (r StyleRules) Fallback() Style { return r.fallback }

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
