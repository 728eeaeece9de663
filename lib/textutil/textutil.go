// Package textutil normalizes scraped Japanese text for matching.
package textutil

import (
	"regexp"
	"strings"
)

// ascii whitespace plus the fullwidth space the bento site pads its
// labels with
var whitespaceRegex = regexp.MustCompile(`[\s\x{3000}]+`)

// NormalizeText lowercases and strips every whitespace run so matching
// is insensitive to the site's inconsistent padding.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, "")
	return s
}

// ContainsAll reports whether every keyword occurs in s, both sides
// normalized.
func ContainsAll(s string, keywords []string) bool {
	s = NormalizeText(s)
	for _, keyword := range keywords {
		if !strings.Contains(s, NormalizeText(keyword)) {
			return false
		}
	}
	return true
}
