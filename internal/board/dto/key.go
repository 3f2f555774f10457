package dto

import "strings"

// NormalizeKey lower-cases s and joins its whitespace-separated words with
// hyphens.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
