// Package fingerprint turns highlight text into a stable comparison key used
// to decide whether a highlight already exists on a destination page.
package fingerprint

import "strings"

// maxLen bounds how much of the text participates in the key. Two highlights
// whose first 1000 characters normalize identically are treated as the same
// highlight; content beyond that is ignored for comparison.
const maxLen = 1000

var markup = strings.NewReplacer("**", "", "*", "", "__", "", "_", "")

// Fingerprint normalizes the first 1000 characters of text: markdown emphasis
// markup removed, whitespace runs collapsed to a single space, trimmed,
// lowercased. It is deterministic and idempotent, not a cryptographic hash.
func Fingerprint(text string) string {
	runes := []rune(text)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	s := markup.Replace(string(runes))
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
