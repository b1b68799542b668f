package prompt

import (
	"strings"
	"unicode/utf8"
)

// charsPerToken is the estimation ratio: roughly 4 characters per token
// for English text and source code.
const charsPerToken = 4

// truncationMarker is appended when a context file is cut short.
const truncationMarker = "\n...[content truncated]..."

// EstimateTokens estimates the token count of text. Counts runes rather
// than bytes so multibyte content is not overcounted.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + charsPerToken/2) / charsPerToken
}

// truncateToTokens cuts text from the end so the result, including the
// truncation marker, fits within maxTokens. A maxTokens of 0 disables
// truncation. Returns the text and whether truncation occurred.
func truncateToTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text, false
	}

	budget := maxTokens*charsPerToken - len(truncationMarker)
	if budget < 0 {
		budget = 0
	}

	// Cut at a rune boundary.
	runes := []rune(text)
	if budget > len(runes) {
		budget = len(runes)
	}
	cut := string(runes[:budget])

	// Prefer to break at a line boundary when one is reasonably close.
	if idx := strings.LastIndexByte(cut, '\n'); idx > budget/2 {
		cut = cut[:idx]
	}

	return cut + truncationMarker, true
}
