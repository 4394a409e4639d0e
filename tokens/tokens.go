// Package tokens estimates token counts for prompt text.
//
// Estimate is the shared heuristic used wherever a token count feeds a decision
// (efficiency scoring, truncation, history previews). Counter wraps a tiktoken
// encoding for providers that want model-accurate counts and falls back to
// Estimate when no encoding is available.
package tokens

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	wordWeight    = 1.3
	charsPerToken = 4.0
	estimateBlend = 2.0

	// DefaultCharsPerToken is the character-to-token ratio used for truncation.
	DefaultCharsPerToken = charsPerToken
)

// Estimate returns ceil((words*1.3 + chars/4) / 2), where words are
// whitespace-delimited segments and chars is the rune count.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	words := float64(len(strings.Fields(text)))
	chars := float64(utf8.RuneCountInString(text))
	return int(math.Ceil((words*wordWeight + chars/charsPerToken) / estimateBlend))
}
