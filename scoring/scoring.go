// Package scoring implements the deterministic prompt-quality scorer.
//
// Score never performs I/O and never uses randomness: identical input text
// always yields an identical ScoreSet. The technique and optimizer packages
// rely on that property for reproducible evaluation.
package scoring

import (
	"math"
	"strings"

	"github.com/teilomillet/promptopt/tokens"
)

// Dimension weights used to derive Overall. They sum to 1.0.
const (
	WeightClarity      = 0.25
	WeightSpecificity  = 0.25
	WeightStructure    = 0.15
	WeightCompleteness = 0.20
	WeightEfficiency   = 0.15
)

const (
	MinScore = 0
	MaxScore = 100
)

const (
	clarityBase        = 100
	clarityPenalty     = 5
	clarityBonus       = 5
	specificityBase    = 50
	precisionBonus     = 10
	digitBonus         = 5
	quotedBonus        = 10
	exampleMarkerBonus = 10
	formatBonus        = 10
	vaguePenalty       = 3
	structureBase      = 40
	headerBonus        = 15
	bulletBonus        = 10
	numberedBonus      = 10
	codeBlockBonus     = 10
	paragraphBonus     = 10
	multiHeaderBonus   = 10
	completenessBase   = 30
	taskBonus          = 15
	contextBonus       = 15
	outputFormatBonus  = 15
	constraintBonus    = 10
	exampleBonus       = 15
)

// ScoreSet holds the five dimension scores and their weighted overall, all in [0,100].
type ScoreSet struct {
	Clarity      int `json:"clarity"`
	Specificity  int `json:"specificity"`
	Structure    int `json:"structure"`
	Completeness int `json:"completeness"`
	Efficiency   int `json:"efficiency"`
	Overall      int `json:"overall"`
}

// Score rates prompt on every dimension. It accepts any text, including empty input.
func Score(prompt string) ScoreSet {
	s := ScoreSet{
		Clarity:      Clarity(prompt),
		Specificity:  Specificity(prompt),
		Structure:    Structure(prompt),
		Completeness: Completeness(prompt),
		Efficiency:   Efficiency(prompt),
	}
	s.Overall = OverallOf(s)
	return s
}

// OverallOf recomputes the weighted overall from the dimension scores of s,
// ignoring whatever s.Overall holds.
func OverallOf(s ScoreSet) int {
	weighted := float64(s.Clarity)*WeightClarity +
		float64(s.Specificity)*WeightSpecificity +
		float64(s.Structure)*WeightStructure +
		float64(s.Completeness)*WeightCompleteness +
		float64(s.Efficiency)*WeightEfficiency
	return clamp(int(math.Round(weighted)))
}

// Clarity penalizes ambiguous references and rewards explicit framing.
func Clarity(prompt string) int {
	score := clarityBase
	score -= clarityPenalty * (count(ambiguousTerms, prompt) + count(andSoOn, prompt))

	if roleAssignment.MatchString(prompt) {
		score += clarityBonus
	}
	if sequencingWords.MatchString(prompt) {
		score += clarityBonus
	}
	if terminalPunct.MatchString(strings.TrimSpace(prompt)) {
		score += clarityBonus
	}
	if hasListMarkers(prompt) {
		score += clarityBonus
	}
	return clamp(score)
}

// Specificity rewards precise, concrete requirements and penalizes vague wording.
func Specificity(prompt string) int {
	score := specificityBase
	if precisionWords.MatchString(prompt) {
		score += precisionBonus
	}
	if anyDigit.MatchString(prompt) {
		score += digitBonus
	}
	if quotedText.MatchString(prompt) {
		score += quotedBonus
	}
	if exampleMarkers.MatchString(prompt) {
		score += exampleMarkerBonus
	}
	if formatWords.MatchString(prompt) {
		score += formatBonus
	}
	score -= vaguePenalty * count(vagueTerms, prompt)
	return clamp(score)
}

// Structure rewards markdown organisation.
func Structure(prompt string) int {
	score := structureBase
	headerCount := count(headers, prompt)
	if headerCount > 0 {
		score += headerBonus
	}
	if headerCount >= 2 {
		score += multiHeaderBonus
	}
	if bulletItems.MatchString(prompt) {
		score += bulletBonus
	}
	if numberedItems.MatchString(prompt) {
		score += numberedBonus
	}
	if fencedCode.MatchString(prompt) {
		score += codeBlockBonus
	}
	if paragraphGap.MatchString(strings.TrimSpace(prompt)) {
		score += paragraphBonus
	}
	return clamp(score)
}

// Completeness adds a fixed value for each element category the prompt covers.
func Completeness(prompt string) int {
	score := completenessBase
	if taskWords.MatchString(prompt) {
		score += taskBonus
	}
	if contextWords.MatchString(prompt) {
		score += contextBonus
	}
	if formatWords.MatchString(prompt) {
		score += outputFormatBonus
	}
	if constraintWords.MatchString(prompt) {
		score += constraintBonus
	}
	if exampleWords.MatchString(prompt) {
		score += exampleBonus
	}
	return clamp(score)
}

// Efficiency scores the estimated token length of prompt; see EfficiencyForTokens.
func Efficiency(prompt string) int {
	return EfficiencyForTokens(tokens.Estimate(prompt))
}

// EfficiencyForTokens maps a token count onto the efficiency curve.
// 50 to 200 tokens is the optimum plateau.
func EfficiencyForTokens(n int) int {
	switch {
	case n < 10:
		return 20
	case n < 30:
		return 40
	case n < 50:
		return 60
	case n <= 200:
		return 100
	case n <= 500:
		return 80
	case n <= 1000:
		return 60
	default:
		return 40
	}
}

func hasListMarkers(prompt string) bool {
	return bulletItems.MatchString(prompt) || numberedItems.MatchString(prompt)
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
