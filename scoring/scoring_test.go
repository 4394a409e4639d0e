package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptopt/tokens"
)

var samplePrompts = []string{
	"",
	"   \n\t ",
	"Do something with it and stuff, make it better somehow.",
	"Write a Python function that sorts a list of integers in ascending order.",
	"You are a senior reviewer. First read the diff, then list exactly 3 issues as JSON.",
	strings.Repeat("it this that stuff maybe perhaps etc and so on ", 40),
	strings.Repeat("good nice great better best some various many ", 40),
	"# Role\nYou are an editor.\n\n# Task\n1. Fix grammar\n2. Keep tone\n\n- must keep under 100 words\n\n```\nexample input\n```\n",
	"日本語のプロンプト。例えば、JSONで出力してください。",
}

func TestScoreDeterministic(t *testing.T) {
	for _, p := range samplePrompts {
		first := Score(p)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Score(p))
		}
	}
}

func TestScoreBounds(t *testing.T) {
	for _, p := range samplePrompts {
		s := Score(p)
		for name, v := range map[string]int{
			"clarity":      s.Clarity,
			"specificity":  s.Specificity,
			"structure":    s.Structure,
			"completeness": s.Completeness,
			"efficiency":   s.Efficiency,
			"overall":      s.Overall,
		} {
			assert.GreaterOrEqual(t, v, MinScore, "%s for %q", name, p)
			assert.LessOrEqual(t, v, MaxScore, "%s for %q", name, p)
		}
	}
}

func TestOverallWeightLaw(t *testing.T) {
	assert.InDelta(t, 1.0, WeightClarity+WeightSpecificity+WeightStructure+WeightCompleteness+WeightEfficiency, 1e-9)

	for _, p := range samplePrompts {
		s := Score(p)
		want := int(math.Round(0.25*float64(s.Clarity) +
			0.25*float64(s.Specificity) +
			0.15*float64(s.Structure) +
			0.20*float64(s.Completeness) +
			0.15*float64(s.Efficiency)))
		assert.Equal(t, want, s.Overall, "prompt %q", p)
	}
}

func TestOverallOfIgnoresStoredOverall(t *testing.T) {
	s := ScoreSet{Clarity: 80, Specificity: 60, Structure: 40, Completeness: 30, Efficiency: 100, Overall: 3}
	// 20 + 15 + 6 + 6 + 15
	assert.Equal(t, 62, OverallOf(s))
}

func TestClarityPenaltyMonotonic(t *testing.T) {
	for _, p := range samplePrompts {
		before := Clarity(p)
		injected := "it " + p
		assert.LessOrEqual(t, Clarity(injected), before, "prompt %q", p)

		twice := "it " + injected
		assert.LessOrEqual(t, Clarity(twice), Clarity(injected), "prompt %q", p)
	}
}

func TestClarityScenario(t *testing.T) {
	vague := "Do something with it and stuff, make it better somehow."
	precise := "Write a Python function that sorts a list of integers in ascending order."

	assert.Less(t, Clarity(vague), Clarity(precise))
	// five ambiguous terms, terminal punctuation
	assert.Equal(t, 80, Clarity(vague))
	assert.Equal(t, 100, Clarity(precise))
}

func TestClarityBonuses(t *testing.T) {
	plain := Clarity("Summarize the report")
	assert.Equal(t, 100, plain)

	assert.Equal(t, 90, Clarity("Summarize it for me"+" maybe"))
	assert.Equal(t, 85, Clarity("Do stuff with this thing"))
	assert.Equal(t, 0, Clarity(strings.Repeat("stuff ", 30)))
}

func TestSpecificity(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   int
	}{
		{"baseline", "Summarize the report", 50},
		{"precision word", "You must summarize the report", 60},
		{"digit", "Summarize the report in 3 sentences", 55},
		{"quoted", "Summarize the section titled \"Revenue\"", 60},
		{"format", "Summarize the report as JSON", 60},
		{"example marker", "Summarize key items, for example dates", 60},
		{"vague", "Make a good and nice summary", 44},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Specificity(tt.prompt))
		})
	}
}

func TestStructure(t *testing.T) {
	assert.Equal(t, 40, Structure("one line"))
	assert.Equal(t, 55, Structure("# Title\nbody"))
	assert.Equal(t, 75, Structure("# Title\nbody\n## Details\nmore\n\nlast paragraph"))
	assert.Equal(t, 50, Structure("items:\n- a\n- b"))
	assert.Equal(t, 50, Structure("steps:\n1. a\n2. b"))
	assert.Equal(t, 50, Structure("code:\n```go\nfmt.Println()\n```"))
	assert.Equal(t, 100, Structure(samplePrompts[7]))
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 30, Completeness("hello there"))
	assert.Equal(t, 45, Completeness("Write a poem"))
	assert.Equal(t, 100, Completeness(
		"Given the background below, write a summary as a bullet list. Do not exceed five items. For example: - revenue up"))
}

func TestEfficiencyCurve(t *testing.T) {
	tests := []struct {
		tokens int
		want   int
	}{
		{0, 20}, {5, 20}, {9, 20},
		{10, 40}, {29, 40},
		{30, 60}, {49, 60},
		{50, 100}, {150, 100}, {200, 100},
		{201, 80}, {500, 80},
		{501, 60}, {1000, 60},
		{1001, 40}, {5000, 40},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EfficiencyForTokens(tt.tokens), "tokens=%d", tt.tokens)
	}
}

func TestEfficiencyScenario(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("word ", n))
	}

	small := "one two three four"
	require.Equal(t, 5, tokens.Estimate(small))
	assert.Equal(t, 20, Efficiency(small))

	medium := words(117)
	require.Equal(t, 150, tokens.Estimate(medium))
	assert.Equal(t, 100, Efficiency(medium))

	large := words(3921)
	require.Equal(t, 5000, tokens.Estimate(large))
	assert.Equal(t, 40, Efficiency(large))
}

func TestEmptyPrompt(t *testing.T) {
	s := Score("")
	assert.Equal(t, 100, s.Clarity)
	assert.Equal(t, 50, s.Specificity)
	assert.Equal(t, 40, s.Structure)
	assert.Equal(t, 30, s.Completeness)
	assert.Equal(t, 20, s.Efficiency)
}
