package optimizer

import (
	"fmt"
	"strings"

	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/tokens"
)

// maxPromptExamples bounds the examples rendered into a rewrite request.
const (
	maxPromptExamples    = 2
	examplePreviewTokens = 150
)

const feedbackSystemPrompt = "You are an expert prompt engineer who reviews prompts written for large language models."

const rewriteSystemPrompt = "You are an optimizer that rewrites prompts for large language models so they score higher. " +
	"Reply with the rewritten prompt only, without commentary, quotes or code fences."

const judgeSystemPrompt = "You are a strict evaluator of prompt quality. Follow the requested answer format exactly."

func feedbackPrompt(prompt string, score float64, octx *technique.OptimizationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review the following prompt. Its current quality score is %d%%.\n\n", percent(score))
	fmt.Fprintf(&b, "Prompt:\n\"\"\"\n%s\n\"\"\"\n", prompt)
	writeContext(&b, octx)
	b.WriteString("\nList the most important weaknesses of this prompt and how to fix each one. ")
	b.WriteString("Consider clarity, specificity, alignment with the task, and efficiency. ")
	b.WriteString("Be concise and actionable. Reply with the feedback only.")
	return b.String()
}

func rewritePrompt(current, feedback string, history []Attempt, octx *technique.OptimizationContext) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Previous prompts and their scores, best first:\n\n")
		for i, a := range history {
			preview := technique.TruncateToTokenBudget(a.Prompt, historyPreviewTokens, tokens.DefaultCharsPerToken)
			fmt.Fprintf(&b, "%d. (score: %d%%)\n%s\n\n", i+1, percent(a.Score), preview)
		}
	}
	fmt.Fprintf(&b, "Current best prompt:\n\"\"\"\n%s\n\"\"\"\n\n", current)
	fmt.Fprintf(&b, "Feedback on the current best prompt:\n%s\n", feedback)
	writeContext(&b, octx)
	writeExamples(&b, octx)
	b.WriteString("\nWrite a new prompt that addresses the feedback and scores higher than every prompt above. ")
	b.WriteString("Keep what made the high-scoring prompts work. Reply with the new prompt text only.")
	return b.String()
}

func judgePrompt(prompt string) string {
	var b strings.Builder
	b.WriteString("Rate the prompt below on each dimension from 0 to 100.\n\n")
	fmt.Fprintf(&b, "Prompt:\n\"\"\"\n%s\n\"\"\"\n\n", prompt)
	b.WriteString("Reply in exactly this format:\n")
	b.WriteString("CLARITY: <0-100>\n")
	b.WriteString("SPECIFICITY: <0-100>\n")
	b.WriteString("TASK_ALIGNMENT: <0-100>\n")
	b.WriteString("EFFICIENCY: <0-100>\n")
	b.WriteString("OVERALL: <0-100>\n")
	return b.String()
}

func writeContext(b *strings.Builder, octx *technique.OptimizationContext) {
	if constraints := octx.SortedConstraints(); len(constraints) > 0 {
		b.WriteString("\nConstraints the prompt must respect:\n")
		for _, c := range constraints {
			label := "preferred"
			if c.Strict {
				label = "required"
			}
			fmt.Fprintf(b, "- [%s] %s", label, c.Description)
			if c.Value != "" {
				fmt.Fprintf(b, " (%s)", c.Value)
			}
			b.WriteString("\n")
		}
	}
	if octx != nil && len(octx.DomainHints) > 0 {
		fmt.Fprintf(b, "\nDomain: %s\n", strings.Join(octx.DomainHints, ", "))
	}
}

func writeExamples(b *strings.Builder, octx *technique.OptimizationContext) {
	if !octx.HasExamples() {
		return
	}
	b.WriteString("\nExamples of good rewrites:\n")
	for i, ex := range octx.Examples {
		if i == maxPromptExamples {
			break
		}
		fmt.Fprintf(b, "Before: %s\nAfter: %s\n",
			technique.TruncateToTokenBudget(ex.Before, examplePreviewTokens, tokens.DefaultCharsPerToken),
			technique.TruncateToTokenBudget(ex.After, examplePreviewTokens, tokens.DefaultCharsPerToken))
	}
}

func percent(score float64) int {
	return int(score*100 + 0.5)
}
