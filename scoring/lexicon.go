package scoring

import "regexp"

// Lexicons are matched case-insensitively on word boundaries. They are part of
// the scoring contract: changing one changes every score, so edit with care.
var (
	ambiguousTerms  = regexp.MustCompile(`(?i)\b(it|this|that|things?|stuff|something|somehow|maybe|perhaps|etc)\b`)
	andSoOn         = regexp.MustCompile(`(?i)\band so on\b`)
	roleAssignment  = regexp.MustCompile(`(?i)^\s*(you are|act as|as an?\b|your role is|imagine you are)`)
	sequencingWords = regexp.MustCompile(`(?i)\b(steps?|first|then|next|finally)\b`)
	terminalPunct   = regexp.MustCompile(`[.!?:]$`)

	precisionWords = regexp.MustCompile(`(?i)\b(exactly|precisely|must|requires?|required|specifically)\b`)
	anyDigit       = regexp.MustCompile(`\d`)
	quotedText     = regexp.MustCompile("\"[^\"\\n]+\"|`[^`\\n]+`|“[^”\\n]+”")
	exampleMarkers = regexp.MustCompile(`(?i)(\bfor example\b|\be\.g\.|\bsuch as\b|\bfor instance\b)`)
	formatWords    = regexp.MustCompile(`(?i)\b(json|csv|tables?|lists?|bullets?|markdown|yaml|xml|format(ted)?)\b`)
	vagueTerms     = regexp.MustCompile(`(?i)\b(good|nice|great|better|best|some|various|many|several|improve|enhance|optimize)\b`)

	headers       = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+\S`)
	bulletItems   = regexp.MustCompile(`(?m)^[ \t]*[-*•+][ \t]+\S`)
	numberedItems = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+\S`)
	fencedCode    = regexp.MustCompile("(?m)^[ \\t]*```")
	paragraphGap  = regexp.MustCompile(`\n[ \t]*\n`)

	taskWords       = regexp.MustCompile(`(?i)\b(write|create|generate|analy[sz]e|explain|summari[sz]e|describe|list|implement|build|design|translate|classify|task|goal|objective)\b`)
	contextWords    = regexp.MustCompile(`(?i)\b(context|background|given|based on|audience|scenario|situation|assume|currently)\b`)
	constraintWords = regexp.MustCompile(`(?i)(\bmust\b|\bshould\b|\bonly\b|\bdo not\b|\bdon't\b|\bnever\b|\bavoid\b|\blimit\b|\bat most\b|\bat least\b|\bwithin\b|\bmaximum\b|\bminimum\b|\bno more than\b)`)
	exampleWords    = regexp.MustCompile(`(?i)(\bexamples?\b|\be\.g\.|\bfor instance\b|\bsuch as\b|\bsample\b)`)
)

func count(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}
