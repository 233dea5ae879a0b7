package summarize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxPromptRunes keeps prompts well inside model context limits.
const maxPromptRunes = 6000

func buildPrompt(text string, b Bounds) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxPromptRunes {
		// cut on rune boundary then try to end at a sentence
		trimmed := string([]rune(text)[:maxPromptRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > maxPromptRunes/5 {
			trimmed = trimmed[:idx+1]
		}
		text = trimmed
	}

	return fmt.Sprintf(`Summarize the following news article in the same language it is written in.
Write plain prose, between %d and %d tokens long.
Do not add a title, labels, bullet points or any commentary.

ARTICLE:
%s`, b.MinTokens, b.MaxTokens, text)
}

var (
	reLabel    = regexp.MustCompile(`(?i)^\s*(summary|tl;dr)\s*:\s*`)
	reMarkdown = regexp.MustCompile(`[*_#` + "`" + `]+`)
	reBullet   = regexp.MustCompile(`(?m)^\s*[-•]\s+`)
)

// cleanModelOutput strips labels and markdown the model added despite the
// prompt and joins the result into one paragraph.
func cleanModelOutput(s string) string {
	s = reLabel.ReplaceAllString(strings.TrimSpace(s), "")
	s = reBullet.ReplaceAllString(s, "")
	s = reMarkdown.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
