package text

import (
	"regexp"
	"strings"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+`)
	emphasisPattern     = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)`)
	blockquotePattern   = regexp.MustCompile(`(?m)^\s*>+\s?`)
	whitespacePattern   = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern   = regexp.MustCompile(`\n{3,}`)
)

// spokenForms maps abbreviations common in story subreddits to how a narrator
// would say them. Matched on word boundaries, case-insensitively.
var spokenForms = []struct {
	pattern *regexp.Regexp
	spoken  string
}{
	{regexp.MustCompile(`(?i)\bAITA\b`), "Am I the asshole"},
	{regexp.MustCompile(`(?i)\bWIBTA\b`), "Would I be the asshole"},
	{regexp.MustCompile(`(?i)\bNTA\b`), "Not the asshole"},
	{regexp.MustCompile(`(?i)\bYTA\b`), "You're the asshole"},
	{regexp.MustCompile(`(?i)\bESH\b`), "Everyone sucks here"},
	{regexp.MustCompile(`(?i)\bNAH\b`), "No assholes here"},
	{regexp.MustCompile(`(?i)\bTIFU\b`), "Today I fucked up"},
	{regexp.MustCompile(`(?i)\bTL;?DR\b`), "Summary"},
	{regexp.MustCompile(`\bOP\b`), "the original poster"},
	{regexp.MustCompile(`(?i)\bIMO\b`), "in my opinion"},
	{regexp.MustCompile(`(?i)\bIMHO\b`), "in my honest opinion"},
	{regexp.MustCompile(`(?i)\bSMH\b`), "shaking my head"},
}

// CleanForNarration rewrites display text into something a TTS voice can read
// aloud: markdown syntax is stripped, URLs are dropped, and common Reddit
// abbreviations are expanded to their spoken forms.
func CleanForNarration(s string) string {
	s = markdownLinkPattern.ReplaceAllString(s, "$1")
	s = bareURLPattern.ReplaceAllString(s, "")
	s = blockquotePattern.ReplaceAllString(s, "")
	s = emphasisPattern.ReplaceAllString(s, "")

	for _, form := range spokenForms {
		s = form.pattern.ReplaceAllString(s, form.spoken)
	}

	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
