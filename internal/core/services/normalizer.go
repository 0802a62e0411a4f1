package services

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for volatile values so that otherwise
// identical statements cluster together.
const (
	numPlaceholder  = "NUM"
	datePlaceholder = "DATE"
)

var (
	// Date patterns are matched before bare numbers so the larger
	// match wins; otherwise 2024-01-01 would degrade to NUM-NUM-NUM.
	isoDateRe   = regexp.MustCompile(`\b\d{4}[-/]\d{2}[-/]\d{2}\b`)
	shortDateRe = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	numberRe    = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	articleRe   = regexp.MustCompile(`\b(a|an|the)\b`)
	spaceRe     = regexp.MustCompile(`\s+`)

	// Modal paraphrases collapse to their canonical modal verb.
	modalRules = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\bmust\s+have\b`), "must"},
		{regexp.MustCompile(`\bshould\s+have\b`), "should"},
		{regexp.MustCompile(`\bneeds?\s+to\b`), "must"},
		{regexp.MustCompile(`\bhas\s+to\b`), "must"},
		{regexp.MustCompile(`\brequired\s+to\b`), "must"},
	}

	placeholderRe = regexp.MustCompile(`\b(NUM|DATE)\b`)
)

// Normalize canonicalizes text for use as a clustering key. It is pure
// and idempotent; the output is never shown to end users.
//
// Transformations, in order: lowercase (preserving placeholder tokens),
// date placeholders, number placeholders, article removal, modal
// collapsing, whitespace collapsing, edge punctuation trimming.
func Normalize(text string) string {
	text = lowerPreservingPlaceholders(text)

	text = isoDateRe.ReplaceAllString(text, datePlaceholder)
	text = shortDateRe.ReplaceAllString(text, datePlaceholder)
	text = numberRe.ReplaceAllString(text, numPlaceholder)

	text = articleRe.ReplaceAllString(text, "")

	for _, rule := range modalRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}

	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.Trim(text, ".,;:!? ")

	return text
}

// lowerPreservingPlaceholders lowercases text while keeping NUM and DATE
// tokens intact, so already-normalized text normalizes to itself.
func lowerPreservingPlaceholders(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(text, -1) {
		b.WriteString(strings.ToLower(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ToLower(text[last:]))

	return b.String()
}
