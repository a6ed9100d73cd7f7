// Package textnorm turns raw question text into a cleaned question and a
// URL-safe slug, and screens both against structural and blocklist rules.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultSlugMaxLength bounds slugs when no explicit limit is configured.
	DefaultSlugMaxLength = 80
	// MaxQuestionRunes bounds the cleaned question so it fits the indexed
	// lookup column.
	MaxQuestionRunes = 500
)

// leadingMarkerRe matches one leading list marker: bullets, "1.", "2)",
// "(3)", "a)", "Q1:". Numeric and letter markers need trailing whitespace so
// "1.5 lakh" survives.
var leadingMarkerRe = regexp.MustCompile(`(?i)^(?:[-*•·>]+\s*|(?:\(?\d{1,3}[.):]|\(?[a-z]\)|q\d{0,3}[.:)])\s+)`)

var fillerWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "am": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "will": {}, "shall": {},
	"may": {}, "might": {}, "must": {},
}

// Clean strips leading ordinal/bullet prefixes and collapses whitespace.
func Clean(raw string) string {
	text := CollapseSpaces(raw)
	for text != "" {
		stripped := strings.TrimSpace(leadingMarkerRe.ReplaceAllString(text, ""))
		if stripped == text {
			break
		}
		text = stripped
	}
	return strings.TrimSpace(truncateRunes(text, MaxQuestionRunes))
}

// CollapseSpaces trims s and replaces every whitespace run with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Slugify derives the record key from question text. The result only holds
// [a-z0-9-], never starts or ends with a hyphen and is at most maxLen bytes,
// cut on a word boundary when possible.
func Slugify(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLength
	}

	var b strings.Builder
	for _, r := range foldToASCII(strings.ToLower(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '/' || unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, filler := fillerWords[w]; filler {
			continue
		}
		kept = append(kept, w)
	}
	return truncateSlug(strings.Join(kept, "-"), maxLen)
}

// CanonicalSlug lowercases s and collapses every run of characters outside
// [a-z0-9] into one hyphen. Filler words are kept.
func CanonicalSlug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

func truncateSlug(slug string, maxLen int) string {
	slug = strings.Trim(slug, "-")
	if len(slug) <= maxLen {
		return slug
	}
	cut := slug[:maxLen]
	if slug[maxLen] != '-' {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.Trim(cut, "-")
}

func foldToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
