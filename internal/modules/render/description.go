package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// MetaDescriptionLength bounds the description meta tag.
const MetaDescriptionLength = 155

// MetaDescription extracts the visible text of rendered HTML, collapses
// whitespace and cuts it on a word boundary.
func MetaDescription(rendered string, limit int) string {
	if limit <= 0 {
		limit = MetaDescriptionLength
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(rendered))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return truncateWords(strings.Join(strings.Fields(b.String()), " "), limit)
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			}
			// Tag boundaries separate words.
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func truncateWords(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	rs := []rune(s)
	cut := string(rs[:limit-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}
