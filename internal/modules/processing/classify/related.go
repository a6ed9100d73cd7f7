package classify

import (
	"regexp"
	"strings"
)

// MaxRelated caps the related questions kept per answer.
const MaxRelated = 4

var relatedMarkerRe = regexp.MustCompile(`^(?:[-*•·>]+\s*|\(?\d{1,2}[.):]\s*|[a-dA-D][.)]\s+)`)

// Lines starting with these mean the model wrote prose instead of a question.
var junkPrefixes = []string{
	"certainly", "sure,", "sure!", "sure ", "here are", "here is", "here's", "of course", "below are",
	"and ", "or ", "but ", "so ",
}

// ParseRelated extracts up to MaxRelated questions from a completion,
// keeping their original order.
func ParseRelated(text string) []string {
	out := make([]string, 0, MaxRelated)
	for _, line := range strings.Split(text, "\n") {
		q := cleanRelatedLine(line)
		if q == "" || isJunkLine(q) {
			continue
		}
		out = append(out, q)
		if len(out) == MaxRelated {
			break
		}
	}
	return out
}

func cleanRelatedLine(line string) string {
	s := strings.TrimSpace(line)
	for s != "" {
		stripped := strings.TrimSpace(relatedMarkerRe.ReplaceAllString(s, ""))
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.Trim(s, " \t\"'`“”")
	return strings.Join(strings.Fields(s), " ")
}

func isJunkLine(q string) bool {
	if strings.HasSuffix(q, ":") {
		return true
	}
	lower := strings.ToLower(q)
	for _, prefix := range junkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
