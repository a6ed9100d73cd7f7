package textnorm

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "What is the fine for speeding?", "What is the fine for speeding?"},
		{"collapses whitespace", "  What   is\tthe \n fine? ", "What is the fine?"},
		{"numbered", "1. What is RTI?", "What is RTI?"},
		{"paren numbered", "(2) How to renew a passport", "How to renew a passport"},
		{"letter marker", "b) Is helmet mandatory", "Is helmet mandatory"},
		{"bullet", "- How to file an FIR", "How to file an FIR"},
		{"stacked markers", "• 3) Q1: What is GST", "What is GST"},
		{"decimal survives", "1.5 lakh income tax slab", "1.5 lakh income tax slab"},
		{"whitespace only", "   ", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_BoundsLength(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := Clean(long)
	assert.LessOrEqual(t, len([]rune(got)), MaxQuestionRunes)
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"helmet example", "What is the fine for not wearing a helmet in India?", "what-fine-for-not-wearing-helmet-in-india"},
		{"punctuation dropped", "Don't I need a PAN card?!", "dont-i-need-pan-card"},
		{"separators become hyphens", "e-challan / traffic_rules", "e-challan-traffic-rules"},
		{"accents folded", "Café licence rules", "cafe-licence-rules"},
		{"only filler", "is the a", ""},
		{"empty", "", ""},
		{"non latin dropped", "पासपोर्ट passport rules", "passport-rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in, DefaultSlugMaxLength))
		})
	}
}

func TestSlugify_TruncatesOnWordBoundary(t *testing.T) {
	in := "how to apply for income tax refund after filing itr late in financial year twenty twenty four"
	got := Slugify(in, 40)

	assert.LessOrEqual(t, len(got), 40)
	assert.Equal(t, "how-to-apply-for-income-tax-refund-after", got)
}

func TestSlugify_HardCutsSingleLongWord(t *testing.T) {
	got := Slugify(strings.Repeat("x", 120), 80)
	assert.Equal(t, strings.Repeat("x", 80), got)
}

var slugCharset = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestSlugify_Properties(t *testing.T) {
	inputs := []string{
		"What is the fine for not wearing a helmet in India?",
		"---leading and trailing---",
		"  ¿Qué es?  RTI   act -- section 6(1) ",
		"<script>alert('x')</script> passport",
		strings.Repeat("long-word ", 40),
		"ÀÉÎÕÜ Ñ ç",
		"tabs\tand\nnewlines",
		"🙂 emoji 🙂 only 🙂",
		"",
	}
	for _, in := range inputs {
		for _, max := range []int{10, 25, 80} {
			got := Slugify(in, max)
			assert.Regexp(t, slugCharset, got, "input %q", in)
			assert.LessOrEqual(t, len(got), max, "input %q", in)
			assert.False(t, strings.HasPrefix(got, "-"), "input %q", in)
			assert.False(t, strings.HasSuffix(got, "-"), "input %q", in)
			assert.NotContains(t, got, "--", "input %q", in)
		}
	}
}

func TestSlugify_IdempotentOnFillerFreeInput(t *testing.T) {
	inputs := []string{
		"How to renew passport online in Delhi",
		"Section 144 CrPC meaning",
		"GST registration limit for small traders 2024",
	}
	for _, in := range inputs {
		once := Slugify(in, DefaultSlugMaxLength)
		assert.Equal(t, once, Slugify(once, DefaultSlugMaxLength))
	}
}

func TestCanonicalSlug(t *testing.T) {
	assert.Equal(t, "traffic-rules", CanonicalSlug("Traffic--Rules"))
	assert.Equal(t, "traffic-rules", CanonicalSlug("-traffic-rules-"))
	assert.Equal(t, "what-s-up", CanonicalSlug("what's up"))
	assert.Equal(t, "", CanonicalSlug("---"))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 1, WordCount("hi"))
	assert.Equal(t, 4, WordCount(" how  to file fir "))
}
