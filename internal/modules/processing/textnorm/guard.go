package textnorm

import (
	"strings"
	"unicode/utf8"
)

// Blocklist matching policies for slugs.
const (
	// BlocklistToken matches a blocked token only as a whole hyphen-separated
	// slug token, so "environment" is not caught by "env".
	BlocklistToken = "token"
	// BlocklistSubstring matches a blocked token anywhere in the slug.
	BlocklistSubstring = "substring"
)

// Verdict is the outcome of screening a cleaned question.
type Verdict int

const (
	Accepted Verdict = iota
	// TooShort covers questions under the word or character minimum.
	TooShort
	// Invalid covers empty slugs and blocklisted input.
	Invalid
)

// SlugCheck is the outcome of validating a slug taken from a page URL.
type SlugCheck int

const (
	SlugValid SlugCheck = iota
	SlugRedirect
	SlugInvalid
)

// minPageSlugLength is the shortest slug a page URL accepts.
const minPageSlugLength = 5

var defaultBlockedTokens = []string{
	"env", "dotenv", "config", "passwd", "htaccess", "wp", "phpmyadmin", "cgi",
	"apikey", "xmlrpc", "php", "asp", "aspx", "jsp", "git", "svn", "sql",
}

var defaultBlockedFragments = []string{
	".env", "../", `..\`, "/etc/", "passwd", "wp-admin", "wp-login", "phpmyadmin",
	"<script", "api_key", "apikey", "secret_key", "private key",
	"ignore previous instructions", "system prompt",
}

// GuardOptions configures a Guard. Zero values fall back to defaults.
type GuardOptions struct {
	MinWords       int
	MinChars       int
	SlugMaxLength  int
	BlocklistMode  string
	ExtraTokens    []string
	ExtraFragments []string
}

// Guard applies the structural and blocklist checks that run before any
// lookup or external call.
type Guard struct {
	minWords  int
	minChars  int
	maxSlug   int
	substring bool
	tokens    []string
	tokenSet  map[string]struct{}
	fragments []string
}

func NewGuard(opts GuardOptions) *Guard {
	g := &Guard{
		minWords:  opts.MinWords,
		minChars:  opts.MinChars,
		maxSlug:   opts.SlugMaxLength,
		substring: opts.BlocklistMode == BlocklistSubstring,
		tokenSet:  make(map[string]struct{}),
	}
	if g.minWords <= 0 {
		g.minWords = 3
	}
	if g.minChars <= 0 {
		g.minChars = 15
	}
	if g.maxSlug <= 0 {
		g.maxSlug = DefaultSlugMaxLength
	}
	for _, tok := range append(append([]string{}, defaultBlockedTokens...), opts.ExtraTokens...) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, ok := g.tokenSet[tok]; ok {
			continue
		}
		g.tokenSet[tok] = struct{}{}
		g.tokens = append(g.tokens, tok)
	}
	for _, frag := range append(append([]string{}, defaultBlockedFragments...), opts.ExtraFragments...) {
		frag = strings.ToLower(strings.TrimSpace(frag))
		if frag != "" {
			g.fragments = append(g.fragments, frag)
		}
	}
	return g
}

// SlugMaxLength returns the configured slug bound.
func (g *Guard) SlugMaxLength() int { return g.maxSlug }

// CheckQuestion screens a cleaned question and its slug.
func (g *Guard) CheckQuestion(cleaned, slug string) Verdict {
	if WordCount(cleaned) < g.minWords {
		return TooShort
	}
	if utf8.RuneCountInString(cleaned) < g.minChars {
		return TooShort
	}
	if slug == "" {
		return Invalid
	}
	if g.hasBlockedFragment(cleaned) {
		return Invalid
	}
	// The slug must be servable as a page, or the answer could never be linked.
	if check, _ := g.CheckPageSlug(slug); check != SlugValid {
		return Invalid
	}
	return Accepted
}

// IsBlockedSlug reports whether slug carries a blocklisted token under the
// configured policy.
func (g *Guard) IsBlockedSlug(slug string) bool {
	slug = strings.ToLower(slug)
	if g.substring {
		for _, tok := range g.tokens {
			if strings.Contains(slug, tok) {
				return true
			}
		}
		return false
	}
	for _, part := range strings.Split(slug, "-") {
		if _, ok := g.tokenSet[part]; ok {
			return true
		}
	}
	return false
}

// CheckPageSlug validates a slug taken from a request path. Non-canonical
// but otherwise valid slugs yield SlugRedirect with the canonical form.
func (g *Guard) CheckPageSlug(slug string) (SlugCheck, string) {
	if slug == "" || strings.Contains(slug, ".") {
		return SlugInvalid, ""
	}
	canonical := CanonicalSlug(slug)
	if len(canonical) < minPageSlugLength || len(canonical) > g.maxSlug {
		return SlugInvalid, ""
	}
	if g.IsBlockedSlug(canonical) {
		return SlugInvalid, ""
	}
	if canonical != slug {
		return SlugRedirect, canonical
	}
	return SlugValid, slug
}

func (g *Guard) hasBlockedFragment(text string) bool {
	lower := strings.ToLower(text)
	for _, frag := range g.fragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
