package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in answers is escaped: goldmark drops it unless WithUnsafe is set.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// sectionHeadingRe matches the fixed answer section labels, e.g. "DETAILS:".
var sectionHeadingRe = regexp.MustCompile(`(?m)^\s*\**(SHORT ANSWER|DETAILS|PUNISHMENT\s*/\s*IMPLICATIONS(?:\s*\(if applicable\))?|SOURCE|NOTE)\**:\**\s*$`)

// AnswerHTML renders a stored answer body.
func AnswerHTML(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = sectionHeadingRe.ReplaceAllString(text, "\n### $1\n")

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
	}
	return template.HTML(out.String())
}
