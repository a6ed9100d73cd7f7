// Package render produces the public HTML pages from embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const disclaimer = "This website provides general information on Indian government rules and laws for educational purposes only. " +
	"It is not legal advice. Laws and rules may change. Always verify with official government notifications or consult a qualified professional."

// Site carries the values every page needs.
type Site struct {
	Name string
	URL  string
}

// Link is an anchor to another page.
type Link struct {
	Href string
	Text string
}

// Head holds the <head> metadata of a page.
type Head struct {
	Title       string
	Description string
	Canonical   string
	NoIndex     bool
}

type HomePage struct {
	Head
	Error      string
	Recent     []Link
	Categories []Link
}

type AnswerPage struct {
	Head
	Question string
	Body     template.HTML
	Related  []RelatedQuestion
	Category Link
	Created  time.Time
	// StructuredData is marshaled into the ld+json script by html/template.
	StructuredData any
}

// RelatedQuestion links to a stored answer when one exists; otherwise the
// page offers to ask it.
type RelatedQuestion struct {
	Text string
	Href string
}

type CategoryPage struct {
	Head
	Name  string
	Items []Link
}

type NotFoundPage struct {
	Head
}

type pageData struct {
	Site       Site
	Disclaimer string
	Year       int
	Page       any
	Head       Head
}

// Renderer executes the page templates.
type Renderer struct {
	site  Site
	pages map[string]*template.Template
	now   func() time.Time
}

var pageNames = []string{"home", "answer", "category", "notfound"}

func New(site Site) (*Renderer, error) {
	base, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{site: site, pages: make(map[string]*template.Template), now: time.Now}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Site returns the site settings the renderer was built with.
func (r *Renderer) Site() Site { return r.site }

func (r *Renderer) Home(w io.Writer, p HomePage) error { return r.execute(w, "home", p.Head, p) }

func (r *Renderer) Answer(w io.Writer, p AnswerPage) error {
	return r.execute(w, "answer", p.Head, p)
}

func (r *Renderer) Category(w io.Writer, p CategoryPage) error {
	return r.execute(w, "category", p.Head, p)
}

func (r *Renderer) NotFound(w io.Writer, p NotFoundPage) error {
	p.NoIndex = true
	if p.Title == "" {
		p.Title = "Page not found"
	}
	return r.execute(w, "notfound", p.Head, p)
}

// execute renders into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) execute(w io.Writer, name string, head Head, page any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout.html", pageData{
		Site:       r.site,
		Disclaimer: disclaimer,
		Year:       r.now().Year(),
		Page:       page,
		Head:       head,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
