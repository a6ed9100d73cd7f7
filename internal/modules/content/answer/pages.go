package answer

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/middleware"
	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
	"github.com/rulemate-india/core/internal/modules/processing/textnorm"
	"github.com/rulemate-india/core/internal/modules/render"
	"github.com/rulemate-india/core/internal/pkg/response"
)

const (
	homeRecentLimit   = 20
	categoryListLimit = 200
)

func (h *Handler) home(c *gin.Context) {
	ctx := c.Request.Context()
	page := render.HomePage{
		Head: render.Head{
			Description: "Ask any question about Indian government rules, laws, fines and procedures and get a clear answer in simple language.",
			Canonical:   h.absoluteURL("/"),
		},
	}
	if msg, ok := RejectMessage(c.Query("error")); ok {
		page.Error = msg
		page.NoIndex = true
	}

	recent, err := h.store.Recent(ctx, homeRecentLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	for _, rec := range recent {
		page.Recent = append(page.Recent, render.Link{Href: "/" + rec.Slug, Text: rec.Question})
	}

	cats, err := h.store.Categories(ctx)
	if err != nil {
		h.serverError(c, err)
		return
	}
	page.Categories = categoryLinks(cats)

	h.writePage(c, http.StatusOK, func(w *strings.Builder) error { return h.renderer.Home(w, page) })
}

func (h *Handler) slugPage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.NotFound(c)
		return
	}
	slug, ok := firstPathSegment(c.Request.URL.Path)
	if !ok {
		h.notFound(c)
		return
	}

	check, canonical := h.guard.CheckPageSlug(slug)
	switch check {
	case textnorm.SlugInvalid:
		h.notFound(c)
		return
	case textnorm.SlugRedirect:
		c.Redirect(http.StatusMovedPermanently, "/"+canonical)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.repo.FindBySlug(ctx, slug)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if rec == nil {
		h.notFound(c)
		return
	}

	related := make([]render.RelatedQuestion, 0, len(rec.Related))
	for _, q := range rec.Related {
		item := render.RelatedQuestion{Text: q}
		if s := textnorm.Slugify(q, h.guard.SlugMaxLength()); s != "" && !h.guard.IsBlockedSlug(s) {
			stored, err := h.repo.FindBySlug(ctx, s)
			if err != nil {
				h.logger.Warn("related lookup failed", zap.String("slug", s), zap.Error(err))
			} else if stored != nil {
				item.Href = "/" + stored.Slug
			}
		}
		related = append(related, item)
	}

	page := h.answerPage(rec, related)
	h.writePage(c, http.StatusOK, func(w *strings.Builder) error { return h.renderer.Answer(w, page) })
}

func (h *Handler) answerPage(rec *models.AnswerModel, related []render.RelatedQuestion) render.AnswerPage {
	body := render.AnswerHTML(rec.Answer)
	description := render.MetaDescription(string(body), render.MetaDescriptionLength)
	category, _ := classify.ParseCategory(rec.Category)

	return render.AnswerPage{
		Head: render.Head{
			Title:       rec.Question,
			Description: description,
			Canonical:   h.absoluteURL("/" + rec.Slug),
		},
		Question: rec.Question,
		Body:     body,
		Related:  related,
		Category: render.Link{Href: "/category/" + string(category), Text: category.DisplayName()},
		Created:  rec.CreatedAt,
		StructuredData: faqPage{
			Context: "https://schema.org",
			Type:    "FAQPage",
			MainEntity: []faqQuestion{{
				Type: "Question",
				Name: rec.Question,
				AcceptedAnswer: faqAnswer{
					Type: "Answer",
					Text: render.MetaDescription(string(body), 1000),
				},
			}},
		},
	}
}

func (h *Handler) categoryPage(c *gin.Context) {
	raw := c.Param("category")
	category, ok := classify.ParseCategory(raw)
	if !ok || string(category) != raw {
		h.notFound(c)
		return
	}

	recs, err := h.store.ListByCategory(c.Request.Context(), string(category), categoryListLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	page := render.CategoryPage{
		Head: render.Head{
			Title:       category.DisplayName(),
			Description: "Questions and answers about " + category.DisplayName() + " in India.",
			Canonical:   h.absoluteURL("/category/" + string(category)),
		},
		Name: category.DisplayName(),
	}
	for _, rec := range recs {
		page.Items = append(page.Items, render.Link{Href: "/" + rec.Slug, Text: rec.Question})
	}
	h.writePage(c, http.StatusOK, func(w *strings.Builder) error { return h.renderer.Category(w, page) })
}

func (h *Handler) notFound(c *gin.Context) {
	h.writePage(c, http.StatusNotFound, func(w *strings.Builder) error {
		return h.renderer.NotFound(w, render.NotFoundPage{})
	})
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error("page failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.RequestID(c)),
		zap.Error(err))
	c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8",
		[]byte("Something went wrong on our side. Please try again later."))
}

func (h *Handler) writePage(c *gin.Context, status int, fn func(w *strings.Builder) error) {
	var b strings.Builder
	if err := fn(&b); err != nil {
		h.serverError(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", []byte(b.String()))
}

func (h *Handler) absoluteURL(p string) string {
	return strings.TrimRight(h.renderer.Site().URL, "/") + p
}

func categoryLinks(raw []string) []render.Link {
	links := make([]render.Link, 0, len(raw))
	for _, r := range raw {
		cat, ok := classify.ParseCategory(r)
		if !ok || string(cat) != r {
			continue
		}
		links = append(links, render.Link{Href: "/category/" + string(cat), Text: cat.DisplayName()})
	}
	return links
}

type faqPage struct {
	Context    string        `json:"@context"`
	Type       string        `json:"@type"`
	MainEntity []faqQuestion `json:"mainEntity"`
}

type faqQuestion struct {
	Type           string    `json:"@type"`
	Name           string    `json:"name"`
	AcceptedAnswer faqAnswer `json:"acceptedAnswer"`
}

type faqAnswer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}
