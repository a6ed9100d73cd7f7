package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
)

// Source lists what the sitemap advertises.
type Source interface {
	ListSitemapEntries(ctx context.Context) ([]models.SitemapEntry, error)
	Categories(ctx context.Context) ([]string, error)
}

// SlugFilter reports slugs that must not be advertised.
type SlugFilter func(slug string) bool

type Handler struct {
	src     Source
	blocked SlugFilter
	siteURL string
	logger  *zap.Logger
}

func NewHandler(src Source, blocked SlugFilter, siteURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		src:     src,
		blocked: blocked,
		siteURL: strings.TrimRight(siteURL, "/"),
		logger:  logger.Named("Sitemap"),
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/sitemap.xml", h.sitemap)
	r.GET("/robots.txt", h.robots)
}

func (h *Handler) sitemap(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.src.ListSitemapEntries(ctx)
	if err != nil {
		h.logger.Warn("list sitemap entries failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "error generating sitemap")
		return
	}
	categories, err := h.src.Categories(ctx)
	if err != nil {
		h.logger.Warn("list categories failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "error generating sitemap")
		return
	}
	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, Build(h.siteURL, entries, categories, h.blocked))
}

func (h *Handler) robots(c *gin.Context) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, Robots(h.siteURL))
}

type sitemapURL struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

// Build renders the sitemap: the site root, one URL per distinct known
// category, then one per stored slug that passes blocked.
func Build(siteURL string, entries []models.SitemapEntry, categories []string, blocked SlugFilter) string {
	base := strings.TrimRight(siteURL, "/")
	urls := []sitemapURL{{Loc: base + "/", ChangeFreq: "daily", Priority: 1.0}}

	for _, raw := range categories {
		cat, ok := classify.ParseCategory(raw)
		if !ok || string(cat) != raw {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:        fmt.Sprintf("%s/category/%s", base, cat),
			ChangeFreq: "weekly",
			Priority:   0.6,
		})
	}

	for _, e := range entries {
		if e.Slug == "" || (blocked != nil && blocked(e.Slug)) {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:        fmt.Sprintf("%s/%s", base, e.Slug),
			LastMod:    e.CreatedAt,
			ChangeFreq: "monthly",
			Priority:   0.8,
		})
	}
	return renderXML(urls)
}

func renderXML(urls []sitemapURL) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	for _, u := range urls {
		b.WriteString("  <url>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", escapeXML(u.Loc))
		if !u.LastMod.IsZero() {
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", u.LastMod.UTC().Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "    <changefreq>%s</changefreq>\n", u.ChangeFreq)
		fmt.Fprintf(&b, "    <priority>%.1f</priority>\n", u.Priority)
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

// Robots renders robots.txt pointing crawlers at the sitemap.
func Robots(siteURL string) string {
	base := strings.TrimRight(siteURL, "/")
	return "User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /ask\n" +
		"Disallow: /api/\n" +
		"\n" +
		"Sitemap: " + base + "/sitemap.xml\n"
}

func escapeXML(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
