package answer

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/middleware"
	"github.com/rulemate-india/core/internal/modules/processing/textnorm"
	"github.com/rulemate-india/core/internal/modules/render"
	"github.com/rulemate-india/core/internal/pkg/response"
)

type Handler struct {
	svc      *Service
	store    *Store
	repo     Repository
	guard    *textnorm.Guard
	renderer *render.Renderer
	logger   *zap.Logger
}

type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the answer handler.
func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l.Named("AnswerHandler")
		}
	}
}

// NewHandler serves the ask API and the answer pages. repo is used for
// point lookups and may be a cached view of store.
func NewHandler(svc *Service, store *Store, repo Repository, guard *textnorm.Guard, renderer *render.Renderer, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:      svc,
		store:    store,
		repo:     repo,
		guard:    guard,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the handler. askMW runs in front of POST /ask only.
// Slug pages are served from the engine's NoRoute handler so they never
// collide with fixed paths.
func (h *Handler) RegisterRoutes(r *gin.Engine, askMW ...gin.HandlerFunc) {
	r.POST("/ask", append(askMW, h.ask)...)
	r.GET("/api/answers/:slug", h.getAnswer)
	r.GET("/", h.home)
	r.GET("/category/:category", h.categoryPage)
	r.NoRoute(h.slugPage)
}

type askDTO struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	form := isFormPost(c)

	var question string
	if form {
		question = c.PostForm("question")
	} else {
		var dto askDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, `Request body must be JSON like {"question": "..."}.`)
			return
		}
		question = dto.Question
	}

	res, err := h.svc.Resolve(c.Request.Context(), question)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			if form {
				redirectHomeWithError(c, ReasonUnavailable)
				return
			}
			response.JSON(c, http.StatusServiceUnavailable, &Result{Answer: MessageUnavailable, Related: []string{}})
			return
		}
		h.logger.Error("resolve question failed", zap.String("request_id", middleware.RequestID(c)), zap.Error(err))
		response.InternalError(c, err)
		return
	}

	if form {
		if res.Outcome == OutcomeRejected {
			redirectHomeWithError(c, res.Reason)
			return
		}
		c.Redirect(http.StatusSeeOther, "/"+res.Slug)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getAnswer(c *gin.Context) {
	slug := c.Param("slug")
	if check, _ := h.guard.CheckPageSlug(slug); check != textnorm.SlugValid {
		response.NotFound(c)
		return
	}
	rec, err := h.repo.FindBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.Error("load answer failed", zap.String("slug", slug), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	if rec == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, rec)
}

func isFormPost(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == gin.MIMEPOSTForm || ct == gin.MIMEMultipartPOSTForm
}

func redirectHomeWithError(c *gin.Context, reason string) {
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(reason))
}

func firstPathSegment(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "/") {
		return "", false
	}
	return p, true
}
