package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/middleware"
	"github.com/rulemate-india/core/internal/modules/content/answer"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
	"github.com/rulemate-india/core/internal/modules/processing/textnorm"
	"github.com/rulemate-india/core/internal/modules/render"
	"github.com/rulemate-india/core/internal/modules/syndication/sitemap"
	"github.com/rulemate-india/core/internal/modules/system/core/health"
	"github.com/rulemate-india/core/internal/pkg/llm"
)

const sitemapCacheTTL = 10 * time.Minute

// registerRoutes builds the question pipeline and mounts every handler.
func (a *App) registerRoutes() error {
	cfg := a.cfg

	client, err := llm.New(cfg.AI, a.logger)
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	a.logger.Info("ai provider ready",
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()))

	guard := newGuard(cfg.Rules)
	questions := classify.NewQuestionClassifier(client,
		classify.WithExtraKeywords(cfg.Rules.ExtraKeywords),
		classify.WithMinChars(cfg.Rules.ClassifierMinChars),
		classify.WithLogger(a.logger),
	)
	categories := classify.NewCategoryClassifier(client.SingleAttempt(), classify.WithLogger(a.logger))

	store := answer.NewStore(a.db)
	var repo answer.Repository = store
	if a.rc != nil {
		repo = answer.NewCachedRepository(store, a.rc, cfg.Redis.CacheTTL, a.logger)
	}

	renderer, err := render.New(render.Site{Name: cfg.Site.Name, URL: cfg.Site.URL})
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	svc := answer.NewService(repo, guard, questions, categories, client, answer.WithLogger(a.logger))
	answer.NewHandler(svc, store, repo, guard, renderer, answer.WithHandlerLogger(a.logger)).
		RegisterRoutes(a.router, middleware.RateLimit(a.rc, cfg.Redis.RateLimitPerMinute, a.logger))

	feeds := a.router.Group("/", middleware.HTTPCache(a.rc, middleware.HTTPCacheOptions{TTL: sitemapCacheTTL}))
	sitemap.NewHandler(store, guard.IsBlockedSlug, cfg.Site.URL, a.logger).RegisterRoutes(feeds)

	var pinger health.Pinger
	if a.rc != nil {
		pinger = a.rc
	}
	health.RegisterRoutes(a.router, a.db, store, pinger, a.sched, a.started)
	return nil
}

func newGuard(rules config.RulesConfig) *textnorm.Guard {
	return textnorm.NewGuard(textnorm.GuardOptions{
		MinWords:       rules.MinWords,
		MinChars:       rules.MinChars,
		SlugMaxLength:  rules.SlugMaxLength,
		BlocklistMode:  rules.BlocklistMode,
		ExtraTokens:    rules.ExtraBlockedTokens,
		ExtraFragments: rules.ExtraBlockedFragments,
	})
}
