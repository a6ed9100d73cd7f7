package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/database"
	"github.com/rulemate-india/core/internal/middleware"
	pkgcron "github.com/rulemate-india/core/internal/pkg/cron"
	pkgredis "github.com/rulemate-india/core/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rc      *pkgredis.Client
	logger  *zap.Logger
	cancel  context.CancelFunc
	sched   *pkgcron.Scheduler
	started time.Time
}

// New initializes the application: database → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		rc:      connectRedis(cfg, logger),
		logger:  logger,
		cancel:  cancel,
		sched:   pkgcron.New(logger),
		started: time.Now(),
	}

	if err := app.registerRoutes(); err != nil {
		cancel()
		app.Close()
		return nil, err
	}
	if err := registerCronJobs(app.sched, cfg, db, logger); err != nil {
		cancel()
		app.Close()
		return nil, err
	}
	app.sched.Start(ctx)

	return app, nil
}

// connectRedis returns nil when Redis is disabled or unreachable. The
// service keeps answering without the read cache and rate limit.
func connectRedis(cfg *config.AppConfig, logger *zap.Logger) *pkgredis.Client {
	if !cfg.Redis.Enable || cfg.RedisURL == "" {
		return nil
	}
	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache and rate limit", zap.Error(err))
		return nil
	}
	return rc
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs.
func (a *App) Shutdown() { a.cancel() }

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}
