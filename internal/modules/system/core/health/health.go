package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rulemate-india/core/internal/pkg/cron"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports how many answers are stored.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Jobs lists scheduled background work.
type Jobs interface {
	List() []cron.ListItem
}

type report struct {
	Status   string          `json:"status"`
	Database bool            `json:"database"`
	Answers  *int64          `json:"answers,omitempty"`
	Redis    *bool           `json:"redis,omitempty"`
	Uptime   string          `json:"uptime"`
	Jobs     []cron.ListItem `json:"jobs,omitempty"`
}

// RegisterRoutes mounts GET /healthz. Redis is reported only when rc is set.
// Only the database decides the status code.
func RegisterRoutes(r gin.IRoutes, db *gorm.DB, answers Counter, rc Pinger, jobs Jobs, started time.Time) {
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		rep := report{Status: "ok", Uptime: time.Since(started).Truncate(time.Second).String()}
		if sqlDB, err := db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			rep.Database = true
		}
		if rep.Database && answers != nil {
			if n, err := answers.Count(ctx); err == nil {
				rep.Answers = &n
			}
		}
		if rc != nil {
			ok := rc.Ping(ctx) == nil
			rep.Redis = &ok
			if !ok {
				rep.Status = "degraded"
			}
		}
		if jobs != nil {
			rep.Jobs = jobs.List()
		}

		code := http.StatusOK
		if !rep.Database {
			rep.Status = "down"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, rep)
	})
}
