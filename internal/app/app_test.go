package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/database"
	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/content/answer"
	pkgcron "github.com/rulemate-india/core/internal/pkg/cron"
)

func TestMatchOriginPattern(t *testing.T) {
	cases := []struct {
		pattern, origin string
		want            bool
	}{
		{"rulemate.in", "https://rulemate.in", true},
		{"*.rulemate.in", "https://www.rulemate.in", true},
		{"*.rulemate.in", "https://rulemate.in.evil.com", false},
		{"localhost:*", "http://localhost:5173", true},
		{"rulemate.in", "https://example.com", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchOriginPattern(tc.pattern, extractOriginHost(tc.origin)), "%s vs %s", tc.pattern, tc.origin)
	}
}

func TestCorsConfig(t *testing.T) {
	cfg := &config.AppConfig{Env: "production", AllowedOrigins: []string{"*.rulemate.in"}}
	c := corsConfig(cfg)
	assert.True(t, c.AllowOriginFunc("https://www.rulemate.in"))
	assert.False(t, c.AllowOriginFunc("https://example.com"))

	cfg.Env = "development"
	assert.True(t, corsConfig(cfg).AllowOriginFunc("https://example.com"))
}

func TestRegisterCronJobs(t *testing.T) {
	dir := t.TempDir()
	db, err := database.Open(config.DriverSQLite, filepath.Join(dir, "app.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.AppConfig{Backup: config.BackupConfig{Dir: dir}}
	sched := pkgcron.New(nil)
	require.NoError(t, registerCronJobs(sched, cfg, db, zap.NewNop()))
	assert.Empty(t, sched.List())

	cfg.Backup.Interval = 24 * time.Hour
	require.NoError(t, registerCronJobs(sched, cfg, db, zap.NewNop()))
	items := sched.List()
	require.Len(t, items, 1)
	assert.Equal(t, "backup", items[0].Name)

	cfg.Backup.S3 = config.S3Options{Bucket: "b", Region: "ap-south-1"}
	assert.Error(t, registerCronJobs(pkgcron.New(nil), cfg, db, zap.NewNop()), "S3 without credentials")
}

func TestNew_PageViewsFillRecordCache(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(fmt.Sprintf(`env: test
database:
  driver: sqlite
  path: %s
redis:
  url: redis://%s
ai:
  api_key: test-key
  model: gpt-4o-mini
backup:
  dir: %s
`, filepath.Join(dir, "app.db"), mr.Addr(), filepath.Join(dir, "backups"))))
	require.NoError(t, err)
	require.Zero(t, cfg.Redis.CacheTTL)

	a, err := New(zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Shutdown()
		a.Close()
	})

	slug := "what-fine-for-not-wearing-helmet"
	_, ok, err := answer.NewStore(a.db).InsertIfAbsent(context.Background(), &models.AnswerModel{
		Slug:      slug,
		Question:  "What is the fine for not wearing a helmet?",
		Answer:    "SHORT ANSWER:\nRs 1000.",
		Category:  "traffic",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+slug, nil))
		require.Equal(t, http.StatusOK, w.Code, "view %d", i+1)
	}

	key := "rulemate:answer:slug:" + slug
	assert.True(t, mr.Exists(key))
	assert.Zero(t, mr.TTL(key), "a zero cache_ttl keeps entries without expiry")
}
