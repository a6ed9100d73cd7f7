package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/pkg/redis"
)

const (
	cacheSlugPrefix     = "rulemate:answer:slug:"
	cacheQuestionPrefix = "rulemate:answer:q:"
)

// Repository is the record access the pipeline and pages need.
type Repository interface {
	FindBySlug(ctx context.Context, slug string) (*models.AnswerModel, error)
	FindByQuestion(ctx context.Context, question string) (*models.AnswerModel, error)
	InsertIfAbsent(ctx context.Context, rec *models.AnswerModel) (*models.AnswerModel, bool, error)
}

// CachedRepository reads through Redis before the database. Records never
// change once stored, so entries are only ever added. Redis problems are
// logged and the database answers instead.
type CachedRepository struct {
	next   Repository
	rc     *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRepository(next Repository, rc *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{next: next, rc: rc, ttl: ttl, logger: logger.Named("AnswerCache")}
}

func (r *CachedRepository) FindBySlug(ctx context.Context, slug string) (*models.AnswerModel, error) {
	key := cacheSlugPrefix + slug
	if rec := r.get(ctx, key); rec != nil {
		return rec, nil
	}
	rec, err := r.next.FindBySlug(ctx, slug)
	if err != nil || rec == nil {
		return rec, err
	}
	r.put(ctx, rec)
	return rec, nil
}

func (r *CachedRepository) FindByQuestion(ctx context.Context, question string) (*models.AnswerModel, error) {
	if slug := r.getString(ctx, questionKey(question)); slug != "" {
		if rec := r.get(ctx, cacheSlugPrefix+slug); rec != nil {
			return rec, nil
		}
	}
	rec, err := r.next.FindByQuestion(ctx, question)
	if err != nil || rec == nil {
		return rec, err
	}
	r.put(ctx, rec)
	return rec, nil
}

func (r *CachedRepository) InsertIfAbsent(ctx context.Context, rec *models.AnswerModel) (*models.AnswerModel, bool, error) {
	stored, created, err := r.next.InsertIfAbsent(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	r.put(ctx, stored)
	return stored, created, nil
}

func (r *CachedRepository) get(ctx context.Context, key string) *models.AnswerModel {
	raw := r.getString(ctx, key)
	if raw == "" {
		return nil
	}
	var rec models.AnswerModel
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.logger.Warn("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &rec
}

func (r *CachedRepository) getString(ctx context.Context, key string) string {
	val, err := r.rc.Get(ctx, key)
	if err != nil {
		r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return val
}

func (r *CachedRepository) put(ctx context.Context, rec *models.AnswerModel) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.rc.Set(ctx, cacheSlugPrefix+rec.Slug, payload, r.ttl); err != nil {
		r.logger.Warn("redis set failed", zap.String("slug", rec.Slug), zap.Error(err))
		return
	}
	if err := r.rc.Set(ctx, questionKey(rec.Question), rec.Slug, r.ttl); err != nil {
		r.logger.Warn("redis set failed", zap.String("slug", rec.Slug), zap.Error(err))
	}
}

func questionKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return cacheQuestionPrefix + hex.EncodeToString(sum[:])
}
