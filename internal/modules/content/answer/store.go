package answer

import (
	"context"
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rulemate-india/core/internal/models"
)

// Store is the persistent answer table. Rows are inserted once and never
// updated.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

// FindBySlug returns nil, nil when no record has slug.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*models.AnswerModel, error) {
	return s.first(ctx, "slug = ?", slug)
}

// FindByQuestion matches the cleaned question text exactly.
func (s *Store) FindByQuestion(ctx context.Context, question string) (*models.AnswerModel, error) {
	return s.first(ctx, "question = ?", question)
}

func (s *Store) first(ctx context.Context, query string, arg string) (*models.AnswerModel, error) {
	var rec models.AnswerModel
	err := s.db.WithContext(ctx).Where(query, arg).Limit(1).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	return &rec, nil
}

// InsertIfAbsent stores rec unless its slug already exists. The returned
// record is whichever one is stored under the slug afterwards; created
// reports whether it is rec.
func (s *Store) InsertIfAbsent(ctx context.Context, rec *models.AnswerModel) (*models.AnswerModel, bool, error) {
	if rec.Related == nil {
		rec.Related = models.StringArray{}
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil && !isDuplicateKey(res.Error) {
		return nil, false, fmt.Errorf("insert answer: %w", res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 {
		return rec, true, nil
	}

	existing, err := s.FindBySlug(ctx, rec.Slug)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("insert answer %q: conflict but no stored row", rec.Slug)
	}
	return existing, false, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// ListByCategory returns the newest records of one category.
func (s *Store) ListByCategory(ctx context.Context, category string, limit int) ([]models.AnswerModel, error) {
	var recs []models.AnswerModel
	q := s.db.WithContext(ctx).Where("category = ?", category).Order("created_at DESC, slug ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list answers by category: %w", err)
	}
	return recs, nil
}

// Recent returns the newest records.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.AnswerModel, error) {
	var recs []models.AnswerModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, slug ASC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list recent answers: %w", err)
	}
	return recs, nil
}

// ListSitemapEntries returns every slug in stable order.
func (s *Store) ListSitemapEntries(ctx context.Context) ([]models.SitemapEntry, error) {
	var entries []models.SitemapEntry
	err := s.db.WithContext(ctx).Model(&models.AnswerModel{}).
		Select("slug, category, created_at").
		Order("slug ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list sitemap entries: %w", err)
	}
	return entries, nil
}

// Categories returns the distinct categories present, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := s.db.WithContext(ctx).Model(&models.AnswerModel{}).
		Distinct().
		Order("category ASC").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.AnswerModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

// All returns every record for export.
func (s *Store) All(ctx context.Context) ([]models.AnswerModel, error) {
	var recs []models.AnswerModel
	if err := s.db.WithContext(ctx).Order("created_at ASC, slug ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return recs, nil
}
