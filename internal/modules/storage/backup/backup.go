// Package backup exports stored answers into zip archives and restores them.
package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
)

// answersEntry is the archive member holding every record.
const answersEntry = "answers.json"

const defaultObjectKeyTemplate = "{Y}/{m}/{filename}"

// Source lists every stored record.
type Source interface {
	All(ctx context.Context) ([]models.AnswerModel, error)
}

// Sink accepts restored records. Existing slugs are left untouched.
type Sink interface {
	InsertIfAbsent(ctx context.Context, rec *models.AnswerModel) (*models.AnswerModel, bool, error)
}

// Uploader stores an archive off-host.
type Uploader interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) error
}

// Result describes one written archive.
type Result struct {
	Path      string
	ObjectKey string
	Records   int
	Size      int64
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithUploader also sends every archive to u under prefix.
func WithUploader(u Uploader, prefix string) Option {
	return func(e *Exporter) {
		e.uploader = u
		e.prefix = strings.Trim(prefix, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l.Named("Backup")
		}
	}
}

// Exporter writes archives into a local directory.
type Exporter struct {
	src      Source
	dir      string
	uploader Uploader
	prefix   string
	logger   *zap.Logger
	now      func() time.Time
}

func NewExporter(src Source, dir string, opts ...Option) *Exporter {
	e := &Exporter{src: src, dir: dir, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run writes one archive and uploads it when an uploader is configured. The
// local file is kept even if the upload fails.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	recs, err := e.src.All(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := buildArchive(recs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	now := e.now()
	filename := fmt.Sprintf("backup-%s.zip", now.Format("2006-01-02T15-04-05"))
	path := filepath.Join(e.dir, filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	res := &Result{Path: path, Records: len(recs), Size: int64(len(payload))}
	e.logger.Info("backup written", zap.String("path", path), zap.Int("records", len(recs)))

	if e.uploader == nil {
		return res, nil
	}
	key := objectKey(e.prefix, filename, now)
	if err := e.uploader.Upload(ctx, key, payload, "application/zip"); err != nil {
		return res, fmt.Errorf("upload backup: %w", err)
	}
	res.ObjectKey = key
	e.logger.Info("backup uploaded", zap.String("key", key))
	return res, nil
}

func buildArchive(recs []models.AnswerModel) ([]byte, error) {
	if recs == nil {
		recs = []models.AnswerModel{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(answersEntry)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func objectKey(prefix, filename string, now time.Time) string {
	key := strings.NewReplacer(
		"{Y}", now.Format("2006"),
		"{m}", now.Format("01"),
		"{filename}", filename,
	).Replace(defaultObjectKeyTemplate)
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// RestoreSummary counts what a restore did.
type RestoreSummary struct {
	Inserted int
	Skipped  int
}

// Restore reads an archive written by Exporter and inserts every record
// whose slug is not stored yet.
func Restore(ctx context.Context, sink Sink, archive []byte) (*RestoreSummary, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip file: %w", err)
	}

	var recs []models.AnswerModel
	found := false
	for _, f := range zr.File {
		if f.Name != answersEntry {
			continue
		}
		found = true
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", answersEntry, err)
		}
	}
	if !found {
		return nil, fmt.Errorf("archive has no %s", answersEntry)
	}

	summary := &RestoreSummary{}
	for i := range recs {
		rec := recs[i]
		if strings.TrimSpace(rec.Slug) == "" || strings.TrimSpace(rec.Answer) == "" {
			summary.Skipped++
			continue
		}
		normalizeRecord(&rec)
		_, created, err := sink.InsertIfAbsent(ctx, &rec)
		if err != nil {
			return summary, fmt.Errorf("restore %q: %w", rec.Slug, err)
		}
		if created {
			summary.Inserted++
		} else {
			summary.Skipped++
		}
	}
	return summary, nil
}

// normalizeRecord applies the invariants the pipeline guarantees for new
// records: a known category and at most classify.MaxRelated related questions.
func normalizeRecord(rec *models.AnswerModel) {
	category, _ := classify.ParseCategory(rec.Category)
	rec.Category = string(category)
	if len(rec.Related) > classify.MaxRelated {
		rec.Related = rec.Related[:classify.MaxRelated]
	}
}
