package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcfg "github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/models"
)

type memStore struct {
	mu   sync.Mutex
	recs map[string]models.AnswerModel
	err  error
}

func newMemStore(recs ...models.AnswerModel) *memStore {
	s := &memStore{recs: make(map[string]models.AnswerModel)}
	for _, r := range recs {
		s.recs[r.Slug] = r
	}
	return s
}

func (s *memStore) All(context.Context) ([]models.AnswerModel, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AnswerModel, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) InsertIfAbsent(_ context.Context, rec *models.AnswerModel) (*models.AnswerModel, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.recs[rec.Slug]; ok {
		return &existing, false, nil
	}
	s.recs[rec.Slug] = *rec
	return rec, true, nil
}

type recordingUploader struct {
	key     string
	payload []byte
	err     error
}

func (u *recordingUploader) Upload(_ context.Context, key string, payload []byte, _ string) error {
	u.key = key
	u.payload = payload
	return u.err
}

var helmet = models.AnswerModel{
	Slug:      "what-fine-for-not-wearing-helmet-in-india",
	Question:  "What is the fine for not wearing a helmet in India?",
	Answer:    "SHORT ANSWER:\nRs 1,000.",
	Related:   models.StringArray{"Is a helmet mandatory for pillion riders?"},
	Category:  "traffic",
	CreatedAt: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
}

func fixedExporter(src Source, dir string, opts ...Option) *Exporter {
	e := NewExporter(src, dir, opts...)
	e.now = func() time.Time { return time.Date(2025, 2, 7, 10, 20, 30, 0, time.UTC) }
	return e
}

func TestExporter_WritesArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	res, err := fixedExporter(newMemStore(helmet), dir).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "backup-2025-02-07T10-20-30.zip"), res.Path)
	assert.Equal(t, 1, res.Records)
	assert.Empty(t, res.ObjectKey)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), res.Size)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, answersEntry, zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Contains(t, string(body), `"slug": "what-fine-for-not-wearing-helmet-in-india"`)
}

func TestExporter_Uploads(t *testing.T) {
	up := &recordingUploader{}
	res, err := fixedExporter(newMemStore(helmet), t.TempDir(), WithUploader(up, "/rulemate/")).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rulemate/2025/02/backup-2025-02-07T10-20-30.zip", res.ObjectKey)
	assert.Equal(t, res.ObjectKey, up.key)
	assert.EqualValues(t, len(up.payload), res.Size)
}

func TestExporter_UploadFailureKeepsLocalFile(t *testing.T) {
	up := &recordingUploader{err: errors.New("denied")}
	res, err := fixedExporter(newMemStore(helmet), t.TempDir(), WithUploader(up, "")).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, res)
	assert.FileExists(t, res.Path)
	assert.Empty(t, res.ObjectKey)
}

func TestExporter_SourceFailure(t *testing.T) {
	src := newMemStore()
	src.err = errors.New("db down")
	_, err := fixedExporter(src, t.TempDir()).Run(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestRestore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	other := helmet
	other.Slug = "how-renew-passport-online"
	other.Question = "How do I renew my passport online?"
	res, err := fixedExporter(newMemStore(helmet, other), dir).Run(context.Background())
	require.NoError(t, err)
	archive, err := os.ReadFile(res.Path)
	require.NoError(t, err)

	changed := helmet
	changed.Answer = "kept"
	target := newMemStore(changed)
	summary, err := Restore(context.Background(), target, archive)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "kept", target.recs[helmet.Slug].Answer, "existing records are never overwritten")
	assert.Equal(t, other.Question, target.recs[other.Slug].Question)
	assert.Equal(t, models.StringArray{"Is a helmet mandatory for pillion riders?"}, target.recs[other.Slug].Related)
}

func archiveOf(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("answers.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestRestore_NormalizesEditedRecords(t *testing.T) {
	archive := archiveOf(t, `[
  {"slug":"can-police-seize-bike-for-no-helmet","question":"Can police seize a bike for no helmet?","answer":"SHORT ANSWER:\nNo.","category":" Traffic ","related":["a?","b?","c?","d?","e?","f?"]},
  {"slug":"how-bake-bread-at-home","question":"How to bake bread at home?","answer":"SHORT ANSWER:\nKnead.","category":"cooking","related":[]},
  {"slug":"empty-answer-record-here","question":"Empty answer?","answer":"  ","category":"general"}
]`)

	target := newMemStore()
	summary, err := Restore(context.Background(), target, archive)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)

	seized := target.recs["can-police-seize-bike-for-no-helmet"]
	assert.Equal(t, "traffic", seized.Category)
	assert.Equal(t, models.StringArray{"a?", "b?", "c?", "d?"}, seized.Related)
	assert.Equal(t, "general", target.recs["how-bake-bread-at-home"].Category)
	assert.NotContains(t, target.recs, "empty-answer-record-here")
}

func TestRestore_RejectsForeignArchives(t *testing.T) {
	_, err := Restore(context.Background(), newMemStore(), []byte("not a zip"))
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("posts.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("[]"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Restore(context.Background(), newMemStore(), buf.Bytes())
	assert.ErrorContains(t, err, "no answers.json")
}

func TestNewS3Uploader_RequiresCredentials(t *testing.T) {
	_, err := NewS3Uploader(appcfg.S3Options{Bucket: "b", Region: "ap-south-1"})
	assert.Error(t, err)
}

func TestS3Uploader_PutObject(t *testing.T) {
	var (
		method, path, auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewS3Uploader(appcfg.S3Options{
		Bucket:          "rulemate-backups",
		Region:          "ap-south-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	require.NoError(t, up.Upload(context.Background(), "/2025/02/backup.zip", []byte("zipdata"), "application/zip"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/rulemate-backups/2025/02/backup.zip", path)
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/"), auth)
}
