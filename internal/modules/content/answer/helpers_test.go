package answer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rulemate-india/core/internal/config"
	"github.com/rulemate-india/core/internal/database"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
	"github.com/rulemate-india/core/internal/modules/processing/textnorm"
	"github.com/rulemate-india/core/internal/pkg/llm"
)

const helmetQuestion = "What is the fine for not wearing a helmet in India?"

const helmetSlug = "what-fine-for-not-wearing-helmet-in-india"

const helmetAnswer = `SHORT ANSWER:
Riding without a helmet attracts a fine of Rs 1,000.

DETAILS:
- Section 194D of the Motor Vehicles Act applies.

SOURCE:
- Motor Vehicles Act, 1988`

// fakeCompleter answers by prompt kind and counts calls per kind.
type fakeCompleter struct {
	mu       sync.Mutex
	calls    map[string]int
	replies  map[string]string
	failures map[string]error
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{
		calls: make(map[string]int),
		replies: map[string]string{
			"answer":   helmetAnswer,
			"related":  "Certainly, here are four questions:\n1. Is a helmet mandatory for pillion riders?\n2. How to pay a traffic challan online?\n3. What is the fine for riding without a licence?\n4. Can police seize a bike for no helmet?",
			"category": "Traffic",
			"domain":   "YES",
		},
		failures: make(map[string]error),
	}
}

func requestKind(req llm.Request) string {
	switch {
	case req.System == answerSystemPrompt:
		return "answer"
	case strings.Contains(req.System, "related"):
		return "related"
	case strings.Contains(req.System, "Allowed labels"):
		return "category"
	default:
		return "domain"
	}
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	kind := requestKind(req)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	if err := f.failures[kind]; err != nil {
		return "", err
	}
	return f.replies[kind], nil
}

func (f *fakeCompleter) count(kinds ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range kinds {
		n += f.calls[k]
	}
	return n
}

func (f *fakeCompleter) total() int {
	return f.count("answer", "related", "category", "domain")
}

func (f *fakeCompleter) set(kind, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[kind] = reply
}

func (f *fakeCompleter) fail(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[kind] = errors.New(kind + " upstream failure")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "answers.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	store     *Store
	guard     *textnorm.Guard
	completer *fakeCompleter
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore(newTestDB(t))
	guard := textnorm.NewGuard(textnorm.GuardOptions{})
	fake := newFakeCompleter()
	svc := NewService(
		store,
		guard,
		classify.NewQuestionClassifier(fake),
		classify.NewCategoryClassifier(fake),
		fake,
	)
	return &fixture{store: store, guard: guard, completer: fake, svc: svc}
}
