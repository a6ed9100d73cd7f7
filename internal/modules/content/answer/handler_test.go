package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/render"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t)
	renderer, err := render.New(render.Site{Name: "RuleMate India", URL: "https://rulemate.example"})
	require.NoError(t, err)

	r := gin.New()
	NewHandler(f.svc, f.store, f.store, f.guard, renderer).RegisterRoutes(r)
	return r, f
}

func askJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func askForm(r http.Handler, question string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	form := url.Values{"question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAsk_JSON(t *testing.T) {
	r, _ := newTestRouter(t)

	w := askJSON(r, `{"question": "What is the fine for not wearing a helmet in India?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeResult(t, w)
	assert.Equal(t, helmetSlug, out["slug"])
	assert.Equal(t, helmetAnswer, out["answer"])
	assert.Len(t, out["related"], 4)
	assert.Equal(t, "traffic", out["category"])
	assert.NotContains(t, out, "Outcome")
}

func TestAsk_JSONRejection(t *testing.T) {
	r, _ := newTestRouter(t)

	w := askJSON(r, `{"question": "hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeResult(t, w)
	assert.Equal(t, MessageDetailed, out["answer"])
	assert.Equal(t, "", out["slug"])
	assert.Equal(t, []any{}, out["related"])
}

func TestAsk_MalformedBody(t *testing.T) {
	r, f := newTestRouter(t)

	for _, body := range []string{"", "not json", `{"question": 42}`} {
		w := askJSON(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
	assert.Zero(t, f.completer.total())
}

func TestAsk_Unavailable(t *testing.T) {
	r, f := newTestRouter(t)
	f.completer.fail("answer")

	w := askJSON(r, `{"question": "What is the fine for not wearing a helmet in India?"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	out := decodeResult(t, w)
	assert.Equal(t, MessageUnavailable, out["answer"])
	assert.Equal(t, "", out["slug"])
	assert.NotContains(t, w.Body.String(), "upstream failure")
}

func TestAsk_StoreFailureHidesCause(t *testing.T) {
	r, f := newTestRouter(t)
	sqlDB, err := f.store.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := askJSON(r, `{"question": "What is the fine for not wearing a helmet in India?"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database is closed")
}

func TestAsk_FormRedirects(t *testing.T) {
	r, _ := newTestRouter(t)

	w := askForm(r, helmetQuestion)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/"+helmetSlug, w.Header().Get("Location"))

	w = askForm(r, "hi")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?error="+ReasonDetailed, w.Header().Get("Location"))
}

func TestAsk_FormUnavailableRedirects(t *testing.T) {
	r, f := newTestRouter(t)
	f.completer.fail("related")

	w := askForm(r, helmetQuestion)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?error="+ReasonUnavailable, w.Header().Get("Location"))
}

func TestHome_ShowsErrorAndRecent(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `href="/`+helmetSlug+`"`)
	assert.Contains(t, body, `href="/category/traffic"`)
	assert.Contains(t, body, `<link rel="canonical" href="https://rulemate.example/">`)
	assert.NotContains(t, body, "noindex")

	w = get(r, "/?error="+ReasonOutOfDomain)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "only answers questions about Indian government rules")
	assert.Contains(t, w.Body.String(), `<meta name="robots" content="noindex">`)

	w = get(r, "/?error=<script>")
	assert.NotContains(t, w.Body.String(), `role="alert"`)
}

func TestSlugPage(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())
	seed(t, f.store, "follow-up", "Follow up?", "general", time.Now())

	w := get(r, "/"+helmetSlug)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<h1>"+helmetQuestion+"</h1>")
	assert.Contains(t, body, `<link rel="canonical" href="https://rulemate.example/`+helmetSlug+`">`)
	assert.Contains(t, body, `<script type="application/ld+json">`)
	assert.Contains(t, body, `"@type":"FAQPage"`)
	assert.Contains(t, body, `href="/category/traffic"`)
	assert.Contains(t, body, `<a href="/follow-up">Follow up?</a>`)
	assert.Contains(t, body, "Disclaimer:")
}

func TestSlugPage_RelatedWithoutRecordIsAskForm(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())

	w := get(r, "/"+helmetSlug)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<input type="hidden" name="question" value="Follow up?">`)
}

func TestSlugPage_NotFoundAndRedirect(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())

	tests := []struct {
		name     string
		target   string
		status   int
		location string
	}{
		{"unknown slug", "/what-fine-for-parking-on-footpath", http.StatusNotFound, ""},
		{"too short", "/abc", http.StatusNotFound, ""},
		{"dotted", "/.env", http.StatusNotFound, ""},
		{"blocked token", "/wp-admin-setup-guide", http.StatusNotFound, ""},
		{"nested path", "/a/b/c", http.StatusNotFound, ""},
		{"uppercase", "/What-Fine-For-Not-Wearing-Helmet-In-India", http.StatusMovedPermanently, "/" + helmetSlug},
		{"underscores", "/what_fine_for_not_wearing_helmet_in_india", http.StatusMovedPermanently, "/" + helmetSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.target)
			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
			if tt.status == http.StatusNotFound {
				assert.Contains(t, w.Body.String(), `<meta name="robots" content="noindex">`)
			}
		})
	}
}

func TestSlugPage_EscapesStoredContent(t *testing.T) {
	r, f := newTestRouter(t)
	_, _, err := f.store.InsertIfAbsent(context.Background(), &models.AnswerModel{
		Slug:     "what-rule-for-script-tags",
		Question: `What is the rule for </script><script>alert(1)</script> tags?`,
		Answer:   "SHORT ANSWER:\n<img src=x onerror=alert(1)> No rule.",
		Related:  models.StringArray{`"><script>alert(2)</script>`},
		Category: "general",
	})
	require.NoError(t, err)

	w := get(r, "/what-rule-for-script-tags")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.NotContains(t, body, "<script>alert(2)</script>")
	assert.NotContains(t, body, "<img src=x")
	assert.Equal(t, 1, strings.Count(body, "</script>"), "only the ld+json script may close")
}

func TestCategoryPage(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())

	w := get(r, "/category/traffic")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Traffic Rules</h1>")
	assert.Contains(t, w.Body.String(), `href="/`+helmetSlug+`"`)

	w = get(r, "/category/passport")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No questions in this topic yet.")

	for _, bad := range []string{"/category/Traffic", "/category/cooking", "/category/income_tax"} {
		assert.Equal(t, http.StatusNotFound, get(r, bad).Code, bad)
	}
}

func TestGetAnswerAPI(t *testing.T) {
	r, f := newTestRouter(t)
	seed(t, f.store, helmetSlug, helmetQuestion, "traffic", time.Now())

	w := get(r, "/api/answers/"+helmetSlug)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeResult(t, w)
	assert.Equal(t, helmetSlug, out["slug"])
	assert.Equal(t, helmetQuestion, out["question"])

	assert.Equal(t, http.StatusNotFound, get(r, "/api/answers/no-such-answer").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/answers/.env").Code)
}

func TestNoRoute_NonGetIsJSONNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/"+helmetSlug, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}
