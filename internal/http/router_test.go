package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	"github.com/yungbote/newsboy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/domain/params"
	httpH "github.com/yungbote/newsboy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/newsboy-backend/internal/http/middleware"
	"github.com/yungbote/newsboy-backend/internal/ingestion/fetch"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/services"
	"github.com/yungbote/newsboy-backend/internal/summarize"
)

type countingSummarizer struct{ calls atomic.Int32 }

func (s *countingSummarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Result, error) {
	s.calls.Add(1)
	return summarize.ParseResult("## 摘要\nweekly digest\n## 关键要点\n- point"), nil
}

func (s *countingSummarizer) Provider() string { return "fake" }

type testServer struct {
	engine     *gin.Engine
	db         *gorm.DB
	w          *worker.Worker
	auth       services.AuthService
	summarizer *countingSummarizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	theDB := testutil.DB(t)
	log := testutil.Logger(t)
	w := worker.NewWorker(log)

	userRepo := repos.NewUserRepo(theDB, log)
	tokenRepo := repos.NewUserTokenRepo(theDB, log)
	sourceRepo := repos.NewSourceRepo(theDB, log)
	summaryRepo := repos.NewSummaryRepo(theDB, log)
	templateRepo := repos.NewTemplateRepo(theDB, log)

	authSvc := services.NewAuthService(theDB, log, userRepo, tokenRepo, services.AuthConfig{JWTSecretKey: "router-test"})
	fetcher := fetch.NewPlaceholderFetcher()
	summarizer := &countingSummarizer{}
	sourceSvc := services.NewSourceService(theDB, log, sourceRepo, fetcher, w, nil)
	summarySvc := services.NewSummaryService(theDB, log, summaryRepo, sourceRepo)
	templateSvc := services.NewTemplateService(theDB, log, templateRepo)
	genSvc := services.NewGenerationService(theDB, log, sourceRepo, templateRepo, summaryRepo, fetcher, summarizer, w, nil)

	engine := NewRouter(RouterConfig{
		Log:             log,
		Worker:          w,
		GenerateLimit:   httpMW.NewUserRateLimiter(100),
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, authSvc),
		AuthHandler:     httpH.NewAuthHandler(log, authSvc),
		SourceHandler:   httpH.NewSourceHandler(log, sourceSvc),
		SummaryHandler:  httpH.NewSummaryHandler(log, summarySvc, genSvc),
		TemplateHandler: httpH.NewTemplateHandler(log, templateSvc),
		HealthHandler:   httpH.NewHealthHandler(theDB),
	})
	return &testServer{engine: engine, db: theDB, w: w, auth: authSvc, summarizer: summarizer}
}

// login registers username and returns its id and a bearer token.
func (ts *testServer) login(t *testing.T, username string) (uuid.UUID, string) {
	t.Helper()
	ctx := context.Background()
	u, err := ts.auth.Register(ctx, services.RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "Digest#2024",
		PasswordConfirm: "Digest#2024",
	})
	require.NoError(t, err)
	pair, err := ts.auth.Login(ctx, username, "Digest#2024", false)
	require.NoError(t, err)
	return u.ID, pair.AccessToken
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/sources", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/v1/sources", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateWithNoValidSourcesIs404(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "reader")
	otherID, _ := ts.login(t, "stranger")
	theirs := testutil.SeedSource(t, ts.db, otherID, "theirs")

	rec := ts.do(t, http.MethodPost, "/api/v1/summaries/generate", token, gin.H{
		"source_ids": []uuid.UUID{theirs.ID, uuid.New()},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_valid_sources", errorCode(t, rec))

	ts.w.Wait()
	assert.Zero(t, ts.summarizer.calls.Load())
	var n int64
	require.NoError(t, ts.db.Model(&types.Summary{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGenerateWithForeignTemplateIs404(t *testing.T) {
	ts := newTestServer(t)
	userID, token := ts.login(t, "reader")
	otherID, _ := ts.login(t, "stranger")
	own := testutil.SeedSource(t, ts.db, userID, "own")
	foreign := testutil.SeedTemplate(t, ts.db, otherID, params.Params{})

	rec := ts.do(t, http.MethodPost, "/api/v1/summaries/generate", token, gin.H{
		"source_ids":  []uuid.UUID{own.ID},
		"template_id": foreign.ID,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "template_not_found", errorCode(t, rec))
	ts.w.Wait()
	assert.Zero(t, ts.summarizer.calls.Load())
}

func TestGenerateAcceptsAndPersistsInBackground(t *testing.T) {
	ts := newTestServer(t)
	userID, token := ts.login(t, "reader")
	a := testutil.SeedSource(t, ts.db, userID, "a")
	b := testutil.SeedSource(t, ts.db, userID, "b")

	rec := ts.do(t, http.MethodPost, "/api/v1/summaries/generate", token, gin.H{
		"source_ids": []uuid.UUID{a.ID, b.ID},
		"parameters": gin.H{"tags": []string{"weekly"}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"message":"summary generation task accepted"}`, rec.Body.String())

	ts.w.Wait()
	assert.EqualValues(t, 1, ts.summarizer.calls.Load())

	rec = ts.do(t, http.MethodGet, "/api/v1/summaries?tag=weekly", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []struct {
			Title     string      `json:"title"`
			Content   string      `json:"content"`
			KeyPoints []string    `json:"key_points"`
			SourceIDs []uuid.UUID `json:"source_ids"`
		} `json:"items"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "weekly digest", page.Items[0].Content)
	assert.Equal(t, []string{"point"}, page.Items[0].KeyPoints)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, page.Items[0].SourceIDs)
}

func TestSourceOwnershipStatuses(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.login(t, "reader")
	otherID, _ := ts.login(t, "stranger")
	theirs := testutil.SeedSource(t, ts.db, otherID, "theirs")
	path := fmt.Sprintf("/api/v1/sources/%s", theirs.ID)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/sources/"+uuid.NewString(), token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/sources/nope", token, nil).Code)

	rec := ts.do(t, http.MethodPost, "/api/v1/sources", token, gin.H{
		"name":        "Go blog",
		"type":        "blog",
		"url":         "https://go.dev/blog/feed.atom",
		"credentials": gin.H{"token": "secret"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}
