package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	"github.com/yungbote/newsboy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/domain/params"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/pkg/pagination"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/realtime"
	"github.com/yungbote/newsboy-backend/internal/realtime/bus"
	"github.com/yungbote/newsboy-backend/internal/summarize"
)

type recordingFetcher struct {
	mu   sync.Mutex
	seen []uuid.UUID
}

func (f *recordingFetcher) Fetch(ctx context.Context, srcs []*types.Source) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range srcs {
		f.seen = append(f.seen, s.ID)
	}
	return "fetched text", nil
}

type recordingSummarizer struct {
	mu  sync.Mutex
	req summarize.Request
	err error
}

func (s *recordingSummarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = req
	if s.err != nil {
		return summarize.Result{}, s.err
	}
	return summarize.Result{Summary: "digest", KeyPoints: []string{"one", "two"}}, nil
}

func (s *recordingSummarizer) Provider() string { return "fake" }

type fixture struct {
	db         *gorm.DB
	w          *worker.Worker
	fetcher    *recordingFetcher
	summarizer *recordingSummarizer
	gen        GenerationService
	sources    SourceService
	summaries  SummaryService
	templates  TemplateService

	// events receives every bus event after SourceActivity has handled it.
	events chan realtime.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	theDB := testutil.DB(t)
	log := testutil.Logger(t)
	w := worker.NewWorker(log)
	f := &fixture{
		db:         theDB,
		w:          w,
		fetcher:    &recordingFetcher{},
		summarizer: &recordingSummarizer{},
		events:     make(chan realtime.Event, 64),
	}
	sourceRepo := repos.NewSourceRepo(theDB, log)
	summaryRepo := repos.NewSummaryRepo(theDB, log)
	templateRepo := repos.NewTemplateRepo(theDB, log)

	b := bus.NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = b.Close()
	})
	activity := NewSourceActivity(log, sourceRepo)
	require.NoError(t, b.StartForwarder(ctx, func(ev realtime.Event) {
		activity.Handle(ev)
		select {
		case f.events <- ev:
		default:
		}
	}))

	f.gen = NewGenerationService(theDB, log, sourceRepo, templateRepo, summaryRepo, f.fetcher, f.summarizer, w, b)
	f.sources = NewSourceService(theDB, log, sourceRepo, f.fetcher, w, b)
	f.summaries = NewSummaryService(theDB, log, summaryRepo, sourceRepo)
	f.templates = NewTemplateService(theDB, log, templateRepo)
	return f
}

func asUser(id uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})
}

// waitEvent returns the next forwarded event of type typ, skipping others.
func (f *fixture) waitEvent(t *testing.T, typ realtime.EventType) realtime.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event forwarded", typ)
			return realtime.Event{}
		}
	}
}

func requireAPIErr(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	assert.Equal(t, status, ae.Status)
	assert.Equal(t, code, ae.Code)
}

func TestValidateSourcesKeepsOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")
	a := testutil.SeedSource(t, f.db, alice.ID, "a")
	b := testutil.SeedSource(t, f.db, alice.ID, "b")
	foreign := testutil.SeedSource(t, f.db, bob.ID, "foreign")

	got, err := f.gen.ValidateSources(context.Background(), alice.ID, []uuid.UUID{b.ID, foreign.ID, a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID, b.ID}, got)

	_, err = f.gen.ValidateSources(context.Background(), alice.ID, []uuid.UUID{foreign.ID})
	assert.ErrorIs(t, err, ErrNoValidSources)
	_, err = f.gen.ValidateSources(context.Background(), alice.ID, nil)
	assert.ErrorIs(t, err, ErrNoValidSources)
}

func TestResolveParametersFallsBackSilently(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")
	own := testutil.SeedTemplate(t, f.db, alice.ID, params.Params{
		"max_length": params.Int(500),
		"format":     params.String("markdown"),
	})
	foreign := testutil.SeedTemplate(t, f.db, bob.ID, params.Params{"max_length": params.Int(10)})
	overrides := params.Params{"format": params.String("text")}
	ctx := context.Background()

	assert.Equal(t, overrides, f.gen.ResolveParameters(ctx, alice.ID, nil, overrides))
	assert.Equal(t, overrides, f.gen.ResolveParameters(ctx, alice.ID, &foreign.ID, overrides))
	missing := uuid.New()
	assert.Equal(t, overrides, f.gen.ResolveParameters(ctx, alice.ID, &missing, overrides))

	merged := f.gen.ResolveParameters(ctx, alice.ID, &own.ID, overrides)
	assert.Equal(t, 500, merged.Int("max_length", 0))
	assert.Equal(t, "text", merged.String("format", ""))
}

func TestSummaryTitle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	want := (a.String() + ", " + b.String())[:30] + "..."
	assert.Equal(t, want, SummaryTitle([]uuid.UUID{a, b}))

	short := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	assert.Equal(t, short.String()[:30]+"...", SummaryTitle([]uuid.UUID{short}))
	assert.Equal(t, "...", SummaryTitle(nil))
}

func TestPersistSummarySkipsReownedSources(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")
	kept := testutil.SeedSource(t, f.db, alice.ID, "kept")
	moved := testutil.SeedSource(t, f.db, alice.ID, "moved")
	require.NoError(t, f.db.Model(&types.Source{}).Where("id = ?", moved.ID).Update("user_id", bob.ID).Error)

	res := summarize.Result{Summary: "body", KeyPoints: []string{"k1"}}
	s, err := f.gen.PersistSummary(context.Background(), alice.ID, []uuid.UUID{moved.ID, kept.ID, kept.ID}, res, []string{"go"})
	require.NoError(t, err)

	got, err := f.summaries.Get(asUser(alice.ID), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, []string{"k1"}, []string(got.KeyPoints))
	assert.Equal(t, []string{"go"}, []string(got.Tags))
	assert.Equal(t, []uuid.UUID{kept.ID}, got.SourceIDs())
}

func TestGenerateRunsPipelineInBackground(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	a := testutil.SeedSource(t, f.db, alice.ID, "a")
	b := testutil.SeedSource(t, f.db, alice.ID, "b")
	tpl := testutil.SeedTemplate(t, f.db, alice.ID, params.Params{
		"max_length":   params.Int(800),
		"focus_points": params.Strings("security"),
		"tags":         params.Strings("weekly"),
	})
	ctx := asUser(alice.ID)

	err := f.gen.Generate(ctx, GenerateRequest{
		SourceIDs:  []uuid.UUID{b.ID, a.ID},
		TemplateID: &tpl.ID,
		Parameters: params.Params{"format": params.String("text")},
	})
	require.NoError(t, err)
	f.w.Wait()

	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, f.fetcher.seen)
	assert.Equal(t, summarize.Request{
		Content:     "fetched text",
		MaxLength:   800,
		FocusPoints: []string{"security"},
		Format:      "text",
	}, f.summarizer.req)

	page, err := f.summaries.List(ctx, repos.SummaryListFilter{}, repos.NormalizeSummarySort("", ""), pagination.FromPage(1, 20))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	got := page.Items[0]
	assert.Equal(t, SummaryTitle([]uuid.UUID{b.ID, a.ID}), got.Title)
	assert.Equal(t, "digest", got.Content)
	assert.Equal(t, []string{"weekly"}, []string(got.Tags))
	assert.Len(t, got.Sources, 2)
}

func TestGenerateProviderFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = errors.New("provider unavailable")
	alice := testutil.SeedUser(t, f.db, "alice")
	a := testutil.SeedSource(t, f.db, alice.ID, "a")
	ctx := asUser(alice.ID)

	require.NoError(t, f.gen.Generate(ctx, GenerateRequest{SourceIDs: []uuid.UUID{a.ID}}))
	f.w.Wait()

	failed := f.waitEvent(t, realtime.EventGenerationFailed)
	assert.Equal(t, alice.ID, failed.UserID)
	assert.Equal(t, []uuid.UUID{a.ID}, failed.SourceIDs)
	assert.Contains(t, failed.Error, "provider unavailable")
	assert.Nil(t, failed.SummaryID)

	page, err := f.summaries.List(ctx, repos.SummaryListFilter{}, repos.NormalizeSummarySort("", ""), pagination.FromPage(1, 20))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 0, page.Total)

	// A failed run never counts as fetch activity.
	var src types.Source
	require.NoError(t, f.db.First(&src, "id = ?", a.ID).Error)
	assert.Nil(t, src.LastFetchedAt)
}

func TestSourceActivityStampsRefreshAndGeneration(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	a := testutil.SeedSource(t, f.db, alice.ID, "a")
	b := testutil.SeedSource(t, f.db, alice.ID, "b")
	ctx := asUser(alice.ID)

	require.NoError(t, f.sources.Refresh(ctx, a.ID))
	f.w.Wait()
	refreshed := f.waitEvent(t, realtime.EventSourceRefreshed)
	assert.Equal(t, len("fetched text"), refreshed.ContentBytes)

	var src types.Source
	require.NoError(t, f.db.First(&src, "id = ?", a.ID).Error)
	require.NotNil(t, src.LastFetchedAt)
	assert.Equal(t, len("fetched text"), src.LastFetchBytes)

	require.NoError(t, f.gen.Generate(ctx, GenerateRequest{SourceIDs: []uuid.UUID{b.ID}}))
	f.w.Wait()
	f.waitEvent(t, realtime.EventGenerationCompleted)

	var other types.Source
	require.NoError(t, f.db.First(&other, "id = ?", b.ID).Error)
	require.NotNil(t, other.LastFetchedAt)
	assert.Zero(t, other.LastFetchBytes)
}

func TestGenerateRejectsSynchronously(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")
	own := testutil.SeedSource(t, f.db, alice.ID, "own")
	foreignSrc := testutil.SeedSource(t, f.db, bob.ID, "theirs")
	foreignTpl := testutil.SeedTemplate(t, f.db, bob.ID, params.Params{})
	ctx := ctxutil.WithDeferredTasks(asUser(alice.ID))

	err := f.gen.Generate(ctx, GenerateRequest{SourceIDs: []uuid.UUID{foreignSrc.ID}})
	requireAPIErr(t, err, http.StatusNotFound, "no_valid_sources")

	err = f.gen.Generate(ctx, GenerateRequest{SourceIDs: []uuid.UUID{own.ID}, TemplateID: &foreignTpl.ID})
	requireAPIErr(t, err, http.StatusNotFound, "template_not_found")

	assert.Equal(t, 0, ctxutil.GetDeferredTasks(ctx).Len())

	require.NoError(t, f.gen.Generate(ctx, GenerateRequest{SourceIDs: []uuid.UUID{own.ID}}))
	assert.Equal(t, 1, ctxutil.GetDeferredTasks(ctx).Len())
}

func TestSummaryServiceToggleAndOwnership(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")
	src := testutil.SeedSource(t, f.db, alice.ID, "src")
	foreign := testutil.SeedSource(t, f.db, bob.ID, "foreign")
	ctx := asUser(alice.ID)

	s, err := f.summaries.Create(ctx, SummaryInput{
		Title:     "weekly",
		Content:   "# Heading\n\nbody",
		SourceIDs: []uuid.UUID{src.ID, foreign.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{src.ID}, s.SourceIDs())
	assert.Equal(t, []string{}, []string(s.Tags))

	once, err := f.summaries.ToggleArchive(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, once.IsArchived)
	twice, err := f.summaries.ToggleArchive(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, twice.IsArchived)

	html, err := f.summaries.RenderHTML(ctx, s.ID)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Heading</h1>")

	_, err = f.summaries.Get(asUser(bob.ID), s.ID)
	requireAPIErr(t, err, http.StatusNotFound, "summary_not_found")

	empty := []uuid.UUID{}
	updated, err := f.summaries.Update(ctx, s.ID, SummaryPatch{SourceIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Sources)
	assert.Equal(t, "weekly", updated.Title)
}

func TestTemplateServiceHidesForeignTemplates(t *testing.T) {
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bobby")

	tpl, err := f.templates.Create(asUser(alice.ID), TemplateInput{Name: "daily", Parameters: params.Params{"max_length": params.Int(300)}})
	require.NoError(t, err)

	_, err = f.templates.Get(asUser(bob.ID), tpl.ID)
	requireAPIErr(t, err, http.StatusNotFound, "template_not_found")
	err = f.templates.Delete(asUser(bob.ID), tpl.ID)
	requireAPIErr(t, err, http.StatusNotFound, "template_not_found")

	name := "nightly"
	updated, err := f.templates.Update(asUser(alice.ID), tpl.ID, TemplatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "nightly", updated.Name)
	assert.Equal(t, 300, updated.Parameters.Data().Int("max_length", 0))

	_, err = f.templates.Create(asUser(alice.ID), TemplateInput{Name: "  "})
	requireAPIErr(t, err, http.StatusBadRequest, "invalid_request")
}

func TestAuthRegisterAndLogin(t *testing.T) {
	theDB := testutil.DB(t)
	log := testutil.Logger(t)
	as := NewAuthService(theDB, log, repos.NewUserRepo(theDB, log), repos.NewUserTokenRepo(theDB, log), AuthConfig{JWTSecretKey: "test-secret"})
	ctx := context.Background()

	in := RegisterInput{Username: "reader_1", Email: "Reader@Example.com", Password: "Secret#123", PasswordConfirm: "Secret#123"}
	u, err := as.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", u.Email)

	_, err = as.Register(ctx, in)
	requireAPIErr(t, err, http.StatusBadRequest, "email_exists")

	dupName := in
	dupName.Email = "other@example.com"
	_, err = as.Register(ctx, dupName)
	requireAPIErr(t, err, http.StatusBadRequest, "username_exists")

	weak := RegisterInput{Username: "weakling", Email: "weak@example.com", Password: "password", PasswordConfirm: "password"}
	_, err = as.Register(ctx, weak)
	requireAPIErr(t, err, http.StatusBadRequest, "invalid_request")

	pair, err := as.Login(ctx, "reader@example.com", "Secret#123", false)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeBearer, pair.TokenType)
	assert.Equal(t, int(time.Hour.Seconds()), pair.ExpiresIn)

	_, err = as.Login(ctx, "reader_1", "wrong", false)
	requireAPIErr(t, err, http.StatusUnauthorized, "invalid_credentials")

	authed, err := as.SetContextFromToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	me, err := as.Me(authed)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	rotated, err := as.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	_, err = as.SetContextFromToken(ctx, pair.AccessToken)
	assert.Error(t, err)
}

func TestAnalyticsSyntheticIsDeterministic(t *testing.T) {
	svc := NewAnalyticsService(testutil.Logger(t), nil, AnalyticsConfig{}).(*analyticsService)
	fixed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := svc.GithubRepo(ctx, "golang", "go", PeriodLast3Months)
	require.NoError(t, err)
	second, err := svc.GithubRepo(ctx, "golang", "go", PeriodLast3Months)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.ActivityData, 3)
	assert.Equal(t, "2026-01", first.ActivityData[0].Name)
	assert.Equal(t, "2026-03", first.ActivityData[2].Name)
	assert.Len(t, first.IssueCategories, 6)
	assert.Equal(t, "golang/go", first.FullName)

	year, err := svc.GithubRepo(ctx, "golang", "go", PeriodLastYear)
	require.NoError(t, err)
	assert.Len(t, year.ActivityData, 12)
	fallback, err := svc.GithubRepo(ctx, "golang", "go", "bogus")
	require.NoError(t, err)
	assert.Len(t, fallback.ActivityData, 6)

	_, err = svc.GithubRepo(ctx, "", "go", "")
	requireAPIErr(t, err, http.StatusBadRequest, "invalid_request")
}
