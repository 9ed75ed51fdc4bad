package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/domain/params"
	"github.com/yungbote/newsboy-backend/internal/ingestion/fetch"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/observability"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/realtime"
	"github.com/yungbote/newsboy-backend/internal/realtime/bus"
	"github.com/yungbote/newsboy-backend/internal/summarize"
)

const (
	TaskGenerateSummary = "summary.generate"
	titleMaxBytes       = 30
)

var ErrNoValidSources = errors.New("no valid sources")

type GenerateRequest struct {
	SourceIDs  []uuid.UUID
	TemplateID *uuid.UUID
	Parameters types.Params
}

type GenerationService interface {
	// Generate validates synchronously and defers the pipeline. A nil error
	// means the task was accepted, not that it succeeded.
	Generate(ctx context.Context, req GenerateRequest) error
	ValidateSources(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	ResolveParameters(ctx context.Context, userID uuid.UUID, templateID *uuid.UUID, overrides types.Params) types.Params
	PersistSummary(ctx context.Context, userID uuid.UUID, sourceIDs []uuid.UUID, res summarize.Result, tags []string) (*types.Summary, error)
}

type generationService struct {
	db           *gorm.DB
	log          *logger.Logger
	sourceRepo   repos.SourceRepo
	templateRepo repos.TemplateRepo
	summaryRepo  repos.SummaryRepo
	fetcher      fetch.Fetcher
	summarizer   summarize.Summarizer
	worker       *worker.Worker
	bus          bus.Bus
	tracer       trace.Tracer
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	sourceRepo repos.SourceRepo,
	templateRepo repos.TemplateRepo,
	summaryRepo repos.SummaryRepo,
	fetcher fetch.Fetcher,
	summarizer summarize.Summarizer,
	w *worker.Worker,
	b bus.Bus,
) GenerationService {
	return &generationService{
		db:           db,
		log:          log.With("service", "GenerationService"),
		sourceRepo:   sourceRepo,
		templateRepo: templateRepo,
		summaryRepo:  summaryRepo,
		fetcher:      fetcher,
		summarizer:   summarizer,
		worker:       w,
		bus:          b,
		tracer:       observability.Tracer("generation"),
	}
}

func (gs *generationService) Generate(ctx context.Context, req GenerateRequest) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}

	valid, err := gs.ValidateSources(ctx, userID, req.SourceIDs)
	if errors.Is(err, ErrNoValidSources) {
		return apierr.NotFound("no_valid_sources", err)
	}
	if err != nil {
		return err
	}

	if req.TemplateID != nil {
		tpl, err := gs.loadTemplate(dbctx.With(ctx), *req.TemplateID)
		if err != nil {
			return fmt.Errorf("load template: %w", err)
		}
		if tpl == nil || tpl.UserID != userID {
			return apierr.NotFound("template_not_found", errs.ErrNotFound)
		}
	}

	var templateID *uuid.UUID
	if req.TemplateID != nil {
		id := *req.TemplateID
		templateID = &id
	}
	overrides := req.Parameters.Clone()

	schedule(ctx, gs.worker, ctxutil.Task{
		Name:   TaskGenerateSummary,
		UserID: userID,
		Run: func(ctx context.Context) error {
			return gs.run(ctx, userID, valid, templateID, overrides)
		},
	})
	gs.log.Info("Summary generation accepted", "user_id", userID, "source_count", len(valid))
	return nil
}

// ValidateSources keeps the ids that exist and belong to userID, in input
// order, duplicates included.
func (gs *generationService) ValidateSources(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, ErrNoValidSources
	}
	rows, err := gs.sourceRepo.GetOwnedByIDs(dbctx.With(ctx), userID, ids)
	if err != nil {
		return nil, fmt.Errorf("validate sources: %w", err)
	}
	owned := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		owned[r.ID] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := owned[id]; ok {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoValidSources
	}
	return out, nil
}

func (gs *generationService) loadTemplate(dbc dbctx.Context, id uuid.UUID) (*types.SummaryTemplate, error) {
	rows, err := gs.templateRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ResolveParameters never fails: an unknown or foreign template leaves the
// overrides as they are.
func (gs *generationService) ResolveParameters(ctx context.Context, userID uuid.UUID, templateID *uuid.UUID, overrides types.Params) types.Params {
	if templateID == nil {
		return overrides
	}
	tpl, err := gs.loadTemplate(dbctx.With(ctx), *templateID)
	switch {
	case err != nil:
		gs.log.Debug("Template lookup failed, using request parameters", "template_id", *templateID, "error", err)
		return overrides
	case tpl == nil || tpl.UserID != userID:
		gs.log.Debug("Template not usable, using request parameters", "template_id", *templateID, "user_id", userID)
		return overrides
	}
	return params.Merge(tpl.Parameters.Data(), overrides)
}

// SummaryTitle joins the ids, keeps the first 30 bytes and appends an
// ellipsis whatever the length.
func SummaryTitle(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	joined := strings.Join(parts, ", ")
	if len(joined) > titleMaxBytes {
		joined = joined[:titleMaxBytes]
	}
	return joined + "..."
}

// PersistSummary creates the summary and then links each source that still
// exists and is still owned. The two steps are not atomic; a failure while
// linking leaves the summary in place with the links made so far.
func (gs *generationService) PersistSummary(ctx context.Context, userID uuid.UUID, sourceIDs []uuid.UUID, res summarize.Result, tags []string) (*types.Summary, error) {
	dbc := dbctx.With(ctx)
	s := &types.Summary{
		UserID:    userID,
		Title:     SummaryTitle(sourceIDs),
		Content:   res.Summary,
		KeyPoints: datatypes.JSONSlice[string](nonNilStrings(res.KeyPoints)),
		Tags:      datatypes.JSONSlice[string](nonNilStrings(tags)),
	}
	if _, err := gs.summaryRepo.Create(dbc, []*types.Summary{s}); err != nil {
		return nil, fmt.Errorf("create summary: %w", err)
	}

	linked := make(map[uuid.UUID]struct{}, len(sourceIDs))
	for _, id := range sourceIDs {
		if _, ok := linked[id]; ok {
			continue
		}
		rows, err := gs.sourceRepo.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return s, fmt.Errorf("reload source %s: %w", id, err)
		}
		if len(rows) == 0 || rows[0].UserID != userID {
			gs.log.Debug("Skipping source no longer owned", "source_id", id, "summary_id", s.ID)
			continue
		}
		if err := gs.summaryRepo.AppendSources(dbc, s, rows[:1]); err != nil {
			return s, fmt.Errorf("link source %s: %w", id, err)
		}
		linked[id] = struct{}{}
	}
	return s, nil
}

// orderedSources loads the validated sources in the order they were
// requested. Sources deleted since validation are dropped.
func (gs *generationService) orderedSources(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error) {
	rows, err := gs.sourceRepo.GetOwnedByIDs(dbctx.With(ctx), userID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Source, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]*types.Source, 0, len(ids))
	for _, id := range ids {
		if src, ok := byID[id]; ok {
			out = append(out, src)
		}
	}
	return out, nil
}

func (gs *generationService) run(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, templateID *uuid.UUID, overrides types.Params) (err error) {
	ctx, span := gs.tracer.Start(ctx, TaskGenerateSummary, trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("sources.count", len(ids)),
	))
	defer span.End()

	start := time.Now()
	started := realtime.NewEvent(realtime.EventGenerationStarted, userID)
	started.SourceIDs = ids
	publish(ctx, gs.bus, gs.log, started)

	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		failed := realtime.NewEvent(realtime.EventGenerationFailed, userID)
		failed.SourceIDs = ids
		failed.Error = err.Error()
		publish(ctx, gs.bus, gs.log, failed)
	}()

	p := gs.ResolveParameters(ctx, userID, templateID, overrides)

	srcs, err := gs.orderedSources(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	fetchCtx, fetchSpan := gs.tracer.Start(ctx, "generation.fetch")
	content, err := gs.fetcher.Fetch(fetchCtx, srcs)
	fetchSpan.End()
	if err != nil {
		return fmt.Errorf("fetch content: %w", err)
	}

	sumCtx, sumSpan := gs.tracer.Start(ctx, "generation.summarize",
		trace.WithAttributes(attribute.String("ai.provider", gs.summarizer.Provider())))
	res, err := gs.summarizer.Summarize(sumCtx, summarize.Request{
		Content:     content,
		MaxLength:   p.Int("max_length", summarize.DefaultMaxLength),
		FocusPoints: p.Strings("focus_points", []string{}),
		Format:      p.String("format", summarize.DefaultFormat),
	})
	sumSpan.End()
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	persistCtx, persistSpan := gs.tracer.Start(ctx, "generation.persist")
	s, err := gs.PersistSummary(persistCtx, userID, ids, res, p.Strings("tags", []string{}))
	persistSpan.End()
	if err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	gs.log.Info("Summary generated",
		"user_id", userID,
		"summary_id", s.ID,
		"key_points", len(res.KeyPoints),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	done := realtime.NewEvent(realtime.EventGenerationCompleted, userID)
	done.SummaryID = &s.ID
	done.SourceIDs = ids
	publish(ctx, gs.bus, gs.log, done)
	return nil
}
