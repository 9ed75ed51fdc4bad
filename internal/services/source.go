package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/ingestion/fetch"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
	"github.com/yungbote/newsboy-backend/internal/pkg/pagination"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/realtime"
	"github.com/yungbote/newsboy-backend/internal/realtime/bus"
)

type SourceInput struct {
	Name            string
	Type            types.SourceType
	URL             string
	UpdateFrequency types.UpdateFrequency
	Priority        types.Priority
	Status          types.SourceStatus
	Filters         types.Params
	Credentials     types.Params
}

// SourcePatch carries only the fields present in an update request.
type SourcePatch struct {
	Name            *string
	Type            *types.SourceType
	URL             *string
	UpdateFrequency *types.UpdateFrequency
	Priority        *types.Priority
	Status          *types.SourceStatus
	Filters         types.Params
	Credentials     types.Params
}

type SourceService interface {
	List(ctx context.Context, f repos.SourceListFilter, w pagination.Window) (pagination.Page[*types.Source], error)
	Create(ctx context.Context, in SourceInput) (*types.Source, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Source, error)
	Update(ctx context.Context, id uuid.UUID, patch SourcePatch) (*types.Source, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Refresh confirms ownership and defers one content fetch for the source.
	Refresh(ctx context.Context, id uuid.UUID) error
}

type sourceService struct {
	db         *gorm.DB
	log        *logger.Logger
	sourceRepo repos.SourceRepo
	fetcher    fetch.Fetcher
	worker     *worker.Worker
	bus        bus.Bus
}

func NewSourceService(
	db *gorm.DB,
	log *logger.Logger,
	sourceRepo repos.SourceRepo,
	fetcher fetch.Fetcher,
	w *worker.Worker,
	b bus.Bus,
) SourceService {
	return &sourceService{
		db:         db,
		log:        log.With("service", "SourceService"),
		sourceRepo: sourceRepo,
		fetcher:    fetcher,
		worker:     w,
		bus:        b,
	}
}

func (ss *sourceService) List(ctx context.Context, f repos.SourceListFilter, w pagination.Window) (pagination.Page[*types.Source], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return pagination.Page[*types.Source]{}, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return pagination.Page[*types.Source]{}, apierr.BadRequest("invalid_request", fmt.Errorf("%w: unknown source type %q", errs.ErrInvalidArgument, f.Type))
	}
	if f.Status != "" && !f.Status.Valid() {
		return pagination.Page[*types.Source]{}, apierr.BadRequest("invalid_request", fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, f.Status))
	}
	rows, total, err := ss.sourceRepo.ListByUser(dbctx.With(ctx), userID, f, w.Offset(), w.Size)
	if err != nil {
		return pagination.Page[*types.Source]{}, fmt.Errorf("list sources: %w", err)
	}
	return pagination.NewPage(rows, total, w), nil
}

func (ss *sourceService) Create(ctx context.Context, in SourceInput) (*types.Source, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	src := &types.Source{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Type:            in.Type,
		URL:             strings.TrimSpace(in.URL),
		UpdateFrequency: in.UpdateFrequency,
		Priority:        in.Priority,
		Status:          in.Status,
		Filters:         datatypes.NewJSONType(nonNilParams(in.Filters)),
		Credentials:     datatypes.NewJSONType(nonNilParams(in.Credentials)),
	}
	src.ApplyDefaults()
	if err := src.Validate(); err != nil {
		return nil, apierr.BadRequest("invalid_request", err)
	}
	if _, err := ss.sourceRepo.Create(dbctx.With(ctx), []*types.Source{src}); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	ss.log.Info("Source created", "user_id", userID, "source_id", src.ID, "source_type", src.Type)
	return src, nil
}

func (ss *sourceService) load(ctx context.Context, id uuid.UUID) (*types.Source, error) {
	rows, err := ss.sourceRepo.GetByIDs(dbctx.With(ctx), []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("source_not_found", errs.ErrNotFound)
	}
	return rows[0], nil
}

// Get distinguishes a foreign source (403) from a missing one (404).
func (ss *sourceService) Get(ctx context.Context, id uuid.UUID) (*types.Source, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	src, err := ss.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.UserID != userID {
		return nil, apierr.Forbidden("forbidden", errs.ErrForbidden)
	}
	return src, nil
}

// owned reports a foreign source as missing.
func (ss *sourceService) owned(ctx context.Context, id uuid.UUID) (*types.Source, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	src, err := ss.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.UserID != userID {
		return nil, apierr.NotFound("source_not_found", errs.ErrNotFound)
	}
	return src, nil
}

func (ss *sourceService) Update(ctx context.Context, id uuid.UUID, patch SourcePatch) (*types.Source, error) {
	src, err := ss.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		src.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		src.Type = *patch.Type
	}
	if patch.URL != nil {
		src.URL = strings.TrimSpace(*patch.URL)
	}
	if patch.UpdateFrequency != nil {
		src.UpdateFrequency = *patch.UpdateFrequency
	}
	if patch.Priority != nil {
		src.Priority = *patch.Priority
	}
	if patch.Status != nil {
		src.Status = *patch.Status
	}
	if patch.Filters != nil {
		src.Filters = datatypes.NewJSONType(patch.Filters)
	}
	if patch.Credentials != nil {
		src.Credentials = datatypes.NewJSONType(patch.Credentials)
	}
	if err := src.Validate(); err != nil {
		return nil, apierr.BadRequest("invalid_request", err)
	}
	if err := ss.sourceRepo.Save(dbctx.With(ctx), src); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	return src, nil
}

func (ss *sourceService) Delete(ctx context.Context, id uuid.UUID) error {
	src, err := ss.owned(ctx, id)
	if err != nil {
		return err
	}
	if err := ss.sourceRepo.SoftDeleteByIDs(dbctx.With(ctx), []uuid.UUID{src.ID}); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	ss.log.Info("Source deleted", "user_id", src.UserID, "source_id", src.ID)
	return nil
}

func (ss *sourceService) Refresh(ctx context.Context, id uuid.UUID) error {
	src, err := ss.owned(ctx, id)
	if err != nil {
		return err
	}
	schedule(ctx, ss.worker, ctxutil.Task{
		Name:   "source.refresh",
		UserID: src.UserID,
		Run: func(ctx context.Context) error {
			text, err := ss.fetcher.Fetch(ctx, []*types.Source{src})
			if err != nil {
				return fmt.Errorf("refresh source %s: %w", src.ID, err)
			}
			ss.log.Info("Source refreshed", "source_id", src.ID, "bytes", len(text))
			ev := realtime.NewEvent(realtime.EventSourceRefreshed, src.UserID)
			ev.SourceIDs = []uuid.UUID{src.ID}
			ev.ContentBytes = len(text)
			publish(ctx, ss.bus, ss.log, ev)
			return nil
		},
	})
	return nil
}

func nonNilParams(p types.Params) types.Params {
	if p == nil {
		return types.Params{}
	}
	return p
}

// schedule defers t to the end of the current request, or submits it
// straight to the worker outside a request.
func schedule(ctx context.Context, w *worker.Worker, t ctxutil.Task) {
	if d := ctxutil.GetDeferredTasks(ctx); d != nil {
		d.Add(t)
		return
	}
	if w != nil {
		w.Submit(ctx, t)
	}
}

func publish(ctx context.Context, b bus.Bus, log *logger.Logger, ev realtime.Event) {
	if b == nil {
		return
	}
	if err := b.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Event publish failed", "event", ev.Type, "error", err)
	}
}
