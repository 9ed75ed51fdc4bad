package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
	"github.com/yungbote/newsboy-backend/internal/pkg/pagination"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type SummaryInput struct {
	Title     string
	Content   string
	KeyPoints []string
	Tags      []string
	SourceIDs []uuid.UUID
}

// SummaryPatch carries only the fields present in an update request. A
// non-nil SourceIDs replaces the whole association.
type SummaryPatch struct {
	Title       *string
	Content     *string
	KeyPoints   *[]string
	Tags        *[]string
	IsArchived  *bool
	IsImportant *bool
	SourceIDs   *[]uuid.UUID
}

type SummaryService interface {
	List(ctx context.Context, f repos.SummaryListFilter, sort repos.SummarySort, w pagination.Window) (pagination.Page[*types.Summary], error)
	Create(ctx context.Context, in SummaryInput) (*types.Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Summary, error)
	Update(ctx context.Context, id uuid.UUID, patch SummaryPatch) (*types.Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleArchive(ctx context.Context, id uuid.UUID) (*types.Summary, error)
	ToggleImportant(ctx context.Context, id uuid.UUID) (*types.Summary, error)
	RenderHTML(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type summaryService struct {
	db          *gorm.DB
	log         *logger.Logger
	summaryRepo repos.SummaryRepo
	sourceRepo  repos.SourceRepo
	md          goldmark.Markdown
}

func NewSummaryService(db *gorm.DB, log *logger.Logger, summaryRepo repos.SummaryRepo, sourceRepo repos.SourceRepo) SummaryService {
	return &summaryService{
		db:          db,
		log:         log.With("service", "SummaryService"),
		summaryRepo: summaryRepo,
		sourceRepo:  sourceRepo,
		md:          goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (ss *summaryService) List(ctx context.Context, f repos.SummaryListFilter, sort repos.SummarySort, w pagination.Window) (pagination.Page[*types.Summary], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return pagination.Page[*types.Summary]{}, err
	}
	rows, total, err := ss.summaryRepo.ListByUser(dbctx.With(ctx), userID, f, sort, w.Offset(), w.Size)
	if err != nil {
		return pagination.Page[*types.Summary]{}, fmt.Errorf("list summaries: %w", err)
	}
	return pagination.NewPage(rows, total, w), nil
}

// ownedSources keeps the ids that resolve to the caller's sources.
func (ss *summaryService) ownedSources(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := ss.sourceRepo.GetOwnedByIDs(dbc, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve sources: %w", err)
	}
	return rows, nil
}

func (ss *summaryService) Create(ctx context.Context, in SummaryInput) (*types.Summary, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("%w: title is required", errs.ErrInvalidArgument))
	}

	s := &types.Summary{
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		KeyPoints: datatypes.JSONSlice[string](nonNilStrings(in.KeyPoints)),
		Tags:      datatypes.JSONSlice[string](nonNilStrings(in.Tags)),
	}
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		srcs, err := ss.ownedSources(txc, userID, in.SourceIDs)
		if err != nil {
			return err
		}
		if _, err := ss.summaryRepo.Create(txc, []*types.Summary{s}); err != nil {
			return fmt.Errorf("create summary: %w", err)
		}
		if err := ss.summaryRepo.AppendSources(txc, s, srcs); err != nil {
			return fmt.Errorf("link sources: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ss.reload(ctx, s.ID)
}

func (ss *summaryService) reload(ctx context.Context, id uuid.UUID) (*types.Summary, error) {
	rows, err := ss.summaryRepo.GetByIDs(dbctx.With(ctx), []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("summary_not_found", errs.ErrNotFound)
	}
	return rows[0], nil
}

// Get hides summaries owned by someone else behind a 404.
func (ss *summaryService) Get(ctx context.Context, id uuid.UUID) (*types.Summary, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s, err := ss.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, apierr.NotFound("summary_not_found", errs.ErrNotFound)
	}
	return s, nil
}

func (ss *summaryService) Update(ctx context.Context, id uuid.UUID, patch SummaryPatch) (*types.Summary, error) {
	s, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, apierr.BadRequest("invalid_request", fmt.Errorf("%w: title is required", errs.ErrInvalidArgument))
		}
		s.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		s.Content = *patch.Content
	}
	if patch.KeyPoints != nil {
		s.KeyPoints = datatypes.JSONSlice[string](nonNilStrings(*patch.KeyPoints))
	}
	if patch.Tags != nil {
		s.Tags = datatypes.JSONSlice[string](nonNilStrings(*patch.Tags))
	}
	if patch.IsArchived != nil {
		s.IsArchived = *patch.IsArchived
	}
	if patch.IsImportant != nil {
		s.IsImportant = *patch.IsImportant
	}

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ss.summaryRepo.Save(txc, s); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		if patch.SourceIDs == nil {
			return nil
		}
		srcs, err := ss.ownedSources(txc, s.UserID, *patch.SourceIDs)
		if err != nil {
			return err
		}
		if err := ss.summaryRepo.ReplaceSources(txc, s, srcs); err != nil {
			return fmt.Errorf("replace sources: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ss.reload(ctx, s.ID)
}

func (ss *summaryService) Delete(ctx context.Context, id uuid.UUID) error {
	s, err := ss.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ss.summaryRepo.SoftDeleteByIDs(dbctx.With(ctx), []uuid.UUID{s.ID}); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}

func (ss *summaryService) toggle(ctx context.Context, id uuid.UUID, column string) (*types.Summary, error) {
	s, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ss.summaryRepo.ToggleFlag(dbctx.With(ctx), s.ID, column); err != nil {
		return nil, fmt.Errorf("toggle %s: %w", column, err)
	}
	return ss.reload(ctx, s.ID)
}

func (ss *summaryService) ToggleArchive(ctx context.Context, id uuid.UUID) (*types.Summary, error) {
	return ss.toggle(ctx, id, "is_archived")
}

func (ss *summaryService) ToggleImportant(ctx context.Context, id uuid.UUID) (*types.Summary, error) {
	return ss.toggle(ctx, id, "is_important")
}

// RenderHTML converts the markdown content to an HTML fragment.
func (ss *summaryService) RenderHTML(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := ss.md.Convert([]byte(s.Content), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
