package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type TemplateInput struct {
	Name        string
	Description string
	Parameters  types.Params
}

type TemplatePatch struct {
	Name        *string
	Description *string
	Parameters  types.Params
}

type TemplateService interface {
	List(ctx context.Context) ([]*types.SummaryTemplate, error)
	Create(ctx context.Context, in TemplateInput) (*types.SummaryTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*types.SummaryTemplate, error)
	Update(ctx context.Context, id uuid.UUID, patch TemplatePatch) (*types.SummaryTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.TemplateRepo
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, templateRepo repos.TemplateRepo) TemplateService {
	return &templateService{
		db:           db,
		log:          log.With("service", "TemplateService"),
		templateRepo: templateRepo,
	}
}

func (ts *templateService) List(ctx context.Context) ([]*types.SummaryTemplate, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ts.templateRepo.ListByUser(dbctx.With(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if rows == nil {
		rows = []*types.SummaryTemplate{}
	}
	return rows, nil
}

func (ts *templateService) Create(ctx context.Context, in TemplateInput) (*types.SummaryTemplate, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("%w: name is required", errs.ErrInvalidArgument))
	}
	t := &types.SummaryTemplate{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Parameters:  datatypes.NewJSONType(nonNilParams(in.Parameters)),
	}
	if _, err := ts.templateRepo.Create(dbctx.With(ctx), []*types.SummaryTemplate{t}); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

func (ts *templateService) Get(ctx context.Context, id uuid.UUID) (*types.SummaryTemplate, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ts.templateRepo.GetByIDs(dbctx.With(ctx), []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if len(rows) == 0 || rows[0].UserID != userID {
		return nil, apierr.NotFound("template_not_found", errs.ErrNotFound)
	}
	return rows[0], nil
}

func (ts *templateService) Update(ctx context.Context, id uuid.UUID, patch TemplatePatch) (*types.SummaryTemplate, error) {
	t, err := ts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_request", fmt.Errorf("%w: name is required", errs.ErrInvalidArgument))
		}
		t.Name = name
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Parameters != nil {
		t.Parameters = datatypes.NewJSONType(patch.Parameters)
	}
	if err := ts.templateRepo.Save(dbctx.With(ctx), t); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

func (ts *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := ts.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ts.templateRepo.SoftDeleteByIDs(dbctx.With(ctx), []uuid.UUID{t.ID}); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
