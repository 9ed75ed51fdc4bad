package summaries

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, rows []*types.SummaryTemplate) ([]*types.SummaryTemplate, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SummaryTemplate, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SummaryTemplate, error)
	Save(dbc dbctx.Context, row *types.SummaryTemplate) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo")}
}

func (r *templateRepo) Create(dbc dbctx.Context, rows []*types.SummaryTemplate) ([]*types.SummaryTemplate, error) {
	if len(rows) == 0 {
		return []*types.SummaryTemplate{}, nil
	}
	for _, t := range rows {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
	}
	if err := dbc.Session(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *templateRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SummaryTemplate, error) {
	var results []*types.SummaryTemplate
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Session(r.db).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SummaryTemplate, error) {
	var results []*types.SummaryTemplate
	if err := dbc.Session(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) Save(dbc dbctx.Context, row *types.SummaryTemplate) error {
	return dbc.Session(r.db).Save(row).Error
}

func (r *templateRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Session(r.db).
		Where("id IN ?", ids).
		Delete(&types.SummaryTemplate{}).Error
}
