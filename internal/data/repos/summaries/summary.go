package summaries

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/newsboy-backend/internal/data/db"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/domain/summaries"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

// ListFilter narrows a user's summaries. Nil and empty fields are ignored.
type ListFilter struct {
	Tag         string
	Search      string
	IsArchived  *bool
	IsImportant *bool
	SourceID    *uuid.UUID
}

// Sort is an allow-listed ordering.
type Sort struct {
	Field string
	Desc  bool
}

var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

// NormalizeSort falls back to created_at for unknown fields and to descending
// for anything but "asc".
func NormalizeSort(field, order string) Sort {
	field = strings.ToLower(strings.TrimSpace(field))
	if !sortableColumns[field] {
		field = "created_at"
	}
	return Sort{Field: field, Desc: !strings.EqualFold(strings.TrimSpace(order), "asc")}
}

type SummaryRepo interface {
	Create(dbc dbctx.Context, rows []*types.Summary) ([]*types.Summary, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Summary, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, f ListFilter, sort Sort, offset, limit int) ([]*types.Summary, int64, error)
	Save(dbc dbctx.Context, row *types.Summary) error
	AppendSources(dbc dbctx.Context, row *types.Summary, srcs []*types.Source) error
	ReplaceSources(dbc dbctx.Context, row *types.Summary, srcs []*types.Source) error
	ToggleFlag(dbc dbctx.Context, id uuid.UUID, column string) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(theDB *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{db: theDB, log: baseLog.With("repo", "SummaryRepo")}
}

func (r *summaryRepo) Create(dbc dbctx.Context, rows []*types.Summary) ([]*types.Summary, error) {
	if len(rows) == 0 {
		return []*types.Summary{}, nil
	}
	for _, s := range rows {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := dbc.Session(r.db).
		Omit(clause.Associations).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *summaryRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Summary, error) {
	var results []*types.Summary
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Session(r.db).
		Preload("Sources").
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *summaryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, f ListFilter, sort Sort, offset, limit int) ([]*types.Summary, int64, error) {
	filtered := func() *gorm.DB {
		q := dbc.Session(r.db).Model(&types.Summary{}).Where("summary.user_id = ?", userID)
		if tag := strings.TrimSpace(f.Tag); tag != "" {
			q = r.whereHasTag(q, tag)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("(LOWER(summary.title) LIKE ? OR LOWER(summary.content) LIKE ?)", like, like)
		}
		if f.IsArchived != nil {
			q = q.Where("summary.is_archived = ?", *f.IsArchived)
		}
		if f.IsImportant != nil {
			q = q.Where("summary.is_important = ?", *f.IsImportant)
		}
		if f.SourceID != nil {
			q = q.Where("summary.id IN (?)",
				dbc.Session(r.db).Table(summaries.JoinTable).Select("summary_id").Where("source_id = ?", *f.SourceID))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Summary
	if err := filtered().
		Preload("Sources").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "summary", Name: sort.Field}, Desc: sort.Desc}).
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// whereHasTag matches summaries whose tag list contains tag exactly.
func (r *summaryRepo) whereHasTag(q *gorm.DB, tag string) *gorm.DB {
	if q.Dialector.Name() == db.DriverPostgres {
		raw, _ := json.Marshal([]string{tag})
		return q.Where("summary.tags @> CAST(? AS jsonb)", string(raw))
	}
	return q.Where("EXISTS (SELECT 1 FROM json_each(summary.tags) WHERE json_each.value = ?)", tag)
}

func (r *summaryRepo) Save(dbc dbctx.Context, row *types.Summary) error {
	return dbc.Session(r.db).Omit(clause.Associations).Save(row).Error
}

func (r *summaryRepo) AppendSources(dbc dbctx.Context, row *types.Summary, srcs []*types.Source) error {
	if len(srcs) == 0 {
		return nil
	}
	return dbc.Session(r.db).Model(row).Association("Sources").Append(srcs)
}

func (r *summaryRepo) ReplaceSources(dbc dbctx.Context, row *types.Summary, srcs []*types.Source) error {
	assoc := dbc.Session(r.db).Model(row).Association("Sources")
	if len(srcs) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(srcs)
}

// ToggleFlag negates a boolean column in place.
func (r *summaryRepo) ToggleFlag(dbc dbctx.Context, id uuid.UUID, column string) error {
	switch column {
	case "is_archived", "is_important":
	default:
		return fmt.Errorf("column %q is not a toggleable flag", column)
	}
	return dbc.Session(r.db).
		Model(&types.Summary{}).
		Where("id = ?", id).
		Update(column, gorm.Expr("NOT "+column)).Error
}

func (r *summaryRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Session(r.db).
		Where("id IN ?", ids).
		Delete(&types.Summary{}).Error
}
