package sources

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

// ListFilter narrows a user's sources. Empty fields are ignored.
type ListFilter struct {
	Search string
	Type   types.SourceType
	Status types.SourceStatus
}

type SourceRepo interface {
	Create(dbc dbctx.Context, srcs []*types.Source) ([]*types.Source, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Source, error)
	GetOwnedByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, f ListFilter, offset, limit int) ([]*types.Source, int64, error)
	Save(dbc dbctx.Context, src *types.Source) error
	MarkFetched(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID, at time.Time, bytes *int) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *sourceRepo) Create(dbc dbctx.Context, srcs []*types.Source) ([]*types.Source, error) {
	if len(srcs) == 0 {
		return []*types.Source{}, nil
	}
	for _, s := range srcs {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := dbc.Session(r.db).Create(&srcs).Error; err != nil {
		return nil, err
	}
	return srcs, nil
}

func (r *sourceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Source, error) {
	var results []*types.Source
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

// GetOwnedByIDs returns the subset of ids that exist and belong to userID.
// Result order follows the store, not ids.
func (r *sourceRepo) GetOwnedByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Source, error) {
	var results []*types.Source
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Session(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sourceRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, f ListFilter, offset, limit int) ([]*types.Source, int64, error) {
	filtered := func() *gorm.DB {
		q := dbc.Session(r.db).Model(&types.Source{}).Where("user_id = ?", userID)
		if s := strings.TrimSpace(f.Search); s != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Source
	if err := filtered().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *sourceRepo) Save(dbc dbctx.Context, src *types.Source) error {
	return dbc.Session(r.db).Save(src).Error
}

// MarkFetched stamps last_fetched_at on the owned ids, and last_fetch_bytes
// when bytes is set. Rows already stamped at or after at are left alone, so
// replayed or reordered events cannot move the stamp backwards.
func (r *sourceRepo) MarkFetched(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID, at time.Time, bytes *int) error {
	if len(ids) == 0 {
		return nil
	}
	cols := map[string]any{"last_fetched_at": at}
	if bytes != nil {
		cols["last_fetch_bytes"] = *bytes
	}
	return dbc.Session(r.db).
		Model(&types.Source{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Where("(last_fetched_at IS NULL OR last_fetched_at < ?)", at).
		UpdateColumns(cols).Error
}

func (r *sourceRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Session(r.db).
		Where("id IN ?", ids).
		Delete(&types.Source{}).Error
}
