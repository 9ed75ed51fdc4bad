package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos/auth"
	"github.com/yungbote/newsboy-backend/internal/data/repos/sources"
	"github.com/yungbote/newsboy-backend/internal/data/repos/summaries"
	"github.com/yungbote/newsboy-backend/internal/data/repos/user"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type SourceRepo = sources.SourceRepo
type SummaryRepo = summaries.SummaryRepo
type TemplateRepo = summaries.TemplateRepo

type SourceListFilter = sources.ListFilter
type SummaryListFilter = summaries.ListFilter
type SummarySort = summaries.Sort

var NormalizeSummarySort = summaries.NormalizeSort

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewSourceRepo(db *gorm.DB, log *logger.Logger) SourceRepo { return sources.NewSourceRepo(db, log) }
func NewSummaryRepo(db *gorm.DB, log *logger.Logger) SummaryRepo {
	return summaries.NewSummaryRepo(db, log)
}
func NewTemplateRepo(db *gorm.DB, log *logger.Logger) TemplateRepo {
	return summaries.NewTemplateRepo(db, log)
}
