package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Source    repos.SourceRepo
	Summary   repos.SummaryRepo
	Template  repos.TemplateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Source:    repos.NewSourceRepo(db, log),
		Summary:   repos.NewSummaryRepo(db, log),
		Template:  repos.NewTemplateRepo(db, log),
	}
}
