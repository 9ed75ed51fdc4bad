package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Source     services.SourceService
	Summary    services.SummaryService
	Template   services.TemplateService
	Generation services.GenerationService
	Analytics  services.AnalyticsService

	SourceActivity *services.SourceActivity
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, w *worker.Worker) (Services, error) {
	log.Info("Wiring services...")
	if err := cfg.validate(); err != nil {
		return Services{}, fmt.Errorf("auth config: %w", err)
	}

	return Services{
		Auth:     services.NewAuthService(db, log, r.User, r.UserToken, cfg.Auth),
		Source:   services.NewSourceService(db, log, r.Source, c.Fetcher, w, c.Bus),
		Summary:  services.NewSummaryService(db, log, r.Summary, r.Source),
		Template: services.NewTemplateService(db, log, r.Template),
		Generation: services.NewGenerationService(
			db, log,
			r.Source, r.Template, r.Summary,
			c.Fetcher, c.Summarizer,
			w, c.Bus,
		),
		Analytics: services.NewAnalyticsService(log, c.GitHub, cfg.Analytics),

		SourceActivity: services.NewSourceActivity(log, r.Source),
	}, nil
}
