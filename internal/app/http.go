package app

import (
	"net"

	"gorm.io/gorm"

	"github.com/yungbote/newsboy-backend/internal/http"
	httpH "github.com/yungbote/newsboy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/newsboy-backend/internal/http/middleware"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type Middleware struct {
	Auth          *httpMW.AuthMiddleware
	GenerateLimit *httpMW.UserRateLimiter
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Source    *httpH.SourceHandler
	Summary   *httpH.SummaryHandler
	Template  *httpH.TemplateHandler
	Analytics *httpH.AnalyticsHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Auth:      httpH.NewAuthHandler(log, s.Auth),
		Source:    httpH.NewSourceHandler(log, s.Source),
		Summary:   httpH.NewSummaryHandler(log, s.Summary, s.Generation),
		Template:  httpH.NewTemplateHandler(log, s.Template),
		Analytics: httpH.NewAnalyticsHandler(log, s.Analytics),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:          httpMW.NewAuthMiddleware(log, s.Auth),
		GenerateLimit: httpMW.NewUserRateLimiter(cfg.Server.GenerateRatePerMinute),
	}
}

func wireServer(log *logger.Logger, cfg Config, w *worker.Worker, h Handlers, m Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(net.JoinHostPort("", cfg.Server.Port), http.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Worker:           w,
		GenerateLimit:    m.GenerateLimit,
		AuthMiddleware:   m.Auth,
		AuthHandler:      h.Auth,
		SourceHandler:    h.Source,
		SummaryHandler:   h.Summary,
		TemplateHandler:  h.Template,
		AnalyticsHandler: h.Analytics,
		HealthHandler:    h.Health,
	})
}
