package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/newsboy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/newsboy-backend/internal/http/middleware"
	"github.com/yungbote/newsboy-backend/internal/jobs/worker"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Worker         *worker.Worker
	GenerateLimit  *httpMW.UserRateLimiter

	AuthMiddleware   *httpMW.AuthMiddleware
	AuthHandler      *httpH.AuthHandler
	SourceHandler    *httpH.SourceHandler
	SummaryHandler   *httpH.SummaryHandler
	TemplateHandler  *httpH.TemplateHandler
	AnalyticsHandler *httpH.AnalyticsHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.BackgroundTasks(cfg.Worker))

	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
			protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// Sources
		if cfg.SourceHandler != nil {
			protected.GET("/sources", cfg.SourceHandler.List)
			protected.POST("/sources", cfg.SourceHandler.Create)
			protected.GET("/sources/:id", cfg.SourceHandler.Get)
			protected.PUT("/sources/:id", cfg.SourceHandler.Update)
			protected.DELETE("/sources/:id", cfg.SourceHandler.Delete)
			protected.POST("/sources/:id/refresh", cfg.SourceHandler.Refresh)
		}

		// Summaries
		if cfg.SummaryHandler != nil {
			generate := []gin.HandlerFunc{}
			if cfg.GenerateLimit != nil {
				generate = append(generate, cfg.GenerateLimit.Middleware())
			}
			generate = append(generate, cfg.SummaryHandler.Generate)
			protected.POST("/summaries/generate", generate...)

			protected.GET("/summaries", cfg.SummaryHandler.List)
			protected.POST("/summaries", cfg.SummaryHandler.Create)
			protected.GET("/summaries/:id", cfg.SummaryHandler.Get)
			protected.GET("/summaries/:id/html", cfg.SummaryHandler.HTML)
			protected.PUT("/summaries/:id", cfg.SummaryHandler.Update)
			protected.DELETE("/summaries/:id", cfg.SummaryHandler.Delete)
			protected.POST("/summaries/:id/archive", cfg.SummaryHandler.ToggleArchive)
			protected.POST("/summaries/:id/important", cfg.SummaryHandler.ToggleImportant)
		}

		// Summary templates
		if cfg.TemplateHandler != nil {
			protected.GET("/summary-templates", cfg.TemplateHandler.List)
			protected.POST("/summary-templates", cfg.TemplateHandler.Create)
			protected.GET("/summary-templates/:id", cfg.TemplateHandler.Get)
			protected.PUT("/summary-templates/:id", cfg.TemplateHandler.Update)
			protected.DELETE("/summary-templates/:id", cfg.TemplateHandler.Delete)
		}

		// Analytics
		if cfg.AnalyticsHandler != nil {
			protected.GET("/analytics/github/:owner/:repo", cfg.AnalyticsHandler.GithubRepo)
		}
	}

	return r
}
