package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{log: log.With("handler", "AnalyticsHandler"), analytics: analytics}
}

// GET /api/v1/analytics/github/:owner/:repo
func (h *AnalyticsHandler) GithubRepo(c *gin.Context) {
	period := strings.TrimSpace(c.DefaultQuery("period", services.PeriodLast6Months))
	out, err := h.analytics.GithubRepo(c.Request.Context(), c.Param("owner"), c.Param("repo"), period)
	if err != nil {
		fail(c, h.log, "GithubAnalytics", err)
		return
	}
	response.RespondOK(c, out)
}
