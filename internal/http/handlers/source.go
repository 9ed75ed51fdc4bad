package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

type SourceHandler struct {
	log     *logger.Logger
	sources services.SourceService
}

func NewSourceHandler(log *logger.Logger, sources services.SourceService) *SourceHandler {
	return &SourceHandler{log: log.With("handler", "SourceHandler"), sources: sources}
}

// GET /api/v1/sources
func (h *SourceHandler) List(c *gin.Context) {
	w, err := window(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	f := repos.SourceListFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Type:   types.SourceType(strings.TrimSpace(c.Query("type"))),
		Status: types.SourceStatus(strings.TrimSpace(c.Query("status"))),
	}
	page, err := h.sources.List(c.Request.Context(), f, w)
	if err != nil {
		fail(c, h.log, "ListSources", err)
		return
	}
	response.RespondOK(c, page)
}

// POST /api/v1/sources
func (h *SourceHandler) Create(c *gin.Context) {
	var req struct {
		Name            string                `json:"name"`
		Type            types.SourceType      `json:"type"`
		URL             string                `json:"url"`
		UpdateFrequency types.UpdateFrequency `json:"update_frequency"`
		Priority        types.Priority        `json:"priority"`
		Status          types.SourceStatus    `json:"status"`
		Filters         types.Params          `json:"filters"`
		Credentials     types.Params          `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	src, err := h.sources.Create(c.Request.Context(), services.SourceInput{
		Name:            req.Name,
		Type:            req.Type,
		URL:             req.URL,
		UpdateFrequency: req.UpdateFrequency,
		Priority:        req.Priority,
		Status:          req.Status,
		Filters:         req.Filters,
		Credentials:     req.Credentials,
	})
	if err != nil {
		fail(c, h.log, "CreateSource", err)
		return
	}
	response.RespondCreated(c, src)
}

// GET /api/v1/sources/:id
func (h *SourceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	src, err := h.sources.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "GetSource", err)
		return
	}
	response.RespondOK(c, src)
}

// PUT /api/v1/sources/:id
func (h *SourceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Name            *string                `json:"name"`
		Type            *types.SourceType      `json:"type"`
		URL             *string                `json:"url"`
		UpdateFrequency *types.UpdateFrequency `json:"update_frequency"`
		Priority        *types.Priority        `json:"priority"`
		Status          *types.SourceStatus    `json:"status"`
		Filters         types.Params           `json:"filters"`
		Credentials     types.Params           `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	src, err := h.sources.Update(c.Request.Context(), id, services.SourcePatch{
		Name:            req.Name,
		Type:            req.Type,
		URL:             req.URL,
		UpdateFrequency: req.UpdateFrequency,
		Priority:        req.Priority,
		Status:          req.Status,
		Filters:         req.Filters,
		Credentials:     req.Credentials,
	})
	if err != nil {
		fail(c, h.log, "UpdateSource", err)
		return
	}
	response.RespondOK(c, src)
}

// DELETE /api/v1/sources/:id
func (h *SourceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.sources.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "DeleteSource", err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/v1/sources/:id/refresh
func (h *SourceHandler) Refresh(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.sources.Refresh(c.Request.Context(), id); err != nil {
		fail(c, h.log, "RefreshSource", err)
		return
	}
	response.RespondAccepted(c, "source refresh task accepted")
}
