package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

type TemplateHandler struct {
	log       *logger.Logger
	templates services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, templates services.TemplateService) *TemplateHandler {
	return &TemplateHandler{log: log.With("handler", "TemplateHandler"), templates: templates}
}

// GET /api/v1/summary-templates
func (h *TemplateHandler) List(c *gin.Context) {
	rows, err := h.templates.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "ListTemplates", err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /api/v1/summary-templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req struct {
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Parameters  types.Params `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.templates.Create(c.Request.Context(), services.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Parameters:  req.Parameters,
	})
	if err != nil {
		fail(c, h.log, "CreateTemplate", err)
		return
	}
	response.RespondCreated(c, t)
}

// GET /api/v1/summary-templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "GetTemplate", err)
		return
	}
	response.RespondOK(c, t)
}

// PUT /api/v1/summary-templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Name        *string      `json:"name"`
		Description *string      `json:"description"`
		Parameters  types.Params `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.templates.Update(c.Request.Context(), id, services.TemplatePatch{
		Name:        req.Name,
		Description: req.Description,
		Parameters:  req.Parameters,
	})
	if err != nil {
		fail(c, h.log, "UpdateTemplate", err)
		return
	}
	response.RespondOK(c, t)
}

// DELETE /api/v1/summary-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "DeleteTemplate", err)
		return
	}
	response.RespondNoContent(c)
}
