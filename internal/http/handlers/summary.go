package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/newsboy-backend/internal/data/repos"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/logger"
	"github.com/yungbote/newsboy-backend/internal/services"
)

const generateAccepted = "summary generation task accepted"

type SummaryHandler struct {
	log        *logger.Logger
	summaries  services.SummaryService
	generation services.GenerationService
}

func NewSummaryHandler(log *logger.Logger, summaries services.SummaryService, generation services.GenerationService) *SummaryHandler {
	return &SummaryHandler{
		log:        log.With("handler", "SummaryHandler"),
		summaries:  summaries,
		generation: generation,
	}
}

func summaryFilter(c *gin.Context) (repos.SummaryListFilter, error) {
	f := repos.SummaryListFilter{
		Tag:    strings.TrimSpace(c.Query("tag")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	var err error
	if f.IsArchived, err = queryBool(c, "is_archived"); err != nil {
		return f, err
	}
	if f.IsImportant, err = queryBool(c, "is_important"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(c.Query("source_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("source_id must be a uuid")
		}
		f.SourceID = &id
	}
	return f, nil
}

// GET /api/v1/summaries
func (h *SummaryHandler) List(c *gin.Context) {
	w, err := window(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := summaryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	sort := repos.NormalizeSummarySort(c.Query("sort_field"), c.Query("sort_order"))
	page, err := h.summaries.List(c.Request.Context(), f, sort, w)
	if err != nil {
		fail(c, h.log, "ListSummaries", err)
		return
	}
	response.RespondOK(c, page)
}

// POST /api/v1/summaries
func (h *SummaryHandler) Create(c *gin.Context) {
	var req struct {
		Title     string      `json:"title"`
		Content   string      `json:"content"`
		KeyPoints []string    `json:"key_points"`
		Tags      []string    `json:"tags"`
		SourceIDs []uuid.UUID `json:"source_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.summaries.Create(c.Request.Context(), services.SummaryInput{
		Title:     req.Title,
		Content:   req.Content,
		KeyPoints: req.KeyPoints,
		Tags:      req.Tags,
		SourceIDs: req.SourceIDs,
	})
	if err != nil {
		fail(c, h.log, "CreateSummary", err)
		return
	}
	response.RespondCreated(c, s)
}

// GET /api/v1/summaries/:id
func (h *SummaryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.summaries.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "GetSummary", err)
		return
	}
	response.RespondOK(c, s)
}

// GET /api/v1/summaries/:id/html
func (h *SummaryHandler) HTML(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, err := h.summaries.RenderHTML(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "RenderSummary", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// PUT /api/v1/summaries/:id
func (h *SummaryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Title       *string      `json:"title"`
		Content     *string      `json:"content"`
		KeyPoints   *[]string    `json:"key_points"`
		Tags        *[]string    `json:"tags"`
		IsArchived  *bool        `json:"is_archived"`
		IsImportant *bool        `json:"is_important"`
		SourceIDs   *[]uuid.UUID `json:"source_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.summaries.Update(c.Request.Context(), id, services.SummaryPatch{
		Title:       req.Title,
		Content:     req.Content,
		KeyPoints:   req.KeyPoints,
		Tags:        req.Tags,
		IsArchived:  req.IsArchived,
		IsImportant: req.IsImportant,
		SourceIDs:   req.SourceIDs,
	})
	if err != nil {
		fail(c, h.log, "UpdateSummary", err)
		return
	}
	response.RespondOK(c, s)
}

// DELETE /api/v1/summaries/:id
func (h *SummaryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.summaries.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, "DeleteSummary", err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/v1/summaries/:id/archive
func (h *SummaryHandler) ToggleArchive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.summaries.ToggleArchive(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "ToggleArchive", err)
		return
	}
	response.RespondOK(c, s)
}

// POST /api/v1/summaries/:id/important
func (h *SummaryHandler) ToggleImportant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.summaries.ToggleImportant(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "ToggleImportant", err)
		return
	}
	response.RespondOK(c, s)
}

// POST /api/v1/summaries/generate validates synchronously and replies 202;
// the pipeline runs after the response is flushed.
func (h *SummaryHandler) Generate(c *gin.Context) {
	var req struct {
		SourceIDs  []uuid.UUID  `json:"source_ids"`
		TemplateID *uuid.UUID   `json:"template_id"`
		Parameters types.Params `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.generation.Generate(c.Request.Context(), services.GenerateRequest{
		SourceIDs:  req.SourceIDs,
		TemplateID: req.TemplateID,
		Parameters: req.Parameters,
	})
	if err != nil {
		fail(c, h.log, "GenerateSummary", err)
		return
	}
	response.RespondAccepted(c, generateAccepted)
}
