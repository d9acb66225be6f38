package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/middleware"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/service"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

type templateService interface {
	List(ctx context.Context, requester models.Principal, query dto.ListTemplatesQuery) ([]models.ReportTemplate, error)
	Get(ctx context.Context, id string, requester models.Principal) (*models.ReportTemplate, error)
	Create(ctx context.Context, req dto.CreateTemplateRequest, requester models.Principal) (*models.ReportTemplate, error)
	Update(ctx context.Context, id string, req dto.UpdateTemplateRequest, requester models.Principal) (*models.ReportTemplate, error)
	Delete(ctx context.Context, id string, requester models.Principal) error
	Run(ctx context.Context, id string, requester models.Principal) (*service.BuildResult, error)
}

// ReportTemplateHandler exposes saved report templates.
type ReportTemplateHandler struct {
	templates templateService
}

// NewReportTemplateHandler constructs the handler.
func NewReportTemplateHandler(templates templateService) *ReportTemplateHandler {
	return &ReportTemplateHandler{templates: templates}
}

// List godoc
// @Summary List readable report templates
// @Tags Report Templates
// @Produce json
// @Param category query string false "Category"
// @Param public_only query bool false "Only public templates"
// @Success 200 {object} response.Envelope
// @Router /reports/templates [get]
func (h *ReportTemplateHandler) List(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var query dto.ListTemplatesQuery
	if !bindQuery(c, &query) {
		return
	}
	templates, err := h.templates.List(c.Request.Context(), principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, templates)
}

// Get godoc
// @Summary Get a report template
// @Tags Report Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /reports/templates/{id} [get]
func (h *ReportTemplateHandler) Get(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tpl)
}

// Create godoc
// @Summary Save a report template
// @Tags Report Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template"
// @Success 201 {object} response.Envelope
// @Router /reports/templates [post]
func (h *ReportTemplateHandler) Create(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.templates.Create(c.Request.Context(), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tpl)
}

// Update godoc
// @Summary Update a report template
// @Tags Report Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.UpdateTemplateRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /reports/templates/{id} [put]
func (h *ReportTemplateHandler) Update(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req dto.UpdateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tpl)
}

// Delete godoc
// @Summary Delete a report template
// @Tags Report Templates
// @Param id path string true "Template ID"
// @Success 204
// @Router /reports/templates/{id} [delete]
func (h *ReportTemplateHandler) Delete(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), c.Param("id"), principal); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Run godoc
// @Summary Run a saved report template
// @Tags Report Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /reports/templates/{id}/run [post]
func (h *ReportTemplateHandler) Run(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	result, err := h.templates.Run(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	response.OK(c, result, middleware.ExtractMeta(c))
}
