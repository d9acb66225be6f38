package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/middleware"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/service"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

type reportBuilder interface {
	ListModels() []string
	ListColumns(model string) ([]service.ModelInfo, error)
	Build(ctx context.Context, cfg models.ReportConfiguration) (*service.BuildResult, error)
}

type reportExporter interface {
	CreateJob(ctx context.Context, req dto.CreateExportRequest, ownerID string) (*dto.ExportResponse, error)
	GetStatus(ctx context.Context, id string, requester models.Principal) (*dto.ExportResponse, error)
	ListForOwner(ctx context.Context, requester models.Principal, query dto.ListExportsQuery) ([]dto.ExportResponse, *models.Pagination, error)
	Download(ctx context.Context, id string, requester models.Principal) (*service.ReportDownload, error)
	DownloadByToken(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes the report builder and export endpoints.
type ReportHandler struct {
	builder reportBuilder
	exports reportExporter
}

// NewReportHandler constructs the handler.
func NewReportHandler(builder reportBuilder, exports reportExporter) *ReportHandler {
	return &ReportHandler{builder: builder, exports: exports}
}

// Models godoc
// @Summary List reportable models
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/models [get]
func (h *ReportHandler) Models(c *gin.Context) {
	response.OK(c, h.builder.ListModels())
}

// Columns godoc
// @Summary List allow-listed columns
// @Tags Reports
// @Produce json
// @Param model query string false "Model key; all models when omitted"
// @Success 200 {object} response.Envelope
// @Router /reports/columns [get]
func (h *ReportHandler) Columns(c *gin.Context) {
	columns, err := h.builder.ListColumns(c.Query("model"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, columns)
}

// Build godoc
// @Summary Preview an ad-hoc report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.ReportConfiguration true "Report configuration"
// @Success 200 {object} response.Envelope
// @Router /reports/build [post]
func (h *ReportHandler) Build(c *gin.Context) {
	var cfg models.ReportConfiguration
	if !bindJSON(c, &cfg) {
		return
	}
	result, err := h.builder.Build(c.Request.Context(), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	response.OK(c, result, middleware.ExtractMeta(c))
}

// CreateExport godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) CreateExport(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req dto.CreateExportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), req, principal.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ListExports godoc
// @Summary List the caller's export jobs
// @Tags Reports
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports/exports [get]
func (h *ReportHandler) ListExports(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var query dto.ListExportsQuery
	if !bindQuery(c, &query) {
		return
	}
	jobs, pagination, err := h.exports.ListForOwner(c.Request.Context(), principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, pagination)
}

// ExportStatus godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /reports/exports/{id} [get]
func (h *ReportHandler) ExportStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	job, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// DownloadExport godoc
// @Summary Download a completed export
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Export ID"
// @Success 200 {file} binary
// @Router /reports/exports/{id}/download [get]
func (h *ReportHandler) DownloadExport(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	download, err := h.exports.Download(c.Request.Context(), c.Param("id"), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, download)
}

// DownloadByToken godoc
// @Summary Download an export through a signed link
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/download/{token} [get]
func (h *ReportHandler) DownloadByToken(c *gin.Context) {
	download, err := h.exports.DownloadByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, download)
}

func serveDownload(c *gin.Context, download *service.ReportDownload) {
	defer download.File.Close() //nolint:errcheck
	size := int64(-1)
	if info, err := download.File.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, download.ContentType, download.File, nil)
}
