package dto

import (
	"time"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

// CreateExportRequest captures POST /reports/export payload.
type CreateExportRequest struct {
	Name          string                     `json:"name" validate:"required,max=255"`
	Format        models.ExportFormat        `json:"format" validate:"required,oneof=excel pdf csv"`
	Configuration models.ReportConfiguration `json:"configuration"`
}

// ExportResponse exposes an export job to its owner. DownloadURL is set once
// the job completed.
type ExportResponse struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Format            models.ExportFormat `json:"format"`
	Status            models.ExportStatus `json:"status"`
	ErrorMessage      *string             `json:"error_message,omitempty"`
	DownloadURL       *string             `json:"download_url,omitempty"`
	DownloadExpiresAt *time.Time          `json:"download_expires_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
}

// ListExportsQuery maps GET /reports/exports query parameters.
type ListExportsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// CreateTemplateRequest captures POST /reports/templates payload.
type CreateTemplateRequest struct {
	Name          string                     `json:"name" validate:"required,max=255"`
	Description   *string                    `json:"description,omitempty"`
	Category      models.TemplateCategory    `json:"category" validate:"required,oneof=student fee academic administrative"`
	Configuration models.ReportConfiguration `json:"configuration"`
	IsPublic      bool                       `json:"is_public"`
}

// UpdateTemplateRequest captures PUT /reports/templates/:id payload. Absent fields are left unchanged.
type UpdateTemplateRequest struct {
	Name          *string                     `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description   *string                     `json:"description,omitempty"`
	Category      *models.TemplateCategory    `json:"category,omitempty" validate:"omitempty,oneof=student fee academic administrative"`
	Configuration *models.ReportConfiguration `json:"configuration,omitempty"`
	IsPublic      *bool                       `json:"is_public,omitempty"`
	IsActive      *bool                       `json:"is_active,omitempty"`
}

// ListTemplatesQuery maps GET /reports/templates query parameters.
type ListTemplatesQuery struct {
	Category   string `form:"category" validate:"omitempty,oneof=student fee academic administrative"`
	PublicOnly bool   `form:"public_only"`
}
