package models

import "time"

// TemplateCategory groups report templates in listings.
type TemplateCategory string

const (
	TemplateCategoryStudent        TemplateCategory = "student"
	TemplateCategoryFee            TemplateCategory = "fee"
	TemplateCategoryAcademic       TemplateCategory = "academic"
	TemplateCategoryAdministrative TemplateCategory = "administrative"
)

// ReportTemplate is a saved, named report configuration.
type ReportTemplate struct {
	ID            string              `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Description   *string             `db:"description" json:"description,omitempty"`
	Category      TemplateCategory    `db:"category" json:"category"`
	Configuration ReportConfiguration `db:"configuration" json:"configuration"`
	OwnerID       string              `db:"owner_id" json:"owner_id"`
	IsPublic      bool                `db:"is_public" json:"is_public"`
	IsActive      bool                `db:"is_active" json:"is_active"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the requester may read the template.
func (t ReportTemplate) VisibleTo(requesterID string) bool {
	return t.IsPublic || t.OwnerID == requesterID
}

// ReportTemplateFilter narrows template listings. Active templates only.
type ReportTemplateFilter struct {
	RequesterID string
	Category    *TemplateCategory
	PublicOnly  bool
}

// UpdateReportTemplateParams holds the optional fields of a partial update.
type UpdateReportTemplateParams struct {
	Name          *string
	Description   *string
	Category      *TemplateCategory
	Configuration *ReportConfiguration
	IsPublic      *bool
	IsActive      *bool
}
