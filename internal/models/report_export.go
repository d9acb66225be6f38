package models

import "time"

// ExportFormat enumerates supported export file formats.
type ExportFormat string

const (
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
	ExportFormatCSV   ExportFormat = "csv"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatExcel, ExportFormatPDF, ExportFormatCSV:
		return true
	}
	return false
}

// ExportStatus captures the export job lifecycle.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "pending"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusCompleted || s == ExportStatusFailed
}

// ReportExport is a persisted asynchronous export job.
type ReportExport struct {
	ID            string              `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Format        ExportFormat        `db:"format" json:"format"`
	Status        ExportStatus        `db:"status" json:"status"`
	FilePath      *string             `db:"file_path" json:"-"`
	Configuration ReportConfiguration `db:"configuration" json:"configuration"`
	OwnerID       string              `db:"owner_id" json:"owner_id"`
	ErrorMessage  *string             `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
}

// ReportExportFilter narrows export listings.
type ReportExportFilter struct {
	OwnerID  string
	Status   *ExportStatus
	Page     int
	PageSize int
}
