package service

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/export"
	"github.com/rossmikee121/schoolrepr/pkg/storage"
)

const exportDir = "reports"

type fileStorage interface {
	WriteAtomic(relPath string, write func(w io.Writer) error) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// RenderedExport describes a file written for an export job.
type RenderedExport struct {
	RelativePath string
	ContentType  string
	Rows         int
}

// ExportService renders report results into files and signs download links.
type ExportService struct {
	storage   fileStorage
	renderers map[models.ExportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the csv, excel and pdf renderers.
func NewExportService(files fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		storage: files,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV:   export.NewCSVExporter(),
			models.ExportFormatExcel: export.NewExcelExporter(),
			models.ExportFormatPDF:   export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
	}
}

// Renderer returns the renderer registered for format.
func (s *ExportService) Renderer(format models.ExportFormat) (export.Renderer, bool) {
	r, ok := s.renderers[format]
	return r, ok
}

// Write renders result for job and stores it atomically. Nothing is visible at
// the returned path until the whole file has been written and synced.
func (s *ExportService) Write(job *models.ReportExport, result *ReportResult) (*RenderedExport, error) {
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", job.Format)
	}
	relPath := path.Join(exportDir, job.ID+"."+renderer.Extension())
	data := BuildDataset(result)

	if _, err := s.storage.WriteAtomic(relPath, func(w io.Writer) error {
		return renderer.Render(w, data, job.Name)
	}); err != nil {
		return nil, err
	}
	return &RenderedExport{RelativePath: relPath, ContentType: renderer.ContentType(), Rows: len(data.Rows)}, nil
}

// Sign issues a download token for a stored export file.
func (s *ExportService) Sign(exportID, relPath string) (string, time.Time, error) {
	return s.signer.Generate(exportID, relPath)
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open opens a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes any stored file older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

// BuildDataset flattens a report result. Headers are the column aliases in
// projection order.
func BuildDataset(result *ReportResult) export.Dataset {
	data := export.Dataset{Headers: make([]string, 0, len(result.Columns)), Rows: make([]map[string]string, 0, len(result.Rows))}
	for _, c := range result.Columns {
		data.Headers = append(data.Headers, c.Key)
	}
	if len(data.Headers) == 0 && len(result.Rows) > 0 {
		for k := range result.Rows[0] {
			data.Headers = append(data.Headers, k)
		}
		sort.Strings(data.Headers)
	}
	for _, row := range result.Rows {
		record := make(map[string]string, len(data.Headers))
		for _, h := range data.Headers {
			record[h] = formatCell(row[h])
		}
		data.Rows = append(data.Rows, record)
	}
	return data
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return formatCell(*val)
	default:
		return cast.ToString(val)
	}
}
