package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

const reportExportColumns = `id, name, format, status, file_path, configuration, owner_id, error_message, created_at, updated_at, completed_at`

// ReportExportRepository persists export jobs. Status transitions are
// conditional updates so a job never leaves a terminal state.
type ReportExportRepository struct {
	db *sqlx.DB
}

// NewReportExportRepository constructs the repository.
func NewReportExportRepository(db *sqlx.DB) *ReportExportRepository {
	return &ReportExportRepository{db: db}
}

// Create inserts a new pending export.
func (r *ReportExportRepository) Create(ctx context.Context, job *models.ReportExport) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.ExportStatusPending
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = job.CreatedAt

	const query = `INSERT INTO report_exports (id, name, format, status, file_path, configuration, owner_id, error_message, created_at, updated_at, completed_at)
VALUES (:id, :name, :format, :status, :file_path, :configuration, :owner_id, :error_message, :created_at, :updated_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return classify("create report export", err)
	}
	return nil
}

// GetByID returns an export by id or ErrNotFound.
func (r *ReportExportRepository) GetByID(ctx context.Context, id string) (*models.ReportExport, error) {
	query := r.db.Rebind(`SELECT ` + reportExportColumns + ` FROM report_exports WHERE id = ?`)
	var job models.ReportExport
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get report export", err)
	}
	return &job, nil
}

// MarkProcessing moves pending to processing. False means another worker got
// there first or the job is already terminal.
func (r *ReportExportRepository) MarkProcessing(ctx context.Context, id string) (bool, error) {
	query := r.db.Rebind(`UPDATE report_exports SET status = ?, updated_at = ? WHERE id = ? AND status = ?`)
	return r.transition(ctx, "mark export processing", query,
		models.ExportStatusProcessing, time.Now().UTC(), id, models.ExportStatusPending)
}

// MarkCompleted moves processing to completed with the published file path.
func (r *ReportExportRepository) MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) (bool, error) {
	query := r.db.Rebind(`UPDATE report_exports SET status = ?, file_path = ?, completed_at = ?, updated_at = ?, error_message = NULL WHERE id = ? AND status = ?`)
	return r.transition(ctx, "mark export completed", query,
		models.ExportStatusCompleted, filePath, completedAt, completedAt, id, models.ExportStatusProcessing)
}

// MarkFailed moves processing to failed with a message.
func (r *ReportExportRepository) MarkFailed(ctx context.Context, id, message string) (bool, error) {
	query := r.db.Rebind(`UPDATE report_exports SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`)
	return r.transition(ctx, "mark export failed", query,
		models.ExportStatusFailed, message, time.Now().UTC(), id, models.ExportStatusProcessing)
}

// FailStaleProcessing fails processing jobs not touched since cutoff.
func (r *ReportExportRepository) FailStaleProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	query := r.db.Rebind(`UPDATE report_exports SET status = ?, error_message = ?, updated_at = ? WHERE status = ? AND updated_at < ?`)
	res, err := r.db.ExecContext(ctx, query, models.ExportStatusFailed, message, time.Now().UTC(), models.ExportStatusProcessing, cutoff)
	if err != nil {
		return 0, classify("fail stale report exports", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("fail stale report exports", err)
	}
	return n, nil
}

// ClearFilePath forgets the file of a completed export after cleanup removed it.
func (r *ReportExportRepository) ClearFilePath(ctx context.Context, id string) error {
	query := r.db.Rebind(`UPDATE report_exports SET file_path = NULL, updated_at = ? WHERE id = ? AND status = ?`)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id, models.ExportStatusCompleted); err != nil {
		return classify("clear report export file", err)
	}
	return nil
}

// ListPending returns pending jobs oldest first, for recovery on boot.
func (r *ReportExportRepository) ListPending(ctx context.Context, limit int) ([]models.ReportExport, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Rebind(`SELECT ` + reportExportColumns + ` FROM report_exports WHERE status = ? ORDER BY created_at ASC LIMIT ?`)
	jobs := make([]models.ReportExport, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusPending, limit); err != nil {
		return nil, classify("list pending report exports", err)
	}
	return jobs, nil
}

// ListCompletedBefore returns completed jobs that still own a file and finished before cutoff.
func (r *ReportExportRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExport, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Rebind(`SELECT ` + reportExportColumns + ` FROM report_exports
WHERE status = ? AND file_path IS NOT NULL AND completed_at < ? ORDER BY completed_at ASC LIMIT ?`)
	jobs := make([]models.ReportExport, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusCompleted, cutoff, limit); err != nil {
		return nil, classify("list completed report exports", err)
	}
	return jobs, nil
}

// ListByOwner pages through the exports of one owner, newest first.
func (r *ReportExportRepository) ListByOwner(ctx context.Context, filter models.ReportExportFilter) ([]models.ReportExport, int, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)
	where := ` WHERE owner_id = ?`
	args := []interface{}{filter.OwnerID}
	if filter.Status != nil {
		where += ` AND status = ?`
		args = append(args, *filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM report_exports`+where), args...); err != nil {
		return nil, 0, classify("count report exports", err)
	}

	query := r.db.Rebind(`SELECT ` + reportExportColumns + ` FROM report_exports` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`)
	jobs := make([]models.ReportExport, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, append(args, size, (page-1)*size)...); err != nil {
		return nil, 0, classify("list report exports", err)
	}
	return jobs, total, nil
}

func (r *ReportExportRepository) transition(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(op, err)
	}
	return n == 1, nil
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
