package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
	"github.com/rossmikee121/schoolrepr/pkg/jobs"
	"github.com/rossmikee121/schoolrepr/pkg/storage"
)

// ExportJobType is the queue job type of report exports.
const ExportJobType = "report_export"

const (
	staleExportMessage = "export interrupted"
	recoveryBatch      = 100
	cleanupBatch       = 100
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ReportExport) error
	GetByID(ctx context.Context, id string) (*models.ReportExport, error)
	MarkProcessing(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id, message string) (bool, error)
	FailStaleProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error)
	ClearFilePath(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.ReportExport, error)
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExport, error)
	ListByOwner(ctx context.Context, filter models.ReportExportFilter) ([]models.ReportExport, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportServiceConfig governs export limits, dispatch, recovery and cleanup.
type ReportServiceConfig struct {
	ExportLimit          int
	Inline               bool
	DownloadBaseURL      string
	ResultTTL            time.Duration
	CleanupInterval      time.Duration
	StaleProcessingAfter time.Duration
}

// ReportDownload is an opened export file ready to be streamed.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ReportService runs the export job lifecycle: pending, processing, then
// completed or failed. Every transition is conditional, so running Process
// twice for the same job is harmless.
type ReportService struct {
	repo      exportJobStore
	validator *ConfigValidator
	executor  reportRunner
	exporter  *ExportService
	queue     jobDispatcher
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the export service. A nil queue processes jobs inline.
func NewReportService(repo exportJobStore, cfgValidator *ConfigValidator, executor reportRunner, exporter *ExportService, queue jobDispatcher, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = 1000000
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.StaleProcessingAfter <= 0 {
		cfg.StaleProcessingAfter = 30 * time.Minute
	}
	return &ReportService{
		repo:      repo,
		validator: cfgValidator,
		executor:  executor,
		exporter:  exporter,
		queue:     queue,
		metrics:   metrics,
		validate:  newValidator(nil),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateJob validates the request, persists a pending job and dispatches it.
func (s *ReportService) CreateJob(ctx context.Context, req dto.CreateExportRequest, ownerID string) (*dto.ExportResponse, error) {
	if err := validatePayload(s.validate, req); err != nil {
		return nil, err
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	vc, err := s.validator.Validate(req.Configuration)
	if err != nil {
		return nil, err
	}

	job := &models.ReportExport{
		Name:          req.Name,
		Format:        req.Format,
		Configuration: vc.Normalized,
		OwnerID:       ownerID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, repoError(err, "failed to create export job")
	}
	s.dispatch(ctx, job.ID)

	if refreshed, err := s.repo.GetByID(ctx, job.ID); err == nil {
		job = refreshed
	}
	return s.toResponse(job), nil
}

// dispatch enqueues the job, or processes it inline when configured to or the
// queue cannot take it.
func (s *ReportService) dispatch(ctx context.Context, id string) {
	if !s.cfg.Inline && s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: id, Type: ExportJobType})
		if err == nil {
			return
		}
		s.logger.Sugar().Warnw("export queue unavailable, processing inline", "export_id", id, "error", err)
	}
	if err := s.Process(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Sugar().Warnw("inline export processing failed", "export_id", id, "error", err)
	}
}

// Process runs a pending job to a terminal state. It returns an error only
// when the job could not be claimed, so a retry may succeed.
func (s *ReportService) Process(ctx context.Context, id string) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Sugar().Warnw("export job vanished", "export_id", id)
			return nil
		}
		return repoError(err, "failed to load export job")
	}
	if job.Status != models.ExportStatusPending {
		return nil
	}
	claimed, err := s.repo.MarkProcessing(ctx, id)
	if err != nil {
		return repoError(err, "failed to claim export job")
	}
	if !claimed {
		return nil
	}

	rendered, err := s.render(ctx, job)
	if err != nil {
		s.fail(ctx, job, err)
		return nil
	}
	completed, err := s.repo.MarkCompleted(ctx, id, rendered.RelativePath, s.now().UTC())
	if err != nil || !completed {
		if delErr := s.exporter.Delete(rendered.RelativePath); delErr != nil {
			s.logger.Sugar().Warnw("remove unpublished export failed", "export_id", id, "error", delErr)
		}
		if err != nil {
			s.fail(ctx, job, err)
		}
		return nil
	}

	s.metrics.RecordExport(string(job.Format), string(models.ExportStatusCompleted))
	s.logger.Sugar().Infow("export completed", "export_id", id, "format", job.Format, "rows", rendered.Rows)
	return nil
}

func (s *ReportService) render(ctx context.Context, job *models.ReportExport) (*RenderedExport, error) {
	vc, err := s.validator.Validate(job.Configuration)
	if err != nil {
		return nil, err
	}
	result, err := s.executor.ExecuteWithLimit(ctx, vc, s.cfg.ExportLimit)
	if err != nil {
		return nil, err
	}
	return s.exporter.Write(job, result)
}

func (s *ReportService) fail(ctx context.Context, job *models.ReportExport, cause error) {
	s.logger.Sugar().Errorw("export failed", "export_id", job.ID, "format", job.Format, "error", cause)
	typed := appErrors.FromError(cause)
	message := typed.Message
	if len(typed.Details) > 0 {
		message += ": " + strings.Join(typed.Details, "; ")
	}
	if typed.Code == appErrors.ErrInternal.Code {
		message = "export generation failed"
	}
	if _, err := s.repo.MarkFailed(ctx, job.ID, message); err != nil {
		s.logger.Sugar().Warnw("mark export failed", "export_id", job.ID, "error", err)
		return
	}
	s.metrics.RecordExport(string(job.Format), string(models.ExportStatusFailed))
}

// GetStatus returns the job for its owner, with a signed download link once completed.
func (s *ReportService) GetStatus(ctx context.Context, id string, requester models.Principal) (*dto.ExportResponse, error) {
	job, err := s.ownedJob(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	return s.toResponse(job), nil
}

// ListForOwner pages through the requester's exports.
func (s *ReportService) ListForOwner(ctx context.Context, requester models.Principal, query dto.ListExportsQuery) ([]dto.ExportResponse, *models.Pagination, error) {
	if err := validatePayload(s.validate, query); err != nil {
		return nil, nil, err
	}
	filter := models.ReportExportFilter{OwnerID: requester.UserID, Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status := models.ExportStatus(query.Status)
		filter.Status = &status
	}
	list, total, err := s.repo.ListByOwner(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "failed to list export jobs")
	}
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	out := make([]dto.ExportResponse, 0, len(list))
	for i := range list {
		out = append(out, *s.toResponse(&list[i]))
	}
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Download opens the export file for its owner.
func (s *ReportService) Download(ctx context.Context, id string, requester models.Principal) (*ReportDownload, error) {
	job, err := s.ownedJob(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	return s.open(job)
}

// DownloadByToken opens the export file referenced by a signed download token.
func (s *ReportService) DownloadByToken(ctx context.Context, token string) (*ReportDownload, error) {
	signed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAccessDenied.Code, appErrors.ErrAccessDenied.Status, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, signed.ExportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, repoError(err, "failed to load export job")
	}
	if job.Status != models.ExportStatusCompleted {
		return nil, appErrors.ErrJobNotReady
	}
	if job.FilePath == nil || *job.FilePath != signed.Path {
		return nil, appErrors.ErrJobFileMissing
	}
	return s.open(job)
}

func (s *ReportService) open(job *models.ReportExport) (*ReportDownload, error) {
	if job.Status != models.ExportStatusCompleted {
		return nil, appErrors.ErrJobNotReady
	}
	if job.FilePath == nil || *job.FilePath == "" {
		return nil, appErrors.ErrJobFileMissing
	}
	file, err := s.exporter.Open(*job.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, appErrors.ErrJobFileMissing
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open export file")
	}
	contentType := "application/octet-stream"
	if renderer, ok := s.exporter.Renderer(job.Format); ok {
		contentType = renderer.ContentType()
	}
	return &ReportDownload{File: file, Filename: downloadFilename(job), ContentType: contentType}, nil
}

func (s *ReportService) ownedJob(ctx context.Context, id string, requester models.Principal) (*models.ReportExport, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, repoError(err, "failed to load export job")
	}
	if job.OwnerID != requester.UserID {
		return nil, appErrors.ErrAccessDenied
	}
	return job, nil
}

func (s *ReportService) toResponse(job *models.ReportExport) *dto.ExportResponse {
	resp := &dto.ExportResponse{
		ID:           job.ID,
		Name:         job.Name,
		Format:       job.Format,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
	}
	if job.Status == models.ExportStatusCompleted && job.FilePath != nil {
		token, expiresAt, err := s.exporter.Sign(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Sugar().Warnw("sign export download failed", "export_id", job.ID, "error", err)
			return resp
		}
		url := strings.TrimRight(s.cfg.DownloadBaseURL, "/") + "/" + token
		resp.DownloadURL = &url
		resp.DownloadExpiresAt = &expiresAt
	}
	return resp
}

// RecoverPendingJobs fails jobs stuck in processing past the stale threshold
// and dispatches every pending job again, e.g. after a restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.cfg.StaleProcessingAfter)
	if n, err := s.repo.FailStaleProcessing(ctx, cutoff, staleExportMessage); err != nil {
		s.logger.Sugar().Warnw("failed to expire stale exports", "error", err)
	} else if n > 0 {
		s.logger.Sugar().Infow("expired stale exports", "count", n)
	}

	pending, err := s.repo.ListPending(ctx, recoveryBatch)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover pending exports", "error", err)
		return
	}
	for _, job := range pending {
		s.dispatch(ctx, job.ID)
	}
}

// StartCleanup boots a goroutine that purges expired export files periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of completed exports older than the result TTL.
// Their status stays completed; downloads then report the file as missing.
func (s *ReportService) CleanupExpired(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.cfg.ResultTTL)
	for {
		expired, err := s.repo.ListCompletedBefore(ctx, cutoff, cleanupBatch)
		if err != nil {
			s.logger.Sugar().Warnw("cleanup list failed", "error", err)
			return
		}
		cleared := 0
		for _, job := range expired {
			if job.FilePath != nil {
				if err := s.exporter.Delete(*job.FilePath); err != nil {
					s.logger.Sugar().Warnw("cleanup delete failed", "export_id", job.ID, "error", err)
					continue
				}
			}
			if err := s.repo.ClearFilePath(ctx, job.ID); err != nil {
				s.logger.Sugar().Warnw("cleanup clear failed", "export_id", job.ID, "error", err)
				continue
			}
			cleared++
		}
		if len(expired) < cleanupBatch || cleared == 0 {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

// ReportWorker bridges queue jobs to ReportService.Process.
type ReportWorker struct {
	service *ReportService
}

// NewReportWorker constructs a worker.
func NewReportWorker(service *ReportService) *ReportWorker {
	return &ReportWorker{service: service}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	return w.service.Process(ctx, job.ID)
}

// IsRetryable reports whether a failed job should be queued again. Only
// transient storage failures qualify.
func IsRetryable(err error) bool {
	var typed *appErrors.Error
	return errors.As(err, &typed) && typed.Temporary()
}

// repoError maps repository failures onto the error taxonomy.
func repoError(err error, message string) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func downloadFilename(job *models.ReportExport) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(job.Name, "_"), "_")
	if base == "" {
		base = "report"
	}
	ext := strings.TrimPrefix(filepath.Ext(derefString(job.FilePath)), ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
