package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	"github.com/rossmikee121/schoolrepr/pkg/database"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
	"github.com/rossmikee121/schoolrepr/pkg/lock"
)

type sequenceStore interface {
	DB() *sqlx.DB
	Next(ctx context.Context, tx *sqlx.Tx, key models.SequenceKey) (int64, error)
}

type programLookup interface {
	GetProgram(ctx context.Context, q sqlx.ExtContext, programID string) (*models.Program, error)
}

// FormatRollNumber renders e.g. 2024-25/CS/A/007.
func FormatRollNumber(academicPeriod, programCode, division string, n int64) string {
	return fmt.Sprintf("%s/%s/%s/%03d", academicPeriod, programCode, division, n)
}

// FormatAdmissionNumber renders e.g. ADM20240001.
func FormatAdmissionNumber(year int, n int64) string {
	return fmt.Sprintf("ADM%d%04d", year, n)
}

// FormatReceiptNumber renders e.g. RCP2024000001.
func FormatReceiptNumber(year int, n int64) string {
	return fmt.Sprintf("RCP%d%06d", year, n)
}

// SequenceService hands out gap-free numbers per key. The counter row lock
// serialises allocators; the optional distributed lock only narrows contention
// on the database across instances.
type SequenceService struct {
	store    sequenceStore
	programs programLookup
	locker   lock.Locker
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSequenceService constructs the allocator. A nil locker disables distributed locking.
func NewSequenceService(store sequenceStore, programs programLookup, locker lock.Locker, metrics *MetricsService, logger *zap.Logger) *SequenceService {
	if locker == nil {
		locker = lock.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceService{store: store, programs: programs, locker: locker, metrics: metrics, logger: logger}
}

// AllocateNext allocates the next value of key in its own transaction.
func (s *SequenceService) AllocateNext(ctx context.Context, key models.SequenceKey) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	release, err := s.locker.Acquire(ctx, key.String())
	if err != nil {
		s.logger.Sugar().Warnw("sequence lock not acquired", "key", key.String(), "error", err)
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "sequence is busy, retry")
	}
	defer release()

	var value int64
	err = database.WithTx(ctx, s.store.DB(), nil, func(tx *sqlx.Tx) error {
		v, err := s.store.Next(ctx, tx, key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		s.logger.Sugar().Errorw("sequence allocation failed", "key", key.String(), "error", err)
		return 0, storageError(err, "failed to allocate sequence number")
	}
	s.metrics.RecordSequenceAllocation(string(key.Scope))
	return value, nil
}

// AllocateNextTx allocates inside the caller's transaction. The increment
// commits or rolls back with it.
func (s *SequenceService) AllocateNextTx(ctx context.Context, tx *sqlx.Tx, key models.SequenceKey) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	value, err := s.store.Next(ctx, tx, key)
	if err != nil {
		return 0, storageError(err, "failed to allocate sequence number")
	}
	s.metrics.RecordSequenceAllocation(string(key.Scope))
	return value, nil
}

// AllocateRollNumber resolves the program code and allocates a formatted roll number.
func (s *SequenceService) AllocateRollNumber(ctx context.Context, programID, academicPeriod, division string) (string, error) {
	program, err := s.loadProgram(ctx, s.store.DB(), programID)
	if err != nil {
		return "", err
	}
	n, err := s.AllocateNext(ctx, models.RollNumberKey(program.ID, academicPeriod, division))
	if err != nil {
		return "", err
	}
	return FormatRollNumber(academicPeriod, program.Code, division, n), nil
}

// AllocateRollNumberTx is AllocateRollNumber inside the caller's transaction.
func (s *SequenceService) AllocateRollNumberTx(ctx context.Context, tx *sqlx.Tx, program *models.Program, academicPeriod, division string) (string, error) {
	n, err := s.AllocateNextTx(ctx, tx, models.RollNumberKey(program.ID, academicPeriod, division))
	if err != nil {
		return "", err
	}
	return FormatRollNumber(academicPeriod, program.Code, division, n), nil
}

// AllocateAdmissionNumber allocates the next admission number of year.
func (s *SequenceService) AllocateAdmissionNumber(ctx context.Context, year int) (string, error) {
	n, err := s.AllocateNext(ctx, models.AdmissionNumberKey(year))
	if err != nil {
		return "", err
	}
	return FormatAdmissionNumber(year, n), nil
}

// AllocateAdmissionNumberTx is AllocateAdmissionNumber inside the caller's transaction.
func (s *SequenceService) AllocateAdmissionNumberTx(ctx context.Context, tx *sqlx.Tx, year int) (string, error) {
	n, err := s.AllocateNextTx(ctx, tx, models.AdmissionNumberKey(year))
	if err != nil {
		return "", err
	}
	return FormatAdmissionNumber(year, n), nil
}

// AllocateReceiptNumber allocates the next receipt number of year.
func (s *SequenceService) AllocateReceiptNumber(ctx context.Context, year int) (string, error) {
	n, err := s.AllocateNext(ctx, models.ReceiptNumberKey(year))
	if err != nil {
		return "", err
	}
	return FormatReceiptNumber(year, n), nil
}

// AllocateReceiptNumberTx is AllocateReceiptNumber inside the caller's transaction.
func (s *SequenceService) AllocateReceiptNumberTx(ctx context.Context, tx *sqlx.Tx, year int) (string, error) {
	n, err := s.AllocateNextTx(ctx, tx, models.ReceiptNumberKey(year))
	if err != nil {
		return "", err
	}
	return FormatReceiptNumber(year, n), nil
}

func (s *SequenceService) loadProgram(ctx context.Context, q sqlx.ExtContext, programID string) (*models.Program, error) {
	if programID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program_id is required")
	}
	program, err := s.programs.GetProgram(ctx, q, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, storageError(err, "failed to load program")
	}
	return program, nil
}

// storageError passes typed errors through and reports everything else as a
// transient storage failure.
func storageError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}
