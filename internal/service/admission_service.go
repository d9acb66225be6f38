package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	"github.com/rossmikee121/schoolrepr/pkg/database"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

type admissionStore interface {
	GetProgram(ctx context.Context, q sqlx.ExtContext, programID string) (*models.Program, error)
	LockDivisionTx(ctx context.Context, tx *sqlx.Tx, divisionID string) (*models.Division, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
}

type admissionNumbering interface {
	AllocateRollNumberTx(ctx context.Context, tx *sqlx.Tx, program *models.Program, academicPeriod, division string) (string, error)
	AllocateAdmissionNumberTx(ctx context.Context, tx *sqlx.Tx, year int) (string, error)
}

// AdmissionService admits students. The student row and both numbers are
// committed together or not at all.
type AdmissionService struct {
	db        database.Beginner
	students  admissionStore
	sequences admissionNumbering
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdmissionService constructs the service.
func NewAdmissionService(db database.Beginner, students admissionStore, sequences admissionNumbering, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		db:        db,
		students:  students,
		sequences: sequences,
		validator: newValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// Admit creates the student with freshly allocated roll and admission numbers.
func (s *AdmissionService) Admit(ctx context.Context, req dto.AdmitStudentRequest) (*models.Student, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return nil, err
	}
	admissionDate := s.now().UTC()
	if req.AdmissionDate != nil {
		admissionDate = req.AdmissionDate.UTC()
	}

	var student *models.Student
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		division, err := s.students.LockDivisionTx(ctx, tx, req.DivisionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "division not found")
			}
			return err
		}
		if division.ProgramID != req.ProgramID {
			return appErrors.Clone(appErrors.ErrValidation, "division does not belong to program")
		}
		if division.Capacity > 0 && division.CurrentStrength >= division.Capacity {
			return appErrors.Clone(appErrors.ErrConflict, "division is full")
		}
		program, err := s.students.GetProgram(ctx, tx, req.ProgramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "program not found")
			}
			return err
		}

		rollNumber, err := s.sequences.AllocateRollNumberTx(ctx, tx, program, req.AcademicPeriod, division.Name)
		if err != nil {
			return err
		}
		admissionNumber, err := s.sequences.AllocateAdmissionNumberTx(ctx, tx, admissionDate.Year())
		if err != nil {
			return err
		}

		divisionID := division.ID
		candidate := &models.Student{
			AdmissionNumber: admissionNumber,
			RollNumber:      rollNumber,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			DateOfBirth:     req.DateOfBirth,
			Gender:          req.Gender,
			ProgramID:       program.ID,
			DivisionID:      &divisionID,
			AcademicYear:    req.AcademicPeriod,
			AdmissionDate:   admissionDate,
			Status:          models.StudentStatusActive,
		}
		if err := s.students.CreateTx(ctx, tx, candidate); err != nil {
			if errors.Is(err, repository.ErrDivisionFull) {
				return appErrors.Clone(appErrors.ErrConflict, "division is full")
			}
			return err
		}
		student = candidate
		return nil
	})
	if err != nil {
		s.logger.Sugar().Warnw("student admission failed", "program_id", req.ProgramID, "division_id", req.DivisionID, "error", err)
		return nil, storageError(err, "failed to admit student")
	}

	s.logger.Sugar().Infow("student admitted", "student_id", student.ID, "admission_number", student.AdmissionNumber, "roll_number", student.RollNumber)
	return student, nil
}
