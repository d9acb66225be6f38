package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

type labStore interface {
	GetLab(ctx context.Context, id string) (*models.Lab, error)
	CreateSessions(ctx context.Context, sessions []models.LabSession) error
	Reassign(ctx context.Context, studentID, fromSessionID, toSessionID string) (bool, error)
	ListSessions(ctx context.Context, filter models.LabSessionFilter) ([]models.LabSession, error)
}

type divisionRoster interface {
	ListActiveIDsByDivision(ctx context.Context, divisionID string) ([]string, error)
}

// Partition splits roster into ceil(len/capacity) contiguous batches in roster
// order. Every batch but the last holds exactly capacity students.
func Partition(roster []string, capacity int) [][]string {
	if capacity < 1 || len(roster) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(roster)+capacity-1)/capacity)
	for start := 0; start < len(roster); start += capacity {
		end := start + capacity
		if end > len(roster) {
			end = len(roster)
		}
		batches = append(batches, append([]string(nil), roster[start:end]...))
	}
	return batches
}

// LabBatchService splits students into lab sessions and moves them between sessions.
type LabBatchService struct {
	labs      labStore
	students  divisionRoster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLabBatchService constructs the service.
func NewLabBatchService(labs labStore, students divisionRoster, validate *validator.Validate, logger *zap.Logger) *LabBatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabBatchService{labs: labs, students: students, validator: newValidator(validate), logger: logger}
}

// CreateBatches persists one session per batch with its assignments. An empty
// roster creates nothing.
func (s *LabBatchService) CreateBatches(ctx context.Context, roster []string, capacity int, meta models.LabSessionMeta) ([]models.LabSession, error) {
	if capacity < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be at least 1")
	}
	if meta.SubjectName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_name is required")
	}
	seen := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", id))
		}
		seen[id] = struct{}{}
	}

	batches := Partition(roster, capacity)
	sessions := make([]models.LabSession, 0, len(batches))
	for i, batch := range batches {
		sessions = append(sessions, models.LabSession{
			LabID:        meta.LabID,
			DivisionID:   meta.DivisionID,
			SubjectName:  meta.SubjectName,
			BatchNumber:  i + 1,
			MaxStudents:  capacity,
			SessionDate:  meta.SessionDate,
			StartTime:    meta.StartTime,
			EndTime:      meta.EndTime,
			InstructorID: meta.InstructorID,
			StudentIDs:   batch,
		})
	}
	if len(sessions) == 0 {
		return sessions, nil
	}
	if err := s.labs.CreateSessions(ctx, sessions); err != nil {
		s.logger.Sugar().Errorw("create lab batches failed", "subject", meta.SubjectName, "error", err)
		return nil, storageError(err, "failed to create lab batches")
	}
	s.logger.Sugar().Infow("lab batches created", "subject", meta.SubjectName, "batches", len(sessions), "students", len(roster))
	return sessions, nil
}

// CreateBatchesFromRequest validates an explicit roster request and creates its batches.
func (s *LabBatchService) CreateBatchesFromRequest(ctx context.Context, req dto.CreateLabBatchesRequest) ([]models.LabSession, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return nil, err
	}
	return s.CreateBatches(ctx, req.StudentIDs, req.Capacity, sessionMeta(req.LabSessionDetails, req.LabID, req.DivisionID))
}

// CreateDivisionBatches batches the active students of a division by the lab's capacity.
func (s *LabBatchService) CreateDivisionBatches(ctx context.Context, req dto.CreateDivisionBatchesRequest) ([]models.LabSession, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return nil, err
	}
	lab, err := s.labs.GetLab(ctx, req.LabID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return nil, storageError(err, "failed to load lab")
	}
	if lab.Capacity < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lab has no capacity")
	}
	roster, err := s.students.ListActiveIDsByDivision(ctx, req.DivisionID)
	if err != nil {
		return nil, storageError(err, "failed to load division roster")
	}
	labID, divisionID := lab.ID, req.DivisionID
	return s.CreateBatches(ctx, roster, lab.Capacity, sessionMeta(req.LabSessionDetails, &labID, &divisionID))
}

// Reassign moves a student between sessions. It reports false when either
// session is missing, the sessions are the same, the student is not in the
// source session or the destination is full.
func (s *LabBatchService) Reassign(ctx context.Context, studentID, fromSessionID, toSessionID string) (bool, error) {
	if studentID == "" || fromSessionID == "" || toSessionID == "" || fromSessionID == toSessionID {
		return false, nil
	}
	moved, err := s.labs.Reassign(ctx, studentID, fromSessionID, toSessionID)
	if err != nil {
		s.logger.Sugar().Errorw("lab reassignment failed", "student_id", studentID, "from", fromSessionID, "to", toSessionID, "error", err)
		return false, storageError(err, "failed to reassign student")
	}
	return moved, nil
}

// ListSessions returns sessions with their assigned students.
func (s *LabBatchService) ListSessions(ctx context.Context, filter models.LabSessionFilter) ([]models.LabSession, error) {
	sessions, err := s.labs.ListSessions(ctx, filter)
	if err != nil {
		return nil, storageError(err, "failed to list lab sessions")
	}
	return sessions, nil
}

func sessionMeta(d dto.LabSessionDetails, labID, divisionID *string) models.LabSessionMeta {
	return models.LabSessionMeta{
		LabID:        labID,
		DivisionID:   divisionID,
		SubjectName:  d.SubjectName,
		SessionDate:  d.SessionDate,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		InstructorID: d.InstructorID,
	}
}
