package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

const labSessionColumns = `id, lab_id, division_id, subject_name, batch_number, max_students, session_date, start_time, end_time, instructor_id, created_at, updated_at`

// LabRepository persists lab sessions and their student assignments.
type LabRepository struct {
	db *sqlx.DB
}

// NewLabRepository constructs the repository.
func NewLabRepository(db *sqlx.DB) *LabRepository {
	return &LabRepository{db: db}
}

// GetLab returns a lab or ErrNotFound.
func (r *LabRepository) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	var lab models.Lab
	if err := r.db.GetContext(ctx, &lab, r.db.Rebind(`SELECT id, name, capacity FROM labs WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get lab", err)
	}
	return &lab, nil
}

// CreateSessions inserts every session with its assignments in one transaction.
func (r *LabRepository) CreateSessions(ctx context.Context, sessions []models.LabSession) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("begin lab batch tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSession = `INSERT INTO lab_sessions (id, lab_id, division_id, subject_name, batch_number, max_students, session_date, start_time, end_time, instructor_id, created_at, updated_at)
VALUES (:id, :lab_id, :division_id, :subject_name, :batch_number, :max_students, :session_date, :start_time, :end_time, :instructor_id, :created_at, :updated_at)`
	const insertAssignment = `INSERT INTO lab_batches (id, lab_session_id, student_id, created_at)
VALUES (:id, :lab_session_id, :student_id, :created_at)`

	now := time.Now().UTC()
	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.CreatedAt, s.UpdatedAt = now, now
		if _, err = tx.NamedExecContext(ctx, insertSession, s); err != nil {
			return classify("insert lab session", err)
		}
		for _, studentID := range s.StudentIDs {
			assignment := models.LabBatchAssignment{ID: uuid.NewString(), LabSessionID: s.ID, StudentID: studentID, CreatedAt: now}
			if _, err = tx.NamedExecContext(ctx, insertAssignment, assignment); err != nil {
				return classify("insert lab assignment", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable("commit lab batch tx", err)
	}
	return nil
}

// Reassign moves a student from one session to another. The destination row
// is locked first so concurrent moves into it are serialised, then a single
// guarded UPDATE performs the move only while the destination has room.
// It reports false when nothing moved.
func (r *LabRepository) Reassign(ctx context.Context, studentID, fromSessionID, toSessionID string) (moved bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, unavailable("begin lab reassign tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE lab_sessions SET updated_at = ? WHERE id = ?`), time.Now().UTC(), toSessionID)
	if err != nil {
		return false, classify("lock lab session", err)
	}
	if n, rowsErr := res.RowsAffected(); rowsErr != nil {
		err = classify("lock lab session", rowsErr)
		return false, err
	} else if n == 0 {
		return false, tx.Rollback()
	}

	var sourceExists int
	if err = tx.GetContext(ctx, &sourceExists, tx.Rebind(`SELECT COUNT(*) FROM lab_sessions WHERE id = ?`), fromSessionID); err != nil {
		return false, classify("check lab session", err)
	}
	if sourceExists == 0 {
		return false, tx.Rollback()
	}

	const move = `UPDATE lab_batches SET lab_session_id = ?
WHERE lab_session_id = ? AND student_id = ?
AND (SELECT COUNT(*) FROM lab_batches dest WHERE dest.lab_session_id = ?) < (SELECT max_students FROM lab_sessions WHERE id = ?)
AND NOT EXISTS (SELECT 1 FROM lab_batches dup WHERE dup.lab_session_id = ? AND dup.student_id = ?)`
	res, err = tx.ExecContext(ctx, tx.Rebind(move),
		toSessionID, fromSessionID, studentID, toSessionID, toSessionID, toSessionID, studentID)
	if err != nil {
		return false, classify("move lab assignment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("move lab assignment", err)
	}

	if err = tx.Commit(); err != nil {
		return false, unavailable("commit lab reassign tx", err)
	}
	return n == 1, nil
}

// ListSessions returns sessions matching the filter with their student ids.
func (r *LabRepository) ListSessions(ctx context.Context, filter models.LabSessionFilter) ([]models.LabSession, error) {
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.LabID != "" {
		clauses = append(clauses, "lab_id = ?")
		args = append(args, filter.LabID)
	}
	if filter.DivisionID != "" {
		clauses = append(clauses, "division_id = ?")
		args = append(args, filter.DivisionID)
	}
	if filter.SubjectName != "" {
		clauses = append(clauses, "subject_name = ?")
		args = append(args, filter.SubjectName)
	}
	query := `SELECT ` + labSessionColumns + ` FROM lab_sessions`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY subject_name ASC, batch_number ASC`

	sessions := make([]models.LabSession, 0)
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(query), args...); err != nil {
		return nil, classify("list lab sessions", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]string, len(sessions))
	index := make(map[string]int, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		index[s.ID] = i
		sessions[i].StudentIDs = make([]string, 0)
	}
	inQuery, inArgs, err := sqlx.In(`SELECT id, lab_session_id, student_id, created_at FROM lab_batches WHERE lab_session_id IN (?) ORDER BY created_at ASC, student_id ASC`, ids)
	if err != nil {
		return nil, classify("build lab assignment query", err)
	}
	var assignments []models.LabBatchAssignment
	if err := r.db.SelectContext(ctx, &assignments, r.db.Rebind(inQuery), inArgs...); err != nil {
		return nil, classify("list lab assignments", err)
	}
	for _, a := range assignments {
		i := index[a.LabSessionID]
		sessions[i].StudentIDs = append(sessions[i].StudentIDs, a.StudentID)
	}
	return sessions, nil
}
