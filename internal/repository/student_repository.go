package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/database"
)

const studentColumns = `id, admission_number, roll_number, first_name, last_name, email, phone, date_of_birth, gender,
program_id, division_id, academic_year, admission_date, status, created_at, updated_at`

// StudentRepository manages student, program and division rows used by admissions and lab batching.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student or ErrNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE id = ?`)
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get student", err)
	}
	return &student, nil
}

// GetProgram loads a program through db or an open transaction.
func (r *StudentRepository) GetProgram(ctx context.Context, q sqlx.ExtContext, programID string) (*models.Program, error) {
	var program models.Program
	query := q.Rebind(`SELECT id, name, code, duration_years, degree_type FROM programs WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &program, query, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get program", err)
	}
	return &program, nil
}

// LockDivisionTx loads a division inside tx, taking a row lock where the driver
// supports one so concurrent admissions see the same strength.
func (r *StudentRepository) LockDivisionTx(ctx context.Context, tx *sqlx.Tx, divisionID string) (*models.Division, error) {
	var division models.Division
	query := tx.Rebind(`SELECT id, program_id, name, capacity, current_strength FROM divisions WHERE id = ?` + database.ForUpdate(tx.DriverName()))
	if err := tx.GetContext(ctx, &division, query, divisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("lock division", err)
	}
	return &division, nil
}

// CreateTx inserts a student inside the caller's unit of work and bumps the
// division strength. ErrDivisionFull is returned when the division has no seat
// left; the caller's rollback discards the insert.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	now := time.Now().UTC()
	student.CreatedAt, student.UpdatedAt = now, now

	const query = `INSERT INTO students (id, admission_number, roll_number, first_name, last_name, email, phone, date_of_birth, gender,
program_id, division_id, academic_year, admission_date, status, created_at, updated_at)
VALUES (:id, :admission_number, :roll_number, :first_name, :last_name, :email, :phone, :date_of_birth, :gender,
:program_id, :division_id, :academic_year, :admission_date, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return classify("create student", err)
	}

	if student.DivisionID != nil {
		update := tx.Rebind(`UPDATE divisions SET current_strength = current_strength + 1
WHERE id = ? AND (capacity <= 0 OR current_strength < capacity)`)
		res, err := tx.ExecContext(ctx, update, *student.DivisionID)
		if err != nil {
			return classify("update division strength", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify("update division strength", err)
		}
		if n == 0 {
			return ErrDivisionFull
		}
	}
	return nil
}

// ListActiveIDsByDivision returns active student ids of a division in roll-number
// order. Shorter roll numbers sort first so .../999 precedes .../1000.
func (r *StudentRepository) ListActiveIDsByDivision(ctx context.Context, divisionID string) ([]string, error) {
	query := r.db.Rebind(`SELECT id FROM students WHERE division_id = ? AND status = ? ORDER BY LENGTH(roll_number) ASC, roll_number ASC, id ASC`)
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, divisionID, models.StudentStatusActive); err != nil {
		return nil, classify("list division students", err)
	}
	return ids, nil
}
