package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/database"
)

func TestStudentRepositoryCreateTxBumpsDivisionStrength(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO programs (id, name, code) VALUES (?, ?, ?)`, "prog-1", "Computer Science", "CS")
	mustExec(t, db, `INSERT INTO divisions (id, program_id, name, capacity) VALUES (?, ?, ?, ?)`, "div-a", "prog-1", "A", 60)
	repo := NewStudentRepository(db)

	program, err := repo.GetProgram(ctx, db, "prog-1")
	require.NoError(t, err)
	assert.Equal(t, "CS", program.Code)

	_, err = repo.GetProgram(ctx, db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	division := "div-a"
	for _, roll := range []string{"2024-25/CS/A/002", "2024-25/CS/A/001"} {
		err = database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
			return repo.CreateTx(ctx, tx, &models.Student{
				AdmissionNumber: "ADM2024" + roll[len(roll)-4:],
				RollNumber:      roll,
				FirstName:       "Test",
				LastName:        roll,
				ProgramID:       "prog-1",
				DivisionID:      &division,
				AcademicYear:    "2024-25",
				AdmissionDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			})
		})
		require.NoError(t, err)
	}

	err = database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		div, err := repo.LockDivisionTx(ctx, tx, "div-a")
		require.NoError(t, err)
		assert.Equal(t, 2, div.CurrentStrength)
		assert.Equal(t, 60, div.Capacity)

		_, err = repo.LockDivisionTx(ctx, tx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	ids, err := repo.ListActiveIDsByDivision(ctx, "div-a")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	first, err := repo.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "2024-25/CS/A/001", first.RollNumber)
}

func admittedStudent(division, roll string) *models.Student {
	return &models.Student{
		AdmissionNumber: "ADM-" + roll,
		RollNumber:      roll,
		FirstName:       "Test",
		LastName:        roll,
		ProgramID:       "prog-1",
		DivisionID:      &division,
		AcademicYear:    "2024-25",
		AdmissionDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStudentRepositoryCreateTxRejectsFullDivision(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO programs (id, name, code) VALUES (?, ?, ?)`, "prog-1", "Computer Science", "CS")
	mustExec(t, db, `INSERT INTO divisions (id, program_id, name, capacity) VALUES (?, ?, ?, ?)`, "div-a", "prog-1", "A", 1)
	repo := NewStudentRepository(db)

	require.NoError(t, database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		return repo.CreateTx(ctx, tx, admittedStudent("div-a", "2024-25/CS/A/001"))
	}))

	// the guarded increment refuses the seat even when the caller skipped the capacity check
	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		return repo.CreateTx(ctx, tx, admittedStudent("div-a", "2024-25/CS/A/002"))
	})
	assert.ErrorIs(t, err, ErrDivisionFull)

	var students, strength int
	require.NoError(t, db.Get(&students, `SELECT COUNT(*) FROM students`))
	require.NoError(t, db.Get(&strength, `SELECT current_strength FROM divisions WHERE id = 'div-a'`))
	assert.Equal(t, 1, students)
	assert.Equal(t, 1, strength)
}

func TestStudentRepositoryLockDivisionTakesRowLockOnPostgres(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	db := sqlx.NewDb(raw, database.DriverPostgres)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, program_id, name, capacity, current_strength FROM divisions WHERE id = \$1 FOR UPDATE`).
		WithArgs("div-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "program_id", "name", "capacity", "current_strength"}).
			AddRow("div-a", "prog-1", "A", 60, 59))
	mock.ExpectCommit()

	err = database.WithTx(context.Background(), db, nil, func(tx *sqlx.Tx) error {
		div, err := NewStudentRepository(db).LockDivisionTx(context.Background(), tx, "div-a")
		if err != nil {
			return err
		}
		assert.Equal(t, 59, div.CurrentStrength)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListsRosterInNumericRollOrder(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO programs (id, name, code) VALUES (?, ?, ?)`, "prog-1", "Computer Science", "CS")
	mustExec(t, db, `INSERT INTO divisions (id, program_id, name, capacity) VALUES (?, ?, ?, ?)`, "div-a", "prog-1", "A", 0)
	repo := NewStudentRepository(db)

	rolls := []string{"2024-25/CS/A/1000", "2024-25/CS/A/999", "2024-25/CS/A/010", "2024-25/CS/A/1001"}
	for _, roll := range rolls {
		require.NoError(t, database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
			return repo.CreateTx(ctx, tx, admittedStudent("div-a", roll))
		}))
	}

	ids, err := repo.ListActiveIDsByDivision(ctx, "div-a")
	require.NoError(t, err)
	got := make([]string, 0, len(ids))
	for _, id := range ids {
		student, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		got = append(got, student.RollNumber)
	}
	assert.Equal(t, []string{"2024-25/CS/A/010", "2024-25/CS/A/999", "2024-25/CS/A/1000", "2024-25/CS/A/1001"}, got)
}

func TestFeeRepositoryApplyPayment(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO student_fees (id, student_id, total_amount, final_amount, paid_amount, outstanding_amount, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"fee-1", "s-1", "1000.00", "1000.00", "0", "1000.00", "pending")
	repo := NewFeeRepository(db)

	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		fee, err := repo.LockFeeTx(ctx, tx, "s-1", "fee-1")
		if err != nil {
			return err
		}
		amount := decimal.RequireFromString("400.50")
		paid, outstanding, status := fee.Settle(amount)
		return repo.ApplyPaymentTx(ctx, tx, &models.FeePayment{
			StudentFeeID:  fee.ID,
			StudentID:     fee.StudentID,
			ReceiptNumber: "RCP2024000001",
			Amount:        amount,
			PaymentMode:   "cash",
			RecordedBy:    "admin",
		}, paid, outstanding, status)
	})
	require.NoError(t, err)

	err = database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		fee, err := repo.LockFeeTx(ctx, tx, "s-1", "fee-1")
		require.NoError(t, err)
		assert.True(t, fee.PaidAmount.Equal(decimal.RequireFromString("400.5")))
		assert.True(t, fee.OutstandingAmount.Equal(decimal.RequireFromString("599.5")))
		assert.Equal(t, models.FeeStatusPartial, fee.Status)

		_, err = repo.LockFeeTx(ctx, tx, "other-student", "fee-1")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}
