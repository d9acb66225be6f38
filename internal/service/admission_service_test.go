package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

// failingStudents fails the insert after both numbers were allocated.
type failingStudents struct {
	*repository.StudentRepository
	fail bool
}

func (f *failingStudents) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if f.fail {
		return errors.New("insert student: constraint failed")
	}
	return f.StudentRepository.CreateTx(ctx, tx, student)
}

func admitRequest() dto.AdmitStudentRequest {
	admitted := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	return dto.AdmitStudentRequest{
		FirstName:      "Asha",
		LastName:       "Rao",
		ProgramID:      "prog-cs",
		DivisionID:     "div-a",
		AcademicPeriod: "2024-25",
		AdmissionDate:  &admitted,
	}
}

func newAdmissionFixture(t *testing.T, capacity int) (*AdmissionService, *failingStudents, *sqlx.DB) {
	t.Helper()
	db := newServiceDB(t)
	seedProgramDivision(t, db, capacity)
	students := &failingStudents{StudentRepository: repository.NewStudentRepository(db)}
	sequences := NewSequenceService(repository.NewSequenceRepository(db), students, nil, nil, nil)
	return NewAdmissionService(db, students, sequences, nil, nil), students, db
}

func TestAdmitAllocatesBothNumbers(t *testing.T) {
	svc, _, db := newAdmissionFixture(t, 60)
	ctx := context.Background()

	first, err := svc.Admit(ctx, admitRequest())
	require.NoError(t, err)
	assert.Equal(t, "2024-25/CS/A/001", first.RollNumber)
	assert.Equal(t, "ADM20240001", first.AdmissionNumber)
	assert.Equal(t, models.StudentStatusActive, first.Status)

	second, err := svc.Admit(ctx, admitRequest())
	require.NoError(t, err)
	assert.Equal(t, "2024-25/CS/A/002", second.RollNumber)
	assert.Equal(t, "ADM20240002", second.AdmissionNumber)

	var strength int
	require.NoError(t, db.Get(&strength, `SELECT current_strength FROM divisions WHERE id = 'div-a'`))
	assert.Equal(t, 2, strength)
}

func TestAdmitRollsBackNumbersOnFailure(t *testing.T) {
	svc, students, _ := newAdmissionFixture(t, 60)
	ctx := context.Background()

	students.fail = true
	_, err := svc.Admit(ctx, admitRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorage))

	students.fail = false
	admitted, err := svc.Admit(ctx, admitRequest())
	require.NoError(t, err)
	assert.Equal(t, "2024-25/CS/A/001", admitted.RollNumber)
	assert.Equal(t, "ADM20240001", admitted.AdmissionNumber)
}

func TestAdmitRejectsFullOrMismatchedDivision(t *testing.T) {
	svc, _, _ := newAdmissionFixture(t, 1)
	ctx := context.Background()

	_, err := svc.Admit(ctx, admitRequest())
	require.NoError(t, err)
	_, err = svc.Admit(ctx, admitRequest())
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	req := admitRequest()
	req.ProgramID = "prog-me"
	_, err = svc.Admit(ctx, req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	req = admitRequest()
	req.DivisionID = "div-missing"
	_, err = svc.Admit(ctx, req)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestConcurrentAdmissionsNeverOverfillDivision(t *testing.T) {
	svc, _, db := newAdmissionFixture(t, 3)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		admitted  []string
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			student, err := svc.Admit(ctx, admitRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted = append(admitted, student.RollNumber)
			case errors.Is(err, appErrors.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected admission error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"2024-25/CS/A/001", "2024-25/CS/A/002", "2024-25/CS/A/003"}, admitted)
	assert.Equal(t, attempts-3, conflicts)

	var strength, students int
	require.NoError(t, db.Get(&strength, `SELECT current_strength FROM divisions WHERE id = 'div-a'`))
	require.NoError(t, db.Get(&students, `SELECT COUNT(*) FROM students WHERE division_id = 'div-a'`))
	assert.Equal(t, 3, strength)
	assert.Equal(t, 3, students)
}

func TestAdmitValidatesPayload(t *testing.T) {
	svc, _, _ := newAdmissionFixture(t, 60)

	req := admitRequest()
	req.FirstName = ""
	req.AcademicPeriod = "2024|25"
	_, err := svc.Admit(context.Background(), req)
	require.True(t, errors.Is(err, appErrors.ErrValidation))

	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Contains(t, typed.Details, "first_name: failed required")
	assert.Contains(t, typed.Details, "academic_period: failed excludes=|")
}
