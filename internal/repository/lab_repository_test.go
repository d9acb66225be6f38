package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

func seedLabSessions(t *testing.T, repo *LabRepository, batches ...[]string) []models.LabSession {
	t.Helper()
	sessions := make([]models.LabSession, 0, len(batches))
	for i, students := range batches {
		sessions = append(sessions, models.LabSession{
			SubjectName: "Physics",
			BatchNumber: i + 1,
			MaxStudents: 2,
			StudentIDs:  students,
		})
	}
	require.NoError(t, repo.CreateSessions(context.Background(), sessions))
	return sessions
}

func TestLabRepositoryCreateAndListSessions(t *testing.T) {
	repo := NewLabRepository(newSQLiteDB(t))
	seedLabSessions(t, repo, []string{"s1", "s2"}, []string{"s3"})

	sessions, err := repo.ListSessions(context.Background(), models.LabSessionFilter{SubjectName: "Physics"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 1, sessions[0].BatchNumber)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessions[0].StudentIDs)
	assert.Equal(t, []string{"s3"}, sessions[1].StudentIDs)

	none, err := repo.ListSessions(context.Background(), models.LabSessionFilter{SubjectName: "Chemistry"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLabRepositoryReassign(t *testing.T) {
	ctx := context.Background()
	repo := NewLabRepository(newSQLiteDB(t))
	sessions := seedLabSessions(t, repo, []string{"s1", "s2"}, []string{"s3"})
	full, open := sessions[0].ID, sessions[1].ID

	moved, err := repo.Reassign(ctx, "s1", full, open)
	require.NoError(t, err)
	assert.True(t, moved)

	// open now holds s3 and s1, which is its capacity
	moved, err = repo.Reassign(ctx, "s2", full, open)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = repo.Reassign(ctx, "s9", full, open)
	require.NoError(t, err)
	assert.False(t, moved, "student not in source session")

	moved, err = repo.Reassign(ctx, "s2", full, "missing")
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = repo.Reassign(ctx, "s2", "missing", open)
	require.NoError(t, err)
	assert.False(t, moved)

	listed, err := repo.ListSessions(ctx, models.LabSessionFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, []string{"s2"}, listed[0].StudentIDs)
	assert.ElementsMatch(t, []string{"s1", "s3"}, listed[1].StudentIDs)
}

func TestLabRepositoryGetLab(t *testing.T) {
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO labs (id, name, capacity) VALUES (?, ?, ?)`, "lab-1", "Physics Lab", 25)
	repo := NewLabRepository(db)

	lab, err := repo.GetLab(context.Background(), "lab-1")
	require.NoError(t, err)
	assert.Equal(t, 25, lab.Capacity)

	_, err = repo.GetLab(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
