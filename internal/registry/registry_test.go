package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"attendance", "departments", "divisions", "programs", "student_fees", "student_marks", "students"}, r.ModelKeys())

	students, ok := r.Resolve("students")
	require.True(t, ok)
	assert.Equal(t, "students", students.Table)

	allowed := r.AllowedColumns("students")
	assert.Equal(t, "Roll Number", allowed["roll_number"])
	_, exposesPassword := allowed["password"]
	assert.False(t, exposesPassword)

	_, isDisplay := students.Column("program_id")
	assert.False(t, isDisplay)
	_, isJoinable := students.JoinColumn("program_id")
	assert.True(t, isJoinable)
}

func TestUnknownModel(t *testing.T) {
	r := Default()

	_, ok := r.Resolve("users")
	assert.False(t, ok)
	assert.Empty(t, r.AllowedColumns("users"))
	assert.Nil(t, r.Columns("users"))
}

func TestColumnsPreserveDeclarationOrder(t *testing.T) {
	cols := Default().Columns("programs")
	require.Len(t, cols, 5)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "degree_type", cols[4].Name)

	cols[0].Name = "mutated"
	assert.Equal(t, "id", Default().Columns("programs")[0].Name)
}

func TestNewRejectsUnsafeIdentifiers(t *testing.T) {
	_, err := New(Entity{Key: "students", Table: "students; DROP TABLE x", Columns: []Column{{Name: "id"}}})
	require.Error(t, err)

	_, err = New(Entity{Key: "s", Table: "s", Columns: []Column{{Name: "Name\""}}})
	require.Error(t, err)

	_, err = New(
		Entity{Key: "s", Table: "s", Columns: []Column{{Name: "id"}}},
		Entity{Key: "s", Table: "t", Columns: []Column{{Name: "id"}}},
	)
	require.Error(t, err)
}
