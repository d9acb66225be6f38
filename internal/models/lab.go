package models

import "time"

// Lab is a physical laboratory with a seat capacity.
type Lab struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// LabSession is one batch of a lab for a division and subject.
type LabSession struct {
	ID           string     `db:"id" json:"id"`
	LabID        *string    `db:"lab_id" json:"lab_id,omitempty"`
	DivisionID   *string    `db:"division_id" json:"division_id,omitempty"`
	SubjectName  string     `db:"subject_name" json:"subject_name"`
	BatchNumber  int        `db:"batch_number" json:"batch_number"`
	MaxStudents  int        `db:"max_students" json:"max_students"`
	SessionDate  *time.Time `db:"session_date" json:"session_date,omitempty"`
	StartTime    *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime      *string    `db:"end_time" json:"end_time,omitempty"`
	InstructorID *string    `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	StudentIDs []string `db:"-" json:"student_ids"`
}

// LabBatchAssignment links a student to a lab session.
type LabBatchAssignment struct {
	ID           string    `db:"id" json:"id"`
	LabSessionID string    `db:"lab_session_id" json:"lab_session_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LabSessionMeta is shared by every session produced from one batching request.
type LabSessionMeta struct {
	LabID        *string
	DivisionID   *string
	SubjectName  string
	SessionDate  *time.Time
	StartTime    *string
	EndTime      *string
	InstructorID *string
}

// LabSessionFilter narrows session listings.
type LabSessionFilter struct {
	LabID       string
	DivisionID  string
	SubjectName string
}
