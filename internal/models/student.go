package models

import "time"

// StudentStatus tracks enrolment state.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusDropped   StudentStatus = "dropped"
)

// Student is an admitted learner.
type Student struct {
	ID              string        `db:"id" json:"id"`
	AdmissionNumber string        `db:"admission_number" json:"admission_number"`
	RollNumber      string        `db:"roll_number" json:"roll_number"`
	FirstName       string        `db:"first_name" json:"first_name"`
	LastName        string        `db:"last_name" json:"last_name"`
	Email           *string       `db:"email" json:"email,omitempty"`
	Phone           *string       `db:"phone" json:"phone,omitempty"`
	DateOfBirth     *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender          *string       `db:"gender" json:"gender,omitempty"`
	ProgramID       string        `db:"program_id" json:"program_id"`
	DivisionID      *string       `db:"division_id" json:"division_id,omitempty"`
	AcademicYear    string        `db:"academic_year" json:"academic_year"`
	AdmissionDate   time.Time     `db:"admission_date" json:"admission_date"`
	Status          StudentStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Program is an academic programme. Its code is part of roll numbers.
type Program struct {
	ID            string  `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Code          string  `db:"code" json:"code"`
	DurationYears int     `db:"duration_years" json:"duration_years"`
	DegreeType    *string `db:"degree_type" json:"degree_type,omitempty"`
}

// Division is a section of a program year.
type Division struct {
	ID              string `db:"id" json:"id"`
	ProgramID       string `db:"program_id" json:"program_id"`
	Name            string `db:"name" json:"name"`
	Capacity        int    `db:"capacity" json:"capacity"`
	CurrentStrength int    `db:"current_strength" json:"current_strength"`
}
