package dto

import "time"

// LabSessionDetails are shared by every session of one batching request.
type LabSessionDetails struct {
	SubjectName  string     `json:"subject_name" validate:"required,max=100"`
	SessionDate  *time.Time `json:"session_date,omitempty"`
	StartTime    *string    `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime      *string    `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	InstructorID *string    `json:"instructor_id,omitempty"`
}

// CreateLabBatchesRequest captures POST /labs/batches payload.
type CreateLabBatchesRequest struct {
	LabSessionDetails
	StudentIDs []string `json:"student_ids" validate:"dive,required"`
	Capacity   int      `json:"capacity" validate:"required,min=1"`
	LabID      *string  `json:"lab_id,omitempty"`
	DivisionID *string  `json:"division_id,omitempty"`
}

// CreateDivisionBatchesRequest captures POST /labs/batches/division payload.
type CreateDivisionBatchesRequest struct {
	LabSessionDetails
	DivisionID string `json:"division_id" validate:"required"`
	LabID      string `json:"lab_id" validate:"required"`
}

// ReassignStudentRequest captures POST /labs/reassign payload.
type ReassignStudentRequest struct {
	StudentID     string `json:"student_id" validate:"required"`
	FromSessionID string `json:"from_session_id" validate:"required"`
	ToSessionID   string `json:"to_session_id" validate:"required"`
}

// ReassignStudentResponse reports whether the student moved.
type ReassignStudentResponse struct {
	Moved bool `json:"moved"`
}

// ListLabSessionsQuery maps GET /labs/sessions query parameters.
type ListLabSessionsQuery struct {
	LabID       string `form:"lab_id"`
	DivisionID  string `form:"division_id"`
	SubjectName string `form:"subject_name"`
}
