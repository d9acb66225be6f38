package dto

// RollNumberRequest captures POST /sequences/roll-numbers payload.
type RollNumberRequest struct {
	ProgramID      string `json:"program_id" validate:"required"`
	AcademicPeriod string `json:"academic_period" validate:"required,excludes=0x7C"`
	Division       string `json:"division" validate:"required,excludes=0x7C"`
}

// YearSequenceRequest captures admission and receipt number requests.
type YearSequenceRequest struct {
	Year int `json:"year" validate:"required,min=1900,max=9999"`
}

// SequenceNumberResponse carries one allocated, formatted number.
type SequenceNumberResponse struct {
	Number string `json:"number"`
}
