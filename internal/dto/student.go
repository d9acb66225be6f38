package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rossmikee121/schoolrepr/internal/models"
)

// AdmitStudentRequest captures POST /students/admissions payload.
type AdmitStudentRequest struct {
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	Email          *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	ProgramID      string     `json:"program_id" validate:"required"`
	DivisionID     string     `json:"division_id" validate:"required"`
	AcademicPeriod string     `json:"academic_period" validate:"required,excludes=0x7C"`
	AdmissionDate  *time.Time `json:"admission_date,omitempty"`
}

// RecordFeePaymentRequest captures POST /students/:id/fee-payments payload.
type RecordFeePaymentRequest struct {
	StudentFeeID string          `json:"student_fee_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentMode  string          `json:"payment_mode" validate:"required,oneof=cash card upi bank_transfer cheque"`
	Reference    *string         `json:"reference,omitempty" validate:"omitempty,max=100"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
}

// FeePaymentResponse returns the receipt together with the settled fee.
type FeePaymentResponse struct {
	Payment models.FeePayment `json:"payment"`
	Fee     models.StudentFee `json:"fee"`
}
