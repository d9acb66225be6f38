package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatus tracks how much of a fee has been settled.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
)

// StudentFee is the amount a student owes for one fee head.
type StudentFee struct {
	ID                string          `db:"id" json:"id"`
	StudentID         string          `db:"student_id" json:"student_id"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	DiscountAmount    decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	FinalAmount       decimal.Decimal `db:"final_amount" json:"final_amount"`
	PaidAmount        decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	OutstandingAmount decimal.Decimal `db:"outstanding_amount" json:"outstanding_amount"`
	Status            FeeStatus       `db:"status" json:"status"`
	DueDate           *time.Time      `db:"due_date" json:"due_date,omitempty"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Settle applies a payment and returns the new paid, outstanding and status values.
func (f StudentFee) Settle(amount decimal.Decimal) (paid, outstanding decimal.Decimal, status FeeStatus) {
	paid = f.PaidAmount.Add(amount)
	outstanding = f.FinalAmount.Sub(paid)
	status = FeeStatusPartial
	if !outstanding.IsPositive() {
		status = FeeStatusPaid
	}
	return paid, outstanding, status
}

// FeePayment is one receipt issued against a student fee.
type FeePayment struct {
	ID            string          `db:"id" json:"id"`
	StudentFeeID  string          `db:"student_fee_id" json:"student_fee_id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	ReceiptNumber string          `db:"receipt_number" json:"receipt_number"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentMode   string          `db:"payment_mode" json:"payment_mode"`
	Reference     *string         `db:"reference" json:"reference,omitempty"`
	RecordedBy    string          `db:"recorded_by" json:"recorded_by"`
	PaidAt        time.Time       `db:"paid_at" json:"paid_at"`
}
