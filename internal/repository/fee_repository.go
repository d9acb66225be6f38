package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/database"
)

// FeeRepository reads student fees and records payments against them.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// LockFeeTx loads a fee of the student inside tx, taking a row lock where the
// driver supports one.
func (r *FeeRepository) LockFeeTx(ctx context.Context, tx *sqlx.Tx, studentID, feeID string) (*models.StudentFee, error) {
	query := tx.Rebind(`SELECT id, student_id, total_amount, discount_amount, final_amount, paid_amount, outstanding_amount, status, due_date, updated_at
FROM student_fees WHERE id = ? AND student_id = ?` + database.ForUpdate(tx.DriverName()))
	var fee models.StudentFee
	if err := tx.GetContext(ctx, &fee, query, feeID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("lock student fee", err)
	}
	return &fee, nil
}

// ApplyPaymentTx inserts the payment and stores the settled totals of the fee.
func (r *FeeRepository) ApplyPaymentTx(ctx context.Context, tx *sqlx.Tx, payment *models.FeePayment, paid, outstanding decimal.Decimal, status models.FeeStatus) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}

	const insert = `INSERT INTO fee_payments (id, student_fee_id, student_id, receipt_number, amount, payment_mode, reference, recorded_by, paid_at)
VALUES (:id, :student_fee_id, :student_id, :receipt_number, :amount, :payment_mode, :reference, :recorded_by, :paid_at)`
	if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
		return classify("insert fee payment", err)
	}

	update := tx.Rebind(`UPDATE student_fees SET paid_amount = ?, outstanding_amount = ?, status = ?, updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, update, paid, outstanding, status, payment.PaidAt, payment.StudentFeeID); err != nil {
		return classify("update student fee", err)
	}
	return nil
}
