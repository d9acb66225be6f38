package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

func newFeeFixture(t *testing.T) *FeePaymentService {
	t.Helper()
	db := newServiceDB(t)
	seed(t, db, `INSERT INTO student_fees (id, student_id, total_amount, final_amount, paid_amount, outstanding_amount, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"fee-1", "stu-1", "1000.00", "1000.00", "0", "1000.00", "pending")
	sequences := NewSequenceService(repository.NewSequenceRepository(db), repository.NewStudentRepository(db), nil, nil, nil)
	svc := NewFeePaymentService(db, repository.NewFeeRepository(db), sequences, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func payment(amount string) dto.RecordFeePaymentRequest {
	return dto.RecordFeePaymentRequest{
		StudentFeeID: "fee-1",
		Amount:       decimal.RequireFromString(amount),
		PaymentMode:  "upi",
	}
}

func TestRecordPaymentIssuesSequentialReceipts(t *testing.T) {
	svc := newFeeFixture(t)
	ctx := context.Background()

	first, err := svc.RecordPayment(ctx, "stu-1", "admin-1", payment("250"))
	require.NoError(t, err)
	assert.Equal(t, "RCP2024000001", first.Payment.ReceiptNumber)
	assert.Equal(t, "admin-1", first.Payment.RecordedBy)
	assert.Equal(t, models.FeeStatusPartial, first.Fee.Status)
	assert.True(t, first.Fee.OutstandingAmount.Equal(decimal.NewFromInt(750)))

	second, err := svc.RecordPayment(ctx, "stu-1", "admin-1", payment("750"))
	require.NoError(t, err)
	assert.Equal(t, "RCP2024000002", second.Payment.ReceiptNumber)
	assert.Equal(t, models.FeeStatusPaid, second.Fee.Status)
	assert.True(t, second.Fee.OutstandingAmount.IsZero())

	_, err = svc.RecordPayment(ctx, "stu-1", "admin-1", payment("1"))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestRecordPaymentRejectsBadAmounts(t *testing.T) {
	svc := newFeeFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-5"} {
		_, err := svc.RecordPayment(ctx, "stu-1", "admin-1", payment(amount))
		assert.True(t, errors.Is(err, appErrors.ErrValidation), amount)
	}

	_, err := svc.RecordPayment(ctx, "stu-1", "admin-1", payment("1000.01"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	// rejected payments never consume a receipt number
	ok, err := svc.RecordPayment(ctx, "stu-1", "admin-1", payment("10"))
	require.NoError(t, err)
	assert.Equal(t, "RCP2024000001", ok.Payment.ReceiptNumber)
}

func TestRecordPaymentUnknownFee(t *testing.T) {
	svc := newFeeFixture(t)

	_, err := svc.RecordPayment(context.Background(), "stu-2", "admin-1", payment("10"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	req := payment("10")
	req.PaymentMode = "barter"
	_, err = svc.RecordPayment(context.Background(), "stu-1", "admin-1", req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
