package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	"github.com/rossmikee121/schoolrepr/pkg/database"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

type feeStore interface {
	LockFeeTx(ctx context.Context, tx *sqlx.Tx, studentID, feeID string) (*models.StudentFee, error)
	ApplyPaymentTx(ctx context.Context, tx *sqlx.Tx, payment *models.FeePayment, paid, outstanding decimal.Decimal, status models.FeeStatus) error
}

type receiptNumbering interface {
	AllocateReceiptNumberTx(ctx context.Context, tx *sqlx.Tx, year int) (string, error)
}

// FeePaymentService records payments against student fees.
type FeePaymentService struct {
	db        database.Beginner
	fees      feeStore
	sequences receiptNumbering
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeePaymentService constructs the service.
func NewFeePaymentService(db database.Beginner, fees feeStore, sequences receiptNumbering, validate *validator.Validate, logger *zap.Logger) *FeePaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeePaymentService{
		db:        db,
		fees:      fees,
		sequences: sequences,
		validator: newValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// RecordPayment locks the fee, issues a receipt number and settles the amount
// in one transaction.
func (s *FeePaymentService) RecordPayment(ctx context.Context, studentID, recordedBy string, req dto.RecordFeePaymentRequest) (*dto.FeePaymentResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid payload"), "amount: must be positive")
	}
	paidAt := s.now().UTC()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	var out *dto.FeePaymentResponse
	err := database.WithTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		fee, err := s.fees.LockFeeTx(ctx, tx, studentID, req.StudentFeeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return appErrors.Clone(appErrors.ErrNotFound, "student fee not found")
			}
			return err
		}
		if fee.Status == models.FeeStatusPaid || !fee.OutstandingAmount.IsPositive() {
			return appErrors.Clone(appErrors.ErrConflict, "fee is already settled")
		}
		if req.Amount.GreaterThan(fee.OutstandingAmount) {
			return appErrors.Clone(appErrors.ErrValidation, "amount exceeds outstanding balance")
		}

		receipt, err := s.sequences.AllocateReceiptNumberTx(ctx, tx, paidAt.Year())
		if err != nil {
			return err
		}
		payment := &models.FeePayment{
			StudentFeeID:  fee.ID,
			StudentID:     studentID,
			ReceiptNumber: receipt,
			Amount:        req.Amount,
			PaymentMode:   req.PaymentMode,
			Reference:     req.Reference,
			RecordedBy:    recordedBy,
			PaidAt:        paidAt,
		}
		paid, outstanding, status := fee.Settle(req.Amount)
		if err := s.fees.ApplyPaymentTx(ctx, tx, payment, paid, outstanding, status); err != nil {
			return err
		}

		settled := *fee
		settled.PaidAmount, settled.OutstandingAmount, settled.Status, settled.UpdatedAt = paid, outstanding, status, paidAt
		out = &dto.FeePaymentResponse{Payment: *payment, Fee: settled}
		return nil
	})
	if err != nil {
		s.logger.Sugar().Warnw("fee payment failed", "student_id", studentID, "student_fee_id", req.StudentFeeID, "error", err)
		return nil, storageError(err, "failed to record fee payment")
	}

	s.logger.Sugar().Infow("fee payment recorded", "student_id", studentID, "receipt_number", out.Payment.ReceiptNumber, "amount", out.Payment.Amount.String())
	return out, nil
}
