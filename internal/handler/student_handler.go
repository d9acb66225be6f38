package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

type admissionService interface {
	Admit(ctx context.Context, req dto.AdmitStudentRequest) (*models.Student, error)
}

type feePaymentService interface {
	RecordPayment(ctx context.Context, studentID, recordedBy string, req dto.RecordFeePaymentRequest) (*dto.FeePaymentResponse, error)
}

// StudentHandler exposes admissions and fee payments.
type StudentHandler struct {
	admissions admissionService
	payments   feePaymentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(admissions admissionService, payments feePaymentService) *StudentHandler {
	return &StudentHandler{admissions: admissions, payments: payments}
}

// Admit godoc
// @Summary Admit a student
// @Description Creates the student with a roll number and an admission number in one transaction.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.AdmitStudentRequest true "Admission"
// @Success 201 {object} response.Envelope
// @Router /students/admissions [post]
func (h *StudentHandler) Admit(c *gin.Context) {
	var req dto.AdmitStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.admissions.Admit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// RecordFeePayment godoc
// @Summary Record a fee payment
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.RecordFeePaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/fee-payments [post]
func (h *StudentHandler) RecordFeePayment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req dto.RecordFeePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.payments.RecordPayment(c.Request.Context(), c.Param("id"), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
