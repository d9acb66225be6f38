package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

type sequenceAllocator interface {
	AllocateRollNumber(ctx context.Context, programID, academicPeriod, division string) (string, error)
	AllocateAdmissionNumber(ctx context.Context, year int) (string, error)
	AllocateReceiptNumber(ctx context.Context, year int) (string, error)
}

// SequenceHandler hands out formatted document numbers.
type SequenceHandler struct {
	sequences sequenceAllocator
	validate  *validator.Validate
}

// NewSequenceHandler constructs the handler.
func NewSequenceHandler(sequences sequenceAllocator, validate *validator.Validate) *SequenceHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SequenceHandler{sequences: sequences, validate: validate}
}

// RollNumber godoc
// @Summary Allocate a roll number
// @Tags Sequences
// @Accept json
// @Produce json
// @Param payload body dto.RollNumberRequest true "Roll number scope"
// @Success 201 {object} response.Envelope
// @Router /sequences/roll-numbers [post]
func (h *SequenceHandler) RollNumber(c *gin.Context) {
	var req dto.RollNumberRequest
	if !h.bind(c, &req) {
		return
	}
	number, err := h.sequences.AllocateRollNumber(c.Request.Context(), req.ProgramID, req.AcademicPeriod, req.Division)
	h.respond(c, number, err)
}

// AdmissionNumber godoc
// @Summary Allocate an admission number
// @Tags Sequences
// @Accept json
// @Produce json
// @Param payload body dto.YearSequenceRequest true "Admission year"
// @Success 201 {object} response.Envelope
// @Router /sequences/admission-numbers [post]
func (h *SequenceHandler) AdmissionNumber(c *gin.Context) {
	var req dto.YearSequenceRequest
	if !h.bind(c, &req) {
		return
	}
	number, err := h.sequences.AllocateAdmissionNumber(c.Request.Context(), req.Year)
	h.respond(c, number, err)
}

// ReceiptNumber godoc
// @Summary Allocate a receipt number
// @Tags Sequences
// @Accept json
// @Produce json
// @Param payload body dto.YearSequenceRequest true "Receipt year"
// @Success 201 {object} response.Envelope
// @Router /sequences/receipt-numbers [post]
func (h *SequenceHandler) ReceiptNumber(c *gin.Context) {
	var req dto.YearSequenceRequest
	if !h.bind(c, &req) {
		return
	}
	number, err := h.sequences.AllocateReceiptNumber(c.Request.Context(), req.Year)
	h.respond(c, number, err)
}

func (h *SequenceHandler) bind(c *gin.Context, req interface{}) bool {
	if !bindJSON(c, req) {
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return false
	}
	return true
}

func (h *SequenceHandler) respond(c *gin.Context, number string, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SequenceNumberResponse{Number: number})
}
