package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

type labBatcher interface {
	CreateBatchesFromRequest(ctx context.Context, req dto.CreateLabBatchesRequest) ([]models.LabSession, error)
	CreateDivisionBatches(ctx context.Context, req dto.CreateDivisionBatchesRequest) ([]models.LabSession, error)
	Reassign(ctx context.Context, studentID, fromSessionID, toSessionID string) (bool, error)
	ListSessions(ctx context.Context, filter models.LabSessionFilter) ([]models.LabSession, error)
}

// LabHandler exposes lab batching.
type LabHandler struct {
	labs labBatcher
}

// NewLabHandler constructs the handler.
func NewLabHandler(labs labBatcher) *LabHandler {
	return &LabHandler{labs: labs}
}

// CreateBatches godoc
// @Summary Split an explicit roster into lab batches
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body dto.CreateLabBatchesRequest true "Roster and capacity"
// @Success 201 {object} response.Envelope
// @Router /labs/batches [post]
func (h *LabHandler) CreateBatches(c *gin.Context) {
	var req dto.CreateLabBatchesRequest
	if !bindJSON(c, &req) {
		return
	}
	sessions, err := h.labs.CreateBatchesFromRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sessions)
}

// CreateDivisionBatches godoc
// @Summary Batch a division's active students by lab capacity
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body dto.CreateDivisionBatchesRequest true "Division and lab"
// @Success 201 {object} response.Envelope
// @Router /labs/batches/division [post]
func (h *LabHandler) CreateDivisionBatches(c *gin.Context) {
	var req dto.CreateDivisionBatchesRequest
	if !bindJSON(c, &req) {
		return
	}
	sessions, err := h.labs.CreateDivisionBatches(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sessions)
}

// Reassign godoc
// @Summary Move a student to another lab session
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body dto.ReassignStudentRequest true "Move"
// @Success 200 {object} response.Envelope
// @Router /labs/reassign [post]
func (h *LabHandler) Reassign(c *gin.Context) {
	var req dto.ReassignStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	moved, err := h.labs.Reassign(c.Request.Context(), req.StudentID, req.FromSessionID, req.ToSessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ReassignStudentResponse{Moved: moved})
}

// Sessions godoc
// @Summary List lab sessions
// @Tags Labs
// @Produce json
// @Param lab_id query string false "Lab"
// @Param division_id query string false "Division"
// @Param subject_name query string false "Subject"
// @Success 200 {object} response.Envelope
// @Router /labs/sessions [get]
func (h *LabHandler) Sessions(c *gin.Context) {
	var query dto.ListLabSessionsQuery
	if !bindQuery(c, &query) {
		return
	}
	sessions, err := h.labs.ListSessions(c.Request.Context(), models.LabSessionFilter{
		LabID:       query.LabID,
		DivisionID:  query.DivisionID,
		SubjectName: query.SubjectName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}
