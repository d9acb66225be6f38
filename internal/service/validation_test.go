package service

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/dto"
	"github.com/rossmikee121/schoolrepr/internal/models"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

func validPayloads() map[string]interface{} {
	start, end := "09:00", "11:00"
	on := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	details := dto.LabSessionDetails{SubjectName: "Physics", SessionDate: &on, StartTime: &start, EndTime: &end}
	return map[string]interface{}{
		"roll number":     dto.RollNumberRequest{ProgramID: "prog-cs", AcademicPeriod: "2024-25", Division: "A"},
		"year sequence":   dto.YearSequenceRequest{Year: 2024},
		"admission":       admitRequest(),
		"fee payment":     dto.RecordFeePaymentRequest{StudentFeeID: "fee-1", Amount: decimal.NewFromInt(10), PaymentMode: "upi"},
		"export":          dto.CreateExportRequest{Name: "Roster", Format: models.ExportFormatCSV},
		"template":        templateRequest(true),
		"lab batches":     dto.CreateLabBatchesRequest{LabSessionDetails: details, StudentIDs: []string{"s1"}, Capacity: 2},
		"division batch":  dto.CreateDivisionBatchesRequest{LabSessionDetails: details, DivisionID: "div-a", LabID: "lab-1"},
		"reassign":        dto.ReassignStudentRequest{StudentID: "s1", FromSessionID: "a", ToSessionID: "b"},
		"list exports":    dto.ListExportsQuery{Status: "completed", Page: 1, PageSize: 20},
		"list templates":  dto.ListTemplatesQuery{Category: "fee"},
		"update template": dto.UpdateTemplateRequest{},
	}
}

func TestPayloadTagsAcceptValidRequests(t *testing.T) {
	validators := map[string]*validator.Validate{
		"json names":  newValidator(nil),
		"field names": validator.New(),
	}
	for vName, v := range validators {
		for name, payload := range validPayloads() {
			t.Run(vName+"/"+name, func(t *testing.T) {
				var err error
				require.NotPanics(t, func() { err = validatePayload(v, payload) })
				assert.NoError(t, err)
			})
		}
	}
}

func TestPayloadTagsRejectKeySeparator(t *testing.T) {
	v := newValidator(nil)

	err := validatePayload(v, dto.RollNumberRequest{ProgramID: "prog-cs", AcademicPeriod: "2024|25", Division: "A|B"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.ElementsMatch(t, []string{"academic_period: failed excludes=|", "division: failed excludes=|"}, typed.Details)
}
