package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportConfigurationScanFromStoredJSON(t *testing.T) {
	var cfg ReportConfiguration
	require.NoError(t, cfg.Scan([]byte(`{"base_model":"students","filters":{"logic":"or","conditions":[{"column":"status","operator":"in","value":["active","inactive"]}]},"limit":25}`)))

	assert.Equal(t, "students", cfg.BaseModel)
	require.NotNil(t, cfg.Filters)
	assert.Equal(t, LogicOr, cfg.Filters.Logic)
	assert.Equal(t, []interface{}{"active", "inactive"}, cfg.Filters.Conditions[0].Value)
	require.NotNil(t, cfg.Limit)
	assert.Equal(t, 25, *cfg.Limit)

	require.Error(t, cfg.Scan(42))
}

func TestSequenceKeyValidate(t *testing.T) {
	require.NoError(t, RollNumberKey("p-1", "2024", "A").Validate())
	assert.Equal(t, "p-1|2024|A", RollNumberKey("p-1", "2024", "A").Encoded())

	assert.Error(t, SequenceKey{Scope: "voucher", Parts: []string{"x"}}.Validate())
	assert.Error(t, SequenceKey{Scope: SequenceRollNumber, Parts: []string{"p", "2024"}}.Validate())
	assert.Error(t, RollNumberKey("p", " ", "A").Validate())
	assert.Error(t, RollNumberKey("p|q", "2024", "A").Validate())
}

func TestStudentFeeSettle(t *testing.T) {
	fee := StudentFee{FinalAmount: decimal.RequireFromString("1000.00"), PaidAmount: decimal.RequireFromString("250.50")}

	paid, outstanding, status := fee.Settle(decimal.RequireFromString("249.50"))
	assert.True(t, paid.Equal(decimal.NewFromInt(500)))
	assert.True(t, outstanding.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, FeeStatusPartial, status)

	_, outstanding, status = fee.Settle(decimal.RequireFromString("800"))
	assert.True(t, outstanding.IsNegative())
	assert.Equal(t, FeeStatusPaid, status)
}

func TestExportStatusTerminal(t *testing.T) {
	assert.False(t, ExportStatusPending.Terminal())
	assert.False(t, ExportStatusProcessing.Terminal())
	assert.True(t, ExportStatusCompleted.Terminal())
	assert.True(t, ExportStatusFailed.Terminal())
	assert.False(t, ExportFormat("docx").Valid())
}
