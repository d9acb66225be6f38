package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/registry"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

func newTestValidator() *ConfigValidator {
	return NewConfigValidator(registry.Default(), DefaultReportLimit, MaxReportLimit)
}

func intPtr(v int) *int { return &v }

func configDetails(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrConfiguration), "expected configuration error, got %v", err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	return typed.Details
}

func TestValidateDefaultsToAllBaseColumns(t *testing.T) {
	vc, err := newTestValidator().Validate(models.ReportConfiguration{BaseModel: "departments"})
	require.NoError(t, err)

	assert.Equal(t, "departments", vc.Base.Key)
	require.Len(t, vc.Columns, 4)
	assert.Equal(t, "id", vc.Columns[0].Alias)
	assert.Equal(t, "Department Name", vc.Columns[1].Label)
	assert.Equal(t, models.LogicAnd, vc.Logic)
	assert.Equal(t, DefaultReportLimit, vc.Limit)
	require.NotNil(t, vc.Normalized.Limit)
	assert.Equal(t, DefaultReportLimit, *vc.Normalized.Limit)
	assert.Len(t, vc.Normalized.Columns, 4)
}

func TestValidateRejectsBaseModelProblems(t *testing.T) {
	cases := map[string]models.ReportConfiguration{
		"missing":     {},
		"unknown":     {BaseModel: "users"},
		"bad version": {Version: intPtr(2), BaseModel: "students"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestValidator().Validate(cfg)
			details := configDetails(t, err)
			assert.NotEmpty(t, details)
		})
	}

	_, err := newTestValidator().Validate(models.ReportConfiguration{Version: intPtr(1), BaseModel: "students"})
	assert.NoError(t, err)
}

func TestValidateColumnsAgainstAllowList(t *testing.T) {
	_, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "students",
		Columns: []models.ColumnSelection{
			{Field: "first_name"},
			{Field: "students.password_hash"},
			{Field: "programs.name"},
			{Field: "students.program_id"},
		},
	})
	details := configDetails(t, err)
	require.Len(t, details, 3)
	assert.True(t, strings.HasPrefix(details[0], "columns[1].field"))
	assert.Contains(t, details[1], "neither the base model nor joined")
	assert.Contains(t, details[2], "not available on students")
}

func TestValidateRejectsDuplicateAliases(t *testing.T) {
	_, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "students",
		Columns: []models.ColumnSelection{
			{Field: "first_name", Alias: "name"},
			{Field: "last_name", Alias: "name"},
		},
	})
	details := configDetails(t, err)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "already used by columns[0]")
}

func TestValidateStopsAtFirstFailingClass(t *testing.T) {
	_, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "students",
		Columns:   []models.ColumnSelection{{Field: "nope"}},
		OrderBy:   []models.OrderSpec{{Column: "first_name", Direction: "sideways"}},
		Limit:     intPtr(0),
	})
	details := configDetails(t, err)
	require.Len(t, details, 1)
	assert.True(t, strings.HasPrefix(details[0], "columns[0]"))
}

func TestValidateCoercesFilterValues(t *testing.T) {
	vc, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "student_fees",
		Filters: &models.FilterGroup{
			Logic: "OR",
			Conditions: []models.FilterCondition{
				{Column: "outstanding_amount", Operator: ">", Value: 100.5},
				{Column: "status", Operator: "IN", Value: []interface{}{"pending", "partial"}},
				{Column: "due_date", Operator: "<=", Value: "2024-07-31"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.LogicOr, vc.Logic)
	require.Len(t, vc.Conditions, 3)
	assert.Equal(t, []interface{}{"100.5"}, vc.Conditions[0].Values)
	assert.Equal(t, "in", vc.Conditions[1].Operator)
	assert.Equal(t, []interface{}{"pending", "partial"}, vc.Conditions[1].Values)
	assert.Equal(t, []interface{}{time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)}, vc.Conditions[2].Values)
	assert.Equal(t, models.LogicOr, vc.Normalized.Filters.Logic)

	vc, err = newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "divisions",
		Filters: &models.FilterGroup{Conditions: []models.FilterCondition{
			{Column: "capacity", Operator: ">=", Value: "60"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(60)}, vc.Conditions[0].Values)
	assert.Equal(t, models.LogicAnd, vc.Logic)
}

func TestValidateRejectsBadFilters(t *testing.T) {
	_, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "divisions",
		Filters: &models.FilterGroup{
			Logic: "xor",
			Conditions: []models.FilterCondition{
				{Column: "capacity", Operator: "=", Value: 1.5},
				{Column: "name", Operator: "in", Value: "A"},
				{Column: "name", Operator: "like", Value: []interface{}{"A%"}},
				{Column: "name", Operator: "regexp", Value: "A"},
				{Column: "name", Operator: "=", Value: nil},
				{Column: "name", Operator: "in", Value: []interface{}{}},
			},
		},
	})
	details := configDetails(t, err)
	require.Len(t, details, 7)
	assert.Contains(t, details[0], "filters.logic")
	assert.Contains(t, details[1], "is not an integer")
	assert.Contains(t, details[2], "requires an array")
	assert.Contains(t, details[3], "requires a scalar")
	assert.Contains(t, details[4], "unsupported operator")
	assert.Contains(t, details[5], "is required")
	assert.Contains(t, details[6], "at least one value")
}

func TestValidateJoins(t *testing.T) {
	vc, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "students",
		Columns: []models.ColumnSelection{
			{Field: "first_name"},
			{Field: "programs.name", Alias: "program"},
		},
		Joins: []models.JoinSpec{
			{Type: "LEFT", Table: "programs", First: "students.program_id", Second: "programs.id"},
		},
		OrderBy: []models.OrderSpec{{Column: "programs.name", Direction: "DESC"}},
	})
	require.NoError(t, err)

	require.Len(t, vc.Joins, 1)
	assert.Equal(t, models.JoinLeft, vc.Joins[0].Type)
	assert.Equal(t, "=", vc.Joins[0].Operator)
	assert.Equal(t, ColumnRef{Model: "students", Column: "program_id"}, vc.Joins[0].First)
	assert.Equal(t, "program", vc.Columns[1].Alias)
	assert.Equal(t, "first_name", vc.Columns[0].Alias)
	require.Len(t, vc.OrderBy, 1)
	assert.True(t, vc.OrderBy[0].Desc)
	assert.Equal(t, models.DirectionDesc, vc.Normalized.OrderBy[0].Direction)
}

func TestValidateRejectsBadJoins(t *testing.T) {
	_, err := newTestValidator().Validate(models.ReportConfiguration{
		BaseModel: "students",
		Joins: []models.JoinSpec{
			{Table: "students", First: "students.id", Second: "students.id"},
			{Type: "cross", Table: "programs", First: "students.program_id", Second: "programs.id"},
			{Table: "divisions", First: "students.division_id", Second: "divisions.id"},
			{Table: "divisions", First: "students.division_id", Second: "divisions.id"},
			{Table: "departments", First: "programs.department_id", Second: "departments.id"},
			{Table: "student_fees", Operator: "like", First: "students.id", Second: "student_fees.student_id"},
		},
	})
	details := configDetails(t, err)
	require.Len(t, details, 5)
	assert.Contains(t, details[0], "is the base model")
	assert.Contains(t, details[1], "unsupported join type")
	assert.Contains(t, details[2], "joined more than once")
	assert.Contains(t, details[3], "not visible at this join")
	assert.Contains(t, details[4], "unsupported operator")
}

func TestValidateLimitBounds(t *testing.T) {
	v := NewConfigValidator(registry.Default(), 50, 100)
	for _, limit := range []int{0, -1, 101} {
		_, err := v.Validate(models.ReportConfiguration{BaseModel: "students", Limit: intPtr(limit)})
		details := configDetails(t, err)
		assert.Contains(t, details[0], "between 1 and 100")
	}

	vc, err := v.Validate(models.ReportConfiguration{BaseModel: "students", Limit: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, 100, vc.Limit)

	vc, err = v.Validate(models.ReportConfiguration{BaseModel: "students"})
	require.NoError(t, err)
	assert.Equal(t, 50, vc.Limit)
}

func TestValidateIsDeterministic(t *testing.T) {
	cfg := models.ReportConfiguration{
		BaseModel: "students",
		Columns:   []models.ColumnSelection{{Field: " first_name "}},
		Filters:   &models.FilterGroup{Conditions: []models.FilterCondition{{Column: "status", Operator: "=", Value: "active"}}},
	}
	a, err := newTestValidator().Validate(cfg)
	require.NoError(t, err)
	b, err := newTestValidator().Validate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Normalized, b.Normalized)
	assert.Equal(t, "first_name", a.Normalized.Columns[0].Field)
}
