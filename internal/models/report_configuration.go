package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReportConfigurationVersion is the only configuration schema version understood.
const ReportConfigurationVersion = 1

// Filter logic and join/order keywords accepted in configurations.
const (
	LogicAnd = "and"
	LogicOr  = "or"

	JoinInner = "inner"
	JoinLeft  = "left"
	JoinRight = "right"

	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// ReportConfiguration is the declarative description of a report query as
// submitted by clients and stored on templates and exports.
type ReportConfiguration struct {
	Version   *int              `json:"version,omitempty"`
	BaseModel string            `json:"base_model"`
	Columns   []ColumnSelection `json:"columns,omitempty"`
	Filters   *FilterGroup      `json:"filters,omitempty"`
	Joins     []JoinSpec        `json:"joins,omitempty"`
	OrderBy   []OrderSpec       `json:"order_by,omitempty"`
	Limit     *int              `json:"limit,omitempty"`
}

// ColumnSelection names a field, either bare or table qualified, and its output alias.
type ColumnSelection struct {
	Field string `json:"field"`
	Alias string `json:"alias,omitempty"`
}

// FilterGroup combines conditions with a single logic operator.
type FilterGroup struct {
	Logic      string            `json:"logic,omitempty"`
	Conditions []FilterCondition `json:"conditions"`
}

// FilterCondition compares a column with a literal value.
type FilterCondition struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// JoinSpec joins another registered entity on first <operator> second.
type JoinSpec struct {
	Type     string `json:"type,omitempty"`
	Table    string `json:"table"`
	First    string `json:"first"`
	Operator string `json:"operator,omitempty"`
	Second   string `json:"second"`
}

// OrderSpec orders by one column.
type OrderSpec struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

// Value marshals the configuration to JSON for persistence.
func (c ReportConfiguration) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal report configuration: %w", err)
	}
	return string(data), nil
}

// Scan unmarshals a stored JSON document.
func (c *ReportConfiguration) Scan(value interface{}) error {
	if value == nil {
		*c = ReportConfiguration{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportConfiguration", value)
	}
	if len(data) == 0 {
		*c = ReportConfiguration{}
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal report configuration: %w", err)
	}
	return nil
}
