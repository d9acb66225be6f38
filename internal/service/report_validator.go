package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/registry"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

const (
	DefaultReportLimit = 1000
	MaxReportLimit     = 10000
)

var (
	filterOperators = map[string]struct{}{"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {}, "like": {}, "in": {}}
	joinOperators   = map[string]struct{}{"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {}}
	joinTypes       = map[string]struct{}{models.JoinInner: {}, models.JoinLeft: {}, models.JoinRight: {}}
)

// ColumnRef is a column of a table visible in the query, named by its model key.
type ColumnRef struct {
	Model  string
	Column string
}

func (r ColumnRef) String() string {
	return r.Model + "." + r.Column
}

// ResolvedColumn is one output column.
type ResolvedColumn struct {
	Ref   ColumnRef
	Alias string
	Label string
}

// ResolvedCondition is a filter with values already coerced to the column type.
type ResolvedCondition struct {
	Ref      ColumnRef
	Operator string
	Values   []interface{}
}

// ResolvedJoin is a join against a registered entity.
type ResolvedJoin struct {
	Type     string
	Entity   registry.Entity
	First    ColumnRef
	Operator string
	Second   ColumnRef
}

// ResolvedOrder is one ordering term.
type ResolvedOrder struct {
	Ref  ColumnRef
	Desc bool
}

// ValidatedConfig is a configuration whose every identifier resolved against
// the registry. Only the validator constructs it.
type ValidatedConfig struct {
	Base       registry.Entity
	Columns    []ResolvedColumn
	Logic      string
	Conditions []ResolvedCondition
	Joins      []ResolvedJoin
	OrderBy    []ResolvedOrder
	Limit      int
	Normalized models.ReportConfiguration
}

// ConfigValidator checks report configurations against the entity registry.
// It is pure and safe for concurrent use.
type ConfigValidator struct {
	registry     *registry.Registry
	defaultLimit int
	maxLimit     int
}

// NewConfigValidator constructs a validator. Non-positive limits fall back to defaults.
func NewConfigValidator(reg *registry.Registry, defaultLimit, maxLimit int) *ConfigValidator {
	if maxLimit <= 0 {
		maxLimit = MaxReportLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = DefaultReportLimit
		if defaultLimit > maxLimit {
			defaultLimit = maxLimit
		}
	}
	return &ConfigValidator{registry: reg, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Registry exposes the registry the validator resolves against.
func (v *ConfigValidator) Registry() *registry.Registry {
	return v.registry
}

type validation struct {
	reg     *registry.Registry
	visible map[string]registry.Entity
	errs    []string
}

func (s *validation) addf(format string, args ...interface{}) {
	s.errs = append(s.errs, fmt.Sprintf(format, args...))
}

func (s *validation) failed() error {
	if len(s.errs) == 0 {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrConfiguration, s.errs...)
}

// Validate runs the check classes in order: version and base model, columns,
// filters, joins, ordering, limit. Problems within a class are collected; the
// first class with problems stops validation.
func (v *ConfigValidator) Validate(cfg models.ReportConfiguration) (*ValidatedConfig, error) {
	s := &validation{reg: v.registry, visible: map[string]registry.Entity{}}
	out := &ValidatedConfig{Normalized: cfg}

	if cfg.Version != nil && *cfg.Version != models.ReportConfigurationVersion {
		s.addf("version: unsupported configuration version %d", *cfg.Version)
	}
	base := strings.TrimSpace(cfg.BaseModel)
	if base == "" {
		s.addf("base_model: is required")
	} else if entity, ok := s.reg.Resolve(base); !ok {
		s.addf("base_model: unknown model %q", base)
	} else {
		out.Base = entity
		s.visible[entity.Key] = entity
	}
	if err := s.failed(); err != nil {
		return nil, err
	}
	out.Normalized.BaseModel = base

	// join targets are visible to column, filter and ordering references
	for _, j := range cfg.Joins {
		if entity, ok := s.reg.Resolve(j.Table); ok && entity.Key != base {
			s.visible[entity.Key] = entity
		}
	}

	v.validateColumns(s, cfg, out)
	if err := s.failed(); err != nil {
		return nil, err
	}
	v.validateFilters(s, cfg, out)
	if err := s.failed(); err != nil {
		return nil, err
	}
	v.validateJoins(s, cfg, out)
	if err := s.failed(); err != nil {
		return nil, err
	}
	v.validateOrder(s, cfg, out)
	if err := s.failed(); err != nil {
		return nil, err
	}

	out.Limit = v.defaultLimit
	if cfg.Limit != nil {
		if *cfg.Limit < 1 || *cfg.Limit > v.maxLimit {
			s.addf("limit: must be between 1 and %d, got %d", v.maxLimit, *cfg.Limit)
			return nil, s.failed()
		}
		out.Limit = *cfg.Limit
	}
	limit := out.Limit
	out.Normalized.Limit = &limit
	return out, nil
}

// resolve maps a qualified model.column field to a display column of a visible table.
func (s *validation) resolve(field string) (ColumnRef, registry.Column, error) {
	i := strings.IndexByte(field, '.')
	if i <= 0 || i == len(field)-1 {
		return ColumnRef{}, registry.Column{}, fmt.Errorf("%q is not a valid column reference", field)
	}
	model, column := field[:i], field[i+1:]
	entity, ok := s.visible[model]
	if !ok {
		return ColumnRef{}, registry.Column{}, fmt.Errorf("table %q is neither the base model nor joined", model)
	}
	col, ok := entity.Column(column)
	if !ok {
		return ColumnRef{}, registry.Column{}, fmt.Errorf("column %q is not available on %s", column, model)
	}
	return ColumnRef{Model: entity.Key, Column: col.Name}, col, nil
}

func (v *ConfigValidator) validateColumns(s *validation, cfg models.ReportConfiguration, out *ValidatedConfig) {
	seen := map[string]int{}
	if len(cfg.Columns) == 0 {
		normalized := make([]models.ColumnSelection, 0, len(out.Base.Columns))
		for _, c := range out.Base.Columns {
			out.Columns = append(out.Columns, ResolvedColumn{
				Ref:   ColumnRef{Model: out.Base.Key, Column: c.Name},
				Alias: c.Name,
				Label: c.Label,
			})
			normalized = append(normalized, models.ColumnSelection{Field: c.Name, Alias: c.Name})
		}
		out.Normalized.Columns = normalized
		return
	}

	normalized := make([]models.ColumnSelection, 0, len(cfg.Columns))
	for i, c := range cfg.Columns {
		ref, col, err := s.resolveFor(out.Base.Key, c.Field)
		if err != nil {
			s.addf("columns[%d].field: %v", i, err)
			continue
		}
		alias := strings.TrimSpace(c.Alias)
		if alias == "" {
			alias = strings.TrimSpace(c.Field)
		}
		if prev, dup := seen[alias]; dup {
			s.addf("columns[%d].alias: %q already used by columns[%d]", i, alias, prev)
			continue
		}
		seen[alias] = i
		out.Columns = append(out.Columns, ResolvedColumn{Ref: ref, Alias: alias, Label: col.Label})
		normalized = append(normalized, models.ColumnSelection{Field: strings.TrimSpace(c.Field), Alias: alias})
	}
	out.Normalized.Columns = normalized
}

// resolveFor resolves a field where a bare name belongs to the base model.
func (s *validation) resolveFor(base, field string) (ColumnRef, registry.Column, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return ColumnRef{}, registry.Column{}, fmt.Errorf("is required")
	}
	if !strings.Contains(field, ".") {
		field = base + "." + field
	}
	return s.resolve(field)
}

func (v *ConfigValidator) validateFilters(s *validation, cfg models.ReportConfiguration, out *ValidatedConfig) {
	out.Logic = models.LogicAnd
	if cfg.Filters == nil {
		return
	}
	logic := strings.ToLower(strings.TrimSpace(cfg.Filters.Logic))
	switch logic {
	case "":
		logic = models.LogicAnd
	case models.LogicAnd, models.LogicOr:
	default:
		s.addf("filters.logic: must be %q or %q, got %q", models.LogicAnd, models.LogicOr, cfg.Filters.Logic)
	}
	out.Logic = logic
	normalized := *cfg.Filters
	normalized.Logic = logic
	out.Normalized.Filters = &normalized

	for i, cond := range cfg.Filters.Conditions {
		ref, col, err := s.resolveFor(out.Base.Key, cond.Column)
		if err != nil {
			s.addf("filters.conditions[%d].column: %v", i, err)
			continue
		}
		op := strings.ToLower(strings.TrimSpace(cond.Operator))
		if op == "" {
			s.addf("filters.conditions[%d].operator: is required", i)
			continue
		}
		if _, ok := filterOperators[op]; !ok {
			s.addf("filters.conditions[%d].operator: unsupported operator %q", i, cond.Operator)
			continue
		}
		values, err := coerceFilterValue(op, col.Type, cond.Value)
		if err != nil {
			s.addf("filters.conditions[%d].value: %v", i, err)
			continue
		}
		out.Conditions = append(out.Conditions, ResolvedCondition{Ref: ref, Operator: op, Values: values})
	}
}

func (v *ConfigValidator) validateJoins(s *validation, cfg models.ReportConfiguration, out *ValidatedConfig) {
	if len(cfg.Joins) == 0 {
		return
	}
	joined := map[string]registry.Entity{out.Base.Key: out.Base}
	normalized := make([]models.JoinSpec, 0, len(cfg.Joins))

	for i, j := range cfg.Joins {
		kind := strings.ToLower(strings.TrimSpace(j.Type))
		if kind == "" {
			kind = models.JoinInner
		}
		if _, ok := joinTypes[kind]; !ok {
			s.addf("joins[%d].type: unsupported join type %q", i, j.Type)
			continue
		}
		entity, ok := s.reg.Resolve(strings.TrimSpace(j.Table))
		if !ok {
			s.addf("joins[%d].table: unknown model %q", i, j.Table)
			continue
		}
		if entity.Key == out.Base.Key {
			s.addf("joins[%d].table: %q is the base model", i, j.Table)
			continue
		}
		if _, dup := joined[entity.Key]; dup {
			s.addf("joins[%d].table: %q is joined more than once", i, j.Table)
			continue
		}
		op := strings.TrimSpace(j.Operator)
		if op == "" {
			op = "="
		}
		if _, ok := joinOperators[op]; !ok {
			s.addf("joins[%d].operator: unsupported operator %q", i, j.Operator)
			continue
		}

		joined[entity.Key] = entity
		first, err := joinReference(joined, j.First)
		if err != nil {
			s.addf("joins[%d].first: %v", i, err)
		}
		second, err2 := joinReference(joined, j.Second)
		if err2 != nil {
			s.addf("joins[%d].second: %v", i, err2)
		}
		if err != nil || err2 != nil {
			continue
		}

		out.Joins = append(out.Joins, ResolvedJoin{Type: kind, Entity: entity, First: first, Operator: op, Second: second})
		normalized = append(normalized, models.JoinSpec{Type: kind, Table: entity.Key, First: first.String(), Operator: op, Second: second.String()})
	}
	out.Normalized.Joins = normalized
}

// joinReference resolves a qualified reference against tables joined so far.
// Join keys are accepted in addition to display columns.
func joinReference(joined map[string]registry.Entity, raw string) (ColumnRef, error) {
	raw = strings.TrimSpace(raw)
	i := strings.IndexByte(raw, '.')
	if i <= 0 || i == len(raw)-1 {
		return ColumnRef{}, fmt.Errorf("%q must be a table.column reference", raw)
	}
	model, column := raw[:i], raw[i+1:]
	entity, ok := joined[model]
	if !ok {
		return ColumnRef{}, fmt.Errorf("table %q is not visible at this join", model)
	}
	col, ok := entity.JoinColumn(column)
	if !ok {
		return ColumnRef{}, fmt.Errorf("column %q is not joinable on %s", column, model)
	}
	return ColumnRef{Model: entity.Key, Column: col.Name}, nil
}

func (v *ConfigValidator) validateOrder(s *validation, cfg models.ReportConfiguration, out *ValidatedConfig) {
	if len(cfg.OrderBy) == 0 {
		return
	}
	normalized := make([]models.OrderSpec, 0, len(cfg.OrderBy))
	for i, o := range cfg.OrderBy {
		ref, _, err := s.resolveFor(out.Base.Key, o.Column)
		if err != nil {
			s.addf("order_by[%d].column: %v", i, err)
			continue
		}
		dir := strings.ToLower(strings.TrimSpace(o.Direction))
		if dir == "" {
			dir = models.DirectionAsc
		}
		if dir != models.DirectionAsc && dir != models.DirectionDesc {
			s.addf("order_by[%d].direction: must be %q or %q, got %q", i, models.DirectionAsc, models.DirectionDesc, o.Direction)
			continue
		}
		out.OrderBy = append(out.OrderBy, ResolvedOrder{Ref: ref, Desc: dir == models.DirectionDesc})
		normalized = append(normalized, models.OrderSpec{Column: strings.TrimSpace(o.Column), Direction: dir})
	}
	out.Normalized.OrderBy = normalized
}

func coerceFilterValue(op string, t registry.ColumnType, raw interface{}) ([]interface{}, error) {
	if raw == nil {
		return nil, fmt.Errorf("is required")
	}
	if op == "in" {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("operator \"in\" requires an array")
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("operator \"in\" requires at least one value")
		}
		values := make([]interface{}, 0, len(list))
		for i, item := range list {
			v, err := coerceScalar(t, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			values = append(values, v)
		}
		return values, nil
	}
	if op == "like" {
		if !isScalar(raw) {
			return nil, fmt.Errorf("operator \"like\" requires a scalar")
		}
		pattern, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return []interface{}{pattern}, nil
	}
	v, err := coerceScalar(t, raw)
	if err != nil {
		return nil, err
	}
	return []interface{}{v}, nil
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}

// coerceScalar converts a JSON scalar to the bind value for a column type.
func coerceScalar(t registry.ColumnType, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, fmt.Errorf("null is not a comparable value")
	}
	if !isScalar(raw) {
		return nil, fmt.Errorf("expected a scalar, got %T", raw)
	}
	switch t {
	case registry.TypeInteger:
		if s, ok := raw.(string); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", s)
			}
			return n, nil
		}
		if f, ok := raw.(float64); ok && f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		if _, ok := raw.(bool); ok {
			return nil, fmt.Errorf("boolean is not an integer")
		}
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%v is not an integer", raw)
		}
		return n, nil
	case registry.TypeDecimal:
		if _, ok := raw.(bool); ok {
			return nil, fmt.Errorf("boolean is not a number")
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return d.String(), nil
	case registry.TypeDate, registry.TypeDateTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a date string, got %T", raw)
		}
		ts, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(s), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid date", s)
		}
		return ts.UTC(), nil
	case registry.TypeBoolean:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("%v is not a boolean", raw)
		}
		return b, nil
	default:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
