package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rossmikee121/schoolrepr/internal/models"
	"github.com/rossmikee121/schoolrepr/internal/registry"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

type reportQueryRunner interface {
	Run(ctx context.Context, plan repository.QueryPlan) (*repository.QueryResult, error)
}

// ResultColumn describes one output column of a report.
type ResultColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ReportResult is an executed report. Rows are keyed by column alias.
type ReportResult struct {
	Columns []ResultColumn           `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Total   int64                    `json:"total"`
}

// ReportExecutor compiles validated configurations and runs them.
type ReportExecutor struct {
	registry *registry.Registry
	runner   reportQueryRunner
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewReportExecutor constructs the executor.
func NewReportExecutor(reg *registry.Registry, runner reportQueryRunner, metrics *MetricsService, logger *zap.Logger) *ReportExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportExecutor{registry: reg, runner: runner, metrics: metrics, logger: logger}
}

// Execute runs the configuration with its own limit.
func (e *ReportExecutor) Execute(ctx context.Context, vc *ValidatedConfig) (*ReportResult, error) {
	if vc == nil {
		return nil, appErrors.Clone(appErrors.ErrQuery, "missing validated configuration")
	}
	return e.ExecuteWithLimit(ctx, vc, vc.Limit)
}

// ExecuteWithLimit runs the configuration with an overriding row limit.
func (e *ReportExecutor) ExecuteWithLimit(ctx context.Context, vc *ValidatedConfig, limit int) (*ReportResult, error) {
	if vc == nil {
		return nil, appErrors.Clone(appErrors.ErrQuery, "missing validated configuration")
	}
	plan, err := e.plan(vc, limit)
	if err != nil {
		e.logger.Sugar().Errorw("report plan rejected", "model", vc.Base.Key, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrQuery.Code, appErrors.ErrQuery.Status, appErrors.ErrQuery.Message)
	}

	start := time.Now()
	result, err := e.runner.Run(ctx, plan)
	e.metrics.ObserveReportQuery(vc.Base.Key, time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			e.logger.Sugar().Warnw("report storage unavailable", "model", vc.Base.Key, "error", err)
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, appErrors.ErrStorage.Message)
		}
		e.logger.Sugar().Errorw("report query failed", "model", vc.Base.Key, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrQuery.Code, appErrors.ErrQuery.Status, appErrors.ErrQuery.Message)
	}

	out := &ReportResult{
		Columns: make([]ResultColumn, len(vc.Columns)),
		Rows:    make([]map[string]interface{}, 0, len(result.Rows)),
		Total:   result.Total,
	}
	for i, c := range vc.Columns {
		out.Columns[i] = ResultColumn{Key: c.Alias, Label: c.Label}
	}
	for _, values := range result.Rows {
		if len(values) != len(vc.Columns) {
			return nil, appErrors.Clone(appErrors.ErrQuery, "unexpected column count in report row")
		}
		row := make(map[string]interface{}, len(values))
		for i, v := range values {
			row[vc.Columns[i].Alias] = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// plan maps the validated configuration onto registry identifiers, checking
// each one again so nothing outside the registry reaches the compiler.
func (e *ReportExecutor) plan(vc *ValidatedConfig, limit int) (repository.QueryPlan, error) {
	if limit < 1 {
		return repository.QueryPlan{}, fmt.Errorf("invalid limit %d", limit)
	}
	base, ok := e.registry.Resolve(vc.Base.Key)
	if !ok || base.Table != vc.Base.Table {
		return repository.QueryPlan{}, fmt.Errorf("base model %q is not registered", vc.Base.Key)
	}
	tables := map[string]registry.Entity{base.Key: base}

	plan := repository.QueryPlan{
		Base:  repository.PlanTable{Table: base.Table, Alias: base.Key},
		Logic: repository.PlanLogicAnd,
		Limit: limit,
	}
	if vc.Logic == models.LogicOr {
		plan.Logic = repository.PlanLogicOr
	}

	for _, j := range vc.Joins {
		entity, ok := e.registry.Resolve(j.Entity.Key)
		if !ok || entity.Table != j.Entity.Table {
			return repository.QueryPlan{}, fmt.Errorf("join model %q is not registered", j.Entity.Key)
		}
		tables[entity.Key] = entity
		left, err := joinRef(tables, j.First)
		if err != nil {
			return repository.QueryPlan{}, err
		}
		right, err := joinRef(tables, j.Second)
		if err != nil {
			return repository.QueryPlan{}, err
		}
		plan.Joins = append(plan.Joins, repository.PlanJoin{
			Kind:     planJoinKind(j.Type),
			Target:   repository.PlanTable{Table: entity.Table, Alias: entity.Key},
			Left:     left,
			Operator: j.Operator,
			Right:    right,
		})
	}

	for _, c := range vc.Columns {
		ref, err := displayRef(tables, c.Ref)
		if err != nil {
			return repository.QueryPlan{}, err
		}
		plan.Projection = append(plan.Projection, ref)
	}
	if len(plan.Projection) == 0 {
		return repository.QueryPlan{}, fmt.Errorf("no columns to project")
	}
	for _, c := range vc.Conditions {
		ref, err := displayRef(tables, c.Ref)
		if err != nil {
			return repository.QueryPlan{}, err
		}
		plan.Conditions = append(plan.Conditions, repository.PlanCondition{Ref: ref, Operator: c.Operator, Values: c.Values})
	}
	for _, o := range vc.OrderBy {
		ref, err := displayRef(tables, o.Ref)
		if err != nil {
			return repository.QueryPlan{}, err
		}
		plan.OrderBy = append(plan.OrderBy, repository.PlanOrder{Ref: ref, Desc: o.Desc})
	}
	return plan, nil
}

func displayRef(tables map[string]registry.Entity, ref ColumnRef) (repository.PlanRef, error) {
	entity, ok := tables[ref.Model]
	if !ok {
		return repository.PlanRef{}, fmt.Errorf("table %q is not part of the query", ref.Model)
	}
	if _, ok := entity.Column(ref.Column); !ok {
		return repository.PlanRef{}, fmt.Errorf("column %s is not allowed", ref)
	}
	return repository.PlanRef{Alias: entity.Key, Column: ref.Column}, nil
}

func joinRef(tables map[string]registry.Entity, ref ColumnRef) (repository.PlanRef, error) {
	entity, ok := tables[ref.Model]
	if !ok {
		return repository.PlanRef{}, fmt.Errorf("table %q is not part of the query", ref.Model)
	}
	if _, ok := entity.JoinColumn(ref.Column); !ok {
		return repository.PlanRef{}, fmt.Errorf("column %s is not joinable", ref)
	}
	return repository.PlanRef{Alias: entity.Key, Column: ref.Column}, nil
}

func planJoinKind(t string) string {
	switch t {
	case models.JoinLeft:
		return repository.PlanJoinLeft
	case models.JoinRight:
		return repository.PlanJoinRight
	default:
		return repository.PlanJoinInner
	}
}
