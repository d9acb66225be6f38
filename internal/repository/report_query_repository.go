package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rossmikee121/schoolrepr/pkg/database"
)

// Plan join kinds and filter logic, already normalised to SQL keywords.
const (
	PlanJoinInner = "INNER JOIN"
	PlanJoinLeft  = "LEFT JOIN"
	PlanJoinRight = "RIGHT JOIN"

	PlanLogicAnd = "AND"
	PlanLogicOr  = "OR"
)

var (
	comparisonOperators = map[string]struct{}{"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {}}
	joinKinds           = map[string]struct{}{PlanJoinInner: {}, PlanJoinLeft: {}, PlanJoinRight: {}}
)

// PlanRef is a qualified column reference. Alias is the model key the table is
// bound to in the FROM clause.
type PlanRef struct {
	Alias  string
	Column string
}

// PlanTable binds a registered table to an alias.
type PlanTable struct {
	Table string
	Alias string
}

// PlanJoin is one JOIN clause.
type PlanJoin struct {
	Kind     string
	Target   PlanTable
	Left     PlanRef
	Operator string
	Right    PlanRef
}

// PlanCondition is one WHERE predicate. Values are bound, never interpolated.
type PlanCondition struct {
	Ref      PlanRef
	Operator string
	Values   []interface{}
}

// PlanOrder is one ORDER BY term.
type PlanOrder struct {
	Ref  PlanRef
	Desc bool
}

// QueryPlan is a fully resolved report query. Every identifier in it has been
// taken from the entity registry by the caller.
type QueryPlan struct {
	Base       PlanTable
	Projection []PlanRef
	Joins      []PlanJoin
	Logic      string
	Conditions []PlanCondition
	OrderBy    []PlanOrder
	Limit      int
}

// QueryResult holds projected rows in projection order and the unlimited total.
type QueryResult struct {
	Rows  [][]interface{}
	Total int64
}

// ReportQueryRepository executes compiled report plans.
type ReportQueryRepository struct {
	db *sqlx.DB
}

// NewReportQueryRepository constructs the repository.
func NewReportQueryRepository(db *sqlx.DB) *ReportQueryRepository {
	return &ReportQueryRepository{db: db}
}

// Run executes the row query and the count query inside one read-only
// transaction so both observe the same snapshot where the driver allows it.
func (r *ReportQueryRepository) Run(ctx context.Context, plan QueryPlan) (result *QueryResult, err error) {
	rowsSQL, rowsArgs, err := CompileSelect(plan)
	if err != nil {
		return nil, err
	}
	countSQL, countArgs, err := CompileCount(plan)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, database.ReadSnapshot(r.db.DriverName()))
	if err != nil {
		return nil, unavailable("begin report tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryxContext(ctx, tx.Rebind(rowsSQL), rowsArgs...)
	if err != nil {
		return nil, classify("query report rows", err)
	}
	result = &QueryResult{Rows: make([][]interface{}, 0)}
	for rows.Next() {
		values, scanErr := rows.SliceScan()
		if scanErr != nil {
			_ = rows.Close()
			err = classify("scan report row", scanErr)
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, classify("iterate report rows", err)
	}
	_ = rows.Close()

	if err = tx.GetContext(ctx, &result.Total, tx.Rebind(countSQL), countArgs...); err != nil {
		return nil, classify("count report rows", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, unavailable("commit report tx", err)
	}
	return result, nil
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	default:
		return val
	}
}

// CompileSelect renders the row query with positional projection aliases
// c0..cn and ? placeholders.
func CompileSelect(plan QueryPlan) (string, []interface{}, error) {
	if len(plan.Projection) == 0 {
		return "", nil, fmt.Errorf("compile report: empty projection")
	}
	if plan.Limit <= 0 {
		return "", nil, fmt.Errorf("compile report: limit must be positive")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, ref := range plan.Projection {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteRef(ref))
		b.WriteString(" AS ")
		b.WriteString(quoteIdent(ProjectionAlias(i)))
	}

	args, err := writeFromWhere(&b, plan)
	if err != nil {
		return "", nil, err
	}

	if len(plan.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range plan.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteRef(o.Ref))
			if o.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(plan.Limit))
	return b.String(), args, nil
}

// CompileCount renders the total-count query sharing the row query's joins and filters.
func CompileCount(plan QueryPlan) (string, []interface{}, error) {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*)")
	args, err := writeFromWhere(&b, plan)
	if err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

// ProjectionAlias is the SQL alias of the i-th projected column.
func ProjectionAlias(i int) string {
	return "c" + strconv.Itoa(i)
}

func writeFromWhere(b *strings.Builder, plan QueryPlan) ([]interface{}, error) {
	b.WriteString(" FROM ")
	b.WriteString(quoteTable(plan.Base))

	for _, j := range plan.Joins {
		if _, ok := joinKinds[j.Kind]; !ok {
			return nil, fmt.Errorf("compile report: unsupported join %q", j.Kind)
		}
		if _, ok := comparisonOperators[j.Operator]; !ok {
			return nil, fmt.Errorf("compile report: unsupported join operator %q", j.Operator)
		}
		b.WriteString(" ")
		b.WriteString(j.Kind)
		b.WriteString(" ")
		b.WriteString(quoteTable(j.Target))
		b.WriteString(" ON ")
		b.WriteString(quoteRef(j.Left))
		b.WriteString(" ")
		b.WriteString(j.Operator)
		b.WriteString(" ")
		b.WriteString(quoteRef(j.Right))
	}

	if len(plan.Conditions) == 0 {
		return nil, nil
	}

	glue := " AND "
	switch plan.Logic {
	case "", PlanLogicAnd:
	case PlanLogicOr:
		glue = " OR "
	default:
		return nil, fmt.Errorf("compile report: unsupported logic %q", plan.Logic)
	}

	args := make([]interface{}, 0, len(plan.Conditions))
	b.WriteString(" WHERE (")
	for i, c := range plan.Conditions {
		if i > 0 {
			b.WriteString(glue)
		}
		predicate, err := compileCondition(c)
		if err != nil {
			return nil, err
		}
		b.WriteString(predicate)
		args = append(args, c.Values...)
	}
	b.WriteString(")")
	return args, nil
}

func compileCondition(c PlanCondition) (string, error) {
	ref := quoteRef(c.Ref)
	switch c.Operator {
	case "in":
		if len(c.Values) == 0 {
			return "", fmt.Errorf("compile report: empty IN list for %s", ref)
		}
		return ref + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(c.Values)), ", ") + ")", nil
	case "like":
		if len(c.Values) != 1 {
			return "", fmt.Errorf("compile report: LIKE takes one value")
		}
		return ref + " LIKE ?", nil
	default:
		if _, ok := comparisonOperators[c.Operator]; !ok {
			return "", fmt.Errorf("compile report: unsupported operator %q", c.Operator)
		}
		if len(c.Values) != 1 {
			return "", fmt.Errorf("compile report: %s takes one value", c.Operator)
		}
		return ref + " " + c.Operator + " ?", nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteRef(ref PlanRef) string {
	return quoteIdent(ref.Alias) + "." + quoteIdent(ref.Column)
}

func quoteTable(t PlanTable) string {
	return quoteIdent(t.Table) + " AS " + quoteIdent(t.Alias)
}
