package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studentPlan() QueryPlan {
	return QueryPlan{
		Base: PlanTable{Table: "students", Alias: "students"},
		Projection: []PlanRef{
			{Alias: "students", Column: "first_name"},
			{Alias: "students", Column: "last_name"},
		},
		Limit: 10,
	}
}

func TestCompileSelectShape(t *testing.T) {
	plan := studentPlan()
	plan.Joins = []PlanJoin{{
		Kind:     PlanJoinLeft,
		Target:   PlanTable{Table: "student_fees", Alias: "student_fees"},
		Left:     PlanRef{Alias: "students", Column: "id"},
		Operator: "=",
		Right:    PlanRef{Alias: "student_fees", Column: "student_id"},
	}}
	plan.Logic = PlanLogicOr
	plan.Conditions = []PlanCondition{
		{Ref: PlanRef{Alias: "students", Column: "status"}, Operator: "in", Values: []interface{}{"active", "inactive"}},
		{Ref: PlanRef{Alias: "students", Column: "last_name"}, Operator: "like", Values: []interface{}{"D%"}},
	}
	plan.OrderBy = []PlanOrder{{Ref: PlanRef{Alias: "students", Column: "last_name"}, Desc: true}}

	query, args, err := CompileSelect(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "students"."first_name" AS "c0", "students"."last_name" AS "c1" FROM "students" AS "students"`+
		` LEFT JOIN "student_fees" AS "student_fees" ON "students"."id" = "student_fees"."student_id"`+
		` WHERE ("students"."status" IN (?, ?) OR "students"."last_name" LIKE ?)`+
		` ORDER BY "students"."last_name" DESC LIMIT 10`, query)
	assert.Equal(t, []interface{}{"active", "inactive", "D%"}, args)

	count, countArgs, err := CompileCount(plan)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "students" AS "students"`+
		` LEFT JOIN "student_fees" AS "student_fees" ON "students"."id" = "student_fees"."student_id"`+
		` WHERE ("students"."status" IN (?, ?) OR "students"."last_name" LIKE ?)`, count)
	assert.Equal(t, args, countArgs)
}

func TestCompileSelectRejectsMalformedPlans(t *testing.T) {
	cases := map[string]func(p *QueryPlan){
		"empty projection": func(p *QueryPlan) { p.Projection = nil },
		"zero limit":       func(p *QueryPlan) { p.Limit = 0 },
		"operator": func(p *QueryPlan) {
			p.Conditions = []PlanCondition{{Ref: p.Projection[0], Operator: "; DROP", Values: []interface{}{1}}}
		},
		"empty in": func(p *QueryPlan) {
			p.Conditions = []PlanCondition{{Ref: p.Projection[0], Operator: "in"}}
		},
		"logic": func(p *QueryPlan) {
			p.Logic = "XOR"
			p.Conditions = []PlanCondition{{Ref: p.Projection[0], Operator: "=", Values: []interface{}{1}}}
		},
		"join kind": func(p *QueryPlan) {
			p.Joins = []PlanJoin{{Kind: "CROSS JOIN", Target: p.Base, Operator: "="}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			plan := studentPlan()
			mutate(&plan)
			_, _, err := CompileSelect(plan)
			require.Error(t, err)
		})
	}
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestReportQueryRepositoryRunWithMock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportQueryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "students"."first_name" AS "c0"`)).
		WillReturnRows(sqlmock.NewRows([]string{"c0", "c1"}).AddRow([]byte("John"), "Doe"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "students"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	result, err := repo.Run(context.Background(), studentPlan())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []interface{}{"John", "Doe"}, result.Rows[0])
	assert.EqualValues(t, 1, result.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportQueryRepositoryBeginFailureIsUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportQueryRepository(db)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := repo.Run(context.Background(), studentPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReportQueryRepositoryQueryFailureIsNotUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportQueryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("column does not exist"))
	mock.ExpectRollback()

	_, err := repo.Run(context.Background(), studentPlan())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportQueryRepositorySQLite(t *testing.T) {
	db := newSQLiteDB(t)
	mustExec(t, db, `INSERT INTO students (id, first_name, last_name, email, status) VALUES (?, ?, ?, ?, ?)`, "s-1", "John", "Doe", "john@example.com", "active")
	mustExec(t, db, `INSERT INTO students (id, first_name, last_name, email, status) VALUES (?, ?, ?, ?, ?)`, "s-2", "Jane", "Smith", "jane@example.com", "active")
	mustExec(t, db, `INSERT INTO students (id, first_name, last_name, email, status) VALUES (?, ?, ?, ?, ?)`, "s-3", "Old", "Timer", "old@example.com", "graduated")
	repo := NewReportQueryRepository(db)
	ctx := context.Background()

	t.Run("and filter", func(t *testing.T) {
		plan := studentPlan()
		plan.Conditions = []PlanCondition{{Ref: PlanRef{Alias: "students", Column: "status"}, Operator: "=", Values: []interface{}{"active"}}}
		plan.OrderBy = []PlanOrder{{Ref: PlanRef{Alias: "students", Column: "first_name"}}}

		result, err := repo.Run(ctx, plan)
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, "Jane", result.Rows[0][0])
		assert.Equal(t, "John", result.Rows[1][0])
		assert.EqualValues(t, 2, result.Total)
	})

	t.Run("or filter", func(t *testing.T) {
		plan := studentPlan()
		plan.Logic = PlanLogicOr
		plan.Conditions = []PlanCondition{
			{Ref: PlanRef{Alias: "students", Column: "first_name"}, Operator: "=", Values: []interface{}{"John"}},
			{Ref: PlanRef{Alias: "students", Column: "status"}, Operator: "=", Values: []interface{}{"graduated"}},
		}
		result, err := repo.Run(ctx, plan)
		require.NoError(t, err)
		assert.EqualValues(t, 2, result.Total)
	})

	t.Run("injection attempt is a bound value", func(t *testing.T) {
		plan := studentPlan()
		plan.Conditions = []PlanCondition{{Ref: PlanRef{Alias: "students", Column: "last_name"}, Operator: "=", Values: []interface{}{"x' OR '1'='1"}}}
		result, err := repo.Run(ctx, plan)
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.EqualValues(t, 0, result.Total)
	})
}

func TestReportQueryRepositoryTotalIgnoresLimit(t *testing.T) {
	db := newSQLiteDB(t)
	for i := 0; i < 25; i++ {
		mustExec(t, db, `INSERT INTO students (id, first_name, last_name, status) VALUES (?, ?, ?, ?)`,
			fmt.Sprintf("s-%02d", i), fmt.Sprintf("First%02d", i), "Bulk", "active")
	}
	repo := NewReportQueryRepository(db)

	result, err := repo.Run(context.Background(), studentPlan())
	require.NoError(t, err)
	assert.Len(t, result.Rows, 10)
	assert.EqualValues(t, 25, result.Total)
}
