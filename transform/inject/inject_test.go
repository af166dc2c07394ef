package inject_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform/inject"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

// usersCatalog lists the users table's columns; without a catalog a base
// table accepts any column name, so no column is ever unknown.
func usersCatalog(string) []string { return []string{"id"} }

func TestSqlParamInjector_BasicEquality(t *testing.T) {
	stmt := mustParse(t, `SELECT id, name FROM users WHERE active = TRUE`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"id": {Kind: inject.ConditionScalar, Scalar: 42},
	}, inject.ParamInjectorOptions{})

	out, notes, err := injector.Transform(stmt)
	require.NoError(t, err)
	assert.Empty(t, notes)

	sel := out.(*ast.SimpleSelect)
	bin, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", bin.Op)
	rhs := bin.Right.(*ast.BinaryOp)
	assert.Equal(t, "=", rhs.Op)
	col := rhs.Left.(*ast.ColumnRef)
	assert.Equal(t, "id", col.Name)

	// the injected value travels as a named parameter ref plus a
	// bindings entry, never as an inline literal.
	param, ok := rhs.Right.(*ast.ParameterRef)
	require.True(t, ok)
	assert.Equal(t, "id", param.Name)
	bindings := sel.Bindings()
	require.NotNil(t, bindings)
	v, ok := bindings.Get("id")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestSqlParamInjector_OrGroupOperator(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM products`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"status": {
			Kind:    inject.ConditionLogical,
			Logical: inject.LogicalOr,
			Conditions: []inject.Condition{
				{Kind: inject.ConditionScalar, Scalar: "active"},
				{Kind: inject.ConditionScalar, Scalar: "pending"},
			},
		},
	}, inject.ParamInjectorOptions{})

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	bin, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "OR", bin.Op)
}

func TestSqlParamInjector_OrGroupSpansDifferentColumns(t *testing.T) {
	stmt := mustParse(t, `SELECT u.user_name, u.email FROM users u`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"name_or_email": {
			Kind:    inject.ConditionLogical,
			Logical: inject.LogicalOr,
			Conditions: []inject.Condition{
				{Kind: inject.ConditionOperator, Column: "user_name", Operator: inject.OpILike, Value: "%a%"},
				{Kind: inject.ConditionOperator, Column: "email", Operator: inject.OpILike, Value: "%a%"},
			},
		},
	}, inject.ParamInjectorOptions{})

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	bin, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "OR", bin.Op)

	left := bin.Left.(*ast.Like)
	leftCol := left.Expr.(*ast.ColumnRef)
	assert.Equal(t, "user_name", leftCol.Name)
	leftParam := left.Pattern.(*ast.ParameterRef)
	assert.Equal(t, "name_or_email_or_0_ilike", leftParam.Name)

	right := bin.Right.(*ast.Like)
	rightCol := right.Expr.(*ast.ColumnRef)
	assert.Equal(t, "email", rightCol.Name)
	rightParam := right.Pattern.(*ast.ParameterRef)
	assert.Equal(t, "name_or_email_or_1_ilike", rightParam.Name)

	bindings := sel.Bindings()
	require.NotNil(t, bindings)
	v0, ok := bindings.Get("name_or_email_or_0_ilike")
	require.True(t, ok)
	assert.Equal(t, "%a%", v0)
	v1, ok := bindings.Get("name_or_email_or_1_ilike")
	require.True(t, ok)
	assert.Equal(t, "%a%", v1)
}

func TestSqlParamInjector_UnknownColumnErrorsByDefault(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"missing": {Kind: inject.ConditionScalar, Scalar: 1},
	}, inject.ParamInjectorOptions{ResolveColumns: usersCatalog})

	_, _, err := injector.Transform(stmt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrUnknownColumn))
}

func TestSqlParamInjector_UnknownColumnToleratedWhenIgnored(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"missing": {Kind: inject.ConditionScalar, Scalar: 1},
	}, inject.ParamInjectorOptions{IgnoreNonExistentColumns: true, ResolveColumns: usersCatalog})

	out, notes, err := injector.Transform(stmt)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	sel := out.(*ast.SimpleSelect)
	assert.Nil(t, sel.Where)
}

func TestSqlParamInjector_AllUndefinedRejectedByDefault(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"id": {Undefined: true},
	}, inject.ParamInjectorOptions{})

	_, _, err := injector.Transform(stmt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrAllUndefinedParams))
}

func TestSqlParamInjector_UpstreamRewritesCTEProducer(t *testing.T) {
	stmt := mustParse(t, `
		WITH totals AS (SELECT user_id, quantity * pack_size AS amount FROM order_lines)
		SELECT t.user_id, t.amount FROM totals t
	`)

	injector := inject.NewSqlParamInjector(map[string]inject.Condition{
		"amount": {Kind: inject.ConditionOperator, Operator: inject.OpGt, Value: 100},
	}, inject.ParamInjectorOptions{Upstream: true})

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	cteBody := sel.With.CTEs[0].Body.(*ast.SimpleSelect)
	require.NotNil(t, cteBody.Where)
	bin := cteBody.Where.Condition.(*ast.BinaryOp)
	assert.Equal(t, ">", bin.Op)
	_, ok := bin.Left.(*ast.BinaryOp) // quantity * pack_size
	require.True(t, ok)

	// the outer query itself must be untouched.
	assert.Nil(t, sel.Where)
}

func TestSqlSortInjector_AppendsPreservingExisting(t *testing.T) {
	stmt := mustParse(t, `SELECT id, name FROM users ORDER BY id ASC`)

	injector := inject.NewSqlSortInjector(map[string]inject.SortSpec{
		"name": {Direction: ast.Descending, Nulls: ast.NullsLast},
	}, false, nil)

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.Len(t, sel.OrderBy.Items, 2)
	assert.Equal(t, "id", sel.OrderBy.Items[0].Expr.(*ast.ColumnRef).Name)
	assert.Equal(t, "name", sel.OrderBy.Items[1].Expr.(*ast.ColumnRef).Name)
	assert.Equal(t, ast.Descending, sel.OrderBy.Items[1].Direction)
}

func TestSqlSortInjector_ReplaceDiscardsPriorOrder(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users ORDER BY id ASC`)

	injector := inject.NewSqlSortInjector(map[string]inject.SortSpec{
		"id": {Direction: ast.Descending},
	}, true, nil)

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)
	sel := out.(*ast.SimpleSelect)
	require.Len(t, sel.OrderBy.Items, 1)
	assert.Equal(t, ast.Descending, sel.OrderBy.Items[0].Direction)
}

func TestSqlSortInjector_UsesProjectionAlias(t *testing.T) {
	stmt := mustParse(t, `SELECT quantity * pack_size AS amount FROM order_lines`)

	injector := inject.NewSqlSortInjector(map[string]inject.SortSpec{
		"amount": {Direction: ast.Ascending},
	}, false, nil)

	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)
	sel := out.(*ast.SimpleSelect)
	col := sel.OrderBy.Items[0].Expr.(*ast.ColumnRef)
	assert.Equal(t, "amount", col.Name)
}

func TestSqlPaginationInjector_FirstPageOmitsOffset(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users ORDER BY id`)

	injector := inject.NewSqlPaginationInjector(inject.PaginationSpec{Page: 1, PageSize: 20})
	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Limit)
	assert.Equal(t, "20", sel.Limit.Limit.(*ast.Literal).Text)
	assert.Nil(t, sel.Limit.Offset)
}

func TestSqlPaginationInjector_LaterPageEmitsOffset(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users ORDER BY id`)

	injector := inject.NewSqlPaginationInjector(inject.PaginationSpec{Page: 3, PageSize: 20})
	out, _, err := injector.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Limit.Offset)
	assert.Equal(t, "40", sel.Limit.Offset.(*ast.Literal).Text)
}

func TestSqlPaginationInjector_RejectsExistingLimit(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users LIMIT 10`)

	injector := inject.NewSqlPaginationInjector(inject.PaginationSpec{Page: 1, PageSize: 20})
	_, _, err := injector.Transform(stmt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrConflictingLimit))
}

func TestSqlPaginationInjector_RejectsPageBelowOne(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	injector := inject.NewSqlPaginationInjector(inject.PaginationSpec{Page: 0, PageSize: 20})
	_, _, err := injector.Transform(stmt)
	require.Error(t, err)
}

func TestSqlPaginationInjector_RejectsOverMaxPageSize(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	injector := inject.NewSqlPaginationInjector(inject.PaginationSpec{Page: 1, PageSize: 500, MaxPageSize: 100})
	_, _, err := injector.Transform(stmt)
	require.Error(t, err)
}
