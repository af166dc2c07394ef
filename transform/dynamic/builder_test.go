package dynamic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/transform/dynamic"
	"github.com/sqlxform/sqlxform/transform/inject"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func TestDynamicQueryBuilder_RunsOnlyConfiguredStages(t *testing.T) {
	stmt := mustParse(t, `SELECT id, name FROM users`)

	builder := dynamic.NewDynamicQueryBuilder(dynamic.Options{
		Conditions: map[string]inject.Condition{
			"id": {Kind: inject.ConditionScalar, Scalar: 7},
		},
	})

	out, _, err := builder.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Where)
	assert.Nil(t, sel.OrderBy)
	assert.Nil(t, sel.Limit)
}

func TestDynamicQueryBuilder_ComposesFilterSortAndPage(t *testing.T) {
	stmt := mustParse(t, `SELECT id, name FROM users`)

	page := inject.PaginationSpec{Page: 2, PageSize: 10}
	builder := dynamic.NewDynamicQueryBuilder(dynamic.Options{
		Conditions: map[string]inject.Condition{
			"id": {Kind: inject.ConditionOperator, Operator: inject.OpGt, Value: 0},
		},
		Sort: map[string]inject.SortSpec{
			"name": {Direction: ast.Ascending},
		},
		Pagination: &page,
	})

	out, _, err := builder.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Where)
	require.NotNil(t, sel.OrderBy)
	require.Len(t, sel.OrderBy.Items, 1)
	require.NotNil(t, sel.Limit)
	require.NotNil(t, sel.Limit.Offset)
	assert.Equal(t, "10", sel.Limit.Offset.(*ast.Literal).Text)
}

func TestDynamicQueryBuilder_NoStagesConfiguredIsANoOp(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users`)

	builder := dynamic.NewDynamicQueryBuilder(dynamic.Options{})
	out, notes, err := builder.Transform(stmt)
	require.NoError(t, err)
	assert.Empty(t, notes)

	sel := out.(*ast.SimpleSelect)
	assert.Nil(t, sel.Where)
	assert.Nil(t, sel.OrderBy)
	assert.Nil(t, sel.Limit)
}
