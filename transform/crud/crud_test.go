package crud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform/crud"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func ordersFixture() crud.FixtureRegistry {
	return crud.FixtureRegistry{
		"orders": &crud.FixtureTable{
			Columns: []string{"id", "customer_id", "status"},
			Defaults: map[string]ast.Expr{
				"status": ast.NewStringLiteral(token.Span{}, nil, "pending"),
			},
			Rows: [][]ast.Expr{
				{numeric("1"), numeric("10"), str("open")},
				{numeric("2"), numeric("11"), str("open")},
			},
		},
	}
}

func numeric(text string) ast.Expr {
	lit, _ := ast.NewNumericLiteral(token.Span{}, nil, text)
	return lit
}

func str(text string) ast.Expr {
	return ast.NewStringLiteral(token.Span{}, nil, text)
}

func TestInsertToSelectRewriter_ValuesFillsDefaults(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO orders (id, customer_id) VALUES (3, 12)`)

	rewriter := crud.NewInsertToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	vs := sel.From.Item.(*ast.ValuesSource)
	assert.Equal(t, []string{"id", "customer_id", "status"}, vs.ColumnAliases)
	require.Len(t, vs.Rows, 1)
	assert.Len(t, vs.Rows[0], 3)
	lit, ok := vs.Rows[0][2].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "pending", lit.Text)
}

func TestInsertToSelectRewriter_UnknownTablePassthrough(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO widgets (id) VALUES (1)`)

	rewriter := crud.NewInsertToSelectRewriter(ordersFixture(), crud.MissingFixturePassthrough)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)
	_, ok := out.(*ast.Insert)
	assert.True(t, ok, "passthrough strategy must leave the statement untouched")
}

func TestInsertToSelectRewriter_UnknownTableErrors(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO widgets (id) VALUES (1)`)

	rewriter := crud.NewInsertToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	_, _, err := rewriter.Transform(stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerrs.ErrUnknownFixture)
}

func TestUpdateToSelectRewriter_ProjectsSetValuesUnderWhere(t *testing.T) {
	stmt := mustParse(t, `UPDATE orders SET status = 'shipped' WHERE customer_id = 10`)

	rewriter := crud.NewUpdateToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Where)
	aliases := make([]string, 0, len(sel.Select.Items))
	for _, item := range sel.Select.Items {
		aliases = append(aliases, item.Alias)
	}
	assert.ElementsMatch(t, []string{"id", "customer_id", "status"}, aliases)
}

func TestDeleteToSelectRewriter_ProjectsUnderWhere(t *testing.T) {
	stmt := mustParse(t, `DELETE FROM orders WHERE status = 'open'`)

	rewriter := crud.NewDeleteToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.Where)
	assert.Len(t, sel.Select.Items, 3)
}

func TestMergeToSelectRewriter_UnionsMatchedAndNotMatchedBranches(t *testing.T) {
	stmt := mustParse(t, `
		MERGE INTO orders o
		USING incoming i ON i.id = o.id
		WHEN MATCHED THEN UPDATE SET status = i.status
		WHEN NOT MATCHED THEN INSERT (id, customer_id, status) VALUES (i.id, i.customer_id, i.status)
	`)

	rewriter := crud.NewMergeToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)

	bin, ok := out.(*ast.BinarySelect)
	require.True(t, ok, "two branches must combine via UNION ALL")
	assert.Equal(t, ast.SetUnionAll, bin.Operator)

	matched := bin.Left.(*ast.SimpleSelect)
	notMatched := bin.Right.(*ast.SimpleSelect)

	var matchedTag, notMatchedTag string
	for _, item := range matched.Select.Items {
		if item.Alias == "__merge_action" {
			matchedTag = item.Expr.(*ast.Literal).Text
		}
	}
	for _, item := range notMatched.Select.Items {
		if item.Alias == "__merge_action" {
			notMatchedTag = item.Expr.(*ast.Literal).Text
		}
	}
	assert.Equal(t, "update", matchedTag)
	assert.Equal(t, "insert", notMatchedTag)
	require.NotNil(t, notMatched.Where)
}

func TestMergeToSelectRewriter_DoNothingBranchProducesNoOutputForThatAction(t *testing.T) {
	stmt := mustParse(t, `
		MERGE INTO orders o
		USING incoming i ON i.id = o.id
		WHEN MATCHED THEN DO NOTHING
		WHEN NOT MATCHED THEN INSERT (id, customer_id, status) VALUES (i.id, i.customer_id, i.status)
	`)

	rewriter := crud.NewMergeToSelectRewriter(ordersFixture(), crud.MissingFixtureError)
	out, _, err := rewriter.Transform(stmt)
	require.NoError(t, err)

	// only the NOT MATCHED insert branch survives; no UNION is needed.
	_, isBinary := out.(*ast.BinarySelect)
	assert.False(t, isBinary)
	_, isSelect := out.(*ast.SimpleSelect)
	assert.True(t, isSelect)
}
