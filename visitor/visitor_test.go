package visitor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/visitor"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err)
	return stmt
}

func TestWalk_CountsColumnRefs(t *testing.T) {
	stmt := mustParse(t, `SELECT a.x, a.y FROM t a WHERE a.x > 1 AND a.y < 2`)

	count := 0
	visitor.Inspect(stmt, func(n ast.Node) bool {
		if n == nil {
			return true
		}
		if _, ok := n.(*ast.ColumnRef); ok {
			count++
		}
		return true
	})

	assert.Equal(t, 4, count)
}

func TestWalk_SkipChildrenOnFalse(t *testing.T) {
	stmt := mustParse(t, `SELECT a.x FROM t a WHERE a.x > 1`)

	var sawWhereChild bool
	visitor.Inspect(stmt, func(n ast.Node) bool {
		if n == nil {
			return true
		}
		if _, ok := n.(*ast.WhereClause); ok {
			return false // don't descend into the predicate
		}
		if _, ok := n.(*ast.BinaryOp); ok {
			sawWhereChild = true
		}
		return true
	})

	assert.False(t, sawWhereChild)
}

func TestRewrite_ReplaceLiteral(t *testing.T) {
	stmt := mustParse(t, `SELECT 1, 2 FROM t`)

	r := visitor.RewriterFunc(func(n ast.Node) (ast.Node, bool) {
		if lit, ok := n.(*ast.Literal); ok && lit.Kind == ast.LiteralNumeric && lit.Text == "1" {
			replacement := ast.NewStringLiteral(lit.Span(), nil, "one")
			return replacement, false
		}
		return n, true
	})

	out := visitor.Rewrite(r, stmt).(*ast.SimpleSelect)
	first := out.Select.Items[0].Expr.(*ast.Literal)
	assert.Equal(t, ast.LiteralString, first.Kind)
	assert.Equal(t, "one", first.Text)

	second := out.Select.Items[1].Expr.(*ast.Literal)
	assert.Equal(t, ast.LiteralNumeric, second.Kind)

	// original tree must be untouched (immutability).
	orig := stmt.(*ast.SimpleSelect)
	origFirst := orig.Select.Items[0].Expr.(*ast.Literal)
	assert.Equal(t, ast.LiteralNumeric, origFirst.Kind)
}

func TestRewrite_AppendWherePredicateLeavesRestShared(t *testing.T) {
	stmt := mustParse(t, `SELECT a, b FROM t WHERE a = 1`)
	sel := stmt.(*ast.SimpleSelect)

	extra, err := parser.ParseExpr(`b = 2`)
	require.NoError(t, err)

	r := visitor.RewriterFunc(func(n ast.Node) (ast.Node, bool) {
		if w, ok := n.(*ast.WhereClause); ok {
			combined := ast.NewBinaryOp(w.Span(), nil, "AND", w.Condition, extra)
			return ast.NewWhereClause(w.Span(), w.Comments(), combined), false
		}
		return n, true
	})

	out := visitor.Rewrite(r, stmt).(*ast.SimpleSelect)
	bin, ok := out.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", bin.Op)

	// FROM clause subtree content is untouched even though Rewrite
	// always reconstructs container nodes it recurses through.
	origTable := sel.From.Item.(*ast.BaseTableRef)
	newTable := out.From.Item.(*ast.BaseTableRef)
	assert.Same(t, origTable, newTable)
}
