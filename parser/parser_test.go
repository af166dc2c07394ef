package parser

import (
	"testing"

	aassert "github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func TestParse_SimpleSelect(t *testing.T) {
	stmt := mustParse(t, `SELECT u.user_id, u.user_name FROM users u WHERE u.active = TRUE`)
	sel, ok := stmt.(*ast.SimpleSelect)
	require.True(t, ok)
	require.NotNil(t, sel.Select)
	assert.Len(t, sel.Select.Items, 2)
	require.NotNil(t, sel.From)
	table, ok := sel.From.Item.(*ast.BaseTableRef)
	require.True(t, ok)
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, "u", table.Alias)
	require.NotNil(t, sel.Where)
	bin, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "=", bin.Op)
}

func TestParse_DistinctOn(t *testing.T) {
	stmt := mustParse(t, `SELECT DISTINCT ON (a.id) a.id, a.name FROM a`)
	sel := stmt.(*ast.SimpleSelect)
	assert.True(t, sel.Select.Distinct)
	require.Len(t, sel.Select.DistinctOn, 1)
}

func TestParse_StarAndTableStar(t *testing.T) {
	stmt := mustParse(t, `SELECT *, t.* FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	require.Len(t, sel.Select.Items, 2)
	assert.NotNil(t, sel.Select.Items[0].Star)
	assert.Equal(t, "", sel.Select.Items[0].Star.Table)
	assert.NotNil(t, sel.Select.Items[1].Star)
	assert.Equal(t, "t", sel.Select.Items[1].Star.Table)
}

func TestParse_SelectItemAlias(t *testing.T) {
	stmt := mustParse(t, `SELECT a + b AS total, c total2, d FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	require.Len(t, sel.Select.Items, 3)
	assert.Equal(t, "total", sel.Select.Items[0].Alias)
	assert.Equal(t, "total2", sel.Select.Items[1].Alias)
	assert.Equal(t, "", sel.Select.Items[2].Alias)
}

func TestParse_PrattPrecedence(t *testing.T) {
	// * binds tighter than +, so "1 + 2 * 3" must be "1 + (2 * 3)".
	stmt := mustParse(t, `SELECT 1 + 2 * 3 FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	top, ok := sel.Select.Items[0].Expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", top.Op)
	right, ok := top.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParse_ExponentRightAssociative(t *testing.T) {
	// "2 ^ 3 ^ 2" must be "2 ^ (3 ^ 2)" since ^ is right-associative.
	stmt := mustParse(t, `SELECT 2 ^ 3 ^ 2 FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	top, ok := sel.Select.Items[0].Expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "^", top.Op)
	_, rightIsBinary := top.Right.(*ast.BinaryOp)
	assert.True(t, rightIsBinary)
	_, leftIsLiteral := top.Left.(*ast.Literal)
	assert.True(t, leftIsLiteral)
}

func TestParse_AndOrPrecedence(t *testing.T) {
	// AND binds tighter than OR: "a OR b AND c" is "a OR (b AND c)".
	stmt := mustParse(t, `SELECT * FROM t WHERE a OR b AND c`)
	sel := stmt.(*ast.SimpleSelect)
	top, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "OR", top.Op)
	right, ok := top.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "AND", right.Op)
}

func TestParse_ChainedComparisonIsError(t *testing.T) {
	_, err := Parse(`SELECT * FROM t WHERE a = b = c`)
	require.Error(t, err)
	var parseErr *sqlerrs.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParse_BetweenAndInAndLike(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM t WHERE a BETWEEN 1 AND 10 AND b IN (1, 2, 3) AND c LIKE 'x%' ESCAPE '\'`)
	sel := stmt.(*ast.SimpleSelect)
	// top is an AND-chain; just assert it parsed into some BinaryOp tree.
	_, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
}

func TestParse_InSubquery(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM t WHERE a IN (SELECT id FROM u)`)
	sel := stmt.(*ast.SimpleSelect)
	in, ok := sel.Where.Condition.(*ast.In)
	require.True(t, ok)
	require.NotNil(t, in.Subquery)
}

func TestParse_CaseExpression(t *testing.T) {
	stmt := mustParse(t, `SELECT CASE WHEN a > 1 THEN 'big' WHEN a > 0 THEN 'small' ELSE 'none' END FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	c, ok := sel.Select.Items[0].Expr.(*ast.Case)
	require.True(t, ok)
	assert.Nil(t, c.Operand)
	assert.Len(t, c.Whens, 2)
	assert.NotNil(t, c.Else)
}

func TestParse_CastBothForms(t *testing.T) {
	stmt := mustParse(t, `SELECT CAST(a AS INTEGER), b::text FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	c1, ok := sel.Select.Items[0].Expr.(*ast.Cast)
	require.True(t, ok)
	assert.False(t, c1.ShorthandSyntax)
	c2, ok := sel.Select.Items[1].Expr.(*ast.Cast)
	require.True(t, ok)
	assert.True(t, c2.ShorthandSyntax)
}

func TestParse_WindowFunctionWithFrame(t *testing.T) {
	stmt := mustParse(t, `SELECT row_number() OVER (PARTITION BY dept ORDER BY salary ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM emp`)
	sel := stmt.(*ast.SimpleSelect)
	fn, ok := sel.Select.Items[0].Expr.(*ast.FunctionCall)
	require.True(t, ok)
	require.NotNil(t, fn.Over)
	assert.Len(t, fn.Over.PartitionBy, 1)
	require.NotNil(t, fn.Over.Frame)
	assert.Equal(t, ast.FrameRows, fn.Over.Frame.Kind)
}

func TestParse_FilterAndWithinGroup(t *testing.T) {
	stmt := mustParse(t, `SELECT count(*) FILTER (WHERE active) , percentile_cont(0.5) WITHIN GROUP (ORDER BY amount) FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	fn1, ok := sel.Select.Items[0].Expr.(*ast.FunctionCall)
	require.True(t, ok)
	assert.NotNil(t, fn1.Filter)
	fn2, ok := sel.Select.Items[1].Expr.(*ast.FunctionCall)
	require.True(t, ok)
	assert.NotNil(t, fn2.WithinGroup)
}

func TestParse_NamedWindowClause(t *testing.T) {
	stmt := mustParse(t, `SELECT sum(amount) OVER w FROM sales WINDOW w AS (PARTITION BY region ORDER BY amount)`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.Window)
	require.Len(t, sel.Window.Windows, 1)
	assert.Equal(t, "w", sel.Window.Windows[0].Name)
	fn := sel.Select.Items[0].Expr.(*ast.FunctionCall)
	require.NotNil(t, fn.Over)
	assert.Equal(t, "w", fn.Over.Name)
}

func TestParse_JoinVariants(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM a JOIN b ON a.id = b.a_id LEFT JOIN c USING (id) CROSS JOIN d`)
	sel := stmt.(*ast.SimpleSelect)
	top, ok := sel.From.Item.(*ast.Join)
	require.True(t, ok)
	assert.Equal(t, ast.JoinCross, top.Kind)
	mid, ok := top.Left.(*ast.Join)
	require.True(t, ok)
	assert.Equal(t, ast.JoinLeft, mid.Kind)
	assert.Equal(t, ast.JoinConditionUsing, mid.ConditionKind)
	inner, ok := mid.Left.(*ast.Join)
	require.True(t, ok)
	assert.Equal(t, ast.JoinInner, inner.Kind)
	assert.Equal(t, ast.JoinConditionOn, inner.ConditionKind)
}

func TestParse_LateralSubquery(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM a, LATERAL (SELECT * FROM b WHERE b.a_id = a.id) sub`)
	sel := stmt.(*ast.SimpleSelect)
	j, ok := sel.From.Item.(*ast.Join)
	require.True(t, ok)
	sub, ok := j.Right.(*ast.SubquerySource)
	require.True(t, ok)
	assert.True(t, sub.Lateral)
}

func TestParse_LateralBaseTableRejected(t *testing.T) {
	_, err := Parse(`SELECT * FROM a, LATERAL b`)
	require.Error(t, err)
}

func TestParse_GroupByRollupCubeSets(t *testing.T) {
	stmt := mustParse(t, `SELECT a, b, sum(c) FROM t GROUP BY ROLLUP (a, b)`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.GroupBy)
	assert.Equal(t, ast.GroupByRollup, sel.GroupBy.Kind)

	stmt = mustParse(t, `SELECT a, b FROM t GROUP BY CUBE (a, b)`)
	sel = stmt.(*ast.SimpleSelect)
	assert.Equal(t, ast.GroupByCube, sel.GroupBy.Kind)

	stmt = mustParse(t, `SELECT a, b FROM t GROUP BY GROUPING SETS ((a), (b), ())`)
	sel = stmt.(*ast.SimpleSelect)
	assert.Equal(t, ast.GroupBySets, sel.GroupBy.Kind)
	assert.Len(t, sel.GroupBy.Sets, 3)
}

func TestParse_Having(t *testing.T) {
	stmt := mustParse(t, `SELECT a, count(*) FROM t GROUP BY a HAVING count(*) > 1`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.Having)
}

func TestParse_OrderByNullsAndDirection(t *testing.T) {
	stmt := mustParse(t, `SELECT a FROM t ORDER BY a DESC NULLS LAST, b ASC NULLS FIRST`)
	sel := stmt.(*ast.SimpleSelect)
	require.Len(t, sel.OrderBy.Items, 2)
	assert.Equal(t, ast.Descending, sel.OrderBy.Items[0].Direction)
	assert.Equal(t, ast.NullsLast, sel.OrderBy.Items[0].Nulls)
	assert.Equal(t, ast.Ascending, sel.OrderBy.Items[1].Direction)
	assert.Equal(t, ast.NullsFirst, sel.OrderBy.Items[1].Nulls)
}

func TestParse_LimitOffset(t *testing.T) {
	stmt := mustParse(t, `SELECT a FROM t LIMIT 10 OFFSET 20`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.Limit)
	assert.NotNil(t, sel.Limit.Limit)
	assert.NotNil(t, sel.Limit.Offset)
}

func TestParse_FetchFirstRowsOnly(t *testing.T) {
	stmt := mustParse(t, `SELECT a FROM t FETCH FIRST 5 ROWS ONLY`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.Limit)
	assert.NotNil(t, sel.Limit.Limit)
	assert.Nil(t, sel.Limit.Offset)
}

func TestParse_ValuesTopLevel(t *testing.T) {
	stmt := mustParse(t, `VALUES (1, 2), (3, 4)`)
	vq, ok := stmt.(*ast.ValuesQuery)
	require.True(t, ok)
	assert.Len(t, vq.Rows, 2)
	assert.Len(t, vq.Rows[0], 2)
}

func TestParse_SetOperatorPrecedence(t *testing.T) {
	// INTERSECT binds tighter than UNION: "a UNION b INTERSECT c" is
	// "a UNION (b INTERSECT c)".
	stmt := mustParse(t, `SELECT 1 UNION SELECT 2 INTERSECT SELECT 3`)
	top, ok := stmt.(*ast.BinarySelect)
	require.True(t, ok)
	assert.Equal(t, ast.SetUnion, top.Operator)
	right, ok := top.Right.(*ast.BinarySelect)
	require.True(t, ok)
	assert.Equal(t, ast.SetIntersect, right.Operator)
}

func TestParse_SetOperatorLeftLeaning(t *testing.T) {
	stmt := mustParse(t, `SELECT 1 UNION SELECT 2 UNION SELECT 3`)
	top, ok := stmt.(*ast.BinarySelect)
	require.True(t, ok)
	_, leftIsBinary := top.Left.(*ast.BinarySelect)
	assert.True(t, leftIsBinary)
	_, rightIsSimple := top.Right.(*ast.SimpleSelect)
	assert.True(t, rightIsSimple)
}

func TestParse_WithClauseSimple(t *testing.T) {
	stmt := mustParse(t, `WITH t AS (SELECT id FROM sales) SELECT * FROM t`)
	sel, ok := stmt.(*ast.SimpleSelect)
	require.True(t, ok)
	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 1)
	assert.Equal(t, "t", sel.With.CTEs[0].Name)
	assert.False(t, sel.With.Recursive)
}

func TestParse_WithClauseRecursiveAndMaterialized(t *testing.T) {
	stmt := mustParse(t, `WITH RECURSIVE t AS MATERIALIZED (SELECT 1 UNION ALL SELECT n+1 FROM t) SELECT * FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	require.NotNil(t, sel.With)
	assert.True(t, sel.With.Recursive)
	require.NotNil(t, sel.With.CTEs[0].Materialized)
	assert.True(t, *sel.With.CTEs[0].Materialized)
}

func TestParse_WithAttachesToLeftmostOfSetOp(t *testing.T) {
	stmt := mustParse(t, `WITH t AS (SELECT id FROM sales) SELECT id FROM t UNION SELECT id FROM other`)
	top, ok := stmt.(*ast.BinarySelect)
	require.True(t, ok)
	left, ok := top.Left.(*ast.SimpleSelect)
	require.True(t, ok)
	require.NotNil(t, left.With)
}

func TestParse_Insert_ValuesAndReturning(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO t (a, b) VALUES (1, 2), (3, 4) RETURNING id`)
	ins, ok := stmt.(*ast.Insert)
	require.True(t, ok)
	assert.Equal(t, "t", ins.Table.Name)
	assert.Equal(t, []string{"a", "b"}, ins.Columns)
	assert.Len(t, ins.ValuesRows, 2)
	require.NotNil(t, ins.Returning)
	assert.Len(t, ins.Returning.Items, 1)
}

func TestParse_Insert_FromSelect(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO t (a, b) SELECT x, y FROM source`)
	ins := stmt.(*ast.Insert)
	require.NotNil(t, ins.Select)
	assert.Nil(t, ins.ValuesRows)
}

func TestParse_OnConflictDoNothingAndDoUpdate(t *testing.T) {
	stmt := mustParse(t, `INSERT INTO t (id, v) VALUES (1, 2) ON CONFLICT (id) DO NOTHING`)
	ins := stmt.(*ast.Insert)
	require.NotNil(t, ins.OnConflict)
	assert.Equal(t, []string{"id"}, ins.OnConflict.TargetColumns)
	assert.Equal(t, ast.ConflictDoNothing, ins.OnConflict.Action)

	stmt = mustParse(t, `INSERT INTO t (id, v) VALUES (1, 2) ON CONFLICT ON CONSTRAINT t_pkey DO UPDATE SET v = 9 WHERE t.id > 0`)
	ins = stmt.(*ast.Insert)
	require.NotNil(t, ins.OnConflict)
	assert.Equal(t, "t_pkey", ins.OnConflict.TargetConstraint)
	assert.Equal(t, ast.ConflictDoUpdate, ins.OnConflict.Action)
	require.Len(t, ins.OnConflict.SetItems, 1)
	assert.NotNil(t, ins.OnConflict.Where)
}

func TestParse_UpdateWithFromAndReturning(t *testing.T) {
	stmt := mustParse(t, `UPDATE t SET a = 1, b = 2 FROM other WHERE t.id = other.id RETURNING t.id`)
	upd, ok := stmt.(*ast.Update)
	require.True(t, ok)
	require.Len(t, upd.SetItems, 2)
	assert.Equal(t, "a", upd.SetItems[0].Column)
	require.NotNil(t, upd.From)
	require.NotNil(t, upd.Where)
	require.NotNil(t, upd.Returning)
}

func TestParse_DeleteWithUsing(t *testing.T) {
	stmt := mustParse(t, `DELETE FROM t USING other WHERE t.id = other.id RETURNING t.id`)
	del, ok := stmt.(*ast.Delete)
	require.True(t, ok)
	require.NotNil(t, del.Using)
	require.NotNil(t, del.Where)
	require.NotNil(t, del.Returning)
}

func TestParse_Merge(t *testing.T) {
	stmt := mustParse(t, `MERGE INTO target t USING source s ON t.id = s.id
		WHEN MATCHED THEN UPDATE SET v = s.v
		WHEN NOT MATCHED THEN INSERT (id, v) VALUES (s.id, s.v)`)
	m, ok := stmt.(*ast.Merge)
	require.True(t, ok)
	assert.Equal(t, "target", m.Target.Name)
	require.Len(t, m.Actions, 2)
	assert.Equal(t, ast.MergeMatched, m.Actions[0].MatchKind)
	assert.Equal(t, ast.MergeActionUpdate, m.Actions[0].Action)
	assert.Equal(t, ast.MergeNotMatched, m.Actions[1].MatchKind)
	assert.Equal(t, ast.MergeActionInsert, m.Actions[1].Action)
}

func TestParse_ExplainAnalyze(t *testing.T) {
	stmt := mustParse(t, `EXPLAIN ANALYZE SELECT * FROM t`)
	ex, ok := stmt.(*ast.Explain)
	require.True(t, ok)
	assert.Equal(t, ast.ExplainAnalyze, ex.Mode)
	_, isSelect := ex.Unwrap().(*ast.SimpleSelect)
	assert.True(t, isSelect)
}

func TestParse_TruncateCascade(t *testing.T) {
	stmt := mustParse(t, `TRUNCATE TABLE a, b RESTART IDENTITY CASCADE`)
	tr, ok := stmt.(*ast.Truncate)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tr.Tables)
	assert.True(t, tr.RestartIdentity)
	assert.True(t, tr.Cascade)
}

func TestParse_TrailingSemicolonPermitted(t *testing.T) {
	_, err := Parse(`SELECT 1;`)
	require.NoError(t, err)
}

func TestParse_TrailingGarbageIsError(t *testing.T) {
	_, err := Parse(`SELECT 1 SELECT 2`)
	require.Error(t, err)
}

func TestParse_AnonymousParameterNumbering(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM t WHERE a = ? AND b = ?`)
	sel := stmt.(*ast.SimpleSelect)
	top := sel.Where.Condition.(*ast.BinaryOp)
	left := top.Left.(*ast.BinaryOp)
	right := top.Right.(*ast.BinaryOp)
	p1 := left.Right.(*ast.ParameterRef)
	p2 := right.Right.(*ast.ParameterRef)
	assert.Equal(t, 0, p1.Index)
	assert.Equal(t, 1, p2.Index)
}

func TestParse_ParenWrappedAndExists(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM t WHERE EXISTS (SELECT 1 FROM u WHERE u.t_id = t.id)`)
	sel := stmt.(*ast.SimpleSelect)
	sub, ok := sel.Where.Condition.(*ast.Subquery)
	require.True(t, ok)
	assert.Equal(t, ast.SubqueryExists, sub.Kind)
}

// aassert smoke-checks a couple of the same shapes using the
// alecthomas/assert/v2 style used for lower-level parser-internals
// tests, matching the pack's mixed test-tooling texture.
func TestParse_ArrayAndRowConstructors(t *testing.T) {
	stmt := mustParse(t, `SELECT ARRAY[1, 2, 3], ROW(1, 2) FROM t`)
	sel := stmt.(*ast.SimpleSelect)
	arr, ok := sel.Select.Items[0].Expr.(*ast.ArrayConstructor)
	aassert.True(t, ok)
	aassert.Equal(t, 3, len(arr.Elements))
	row, ok := sel.Select.Items[1].Expr.(*ast.RowConstructor)
	aassert.True(t, ok)
	aassert.Equal(t, 2, len(row.Elements))
}

func TestParse_IsDistinctFromAndIsNull(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM t WHERE a IS NOT NULL AND a IS DISTINCT FROM b`)
	sel := stmt.(*ast.SimpleSelect)
	top, ok := sel.Where.Condition.(*ast.BinaryOp)
	aassert.True(t, ok)
	aassert.Equal(t, "AND", top.Op)
}
