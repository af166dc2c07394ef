package scope_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/sqlerrs"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func frameFor(t *testing.T, sel *ast.SimpleSelect) *scope.Frame {
	t.Helper()
	withFrame, err := scope.PushWith(nil, sel.With)
	require.NoError(t, err)
	return scope.PushFrom(withFrame, sel.From)
}

func catalog(cols map[string][]string) scope.TableColumnResolver {
	return func(table string) []string { return cols[table] }
}

func TestResolveColumnRef_QualifiedMatchesAliasedSource(t *testing.T) {
	stmt := mustParse(t, `SELECT u.id FROM users u JOIN orders o ON u.id = o.user_id`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)

	ref := ast.NewColumnRef(sel.Select.Items[0].Expr.Span(), nil, "", "u", "id")
	src, err := scope.ResolveColumnRef(f, ref, nil)
	require.NoError(t, err)
	assert.Equal(t, "u", src.Alias)
	assert.Equal(t, "users", src.Name)
}

func TestResolveColumnRef_UnqualifiedUniqueAcrossJoin(t *testing.T) {
	stmt := mustParse(t, `SELECT total FROM users u JOIN orders o ON u.id = o.user_id`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)
	cols := catalog(map[string][]string{"users": {"id", "name"}, "orders": {"user_id", "total"}})

	ref := ast.NewColumnRef(sel.Span(), nil, "", "", "total")
	src, err := scope.ResolveColumnRef(f, ref, cols)
	require.NoError(t, err)
	assert.Equal(t, "o", src.Alias)
}

func TestResolveColumnRef_UnqualifiedAmbiguousAcrossJoin(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM users u JOIN orders o ON u.id = o.user_id`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)
	cols := catalog(map[string][]string{"users": {"id", "name"}, "orders": {"id", "user_id"}})

	ref := ast.NewColumnRef(sel.Span(), nil, "", "", "id")
	_, err := scope.ResolveColumnRef(f, ref, cols)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrAmbiguousColumn))
}

func TestResolveColumnRef_UnknownColumn(t *testing.T) {
	stmt := mustParse(t, `SELECT missing FROM users u`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)
	cols := catalog(map[string][]string{"users": {"id", "name"}})

	ref := ast.NewColumnRef(sel.Span(), nil, "", "", "missing")
	_, err := scope.ResolveColumnRef(f, ref, cols)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrUnknownColumn))
}

func TestResolveColumnRef_UnresolvableCatalogIsOptimistic(t *testing.T) {
	// No resolver given: users' columns are unknown, not absent, so an
	// unqualified reference against the single visible source resolves
	// rather than reporting unknown-column.
	stmt := mustParse(t, `SELECT anything FROM users u`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)

	ref := ast.NewColumnRef(sel.Span(), nil, "", "", "anything")
	src, err := scope.ResolveColumnRef(f, ref, nil)
	require.NoError(t, err)
	assert.Equal(t, "u", src.Alias)
}

func TestResolveColumnRef_CorrelatedSubqueryResolvesOuterFrame(t *testing.T) {
	stmt := mustParse(t, `SELECT (SELECT o.total FROM orders o WHERE o.user_id = u.id) FROM users u`)
	sel := stmt.(*ast.SimpleSelect)
	outer := frameFor(t, sel)

	sub := sel.Select.Items[0].Expr.(*ast.Subquery).Query.(*ast.SimpleSelect)
	inner := frameFor(t, sub)
	inner.Parent = outer

	ref := ast.NewColumnRef(sub.Where.Condition.(*ast.BinaryOp).Right.Span(), nil, "", "u", "id")
	src, err := scope.ResolveColumnRef(inner, ref, nil)
	require.NoError(t, err)
	assert.Equal(t, "u", src.Alias)
}

func TestExpandWildcard_BareExpandsAllSourcesInOrder(t *testing.T) {
	stmt := mustParse(t, `SELECT * FROM users u JOIN orders o ON u.id = o.user_id`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)
	cols := catalog(map[string][]string{"users": {"id", "name"}, "orders": {"user_id", "total"}})

	star := sel.Select.Items[0].Star
	names, err := scope.ExpandWildcard(f, star, cols)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "user_id", "total"}, names)
}

func TestExpandWildcard_QualifiedExpandsOneSource(t *testing.T) {
	stmt := mustParse(t, `SELECT o.* FROM users u JOIN orders o ON u.id = o.user_id`)
	sel := stmt.(*ast.SimpleSelect)
	f := frameFor(t, sel)
	cols := catalog(map[string][]string{"users": {"id", "name"}, "orders": {"user_id", "total"}})

	star := sel.Select.Items[0].Star
	names, err := scope.ExpandWildcard(f, star, cols)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "total"}, names)
}

func TestPushWith_RejectsSameLevelDuplicateNames(t *testing.T) {
	stmt := mustParse(t, `WITH recent AS (SELECT 1), recent AS (SELECT 2) SELECT * FROM recent`)
	sel := stmt.(*ast.SimpleSelect)

	_, err := scope.PushWith(nil, sel.With)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sqlerrs.ErrDuplicateCTE))
}

func TestCTE_InnerShadowsOuterAcrossNesting(t *testing.T) {
	stmt := mustParse(t, `
		WITH recent AS (SELECT 1 AS n)
		SELECT (
			SELECT x FROM (
				WITH recent AS (SELECT 2 AS n)
				SELECT n AS x FROM recent
			) inner_q
		) FROM recent
	`)
	sel := stmt.(*ast.SimpleSelect)
	outer, err := scope.PushWith(nil, sel.With)
	require.NoError(t, err)

	outerCTE, ok := outer.CTE("recent")
	require.True(t, ok)
	outerBody := outerCTE.Body.(*ast.SimpleSelect)
	outerLit := outerBody.Select.Items[0].Expr.(*ast.Literal)
	assert.Equal(t, "1", outerLit.Text)

	innerSelect := sel.Select.Items[0].Expr.(*ast.Subquery).Query.(*ast.SimpleSelect)
	innerSource := innerSelect.From.Item.(*ast.SubquerySource)
	innerQuery := innerSource.Query.(*ast.SimpleSelect)

	innerWithFrame, err := scope.PushWith(outer, innerQuery.With)
	require.NoError(t, err)
	innerCTE, ok := innerWithFrame.CTE("recent")
	require.True(t, ok)
	innerBody := innerCTE.Body.(*ast.SimpleSelect)
	innerLit := innerBody.Select.Items[0].Expr.(*ast.Literal)
	assert.Equal(t, "2", innerLit.Text)
}

func TestProjectionColumns_AliasAndBareName(t *testing.T) {
	stmt := mustParse(t, `SELECT id, name AS full_name, * FROM users`)
	cols := scope.ProjectionColumns(stmt)
	assert.Equal(t, []string{"id", "full_name"}, cols)
}

func TestProjectionColumns_BinarySelectUsesLeftmostLeaf(t *testing.T) {
	stmt := mustParse(t, `SELECT id AS row_id FROM a UNION SELECT id FROM b UNION SELECT id FROM c`)
	cols := scope.ProjectionColumns(stmt)
	assert.Equal(t, []string{"row_id"}, cols)
}

func TestProjectionColumns_ValuesQueryHasNoNames(t *testing.T) {
	stmt := mustParse(t, `VALUES (1, 2), (3, 4)`)
	assert.Nil(t, scope.ProjectionColumns(stmt))
}

func TestUpstreamProducers_FindsCTEExposingColumn(t *testing.T) {
	stmt := mustParse(t, `
		WITH totals AS (SELECT user_id, SUM(amount) AS total FROM orders GROUP BY user_id)
		SELECT t.total FROM totals t
	`)
	sel := stmt.(*ast.SimpleSelect)
	root, err := scope.PushWith(nil, sel.With)
	require.NoError(t, err)

	producers := scope.UpstreamProducers(root, stmt, "total")
	require.Len(t, producers, 1)
	cteBody := producers[0].(*ast.SimpleSelect)
	assert.Equal(t, "total", cteBody.Select.Items[1].Alias)
}

func TestUpstreamProducers_SearchesBothSidesOfUnion(t *testing.T) {
	stmt := mustParse(t, `
		SELECT id, region FROM (
			SELECT id, 'east' AS region FROM east_orders
			UNION ALL
			SELECT id, 'west' AS region FROM west_orders
		) combined
	`)
	sel := stmt.(*ast.SimpleSelect)
	root := frameFor(t, sel)
	sub := sel.From.Item.(*ast.SubquerySource).Query

	producers := scope.UpstreamProducers(root, sub, "region")
	assert.Len(t, producers, 2)
}
