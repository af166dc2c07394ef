package cte_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform/cte"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func TestCTECollector_HarvestsTopLevelAndNested(t *testing.T) {
	stmt := mustParse(t, `
		WITH a AS (SELECT id FROM foo),
		     b AS (SELECT id FROM (WITH c AS (SELECT id FROM bar) SELECT id FROM c) sub)
		SELECT * FROM a
	`)

	collector := cte.NewCTECollector()
	_, _, err := collector.Transform(stmt)
	require.NoError(t, err)

	names := make([]string, 0, len(collector.Defs))
	for _, def := range collector.Defs {
		names = append(names, def.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestCTECollector_DeduplicatesIdenticalBodies(t *testing.T) {
	stmt := mustParse(t, `
		SELECT *
		FROM (WITH a AS (SELECT id FROM foo) SELECT id FROM a) x,
		     (WITH a AS (SELECT id FROM foo) SELECT id FROM a) y
	`)

	collector := cte.NewCTECollector()
	_, _, err := collector.Transform(stmt)
	require.NoError(t, err)
	assert.Len(t, collector.Defs, 1)
}

func TestCTECollector_RejectsSameLevelDuplicate(t *testing.T) {
	stmt := mustParse(t, `
		WITH a AS (SELECT id FROM foo),
		     a AS (SELECT id FROM bar)
		SELECT * FROM a
	`)

	collector := cte.NewCTECollector()
	_, _, err := collector.Transform(stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerrs.ErrDuplicateCTE)
}

func TestCTECollector_RenamesCrossLevelShadowWithDifferingBody(t *testing.T) {
	stmt := mustParse(t, `
		SELECT *
		FROM (WITH a AS (SELECT id FROM foo) SELECT id FROM a) x,
		     (WITH a AS (SELECT id FROM bar) SELECT id FROM a) y
	`)

	collector := cte.NewCTECollector()
	_, _, err := collector.Transform(stmt)
	require.NoError(t, err)
	require.Len(t, collector.Defs, 2)

	names := make([]string, 0, 2)
	for _, def := range collector.Defs {
		names = append(names, def.Name)
	}
	assert.Contains(t, names, "a")

	var shadowed *ast.CTE
	for def, newName := range collector.Renames {
		assert.NotEqual(t, "a", newName)
		assert.Contains(t, newName, "a_")
		shadowed = def
	}
	require.NotNil(t, shadowed, "differing-body shadow of \"a\" must be recorded for rename")
	require.Contains(t, collector.Owners, shadowed)
}

func TestCTENormalizer_HoistsIntoSingleTopLevelWith(t *testing.T) {
	stmt := mustParse(t, `
		WITH a AS (SELECT id FROM foo)
		SELECT * FROM (WITH b AS (SELECT a.id FROM a) SELECT id FROM b) sub
	`)

	normalizer := cte.NewCTENormalizer()
	out, _, err := normalizer.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 2)
	// a has no dependency on b, so it must come first in emission order.
	assert.Equal(t, "a", sel.With.CTEs[0].Name)
	assert.Equal(t, "b", sel.With.CTEs[1].Name)

	// the nested WITH block under the FROM subquery must be gone.
	sub := sel.From.Item.(*ast.SubquerySource)
	subSel := sub.Query.(*ast.SimpleSelect)
	assert.Nil(t, subSel.With)
}

func TestCTENormalizer_FlattensCrossLevelShadowViaRename(t *testing.T) {
	stmt := mustParse(t, `
		SELECT *
		FROM (WITH a AS (SELECT id FROM foo) SELECT id FROM a) x,
		     (WITH a AS (SELECT id FROM bar) SELECT id FROM a) y
	`)

	normalizer := cte.NewCTENormalizer()
	out, _, err := normalizer.Transform(stmt)
	require.NoError(t, err)

	sel := out.(*ast.SimpleSelect)
	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 2)

	var plainName, shadowName string
	for _, c := range sel.With.CTEs {
		if c.Name == "a" {
			plainName = c.Name
		} else {
			shadowName = c.Name
		}
	}
	require.Equal(t, "a", plainName)
	require.NotEmpty(t, shadowName)
	require.NotEqual(t, "a", shadowName)

	join := sel.From.Item.(*ast.Join)
	xSel := join.Left.(*ast.SubquerySource).Query.(*ast.SimpleSelect)
	ySel := join.Right.(*ast.SubquerySource).Query.(*ast.SimpleSelect)

	assert.Nil(t, xSel.With)
	assert.Nil(t, ySel.With)
	assert.Equal(t, "a", xSel.From.Item.(*ast.BaseTableRef).Name)
	assert.Equal(t, shadowName, ySel.From.Item.(*ast.BaseTableRef).Name)
}

func TestCTENormalizer_NoOpWithoutAnyCTE(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM foo`)

	normalizer := cte.NewCTENormalizer()
	out, _, err := normalizer.Transform(stmt)
	require.NoError(t, err)
	assert.Same(t, stmt, out)
}

func TestCTEQueryDecomposer_Decompose(t *testing.T) {
	stmt := mustParse(t, `
		WITH a AS (SELECT id FROM foo),
		     b AS (SELECT a.id FROM a)
		SELECT * FROM b
	`)

	decomposer := cte.NewCTEQueryDecomposer()
	execs, err := decomposer.Decompose(stmt)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	var bExec *cte.ExecutableCTE
	for _, e := range execs {
		if e.Name == "b" {
			bExec = e
		}
	}
	require.NotNil(t, bExec)

	sel := bExec.Statement.(*ast.SimpleSelect)
	require.NotNil(t, sel.With)
	// b's executable form must inline its dependency a as well as b itself.
	names := make([]string, 0, len(sel.With.CTEs))
	for _, c := range sel.With.CTEs {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestCTEQueryDecomposer_Trace(t *testing.T) {
	stmt := mustParse(t, `
		WITH a AS (SELECT id, amount FROM foo),
		     b AS (SELECT a.id FROM a)
		SELECT b.id FROM b
	`)

	decomposer := cte.NewCTEQueryDecomposer()
	trace, err := decomposer.Trace(stmt, "amount")
	require.NoError(t, err)

	assert.Contains(t, trace.FoundIn, "a")
	assert.Contains(t, trace.NotFoundIn, "main")
	assert.Contains(t, trace.NotFoundIn, "b")
	assert.Contains(t, trace.SearchPath, "a")
}

func TestCTEQueryDecomposer_RecursiveSelfReferenceDetected(t *testing.T) {
	stmt := mustParse(t, `
		WITH RECURSIVE tree AS (
			SELECT id, parent_id FROM nodes WHERE parent_id IS NULL
			UNION ALL
			SELECT n.id, n.parent_id FROM nodes n JOIN tree t ON n.parent_id = t.id
		)
		SELECT * FROM tree
	`)

	decomposer := cte.NewCTEQueryDecomposer()
	execs, err := decomposer.Decompose(stmt)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Recursive)
}
