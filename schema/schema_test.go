package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/schema"
)

func mustParse(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	return stmt
}

func TestSchemaValidator_UnknownTableReported(t *testing.T) {
	stmt := mustParse(t, `SELECT id FROM ghosts`)

	mgr := schema.NewSchemaManager().AddTable("users", "id", "name")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "ghosts")
}

func TestSchemaValidator_UnknownColumnReported(t *testing.T) {
	stmt := mustParse(t, `SELECT bogus FROM users`)

	mgr := schema.NewSchemaManager().AddTable("users", "id", "name")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "bogus")
}

func TestSchemaValidator_KnownSchemaProducesNoErrors(t *testing.T) {
	stmt := mustParse(t, `
		SELECT u.id, u.name FROM users u
		JOIN orders o ON o.user_id = u.id
		WHERE o.total > 10
	`)

	mgr := schema.NewSchemaManager().
		AddTable("users", "id", "name").
		AddTable("orders", "id", "user_id", "total")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	assert.Empty(t, errs)
}

func TestSchemaValidator_CTENameToleratedAsFromSource(t *testing.T) {
	stmt := mustParse(t, `
		WITH totals AS (SELECT user_id, SUM(amount) AS total FROM order_lines GROUP BY user_id)
		SELECT user_id, total FROM totals
	`)

	mgr := schema.NewSchemaManager().AddTable("order_lines", "user_id", "amount")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	assert.Empty(t, errs)
}

func TestSchemaValidator_FunctionArityMismatchReported(t *testing.T) {
	stmt := mustParse(t, `SELECT coalesce(id) FROM users`)

	mgr := schema.NewSchemaManager().
		AddTable("users", "id").
		AddFunction("coalesce", schema.FunctionSignature{MinArgs: 2, MaxArgs: -1})
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "coalesce")
}

func TestSchemaValidator_UnregisteredFunctionNeverFlagged(t *testing.T) {
	stmt := mustParse(t, `SELECT my_custom_fn(id) FROM users`)

	mgr := schema.NewSchemaManager().AddTable("users", "id")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	assert.Empty(t, errs)
}

func TestSchemaValidator_UnknownTargetTableOnUpdate(t *testing.T) {
	stmt := mustParse(t, `UPDATE ghosts SET name = 'x' WHERE id = 1`)

	mgr := schema.NewSchemaManager().AddTable("users", "id", "name")
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "ghosts")
}

func TestLoadSchemaManager_ParsesTablesAndFunctions(t *testing.T) {
	doc := []byte(`
tables:
  users:
    columns: [id, name, email]
  orders:
    columns: [id, user_id, total]
functions:
  coalesce:
    min_args: 1
    max_args: -1
`)

	mgr, err := schema.LoadSchemaManager(doc)
	require.NoError(t, err)

	assert.True(t, mgr.HasTable("users"))
	assert.ElementsMatch(t, []string{"id", "name", "email"}, mgr.Columns("users"))
	assert.True(t, mgr.HasTable("orders"))

	sig, ok := mgr.Function("coalesce")
	require.True(t, ok)
	assert.Equal(t, 1, sig.MinArgs)
	assert.Equal(t, -1, sig.MaxArgs)

	stmt := mustParse(t, `SELECT u.id, u.name FROM users u JOIN orders o ON o.user_id = u.id`)
	errs := schema.NewSchemaValidator(mgr).Validate(stmt)
	assert.Empty(t, errs)
}

func TestSchemaValidator_Transform_ReturnsStatementUnchangedWithNotes(t *testing.T) {
	stmt := mustParse(t, `SELECT bogus FROM users`)

	mgr := schema.NewSchemaManager().AddTable("users", "id")
	out, notes, err := schema.NewSchemaValidator(mgr).Transform(stmt)

	require.NoError(t, err)
	assert.Same(t, stmt, out)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "bogus")
}
