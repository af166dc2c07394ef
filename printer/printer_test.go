package printer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/parser"
	"github.com/sqlxform/sqlxform/printer"
)

func format(t *testing.T, src string, opts printer.Options) printer.Result {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err, "source: %s", src)
	res, err := printer.Format(stmt, opts)
	require.NoError(t, err)
	return res
}

func TestFormat_SimpleSelectDefaultPostgres(t *testing.T) {
	res := format(t, `select id, name from users where id = $1`, printer.Options{})
	assert.Contains(t, res.SQL, "SELECT")
	assert.Contains(t, res.SQL, "FROM")
	assert.Contains(t, res.SQL, "users")
}

func TestFormat_KeywordCaseLower(t *testing.T) {
	res := format(t, `SELECT id FROM users`, printer.Options{KeywordCase: printer.KeywordLower})
	assert.Contains(t, res.SQL, "select")
	assert.Contains(t, res.SQL, "from")
	assert.NotContains(t, res.SQL, "SELECT")
}

func TestFormat_KeywordCaseUpper(t *testing.T) {
	res := format(t, `select id from users`, printer.Options{KeywordCase: printer.KeywordUpper})
	assert.Contains(t, res.SQL, "SELECT")
	assert.Contains(t, res.SQL, "FROM")
}

func TestFormat_AnonymousParametersCollectPositionally(t *testing.T) {
	res := format(t, `select * from widgets where a = ? and b = ?`, printer.Options{
		Preset: printer.PresetMySQL,
	})
	assert.Equal(t, []string{"1", "2"}, res.Params.Ordered)
}

func TestFormat_IndexedParametersPostgres(t *testing.T) {
	res := format(t, `select * from widgets where a = $1 and b = $2`, printer.Options{})
	assert.Contains(t, res.SQL, "$1")
	assert.Contains(t, res.SQL, "$2")
	assert.Len(t, res.Params.Ordered, 2)
}

func TestFormat_NamedParametersCollectByName(t *testing.T) {
	res := format(t, `select * from widgets where a = :foo`, printer.Options{
		ParameterStyle: printer.ParameterNamed,
	})
	assert.Contains(t, res.SQL, ":foo")
	assert.Contains(t, res.Params.Named, "foo")
}

func TestFormat_JoinRendersOnCondition(t *testing.T) {
	res := format(t, `
		select o.id from orders o
		inner join customers c on c.id = o.customer_id
	`, printer.Options{KeywordCase: printer.KeywordUpper})
	assert.Contains(t, res.SQL, "INNER")
	assert.Contains(t, res.SQL, "JOIN")
	assert.Contains(t, res.SQL, "ON")
}

func TestFormat_CaseExpression(t *testing.T) {
	res := format(t, `select case when active then 'yes' else 'no' end from users`, printer.Options{
		KeywordCase: printer.KeywordUpper,
	})
	assert.Contains(t, res.SQL, "CASE")
	assert.Contains(t, res.SQL, "WHEN")
	assert.Contains(t, res.SQL, "THEN")
	assert.Contains(t, res.SQL, "ELSE")
	assert.Contains(t, res.SQL, "END")
}

func TestFormat_WithClauseCTE(t *testing.T) {
	res := format(t, `
		with recent as (select id from orders where id > 1)
		select * from recent
	`, printer.Options{KeywordCase: printer.KeywordUpper})
	assert.Contains(t, res.SQL, "WITH")
	assert.Contains(t, res.SQL, "recent")
}

func TestFormat_MySQLPresetUsesQuestionMarkParams(t *testing.T) {
	res := format(t, "select id from users where id = ?", printer.Options{Preset: printer.PresetMySQL})
	assert.Contains(t, res.SQL, "?")
}

func TestFormat_InsertValues(t *testing.T) {
	res := format(t, `insert into widgets (id, name) values (1, 'a')`, printer.Options{
		KeywordCase: printer.KeywordUpper,
	})
	assert.Contains(t, res.SQL, "INSERT INTO")
	assert.Contains(t, res.SQL, "VALUES")
}

func TestFormat_UpdateSetWhere(t *testing.T) {
	res := format(t, `update widgets set name = 'b' where id = 1`, printer.Options{
		KeywordCase: printer.KeywordUpper,
	})
	assert.Contains(t, res.SQL, "UPDATE")
	assert.Contains(t, res.SQL, "SET")
	assert.Contains(t, res.SQL, "WHERE")
}

func TestFormat_CommentsRoundTripAtEquivalentPositions(t *testing.T) {
	res := format(t, "SELECT /*pk*/ id FROM users -- all\nWHERE active", printer.Options{
		ExportComment: true,
		CommentStyle:  printer.CommentSmart,
	})
	assert.Contains(t, res.SQL, "pk")
	assert.Contains(t, res.SQL, "all")

	idIdx := strings.Index(res.SQL, "id")
	pkIdx := strings.Index(res.SQL, "pk")
	require.GreaterOrEqual(t, idIdx, 0)
	require.GreaterOrEqual(t, pkIdx, 0)
	assert.Less(t, pkIdx, idIdx, "the pk comment must precede the id column it annotates")

	usersIdx := strings.Index(res.SQL, "users")
	allIdx := strings.Index(res.SQL, "all")
	whereIdx := strings.Index(strings.ToUpper(res.SQL), "WHERE")
	require.GreaterOrEqual(t, usersIdx, 0)
	require.GreaterOrEqual(t, allIdx, 0)
	require.GreaterOrEqual(t, whereIdx, 0)
	assert.Less(t, usersIdx, allIdx, "the all comment must trail the users table it follows")
	assert.Less(t, allIdx, whereIdx, "the all comment must stay between FROM and WHERE")
}

func TestFormat_CommentsOmittedWhenExportCommentDisabled(t *testing.T) {
	res := format(t, "SELECT /*pk*/ id FROM users -- all\nWHERE active", printer.Options{})
	assert.NotContains(t, res.SQL, "pk")
	assert.NotContains(t, res.SQL, "all")
}

func TestFormat_UnionAllCombinesTwoSelects(t *testing.T) {
	res := format(t, `select id from a union all select id from b`, printer.Options{
		KeywordCase: printer.KeywordUpper,
	})
	assert.Contains(t, res.SQL, "UNION ALL")
}
