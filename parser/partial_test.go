package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/ast"
)

func TestParseToPosition_FullStatementWithinBoundNeedsNoRecovery(t *testing.T) {
	src := `SELECT id FROM users WHERE active = TRUE`
	res, err := ParseToPosition(src, ParseToPositionOptions{Offset: len(src)})
	require.NoError(t, err)
	require.NotNil(t, res.Stmt)
	assert.True(t, res.StoppedAtCursor)
	assert.Equal(t, 0, res.RecoveryAttempts)

	sel, ok := res.Stmt.(*ast.SimpleSelect)
	require.True(t, ok)
	require.NotNil(t, sel.Where)
}

func TestParseToPosition_StopsAtOffsetIgnoringLaterText(t *testing.T) {
	src := `SELECT id FROM users WHERE active = TRUE AND name = 'x'`
	cut := strings.Index(src, "AND")
	res, err := ParseToPosition(src, ParseToPositionOptions{Offset: cut})
	require.NoError(t, err)
	require.NotNil(t, res.Stmt)

	sel := res.Stmt.(*ast.SimpleSelect)
	bin, ok := sel.Where.Condition.(*ast.BinaryOp)
	require.True(t, ok)
	// the trailing "AND name = 'x'" never entered the bounded window, so
	// the WHERE condition is the bare "active = TRUE" comparison, not an
	// AND combination.
	assert.Equal(t, "=", bin.Op)
	col, ok := bin.Left.(*ast.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "active", col.Name)
}

func TestParseToPosition_RecoversFromIncompleteTrailingClause(t *testing.T) {
	src := `SELECT id FROM users WHERE`
	res, err := ParseToPosition(src, ParseToPositionOptions{Offset: len(src)})
	require.NoError(t, err)
	require.NotNil(t, res.Stmt)
	assert.False(t, res.StoppedAtCursor)
	assert.Greater(t, res.RecoveryAttempts, 0)

	sel := res.Stmt.(*ast.SimpleSelect)
	assert.Nil(t, sel.Where)
	assert.Equal(t, "users", sel.From.Item.(*ast.BaseTableRef).Name)
}

func TestParseToPosition_NoUsablePrefixReturnsNilStmt(t *testing.T) {
	res, err := ParseToPosition(`WHERE`, ParseToPositionOptions{Offset: 5, MaxRecoveryAttempts: 4})
	require.NoError(t, err)
	assert.Nil(t, res.Stmt)
	assert.False(t, res.StoppedAtCursor)
}

func TestParseToPosition_ZeroOffsetParsesWholeInput(t *testing.T) {
	res, err := ParseToPosition(`SELECT id FROM users`, ParseToPositionOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.Stmt)
	assert.True(t, res.StoppedAtCursor)
}
