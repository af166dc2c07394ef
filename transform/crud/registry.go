// Package crud rewrites INSERT, UPDATE, DELETE, and MERGE statements
// into an equivalent SELECT over fixture data, so a test harness can
// run the rewritten query against whatever rows a FixtureRegistry
// supplies instead of a live database.
package crud

import (
	"github.com/sqlxform/sqlxform/ast"
)

// FixtureTable is one table's worth of fixture data: its column order
// (also the order Rows entries line up with), any DEFAULT
// expression a column carries when an INSERT's column list omits it,
// and the literal rows standing in for that table's live content.
type FixtureTable struct {
	Columns  []string
	Defaults map[string]ast.Expr
	Rows     [][]ast.Expr
}

// FixtureRegistry supplies the FixtureTable backing a given table name.
// Lookups are case-insensitive to match ordinary SQL identifier
// folding.
type FixtureRegistry map[string]*FixtureTable

func (r FixtureRegistry) lookup(table string) (*FixtureTable, bool) {
	for name, fx := range r {
		if equalFoldASCII(name, table) {
			return fx, true
		}
	}
	return nil, false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// MissingFixtureStrategy controls what a rewriter does when a
// statement targets a table FixtureRegistry has no entry for.
type MissingFixtureStrategy int

const (
	// MissingFixtureError fails the rewrite with sqlerrs.ErrUnknownFixture.
	MissingFixtureError MissingFixtureStrategy = iota
	// MissingFixtureEmpty rewrites to a SELECT guaranteed to return zero
	// rows (a VALUES list with no rows behind the affected-set shape).
	MissingFixtureEmpty
	// MissingFixturePassthrough leaves the original statement untouched.
	MissingFixturePassthrough
)
