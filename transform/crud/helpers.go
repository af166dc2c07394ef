package crud

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

// valuesSource builds a FROM item standing in for fx's fixture content,
// aliased and column-named so predicates and projections written
// against the real table still resolve against it unchanged.
func valuesSource(span token.Span, fx *FixtureTable, alias string) ast.FromItem {
	return ast.NewValuesSource(span, nil, fx.Rows, alias, fx.Columns)
}

// selectAllFrom builds "SELECT * FROM from" - the shape the INSERT
// rewriter and emptySelect return.
func selectAllFrom(span token.Span, from ast.FromItem) *ast.SimpleSelect {
	sel := ast.NewSimpleSelect(span, nil)
	sel.Select = ast.NewSelectClause(span, nil, false, nil, []ast.SelectItem{
		{Star: ast.NewStar(span, nil, "")},
	})
	sel.From = ast.NewFromClause(span, nil, from)
	return sel
}

// emptySelect returns a SELECT guaranteed to produce zero rows,
// shaped with columns so a caller iterating its result set still sees
// the expected column names.
func emptySelect(span token.Span, columns []string) *ast.SimpleSelect {
	fx := &FixtureTable{Columns: columns}
	return selectAllFrom(span, valuesSource(span, fx, "affected"))
}

// resolveFixture applies strategy to a lookup miss: error, an empty
// result shaped with fallbackColumns, or nil (caller passes the
// original statement through unchanged).
func resolveFixture(registry FixtureRegistry, table string, strategy MissingFixtureStrategy, fallbackColumns []string, span token.Span) (*FixtureTable, *ast.SimpleSelect, error) {
	if fx, ok := registry.lookup(table); ok {
		return fx, nil, nil
	}
	switch strategy {
	case MissingFixtureEmpty:
		return nil, emptySelect(span, fallbackColumns), nil
	case MissingFixturePassthrough:
		return nil, nil, nil
	default:
		return nil, nil, &sqlerrs.TransformError{
			Message: "no fixture registered for table " + table,
			Err:     sqlerrs.ErrUnknownFixture,
		}
	}
}
