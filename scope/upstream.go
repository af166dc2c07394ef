package scope

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
)

// UpstreamProducers finds every statement that actually computes
// column, searching outward from stmt through its FROM-item producers:
// a subquery is followed directly, and a base-table-shaped FROM item
// is followed through frame's CTE registry when its name matches a
// visible CTE. A BinarySelect (UNION/INTERSECT/EXCEPT) always searches
// both sides, since either branch can be the one a caller actually
// means by an "upstream" reference.
//
// A statement is only reported as a producer once none of its own
// FROM-item producers can be followed further and expose column
// themselves - a query that merely selects an existing source's column
// through, like "SELECT t.total FROM totals t", is a pass-through, and
// the search keeps going into totals rather than stopping at the
// pass-through. A query descended into with nothing left to follow
// (a base table scan, a literal, an aggregate over its own rows) is
// reported as the producer once its projection exposes column.
func UpstreamProducers(frame *Frame, stmt ast.Statement, column string) []ast.Statement {
	return upstreamSearch(frame, stmt, column, make(map[ast.Statement]bool))
}

func upstreamSearch(frame *Frame, stmt ast.Statement, column string, seen map[ast.Statement]bool) []ast.Statement {
	if stmt == nil || seen[stmt] {
		return nil
	}
	seen[stmt] = true

	switch s := stmt.(type) {
	case *ast.SimpleSelect:
		withFrame, err := PushWith(frame, s.With)
		if err != nil {
			return nil
		}
		childFrame := PushFrom(withFrame, s.From)

		var deeper []ast.Statement
		for _, src := range childFrame.Tables {
			switch src.Kind {
			case SourceSubquery:
				deeper = append(deeper, upstreamSearch(childFrame, src.Body, column, seen)...)
			case SourceBaseTable:
				if cte, ok := childFrame.CTE(src.Name); ok {
					deeper = append(deeper, upstreamSearch(childFrame, cte.Body, column, seen)...)
				}
			}
		}
		if len(deeper) > 0 {
			return deeper
		}
		if exposes(stmt, column) {
			return []ast.Statement{stmt}
		}
		return nil
	case *ast.BinarySelect:
		var out []ast.Statement
		out = append(out, upstreamSearch(frame, s.Left, column, seen)...)
		out = append(out, upstreamSearch(frame, s.Right, column, seen)...)
		return out
	default:
		if exposes(stmt, column) {
			return []ast.Statement{stmt}
		}
		return nil
	}
}

func exposes(stmt ast.Statement, column string) bool {
	for _, name := range ProjectionColumns(stmt) {
		if strings.EqualFold(name, column) {
			return true
		}
	}
	return false
}
