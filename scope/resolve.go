package scope

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
)

// ProjectionColumns returns the statically known output column names of
// stmt: for a SimpleSelect, each item's alias (or its bare column name,
// when the expression is itself an unaliased column reference);
// wildcard items contribute no names (the caller needing them should
// expand the wildcard against the producing frame instead). A
// BinarySelect's column names come from its leftmost leaf, per the SQL
// rule that a set operation's result columns are named by its first
// operand. A ValuesQuery has no named columns (its outputs are
// positional only).
func ProjectionColumns(stmt ast.Statement) []string {
	switch s := stmt.(type) {
	case *ast.SimpleSelect:
		if s.Select == nil {
			return nil
		}
		var out []string
		for _, item := range s.Select.Items {
			if item.Star != nil {
				continue
			}
			if item.Alias != "" {
				out = append(out, item.Alias)
				continue
			}
			if col, ok := item.Expr.(*ast.ColumnRef); ok {
				out = append(out, col.Name)
			}
		}
		return out
	case *ast.BinarySelect:
		return ProjectionColumns(s.Left)
	default:
		return nil
	}
}

// ResolveColumnRef resolves ref against f following spec's scoping
// rule: a qualified reference ("t.c") matches the innermost frame
// (searching outward through Parent) that contains a source whose
// alias or name matches the qualifier; an unqualified reference ("c")
// resolves if exactly one source in some frame level exposes it,
// walking outward one level at a time and stopping at the first level
// with any match, so an inner source shadows an outer one rather than
// competing with it for ambiguity purposes.
func ResolveColumnRef(f *Frame, ref *ast.ColumnRef, resolveCols TableColumnResolver) (*Source, error) {
	if ref.Table != "" {
		for fr := f; fr != nil; fr = fr.Parent {
			for _, src := range fr.Tables {
				if strings.EqualFold(src.Alias, ref.Table) || (src.Name != "" && strings.EqualFold(src.Name, ref.Table)) {
					return src, nil
				}
			}
		}
		return nil, &sqlerrs.ResolutionError{
			Span:    ref.Span(),
			Message: "no visible source for qualifier \"" + ref.Table + "\"",
			Err:     sqlerrs.ErrUnknownColumn,
		}
	}

	for fr := f; fr != nil; fr = fr.Parent {
		matches := fr.sourcesExposing(ref.Name, resolveCols)
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			names := make([]string, len(matches))
			for i, m := range matches {
				names[i] = m.Alias
			}
			return nil, &sqlerrs.ResolutionError{
				Span:    ref.Span(),
				Message: "column \"" + ref.Name + "\" is ambiguous between " + strings.Join(names, ", "),
				Err:     sqlerrs.ErrAmbiguousColumn,
			}
		}
	}
	return nil, &sqlerrs.ResolutionError{
		Span:    ref.Span(),
		Message: "unknown column \"" + ref.Name + "\"",
		Err:     sqlerrs.ErrUnknownColumn,
	}
}

// sourcesExposing returns every source in f (this level only) whose
// known columns include name. A source whose columns can't be
// determined (Columns returns nil because no resolver was supplied for
// a base table, or a function source with no catalog) is included
// optimistically - scope would rather risk missing an ambiguity it
// can't see than report a false unknown-column error against a source
// it has no way to inspect.
func (f *Frame) sourcesExposing(name string, resolveCols TableColumnResolver) []*Source {
	var out []*Source
	for _, src := range f.Tables {
		cols := src.Columns(resolveCols)
		if cols == nil {
			out = append(out, src)
			continue
		}
		for _, c := range cols {
			if strings.EqualFold(c, name) {
				out = append(out, src)
				break
			}
		}
	}
	return out
}

// ExpandWildcard returns the column names a "*" or "table.*" projection
// item expands to, using this frame's sources only (a wildcard never
// reaches into an outer frame). An unqualified "*" expands every source
// in FROM order; "table.*" expands just that one source.
func ExpandWildcard(f *Frame, star *ast.Star, resolveCols TableColumnResolver) ([]string, error) {
	if star.Table == "" {
		var out []string
		for _, src := range f.Tables {
			out = append(out, src.Columns(resolveCols)...)
		}
		return out, nil
	}
	for _, src := range f.Tables {
		if strings.EqualFold(src.Alias, star.Table) || (src.Name != "" && strings.EqualFold(src.Name, star.Table)) {
			return src.Columns(resolveCols), nil
		}
	}
	return nil, &sqlerrs.ResolutionError{
		Span:    star.Span(),
		Message: "no visible source for qualifier \"" + star.Table + "\"",
		Err:     sqlerrs.ErrUnknownColumn,
	}
}
