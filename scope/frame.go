// Package scope resolves, for any point inside a query, which tables,
// CTEs, and columns are visible there. It walks a statement's FROM/WITH
// structure from the outside in, pushing a frame at each introduction,
// the way parsercommon.Namespace in the teacher's own template parser
// pushes a frame per loop/conditional scope.
package scope

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
)

// SourceKind distinguishes the kinds of FROM-item a Source wraps.
type SourceKind int

const (
	SourceBaseTable SourceKind = iota
	SourceSubquery
	SourceValues
	SourceFunction
)

// Source is one named entry visible in a Frame: a base table, a
// subquery, a VALUES list, or a set-returning function, each exposed
// under an alias (or its own name, for an unaliased base table).
type Source struct {
	Alias         string
	Name          string // base table name; "" for the other kinds
	Kind          SourceKind
	ColumnAliases []string       // explicit "AS alias(col, ...)" list, if given
	Body          ast.Statement  // populated for SourceSubquery
	Item          ast.FromItem   // the originating from-item, for diagnostics
}

// CTEInfo is one WITH-block entry visible in a Frame.
type CTEInfo struct {
	Name          string
	ColumnAliases []string
	Materialized  *bool
	Recursive     bool
	Body          ast.Statement
}

// Frame is the set of sources and CTEs visible at one nesting level. A
// Frame's Parent is the enclosing query's frame (nil at the outermost
// query); unqualified column lookup walks outward through Parent when
// the current frame doesn't resolve a name, matching SQL's ordinary
// lexical scoping for correlated subqueries.
type Frame struct {
	Parent  *Frame
	Tables  []*Source
	ctes    map[string]*CTEInfo // lower-cased name -> info
	cteList []*CTEInfo          // preserves declaration order
}

// TableColumnResolver supplies the column list for a base table by
// name; callers own the schema catalog, scope only consumes it.
type TableColumnResolver func(tableName string) []string

func newFrame(parent *Frame) *Frame {
	return &Frame{Parent: parent, ctes: make(map[string]*CTEInfo)}
}

// PushWith registers every CTE in with into a new child frame, erroring
// if the same name appears twice in one WITH block. CTEs declared at an
// outer WITH remain visible (via Parent) and are shadowed, not removed,
// by a same-named inner CTE - the CTE() lookup below always checks the
// innermost frame first.
func PushWith(parent *Frame, with *ast.WithClause) (*Frame, error) {
	f := newFrame(parent)
	if with == nil {
		return f, nil
	}
	for _, cte := range with.CTEs {
		key := strings.ToLower(cte.Name)
		if _, dup := f.ctes[key]; dup {
			return nil, &sqlerrs.ResolutionError{
				Span:    cte.Span(),
				Message: "duplicate CTE name \"" + cte.Name + "\" in the same WITH block",
				Err:     sqlerrs.ErrDuplicateCTE,
			}
		}
		info := &CTEInfo{
			Name:          cte.Name,
			ColumnAliases: cte.ColumnAliases,
			Materialized:  cte.Materialized,
			Recursive:     cte.Recursive,
			Body:          cte.Body,
		}
		f.ctes[key] = info
		f.cteList = append(f.cteList, info)
	}
	return f, nil
}

// PushFrom registers the (possibly join-combined) sources of from into
// a new child frame.
func PushFrom(parent *Frame, from *ast.FromClause) *Frame {
	f := newFrame(parent)
	if from == nil {
		return f
	}
	f.Tables = flattenSources(from.Item)
	return f
}

// CTE looks up name against this frame and, if not found, every
// enclosing frame in turn, so an inner WITH shadows an outer one of the
// same name.
func (f *Frame) CTE(name string) (*CTEInfo, bool) {
	key := strings.ToLower(name)
	for fr := f; fr != nil; fr = fr.Parent {
		if info, ok := fr.ctes[key]; ok {
			return info, true
		}
	}
	return nil, false
}

// CTEs returns every CTE visible in this frame (this level only, in
// declaration order), for callers enumerating "available CTEs".
func (f *Frame) CTEs() []*CTEInfo {
	return append([]*CTEInfo(nil), f.cteList...)
}

func flattenSources(item ast.FromItem) []*Source {
	switch n := item.(type) {
	case nil:
		return nil
	case *ast.Join:
		return append(flattenSources(n.Left), flattenSources(n.Right)...)
	case *ast.BaseTableRef:
		alias := n.Alias
		if alias == "" {
			alias = n.Name
		}
		return []*Source{{Alias: alias, Name: n.Name, Kind: SourceBaseTable, ColumnAliases: n.ColumnAliases, Item: n}}
	case *ast.SubquerySource:
		return []*Source{{Alias: n.Alias, Kind: SourceSubquery, ColumnAliases: n.ColumnAliases, Body: n.Query, Item: n}}
	case *ast.ValuesSource:
		return []*Source{{Alias: n.Alias, Kind: SourceValues, ColumnAliases: n.ColumnAliases, Item: n}}
	case *ast.FunctionSource:
		alias := n.Alias
		if alias == "" && n.Call != nil {
			alias = n.Call.Name
		}
		return []*Source{{Alias: alias, Name: n.Call.Name, Kind: SourceFunction, ColumnAliases: n.ColumnAliases, Item: n}}
	default:
		return nil
	}
}

// Columns returns the statically known column names exposed by src: an
// explicit "AS alias(col, ...)" list always wins; otherwise a base
// table defers to resolveCols, and a subquery defers to its own
// projection list. A function source or a columnless VALUES list with
// no resolver available returns nil - its columns are unknown, not
// absent; ResolveColumnRef treats that as "cannot disprove" rather than
// a non-match so wildcard/ambiguity checks never produce a false
// negative against a source scope genuinely can't see into.
func (src *Source) Columns(resolveCols TableColumnResolver) []string {
	if len(src.ColumnAliases) > 0 {
		return src.ColumnAliases
	}
	switch src.Kind {
	case SourceBaseTable:
		if resolveCols == nil {
			return nil
		}
		return resolveCols(src.Name)
	case SourceSubquery:
		return ProjectionColumns(src.Body)
	default:
		return nil
	}
}
