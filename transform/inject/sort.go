package inject

import (
	"sort"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform"
)

// SortSpec is one column's requested ordering, using the same
// direction/nulls-position vocabulary the parser itself populates an
// OrderByItem with.
type SortSpec struct {
	Direction ast.SortDirection
	Nulls     ast.NullsPosition
}

// SqlSortInjector appends (or, with Replace, overwrites) ORDER BY items
// for the columns named in Columns, in the map's sorted key order so
// output is deterministic across runs. A column is looked up first
// against the query's own projection (so an alias like "total" matches
// the item it names and is re-emitted by that alias, not by the
// expression behind it), then against the FROM scope for an unaliased
// source column.
type SqlSortInjector struct {
	Columns map[string]SortSpec
	// Replace discards any existing ORDER BY before appending, instead
	// of preserving prior items ahead of the injected ones.
	Replace        bool
	ResolveColumns scope.TableColumnResolver
}

func NewSqlSortInjector(columns map[string]SortSpec, replace bool, resolveCols scope.TableColumnResolver) *SqlSortInjector {
	return &SqlSortInjector{Columns: columns, Replace: replace, ResolveColumns: resolveCols}
}

func (inj *SqlSortInjector) Name() string { return "SqlSortInjector" }

func (inj *SqlSortInjector) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	if len(inj.Columns) == 0 {
		return stmt, nil, nil
	}
	sel, ok := stmt.(*ast.SimpleSelect)
	if !ok {
		return nil, nil, &sqlerrs.TransformError{
			Message: "sort injection requires a simple SELECT statement",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}

	withFrame, err := scope.PushWith(nil, sel.With)
	if err != nil {
		return nil, nil, err
	}
	frame := scope.PushFrom(withFrame, sel.From)

	var newItems []ast.OrderByItem
	for _, col := range sortedSortColumns(inj.Columns) {
		spec := inj.Columns[col]
		expr, err := resolveSortTarget(frame, sel, col, inj.ResolveColumns)
		if err != nil {
			return nil, nil, err
		}
		newItems = append(newItems, ast.OrderByItem{
			Expr:      expr,
			Direction: spec.Direction,
			Nulls:     spec.Nulls,
		})
	}

	var items []ast.OrderByItem
	if !inj.Replace && sel.OrderBy != nil {
		items = append(items, sel.OrderBy.Items...)
	}
	items = append(items, newItems...)

	span := sel.Span()
	if sel.OrderBy != nil {
		span = sel.OrderBy.Span()
	}
	cp := *sel
	cp.OrderBy = ast.NewOrderByClause(span, nil, items)
	return &cp, nil, nil
}

// resolveSortTarget prefers the projection (so a computed alias is
// re-emitted by that alias, per spec), falling back to a plain column
// reference resolved against the FROM scope.
func resolveSortTarget(frame *scope.Frame, sel *ast.SimpleSelect, col string, resolveCols scope.TableColumnResolver) (ast.Expr, error) {
	if sel.Select != nil {
		for _, item := range sel.Select.Items {
			if item.Star != nil {
				continue
			}
			if item.Alias != "" && strings.EqualFold(item.Alias, col) {
				return ast.NewColumnRef(item.Expr.Span(), nil, "", "", item.Alias), nil
			}
		}
	}

	ref := columnRefFor(col)
	src, err := scope.ResolveColumnRef(frame, ref, resolveCols)
	if err != nil {
		return nil, err
	}
	return ast.NewColumnRef(ref.Span(), nil, "", src.Alias, ref.Name), nil
}

func sortedSortColumns(specs map[string]SortSpec) []string {
	cols := make([]string, 0, len(specs))
	for col := range specs {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
