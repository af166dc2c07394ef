package crud

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform"
)

// InsertToSelectRewriter turns an INSERT into a SELECT returning the
// rows it would have added: VALUES rows are projected against the
// fixture table's full column list, filling any column the statement's
// own column list omitted from FixtureTable.Defaults (or SQL NULL when
// no default is registered); an INSERT ... SELECT instead wraps the
// inner SELECT the same way, so the result's column order always
// matches the fixture table regardless of which columns the statement
// named explicitly.
type InsertToSelectRewriter struct {
	Registry FixtureRegistry
	Strategy MissingFixtureStrategy
}

func NewInsertToSelectRewriter(registry FixtureRegistry, strategy MissingFixtureStrategy) *InsertToSelectRewriter {
	return &InsertToSelectRewriter{Registry: registry, Strategy: strategy}
}

func (*InsertToSelectRewriter) Name() string { return "InsertToSelectRewriter" }

func (r *InsertToSelectRewriter) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	ins, ok := stmt.(*ast.Insert)
	if !ok {
		return stmt, nil, nil
	}

	span := ins.Span()
	fx, fallback, err := resolveFixture(r.Registry, ins.Table.Name, r.Strategy, ins.Columns, span)
	if err != nil {
		return nil, nil, err
	}
	if fallback != nil {
		return fallback, nil, nil
	}
	if fx == nil {
		return ins, nil, nil // passthrough
	}

	declared := make(map[string]bool, len(ins.Columns))
	for _, c := range ins.Columns {
		declared[c] = true
	}
	indexOf := make(map[string]int, len(ins.Columns))
	for i, c := range ins.Columns {
		indexOf[c] = i
	}

	columns := fx.Columns
	if len(columns) == 0 {
		columns = ins.Columns
	}

	if ins.Select != nil {
		alias := "src"
		items := make([]ast.SelectItem, 0, len(columns))
		for _, col := range columns {
			if declared[col] {
				items = append(items, ast.SelectItem{Expr: ast.NewColumnRef(span, nil, "", alias, col), Alias: col})
				continue
			}
			items = append(items, ast.SelectItem{Expr: defaultFor(span, fx, col), Alias: col})
		}
		sel := ast.NewSimpleSelect(span, nil)
		sel.Select = ast.NewSelectClause(span, nil, false, nil, items)
		sel.From = ast.NewFromClause(span, nil, ast.NewSubquerySource(span, nil, ins.Select, alias, ins.Columns, false))
		return sel, nil, nil
	}

	rows := make([][]ast.Expr, 0, len(ins.ValuesRows))
	for _, row := range ins.ValuesRows {
		full := make([]ast.Expr, 0, len(columns))
		for _, col := range columns {
			if declared[col] {
				full = append(full, row[indexOf[col]])
				continue
			}
			full = append(full, defaultFor(span, fx, col))
		}
		rows = append(rows, full)
	}

	synthesized := &FixtureTable{Columns: columns, Rows: rows}
	return selectAllFrom(span, valuesSource(span, synthesized, ins.Table.Name)), nil, nil
}

// defaultFor returns fx's registered default for col, or SQL NULL when
// none is registered.
func defaultFor(span token.Span, fx *FixtureTable, col string) ast.Expr {
	if fx.Defaults != nil {
		if expr, ok := fx.Defaults[col]; ok {
			return expr
		}
	}
	return ast.NewNullLiteral(span, nil)
}
