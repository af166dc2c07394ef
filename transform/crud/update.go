package crud

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/transform"
)

// UpdateToSelectRewriter turns an UPDATE into a SELECT over the
// target's fixture rows narrowed by the statement's own WHERE (and, for
// the PostgreSQL UPDATE ... FROM extension, joined against the same
// FROM source), projecting each SET assignment's new value alongside
// the row's unchanged columns - the row set the UPDATE would have
// touched, with the values it would have written.
type UpdateToSelectRewriter struct {
	Registry FixtureRegistry
	Strategy MissingFixtureStrategy
}

func NewUpdateToSelectRewriter(registry FixtureRegistry, strategy MissingFixtureStrategy) *UpdateToSelectRewriter {
	return &UpdateToSelectRewriter{Registry: registry, Strategy: strategy}
}

func (*UpdateToSelectRewriter) Name() string { return "UpdateToSelectRewriter" }

func (r *UpdateToSelectRewriter) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	upd, ok := stmt.(*ast.Update)
	if !ok {
		return stmt, nil, nil
	}

	span := upd.Span()
	fx, fallback, err := resolveFixture(r.Registry, upd.Table.Name, r.Strategy, updateSetColumns(upd), span)
	if err != nil {
		return nil, nil, err
	}
	if fallback != nil {
		return fallback, nil, nil
	}
	if fx == nil {
		return upd, nil, nil
	}

	alias := tableAlias(upd.Table)
	from := ast.FromItem(valuesSource(span, fx, alias))
	if upd.From != nil {
		from = ast.NewJoinOn(span, nil, ast.JoinInner, from, upd.From.Item, ast.NewBooleanLiteral(span, nil, true))
	}

	set := make(map[string]bool, len(upd.SetItems))
	for _, item := range upd.SetItems {
		set[item.Column] = true
	}
	items := make([]ast.SelectItem, 0, len(fx.Columns))
	for _, col := range fx.Columns {
		if set[col] {
			continue
		}
		items = append(items, ast.SelectItem{Expr: ast.NewColumnRef(span, nil, "", alias, col), Alias: col})
	}
	for _, item := range upd.SetItems {
		items = append(items, ast.SelectItem{Expr: item.Value, Alias: item.Column})
	}

	sel := ast.NewSimpleSelect(span, nil)
	sel.Select = ast.NewSelectClause(span, nil, false, nil, items)
	sel.From = ast.NewFromClause(span, nil, from)
	if upd.Where != nil {
		sel.Where = ast.NewWhereClause(span, nil, upd.Where.Condition)
	}
	return sel, nil, nil
}

// tableAlias returns the alias an UPDATE/DELETE target's fixture
// VALUES source should use, so a WHERE/SET written against the real
// table name still resolves: the statement's own alias when it
// declared one, the bare table name otherwise.
func tableAlias(ref *ast.BaseTableRef) string {
	if ref.Alias != "" {
		return ref.Alias
	}
	return ref.Name
}

// updateSetColumns gives resolveFixture's empty-result fallback a
// column list even when no fixture is registered for upd's table: it
// falls back to the SET list's own column names.
func updateSetColumns(upd *ast.Update) []string {
	cols := make([]string, 0, len(upd.SetItems))
	for _, item := range upd.SetItems {
		cols = append(cols, item.Column)
	}
	return cols
}
