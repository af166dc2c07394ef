package crud

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform"
)

// DeleteToSelectRewriter turns a DELETE into a SELECT of the target's
// columns over the target's fixture rows narrowed by the statement's own WHERE (joined
// against USING's source for the PostgreSQL DELETE ... USING
// extension) - the row set the DELETE would have removed.
type DeleteToSelectRewriter struct {
	Registry FixtureRegistry
	Strategy MissingFixtureStrategy
}

func NewDeleteToSelectRewriter(registry FixtureRegistry, strategy MissingFixtureStrategy) *DeleteToSelectRewriter {
	return &DeleteToSelectRewriter{Registry: registry, Strategy: strategy}
}

func (*DeleteToSelectRewriter) Name() string { return "DeleteToSelectRewriter" }

func (r *DeleteToSelectRewriter) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	del, ok := stmt.(*ast.Delete)
	if !ok {
		return stmt, nil, nil
	}

	span := del.Span()
	fx, fallback, err := resolveFixture(r.Registry, del.Table.Name, r.Strategy, nil, span)
	if err != nil {
		return nil, nil, err
	}
	if fallback != nil {
		return fallback, nil, nil
	}
	if fx == nil {
		return del, nil, nil
	}

	alias := tableAlias(del.Table)
	from := ast.FromItem(valuesSource(span, fx, alias))
	if del.Using != nil {
		from = ast.NewJoinOn(span, nil, ast.JoinInner, from, del.Using.Item, ast.NewBooleanLiteral(span, nil, true))
	}

	sel := selectAllFromAliased(span, from, alias, fx.Columns)
	if del.Where != nil {
		sel.Where = ast.NewWhereClause(span, nil, del.Where.Condition)
	}
	return sel, nil, nil
}

// selectAllFromAliased projects columns explicitly by name (rather
// than a bare "*") so a USING join's extra columns don't leak into the
// affected-set result.
func selectAllFromAliased(span token.Span, from ast.FromItem, alias string, columns []string) *ast.SimpleSelect {
	items := make([]ast.SelectItem, 0, len(columns))
	for _, col := range columns {
		items = append(items, ast.SelectItem{Expr: ast.NewColumnRef(span, nil, "", alias, col), Alias: col})
	}
	sel := ast.NewSimpleSelect(span, nil)
	sel.Select = ast.NewSelectClause(span, nil, false, nil, items)
	sel.From = ast.NewFromClause(span, nil, from)
	return sel
}
