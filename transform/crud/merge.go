package crud

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform"
)

// mergeBranchTag names which MergeAction branch a MergeToSelectRewriter
// output row came from, since UNION ALL otherwise erases that
// distinction once the branches are combined.
const mergeBranchTag = "__merge_action"

// MergeToSelectRewriter turns a MERGE into a SELECT returning every row
// each of its WHEN branches would have touched, UNION ALL-combined:
// a MATCHED branch joins the target's fixture rows against Using on
// On (AND the branch's own extra condition, when present); a NOT
// MATCHED branch instead looks for Using rows with no matching target
// row. Every branch carries mergeBranchTag so a caller can still tell
// an inserted row from an updated or deleted one after the union.
type MergeToSelectRewriter struct {
	Registry FixtureRegistry
	Strategy MissingFixtureStrategy
}

func NewMergeToSelectRewriter(registry FixtureRegistry, strategy MissingFixtureStrategy) *MergeToSelectRewriter {
	return &MergeToSelectRewriter{Registry: registry, Strategy: strategy}
}

func (*MergeToSelectRewriter) Name() string { return "MergeToSelectRewriter" }

func (r *MergeToSelectRewriter) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	merge, ok := stmt.(*ast.Merge)
	if !ok {
		return stmt, nil, nil
	}

	span := merge.Span()
	fx, fallback, err := resolveFixture(r.Registry, merge.Target.Name, r.Strategy, nil, span)
	if err != nil {
		return nil, nil, err
	}
	if fallback != nil {
		return fallback, nil, nil
	}
	if fx == nil {
		return merge, nil, nil
	}

	targetAlias := tableAlias(merge.Target)
	var branches []ast.Statement
	for _, action := range merge.Actions {
		if branch := r.buildBranch(span, merge, fx, targetAlias, action); branch != nil {
			branches = append(branches, branch)
		}
	}
	if len(branches) == 0 {
		return emptySelect(span, append(append([]string{}, fx.Columns...), mergeBranchTag)), nil, nil
	}

	result := branches[0]
	for _, next := range branches[1:] {
		result = ast.NewBinarySelect(span, nil, result, ast.SetUnionAll, next)
	}
	return result, nil, nil
}

func (r *MergeToSelectRewriter) buildBranch(span token.Span, merge *ast.Merge, fx *FixtureTable, targetAlias string, action ast.MergeAction) *ast.SimpleSelect {
	from := ast.FromItem(valuesSource(span, fx, targetAlias))

	switch action.MatchKind {
	case ast.MergeMatched, ast.MergeNotMatchedBySource:
		from = ast.NewJoinOn(span, nil, ast.JoinInner, from, merge.Using, merge.On)
		if action.Action == ast.MergeActionDoNothing {
			return nil
		}
		return r.projectMatched(span, fx, targetAlias, from, action)
	default: // MergeNotMatched: Using rows with no matching target row
		from = ast.NewJoinOn(span, nil, ast.JoinLeft, merge.Using, valuesSource(span, fx, targetAlias), merge.On)
		if action.Action != ast.MergeActionInsert {
			return nil
		}
		return r.projectNotMatchedInsert(span, fx, targetAlias, from, action)
	}
}

func (r *MergeToSelectRewriter) projectMatched(span token.Span, fx *FixtureTable, alias string, from ast.FromItem, action ast.MergeAction) *ast.SimpleSelect {
	set := make(map[string]ast.Expr, len(action.SetItems))
	for _, item := range action.SetItems {
		set[item.Column] = item.Value
	}

	items := make([]ast.SelectItem, 0, len(fx.Columns)+1)
	for _, col := range fx.Columns {
		if v, ok := set[col]; action.Action == ast.MergeActionUpdate && ok {
			items = append(items, ast.SelectItem{Expr: v, Alias: col})
			continue
		}
		items = append(items, ast.SelectItem{Expr: ast.NewColumnRef(span, nil, "", alias, col), Alias: col})
	}
	items = append(items, ast.SelectItem{Expr: branchTagLiteral(span, action.Action), Alias: mergeBranchTag})

	sel := ast.NewSimpleSelect(span, nil)
	sel.Select = ast.NewSelectClause(span, nil, false, nil, items)
	sel.From = ast.NewFromClause(span, nil, from)
	if action.Condition != nil {
		sel.Where = ast.NewWhereClause(span, nil, action.Condition)
	}
	return sel
}

func (r *MergeToSelectRewriter) projectNotMatchedInsert(span token.Span, fx *FixtureTable, alias string, from ast.FromItem, action ast.MergeAction) *ast.SimpleSelect {
	declared := make(map[string]ast.Expr, len(action.Columns))
	for i, col := range action.Columns {
		if i < len(action.Values) {
			declared[col] = action.Values[i]
		}
	}

	items := make([]ast.SelectItem, 0, len(fx.Columns)+1)
	for _, col := range fx.Columns {
		if v, ok := declared[col]; ok {
			items = append(items, ast.SelectItem{Expr: v, Alias: col})
			continue
		}
		items = append(items, ast.SelectItem{Expr: defaultFor(span, fx, col), Alias: col})
	}
	items = append(items, ast.SelectItem{Expr: branchTagLiteral(span, ast.MergeActionInsert), Alias: mergeBranchTag})

	sel := ast.NewSimpleSelect(span, nil)
	sel.Select = ast.NewSelectClause(span, nil, false, nil, items)
	sel.From = ast.NewFromClause(span, nil, from)
	// fx.Columns[0] stands in for the target's identifying column: a
	// LEFT JOIN row with nothing on the target side has every target
	// column NULL, and the first is as good a witness as any other.
	sel.Where = ast.NewWhereClause(span, nil, ast.NewBinaryOp(span, nil, "IS NULL",
		ast.NewColumnRef(span, nil, "", alias, fx.Columns[0]), ast.NewNullLiteral(span, nil)))
	if action.Condition != nil {
		sel.Where.Condition = ast.NewBinaryOp(span, nil, "AND", sel.Where.Condition, action.Condition)
	}
	return sel
}

func branchTagLiteral(span token.Span, action ast.MergeActionKind) ast.Expr {
	switch action {
	case ast.MergeActionUpdate:
		return ast.NewStringLiteral(span, nil, "update")
	case ast.MergeActionDelete:
		return ast.NewStringLiteral(span, nil, "delete")
	default:
		return ast.NewStringLiteral(span, nil, "insert")
	}
}
