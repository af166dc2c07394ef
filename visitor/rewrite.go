package visitor

import "github.com/sqlxform/sqlxform/ast"

// Rewriter is consulted once per node in pre-order. If recurse is
// false, result is used as-is and the node's children are not visited
// (a short-circuit replacement). If recurse is true, result's children
// (or node's children, when result == node) are rewritten and a new
// node is built from the rewritten children; result's own non-child
// fields are preserved.
//
// Rewrite never mutates the tree it is given: every reconstructed node
// is a fresh value (a shallow copy with child fields swapped), so
// subtrees the handler didn't touch are safely shared between the
// input and output trees.
type Rewriter interface {
	Rewrite(node ast.Node) (result ast.Node, recurse bool)
}

// RewriterFunc adapts a plain function to a Rewriter.
type RewriterFunc func(ast.Node) (ast.Node, bool)

func (f RewriterFunc) Rewrite(node ast.Node) (ast.Node, bool) { return f(node) }

// Rewrite applies r to node and, where the handler asks for it,
// rebuilds node from rewritten children. Callers type-assert the
// result back to the concrete interface they passed in (ast.Statement,
// ast.Expr, ast.FromItem, ast.Clause) - the dynamic type is always
// preserved or replaced with another implementor of that same
// interface by a well-behaved Rewriter.
func Rewrite(r Rewriter, node ast.Node) ast.Node {
	if node == nil {
		return nil
	}
	replaced, recurse := r.Rewrite(node)
	if !recurse {
		return replaced
	}
	return rebuildChildren(r, replaced)
}

func rewriteExpr(r Rewriter, e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	out := Rewrite(r, e)
	if out == nil {
		return nil
	}
	return out.(ast.Expr)
}

func rewriteFromItem(r Rewriter, f ast.FromItem) ast.FromItem {
	if f == nil {
		return nil
	}
	out := Rewrite(r, f)
	if out == nil {
		return nil
	}
	return out.(ast.FromItem)
}

func rewriteStatement(r Rewriter, s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	out := Rewrite(r, s)
	if out == nil {
		return nil
	}
	return out.(ast.Statement)
}

func rewriteExprs(r Rewriter, in []ast.Expr) []ast.Expr {
	if in == nil {
		return nil
	}
	out := make([]ast.Expr, len(in))
	for i, e := range in {
		out[i] = rewriteExpr(r, e)
	}
	return out
}

func rewriteExprRows(r Rewriter, rows [][]ast.Expr) [][]ast.Expr {
	if rows == nil {
		return nil
	}
	out := make([][]ast.Expr, len(rows))
	for i, row := range rows {
		out[i] = rewriteExprs(r, row)
	}
	return out
}

// rebuildChildren reconstructs node (a shallow copy, so the input
// pointer's value is left untouched) with every child field replaced
// by its rewritten form. Leaf node types are returned unchanged since
// they have no children to rewrite.
func rebuildChildren(r Rewriter, node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.ColumnRef, *ast.Star, *ast.Literal, *ast.ParameterRef, *ast.BaseTableRef, *ast.Truncate:
		return n

	case *ast.FunctionCall:
		cp := *n
		cp.Args = rewriteExprs(r, n.Args)
		cp.Filter = rewriteExpr(r, n.Filter)
		cp.Over = rewriteWindowSpec(r, n.Over)
		if n.WithinGroup != nil {
			cp.WithinGroup = Rewrite(r, n.WithinGroup).(*ast.OrderByClause)
		}
		return &cp

	case *ast.UnaryOp:
		cp := *n
		cp.Operand = rewriteExpr(r, n.Operand)
		return &cp

	case *ast.BinaryOp:
		cp := *n
		cp.Left = rewriteExpr(r, n.Left)
		cp.Right = rewriteExpr(r, n.Right)
		return &cp

	case *ast.Between:
		cp := *n
		cp.Expr = rewriteExpr(r, n.Expr)
		cp.Low = rewriteExpr(r, n.Low)
		cp.High = rewriteExpr(r, n.High)
		return &cp

	case *ast.In:
		cp := *n
		cp.Expr = rewriteExpr(r, n.Expr)
		cp.List = rewriteExprs(r, n.List)
		if n.Subquery != nil {
			sub := Rewrite(r, n.Subquery).(*ast.Subquery)
			cp.Subquery = sub
		}
		return &cp

	case *ast.Like:
		cp := *n
		cp.Expr = rewriteExpr(r, n.Expr)
		cp.Pattern = rewriteExpr(r, n.Pattern)
		cp.Escape = rewriteExpr(r, n.Escape)
		return &cp

	case *ast.Case:
		cp := *n
		cp.Operand = rewriteExpr(r, n.Operand)
		whens := make([]ast.CaseWhen, len(n.Whens))
		for i, w := range n.Whens {
			whens[i] = ast.CaseWhen{When: rewriteExpr(r, w.When), Then: rewriteExpr(r, w.Then)}
		}
		cp.Whens = whens
		cp.Else = rewriteExpr(r, n.Else)
		return &cp

	case *ast.Cast:
		cp := *n
		cp.Expr = rewriteExpr(r, n.Expr)
		return &cp

	case *ast.ArrayConstructor:
		cp := *n
		cp.Elements = rewriteExprs(r, n.Elements)
		if n.Subquery != nil {
			cp.Subquery = Rewrite(r, n.Subquery).(*ast.Subquery)
		}
		return &cp

	case *ast.RowConstructor:
		cp := *n
		cp.Elements = rewriteExprs(r, n.Elements)
		return &cp

	case *ast.ParenExpr:
		cp := *n
		cp.Inner = rewriteExpr(r, n.Inner)
		return &cp

	case *ast.Subquery:
		cp := *n
		cp.Query = rewriteStatement(r, n.Query)
		return &cp

	case *ast.WindowFunction:
		cp := *n
		call := Rewrite(r, n.Call).(*ast.FunctionCall)
		cp.Call = call
		return &cp

	case *ast.SubquerySource:
		cp := *n
		cp.Query = rewriteStatement(r, n.Query)
		return &cp

	case *ast.ValuesSource:
		cp := *n
		cp.Rows = rewriteExprRows(r, n.Rows)
		return &cp

	case *ast.FunctionSource:
		cp := *n
		cp.Call = Rewrite(r, n.Call).(*ast.FunctionCall)
		return &cp

	case *ast.Join:
		cp := *n
		cp.Left = rewriteFromItem(r, n.Left)
		cp.Right = rewriteFromItem(r, n.Right)
		if n.ConditionKind == ast.JoinConditionOn {
			cp.On = rewriteExpr(r, n.On)
		}
		return &cp

	case *ast.SelectClause:
		cp := *n
		cp.DistinctOn = rewriteExprs(r, n.DistinctOn)
		items := make([]ast.SelectItem, len(n.Items))
		for i, item := range n.Items {
			ni := item
			if item.Star != nil {
				ni.Star = Rewrite(r, item.Star).(*ast.Star)
			} else {
				ni.Expr = rewriteExpr(r, item.Expr)
			}
			items[i] = ni
		}
		cp.Items = items
		return &cp

	case *ast.FromClause:
		cp := *n
		cp.Item = rewriteFromItem(r, n.Item)
		return &cp

	case *ast.WhereClause:
		cp := *n
		cp.Condition = rewriteExpr(r, n.Condition)
		return &cp

	case *ast.GroupByClause:
		cp := *n
		cp.Items = rewriteExprs(r, n.Items)
		cp.Sets = rewriteExprRows(r, n.Sets)
		return &cp

	case *ast.HavingClause:
		cp := *n
		cp.Condition = rewriteExpr(r, n.Condition)
		return &cp

	case *ast.WindowClause:
		cp := *n
		windows := make([]ast.NamedWindow, len(n.Windows))
		for i, w := range n.Windows {
			windows[i] = ast.NamedWindow{Name: w.Name, Spec: rewriteWindowSpec(r, w.Spec)}
		}
		cp.Windows = windows
		return &cp

	case *ast.OrderByClause:
		cp := *n
		items := make([]ast.OrderByItem, len(n.Items))
		for i, item := range n.Items {
			ni := item
			ni.Expr = rewriteExpr(r, item.Expr)
			items[i] = ni
		}
		cp.Items = items
		return &cp

	case *ast.LimitClause:
		cp := *n
		cp.Limit = rewriteExpr(r, n.Limit)
		cp.Offset = rewriteExpr(r, n.Offset)
		return &cp

	case *ast.CTE:
		cp := *n
		cp.Body = rewriteStatement(r, n.Body)
		return &cp

	case *ast.WithClause:
		cp := *n
		ctes := make([]*ast.CTE, len(n.CTEs))
		for i, cte := range n.CTEs {
			ctes[i] = Rewrite(r, cte).(*ast.CTE)
		}
		cp.CTEs = ctes
		return &cp

	case *ast.SimpleSelect:
		cp := *n
		if n.With != nil {
			cp.With = Rewrite(r, n.With).(*ast.WithClause)
		}
		cp.Select = Rewrite(r, n.Select).(*ast.SelectClause)
		if n.From != nil {
			cp.From = Rewrite(r, n.From).(*ast.FromClause)
		}
		if n.Where != nil {
			cp.Where = Rewrite(r, n.Where).(*ast.WhereClause)
		}
		if n.GroupBy != nil {
			cp.GroupBy = Rewrite(r, n.GroupBy).(*ast.GroupByClause)
		}
		if n.Having != nil {
			cp.Having = Rewrite(r, n.Having).(*ast.HavingClause)
		}
		if n.Window != nil {
			cp.Window = Rewrite(r, n.Window).(*ast.WindowClause)
		}
		if n.OrderBy != nil {
			cp.OrderBy = Rewrite(r, n.OrderBy).(*ast.OrderByClause)
		}
		if n.Limit != nil {
			cp.Limit = Rewrite(r, n.Limit).(*ast.LimitClause)
		}
		return &cp

	case *ast.BinarySelect:
		cp := *n
		cp.Left = rewriteStatement(r, n.Left)
		cp.Right = rewriteStatement(r, n.Right)
		if n.OrderBy != nil {
			cp.OrderBy = Rewrite(r, n.OrderBy).(*ast.OrderByClause)
		}
		if n.Limit != nil {
			cp.Limit = Rewrite(r, n.Limit).(*ast.LimitClause)
		}
		return &cp

	case *ast.ValuesQuery:
		cp := *n
		cp.Rows = rewriteExprRows(r, n.Rows)
		if n.OrderBy != nil {
			cp.OrderBy = Rewrite(r, n.OrderBy).(*ast.OrderByClause)
		}
		if n.Limit != nil {
			cp.Limit = Rewrite(r, n.Limit).(*ast.LimitClause)
		}
		return &cp

	case *ast.Insert:
		cp := *n
		if n.With != nil {
			cp.With = Rewrite(r, n.With).(*ast.WithClause)
		}
		cp.Table = Rewrite(r, n.Table).(*ast.BaseTableRef)
		cp.ValuesRows = rewriteExprRows(r, n.ValuesRows)
		if n.Select != nil {
			cp.Select = rewriteStatement(r, n.Select)
		}
		if n.OnConflict != nil {
			oc := *n.OnConflict
			oc.SetItems = rewriteSetItems(r, n.OnConflict.SetItems)
			oc.Where = rewriteExpr(r, n.OnConflict.Where)
			cp.OnConflict = &oc
		}
		cp.Returning = rewriteReturning(r, n.Returning)
		return &cp

	case *ast.Update:
		cp := *n
		if n.With != nil {
			cp.With = Rewrite(r, n.With).(*ast.WithClause)
		}
		cp.Table = Rewrite(r, n.Table).(*ast.BaseTableRef)
		cp.SetItems = rewriteSetItems(r, n.SetItems)
		if n.From != nil {
			cp.From = Rewrite(r, n.From).(*ast.FromClause)
		}
		if n.Where != nil {
			cp.Where = Rewrite(r, n.Where).(*ast.WhereClause)
		}
		cp.Returning = rewriteReturning(r, n.Returning)
		return &cp

	case *ast.Delete:
		cp := *n
		if n.With != nil {
			cp.With = Rewrite(r, n.With).(*ast.WithClause)
		}
		cp.Table = Rewrite(r, n.Table).(*ast.BaseTableRef)
		if n.Using != nil {
			cp.Using = Rewrite(r, n.Using).(*ast.FromClause)
		}
		if n.Where != nil {
			cp.Where = Rewrite(r, n.Where).(*ast.WhereClause)
		}
		cp.Returning = rewriteReturning(r, n.Returning)
		return &cp

	case *ast.Merge:
		cp := *n
		cp.Target = Rewrite(r, n.Target).(*ast.BaseTableRef)
		cp.Using = rewriteFromItem(r, n.Using)
		cp.On = rewriteExpr(r, n.On)
		actions := make([]ast.MergeAction, len(n.Actions))
		for i, a := range n.Actions {
			na := a
			na.Condition = rewriteExpr(r, a.Condition)
			na.SetItems = rewriteSetItems(r, a.SetItems)
			na.Values = rewriteExprs(r, a.Values)
			actions[i] = na
		}
		cp.Actions = actions
		return &cp

	case *ast.Explain:
		cp := *n
		cp.Stmt = rewriteStatement(r, n.Stmt)
		return &cp

	default:
		return node
	}
}

func rewriteWindowSpec(r Rewriter, spec *ast.WindowSpec) *ast.WindowSpec {
	if spec == nil {
		return nil
	}
	cp := *spec
	cp.PartitionBy = rewriteExprs(r, spec.PartitionBy)
	if spec.OrderBy != nil {
		cp.OrderBy = Rewrite(r, spec.OrderBy).(*ast.OrderByClause)
	}
	return &cp
}

func rewriteSetItems(r Rewriter, items []ast.SetItem) []ast.SetItem {
	if items == nil {
		return nil
	}
	out := make([]ast.SetItem, len(items))
	for i, item := range items {
		out[i] = ast.SetItem{Column: item.Column, Value: rewriteExpr(r, item.Value)}
	}
	return out
}

func rewriteReturning(r Rewriter, ret *ast.ReturningClause) *ast.ReturningClause {
	if ret == nil {
		return nil
	}
	items := make([]ast.SelectItem, len(ret.Items))
	for i, item := range ret.Items {
		ni := item
		if item.Star != nil {
			ni.Star = Rewrite(r, item.Star).(*ast.Star)
		} else {
			ni.Expr = rewriteExpr(r, item.Expr)
		}
		items[i] = ni
	}
	return &ast.ReturningClause{Items: items}
}
