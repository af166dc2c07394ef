// Package visitor provides external traversal over the ast package's
// node set: Walk for read-only inspection and Rewrite for rebuilding a
// tree with replaced subtrees. Traversal lives outside ast itself so
// new passes never require touching the node definitions.
package visitor

import "github.com/sqlxform/sqlxform/ast"

// Visitor is called once per node in pre-order. Returning nil stops
// descent into that node's children; returning a non-nil Visitor (often
// itself) continues the walk into children with that Visitor.
type Visitor interface {
	Visit(node ast.Node) Visitor
}

// WalkFunc adapts a plain func(ast.Node) bool into a Visitor: returning
// false skips the node's children. fn is also invoked once with nil
// after a node's children are done, mirroring go/ast.Inspect; callers
// that don't care can ignore the nil case.
type WalkFunc func(ast.Node) bool

func (f WalkFunc) Visit(node ast.Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect walks node in pre-order, calling fn for every node reached
// and once more with nil after each node's children are exhausted.
// Returning false from fn skips that node's children but not its
// siblings.
func Inspect(node ast.Node, fn func(ast.Node) bool) {
	Walk(WalkFunc(fn), node)
}

// Walk traverses node and its descendants in syntactic order, calling
// v.Visit before descending into children. A nil node is a no-op.
func Walk(v Visitor, node ast.Node) {
	if node == nil || v == nil {
		return
	}
	v = v.Visit(node)
	if v == nil {
		return
	}

	switch n := node.(type) {
	case *ast.ColumnRef, *ast.Star, *ast.Literal, *ast.ParameterRef:
		// leaves

	case *ast.FunctionCall:
		for _, a := range n.Args {
			Walk(v, a)
		}
		Walk(v, n.Filter)
		if n.Over != nil {
			walkWindowSpec(v, n.Over)
		}
		if n.WithinGroup != nil {
			Walk(v, n.WithinGroup)
		}
	case *ast.UnaryOp:
		Walk(v, n.Operand)
	case *ast.BinaryOp:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *ast.Between:
		Walk(v, n.Expr)
		Walk(v, n.Low)
		Walk(v, n.High)
	case *ast.In:
		Walk(v, n.Expr)
		for _, e := range n.List {
			Walk(v, e)
		}
		if n.Subquery != nil {
			Walk(v, n.Subquery)
		}
	case *ast.Like:
		Walk(v, n.Expr)
		Walk(v, n.Pattern)
		Walk(v, n.Escape)
	case *ast.Case:
		Walk(v, n.Operand)
		for _, w := range n.Whens {
			Walk(v, w.When)
			Walk(v, w.Then)
		}
		Walk(v, n.Else)
	case *ast.Cast:
		Walk(v, n.Expr)
	case *ast.ArrayConstructor:
		for _, e := range n.Elements {
			Walk(v, e)
		}
		if n.Subquery != nil {
			Walk(v, n.Subquery)
		}
	case *ast.RowConstructor:
		for _, e := range n.Elements {
			Walk(v, e)
		}
	case *ast.ParenExpr:
		Walk(v, n.Inner)
	case *ast.Subquery:
		Walk(v, n.Query)
	case *ast.WindowFunction:
		Walk(v, n.Call)

	case *ast.BaseTableRef:
		// leaf

	case *ast.SubquerySource:
		Walk(v, n.Query)
	case *ast.ValuesSource:
		for _, row := range n.Rows {
			for _, e := range row {
				Walk(v, e)
			}
		}
	case *ast.FunctionSource:
		Walk(v, n.Call)
	case *ast.Join:
		Walk(v, n.Left)
		Walk(v, n.Right)
		if n.ConditionKind == ast.JoinConditionOn {
			Walk(v, n.On)
		}

	case *ast.SelectClause:
		for _, e := range n.DistinctOn {
			Walk(v, e)
		}
		for _, item := range n.Items {
			if item.Star != nil {
				Walk(v, item.Star)
			} else {
				Walk(v, item.Expr)
			}
		}
	case *ast.FromClause:
		Walk(v, n.Item)
	case *ast.WhereClause:
		Walk(v, n.Condition)
	case *ast.GroupByClause:
		for _, e := range n.Items {
			Walk(v, e)
		}
		for _, set := range n.Sets {
			for _, e := range set {
				Walk(v, e)
			}
		}
	case *ast.HavingClause:
		Walk(v, n.Condition)
	case *ast.WindowClause:
		for _, w := range n.Windows {
			walkWindowSpec(v, w.Spec)
		}
	case *ast.OrderByClause:
		for _, item := range n.Items {
			Walk(v, item.Expr)
		}
	case *ast.LimitClause:
		Walk(v, n.Limit)
		Walk(v, n.Offset)
	case *ast.CTE:
		Walk(v, n.Body)
	case *ast.WithClause:
		for _, cte := range n.CTEs {
			Walk(v, cte)
		}

	case *ast.SimpleSelect:
		if n.With != nil {
			Walk(v, n.With)
		}
		Walk(v, n.Select)
		if n.From != nil {
			Walk(v, n.From)
		}
		if n.Where != nil {
			Walk(v, n.Where)
		}
		if n.GroupBy != nil {
			Walk(v, n.GroupBy)
		}
		if n.Having != nil {
			Walk(v, n.Having)
		}
		if n.Window != nil {
			Walk(v, n.Window)
		}
		if n.OrderBy != nil {
			Walk(v, n.OrderBy)
		}
		if n.Limit != nil {
			Walk(v, n.Limit)
		}
	case *ast.BinarySelect:
		Walk(v, n.Left)
		Walk(v, n.Right)
		if n.OrderBy != nil {
			Walk(v, n.OrderBy)
		}
		if n.Limit != nil {
			Walk(v, n.Limit)
		}
	case *ast.ValuesQuery:
		for _, row := range n.Rows {
			for _, e := range row {
				Walk(v, e)
			}
		}
		if n.OrderBy != nil {
			Walk(v, n.OrderBy)
		}
		if n.Limit != nil {
			Walk(v, n.Limit)
		}
	case *ast.Insert:
		if n.With != nil {
			Walk(v, n.With)
		}
		Walk(v, n.Table)
		for _, row := range n.ValuesRows {
			for _, e := range row {
				Walk(v, e)
			}
		}
		if n.Select != nil {
			Walk(v, n.Select)
		}
		if n.OnConflict != nil {
			for _, item := range n.OnConflict.SetItems {
				Walk(v, item.Value)
			}
			Walk(v, n.OnConflict.Where)
		}
		if n.Returning != nil {
			for _, item := range n.Returning.Items {
				if item.Star != nil {
					Walk(v, item.Star)
				} else {
					Walk(v, item.Expr)
				}
			}
		}
	case *ast.Update:
		if n.With != nil {
			Walk(v, n.With)
		}
		Walk(v, n.Table)
		for _, item := range n.SetItems {
			Walk(v, item.Value)
		}
		if n.From != nil {
			Walk(v, n.From)
		}
		if n.Where != nil {
			Walk(v, n.Where)
		}
		if n.Returning != nil {
			for _, item := range n.Returning.Items {
				if item.Star != nil {
					Walk(v, item.Star)
				} else {
					Walk(v, item.Expr)
				}
			}
		}
	case *ast.Delete:
		if n.With != nil {
			Walk(v, n.With)
		}
		Walk(v, n.Table)
		if n.Using != nil {
			Walk(v, n.Using)
		}
		if n.Where != nil {
			Walk(v, n.Where)
		}
		if n.Returning != nil {
			for _, item := range n.Returning.Items {
				if item.Star != nil {
					Walk(v, item.Star)
				} else {
					Walk(v, item.Expr)
				}
			}
		}
	case *ast.Merge:
		Walk(v, n.Target)
		Walk(v, n.Using)
		Walk(v, n.On)
		for _, action := range n.Actions {
			Walk(v, action.Condition)
			for _, item := range action.SetItems {
				Walk(v, item.Value)
			}
			for _, e := range action.Values {
				Walk(v, e)
			}
		}
	case *ast.Explain:
		Walk(v, n.Stmt)
	case *ast.Truncate:
		// leaf
	}

	v.Visit(nil)
}

func walkWindowSpec(v Visitor, spec *ast.WindowSpec) {
	if spec == nil {
		return
	}
	for _, e := range spec.PartitionBy {
		Walk(v, e)
	}
	if spec.OrderBy != nil {
		Walk(v, spec.OrderBy)
	}
}
