package cte

import (
	"fmt"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
)

// canonicalForm renders n's shape - its node kind and exported
// semantic fields - ignoring span and comment metadata, so two CTE
// bodies parsed from separate source spans but otherwise identical
// compare equal. Node kinds the collector doesn't expect inside a CTE
// body (window functions, lateral sources, array/row constructors, …)
// fall back to a type name plus pointer identity: two such nodes never
// canonicalize equal, which only means the collector treats them as
// differing bodies rather than deduplicating them - the same
// conservative default the column resolver uses for a catalog it can't
// fully verify.
func canonicalForm(n ast.Node) string {
	var b strings.Builder
	writeCanonical(&b, n)
	return b.String()
}

func sameBody(a, b ast.Statement) bool {
	return canonicalForm(a) == canonicalForm(b)
}

func writeCanonical(b *strings.Builder, n ast.Node) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch v := n.(type) {
	case *ast.SimpleSelect:
		b.WriteString("(select")
		writeField(b, "with", v.With)
		writeField(b, "select", v.Select)
		writeField(b, "from", v.From)
		writeField(b, "where", v.Where)
		writeField(b, "groupby", v.GroupBy)
		writeField(b, "having", v.Having)
		writeField(b, "orderby", v.OrderBy)
		writeField(b, "limit", v.Limit)
		b.WriteString(")")

	case *ast.BinarySelect:
		fmt.Fprintf(b, "(binary %s ", v.Operator)
		writeCanonical(b, v.Left)
		b.WriteString(" ")
		writeCanonical(b, v.Right)
		b.WriteString(")")

	case *ast.ValuesQuery:
		b.WriteString("(values")
		for _, row := range v.Rows {
			b.WriteString(" (")
			for _, e := range row {
				writeCanonical(b, e)
				b.WriteString(",")
			}
			b.WriteString(")")
		}
		b.WriteString(")")

	case *ast.WithClause:
		fmt.Fprintf(b, "(with recursive=%v", v.Recursive)
		for _, c := range v.CTEs {
			writeCanonical(b, c)
		}
		b.WriteString(")")

	case *ast.CTE:
		fmt.Fprintf(b, "(cte %s ", v.Name)
		writeCanonical(b, v.Body)
		b.WriteString(")")

	case *ast.SelectClause:
		fmt.Fprintf(b, "(items distinct=%v", v.Distinct)
		for _, item := range v.Items {
			b.WriteString(" (")
			if item.Star != nil {
				writeCanonical(b, item.Star)
			} else {
				writeCanonical(b, item.Expr)
			}
			fmt.Fprintf(b, " as %s)", item.Alias)
		}
		b.WriteString(")")

	case *ast.FromClause:
		b.WriteString("(from ")
		writeCanonical(b, v.Item)
		b.WriteString(")")

	case *ast.WhereClause:
		b.WriteString("(where ")
		writeCanonical(b, v.Condition)
		b.WriteString(")")

	case *ast.GroupByClause:
		b.WriteString("(groupby")
		for _, e := range v.Items {
			b.WriteString(" ")
			writeCanonical(b, e)
		}
		b.WriteString(")")

	case *ast.HavingClause:
		b.WriteString("(having ")
		writeCanonical(b, v.Condition)
		b.WriteString(")")

	case *ast.OrderByClause:
		b.WriteString("(orderby")
		for _, item := range v.Items {
			fmt.Fprintf(b, " (%s %v %v)", canonicalForm(item.Expr), item.Direction, item.Nulls)
		}
		b.WriteString(")")

	case *ast.LimitClause:
		b.WriteString("(limit ")
		writeCanonical(b, v.Limit)
		b.WriteString(" offset ")
		writeCanonical(b, v.Offset)
		b.WriteString(")")

	case *ast.BaseTableRef:
		fmt.Fprintf(b, "(table %s.%s as %s)", v.Schema, v.Name, v.Alias)

	case *ast.SubquerySource:
		fmt.Fprintf(b, "(subquery as %s lateral=%v ", v.Alias, v.Lateral)
		writeCanonical(b, v.Query)
		b.WriteString(")")

	case *ast.Join:
		fmt.Fprintf(b, "(join %v ", v.Kind)
		writeCanonical(b, v.Left)
		writeCanonical(b, v.Right)
		if v.ConditionKind == ast.JoinConditionOn {
			writeCanonical(b, v.On)
		}
		b.WriteString(")")

	case *ast.ColumnRef:
		fmt.Fprintf(b, "(col %s.%s.%s)", v.Schema, v.Table, v.Name)

	case *ast.Star:
		fmt.Fprintf(b, "(star %s)", v.Table)

	case *ast.Literal:
		fmt.Fprintf(b, "(lit %v %s)", v.Kind, v.Text)

	case *ast.ParameterRef:
		fmt.Fprintf(b, "(param %v %s)", v.Kind, v.Name)

	case *ast.BinaryOp:
		fmt.Fprintf(b, "(%s ", v.Op)
		writeCanonical(b, v.Left)
		b.WriteString(" ")
		writeCanonical(b, v.Right)
		b.WriteString(")")

	case *ast.UnaryOp:
		fmt.Fprintf(b, "(%s ", v.Op)
		writeCanonical(b, v.Operand)
		b.WriteString(")")

	case *ast.FunctionCall:
		if v.Over != nil {
			fmt.Fprintf(b, "(%T %p)", n, n)
			break
		}
		fmt.Fprintf(b, "(call %s", v.Name)
		for _, a := range v.Args {
			b.WriteString(" ")
			writeCanonical(b, a)
		}
		b.WriteString(")")

	case *ast.ParenExpr:
		b.WriteString("(")
		writeCanonical(b, v.Inner)
		b.WriteString(")")

	case *ast.Subquery:
		fmt.Fprintf(b, "(subq %v ", v.Kind)
		writeCanonical(b, v.Query)
		b.WriteString(")")

	default:
		fmt.Fprintf(b, "(%T %p)", n, n)
	}
}

func writeField(b *strings.Builder, name string, n ast.Node) {
	fmt.Fprintf(b, " %s=", name)
	if isNilNode(n) {
		b.WriteString("<nil>")
		return
	}
	writeCanonical(b, n)
}

// isNilNode reports whether n is a nil interface or a typed nil
// pointer stored in it - ast's optional clause fields (Where, GroupBy,
// …) are typed *X pointers assigned through an interface-typed
// parameter, so a plain `n == nil` check misses the typed-nil case.
func isNilNode(n ast.Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *ast.WithClause:
		return v == nil
	case *ast.SelectClause:
		return v == nil
	case *ast.FromClause:
		return v == nil
	case *ast.WhereClause:
		return v == nil
	case *ast.GroupByClause:
		return v == nil
	case *ast.HavingClause:
		return v == nil
	case *ast.OrderByClause:
		return v == nil
	case *ast.LimitClause:
		return v == nil
	default:
		return false
	}
}
