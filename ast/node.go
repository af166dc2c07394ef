// Package ast defines the closed set of AST node variants produced by
// the parser: value expressions, from-items, clauses, and statements.
// Every node carries an optional comment set and source span; nodes are
// immutable once returned from the parser (see package doc in statement.go).
package ast

import "github.com/sqlxform/sqlxform/token"

// NodeType enumerates every concrete node variant. It exists mainly for
// fast type switches in the visitor framework and for diagnostics; the
// Go type itself remains the source of truth for shape.
type NodeType int

const (
	NodeColumnRef NodeType = iota
	NodeLiteral
	NodeParameterRef
	NodeFunctionCall
	NodeUnaryOp
	NodeBinaryOp
	NodeBetween
	NodeIn
	NodeLike
	NodeCase
	NodeCast
	NodeArrayConstructor
	NodeRowConstructor
	NodeParenExpr
	NodeSubqueryExpr
	NodeWindowFunction
	NodeStar

	NodeBaseTableRef
	NodeSubquerySource
	NodeValuesSource
	NodeFunctionSource
	NodeJoin

	NodeSelectClause
	NodeFromClause
	NodeWhereClause
	NodeGroupByClause
	NodeHavingClause
	NodeWindowClause
	NodeOrderByClause
	NodeLimitClause
	NodeWithClause
	NodeCTE

	NodeSimpleSelect
	NodeBinarySelect
	NodeValuesQuery
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeMerge
	NodeExplain
	NodeTruncate
)

var nodeTypeNames = map[NodeType]string{
	NodeColumnRef:        "ColumnRef",
	NodeLiteral:          "Literal",
	NodeParameterRef:     "ParameterRef",
	NodeFunctionCall:     "FunctionCall",
	NodeUnaryOp:          "UnaryOp",
	NodeBinaryOp:         "BinaryOp",
	NodeBetween:          "Between",
	NodeIn:               "In",
	NodeLike:             "Like",
	NodeCase:             "Case",
	NodeCast:             "Cast",
	NodeArrayConstructor: "ArrayConstructor",
	NodeRowConstructor:   "RowConstructor",
	NodeParenExpr:        "ParenExpr",
	NodeSubqueryExpr:     "SubqueryExpr",
	NodeWindowFunction:   "WindowFunction",
	NodeStar:             "Star",
	NodeBaseTableRef:     "BaseTableRef",
	NodeSubquerySource:   "SubquerySource",
	NodeValuesSource:     "ValuesSource",
	NodeFunctionSource:   "FunctionSource",
	NodeJoin:             "Join",
	NodeSelectClause:     "SelectClause",
	NodeFromClause:       "FromClause",
	NodeWhereClause:      "WhereClause",
	NodeGroupByClause:    "GroupByClause",
	NodeHavingClause:     "HavingClause",
	NodeWindowClause:     "WindowClause",
	NodeOrderByClause:    "OrderByClause",
	NodeLimitClause:      "LimitClause",
	NodeWithClause:       "WithClause",
	NodeCTE:              "CTE",
	NodeSimpleSelect:     "SimpleSelect",
	NodeBinarySelect:     "BinarySelect",
	NodeValuesQuery:      "ValuesQuery",
	NodeInsert:           "Insert",
	NodeUpdate:           "Update",
	NodeDelete:           "Delete",
	NodeMerge:            "Merge",
	NodeExplain:          "Explain",
	NodeTruncate:         "Truncate",
}

func (n NodeType) String() string {
	if s, ok := nodeTypeNames[n]; ok {
		return s
	}
	return "Unknown"
}

// Node is implemented by every AST variant.
type Node interface {
	Type() NodeType
	Span() token.Span
	Comments() []token.AttachedComment
}

// base is embedded by every node to provide the common fields and the
// trivial parts of the Node interface.
type base struct {
	span     token.Span
	comments []token.AttachedComment
}

func (b base) Span() token.Span                  { return b.span }
func (b base) Comments() []token.AttachedComment { return b.comments }

// SetSpanEnd extends a node's span to end at end. Statement constructors
// are called as an empty "shell" before their clause fields are known
// (the parser fills them in afterward), so the span passed at
// construction only covers the statement's opening keyword; the parser
// calls SetSpanEnd once the whole statement has been consumed.
func (b *base) SetSpanEnd(end token.Position) { b.span.End = end }

// newBase constructs the embeddable base record; it is the constructor
// every node constructor within the package uses.
func newBase(span token.Span, comments []token.AttachedComment) base {
	return base{span: span, comments: comments}
}
