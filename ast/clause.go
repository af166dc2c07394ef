package ast

import "github.com/sqlxform/sqlxform/token"

// Clause is implemented by every clause node (SELECT/FROM/WHERE/...).
type Clause interface {
	Node
	clauseNode()
}

type clauseBase struct{ base }

func (clauseBase) clauseNode() {}

// SelectItem is one projection item: an expression plus optional alias,
// or a wildcard (Star != nil).
type SelectItem struct {
	Star  *Star
	Expr  Expr
	Alias string
}

// SelectClause is the SELECT list plus DISTINCT / DISTINCT ON modifiers.
type SelectClause struct {
	clauseBase
	Distinct       bool
	DistinctOn     []Expr
	Items          []SelectItem
}

func (*SelectClause) Type() NodeType { return NodeSelectClause }

// FromClause holds the (possibly join-combined) from-item tree.
type FromClause struct {
	clauseBase
	Item FromItem
}

func (*FromClause) Type() NodeType { return NodeFromClause }

// WhereClause wraps the filter predicate.
type WhereClause struct {
	clauseBase
	Condition Expr
}

func (*WhereClause) Type() NodeType { return NodeWhereClause }

// GroupByKind distinguishes plain GROUP BY from its grouping-sets forms.
type GroupByKind int

const (
	GroupBySimple GroupByKind = iota
	GroupByRollup
	GroupByCube
	GroupBySets
)

// GroupByClause is GROUP BY exprs, or its ROLLUP/CUBE/GROUPING SETS forms.
// For the simple form, Items holds the expressions and Sets is nil.
type GroupByClause struct {
	clauseBase
	Kind  GroupByKind
	Items []Expr   // flat list for the simple form
	Sets  [][]Expr // one inner slice per grouping set, for ROLLUP/CUBE/SETS
}

func (*GroupByClause) Type() NodeType { return NodeGroupByClause }

// HavingClause wraps the post-aggregation filter predicate.
type HavingClause struct {
	clauseBase
	Condition Expr
}

func (*HavingClause) Type() NodeType { return NodeHavingClause }

// NamedWindow is one entry of a WINDOW clause: "name AS (spec)".
type NamedWindow struct {
	Name string
	Spec *WindowSpec
}

// WindowClause is the top-level WINDOW name AS (...), ... clause.
type WindowClause struct {
	clauseBase
	Windows []NamedWindow
}

func (*WindowClause) Type() NodeType { return NodeWindowClause }

// NullsPosition controls NULLS FIRST / NULLS LAST placement.
type NullsPosition int

const (
	NullsDefault NullsPosition = iota
	NullsFirst
	NullsLast
)

// SortDirection is ASC or DESC.
type SortDirection int

const (
	SortDefault SortDirection = iota
	Ascending
	Descending
)

// OrderByItem is one ORDER BY term.
type OrderByItem struct {
	Expr      Expr
	Direction SortDirection
	Nulls     NullsPosition
}

// OrderByClause is the ORDER BY term list.
type OrderByClause struct {
	clauseBase
	Items []OrderByItem
}

func (*OrderByClause) Type() NodeType { return NodeOrderByClause }

// LimitClause is LIMIT [count] [OFFSET offset] (or FETCH FIRST ... ROWS
// ONLY, normalized into the same shape by the parser).
type LimitClause struct {
	clauseBase
	Limit  Expr // nil if absent
	Offset Expr // nil if absent
}

func (*LimitClause) Type() NodeType { return NodeLimitClause }

// CTE is one named entry of a WITH block.
type CTE struct {
	clauseBase
	Name          string
	ColumnAliases []string
	Materialized  *bool // nil = unspecified, else true/false for MATERIALIZED / NOT MATERIALIZED
	Recursive     bool  // true when this entry uses the WITH block's RECURSIVE flag and self-references
	Body          Statement
}

func (*CTE) Type() NodeType { return NodeCTE }

// WithClause is the top-level WITH [RECURSIVE] cte, cte, ... block.
type WithClause struct {
	clauseBase
	Recursive bool
	CTEs      []*CTE
}

func (*WithClause) Type() NodeType { return NodeWithClause }

func NewSelectClause(span token.Span, comments []token.AttachedComment, distinct bool, distinctOn []Expr, items []SelectItem) *SelectClause {
	return &SelectClause{clauseBase: clauseBase{newBase(span, comments)}, Distinct: distinct, DistinctOn: distinctOn, Items: items}
}

func NewFromClause(span token.Span, comments []token.AttachedComment, item FromItem) *FromClause {
	return &FromClause{clauseBase: clauseBase{newBase(span, comments)}, Item: item}
}

func NewWhereClause(span token.Span, comments []token.AttachedComment, cond Expr) *WhereClause {
	return &WhereClause{clauseBase: clauseBase{newBase(span, comments)}, Condition: cond}
}

func NewGroupByClause(span token.Span, comments []token.AttachedComment, kind GroupByKind, items []Expr, sets [][]Expr) *GroupByClause {
	return &GroupByClause{clauseBase: clauseBase{newBase(span, comments)}, Kind: kind, Items: items, Sets: sets}
}

func NewHavingClause(span token.Span, comments []token.AttachedComment, cond Expr) *HavingClause {
	return &HavingClause{clauseBase: clauseBase{newBase(span, comments)}, Condition: cond}
}

func NewWindowClause(span token.Span, comments []token.AttachedComment, windows []NamedWindow) *WindowClause {
	return &WindowClause{clauseBase: clauseBase{newBase(span, comments)}, Windows: windows}
}

func NewOrderByClause(span token.Span, comments []token.AttachedComment, items []OrderByItem) *OrderByClause {
	return &OrderByClause{clauseBase: clauseBase{newBase(span, comments)}, Items: items}
}

func NewLimitClause(span token.Span, comments []token.AttachedComment, limit, offset Expr) *LimitClause {
	return &LimitClause{clauseBase: clauseBase{newBase(span, comments)}, Limit: limit, Offset: offset}
}

func NewCTE(span token.Span, comments []token.AttachedComment, name string, colAliases []string, materialized *bool, recursive bool, body Statement) *CTE {
	return &CTE{clauseBase: clauseBase{newBase(span, comments)}, Name: name, ColumnAliases: colAliases, Materialized: materialized, Recursive: recursive, Body: body}
}

func NewWithClause(span token.Span, comments []token.AttachedComment, recursive bool, ctes []*CTE) *WithClause {
	return &WithClause{clauseBase: clauseBase{newBase(span, comments)}, Recursive: recursive, CTEs: ctes}
}
