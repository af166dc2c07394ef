package ast

import "github.com/sqlxform/sqlxform/token"

// FromItem is implemented by every source that can appear in a FROM
// clause or as a JOIN operand: base tables, subqueries, VALUES, function
// calls, and joins of those.
type FromItem interface {
	Node
	fromItemNode()
}

type fromItemBase struct{ base }

func (fromItemBase) fromItemNode() {}

// BaseTableRef is a plain table reference, optionally schema-qualified
// and aliased.
type BaseTableRef struct {
	fromItemBase
	Schema        string
	Name          string
	Alias         string
	ColumnAliases []string
	Lateral       bool // always false for a base table; kept for symmetry with parser validation (LATERAL base table is a parse error, see parser)
}

func NewBaseTableRef(span token.Span, comments []token.AttachedComment, schema, name, alias string) *BaseTableRef {
	return &BaseTableRef{fromItemBase: fromItemBase{newBase(span, comments)}, Schema: schema, Name: name, Alias: alias}
}

func (*BaseTableRef) Type() NodeType { return NodeBaseTableRef }

// SubquerySource is a derived table: "(SELECT ...) AS alias(col, ...)".
type SubquerySource struct {
	fromItemBase
	Query         Statement
	Alias         string
	ColumnAliases []string
	Lateral       bool
}

func (*SubquerySource) Type() NodeType { return NodeSubquerySource }

func NewSubquerySource(span token.Span, comments []token.AttachedComment, query Statement, alias string, colAliases []string, lateral bool) *SubquerySource {
	return &SubquerySource{fromItemBase: fromItemBase{newBase(span, comments)}, Query: query, Alias: alias, ColumnAliases: colAliases, Lateral: lateral}
}

// ValuesSource is an inline VALUES list used as a FROM item.
type ValuesSource struct {
	fromItemBase
	Rows          [][]Expr
	Alias         string
	ColumnAliases []string
}

func (*ValuesSource) Type() NodeType { return NodeValuesSource }

func NewValuesSource(span token.Span, comments []token.AttachedComment, rows [][]Expr, alias string, colAliases []string) *ValuesSource {
	return &ValuesSource{fromItemBase: fromItemBase{newBase(span, comments)}, Rows: rows, Alias: alias, ColumnAliases: colAliases}
}

// FunctionSource is a set-returning function used as a FROM item, e.g.
// "generate_series(1, 10) AS g(n)" or a LATERAL function call.
type FunctionSource struct {
	fromItemBase
	Call          *FunctionCall
	Alias         string
	ColumnAliases []string
	Lateral       bool
}

func (*FunctionSource) Type() NodeType { return NodeFunctionSource }

func NewFunctionSource(span token.Span, comments []token.AttachedComment, call *FunctionCall, alias string, colAliases []string, lateral bool) *FunctionSource {
	return &FunctionSource{fromItemBase: fromItemBase{newBase(span, comments)}, Call: call, Alias: alias, ColumnAliases: colAliases, Lateral: lateral}
}

// JoinKind enumerates the join varieties the spec requires.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	case JoinCross:
		return "CROSS"
	default:
		return "UNKNOWN"
	}
}

// JoinConditionKind distinguishes the three ways a join may be qualified.
type JoinConditionKind int

const (
	JoinConditionOn JoinConditionKind = iota
	JoinConditionUsing
	JoinConditionNatural
)

// Join is a binary from-item: left JOIN right [ON ... | USING (...) | NATURAL].
type Join struct {
	fromItemBase
	Kind           JoinKind
	Left           FromItem
	Right          FromItem
	ConditionKind  JoinConditionKind
	On             Expr     // populated when ConditionKind == JoinConditionOn
	UsingColumns   []string // populated when ConditionKind == JoinConditionUsing
}

func (*Join) Type() NodeType { return NodeJoin }

func NewJoinOn(span token.Span, comments []token.AttachedComment, kind JoinKind, left, right FromItem, on Expr) *Join {
	return &Join{fromItemBase: fromItemBase{newBase(span, comments)}, Kind: kind, Left: left, Right: right, ConditionKind: JoinConditionOn, On: on}
}

func NewJoinUsing(span token.Span, comments []token.AttachedComment, kind JoinKind, left, right FromItem, cols []string) *Join {
	return &Join{fromItemBase: fromItemBase{newBase(span, comments)}, Kind: kind, Left: left, Right: right, ConditionKind: JoinConditionUsing, UsingColumns: cols}
}

func NewJoinNatural(span token.Span, comments []token.AttachedComment, kind JoinKind, left, right FromItem) *Join {
	return &Join{fromItemBase: fromItemBase{newBase(span, comments)}, Kind: kind, Left: left, Right: right, ConditionKind: JoinConditionNatural}
}

func NewCrossJoin(span token.Span, comments []token.AttachedComment, left, right FromItem) *Join {
	return &Join{fromItemBase: fromItemBase{newBase(span, comments)}, Kind: JoinCross, Left: left, Right: right}
}
