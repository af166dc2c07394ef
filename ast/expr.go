package ast

import (
	"github.com/shopspring/decimal"

	"github.com/sqlxform/sqlxform/token"
)

// Expr is the interface implemented by every value-expression node.
type Expr interface {
	Node
	exprNode()
}

type exprBase struct{ base }

func (exprBase) exprNode() {}

// ColumnRef is a (possibly table-qualified) column reference.
type ColumnRef struct {
	exprBase
	Table  string // optional qualifier; "" if unqualified
	Schema string // optional schema qualifier on Table, rare but legal
	Name   string
}

func NewColumnRef(span token.Span, comments []token.AttachedComment, schema, table, name string) *ColumnRef {
	return &ColumnRef{exprBase{newBase(span, comments)}, table, schema, name}
}

func (*ColumnRef) Type() NodeType { return NodeColumnRef }

// Star is a wildcard projection item: "*" or "table.*".
type Star struct {
	exprBase
	Table string // "" for bare "*"
}

func NewStar(span token.Span, comments []token.AttachedComment, table string) *Star {
	return &Star{exprBase{newBase(span, comments)}, table}
}

func (*Star) Type() NodeType { return NodeStar }

// LiteralKind distinguishes the literal subtypes the spec calls out.
type LiteralKind int

const (
	LiteralNumeric LiteralKind = iota
	LiteralString
	LiteralBoolean
	LiteralNull
	LiteralTyped // e.g. DATE '2024-01-01', INTERVAL '1 day'
)

// Literal is a constant value. Numeric literals retain both the verbatim
// source text and a parsed decimal.Decimal so downstream transformers
// never lose precision by round-tripping through float64.
type Literal struct {
	exprBase
	Kind       LiteralKind
	Text       string // verbatim source representation
	Decimal    decimal.Decimal
	HasDecimal bool
	BoolValue  bool
	TypeName   string // populated when Kind == LiteralTyped
}

func NewNumericLiteral(span token.Span, comments []token.AttachedComment, text string) (*Literal, bool) {
	d, err := decimal.NewFromString(text)
	lit := &Literal{exprBase: exprBase{newBase(span, comments)}, Kind: LiteralNumeric, Text: text}
	if err == nil {
		lit.Decimal = d
		lit.HasDecimal = true
	}
	return lit, err == nil
}

func NewStringLiteral(span token.Span, comments []token.AttachedComment, text string) *Literal {
	return &Literal{exprBase: exprBase{newBase(span, comments)}, Kind: LiteralString, Text: text}
}

func NewBooleanLiteral(span token.Span, comments []token.AttachedComment, v bool) *Literal {
	return &Literal{exprBase: exprBase{newBase(span, comments)}, Kind: LiteralBoolean, BoolValue: v}
}

func NewNullLiteral(span token.Span, comments []token.AttachedComment) *Literal {
	return &Literal{exprBase: exprBase{newBase(span, comments)}, Kind: LiteralNull}
}

func NewTypedLiteral(span token.Span, comments []token.AttachedComment, typeName, text string) *Literal {
	return &Literal{exprBase: exprBase{newBase(span, comments)}, Kind: LiteralTyped, TypeName: typeName, Text: text}
}

func (*Literal) Type() NodeType { return NodeLiteral }

// ParameterKind distinguishes the four placeholder spellings the
// tokenizer recognizes.
type ParameterKind int

const (
	ParamAnonymous ParameterKind = iota // ?
	ParamPositional                     // $N
	ParamNamed                          // :name or @name
)

// ParameterRef is a bind-parameter placeholder. Anonymous placeholders
// are assigned a stable Index in document order by the parser.
type ParameterRef struct {
	exprBase
	Kind  ParameterKind
	Name  string // populated for ParamNamed
	Index int    // populated for ParamPositional and ParamAnonymous
}

func NewParameterRef(span token.Span, comments []token.AttachedComment, kind ParameterKind, name string, index int) *ParameterRef {
	return &ParameterRef{exprBase{newBase(span, comments)}, kind, name, index}
}

func (*ParameterRef) Type() NodeType { return NodeParameterRef }

// FunctionCall is name(args...) with the optional DISTINCT / FILTER /
// OVER / WITHIN GROUP modifiers the spec requires.
type FunctionCall struct {
	exprBase
	Name         string
	Args         []Expr
	Distinct     bool
	Filter       Expr      // FILTER (WHERE <Filter>)
	Over         *WindowSpec // OVER (...) or OVER name; nil if not a window call
	WithinGroup  *OrderByClause
}

func NewFunctionCall(span token.Span, comments []token.AttachedComment, name string, args []Expr) *FunctionCall {
	return &FunctionCall{exprBase: exprBase{newBase(span, comments)}, Name: name, Args: args}
}

func (*FunctionCall) Type() NodeType { return NodeFunctionCall }

// UnaryOp is a prefix operator expression: -x, +x, NOT x.
type UnaryOp struct {
	exprBase
	Op      string
	Operand Expr
}

func NewUnaryOp(span token.Span, comments []token.AttachedComment, op string, operand Expr) *UnaryOp {
	return &UnaryOp{exprBase{newBase(span, comments)}, op, operand}
}

func (*UnaryOp) Type() NodeType { return NodeUnaryOp }

// BinaryOp covers every infix operator the Pratt loop recognizes,
// including the textual ones (AND, OR, LIKE, ILIKE, IS, IS DISTINCT FROM).
type BinaryOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func NewBinaryOp(span token.Span, comments []token.AttachedComment, op string, left, right Expr) *BinaryOp {
	return &BinaryOp{exprBase{newBase(span, comments)}, op, left, right}
}

func (*BinaryOp) Type() NodeType { return NodeBinaryOp }

// Between is "expr [NOT] BETWEEN low AND high".
type Between struct {
	exprBase
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*Between) Type() NodeType { return NodeBetween }

func NewBetween(span token.Span, comments []token.AttachedComment, expr Expr, not bool, low, high Expr) *Between {
	return &Between{exprBase: exprBase{newBase(span, comments)}, Expr: expr, Not: not, Low: low, High: high}
}

// In is "expr [NOT] IN (list)" or "expr [NOT] IN (subquery)".
type In struct {
	exprBase
	Expr     Expr
	Not      bool
	List     []Expr  // populated when Subquery is nil
	Subquery *Subquery
}

func (*In) Type() NodeType { return NodeIn }

func NewInList(span token.Span, comments []token.AttachedComment, expr Expr, not bool, list []Expr) *In {
	return &In{exprBase: exprBase{newBase(span, comments)}, Expr: expr, Not: not, List: list}
}

func NewInSubquery(span token.Span, comments []token.AttachedComment, expr Expr, not bool, sub *Subquery) *In {
	return &In{exprBase: exprBase{newBase(span, comments)}, Expr: expr, Not: not, Subquery: sub}
}

// Like is "expr [NOT] LIKE|ILIKE pattern [ESCAPE esc]".
type Like struct {
	exprBase
	Expr      Expr
	Not       bool
	CaseFold  bool // true for ILIKE
	Pattern   Expr
	Escape    Expr // optional
}

func (*Like) Type() NodeType { return NodeLike }

func NewLike(span token.Span, comments []token.AttachedComment, expr Expr, not, caseFold bool, pattern, escape Expr) *Like {
	return &Like{exprBase: exprBase{newBase(span, comments)}, Expr: expr, Not: not, CaseFold: caseFold, Pattern: pattern, Escape: escape}
}

// CaseWhen is one WHEN/THEN branch of a Case expression.
type CaseWhen struct {
	When Expr
	Then Expr
}

// Case is a CASE expression, searched (Operand == nil) or simple.
type Case struct {
	exprBase
	Operand Expr // non-nil for "simple" CASE operand WHEN ...
	Whens   []CaseWhen
	Else    Expr // optional
}

func (*Case) Type() NodeType { return NodeCase }

func NewCase(span token.Span, comments []token.AttachedComment, operand Expr, whens []CaseWhen, elseExpr Expr) *Case {
	return &Case{exprBase: exprBase{newBase(span, comments)}, Operand: operand, Whens: whens, Else: elseExpr}
}

// Cast is "CAST(expr AS type)" or the "expr::type" shorthand; both
// parse to the same node, the shorthand simply sets ShorthandSyntax.
type Cast struct {
	exprBase
	Expr            Expr
	TypeName        string
	ShorthandSyntax bool
}

func (*Cast) Type() NodeType { return NodeCast }

func NewCast(span token.Span, comments []token.AttachedComment, expr Expr, typeName string, shorthand bool) *Cast {
	return &Cast{exprBase: exprBase{newBase(span, comments)}, Expr: expr, TypeName: typeName, ShorthandSyntax: shorthand}
}

// ArrayConstructor is "ARRAY[elem, ...]" or "ARRAY(subquery)".
type ArrayConstructor struct {
	exprBase
	Elements []Expr
	Subquery *Subquery // populated instead of Elements for ARRAY(subquery)
}

func (*ArrayConstructor) Type() NodeType { return NodeArrayConstructor }

func NewArrayConstructor(span token.Span, comments []token.AttachedComment, elements []Expr, sub *Subquery) *ArrayConstructor {
	return &ArrayConstructor{exprBase: exprBase{newBase(span, comments)}, Elements: elements, Subquery: sub}
}

// RowConstructor is "ROW(expr, ...)" or the bare "(expr, expr, ...)" form.
type RowConstructor struct {
	exprBase
	Elements []Expr
}

func (*RowConstructor) Type() NodeType { return NodeRowConstructor }

func NewRowConstructor(span token.Span, comments []token.AttachedComment, elements []Expr) *RowConstructor {
	return &RowConstructor{exprBase: exprBase{newBase(span, comments)}, Elements: elements}
}

// ParenExpr is a parenthesized expression kept as its own node so the
// printer can decide whether to preserve or drop redundant parens.
type ParenExpr struct {
	exprBase
	Inner Expr
}

func NewParenExpr(span token.Span, comments []token.AttachedComment, inner Expr) *ParenExpr {
	return &ParenExpr{exprBase{newBase(span, comments)}, inner}
}

func (*ParenExpr) Type() NodeType { return NodeParenExpr }

// SubqueryKind distinguishes the three expression positions a subquery
// may appear in.
type SubqueryKind int

const (
	SubqueryScalar SubqueryKind = iota
	SubqueryExists
	SubqueryIn
)

// Subquery wraps a statement used where a value expression is expected.
type Subquery struct {
	exprBase
	Kind  SubqueryKind
	Query Statement
}

func (*Subquery) Type() NodeType { return NodeSubqueryExpr }

func NewSubquery(span token.Span, comments []token.AttachedComment, kind SubqueryKind, query Statement) *Subquery {
	return &Subquery{exprBase: exprBase{newBase(span, comments)}, Kind: kind, Query: query}
}

// FrameBoundKind enumerates ROWS/RANGE frame boundary forms.
type FrameBoundKind int

const (
	BoundUnboundedPreceding FrameBoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// FrameBound is one endpoint of a window frame clause.
type FrameBound struct {
	Kind   FrameBoundKind
	Offset Expr // populated for BoundPreceding / BoundFollowing
}

// FrameKind distinguishes ROWS / RANGE / GROUPS framing.
type FrameKind int

const (
	FrameRows FrameKind = iota
	FrameRange
	FrameGroups
)

// WindowFrame is the optional ROWS|RANGE BETWEEN ... AND ... clause.
type WindowFrame struct {
	Kind  FrameKind
	Start FrameBound
	End   *FrameBound // nil means a single-bound frame ("ROWS 3 PRECEDING")
}

// WindowSpec is the body of an OVER (...) clause, or a reference to a
// named window defined in the enclosing SELECT's WINDOW clause.
type WindowSpec struct {
	Name          string // populated when this is a bare "OVER name" reference
	BaseWindow    string // populated when the spec itself extends a named window
	PartitionBy   []Expr
	OrderBy       *OrderByClause
	Frame         *WindowFrame
}

// WindowFunction is an explicit window-function expression such as
// row_number() OVER (...). The parser represents every function call
// with an OVER clause as a FunctionCall with Over set; WindowFunction is
// a distinct node per spec.md's AST variant list for callers that build
// one directly to pattern-match window functions without inspecting Over.
type WindowFunction struct {
	exprBase
	Call *FunctionCall
}

func (*WindowFunction) Type() NodeType { return NodeWindowFunction }

func NewWindowFunction(span token.Span, comments []token.AttachedComment, call *FunctionCall) *WindowFunction {
	return &WindowFunction{exprBase: exprBase{newBase(span, comments)}, Call: call}
}
