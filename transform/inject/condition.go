// Package inject implements the parameter/predicate, sort, and
// pagination transformers described as "injectors": stages that add a
// WHERE predicate, extend ORDER BY, or attach LIMIT/OFFSET to an
// existing query without the caller hand-editing SQL text.
package inject

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
)

// ConditionKind tags which variant of Condition is populated. This is
// the closed tagged variant called for in place of a general embedded
// expression language: Scalar | Operator | Logical | Exists.
type ConditionKind int

const (
	ConditionScalar ConditionKind = iota
	ConditionOperator
	ConditionLogical
	ConditionExists
)

// Operator enumerates the comparison/membership operators a condition
// spec can name explicitly.
type Operator string

const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpLike      Operator = "like"
	OpILike     Operator = "ilike"
	OpIn        Operator = "in"
	OpAny       Operator = "any"
	OpMin       Operator = "min" // lower bound: column >= Value
	OpMax       Operator = "max" // upper bound: column <= Value
	OpExists    Operator = "exists"
	OpNotExists Operator = "notExists"
)

// LogicalKind distinguishes AND- from OR-combination of a Logical
// condition's Conditions.
type LogicalKind int

const (
	LogicalAnd LogicalKind = iota
	LogicalOr
)

// Condition is one column's condition-spec: a bare scalar (equality
// shorthand), an explicit operator plus value(s), a logical grouping of
// sibling conditions, or an EXISTS/NOT EXISTS correlated subquery.
// Undefined marks a condition whose value was never actually supplied
// by the caller (e.g. an optional template parameter the request left
// out) - SqlParamInjector skips it and records a transform.Note instead
// of treating it as present-but-nil.
type Condition struct {
	Kind      ConditionKind
	Undefined bool

	// Column overrides which source column this condition binds
	// against. Only meaningful as a member of a parent Logical's
	// Conditions - it lets one OR/AND group span more than one column
	// (e.g. "user_name ilike :x OR email ilike :y"). Left empty, a
	// member resolves against the parent's own map key like before.
	Column string

	Scalar any // Kind == ConditionScalar

	Operator Operator // Kind == ConditionOperator || ConditionExists
	Value    any      // single-value operators: =, !=, <, <=, >, >=, like, ilike, min, max, any
	Values   []any    // in

	Logical    LogicalKind // Kind == ConditionLogical
	Conditions []Condition

	Subquery ast.Statement // Kind == ConditionExists
}

// IsUndefined reports whether cond carries no usable value: either
// explicitly marked Undefined, or a Logical grouping whose every
// member is itself undefined.
func (cond Condition) IsUndefined() bool {
	if cond.Undefined {
		return true
	}
	if cond.Kind == ConditionLogical {
		for _, c := range cond.Conditions {
			if !c.IsUndefined() {
				return false
			}
		}
		return len(cond.Conditions) > 0
	}
	return false
}

// AllUndefined reports whether every condition in specs carries no
// usable value - the case SqlParamInjector rejects unless the caller
// set AllowAllUndefined.
func AllUndefined(specs map[string]Condition) bool {
	if len(specs) == 0 {
		return false
	}
	for _, cond := range specs {
		if !cond.IsUndefined() {
			return false
		}
	}
	return true
}

// sortedColumns returns specs' keys in a fixed order so repeated runs
// over the same map AND-combine conditions in the same sequence; Go's
// map iteration order is randomized and would otherwise make output
// SQL text nondeterministic across runs.
func sortedColumns(specs map[string]Condition) []string {
	cols := make([]string, 0, len(specs))
	for col := range specs {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// buildContext threads the pieces buildPredicate's family needs but
// that the fixed transform.Transformer interface has no room to carry:
// a way to resolve a column name to an expression (direct mode goes
// through scope, upstream mode through a producer's own projections),
// and the bindings table injected values accumulate into instead of
// being inlined as literals.
type buildContext struct {
	resolve  func(col string) (ast.Expr, error)
	bindings *ast.Bindings
}

// buildTopPredicate builds the predicate for one Conditions map entry.
// A top-level Logical condition defers column resolution entirely to
// its members (see buildLogicalPredicate) since its own key may not
// even name a real column - "name_or_email" in an OR group spanning
// user_name and email is a caller-chosen label, not a column.
func buildTopPredicate(ctx *buildContext, key string, cond Condition) (ast.Expr, error) {
	switch cond.Kind {
	case ConditionLogical:
		return buildLogicalPredicate(ctx, key, cond)
	case ConditionExists:
		return buildExistsPredicate(cond)
	default:
		colExpr, err := ctx.resolve(key)
		if err != nil {
			return nil, err
		}
		return buildPredicate(ctx, key, colExpr, cond)
	}
}

// buildPredicate constructs the boolean expression comparing colExpr
// (a resolved ColumnRef, or a producer's own defining expression in
// upstream mode) against cond. name is the placeholder base name bound
// values are recorded under.
func buildPredicate(ctx *buildContext, name string, colExpr ast.Expr, cond Condition) (ast.Expr, error) {
	colSpan := colExpr.Span()
	switch cond.Kind {
	case ConditionScalar:
		val, err := bindValue(colSpan, ctx.bindings, name, cond.Scalar)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(colSpan, nil, "=", colExpr, val), nil

	case ConditionOperator:
		return buildOperatorPredicate(ctx, name, colExpr, cond)

	case ConditionLogical:
		return buildLogicalPredicate(ctx, name, cond)

	case ConditionExists:
		return buildExistsPredicate(cond)

	default:
		return nil, fmt.Errorf("unrecognized condition kind %d", cond.Kind)
	}
}

func buildExistsPredicate(cond Condition) (ast.Expr, error) {
	if cond.Subquery == nil {
		return nil, fmt.Errorf("exists condition requires a subquery")
	}
	span := cond.Subquery.Span()
	existsExpr := ast.NewSubquery(span, nil, ast.SubqueryExists, cond.Subquery)
	if cond.Operator == OpNotExists {
		return ast.NewUnaryOp(span, nil, "NOT", existsExpr), nil
	}
	return existsExpr, nil
}

func buildOperatorPredicate(ctx *buildContext, name string, colExpr ast.Expr, cond Condition) (ast.Expr, error) {
	span := colExpr.Span()
	switch cond.Operator {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		val, err := bindValue(span, ctx.bindings, name, cond.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(span, nil, string(cond.Operator), colExpr, val), nil

	case OpMin:
		val, err := bindValue(span, ctx.bindings, name, cond.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(span, nil, ">=", colExpr, val), nil

	case OpMax:
		val, err := bindValue(span, ctx.bindings, name, cond.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(span, nil, "<=", colExpr, val), nil

	case OpLike, OpILike:
		pattern, err := bindValue(span, ctx.bindings, name, cond.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLike(span, nil, colExpr, false, cond.Operator == OpILike, pattern, nil), nil

	case OpIn:
		list, err := bindValueList(span, ctx.bindings, name, cond.Values)
		if err != nil {
			return nil, err
		}
		return ast.NewInList(span, nil, colExpr, false, list), nil

	case OpAny:
		val, err := bindValue(span, ctx.bindings, name, cond.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(span, nil, "= ANY", colExpr, val), nil

	default:
		return nil, fmt.Errorf("unsupported operator %q", cond.Operator)
	}
}

// buildLogicalPredicate AND/OR-combines cond.Conditions. Each member
// resolves against its own Column when set, falling back to key (the
// parent's map key, which usually does name a real column) otherwise -
// this is what lets one OR group span more than one source column.
// Placeholder names follow "<key>_<and|or>_<index>_<operator>" so a
// caller-visible params map disambiguates members sharing an operator.
func buildLogicalPredicate(ctx *buildContext, key string, cond Condition) (ast.Expr, error) {
	var combined ast.Expr
	op := "AND"
	word := "and"
	if cond.Logical == LogicalOr {
		op = "OR"
		word = "or"
	}
	idx := 0
	for _, sub := range cond.Conditions {
		if sub.IsUndefined() {
			continue
		}
		col := sub.Column
		if col == "" {
			col = key
		}
		colExpr, err := ctx.resolve(col)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s_%s_%d_%s", key, word, idx, operatorWord(sub))
		idx++
		part, err := buildPredicate(ctx, name, colExpr, sub)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = part
			continue
		}
		combined = ast.NewBinaryOp(colExpr.Span(), nil, op, combined, part)
	}
	if combined == nil {
		return nil, fmt.Errorf("logical condition has no defined members")
	}
	return combined, nil
}

// operatorWord names the operator word a Logical member's placeholder
// is suffixed with - "eq" for a bare scalar, the operator's own text
// otherwise.
func operatorWord(cond Condition) string {
	switch cond.Kind {
	case ConditionScalar:
		return "eq"
	case ConditionOperator:
		if cond.Operator == "" {
			return "eq"
		}
		return strings.ToLower(string(cond.Operator))
	case ConditionLogical:
		if cond.Logical == LogicalOr {
			return "or"
		}
		return "and"
	default:
		return "cond"
	}
}
