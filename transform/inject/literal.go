package inject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
)

// bindValue validates value's type and records it under name in
// bindings, returning the named ParameterRef the printer will later
// render in its place. A value that already arrives as an ast.Expr
// (e.g. a caller-built function call or column reference used as the
// comparison target) passes through unparameterized instead - it is an
// expression, not a bound scalar.
func bindValue(span token.Span, bindings *ast.Bindings, name string, value any) (ast.Expr, error) {
	if expr, ok := value.(ast.Expr); ok {
		return expr, nil
	}
	if err := validateValue(value); err != nil {
		return nil, err
	}
	bindings.Set(name, value)
	return ast.NewParameterRef(span, nil, ast.ParamNamed, name, 0), nil
}

// validateValue rejects condition values of a type the printer has no
// rendering for. The numeric types int, int64 and float64 are accepted
// as-is (as is shopspring/decimal.Decimal); bindValue stores them verbatim rather
// than normalizing through the literal-text path, since the value
// never gets printed as inline SQL text anymore.
func validateValue(value any) error {
	switch value.(type) {
	case nil, string, bool, decimal.Decimal, int, int64, float64:
		return nil
	default:
		return fmt.Errorf("condition value of type %T is not supported", value)
	}
}

// bindValueList binds each of values under "name_0", "name_1", ... and
// returns the resulting ParameterRef list in the same order, for IN
// lists and similar multi-value operators.
func bindValueList(span token.Span, bindings *ast.Bindings, name string, values []any) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(values))
	for i, v := range values {
		ref, err := bindValue(span, bindings, fmt.Sprintf("%s_%d", name, i), v)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}
