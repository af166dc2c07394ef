package inject

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform"
)

// PaginationSpec is a 1-based page request.
type PaginationSpec struct {
	Page     int
	PageSize int
	// MaxPageSize, when positive, rejects a PageSize above it rather
	// than silently clamping - a caller-visible limit, not a default.
	MaxPageSize int
}

// SqlPaginationInjector attaches LIMIT/OFFSET for one page of results.
// It refuses to run against a query that already carries LIMIT or
// OFFSET, since overwriting a caller's explicit limit silently would
// hide a real conflict rather than surface it.
type SqlPaginationInjector struct {
	Spec PaginationSpec
}

func NewSqlPaginationInjector(spec PaginationSpec) *SqlPaginationInjector {
	return &SqlPaginationInjector{Spec: spec}
}

func (inj *SqlPaginationInjector) Name() string { return "SqlPaginationInjector" }

func (inj *SqlPaginationInjector) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	spec := inj.Spec
	if spec.Page < 1 {
		return nil, nil, &sqlerrs.TransformError{
			Message: fmt.Sprintf("page must be >= 1, got %d", spec.Page),
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}
	if spec.PageSize < 1 {
		return nil, nil, &sqlerrs.TransformError{
			Message: fmt.Sprintf("pageSize must be >= 1, got %d", spec.PageSize),
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}
	if spec.MaxPageSize > 0 && spec.PageSize > spec.MaxPageSize {
		return nil, nil, &sqlerrs.TransformError{
			Message: fmt.Sprintf("pageSize %d exceeds maximum %d", spec.PageSize, spec.MaxPageSize),
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}

	existingLimit, existingOffset, span, err := limitOffsetOf(stmt)
	if err != nil {
		return nil, nil, err
	}
	if existingLimit != nil || existingOffset != nil {
		return nil, nil, &sqlerrs.TransformError{
			Message: "query already has LIMIT or OFFSET",
			Err:     sqlerrs.ErrConflictingLimit,
		}
	}

	limitLit, _ := ast.NewNumericLiteral(span, nil, decimal.NewFromInt(int64(spec.PageSize)).String())
	var offsetExpr ast.Expr
	if spec.Page > 1 {
		offset := int64(spec.Page-1) * int64(spec.PageSize)
		offsetLit, _ := ast.NewNumericLiteral(span, nil, decimal.NewFromInt(offset).String())
		offsetExpr = offsetLit
	}
	limitClause := ast.NewLimitClause(span, nil, limitLit, offsetExpr)

	return withLimitClause(stmt, limitClause)
}

func limitOffsetOf(stmt ast.Statement) (limit, offset ast.Expr, span token.Span, err error) {
	switch s := stmt.(type) {
	case *ast.SimpleSelect:
		if s.Limit != nil {
			return s.Limit.Limit, s.Limit.Offset, s.Span(), nil
		}
		return nil, nil, s.Span(), nil
	case *ast.BinarySelect:
		if s.Limit != nil {
			return s.Limit.Limit, s.Limit.Offset, s.Span(), nil
		}
		return nil, nil, s.Span(), nil
	case *ast.ValuesQuery:
		if s.Limit != nil {
			return s.Limit.Limit, s.Limit.Offset, s.Span(), nil
		}
		return nil, nil, s.Span(), nil
	default:
		return nil, nil, token.Span{}, &sqlerrs.TransformError{
			Message: "pagination injection requires a SELECT or VALUES query",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}
}

func withLimitClause(stmt ast.Statement, limit *ast.LimitClause) (ast.Statement, []transform.Note, error) {
	switch s := stmt.(type) {
	case *ast.SimpleSelect:
		cp := *s
		cp.Limit = limit
		return &cp, nil, nil
	case *ast.BinarySelect:
		cp := *s
		cp.Limit = limit
		return &cp, nil, nil
	case *ast.ValuesQuery:
		cp := *s
		cp.Limit = limit
		return &cp, nil, nil
	default:
		return nil, nil, &sqlerrs.TransformError{
			Message: "pagination injection requires a SELECT or VALUES query",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}
}
