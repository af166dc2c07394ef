package inject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
	"github.com/sqlxform/sqlxform/transform"
	"github.com/sqlxform/sqlxform/visitor"
)

// ParamInjectorOptions controls SqlParamInjector's tolerance and column
// resolution.
type ParamInjectorOptions struct {
	// IgnoreNonExistentColumns downgrades an unknown-column resolution
	// failure for one condition entry to a transform.Note instead of an
	// error; other entries still apply.
	IgnoreNonExistentColumns bool
	// AllowAllUndefined permits a Conditions map whose every entry is
	// Condition.IsUndefined(); without it that case is rejected outright
	// (a caller-side bug signal: nothing was actually going to change).
	AllowAllUndefined bool
	// Upstream pushes each condition into the producing query located
	// by scope.UpstreamProducers rather than the statement's own WHERE.
	Upstream bool
	// ResolveColumns supplies base-table column catalogs to the scope
	// resolver; nil is legal (base tables resolve optimistically, see
	// scope.Source.Columns).
	ResolveColumns scope.TableColumnResolver
}

// SqlParamInjector appends a WHERE predicate per entry of Conditions to
// the query (or, in upstream mode, queries) that expose the named
// column, AND-combining with whatever predicate is already present.
type SqlParamInjector struct {
	Conditions map[string]Condition
	Options    ParamInjectorOptions
}

// NewSqlParamInjector builds a SqlParamInjector over conditions.
func NewSqlParamInjector(conditions map[string]Condition, opts ParamInjectorOptions) *SqlParamInjector {
	return &SqlParamInjector{Conditions: conditions, Options: opts}
}

func (inj *SqlParamInjector) Name() string { return "SqlParamInjector" }

// Transform implements transform.Transformer.
func (inj *SqlParamInjector) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	if len(inj.Conditions) == 0 {
		return stmt, nil, nil
	}
	if AllUndefined(inj.Conditions) && !inj.Options.AllowAllUndefined {
		return nil, nil, &sqlerrs.TransformError{
			Message: "every injection condition is undefined",
			Err:     sqlerrs.ErrAllUndefinedParams,
		}
	}
	sel, ok := stmt.(*ast.SimpleSelect)
	if !ok {
		return nil, nil, &sqlerrs.TransformError{
			Message: "parameter injection requires a simple SELECT statement",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}

	bindings := sel.Bindings()
	if bindings == nil {
		bindings = ast.NewBindings()
	}

	var notes []transform.Note
	result := sel
	for _, col := range sortedColumns(inj.Conditions) {
		cond := inj.Conditions[col]
		if cond.IsUndefined() {
			notes = append(notes, transform.Note{Message: fmt.Sprintf("column %q: condition left undefined, skipped", col)})
			continue
		}

		var (
			next       *ast.SimpleSelect
			stageNotes []transform.Note
			err        error
		)
		if inj.Options.Upstream {
			next, stageNotes, err = inj.injectUpstream(result, col, cond, bindings)
		} else {
			next, stageNotes, err = inj.injectDirect(result, col, cond, bindings)
		}
		if err != nil {
			if errors.Is(err, sqlerrs.ErrUnknownColumn) && inj.Options.IgnoreNonExistentColumns {
				notes = append(notes, transform.Note{Message: fmt.Sprintf("column %q: %v, skipped", col, err)})
				continue
			}
			return nil, notes, err
		}
		result = next
		notes = append(notes, stageNotes...)
	}
	result.SetBindings(bindings)
	return result, notes, nil
}

func (inj *SqlParamInjector) injectDirect(sel *ast.SimpleSelect, col string, cond Condition, bindings *ast.Bindings) (*ast.SimpleSelect, []transform.Note, error) {
	withFrame, err := scope.PushWith(nil, sel.With)
	if err != nil {
		return nil, nil, err
	}
	frame := scope.PushFrom(withFrame, sel.From)

	resolve := func(colName string) (ast.Expr, error) {
		ref := columnRefFor(colName)
		src, err := scope.ResolveColumnRef(frame, ref, inj.Options.ResolveColumns)
		if err != nil {
			return nil, err
		}
		return ast.NewColumnRef(token.Span{}, nil, "", src.Alias, ref.Name), nil
	}

	ctx := &buildContext{resolve: resolve, bindings: bindings}
	pred, err := buildTopPredicate(ctx, col, cond)
	if err != nil {
		if errors.Is(err, sqlerrs.ErrUnknownColumn) {
			return nil, nil, err
		}
		return nil, nil, &sqlerrs.TransformError{Message: err.Error(), Err: sqlerrs.ErrInvalidInjectionSpec}
	}

	cp := *sel
	cp.Where = appendWhere(sel.Where, pred)
	return &cp, nil, nil
}

func (inj *SqlParamInjector) injectUpstream(sel *ast.SimpleSelect, col string, cond Condition, bindings *ast.Bindings) (*ast.SimpleSelect, []transform.Note, error) {
	withFrame, err := scope.PushWith(nil, sel.With)
	if err != nil {
		return nil, nil, err
	}
	frame := scope.PushFrom(withFrame, sel.From)

	producers := scope.UpstreamProducers(frame, sel, col)
	if len(producers) == 0 {
		return nil, nil, &sqlerrs.ResolutionError{
			Message: fmt.Sprintf("no upstream producer exposes column %q", col),
			Err:     sqlerrs.ErrUnknownColumn,
		}
	}

	result := ast.Statement(sel)
	for _, producer := range producers {
		rewritten, err := injectIntoProducer(producer, col, cond, bindings)
		if err != nil {
			return nil, nil, err
		}
		result = replaceStatement(result, producer, rewritten)
	}
	return result.(*ast.SimpleSelect), nil, nil
}

func injectIntoProducer(producer ast.Statement, col string, cond Condition, bindings *ast.Bindings) (ast.Statement, error) {
	sel, ok := producer.(*ast.SimpleSelect)
	if !ok {
		return nil, &sqlerrs.TransformError{
			Message: "upstream producer is not a simple SELECT",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}

	resolve := func(colName string) (ast.Expr, error) {
		expr := definingExpr(sel, colName)
		if expr == nil {
			return nil, &sqlerrs.ResolutionError{
				Message: fmt.Sprintf("upstream producer does not expose column %q", colName),
				Err:     sqlerrs.ErrUnknownColumn,
			}
		}
		return expr, nil
	}

	ctx := &buildContext{resolve: resolve, bindings: bindings}
	pred, err := buildTopPredicate(ctx, col, cond)
	if err != nil {
		if errors.Is(err, sqlerrs.ErrUnknownColumn) {
			return nil, err
		}
		return nil, &sqlerrs.TransformError{Message: err.Error(), Err: sqlerrs.ErrInvalidInjectionSpec}
	}
	cp := *sel
	cp.Where = appendWhere(sel.Where, pred)
	return &cp, nil
}

// definingExpr returns the expression sel's own projection uses to
// compute col - its alias target if col matches an alias, or the
// expression behind an unaliased plain column reference named col.
func definingExpr(sel *ast.SimpleSelect, col string) ast.Expr {
	if sel.Select == nil {
		return nil
	}
	for _, item := range sel.Select.Items {
		if item.Star != nil {
			continue
		}
		if item.Alias != "" {
			if strings.EqualFold(item.Alias, col) {
				return item.Expr
			}
			continue
		}
		if cref, ok := item.Expr.(*ast.ColumnRef); ok && strings.EqualFold(cref.Name, col) {
			return item.Expr
		}
	}
	return nil
}

func columnRefFor(col string) *ast.ColumnRef {
	if i := strings.LastIndex(col, "."); i >= 0 {
		return ast.NewColumnRef(token.Span{}, nil, "", col[:i], col[i+1:])
	}
	return ast.NewColumnRef(token.Span{}, nil, "", "", col)
}

func appendWhere(where *ast.WhereClause, pred ast.Expr) *ast.WhereClause {
	if where == nil {
		return ast.NewWhereClause(pred.Span(), nil, pred)
	}
	combined := ast.NewBinaryOp(pred.Span(), nil, "AND", where.Condition, pred)
	return ast.NewWhereClause(where.Span(), where.Comments(), combined)
}

// replaceStatement rebuilds root with every occurrence of old (matched
// by pointer identity) replaced by replacement - used to splice a
// rewritten CTE body or subquery back into the tree it came from.
func replaceStatement(root ast.Statement, old, replacement ast.Statement) ast.Statement {
	r := visitor.RewriterFunc(func(n ast.Node) (ast.Node, bool) {
		if s, ok := n.(ast.Statement); ok && s == old {
			return replacement, false
		}
		return n, true
	})
	return visitor.Rewrite(r, root).(ast.Statement)
}
