package schema

import (
	"errors"
	"fmt"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform"
	"github.com/sqlxform/sqlxform/visitor"
)

// SchemaValidator checks every table reference, column reference, and
// (for functions the caller registered a signature for) function call
// in a statement against a SchemaManager's catalog. It never rewrites
// the tree: Transform returns stmt unchanged and surfaces every problem
// found as a transform.Note, since a schema mismatch is something a
// caller decides how to act on rather than something the core forces
// into a hard error.
type SchemaValidator struct {
	manager *SchemaManager
}

// NewSchemaValidator returns a validator checking against manager's catalog.
func NewSchemaValidator(manager *SchemaManager) *SchemaValidator {
	return &SchemaValidator{manager: manager}
}

func (v *SchemaValidator) Name() string { return "SchemaValidator" }

// Transform satisfies transform.Transformer so SchemaValidator composes
// into a transform.Pipeline alongside the rewriting transformers.
func (v *SchemaValidator) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	var notes []transform.Note
	for _, err := range v.Validate(stmt) {
		notes = append(notes, transform.Note{Span: err.Span, Message: err.Message})
	}
	return stmt, notes, nil
}

// Validate walks stmt - reusing the visitor package's traversal and the
// scope package's frame-pushing rather than re-implementing either -
// and returns every unknown table, unknown/ambiguous column, and
// arity-mismatched function call it finds. CTE bodies and FROM-clause
// subqueries are validated against the enclosing query's full frame
// rather than the narrower frame standard SQL scoping would give them:
// a deliberate over-permissive approximation, so this best-effort pass
// only ever under-reports, never flags a false positive.
func (v *SchemaValidator) Validate(stmt ast.Statement) []*sqlerrs.ResolutionError {
	var errs []*sqlerrs.ResolutionError
	root := &frameVisitor{validator: v, errs: &errs}
	visitor.Walk(root, stmt)
	return errs
}

// frameVisitor carries the scope.Frame in effect at the point it was
// handed down from the nearest enclosing statement that introduces one.
// Visiting a node that opens a new scope returns a frameVisitor wrapping
// the new frame for that subtree; every other node keeps checking
// against the frame it already has.
type frameVisitor struct {
	validator *SchemaValidator
	errs      *[]*sqlerrs.ResolutionError
	frame     *scope.Frame
}

func (fv *frameVisitor) report(err *sqlerrs.ResolutionError) {
	*fv.errs = append(*fv.errs, err)
}

func (fv *frameVisitor) reportAny(err error) {
	var resErr *sqlerrs.ResolutionError
	if errors.As(err, &resErr) {
		fv.report(resErr)
		return
	}
	fv.report(&sqlerrs.ResolutionError{Message: err.Error()})
}

func (fv *frameVisitor) child(frame *scope.Frame) *frameVisitor {
	return &frameVisitor{validator: fv.validator, errs: fv.errs, frame: frame}
}

func (fv *frameVisitor) checkTableName(name string, node ast.Node) {
	if name == "" || fv.validator.manager.HasTable(name) {
		return
	}
	fv.report(&sqlerrs.ResolutionError{
		Span:    node.Span(),
		Message: "unknown table \"" + name + "\"",
		Err:     sqlerrs.ErrUnknownTable,
	})
}

// checkLocalTables reports every FROM-introduced base table in frame
// (this level only) that is neither in the catalog nor a visible CTE.
func (fv *frameVisitor) checkLocalTables(frame *scope.Frame) {
	for _, src := range frame.Tables {
		if src.Kind != scope.SourceBaseTable {
			continue
		}
		if fv.validator.manager.HasTable(src.Name) {
			continue
		}
		if _, ok := frame.CTE(src.Name); ok {
			continue
		}
		fv.report(&sqlerrs.ResolutionError{
			Span:    src.Item.Span(),
			Message: "unknown table \"" + src.Name + "\"",
			Err:     sqlerrs.ErrUnknownTable,
		})
	}
}

func (fv *frameVisitor) checkFunctionArity(fn *ast.FunctionCall) {
	sig, ok := fv.validator.manager.Function(fn.Name)
	if !ok {
		return
	}
	n := len(fn.Args)
	if n >= sig.MinArgs && (sig.MaxArgs < 0 || n <= sig.MaxArgs) {
		return
	}
	bound := "unbounded"
	if sig.MaxArgs >= 0 {
		bound = fmt.Sprintf("%d", sig.MaxArgs)
	}
	fv.report(&sqlerrs.ResolutionError{
		Span:    fn.Span(),
		Message: fmt.Sprintf("function %q called with %d argument(s), expected between %d and %s", fn.Name, n, sig.MinArgs, bound),
	})
}

func (fv *frameVisitor) Visit(node ast.Node) visitor.Visitor {
	switch n := node.(type) {
	case nil:
		return nil

	case *ast.SimpleSelect:
		withFrame, err := scope.PushWith(fv.frame, n.With)
		if err != nil {
			fv.reportAny(err)
			withFrame = fv.frame
		}
		frame := scope.PushFrom(withFrame, n.From)
		fv.checkLocalTables(frame)
		return fv.child(frame)

	case *ast.Insert:
		if n.Table != nil {
			fv.checkTableName(n.Table.Name, n.Table)
		}
		withFrame, err := scope.PushWith(fv.frame, n.With)
		if err != nil {
			fv.reportAny(err)
			withFrame = fv.frame
		}
		return fv.child(withFrame)

	case *ast.Update:
		if n.Table != nil {
			fv.checkTableName(n.Table.Name, n.Table)
		}
		withFrame, err := scope.PushWith(fv.frame, n.With)
		if err != nil {
			fv.reportAny(err)
			withFrame = fv.frame
		}
		frame := scope.PushFrom(withFrame, &ast.FromClause{Item: n.Table})
		if n.From != nil {
			frame = scope.PushFrom(frame, n.From)
			fv.checkLocalTables(frame)
		}
		return fv.child(frame)

	case *ast.Delete:
		if n.Table != nil {
			fv.checkTableName(n.Table.Name, n.Table)
		}
		withFrame, err := scope.PushWith(fv.frame, n.With)
		if err != nil {
			fv.reportAny(err)
			withFrame = fv.frame
		}
		frame := scope.PushFrom(withFrame, &ast.FromClause{Item: n.Table})
		if n.Using != nil {
			frame = scope.PushFrom(frame, n.Using)
			fv.checkLocalTables(frame)
		}
		return fv.child(frame)

	case *ast.Merge:
		if n.Target != nil {
			fv.checkTableName(n.Target.Name, n.Target)
		}
		frame := scope.PushFrom(fv.frame, &ast.FromClause{Item: n.Target})
		if n.Using != nil {
			frame = scope.PushFrom(frame, &ast.FromClause{Item: n.Using})
			fv.checkLocalTables(frame)
		}
		return fv.child(frame)

	case *ast.Truncate:
		for _, t := range n.Tables {
			fv.checkTableName(t, n)
		}
		return nil

	case *ast.ColumnRef:
		if _, err := scope.ResolveColumnRef(fv.frame, n, fv.validator.manager.Resolver()); err != nil {
			fv.reportAny(err)
		}
		return nil

	case *ast.FunctionCall:
		fv.checkFunctionArity(n)
		return fv
	}
	return fv
}
