package cte

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/transform"
)

// ExecutableCTE is one CTE's standalone, directly-runnable form: a
// SELECT that inlines every transitive dependency as its own fresh
// WITH block and selects the named CTE's body.
type ExecutableCTE struct {
	Name      string
	Statement ast.Statement
	// Recursive copies the CTE's RECURSIVE flag, which the parser sets
	// on every CTE of a WITH RECURSIVE block whether or not that CTE
	// references itself; its Statement still carries any
	// self-reference; it is not resolved away.
	Recursive bool
}

// ColumnTrace records which CTEs along a dependency search expose a
// target column by name.
type ColumnTrace struct {
	Column     string
	FoundIn    []string
	NotFoundIn []string
	SearchPath []string
}

// CTEQueryDecomposer builds per-CTE executable forms and column traces
// over the CTE dependency graph reachable from a statement. Transform
// itself is a read-only analysis (it returns stmt unchanged); Decompose
// and Trace expose the actual products.
type CTEQueryDecomposer struct{}

func NewCTEQueryDecomposer() *CTEQueryDecomposer { return &CTEQueryDecomposer{} }

func (d *CTEQueryDecomposer) Name() string { return "CTEQueryDecomposer" }

func (d *CTEQueryDecomposer) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	return stmt, nil, nil
}

// Decompose produces one ExecutableCTE per CTE reachable from stmt.
func (d *CTEQueryDecomposer) Decompose(stmt ast.Statement) ([]*ExecutableCTE, error) {
	collector := NewCTECollector()
	if _, _, err := collector.Transform(stmt); err != nil {
		return nil, err
	}
	g := buildGraph(collector.Defs, stmt)

	out := make([]*ExecutableCTE, 0, len(collector.Defs))
	for _, def := range collector.Defs {
		deps := g.transitiveDeps(def.Name)
		var withDefs []*ast.CTE
		for _, depName := range deps {
			withDefs = append(withDefs, g.defs[depName])
		}
		withDefs = append(withDefs, def)

		span := def.Span()
		with := ast.NewWithClause(span, nil, def.Recursive, withDefs)
		from := ast.NewFromClause(span, nil, ast.NewBaseTableRef(span, nil, "", def.Name, ""))
		starItem := ast.SelectItem{Star: ast.NewStar(span, nil, "")}
		sel := ast.NewSimpleSelect(span, nil)
		sel.With = with
		sel.Select = ast.NewSelectClause(span, nil, false, nil, []ast.SelectItem{starItem})
		sel.From = from

		out = append(out, &ExecutableCTE{Name: def.Name, Statement: sel, Recursive: def.Recursive})
	}
	return out, nil
}

// Trace searches for column starting at stmt's own main query and
// descending depth-first through its CTE dependencies (each node's
// dependencies visited in alphabetical name order), recording
// which CTEs expose it by name in their own projection.
func (d *CTEQueryDecomposer) Trace(stmt ast.Statement, column string) (*ColumnTrace, error) {
	collector := NewCTECollector()
	if _, _, err := collector.Transform(stmt); err != nil {
		return nil, err
	}
	g := buildGraph(collector.Defs, stmt)

	trace := &ColumnTrace{Column: column}
	visited := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		trace.SearchPath = append(trace.SearchPath, name)

		var body ast.Statement
		if name == mainNode {
			body = stmt
		} else if def, ok := g.defs[name]; ok {
			body = def.Body
		}
		if exposesColumn(body, column) {
			trace.FoundIn = append(trace.FoundIn, name)
		} else {
			trace.NotFoundIn = append(trace.NotFoundIn, name)
		}
		for _, dep := range g.edges[name] {
			if dep != name {
				visit(dep)
			}
		}
	}
	visit(mainNode)
	return trace, nil
}

func exposesColumn(stmt ast.Statement, column string) bool {
	for _, name := range scope.ProjectionColumns(stmt) {
		if strings.EqualFold(name, column) {
			return true
		}
	}
	return false
}
