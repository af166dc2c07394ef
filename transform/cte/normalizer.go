package cte

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform"
	"github.com/sqlxform/sqlxform/visitor"
)

// CTENormalizer hoists every CTE reachable from a statement - whether
// originally declared on the root, on a subquery, or on either side of
// a set operation - into one top-level WITH block on the root
// statement, in dependency order, and strips the now-empty WITH blocks
// it found them under. The root itself must be a SimpleSelect; any
// other root statement is rejected with a TransformError.
type CTENormalizer struct{}

func NewCTENormalizer() *CTENormalizer { return &CTENormalizer{} }

func (n *CTENormalizer) Name() string { return "CTENormalizer" }

func (n *CTENormalizer) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	discovery := NewCTECollector()
	if _, _, err := discovery.Transform(stmt); err != nil {
		return nil, nil, err
	}
	if len(discovery.Defs) == 0 {
		return stmt, nil, nil
	}

	// Fix up every cross-level shadow discovered above before doing
	// anything else, in one combined pass over the original tree:
	// renaming must happen against stmt itself, where every shadowed
	// definition's owner pointer is still valid. Applying renames one
	// at a time would invalidate that pointer identity after the first
	// splice, since rebuilding any path back to the root allocates
	// fresh copies of every node along it.
	renamed := applyRenames(stmt, discovery.Renames, discovery.Owners)

	// Re-collect over the renamed tree: every name is now unique, so
	// this pass produces the final, flattenable definition set.
	collector := NewCTECollector()
	if _, _, err := collector.Transform(renamed); err != nil {
		return nil, nil, err
	}

	g := buildGraph(collector.Defs, renamed)
	order, err := g.topoSort()
	if err != nil {
		return nil, nil, err
	}

	ordered := make([]*ast.CTE, 0, len(collector.Defs))
	recursive := false
	for _, name := range order {
		if name == mainNode {
			continue
		}
		def := g.defs[name]
		ordered = append(ordered, def)
		if def.Recursive {
			recursive = true
		}
	}

	stripped := stripInnerWithClauses(renamed)
	root, ok := stripped.(*ast.SimpleSelect)
	if !ok {
		return nil, nil, &sqlerrs.TransformError{
			Message: "CTE normalization requires a simple SELECT root statement",
			Err:     sqlerrs.ErrInvalidInjectionSpec,
		}
	}

	withSpan := root.Span()
	if root.With != nil {
		withSpan = root.With.Span()
	}
	cp := *root
	cp.With = ast.NewWithClause(withSpan, nil, recursive, ordered)
	return &cp, nil, nil
}

// stripInnerWithClauses removes every WITH block below the root -
// their CTEs have already been hoisted onto the root's own WithClause,
// so leaving the originals in place would duplicate the definitions.
func stripInnerWithClauses(stmt ast.Statement) ast.Statement {
	r := visitor.RewriterFunc(func(node ast.Node) (ast.Node, bool) {
		if sel, ok := node.(*ast.SimpleSelect); ok && sel != stmt && sel.With != nil {
			cp := *sel
			cp.With = nil
			return &cp, true
		}
		return node, true
	})
	return visitor.Rewrite(r, stmt).(ast.Statement)
}
