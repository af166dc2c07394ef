// Package cte implements the CTE-chain transformers: a collector that
// harvests every WITH-block definition reachable from a query, a
// normalizer that hoists them into one top-level WITH block in
// dependency order, and a decomposer that produces a standalone,
// executable form of each CTE plus a column-trace search.
package cte

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/transform"
	"github.com/sqlxform/sqlxform/visitor"
)

// CTECollector walks a query, harvesting every CTE definition it finds
// in WITH blocks belonging to the root statement, any subquery, or
// either side of a UNION/INTERSECT/EXCEPT.
//
// Two CTEs sharing a name in the very same WITH block are always an
// error (sqlerrs.ErrDuplicateCTE), regardless of whether their bodies
// happen to match - that is the same-level rule spec.md §3.2 states.
// Across different levels the same name is allowed to shadow: an
// identical body is deduplicated to one entry, but a *different* body
// under a reused name cannot be hoisted as-is (flattening it into one
// WITH block would turn legal shadowing into a real same-level
// collision), so the later occurrence is recorded under a collision-
// safe renamed clone instead. CTENormalizer fixes up that occurrence's
// own references before it flattens everything into one block.
type CTECollector struct {
	// Defs holds the collected, hoistable CTE definitions: first-seen
	// bodies unchanged, later differently-bodied same-name occurrences
	// as a renamed clone.
	Defs []*ast.CTE
	// Renames maps an original *ast.CTE definition (as it still appears
	// in the tree) to the collision-safe name its hoisted clone uses.
	Renames map[*ast.CTE]string
	// Owners maps the same original definition to the statement whose
	// WITH block directly declares it - the scope within which its
	// references must be renamed to match.
	Owners map[*ast.CTE]ast.Statement

	byName      map[string]*ast.CTE
	byComposite map[string]*ast.CTE // name + canonical body -> def, for true duplicate-occurrence dedup
}

// NewCTECollector returns an empty collector ready for Transform.
func NewCTECollector() *CTECollector {
	return &CTECollector{
		Renames:     make(map[*ast.CTE]string),
		Owners:      make(map[*ast.CTE]ast.Statement),
		byName:      make(map[string]*ast.CTE),
		byComposite: make(map[string]*ast.CTE),
	}
}

func (c *CTECollector) Name() string { return "CTECollector" }

// Transform harvests CTEs reachable from stmt and returns stmt
// unchanged - collection is a read-only analysis, not a rewrite.
func (c *CTECollector) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	var stack []ast.Node
	var collectErr error
	visitor.Inspect(stmt, func(n ast.Node) bool {
		if n == nil {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			return true
		}
		if collectErr != nil {
			return false
		}
		if with, ok := n.(*ast.WithClause); ok {
			if err := c.addBlock(with.CTEs, nearestStatement(stack, stmt)); err != nil {
				collectErr = err
				return false
			}
		}
		stack = append(stack, n)
		return true
	})
	if collectErr != nil {
		return nil, nil, collectErr
	}
	return stmt, nil, nil
}

// nearestStatement finds the innermost ast.Statement on the traversal
// stack - the query whose WITH block is currently being processed.
func nearestStatement(stack []ast.Node, fallback ast.Statement) ast.Statement {
	for i := len(stack) - 1; i >= 0; i-- {
		if s, ok := stack[i].(ast.Statement); ok {
			return s
		}
	}
	return fallback
}

// addBlock processes every CTE of one WITH block together, so a
// same-level duplicate name is caught before any cross-level
// bookkeeping runs.
func (c *CTECollector) addBlock(ctes []*ast.CTE, owner ast.Statement) error {
	local := make(map[string]bool, len(ctes))
	for _, def := range ctes {
		if local[def.Name] {
			return &sqlerrs.ResolutionError{
				Span:    def.Span(),
				Message: fmt.Sprintf("CTE %q declared twice in the same WITH block", def.Name),
				Err:     sqlerrs.ErrDuplicateCTE,
			}
		}
		local[def.Name] = true
	}
	for _, def := range ctes {
		c.add(def, owner)
	}
	return nil
}

// add records one occurrence of a CTE definition. A name paired with
// the exact same body already collected is a duplicate occurrence of
// the same definition (e.g. an identical subquery repeated verbatim in
// two places) and is skipped outright. A name reused for a *different*
// body is cross-level shadowing: the occurrence is kept, but under a
// collision-safe renamed clone rather than its original name, since
// two distinctly-bodied definitions cannot both be hoisted under one
// name into a single flattened WITH block.
func (c *CTECollector) add(def *ast.CTE, owner ast.Statement) {
	composite := def.Name + "\x00" + canonicalForm(def.Body)
	if _, ok := c.byComposite[composite]; ok {
		return
	}
	if _, clash := c.byName[def.Name]; clash {
		newName := fmt.Sprintf("%s_%s", def.Name, uuid.New().String()[:8])
		renamed := ast.NewCTE(def.Span(), def.Comments(), newName, def.ColumnAliases, def.Materialized, def.Recursive, def.Body)
		c.Renames[def] = newName
		c.Owners[def] = owner
		c.byComposite[newName+"\x00"+canonicalForm(def.Body)] = renamed
		c.Defs = append(c.Defs, renamed)
		return
	}
	c.byName[def.Name] = def
	c.byComposite[composite] = def
	c.Defs = append(c.Defs, def)
}

// ByName returns the collected (possibly renamed) definition for name,
// if any.
func (c *CTECollector) ByName(name string) (*ast.CTE, bool) {
	def, ok := c.byName[name]
	return def, ok
}
