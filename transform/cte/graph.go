package cte

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/visitor"
)

// graph is the CTE reference graph described as "(node ∈ CTEs ∪
// {main}, edge = references)": edges[name] lists the CTE names that
// name's own body refers to via a base-table reference matching a
// known CTE. "main" is the reserved node name for the root statement
// itself.
const mainNode = "main"

type graph struct {
	defs  map[string]*ast.CTE
	edges map[string][]string
}

func buildGraph(defs []*ast.CTE, root ast.Statement) *graph {
	g := &graph{defs: make(map[string]*ast.CTE, len(defs)), edges: make(map[string][]string)}
	for _, def := range defs {
		g.defs[def.Name] = def
	}
	for _, def := range defs {
		g.edges[def.Name] = referencedCTEs(def.Body, g.defs)
	}
	g.edges[mainNode] = referencedCTEs(root, g.defs)
	return g
}

// referencedCTEs finds every ast.BaseTableRef under body whose Name
// matches a known CTE, case-insensitively (SQL identifier comparison
// is case-insensitive unless quoted, per the lexer's own rule), and
// stops descending into a nested WITH block's own CTE bodies - those
// references belong to that inner scope's node, not to body's.
func referencedCTEs(body ast.Statement, defs map[string]*ast.CTE) []string {
	seen := make(map[string]bool)
	var order []string
	visitor.Inspect(body, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.CTE:
			return false // don't descend into a nested WITH block's own CTE bodies
		case *ast.BaseTableRef:
			for name := range defs {
				if strings.EqualFold(name, v.Name) && !seen[name] {
					seen[name] = true
					order = append(order, name)
				}
			}
		}
		return true
	})
	sort.Strings(order)
	return order
}

// topoSort returns defs ordered so that every CTE appears after every
// CTE it depends on (a valid WITH-block emission order), detecting a
// cycle not sanctioned by a RECURSIVE self-reference.
func (g *graph) topoSort() ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.defs))
	var order []string
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &sqlerrs.TransformError{
				Message: fmt.Sprintf("CTE dependency cycle: %s -> %s", strings.Join(path, " -> "), name),
				Err:     sqlerrs.ErrNoAnchorInRecursive,
			}
		}
		color[name] = gray
		for _, dep := range g.edges[name] {
			if dep == name {
				def := g.defs[name]
				if def == nil || !def.Recursive {
					return &sqlerrs.TransformError{
						Message: fmt.Sprintf("CTE %q self-references without RECURSIVE", name),
						Err:     sqlerrs.ErrNoAnchorInRecursive,
					}
				}
				continue // sanctioned self-loop, not a topological-order violation
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(g.defs))
	for name := range g.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// levels computes each CTE's level via longest-path from a root (a CTE
// with no dependencies among the known set, or "main" itself): level 0
// is a root, and every other node's level is one more than the maximum
// level of anything it depends on.
func (g *graph) levels() (map[string]int, error) {
	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	lvl := make(map[string]int, len(order))
	for _, name := range order {
		best := -1
		for _, dep := range g.edges[name] {
			if dep == name {
				continue // recursive self-loop doesn't add depth
			}
			if lvl[dep] > best {
				best = lvl[dep]
			}
		}
		lvl[name] = best + 1
	}
	mainDeps := g.edges[mainNode]
	best := -1
	for _, dep := range mainDeps {
		if lvl[dep] > best {
			best = lvl[dep]
		}
	}
	lvl[mainNode] = best + 1
	return lvl, nil
}

// transitiveDeps returns every CTE name reachable from name (not
// including name itself), in dependency order (deepest first).
func (g *graph) transitiveDeps(name string) []string {
	seen := make(map[string]bool)
	var order []string
	var visit func(n string)
	visit = func(n string) {
		for _, dep := range g.edges[n] {
			if dep == n || seen[dep] {
				continue
			}
			visit(dep)
			if !seen[dep] {
				seen[dep] = true
				order = append(order, dep)
			}
		}
	}
	visit(name)
	return order
}
