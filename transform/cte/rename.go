package cte

import (
	"sort"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/visitor"
)

// applyRenames rewrites every cross-level shadow CTECollector
// discovered, in one combined pass over root: each shadowed
// definition's own Name field, and every BaseTableRef referencing it
// by the old name within its defining owner's subtree, are replaced by
// the collision-safe name the collector assigned it.
//
// When the same literal name is shadowed more than once at nested
// levels, a BaseTableRef reachable from more than one shadow's owner
// is resolved to the innermost (most specific) shadow: owners are
// processed outermost-first, so each inner owner's assignment
// overwrites the outer one for any reference the two scopes share,
// matching ordinary lexical shadowing.
func applyRenames(root ast.Statement, renames map[*ast.CTE]string, owners map[*ast.CTE]ast.Statement) ast.Statement {
	if len(renames) == 0 {
		return root
	}

	type renameOp struct {
		def     *ast.CTE
		newName string
		owner   ast.Statement
	}
	ops := make([]renameOp, 0, len(renames))
	for def, newName := range renames {
		ops = append(ops, renameOp{def: def, newName: newName, owner: owners[def]})
	}
	sort.Slice(ops, func(i, j int) bool {
		return containsStatement(ops[i].owner, ops[j].owner)
	})

	cteRenames := make(map[*ast.CTE]string, len(ops))
	baseTableRenames := make(map[*ast.BaseTableRef]string)
	for _, op := range ops {
		cteRenames[op.def] = op.newName
		visitor.Inspect(op.owner, func(n ast.Node) bool {
			if ref, ok := n.(*ast.BaseTableRef); ok && strings.EqualFold(ref.Name, op.def.Name) {
				baseTableRenames[ref] = op.newName
			}
			return true
		})
	}

	r := visitor.RewriterFunc(func(n ast.Node) (ast.Node, bool) {
		switch v := n.(type) {
		case *ast.CTE:
			if newName, ok := cteRenames[v]; ok {
				cp := *v
				cp.Name = newName
				return &cp, true
			}
		case *ast.BaseTableRef:
			if newName, ok := baseTableRenames[v]; ok {
				cp := *v
				cp.Name = newName
				return &cp, true
			}
		}
		return n, true
	})
	return visitor.Rewrite(r, root).(ast.Statement)
}

// containsStatement reports whether target is reachable, by pointer
// identity, within root's subtree (root included).
func containsStatement(root, target ast.Statement) bool {
	found := false
	visitor.Inspect(root, func(n ast.Node) bool {
		if found {
			return false
		}
		if s, ok := n.(ast.Statement); ok && s == target {
			found = true
			return false
		}
		return true
	})
	return found
}
