// Package transform provides the shared scaffolding every AST→AST
// rewrite in this toolkit builds on: a common Transformer interface,
// a Note type for reporting a tolerated skip instead of logging it,
// and a Pipeline for running several transformers in sequence.
package transform

import (
	"fmt"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
)

// Transformer is one named, pure AST→AST rewrite stage. Transform must
// not mutate stmt; it returns a new tree (sharing untouched subtrees is
// fine, per the AST's immutability contract) plus any Notes recording
// a tolerated skip.
type Transformer interface {
	Name() string
	Transform(stmt ast.Statement) (ast.Statement, []Note, error)
}

// Note records why a transformer skipped or tolerated something it
// could otherwise have treated as an error - an unknown column passed
// under ignoreNonExistentColumns, an all-undefined parameter set
// passed under allowAllUndefined, and similar opt-in tolerances. The
// core has no logger (spec calls for pure, synchronous transforms), so
// a Note is the caller-visible substitute: it travels with the result
// instead of going to a global sink.
type Note struct {
	Span    token.Span
	Message string
}

func (n Note) String() string {
	if n.Span == (token.Span{}) {
		return n.Message
	}
	return fmt.Sprintf("%s: %s", n.Span, n.Message)
}

// Pipeline runs a fixed sequence of Transformers over one statement,
// feeding each stage's output to the next and accumulating Notes -
// the same "ordered stages over one context" shape as the teacher's
// own token-processing pipeline, adapted from a shared mutable
// processing context to an explicit AST value threaded stage to stage.
type Pipeline struct {
	stages []Transformer
}

// NewPipeline builds a Pipeline that runs stages in the given order.
func NewPipeline(stages ...Transformer) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order, stopping at the first error.
func (p *Pipeline) Run(stmt ast.Statement) (ast.Statement, []Note, error) {
	var notes []Note
	for _, stage := range p.stages {
		out, stageNotes, err := stage.Transform(stmt)
		if err != nil {
			return nil, notes, fmt.Errorf("transformer %s: %w", stage.Name(), err)
		}
		stmt = out
		notes = append(notes, stageNotes...)
	}
	return stmt, notes, nil
}
