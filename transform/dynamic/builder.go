// Package dynamic composes the individual inject transformers
// (SqlParamInjector, SqlSortInjector, SqlPaginationInjector) into one
// caller-facing builder - the shape spec.md's external-interface list
// names as DynamicQueryBuilder, alongside each narrower transformer it
// builds on.
package dynamic

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/scope"
	"github.com/sqlxform/sqlxform/transform"
	"github.com/sqlxform/sqlxform/transform/inject"
)

// Options configures which of the underlying stages DynamicQueryBuilder
// runs. A zero-valued field disables its stage: nil/empty Conditions
// and Sort maps skip param/sort injection, and a nil Pagination skips
// paging, so a builder can be handed only the pieces a given request
// actually supplies.
type Options struct {
	Conditions   map[string]inject.Condition
	ParamOptions inject.ParamInjectorOptions

	Sort           map[string]inject.SortSpec
	ReplaceSort    bool
	ResolveColumns scope.TableColumnResolver

	Pagination *inject.PaginationSpec
}

// DynamicQueryBuilder runs whichever of filtering, sorting, and
// pagination Options requests, in that fixed order, over one query -
// the same "stages over one context" shape transform.Pipeline gives
// a fixed transformer list, specialized here to stages a caller
// assembles per-request instead of per-deployment.
type DynamicQueryBuilder struct {
	Options Options
}

// NewDynamicQueryBuilder builds a DynamicQueryBuilder from opts.
func NewDynamicQueryBuilder(opts Options) *DynamicQueryBuilder {
	return &DynamicQueryBuilder{Options: opts}
}

func (b *DynamicQueryBuilder) Name() string { return "DynamicQueryBuilder" }

// Transform runs the configured stages in sequence, feeding each
// stage's output to the next and accumulating Notes, stopping at the
// first error exactly like transform.Pipeline.Run.
func (b *DynamicQueryBuilder) Transform(stmt ast.Statement) (ast.Statement, []transform.Note, error) {
	var notes []transform.Note
	opts := b.Options

	if len(opts.Conditions) > 0 {
		out, stageNotes, err := inject.NewSqlParamInjector(opts.Conditions, opts.ParamOptions).Transform(stmt)
		if err != nil {
			return nil, notes, err
		}
		stmt = out
		notes = append(notes, stageNotes...)
	}

	if len(opts.Sort) > 0 {
		out, stageNotes, err := inject.NewSqlSortInjector(opts.Sort, opts.ReplaceSort, opts.ResolveColumns).Transform(stmt)
		if err != nil {
			return nil, notes, err
		}
		stmt = out
		notes = append(notes, stageNotes...)
	}

	if opts.Pagination != nil {
		out, stageNotes, err := inject.NewSqlPaginationInjector(*opts.Pagination).Transform(stmt)
		if err != nil {
			return nil, notes, err
		}
		stmt = out
		notes = append(notes, stageNotes...)
	}

	return stmt, notes, nil
}
