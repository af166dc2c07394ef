// Package schema gives a caller a place to register a table/column/
// function catalog and check a statement against it before it ever
// reaches a live database - the same "ask the registry, don't ask the
// database" posture the teacher's own template validator uses against
// its declared parameter schema.
package schema

import (
	"strings"

	"github.com/sqlxform/sqlxform/scope"
)

// FunctionSignature records what SchemaValidator checks a known
// function call against. MinArgs/MaxArgs of -1 means "not checked" -
// callers only register the functions they actually want arity-checked.
type FunctionSignature struct {
	MinArgs int
	MaxArgs int // -1 for variadic/unbounded
}

// SchemaManager holds a caller-supplied table/column/function registry.
// It is the concrete TableColumnResolver the scope resolver and the
// transform/inject package's upstream search both consume, plus the
// catalog SchemaValidator checks column and function references
// against.
type SchemaManager struct {
	tables map[string][]string
	funcs  map[string]FunctionSignature
}

// NewSchemaManager returns an empty registry; callers build it up with
// AddTable and AddFunction before handing it to SchemaValidator or
// using Resolver() as a scope.TableColumnResolver.
func NewSchemaManager() *SchemaManager {
	return &SchemaManager{
		tables: make(map[string][]string),
		funcs:  make(map[string]FunctionSignature),
	}
}

// AddTable registers table with the given column names, replacing any
// prior registration under the same (case-folded) name. It returns the
// manager so calls can be chained while building a catalog.
func (m *SchemaManager) AddTable(table string, columns ...string) *SchemaManager {
	m.tables[strings.ToLower(table)] = append([]string(nil), columns...)
	return m
}

// AddFunction registers a function's argument-count bounds for
// SchemaValidator's best-effort arity check. A function never passed to
// AddFunction is assumed valid for any argument count - the validator
// only flags functions it was explicitly told the shape of.
func (m *SchemaManager) AddFunction(name string, sig FunctionSignature) *SchemaManager {
	m.funcs[strings.ToLower(name)] = sig
	return m
}

// HasTable reports whether table is registered.
func (m *SchemaManager) HasTable(table string) bool {
	_, ok := m.tables[strings.ToLower(table)]
	return ok
}

// Columns returns the registered column names for table, or nil if
// table isn't registered.
func (m *SchemaManager) Columns(table string) []string {
	return m.tables[strings.ToLower(table)]
}

// Function returns the registered signature for name, if any.
func (m *SchemaManager) Function(name string) (FunctionSignature, bool) {
	sig, ok := m.funcs[strings.ToLower(name)]
	return sig, ok
}

// Resolver adapts the manager's table catalog into a
// scope.TableColumnResolver, for direct use by the scope package or any
// transformer that accepts one (transform/inject's upstream producer
// search, for instance).
func (m *SchemaManager) Resolver() scope.TableColumnResolver {
	return func(table string) []string {
		return m.Columns(table)
	}
}
