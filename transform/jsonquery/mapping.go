// Package jsonquery builds a PostgreSQL JSON-aggregating query from a
// flat SELECT plus a declarative entity mapping: a root entity and
// zero or more nested object/array relationships, each naming the
// columns that become its JSON keys.
package jsonquery

// RelationshipKind distinguishes a nested entity embedded as a single
// JSON object from one embedded as a JSON array.
type RelationshipKind int

const (
	RelationObject RelationshipKind = iota
	RelationArray
)

// ResultFormat controls the shape of the builder's final output.
type ResultFormat int

const (
	// ResultArray wraps every root row into one jsonb_agg, producing a
	// single row holding one JSON array column.
	ResultArray ResultFormat = iota
	// ResultSingle leaves the root rows as-is, each already carrying
	// its nested properties embedded; intended for a query expected to
	// produce exactly one root row.
	ResultSingle
)

// EntityMapping describes one level of the nesting tree: the column
// that uniquely identifies a row of this entity, the JSON keys it
// contributes, and any further nested entities keyed off it.
//
// ID and Columns are source-query column names (including a table
// qualifier when the flat query joins more than one table under that
// name). ParentID and PropertyName are unused on the root entity.
type EntityMapping struct {
	ID           string
	ParentID     string
	PropertyName string
	Relationship RelationshipKind
	Columns      map[string]string // JSON key -> source column name
	Children     []EntityMapping
}

// Mapping is the full spec the builder consumes: a root entity plus
// the caller's choice of result shape and empty-array placeholder.
type Mapping struct {
	Root         EntityMapping
	ResultFormat ResultFormat
	// EmptyResultLiteral is emitted, as raw SQL literal text, in place
	// of an array relationship that produced no rows - e.g. "'[]'" or
	// "null". Defaults to "'[]'::jsonb" when empty. Text that does not
	// parse as a SQL expression is emitted as a quoted string literal.
	EmptyResultLiteral string
}
