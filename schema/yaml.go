package schema

import (
	"gopkg.in/yaml.v3"
)

// tableDocument is one table entry of a catalog YAML document.
type tableDocument struct {
	Columns []string `yaml:"columns"`
}

// functionDocument is one function entry of a catalog YAML document,
// mirroring FunctionSignature's field names.
type functionDocument struct {
	MinArgs int `yaml:"min_args"`
	MaxArgs int `yaml:"max_args"`
}

// catalogDocument is the YAML shape LoadSchemaManager expects, the same
// "named map of definitions" style the teacher's own InterfaceSchema
// uses for its parameter catalog:
//
//	tables:
//	  users:
//	    columns: [id, name, email]
//	  orders:
//	    columns: [id, user_id, total]
//	functions:
//	  coalesce:
//	    min_args: 1
//	    max_args: -1
type catalogDocument struct {
	Tables    map[string]tableDocument    `yaml:"tables"`
	Functions map[string]functionDocument `yaml:"functions"`
}

// LoadSchemaManager parses data as a catalog YAML document and returns
// the SchemaManager it describes, so a caller can declare a table/
// column/function catalog alongside their SQL templates instead of
// building it up with repeated AddTable/AddFunction calls.
func LoadSchemaManager(data []byte) (*SchemaManager, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	mgr := NewSchemaManager()
	for name, table := range doc.Tables {
		mgr.AddTable(name, table.Columns...)
	}
	for name, fn := range doc.Functions {
		mgr.AddFunction(name, FunctionSignature{MinArgs: fn.MinArgs, MaxArgs: fn.MaxArgs})
	}
	return mgr, nil
}
