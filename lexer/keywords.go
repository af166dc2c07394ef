package lexer

// keywordSet is the reserved-word set the tokenizer uses to classify a
// WORD lexeme as token.Keyword rather than token.Identifier. It is a
// single strictest-union set across PostgreSQL/MySQL/SQL Server/SQLite,
// matching the teacher's dialect.go approach of one unified set rather
// than per-dialect keyword tables duplicated four times.
var keywordSet = buildKeywordSet()

func buildKeywordSet() map[string]bool {
	words := []string{
		"SELECT", "INSERT", "UPDATE", "DELETE", "MERGE", "FROM", "WHERE",
		"GROUP", "HAVING", "ORDER", "BY", "UNION", "INTERSECT", "EXCEPT",
		"ALL", "DISTINCT", "AS", "WITH", "RECURSIVE", "AND", "OR", "NOT",
		"IN", "EXISTS", "BETWEEN", "LIKE", "ILIKE", "IS", "NULL", "TRUE",
		"FALSE", "CASE", "WHEN", "THEN", "ELSE", "END", "CAST", "ARRAY",
		"ROW", "LATERAL", "JOIN", "INNER", "LEFT", "RIGHT", "FULL",
		"CROSS", "NATURAL", "ON", "USING", "OVER", "PARTITION", "WINDOW",
		"ROWS", "RANGE", "GROUPS", "UNBOUNDED", "PRECEDING", "FOLLOWING",
		"CURRENT", "FILTER", "WITHIN", "VALUES", "INTO", "SET", "DEFAULT",
		"RETURNING", "LIMIT", "OFFSET", "FETCH", "FIRST", "NEXT", "ONLY",
		"NULLS", "LAST", "ASC", "DESC", "CONFLICT", "DO", "NOTHING",
		"CONSTRAINT", "DISTINCT", "MATERIALIZED", "FOR", "SHARE", "NOWAIT",
		"SKIP", "LOCKED", "OF", "MATCHED", "TARGET", "TRUNCATE", "TABLE",
		"RESTART", "IDENTITY", "CASCADE", "EXPLAIN", "ANALYZE", "VERBOSE",
		"FORMAT", "ROLLUP", "CUBE", "GROUPING", "SETS", "ESCAPE", "ANY",
		"SOME", "SIMILAR", "GLOBAL", "LOCAL", "TEMPORARY", "TEMP",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsKeyword reports whether the upper-cased word w is a reserved keyword
// recognized by this tokenizer.
func IsKeyword(upperWord string) bool {
	return keywordSet[upperWord]
}
