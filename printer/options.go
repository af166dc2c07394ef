// Package printer renders an AST back to SQL text: a pure, deterministic
// AST -> { sql, params } function configurable by Options, with optional
// comment re-emission.
package printer

// Preset seeds identifier escaping and the parameter symbol/style with
// a target dialect's conventional defaults; any of those fields set
// explicitly (non-zero) on Options overrides what the preset chose.
type Preset int

const (
	PresetPostgres Preset = iota
	PresetMySQL
	PresetSQLServer
	PresetSQLite
)

// KeywordCase controls how keywords (SELECT, FROM, AND, ...) are cased.
type KeywordCase int

const (
	KeywordPreserve KeywordCase = iota
	KeywordUpper
	KeywordLower
)

// BreakStyle places a separator before its item, after its item, or not
// at all (everything stays on one line).
type BreakStyle int

const (
	BreakNone BreakStyle = iota
	BreakBefore
	BreakAfter
)

// ParameterStyle controls how a bind-parameter placeholder is rendered
// and how Params collects the values threaded through at emission time.
type ParameterStyle int

const (
	ParameterAnonymous ParameterStyle = iota // ?
	ParameterIndexed                         // $1, :1, @p1, depending on Symbol
	ParameterNamed                           // :name, @name
)

// WithClauseStyle controls how a WITH block's CTEs break across lines.
type WithClauseStyle int

const (
	WithInline     WithClauseStyle = iota // "WITH a AS (...), b AS (...)"
	WithNewline                           // one CTE's "name AS (" per line
	WithFullNewline                        // every CTE's body also indents onto its own lines
)

// IdentifierEscape is the start/end delimiter pair a preset or caller
// uses to quote an identifier that needs escaping.
type IdentifierEscape struct {
	Start string
	End   string
}

// Options configures Printer. The zero value is PresetPostgres with
// every one-line override left to its per-construct default (false,
// i.e. always broken out) and exportComment disabled.
type Options struct {
	Preset Preset

	IdentifierEscape IdentifierEscape
	ParameterSymbol  string
	ParameterStyle   ParameterStyle

	KeywordCase KeywordCase

	IndentSize int
	IndentChar byte
	Newline    string

	CommaBreak BreakStyle
	AndBreak   BreakStyle
	OrBreak    BreakStyle

	WithClauseStyle WithClauseStyle

	ParenthesesOneLine   bool
	BetweenOneLine       bool
	ValuesOneLine        bool
	JoinOneLine          bool
	CaseOneLine          bool
	SubqueryOneLine      bool
	InsertColumnsOneLine bool
	WhenOneLine          bool

	ExportComment bool
	CommentStyle  CommentStyle
}

// CommentStyle controls how a re-emitted comment is spelled.
type CommentStyle int

const (
	CommentBlock CommentStyle = iota // always /* ... */
	CommentLine                      // always -- ...
	CommentSmart                     // line comment mid-line, block comment when standing alone
)

// presetDefaults returns the seed values a preset contributes; Options
// fields the caller actually set (anything non-zero-value) are applied
// on top by resolve.
func presetDefaults(p Preset) Options {
	switch p {
	case PresetMySQL:
		return Options{
			IdentifierEscape: IdentifierEscape{Start: "`", End: "`"},
			ParameterSymbol:  "?",
			ParameterStyle:   ParameterAnonymous,
		}
	case PresetSQLServer:
		return Options{
			IdentifierEscape: IdentifierEscape{Start: "[", End: "]"},
			ParameterSymbol:  "@p",
			ParameterStyle:   ParameterIndexed,
		}
	case PresetSQLite:
		return Options{
			IdentifierEscape: IdentifierEscape{Start: `"`, End: `"`},
			ParameterSymbol:  "?",
			ParameterStyle:   ParameterIndexed,
		}
	default: // PresetPostgres
		return Options{
			IdentifierEscape: IdentifierEscape{Start: `"`, End: `"`},
			ParameterSymbol:  "$",
			ParameterStyle:   ParameterIndexed,
		}
	}
}

// resolve merges o over its preset's defaults and fills in the
// indentation/newline fields left at their zero value, so a caller
// building Options with a struct literal never has to repeat the common
// case explicitly.
func (o Options) resolve() Options {
	merged := presetDefaults(o.Preset)
	if o.IdentifierEscape != (IdentifierEscape{}) {
		merged.IdentifierEscape = o.IdentifierEscape
	}
	if o.ParameterSymbol != "" {
		merged.ParameterSymbol = o.ParameterSymbol
	}
	if o.ParameterStyle != ParameterAnonymous {
		merged.ParameterStyle = o.ParameterStyle
	}
	if merged.ParameterStyle == ParameterNamed && o.ParameterSymbol == "" {
		merged.ParameterSymbol = ":"
		if o.Preset == PresetSQLServer {
			merged.ParameterSymbol = "@"
		}
	}
	merged.Preset = o.Preset
	merged.KeywordCase = o.KeywordCase
	merged.CommaBreak = o.CommaBreak
	merged.AndBreak = o.AndBreak
	merged.OrBreak = o.OrBreak
	merged.WithClauseStyle = o.WithClauseStyle
	merged.ParenthesesOneLine = o.ParenthesesOneLine
	merged.BetweenOneLine = o.BetweenOneLine
	merged.ValuesOneLine = o.ValuesOneLine
	merged.JoinOneLine = o.JoinOneLine
	merged.CaseOneLine = o.CaseOneLine
	merged.SubqueryOneLine = o.SubqueryOneLine
	merged.InsertColumnsOneLine = o.InsertColumnsOneLine
	merged.WhenOneLine = o.WhenOneLine
	merged.ExportComment = o.ExportComment
	merged.CommentStyle = o.CommentStyle

	merged.IndentSize = o.IndentSize
	if merged.IndentSize == 0 {
		merged.IndentSize = 2
	}
	merged.IndentChar = o.IndentChar
	if merged.IndentChar == 0 {
		merged.IndentChar = ' '
	}
	merged.Newline = o.Newline
	if merged.Newline == "" {
		merged.Newline = "\n"
	}
	return merged
}
