package parser

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/lexer"
	"github.com/sqlxform/sqlxform/token"
)

// ParseToPositionOptions configures position-bounded parsing.
type ParseToPositionOptions struct {
	// Offset is the caller-supplied byte offset into the source text -
	// typically an editor's cursor position - that parsing must not
	// read past. Zero means "the whole input", matching an ordinary
	// Parse call with recovery enabled.
	Offset int
	// MaxRecoveryAttempts bounds how many times the parser retries after
	// a failed parse before giving up. Zero uses a built-in default.
	MaxRecoveryAttempts int
}

// PartialParseResult is the outcome of a position-bounded parse: the
// statement recovered (if any), the last lexeme actually consumed, and
// whether parsing made it all the way to the caller's offset.
type PartialParseResult struct {
	// Stmt is the recovered statement, or nil if no usable prefix of the
	// input parsed at all.
	Stmt ast.Statement
	// LastToken is the last lexeme the parser successfully consumed
	// before stopping.
	LastToken token.Token
	// StoppedAtCursor is true when parsing reached Options.Offset
	// without needing to discard any trailing input; false when the
	// parser had to recover by trimming a malformed/incomplete tail.
	StoppedAtCursor bool
	// RecoveryAttempts counts how many trimming rounds recovery needed.
	RecoveryAttempts int
}

const defaultMaxRecoveryAttempts = 32

// ParseToPosition tokenizes src and parses it in position-bounded mode:
// tokens at or after Offset are never read, and a parse failure inside
// the bound is recovered from - per spec's "Error recovery" rule - by
// discarding the statement's unparsed tail one token at a time and
// retrying, rather than failing outright the way Parse does.
func ParseToPosition(src string, opts ParseToPositionOptions) (*PartialParseResult, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokensToPosition(toks, opts), nil
}

// ParseTokensToPosition is ParseToPosition over an already-tokenized
// stream, for callers (editors, language servers) that tokenize once
// and reuse the stream across repeated partial parses as the cursor
// moves.
func ParseTokensToPosition(toks []token.Token, opts ParseToPositionOptions) *PartialParseResult {
	maxAttempts := opts.MaxRecoveryAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxRecoveryAttempts
	}

	bound := len(toks)
	if opts.Offset > 0 {
		bound = tokensBeforeOffset(toks, opts.Offset)
	}

	attempts := 0
	for end := bound; end >= 0; end-- {
		window := toks[:end]
		p := &parser{c: newCursor(window)}
		stmt, err := p.parseStatement()
		if err == nil && acceptsTrailing(p.c) {
			return &PartialParseResult{
				Stmt:             stmt,
				LastToken:        lastSignificant(window),
				StoppedAtCursor:  end == bound,
				RecoveryAttempts: attempts,
			}
		}
		if end == 0 {
			break
		}
		attempts++
		if attempts > maxAttempts {
			break
		}
	}

	return &PartialParseResult{
		LastToken:        lastSignificant(toks[:bound]),
		StoppedAtCursor:  false,
		RecoveryAttempts: attempts,
	}
}

// tokensBeforeOffset returns how many leading tokens of toks start
// strictly before offset, so a token straddling the cursor (or starting
// after it) is excluded from the bounded window entirely.
func tokensBeforeOffset(toks []token.Token, offset int) int {
	for i, t := range toks {
		if t.Span.Start.Offset >= offset {
			return i
		}
	}
	return len(toks)
}

// acceptsTrailing mirrors ParseTokens' own tolerance for a single
// trailing ";", consuming it if present, then reports whether the
// cursor reached the end of its (possibly bounded) window.
func acceptsTrailing(c *cursor) bool {
	if c.isPunct(";") {
		c.advance()
	}
	return c.atEOF()
}

// lastSignificant returns the final non-EOF token of toks, or the zero
// Token (Kind: EOF) if toks is empty.
func lastSignificant(toks []token.Token) token.Token {
	if len(toks) == 0 {
		return token.Token{Kind: token.EOF}
	}
	return toks[len(toks)-1]
}
