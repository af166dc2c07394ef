package parser

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/lexer"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

// parser holds the mutable cursor state for a single Parse call. It is
// not reused across calls.
type parser struct {
	c *cursor
}

// Parse tokenizes and parses src into a single top-level ast.Statement.
// A trailing ";" is permitted and discarded; anything remaining after
// the statement (other than a lone ";") is a parse error.
func Parse(src string) (ast.Statement, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-tokenized stream (as produced by
// lexer.Tokenize), for callers that want to tokenize once and reuse the
// stream (e.g. to report both lex and parse diagnostics against the
// same positions).
func ParseTokens(toks []token.Token) (ast.Statement, error) {
	p := &parser{c: newCursor(toks)}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.c.isPunct(";") {
		p.c.advance()
	}
	if !p.c.atEOF() {
		return nil, p.c.errorf(sqlerrs.ErrUnexpectedToken, "end of input", p.c.describeCurrent())
	}
	return stmt, nil
}

// ParseExpr parses src as a single standalone value expression, for
// transformers that build injected predicates from a user-supplied
// expression fragment rather than a whole statement.
func ParseExpr(src string) (ast.Expr, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{c: newCursor(toks)}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.c.atEOF() {
		return nil, p.c.errorf(sqlerrs.ErrUnexpectedToken, "end of input", p.c.describeCurrent())
	}
	return e, nil
}
