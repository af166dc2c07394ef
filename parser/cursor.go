// Package parser turns a token stream into a typed ast.Statement using
// hand-written recursive descent for statement/clause structure and a
// Pratt (operator-precedence) loop for value expressions, with
// parsercombinator sub-grammar for one bounded clause fragment (the
// ON CONFLICT target).
package parser

import (
	"fmt"

	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

// cursor walks a finalized (comment-attached, whitespace-free) token
// slice produced by lexer.Tokenize.
type cursor struct {
	toks []token.Token
	pos  int

	// anonParamSeq assigns a stable document-order index to each `?`
	// placeholder encountered, per spec.md's parameter numbering rule.
	anonParamSeq int
}

func newCursor(toks []token.Token) *cursor {
	return &cursor{toks: toks}
}

func (c *cursor) peek() token.Token {
	if c.pos >= len(c.toks) {
		return token.Token{Kind: token.EOF}
	}
	return c.toks[c.pos]
}

func (c *cursor) peekAt(offset int) token.Token {
	i := c.pos + offset
	if i >= len(c.toks) {
		return token.Token{Kind: token.EOF}
	}
	return c.toks[i]
}

func (c *cursor) advance() token.Token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *cursor) atEOF() bool { return c.peek().Kind == token.EOF }

// remaining returns up to n upcoming tokens as a plain slice, for
// handing to a bounded lookahead sub-grammar without consuming them.
func (c *cursor) remaining(n int) []token.Token {
	end := c.pos + n
	if end > len(c.toks) {
		end = len(c.toks)
	}
	if c.pos >= end {
		return nil
	}
	return c.toks[c.pos:end]
}

// isKeyword reports whether the current token is a keyword matching
// one of the given case-insensitive spellings.
func (c *cursor) isKeyword(words ...string) bool {
	t := c.peek()
	if t.Kind != token.Keyword {
		return false
	}
	return eqFoldAny(t.Text, words)
}

func (c *cursor) isKeywordAt(offset int, words ...string) bool {
	t := c.peekAt(offset)
	if t.Kind != token.Keyword {
		return false
	}
	return eqFoldAny(t.Text, words)
}

func eqFoldAny(s string, words []string) bool {
	for _, w := range words {
		if foldEq(s, w) {
			return true
		}
	}
	return false
}

func foldEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 32
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// isPunct reports whether the current token is punctuation matching text.
func (c *cursor) isPunct(text string) bool {
	t := c.peek()
	return t.Kind == token.Punctuation && t.Text == text
}

// isOp reports whether the current token is an operator matching text.
func (c *cursor) isOp(text string) bool {
	t := c.peek()
	return t.Kind == token.Operator && t.Text == text
}

// expectKeyword consumes the current token if it matches one of words,
// or returns a ParseError.
func (c *cursor) expectKeyword(words ...string) (token.Token, error) {
	if c.isKeyword(words...) {
		return c.advance(), nil
	}
	return token.Token{}, c.errorf(sqlerrs.ErrExpectedKeyword, joinWords(words), c.describeCurrent())
}

func (c *cursor) expectPunct(text string) (token.Token, error) {
	if c.isPunct(text) {
		return c.advance(), nil
	}
	return token.Token{}, c.errorf(sqlerrs.ErrUnexpectedToken, text, c.describeCurrent())
}

func (c *cursor) expectOp(text string) (token.Token, error) {
	if c.isOp(text) {
		return c.advance(), nil
	}
	return token.Token{}, c.errorf(sqlerrs.ErrUnexpectedToken, text, c.describeCurrent())
}

func (c *cursor) describeCurrent() string {
	t := c.peek()
	if t.Kind == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

func (c *cursor) errorf(sentinel error, expected, found string) error {
	return &sqlerrs.ParseError{
		Span:     c.peek().Span,
		Expected: expected,
		Found:    found,
		Err:      sentinel,
	}
}

func joinWords(words []string) string {
	if len(words) == 1 {
		return words[0]
	}
	out := words[0]
	for _, w := range words[1:] {
		out += "/" + w
	}
	return out
}

// nextAnonParamIndex returns the next document-order index for an
// anonymous "?" placeholder and advances the counter.
func (c *cursor) nextAnonParamIndex() int {
	idx := c.anonParamSeq
	c.anonParamSeq++
	return idx
}

// spanFrom builds a Span from a start position to the end of the token
// just consumed (i.e. the token before the cursor's current position).
func (c *cursor) spanFrom(start token.Position) token.Span {
	end := start
	if c.pos > 0 {
		end = c.toks[c.pos-1].Span.End
	}
	return token.Span{Start: start, End: end}
}

func leadingComments(t token.Token) []token.AttachedComment {
	return append([]token.AttachedComment{}, t.AttachedComments...)
}
