// Package sqlerrs defines the error taxonomy shared by every layer of
// the toolkit: lexing, parsing, scope resolution, transformation, and
// printing each report their first failure as one of the typed errors
// below rather than a bare string.
package sqlerrs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sqlxform/sqlxform/token"
)

// Sentinel errors. Callers match with errors.Is; the concrete LexError /
// ParseError / ResolutionError / TransformError / PrintError carries the
// span and message detail.
var (
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrInvalidNumber       = errors.New("invalid numeric literal")
	ErrIllegalCharacter    = errors.New("illegal character")

	ErrUnexpectedToken     = errors.New("unexpected token")
	ErrExpectedKeyword     = errors.New("expected keyword")
	ErrChainedComparison   = errors.New("chained comparison")
	ErrInvalidLateralTarget = errors.New("LATERAL requires a subquery or function source")

	ErrAmbiguousColumn   = errors.New("ambiguous column reference")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnknownTable      = errors.New("unknown table")
	ErrDuplicateCTE      = errors.New("duplicate CTE name with differing body")

	ErrInvalidInjectionSpec  = errors.New("invalid injection specification")
	ErrConflictingLimit      = errors.New("query already has LIMIT or OFFSET")
	ErrUnknownFixture        = errors.New("unknown fixture table")
	ErrAllUndefinedParams    = errors.New("all injection parameters are undefined")
	ErrNoAnchorInRecursive   = errors.New("recursive CTE has no anchor term")
	ErrInvalidJSONMapping    = errors.New("invalid JSON entity mapping")

	ErrUnsupportedForPreset = errors.New("node unsupported for the selected preset")
)

// LexError reports a tokenizer failure.
type LexError struct {
	Pos     token.Position
	Message string
	Err     error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Message)
}

func (e *LexError) Unwrap() error { return e.Err }

// ParseError reports a parser failure: the token span it occurred at,
// what was expected, and what was actually found.
type ParseError struct {
	Span     token.Span
	Expected string
	Found    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("parse error at %s: found %s", e.Span, e.Found)
	}
	return fmt.Sprintf("parse error at %s: expected %s, found %s", e.Span, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError reports a scope-resolution failure: ambiguous or
// unknown columns, duplicate CTE names with differing bodies.
type ResolutionError struct {
	Span    token.Span
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error at %s: %s", e.Span, e.Message)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransformError reports a transformer failure: an invalid injection
// spec, conflicting LIMIT/OFFSET, an unknown fixture under a strict
// strategy, and similar.
type TransformError struct {
	Message string
	Err     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform error: %s", e.Message)
}

func (e *TransformError) Unwrap() error { return e.Err }

// PrintError reports a printer failure: a node the chosen preset cannot
// render.
type PrintError struct {
	Message string
	Err     error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("print error: %s", e.Message)
}

func (e *PrintError) Unwrap() error { return e.Err }

// Diagnostic is the common shape every typed error above can be reduced
// to for pretty-printing against the original source.
type Diagnostic struct {
	Span    token.Span
	Message string
}

// AsDiagnostic extracts a Diagnostic from a LexError, ParseError or
// ResolutionError anywhere in err's chain, or false for any other error
// (a TransformError or PrintError included).
func AsDiagnostic(err error) (Diagnostic, bool) {
	var lexErr *LexError
	var parseErr *ParseError
	var resErr *ResolutionError
	switch {
	case errors.As(err, &lexErr):
		return Diagnostic{Span: token.Span{Start: lexErr.Pos, End: lexErr.Pos}, Message: lexErr.Message}, true
	case errors.As(err, &parseErr):
		return Diagnostic{Span: parseErr.Span, Message: parseErr.Error()}, true
	case errors.As(err, &resErr):
		return Diagnostic{Span: resErr.Span, Message: resErr.Message}, true
	default:
		return Diagnostic{}, false
	}
}

// Pretty renders the diagnostic against source, underlining the offending
// span. When useColor is true the caret line is colorized with fatih/color;
// callers that format for a non-terminal sink pass false.
func (d Diagnostic) Pretty(w io.Writer, source string, useColor bool) {
	lines := strings.Split(source, "\n")
	lineIdx := d.Span.Start.Line - 1
	fmt.Fprintf(w, "%s\n", d.Message)
	if lineIdx < 0 || lineIdx >= len(lines) {
		return
	}
	line := lines[lineIdx]
	fmt.Fprintf(w, "  %s\n", line)
	caret := strings.Repeat(" ", max(0, d.Span.Start.Column-1)) + "^"
	if useColor {
		c := color.New(color.FgRed, color.Bold)
		fmt.Fprintf(w, "  %s\n", c.Sprint(caret))
	} else {
		fmt.Fprintf(w, "  %s\n", caret)
	}
}
