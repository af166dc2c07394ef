package parser

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

// precedence levels, lowest to highest, per spec.md §4.2. `::` cast and
// unary +/- bind tightest; OR loosest.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precComparison // = <> != < > <= >= LIKE ILIKE IN BETWEEN IS
	precConcat     // ||
	precAdditive   // + -
	precMultiplicative
	precExponent // ^ (right-associative)
	precUnary    // unary + -
	precCast     // :: (right-associative, binds tightest)
)

func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseExprPrec(precLowest)
}

// parseExprPrec implements the Pratt loop: parse one prefix term, then
// keep folding in infix/postfix operators whose precedence is >= min.
func (p *parser) parseExprPrec(min int) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		opText, prec, rightAssoc, ok := p.peekInfixOperator()
		if !ok || prec < min {
			return left, nil
		}

		nextMin := prec + 1
		if rightAssoc {
			nextMin = prec
		}

		left, err = p.parseInfix(left, opText, prec, nextMin)
		if err != nil {
			return nil, err
		}
	}
}

// peekInfixOperator reports the operator at the cursor (if any), its
// precedence, and whether it's right-associative. It does not consume.
func (p *parser) peekInfixOperator() (string, int, bool, bool) {
	c := p.c
	t := c.peek()

	switch t.Kind {
	case token.Operator:
		switch t.Text {
		case "::":
			return "::", precCast, true, true
		case "^":
			return "^", precExponent, true, true
		case "*", "/", "%":
			return t.Text, precMultiplicative, false, true
		case "+", "-":
			return t.Text, precAdditive, false, true
		case "||":
			return "||", precConcat, false, true
		case "=", "<>", "!=", "<", ">", "<=", ">=":
			return t.Text, precComparison, false, true
		}
		return "", 0, false, false
	case token.Keyword:
		switch {
		case c.isKeyword("OR"):
			return "OR", precOr, false, true
		case c.isKeyword("AND"):
			return "AND", precAnd, false, true
		case c.isKeyword("LIKE"), c.isKeyword("ILIKE"):
			return strings.ToUpper(t.Text), precComparison, false, true
		case c.isKeyword("NOT") && (c.isKeywordAt(1, "LIKE") || c.isKeywordAt(1, "ILIKE") || c.isKeywordAt(1, "IN") || c.isKeywordAt(1, "BETWEEN")):
			return "NOT " + strings.ToUpper(c.peekAt(1).Text), precComparison, false, true
		case c.isKeyword("IN"):
			return "IN", precComparison, false, true
		case c.isKeyword("BETWEEN"):
			return "BETWEEN", precComparison, false, true
		case c.isKeyword("IS"):
			return "IS", precComparison, false, true
		}
		return "", 0, false, false
	default:
		return "", 0, false, false
	}
}

// parseInfix consumes the operator already identified by
// peekInfixOperator and builds the resulting node. Chained comparisons
// (a = b = c) are rejected: after folding a comparison, encountering
// another comparison operator at the same precedence with no
// parenthesization is a parse error per spec.md's non-associative rule.
func (p *parser) parseInfix(left ast.Expr, opText string, prec, nextMin int) (ast.Expr, error) {
	c := p.c
	start := left.Span().Start

	switch {
	case opText == "::":
		c.advance()
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		return ast.NewCast(c.spanFrom(start), nil, left, typeName, true), nil

	case opText == "BETWEEN":
		return p.parseBetween(left, false, start)

	case opText == "NOT BETWEEN":
		c.advance() // NOT
		return p.parseBetween(left, true, start)

	case opText == "IN":
		return p.parseIn(left, false, start)

	case opText == "NOT IN":
		c.advance() // NOT
		return p.parseIn(left, true, start)

	case opText == "LIKE" || opText == "ILIKE":
		return p.parseLike(left, false, opText == "ILIKE", start)

	case opText == "NOT LIKE" || opText == "NOT ILIKE":
		c.advance() // NOT
		return p.parseLike(left, true, opText == "NOT ILIKE", start)

	case opText == "IS":
		return p.parseIsPredicate(left, start)

	case prec == precComparison:
		c.advance()
		right, err := p.parseExprPrec(nextMin)
		if err != nil {
			return nil, err
		}
		if err := p.rejectChainedComparison(); err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(c.spanFrom(start), nil, opText, left, right), nil

	default:
		c.advance()
		right, err := p.parseExprPrec(nextMin)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(c.spanFrom(start), nil, opText, left, right), nil
	}
}

// rejectChainedComparison enforces non-associativity of comparison
// operators: "a = b = c" must be written "a = (b = c)" or similar.
//
// It runs after the right operand of a comparison handled by parseInfix's
// generic comparison case has been parsed. That operand's parse stops
// before any operator of comparison precedence, so such an operator at
// the cursor here would chain onto the comparison just built; it is
// reported as ErrChainedComparison instead of being folded in by the
// Pratt loop.
func (p *parser) rejectChainedComparison() error {
	if _, prec, _, ok := p.peekInfixOperator(); ok && prec == precComparison {
		return p.c.errorf(sqlerrs.ErrChainedComparison, "end of comparison", p.c.describeCurrent())
	}
	return nil
}

func (p *parser) parseIsPredicate(left ast.Expr, start token.Position) (ast.Expr, error) {
	c := p.c
	c.advance() // IS
	not := false
	if c.isKeyword("NOT") {
		not = true
		c.advance()
	}
	switch {
	case c.isKeyword("NULL"):
		c.advance()
		lit := ast.NewNullLiteral(c.spanFrom(start), nil)
		return ast.NewBinaryOp(c.spanFrom(start), nil, isOpText(not, "NULL"), left, lit), nil
	case c.isKeyword("TRUE"):
		c.advance()
		lit := ast.NewBooleanLiteral(c.spanFrom(start), nil, true)
		return ast.NewBinaryOp(c.spanFrom(start), nil, isOpText(not, "TRUE"), left, lit), nil
	case c.isKeyword("FALSE"):
		c.advance()
		lit := ast.NewBooleanLiteral(c.spanFrom(start), nil, false)
		return ast.NewBinaryOp(c.spanFrom(start), nil, isOpText(not, "FALSE"), left, lit), nil
	case c.isKeyword("DISTINCT"):
		c.advance()
		if _, err := c.expectKeyword("FROM"); err != nil {
			return nil, err
		}
		right, err := p.parseExprPrec(precComparison + 1)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(c.spanFrom(start), nil, isOpText(not, "DISTINCT FROM"), left, right), nil
	default:
		return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "NULL/TRUE/FALSE/DISTINCT FROM", c.describeCurrent())
	}
}

func isOpText(not bool, rhs string) string {
	if not {
		return "IS NOT " + rhs
	}
	return "IS " + rhs
}

func (p *parser) parseBetween(left ast.Expr, not bool, start token.Position) (ast.Expr, error) {
	c := p.c
	c.advance() // BETWEEN
	low, err := p.parseExprPrec(precComparison + 1)
	if err != nil {
		return nil, err
	}
	if _, err := c.expectKeyword("AND"); err != nil {
		return nil, err
	}
	high, err := p.parseExprPrec(precComparison + 1)
	if err != nil {
		return nil, err
	}
	return ast.NewBetween(c.spanFrom(start), nil, left, not, low, high), nil
}

func (p *parser) parseIn(left ast.Expr, not bool, start token.Position) (ast.Expr, error) {
	c := p.c
	c.advance() // IN
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	if p.isSelectStart() || c.isKeyword("WITH") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		sub := ast.NewSubquery(c.spanFrom(start), nil, ast.SubqueryIn, stmt)
		return ast.NewInSubquery(c.spanFrom(start), nil, left, not, sub), nil
	}
	var list []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.NewInList(c.spanFrom(start), nil, left, not, list), nil
}

func (p *parser) parseLike(left ast.Expr, not, caseFold bool, start token.Position) (ast.Expr, error) {
	c := p.c
	c.advance() // LIKE/ILIKE
	pattern, err := p.parseExprPrec(precComparison + 1)
	if err != nil {
		return nil, err
	}
	var escape ast.Expr
	if c.isKeyword("ESCAPE") {
		c.advance()
		escape, err = p.parseExprPrec(precComparison + 1)
		if err != nil {
			return nil, err
		}
	}
	return ast.NewLike(c.spanFrom(start), nil, left, not, caseFold, pattern, escape), nil
}

// parsePrefix parses a unary-operator chain followed by a primary term.
func (p *parser) parsePrefix() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start

	switch {
	case c.isOp("-") || c.isOp("+"):
		op := c.advance().Text
		operand, err := p.parseExprPrec(precUnary)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(c.spanFrom(start), nil, op, operand), nil
	case c.isKeyword("NOT"):
		c.advance()
		operand, err := p.parseExprPrec(precNot)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(c.spanFrom(start), nil, "NOT", operand), nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	t := c.peek()

	switch {
	case t.Kind == token.NumericLiteral:
		c.advance()
		lit, ok := ast.NewNumericLiteral(c.spanFrom(start), leadingComments(t), t.Text)
		if !ok {
			return nil, &sqlerrs.ParseError{Span: t.Span, Found: t.Text, Err: sqlerrs.ErrInvalidInjectionSpec}
		}
		return lit, nil

	case t.Kind == token.StringLiteral:
		c.advance()
		return ast.NewStringLiteral(c.spanFrom(start), leadingComments(t), t.Text), nil

	case t.Kind == token.Parameter:
		return p.parseParameter()

	case c.isKeyword("NULL"):
		c.advance()
		return ast.NewNullLiteral(c.spanFrom(start), leadingComments(t)), nil

	case c.isKeyword("TRUE"):
		c.advance()
		return ast.NewBooleanLiteral(c.spanFrom(start), leadingComments(t), true), nil

	case c.isKeyword("FALSE"):
		c.advance()
		return ast.NewBooleanLiteral(c.spanFrom(start), leadingComments(t), false), nil

	case c.isKeyword("CASE"):
		return p.parseCase()

	case c.isKeyword("CAST"):
		return p.parseCastFunc()

	case c.isKeyword("ARRAY"):
		return p.parseArrayConstructor()

	case c.isKeyword("ROW"):
		return p.parseRowConstructor()

	case c.isKeyword("EXISTS"):
		return p.parseExistsSubquery()

	case c.isPunct("("):
		return p.parseParenOrRowOrSubquery()

	case t.Kind == token.QuotedIdentifier || t.Kind == token.Identifier || (t.Kind == token.Keyword && isBareWordAllowedAsIdentifier(t.Text)):
		return p.parseIdentifierLed()

	case t.Kind == token.Operator && t.Text == "*":
		c.advance()
		return ast.NewStar(c.spanFrom(start), leadingComments(t), ""), nil

	default:
		return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "expression", c.describeCurrent())
	}
}

// isBareWordAllowedAsIdentifier allows a short list of non-reserved
// words (that this tokenizer's unified keyword set still marks as
// keywords) to also be used as bare identifiers/function names, matching
// common PostgreSQL usage (e.g. CURRENT_DATE-style semi-reserved words).
// Kept deliberately small: genuinely reserved words stay reserved.
func isBareWordAllowedAsIdentifier(word string) bool {
	switch strings.ToUpper(word) {
	case "FORMAT", "TARGET", "TEMP":
		return true
	default:
		return false
	}
}

func (p *parser) parseParameter() (ast.Expr, error) {
	c := p.c
	t := c.advance()
	start := t.Span.Start
	switch t.Text[0] {
	case '?':
		idx := c.nextAnonParamIndex()
		return ast.NewParameterRef(c.spanFrom(start), leadingComments(t), ast.ParamAnonymous, "", idx), nil
	case '$':
		n := parsePositionalIndex(t.Text[1:])
		return ast.NewParameterRef(c.spanFrom(start), leadingComments(t), ast.ParamPositional, "", n), nil
	default: // ':' or '@'
		return ast.NewParameterRef(c.spanFrom(start), leadingComments(t), ast.ParamNamed, t.Text[1:], 0), nil
	}
}

func parsePositionalIndex(digits string) int {
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseIdentifierLed handles every expression that starts with a bare or
// quoted identifier: a column ref (possibly schema.table.col), a
// function call (with its DISTINCT/FILTER/OVER/WITHIN GROUP suffixes),
// or "table.*".
func (p *parser) parseIdentifierLed() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	first := c.advance()

	parts := []string{identName(first)}
	for c.isPunct(".") {
		c.advance()
		if c.isOp("*") {
			c.advance()
			table := strings.Join(parts, ".")
			return ast.NewStar(c.spanFrom(start), leadingComments(first), table), nil
		}
		nt := c.peek()
		if nt.Kind != token.Identifier && nt.Kind != token.QuotedIdentifier {
			return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "identifier", c.describeCurrent())
		}
		c.advance()
		parts = append(parts, identName(nt))
	}

	if c.isPunct("(") {
		return p.parseFunctionCallSuffix(parts, start, leadingComments(first))
	}

	switch len(parts) {
	case 1:
		return ast.NewColumnRef(c.spanFrom(start), leadingComments(first), "", "", parts[0]), nil
	case 2:
		return ast.NewColumnRef(c.spanFrom(start), leadingComments(first), "", parts[0], parts[1]), nil
	default:
		return ast.NewColumnRef(c.spanFrom(start), leadingComments(first), parts[0], parts[1], parts[2]), nil
	}
}

func identName(t token.Token) string {
	if t.Kind == token.QuotedIdentifier {
		unescaped := strings.ReplaceAll(t.Text[1:len(t.Text)-1], `""`, `"`)
		return unescaped
	}
	return t.Text
}

func (p *parser) parseFunctionCallSuffix(nameParts []string, start token.Position, comments []token.AttachedComment) (ast.Expr, error) {
	c := p.c
	name := strings.Join(nameParts, ".")
	c.advance() // '('

	distinct := false
	if c.isKeyword("DISTINCT") {
		distinct = true
		c.advance()
	} else if c.isKeyword("ALL") {
		c.advance()
	}

	var args []ast.Expr
	if c.isOp("*") {
		c.advance()
		args = []ast.Expr{ast.NewStar(c.spanFrom(start), nil, "")}
	} else if !c.isPunct(")") {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}

	call := ast.NewFunctionCall(c.spanFrom(start), comments, name, args)
	call.Distinct = distinct

	if c.isKeyword("WITHIN") {
		c.advance()
		if _, err := c.expectKeyword("GROUP"); err != nil {
			return nil, err
		}
		if _, err := c.expectPunct("("); err != nil {
			return nil, err
		}
		ob, err := p.parseOrderByItems()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		call.WithinGroup = ast.NewOrderByClause(c.spanFrom(start), nil, ob)
	}

	if c.isKeyword("FILTER") {
		c.advance()
		if _, err := c.expectPunct("("); err != nil {
			return nil, err
		}
		if _, err := c.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		call.Filter = cond
	}

	if c.isKeyword("OVER") {
		c.advance()
		spec, err := p.parseWindowSpecOrRef()
		if err != nil {
			return nil, err
		}
		call.Over = spec
		return call, nil
	}

	return call, nil
}

func (p *parser) parseCase() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // CASE

	var operand ast.Expr
	if !c.isKeyword("WHEN") {
		var err error
		operand, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	var whens []ast.CaseWhen
	for c.isKeyword("WHEN") {
		c.advance()
		when, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, ast.CaseWhen{When: when, Then: then})
	}

	var elseExpr ast.Expr
	if c.isKeyword("ELSE") {
		c.advance()
		var err error
		elseExpr, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := c.expectKeyword("END"); err != nil {
		return nil, err
	}

	return ast.NewCase(c.spanFrom(start), nil, operand, whens, elseExpr), nil
}

func (p *parser) parseCastFunc() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // CAST
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := c.expectKeyword("AS"); err != nil {
		return nil, err
	}
	typeName, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.NewCast(c.spanFrom(start), nil, inner, typeName, false), nil
}

// parseTypeName parses a (possibly multi-word, possibly parameterized)
// type name: INT, VARCHAR(255), DOUBLE PRECISION, TIMESTAMP WITH TIME ZONE.
func (p *parser) parseTypeName() (string, error) {
	c := p.c
	t := c.peek()
	if t.Kind != token.Identifier && t.Kind != token.Keyword {
		return "", c.errorf(sqlerrs.ErrUnexpectedToken, "type name", c.describeCurrent())
	}
	var sb strings.Builder
	sb.WriteString(c.advance().Text)

	for (c.peek().Kind == token.Identifier || c.peek().Kind == token.Keyword) && isTypeContinuationWord(c.peek().Text) {
		sb.WriteString(" ")
		sb.WriteString(c.advance().Text)
	}

	if c.isPunct("(") {
		sb.WriteString("(")
		c.advance()
		for {
			n := c.advance()
			sb.WriteString(n.Text)
			if c.isPunct(",") {
				sb.WriteString(", ")
				c.advance()
				continue
			}
			break
		}
		if _, err := c.expectPunct(")"); err != nil {
			return "", err
		}
		sb.WriteString(")")
	}

	if c.isOp("[") || c.isPunct("[") {
		c.advance()
		if _, err := c.expectPunct("]"); err != nil {
			return "", err
		}
		sb.WriteString("[]")
	}

	return sb.String(), nil
}

func isTypeContinuationWord(w string) bool {
	switch strings.ToUpper(w) {
	case "PRECISION", "VARYING", "WITH", "WITHOUT", "TIME", "ZONE":
		return true
	default:
		return false
	}
}

func (p *parser) parseArrayConstructor() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // ARRAY

	if c.isPunct("(") {
		c.advance()
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		sub := ast.NewSubquery(c.spanFrom(start), nil, ast.SubqueryScalar, stmt)
		return ast.NewArrayConstructor(c.spanFrom(start), nil, nil, sub), nil
	}

	if _, err := c.expectPunct("["); err != nil {
		return nil, err
	}
	var elements []ast.Expr
	if !c.isPunct("]") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, e)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
	}
	if _, err := c.expectPunct("]"); err != nil {
		return nil, err
	}
	return ast.NewArrayConstructor(c.spanFrom(start), nil, elements, nil), nil
}

func (p *parser) parseRowConstructor() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // ROW
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	var elements []ast.Expr
	if !c.isPunct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, e)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.NewRowConstructor(c.spanFrom(start), nil, elements), nil
}

func (p *parser) parseExistsSubquery() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // EXISTS
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.NewSubquery(c.spanFrom(start), nil, ast.SubqueryExists, stmt), nil
}

// parseParenOrRowOrSubquery disambiguates "(", which may open a
// parenthesized expression, a row-constructor tuple "(a, b)", or a
// scalar subquery "(SELECT ...)".
func (p *parser) parseParenOrRowOrSubquery() (ast.Expr, error) {
	c := p.c
	start := c.peek().Span.Start
	c.advance() // '('

	if p.isSelectStart() || c.isKeyword("WITH") || c.isKeyword("VALUES") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewSubquery(c.spanFrom(start), nil, ast.SubqueryScalar, stmt), nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if c.isPunct(",") {
		elements := []ast.Expr{first}
		for c.isPunct(",") {
			c.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, e)
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewRowConstructor(c.spanFrom(start), nil, elements), nil
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.NewParenExpr(c.spanFrom(start), nil, first), nil
}

// isSelectStart reports whether the cursor sits at the start of a
// SELECT-shaped query body (used to disambiguate parenthesized
// subqueries from tuples/grouping parens).
func (p *parser) isSelectStart() bool {
	return p.c.isKeyword("SELECT")
}
