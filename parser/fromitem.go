package parser

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

func (p *parser) parseFromClause() (*ast.FromClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // FROM

	item, err := p.parseFromItem()
	if err != nil {
		return nil, err
	}
	for {
		joined, consumed, err := p.tryParseJoin(item)
		if err != nil {
			return nil, err
		}
		if !consumed {
			break
		}
		item = joined
	}
	return ast.NewFromClause(c.spanFrom(start), comments, item), nil
}

// tryParseJoin attempts to fold a trailing JOIN onto left. Returns
// consumed=false (no error) when the cursor isn't at a join keyword, so
// callers can loop until the FROM item chain is exhausted. A bare comma
// is treated as an implicit CROSS JOIN.
func (p *parser) tryParseJoin(left ast.FromItem) (ast.FromItem, bool, error) {
	c := p.c
	start := left.Span().Start

	if c.isPunct(",") {
		c.advance()
		right, err := p.parseFromItem()
		if err != nil {
			return nil, false, err
		}
		return ast.NewCrossJoin(c.spanFrom(start), nil, left, right), true, nil
	}

	kind, ok, err := p.peekJoinKind()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	right, err := p.parseFromItem()
	if err != nil {
		return nil, false, err
	}

	switch {
	case kind == ast.JoinCross:
		return ast.NewCrossJoin(c.spanFrom(start), nil, left, right), true, nil
	case c.isKeyword("ON"):
		c.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		return ast.NewJoinOn(c.spanFrom(start), nil, kind, left, right, cond), true, nil
	case c.isKeyword("USING"):
		c.advance()
		if _, err := c.expectPunct("("); err != nil {
			return nil, false, err
		}
		var cols []string
		for {
			t := c.peek()
			if t.Kind != token.Identifier && t.Kind != token.QuotedIdentifier {
				return nil, false, c.errorf(sqlerrs.ErrUnexpectedToken, "column name", c.describeCurrent())
			}
			c.advance()
			cols = append(cols, identName(t))
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, false, err
		}
		return ast.NewJoinUsing(c.spanFrom(start), nil, kind, left, right, cols), true, nil
	default:
		return ast.NewJoinNatural(c.spanFrom(start), nil, kind, left, right), true, nil
	}
}

// peekJoinKind consumes the join-introducer keyword sequence (INNER
// JOIN, LEFT [OUTER] JOIN, NATURAL LEFT JOIN, CROSS JOIN, JOIN, etc.)
// when present, leaving the cursor positioned at the joined from-item.
func (p *parser) peekJoinKind() (ast.JoinKind, bool, error) {
	c := p.c
	natural := false
	if c.isKeyword("NATURAL") {
		natural = true
		c.advance()
	}

	kind := ast.JoinInner
	matched := false
	switch {
	case c.isKeyword("INNER"):
		c.advance()
		matched = true
	case c.isKeyword("LEFT"):
		c.advance()
		kind = ast.JoinLeft
		matched = true
		if c.isKeyword("OUTER") {
			c.advance()
		}
	case c.isKeyword("RIGHT"):
		c.advance()
		kind = ast.JoinRight
		matched = true
		if c.isKeyword("OUTER") {
			c.advance()
		}
	case c.isKeyword("FULL"):
		c.advance()
		kind = ast.JoinFull
		matched = true
		if c.isKeyword("OUTER") {
			c.advance()
		}
	case c.isKeyword("CROSS"):
		c.advance()
		kind = ast.JoinCross
		matched = true
	}

	if !c.isKeyword("JOIN") {
		if natural || matched {
			return 0, false, c.errorf(sqlerrs.ErrUnexpectedToken, "JOIN", c.describeCurrent())
		}
		return 0, false, nil
	}
	c.advance() // JOIN

	if natural {
		return kind, true, nil
	}
	_ = natural
	if kind == ast.JoinInner && !matched {
		// bare "JOIN" defaults to INNER
	}
	return kind, true, nil
}

func (p *parser) parseFromItem() (ast.FromItem, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())

	lateral := false
	if c.isKeyword("LATERAL") {
		lateral = true
		c.advance()
	}

	var item ast.FromItem
	var err error

	switch {
	case c.isPunct("("):
		c.advance()
		item, err = p.parseParenthesizedFromItem(start, comments, lateral)
		if err != nil {
			return nil, err
		}
	case c.peek().Kind == token.Identifier || c.peek().Kind == token.QuotedIdentifier:
		item, err = p.parseBaseTableOrFunctionSource(start, comments, lateral)
		if err != nil {
			return nil, err
		}
	default:
		if lateral {
			return nil, &sqlerrs.ParseError{Span: c.peek().Span, Found: c.describeCurrent(), Err: sqlerrs.ErrInvalidLateralTarget}
		}
		return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "table, subquery, or function", c.describeCurrent())
	}

	return item, nil
}

func (p *parser) parseParenthesizedFromItem(start token.Position, comments []token.AttachedComment, lateral bool) (ast.FromItem, error) {
	c := p.c

	if p.isSelectStart() || c.isKeyword("WITH") || c.isKeyword("VALUES") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		alias, colAliases := p.parseOptionalAlias()
		return ast.NewSubquerySource(c.spanFrom(start), comments, stmt, alias, colAliases, lateral), nil
	}

	// Parenthesized join tree: "(a JOIN b ON ...)".
	inner, err := p.parseFromItem()
	if err != nil {
		return nil, err
	}
	for {
		joined, consumed, err := p.tryParseJoin(inner)
		if err != nil {
			return nil, err
		}
		if !consumed {
			break
		}
		inner = joined
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *parser) parseBaseTableOrFunctionSource(start token.Position, comments []token.AttachedComment, lateral bool) (ast.FromItem, error) {
	c := p.c
	first := c.advance()
	parts := []string{identName(first)}
	for c.isPunct(".") {
		c.advance()
		nt := c.peek()
		if nt.Kind != token.Identifier && nt.Kind != token.QuotedIdentifier {
			return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "identifier", c.describeCurrent())
		}
		c.advance()
		parts = append(parts, identName(nt))
	}

	if c.isPunct("(") {
		call, err := p.parseFunctionCallSuffix(parts, start, nil)
		if err != nil {
			return nil, err
		}
		fc, ok := call.(*ast.FunctionCall)
		if !ok {
			if wf, ok2 := call.(*ast.WindowFunction); ok2 {
				fc = wf.Call
			}
		}
		alias, colAliases := p.parseOptionalAlias()
		return ast.NewFunctionSource(c.spanFrom(start), comments, fc, alias, colAliases, lateral), nil
	}

	if lateral {
		return nil, &sqlerrs.ParseError{Span: c.spanFrom(start), Found: identName(first), Err: sqlerrs.ErrInvalidLateralTarget}
	}

	var schema, name string
	switch len(parts) {
	case 1:
		name = parts[0]
	default:
		schema = parts[len(parts)-2]
		name = parts[len(parts)-1]
	}
	alias, colAliases := p.parseOptionalAlias()
	ref := ast.NewBaseTableRef(c.spanFrom(start), comments, schema, name, alias)
	ref.ColumnAliases = colAliases
	return ref, nil
}

// parseOptionalAlias consumes "[AS] alias [(col, ...)]" if present. A
// keyword never satisfies the identifier check below, so clause/join
// introducers (WHERE, JOIN, ON, ...) naturally terminate the lookahead
// without an explicit keyword blocklist.
func (p *parser) parseOptionalAlias() (string, []string) {
	c := p.c
	if c.isKeyword("AS") {
		c.advance()
	} else if c.peek().Kind != token.Identifier && c.peek().Kind != token.QuotedIdentifier {
		return "", nil
	}

	if c.peek().Kind != token.Identifier && c.peek().Kind != token.QuotedIdentifier {
		return "", nil
	}
	alias := identName(c.advance())

	var cols []string
	if c.isPunct("(") {
		c.advance()
		for {
			t := c.peek()
			if t.Kind != token.Identifier && t.Kind != token.QuotedIdentifier {
				break
			}
			c.advance()
			cols = append(cols, identName(t))
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
		c.advance() // ')'
	}
	return alias, cols
}
