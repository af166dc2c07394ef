package parser

import (
	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

func (p *parser) parseOrderByItems() ([]ast.OrderByItem, error) {
	c := p.c
	var items []ast.OrderByItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := ast.OrderByItem{Expr: e}
		switch {
		case c.isKeyword("ASC"):
			c.advance()
			item.Direction = ast.Ascending
		case c.isKeyword("DESC"):
			c.advance()
			item.Direction = ast.Descending
		}
		if c.isKeyword("NULLS") {
			c.advance()
			switch {
			case c.isKeyword("FIRST"):
				c.advance()
				item.Nulls = ast.NullsFirst
			case c.isKeyword("LAST"):
				c.advance()
				item.Nulls = ast.NullsLast
			default:
				return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "FIRST/LAST", c.describeCurrent())
			}
		}
		items = append(items, item)
		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) parseOrderByClause() (*ast.OrderByClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // ORDER
	if _, err := c.expectKeyword("BY"); err != nil {
		return nil, err
	}
	items, err := p.parseOrderByItems()
	if err != nil {
		return nil, err
	}
	return ast.NewOrderByClause(c.spanFrom(start), comments, items), nil
}

func (p *parser) parseLimitClause() (*ast.LimitClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())

	var limitExpr, offsetExpr ast.Expr

	for {
		switch {
		case c.isKeyword("LIMIT"):
			c.advance()
			if c.isKeyword("ALL") {
				c.advance()
				continue
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			limitExpr = e
		case c.isKeyword("OFFSET"):
			c.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			offsetExpr = e
			if c.isKeyword("ROW") || c.isKeyword("ROWS") {
				c.advance()
			}
		case c.isKeyword("FETCH"):
			c.advance()
			if c.isKeyword("FIRST") || c.isKeyword("NEXT") {
				c.advance()
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			limitExpr = e
			if c.isKeyword("ROW") || c.isKeyword("ROWS") {
				c.advance()
			}
			if _, err := c.expectKeyword("ONLY"); err != nil {
				return nil, err
			}
		default:
			return ast.NewLimitClause(c.spanFrom(start), comments, limitExpr, offsetExpr), nil
		}
	}
}

func (p *parser) parseWithClause() (*ast.WithClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // WITH
	recursive := false
	if c.isKeyword("RECURSIVE") {
		recursive = true
		c.advance()
	}

	var ctes []*ast.CTE
	for {
		cteStart := c.peek().Span.Start
		cteComments := leadingComments(c.peek())
		nameTok := c.peek()
		if nameTok.Kind != token.Identifier && nameTok.Kind != token.QuotedIdentifier {
			return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "CTE name", c.describeCurrent())
		}
		c.advance()
		name := identName(nameTok)

		var colAliases []string
		if c.isPunct("(") {
			c.advance()
			for {
				ct := c.peek()
				if ct.Kind != token.Identifier && ct.Kind != token.QuotedIdentifier {
					return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "column alias", c.describeCurrent())
				}
				c.advance()
				colAliases = append(colAliases, identName(ct))
				if c.isPunct(",") {
					c.advance()
					continue
				}
				break
			}
			if _, err := c.expectPunct(")"); err != nil {
				return nil, err
			}
		}

		if _, err := c.expectKeyword("AS"); err != nil {
			return nil, err
		}

		var materialized *bool
		if c.isKeyword("MATERIALIZED") {
			c.advance()
			v := true
			materialized = &v
		} else if c.isKeyword("NOT") && c.isKeywordAt(1, "MATERIALIZED") {
			c.advance()
			c.advance()
			v := false
			materialized = &v
		}

		if _, err := c.expectPunct("("); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}

		ctes = append(ctes, ast.NewCTE(c.spanFrom(cteStart), cteComments, name, colAliases, materialized, recursive, body))

		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}

	return ast.NewWithClause(c.spanFrom(start), comments, recursive, ctes), nil
}

func (p *parser) parseSelectClause() (*ast.SelectClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // SELECT

	distinct := false
	var distinctOn []ast.Expr
	if c.isKeyword("DISTINCT") {
		distinct = true
		c.advance()
		if c.isKeyword("ON") {
			c.advance()
			if _, err := c.expectPunct("("); err != nil {
				return nil, err
			}
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				distinctOn = append(distinctOn, e)
				if c.isPunct(",") {
					c.advance()
					continue
				}
				break
			}
			if _, err := c.expectPunct(")"); err != nil {
				return nil, err
			}
		}
	} else if c.isKeyword("ALL") {
		c.advance()
	}

	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}

	return ast.NewSelectClause(c.spanFrom(start), comments, distinct, distinctOn, items), nil
}

func (p *parser) parseSelectItem() (ast.SelectItem, error) {
	c := p.c
	if c.isOp("*") {
		t := c.advance()
		return ast.SelectItem{Star: ast.NewStar(t.Span, leadingComments(t), "")}, nil
	}

	e, err := p.parseExpr()
	if err != nil {
		return ast.SelectItem{}, err
	}
	if star, ok := e.(*ast.Star); ok {
		return ast.SelectItem{Star: star}, nil
	}

	alias := ""
	if c.isKeyword("AS") {
		c.advance()
		t := c.peek()
		if t.Kind != token.Identifier && t.Kind != token.QuotedIdentifier {
			return ast.SelectItem{}, c.errorf(sqlerrs.ErrUnexpectedToken, "alias", c.describeCurrent())
		}
		c.advance()
		alias = identName(t)
	} else if c.peek().Kind == token.Identifier || c.peek().Kind == token.QuotedIdentifier {
		t := c.advance()
		alias = identName(t)
	}
	return ast.SelectItem{Expr: e, Alias: alias}, nil
}

func (p *parser) parseWhereClause() (*ast.WhereClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // WHERE
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewWhereClause(c.spanFrom(start), comments, cond), nil
}

func (p *parser) parseGroupByClause() (*ast.GroupByClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // GROUP
	if _, err := c.expectKeyword("BY"); err != nil {
		return nil, err
	}

	switch {
	case c.isKeyword("ROLLUP"):
		c.advance()
		sets, err := p.parseParenExprLists()
		if err != nil {
			return nil, err
		}
		return ast.NewGroupByClause(c.spanFrom(start), comments, ast.GroupByRollup, nil, sets), nil
	case c.isKeyword("CUBE"):
		c.advance()
		sets, err := p.parseParenExprLists()
		if err != nil {
			return nil, err
		}
		return ast.NewGroupByClause(c.spanFrom(start), comments, ast.GroupByCube, nil, sets), nil
	case c.isKeyword("GROUPING"):
		c.advance()
		if _, err := c.expectKeyword("SETS"); err != nil {
			return nil, err
		}
		if _, err := c.expectPunct("("); err != nil {
			return nil, err
		}
		var sets [][]ast.Expr
		for {
			set, err := p.parseParenExprList()
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
		if _, err := c.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewGroupByClause(c.spanFrom(start), comments, ast.GroupBySets, nil, sets), nil
	default:
		var items []ast.Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
		return ast.NewGroupByClause(c.spanFrom(start), comments, ast.GroupBySimple, items, nil), nil
	}
}

// parseParenExprLists parses "(a, b), (c, d)" as used by ROLLUP/CUBE,
// where a single bare identifier without parens is also legal as a
// one-element set.
func (p *parser) parseParenExprLists() ([][]ast.Expr, error) {
	c := p.c
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	var sets [][]ast.Expr
	for {
		if c.isPunct("(") {
			set, err := p.parseParenExprList()
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sets = append(sets, []ast.Expr{e})
		}
		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}
	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return sets, nil
}

func (p *parser) parseParenExprList() ([]ast.Expr, error) {
	c := p.c
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	var items []ast.Expr
	if !c.isPunct(")") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
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
	return items, nil
}

func (p *parser) parseHavingClause() (*ast.HavingClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // HAVING
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewHavingClause(c.spanFrom(start), comments, cond), nil
}

func (p *parser) parseWindowClause() (*ast.WindowClause, error) {
	c := p.c
	start := c.peek().Span.Start
	comments := leadingComments(c.peek())
	c.advance() // WINDOW

	var windows []ast.NamedWindow
	for {
		nt := c.peek()
		if nt.Kind != token.Identifier && nt.Kind != token.QuotedIdentifier {
			return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "window name", c.describeCurrent())
		}
		c.advance()
		name := identName(nt)
		if _, err := c.expectKeyword("AS"); err != nil {
			return nil, err
		}
		spec, err := p.parseWindowSpecParen()
		if err != nil {
			return nil, err
		}
		windows = append(windows, ast.NamedWindow{Name: name, Spec: spec})
		if c.isPunct(",") {
			c.advance()
			continue
		}
		break
	}
	return ast.NewWindowClause(c.spanFrom(start), comments, windows), nil
}

// parseWindowSpecOrRef parses the operand of OVER: either a bare name
// reference or a full "(...)" spec.
func (p *parser) parseWindowSpecOrRef() (*ast.WindowSpec, error) {
	c := p.c
	if c.isPunct("(") {
		return p.parseWindowSpecParen()
	}
	nt := c.peek()
	if nt.Kind != token.Identifier && nt.Kind != token.QuotedIdentifier {
		return nil, c.errorf(sqlerrs.ErrUnexpectedToken, "window name or (", c.describeCurrent())
	}
	c.advance()
	return &ast.WindowSpec{Name: identName(nt)}, nil
}

func (p *parser) parseWindowSpecParen() (*ast.WindowSpec, error) {
	c := p.c
	if _, err := c.expectPunct("("); err != nil {
		return nil, err
	}
	spec := &ast.WindowSpec{}

	if c.peek().Kind == token.Identifier && !c.isKeyword("PARTITION", "ORDER", "ROWS", "RANGE", "GROUPS") {
		spec.BaseWindow = identName(c.advance())
	}

	if c.isKeyword("PARTITION") {
		c.advance()
		if _, err := c.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			spec.PartitionBy = append(spec.PartitionBy, e)
			if c.isPunct(",") {
				c.advance()
				continue
			}
			break
		}
	}

	if c.isKeyword("ORDER") {
		c.advance()
		if _, err := c.expectKeyword("BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByItems()
		if err != nil {
			return nil, err
		}
		spec.OrderBy = ast.NewOrderByClause(token.Span{}, nil, items)
	}

	if c.isKeyword("ROWS", "RANGE", "GROUPS") {
		frame, err := p.parseWindowFrame()
		if err != nil {
			return nil, err
		}
		spec.Frame = frame
	}

	if _, err := c.expectPunct(")"); err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *parser) parseWindowFrame() (*ast.WindowFrame, error) {
	c := p.c
	var kind ast.FrameKind
	switch {
	case c.isKeyword("ROWS"):
		kind = ast.FrameRows
	case c.isKeyword("RANGE"):
		kind = ast.FrameRange
	case c.isKeyword("GROUPS"):
		kind = ast.FrameGroups
	}
	c.advance()

	if c.isKeyword("BETWEEN") {
		c.advance()
		start, err := p.parseFrameBound()
		if err != nil {
			return nil, err
		}
		if _, err := c.expectKeyword("AND"); err != nil {
			return nil, err
		}
		end, err := p.parseFrameBound()
		if err != nil {
			return nil, err
		}
		return &ast.WindowFrame{Kind: kind, Start: start, End: &end}, nil
	}

	start, err := p.parseFrameBound()
	if err != nil {
		return nil, err
	}
	return &ast.WindowFrame{Kind: kind, Start: start}, nil
}

func (p *parser) parseFrameBound() (ast.FrameBound, error) {
	c := p.c
	switch {
	case c.isKeyword("UNBOUNDED"):
		c.advance()
		switch {
		case c.isKeyword("PRECEDING"):
			c.advance()
			return ast.FrameBound{Kind: ast.BoundUnboundedPreceding}, nil
		case c.isKeyword("FOLLOWING"):
			c.advance()
			return ast.FrameBound{Kind: ast.BoundUnboundedFollowing}, nil
		default:
			return ast.FrameBound{}, c.errorf(sqlerrs.ErrUnexpectedToken, "PRECEDING/FOLLOWING", c.describeCurrent())
		}
	case c.isKeyword("CURRENT"):
		c.advance()
		if _, err := c.expectKeyword("ROW"); err != nil {
			return ast.FrameBound{}, err
		}
		return ast.FrameBound{Kind: ast.BoundCurrentRow}, nil
	default:
		offset, err := p.parseExpr()
		if err != nil {
			return ast.FrameBound{}, err
		}
		switch {
		case c.isKeyword("PRECEDING"):
			c.advance()
			return ast.FrameBound{Kind: ast.BoundPreceding, Offset: offset}, nil
		case c.isKeyword("FOLLOWING"):
			c.advance()
			return ast.FrameBound{Kind: ast.BoundFollowing, Offset: offset}, nil
		default:
			return ast.FrameBound{}, c.errorf(sqlerrs.ErrUnexpectedToken, "PRECEDING/FOLLOWING", c.describeCurrent())
		}
	}
}
