package printer

import (
	"fmt"

	"github.com/sqlxform/sqlxform/ast"
)

func (p *Printer) printExpr(e ast.Expr) error {
	if e == nil {
		return nil
	}
	if err := p.printLeadingComments(e); err != nil {
		return err
	}
	if err := p.printExprBody(e); err != nil {
		return err
	}
	p.printTrailingComments(e)
	return nil
}

func (p *Printer) printExprBody(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.ColumnRef:
		p.write(p.qualifiedName(x.Schema, x.Table, x.Name))
	case *ast.Star:
		p.printStar(x)
	case *ast.Literal:
		p.printLiteral(x)
	case *ast.ParameterRef:
		p.printParameterRef(x)
	case *ast.FunctionCall:
		return p.printFunctionCall(x)
	case *ast.UnaryOp:
		return p.printUnaryOp(x)
	case *ast.BinaryOp:
		return p.printBinaryOp(x)
	case *ast.Between:
		return p.printBetween(x)
	case *ast.In:
		return p.printIn(x)
	case *ast.Like:
		return p.printLike(x)
	case *ast.Case:
		return p.printCase(x)
	case *ast.Cast:
		return p.printCast(x)
	case *ast.ArrayConstructor:
		return p.printArrayConstructor(x)
	case *ast.RowConstructor:
		return p.printRowConstructor(x)
	case *ast.ParenExpr:
		return p.printParenExpr(x)
	case *ast.Subquery:
		return p.printSubquery(x)
	case *ast.WindowFunction:
		return p.printFunctionCall(x.Call)
	default:
		return fmt.Errorf("printer: unsupported expression type %T", e)
	}
	return nil
}

func (p *Printer) printLiteral(l *ast.Literal) {
	switch l.Kind {
	case ast.LiteralNull:
		p.writeKw("NULL")
	case ast.LiteralBoolean:
		p.write(p.formatBool(l.BoolValue))
	case ast.LiteralString:
		p.write("'" + escapeStringLiteral(l.Text) + "'")
	case ast.LiteralTyped:
		p.writeKw(l.TypeName)
		p.write(" '" + escapeStringLiteral(l.Text) + "'")
	default: // LiteralNumeric
		p.write(l.Text)
	}
}

func escapeStringLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (p *Printer) printParameterRef(ref *ast.ParameterRef) {
	switch ref.Kind {
	case ast.ParamNamed:
		p.params.observeNamed(ref.Name)
		p.write(p.opts.ParameterSymbol + ref.Name)
	case ast.ParamPositional:
		idx := p.params.observeIndexed(ref.Index)
		p.write(p.renderIndexedSymbol(idx))
	default: // ParamAnonymous
		if p.opts.ParameterStyle == ParameterIndexed {
			idx := p.params.observeIndexed(ref.Index)
			p.write(p.renderIndexedSymbol(idx))
			return
		}
		p.params.observeAnonymous()
		p.write(p.opts.ParameterSymbol)
	}
}

func (p *Printer) renderIndexedSymbol(idx int) string {
	switch p.opts.Preset {
	case PresetSQLServer:
		return fmt.Sprintf("%s%d", p.opts.ParameterSymbol, idx)
	case PresetSQLite:
		return fmt.Sprintf("?%d", idx)
	default: // postgres-style $N
		return fmt.Sprintf("%s%d", p.opts.ParameterSymbol, idx)
	}
}

func (p *Printer) printFunctionCall(f *ast.FunctionCall) error {
	p.write(f.Name)
	p.write("(")
	if f.Distinct {
		p.writeKw("DISTINCT")
		p.space()
	}
	if err := p.printExprList(f.Args); err != nil {
		return err
	}
	p.write(")")
	if f.Filter != nil {
		p.space()
		p.writeKw("FILTER")
		p.write(" (")
		p.writeKw("WHERE")
		p.space()
		if err := p.printExpr(f.Filter); err != nil {
			return err
		}
		p.write(")")
	}
	if f.WithinGroup != nil {
		p.space()
		p.writeKw("WITHIN GROUP")
		p.write(" (")
		if err := p.printOrderByClause(f.WithinGroup); err != nil {
			return err
		}
		p.write(")")
	}
	if f.Over != nil {
		p.space()
		p.writeKw("OVER")
		p.space()
		if f.Over.Name != "" && f.Over.BaseWindow == "" && len(f.Over.PartitionBy) == 0 && f.Over.OrderBy == nil && f.Over.Frame == nil {
			p.write(p.quoteIdent(f.Over.Name))
			return nil
		}
		p.write("(")
		if err := p.printWindowSpec(f.Over); err != nil {
			return err
		}
		p.write(")")
	}
	return nil
}

func (p *Printer) printUnaryOp(u *ast.UnaryOp) error {
	op := u.Op
	switch op {
	case "NOT", "not":
		p.writeKw("NOT")
		p.space()
	default:
		p.write(op)
	}
	return p.printExpr(u.Operand)
}

func (p *Printer) printBinaryOp(b *ast.BinaryOp) error {
	if err := p.printExpr(b.Left); err != nil {
		return err
	}
	style, isBreakable := logicalBreakStyle(b.Op, p.opts)
	opText := b.Op
	render := opText
	if isWordOperator(opText) {
		render = p.kw(opText)
	}
	if !isBreakable {
		p.space()
		p.write(render)
		p.space()
		return p.printExpr(b.Right)
	}
	switch style {
	case BreakBefore:
		p.indentIn()
		p.newline()
		p.write(render)
		p.space()
		if err := p.printExpr(b.Right); err != nil {
			p.indentOut()
			return err
		}
		p.indentOut()
	case BreakAfter:
		p.space()
		p.write(render)
		p.indentIn()
		p.newline()
		if err := p.printExpr(b.Right); err != nil {
			p.indentOut()
			return err
		}
		p.indentOut()
	default: // BreakNone
		p.space()
		p.write(render)
		p.space()
		return p.printExpr(b.Right)
	}
	return nil
}

// logicalBreakStyle returns the configured break style for AND/OR and
// whether op is one of those two operators at all (every other operator
// always stays on the current line).
func logicalBreakStyle(op string, opts Options) (BreakStyle, bool) {
	switch op {
	case "AND", "and":
		return opts.AndBreak, true
	case "OR", "or":
		return opts.OrBreak, true
	default:
		return BreakNone, false
	}
}

func isWordOperator(op string) bool {
	switch op {
	case "AND", "and", "OR", "or", "LIKE", "like", "ILIKE", "ilike",
		"IS", "is", "IS NOT", "is not", "IS DISTINCT FROM", "is distinct from",
		"IS NOT DISTINCT FROM", "is not distinct from", "IS NULL", "is null":
		return true
	default:
		return false
	}
}

func (p *Printer) printBetween(b *ast.Between) error {
	if err := p.printExpr(b.Expr); err != nil {
		return err
	}
	p.space()
	if b.Not {
		p.writeKw("NOT")
		p.space()
	}
	p.writeKw("BETWEEN")
	p.space()
	if err := p.printExpr(b.Low); err != nil {
		return err
	}
	p.space()
	p.writeKw("AND")
	p.space()
	return p.printExpr(b.High)
}

func (p *Printer) printIn(in *ast.In) error {
	if err := p.printExpr(in.Expr); err != nil {
		return err
	}
	p.space()
	if in.Not {
		p.writeKw("NOT")
		p.space()
	}
	p.writeKw("IN")
	p.write(" (")
	if in.Subquery != nil {
		if err := p.printStatement(in.Subquery.Query); err != nil {
			return err
		}
	} else if err := p.printExprList(in.List); err != nil {
		return err
	}
	p.write(")")
	return nil
}

func (p *Printer) printLike(l *ast.Like) error {
	if err := p.printExpr(l.Expr); err != nil {
		return err
	}
	p.space()
	if l.Not {
		p.writeKw("NOT")
		p.space()
	}
	if l.CaseFold {
		p.writeKw("ILIKE")
	} else {
		p.writeKw("LIKE")
	}
	p.space()
	if err := p.printExpr(l.Pattern); err != nil {
		return err
	}
	if l.Escape != nil {
		p.space()
		p.writeKw("ESCAPE")
		p.space()
		if err := p.printExpr(l.Escape); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printCase(c *ast.Case) error {
	oneLine := p.opts.CaseOneLine
	sep := func() {
		if oneLine {
			p.space()
		} else {
			p.newline()
		}
	}
	p.writeKw("CASE")
	if c.Operand != nil {
		p.space()
		if err := p.printExpr(c.Operand); err != nil {
			return err
		}
	}
	if !oneLine {
		p.indentIn()
	}
	for _, w := range c.Whens {
		sep()
		p.writeKw("WHEN")
		p.space()
		if err := p.printExpr(w.When); err != nil {
			return err
		}
		p.space()
		p.writeKw("THEN")
		p.space()
		if err := p.printExpr(w.Then); err != nil {
			return err
		}
	}
	if c.Else != nil {
		sep()
		p.writeKw("ELSE")
		p.space()
		if err := p.printExpr(c.Else); err != nil {
			return err
		}
	}
	if !oneLine {
		p.indentOut()
		p.newline()
	} else {
		p.space()
	}
	p.writeKw("END")
	return nil
}

func (p *Printer) printCast(c *ast.Cast) error {
	if c.ShorthandSyntax {
		if err := p.printExpr(c.Expr); err != nil {
			return err
		}
		p.write("::" + c.TypeName)
		return nil
	}
	p.writeKw("CAST")
	p.write(" (")
	if err := p.printExpr(c.Expr); err != nil {
		return err
	}
	p.space()
	p.writeKw("AS")
	p.space()
	p.write(c.TypeName)
	p.write(")")
	return nil
}

func (p *Printer) printArrayConstructor(a *ast.ArrayConstructor) error {
	p.writeKw("ARRAY")
	if a.Subquery != nil {
		p.write(" (")
		if err := p.printStatement(a.Subquery.Query); err != nil {
			return err
		}
		p.write(")")
		return nil
	}
	p.write("[")
	if err := p.printExprList(a.Elements); err != nil {
		return err
	}
	p.write("]")
	return nil
}

func (p *Printer) printRowConstructor(r *ast.RowConstructor) error {
	p.writeKw("ROW")
	p.write(" (")
	if err := p.printExprList(r.Elements); err != nil {
		return err
	}
	p.write(")")
	return nil
}

func (p *Printer) printParenExpr(e *ast.ParenExpr) error {
	if p.opts.ParenthesesOneLine {
		p.write("(")
		if err := p.printExpr(e.Inner); err != nil {
			return err
		}
		p.write(")")
		return nil
	}
	p.write("(")
	p.indentIn()
	p.newline()
	if err := p.printExpr(e.Inner); err != nil {
		return err
	}
	p.indentOut()
	p.newline()
	p.write(")")
	return nil
}

func (p *Printer) printSubquery(s *ast.Subquery) error {
	switch s.Kind {
	case ast.SubqueryExists:
		p.writeKw("EXISTS")
		p.space()
	}
	if p.opts.SubqueryOneLine {
		p.write("(")
		if err := p.printStatement(s.Query); err != nil {
			return err
		}
		p.write(")")
		return nil
	}
	p.write("(")
	p.indentIn()
	p.newline()
	if err := p.printStatement(s.Query); err != nil {
		return err
	}
	p.indentOut()
	p.newline()
	p.write(")")
	return nil
}
