package printer

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sqlxform/sqlxform/ast"
)

// Result is what Format returns: the rendered SQL text plus the bind
// parameters it collected in emission order.
type Result struct {
	SQL    string
	Params Params
}

// Printer renders an AST back to SQL text according to Options. A
// Printer is single-use: Format builds a fresh one for every call, since
// a Printer's buffer and parameter collector are never reset.
type Printer struct {
	opts   Options
	buf    strings.Builder
	indent int
	params *paramCollector

	upper cases.Caser
	lower cases.Caser
}

// New returns a Printer configured by opts (merged over its preset's
// defaults).
func New(opts Options) *Printer {
	return newPrinter(opts, nil)
}

func newPrinter(opts Options, bindings *ast.Bindings) *Printer {
	resolved := opts.resolve()
	return &Printer{
		opts:   resolved,
		params: newParamCollector(resolved.ParameterStyle, bindings),
		upper:  cases.Upper(language.Und),
		lower:  cases.Lower(language.Und),
	}
}

// Format renders stmt to SQL text under opts (merged over its preset's
// defaults). When
// stmt carries bindings set by a transformer such as SqlParamInjector
// (see ast.StatementBindings), named placeholders in Result.Params
// surface their actual bound values instead of just their names.
func Format(stmt ast.Statement, opts Options) (Result, error) {
	var bindings *ast.Bindings
	if sb, ok := stmt.(ast.StatementBindings); ok {
		bindings = sb.Bindings()
	}
	p := newPrinter(opts, bindings)
	if err := p.printStatement(stmt); err != nil {
		return Result{}, err
	}
	return Result{SQL: p.buf.String(), Params: p.params.result()}, nil
}

// kw renders a keyword under the configured KeywordCase.
func (p *Printer) kw(s string) string {
	switch p.opts.KeywordCase {
	case KeywordUpper:
		return p.upper.String(s)
	case KeywordLower:
		return p.lower.String(s)
	default:
		return s
	}
}

func (p *Printer) write(s string) { p.buf.WriteString(s) }

func (p *Printer) writeKw(s string) { p.buf.WriteString(p.kw(s)) }

func (p *Printer) space() { p.buf.WriteByte(' ') }

func (p *Printer) newline() {
	p.write(p.opts.Newline)
	p.write(strings.Repeat(string(p.opts.IndentChar), p.indent*p.opts.IndentSize))
}

func (p *Printer) indentIn()  { p.indent++ }
func (p *Printer) indentOut() { p.indent-- }

// quoteIdent escapes name with the configured identifier delimiters
// when it needs escaping (contains anything other than lowercase
// letters, digits, and underscore, or collides with a reserved word
// shape like a leading digit).
func (p *Printer) quoteIdent(name string) string {
	if name == "" {
		return name
	}
	if !needsEscape(name) {
		return name
	}
	esc := p.opts.IdentifierEscape
	return esc.Start + strings.ReplaceAll(name, esc.End, esc.End+esc.End) + esc.End
}

func needsEscape(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func (p *Printer) qualifiedName(schema, table, name string) string {
	var parts []string
	if schema != "" {
		parts = append(parts, p.quoteIdent(schema))
	}
	if table != "" {
		parts = append(parts, p.quoteIdent(table))
	}
	parts = append(parts, p.quoteIdent(name))
	return strings.Join(parts, ".")
}

// joinBreak renders items separated by sep under the configured break
// style: before (", x" at line starts), after ("x," then newline), or
// none (plain "x, y" with a trailing space, no line break at all).
func (p *Printer) joinBreak(items []string, sep string, style BreakStyle, oneLine bool) string {
	if oneLine || style == BreakNone {
		return strings.Join(items, sep+" ")
	}
	var b strings.Builder
	nl := p.opts.Newline + strings.Repeat(string(p.opts.IndentChar), p.indent*p.opts.IndentSize)
	for i, item := range items {
		if i == 0 {
			b.WriteString(item)
			continue
		}
		switch style {
		case BreakBefore:
			b.WriteString(nl)
			b.WriteString(sep)
			b.WriteByte(' ')
			b.WriteString(item)
		default: // BreakAfter
			b.WriteString(sep)
			b.WriteString(nl)
			b.WriteString(item)
		}
	}
	return b.String()
}

func (p *Printer) printStatement(stmt ast.Statement) error {
	if err := p.printLeadingComments(stmt); err != nil {
		return err
	}
	var err error
	switch s := stmt.(type) {
	case *ast.SimpleSelect:
		err = p.printSimpleSelect(s)
	case *ast.BinarySelect:
		err = p.printBinarySelect(s)
	case *ast.ValuesQuery:
		err = p.printValuesQuery(s)
	case *ast.Insert:
		err = p.printInsert(s)
	case *ast.Update:
		err = p.printUpdate(s)
	case *ast.Delete:
		err = p.printDelete(s)
	case *ast.Merge:
		err = p.printMerge(s)
	case *ast.Explain:
		err = p.printExplain(s)
	case *ast.Truncate:
		err = p.printTruncate(s)
	default:
		return fmt.Errorf("printer: unsupported statement type %T", stmt)
	}
	if err != nil {
		return err
	}
	p.printTrailingComments(stmt)
	return nil
}

func (p *Printer) printSimpleSelect(s *ast.SimpleSelect) error {
	if s.With != nil {
		if err := p.printWithClause(s.With); err != nil {
			return err
		}
		p.newline()
	}

	p.writeKw("SELECT")
	if s.Select != nil {
		if err := p.printSelectClause(s.Select); err != nil {
			return err
		}
	}

	if s.From != nil {
		p.newline()
		p.writeKw("FROM")
		p.space()
		if err := p.printFromItem(s.From.Item); err != nil {
			return err
		}
	}
	if s.Where != nil {
		p.newline()
		p.writeKw("WHERE")
		p.space()
		if err := p.printExpr(s.Where.Condition); err != nil {
			return err
		}
	}
	if s.GroupBy != nil {
		p.newline()
		if err := p.printGroupByClause(s.GroupBy); err != nil {
			return err
		}
	}
	if s.Having != nil {
		p.newline()
		p.writeKw("HAVING")
		p.space()
		if err := p.printExpr(s.Having.Condition); err != nil {
			return err
		}
	}
	if s.Window != nil {
		p.newline()
		if err := p.printWindowClause(s.Window); err != nil {
			return err
		}
	}
	if s.OrderBy != nil {
		p.newline()
		if err := p.printOrderByClause(s.OrderBy); err != nil {
			return err
		}
	}
	if s.Limit != nil {
		p.newline()
		if err := p.printLimitClause(s.Limit); err != nil {
			return err
		}
	}
	if s.ForUpdate != nil {
		p.newline()
		p.printForUpdateClause(s.ForUpdate)
	}
	return nil
}

func (p *Printer) printSelectClause(sel *ast.SelectClause) error {
	if sel.Distinct {
		p.space()
		p.writeKw("DISTINCT")
		if len(sel.DistinctOn) > 0 {
			p.space()
			p.writeKw("ON")
			p.write(" (")
			for i, e := range sel.DistinctOn {
				if i > 0 {
					p.write(", ")
				}
				if err := p.printExpr(e); err != nil {
					return err
				}
			}
			p.write(")")
		}
	}
	p.indentIn()
	defer p.indentOut()

	items := make([]string, len(sel.Items))
	for i, item := range sel.Items {
		rendered, err := p.renderSelectItem(item)
		if err != nil {
			return err
		}
		items[i] = rendered
	}
	p.newline()
	p.write(p.joinBreak(items, ",", p.opts.CommaBreak, false))
	return nil
}

func (p *Printer) renderSelectItem(item ast.SelectItem) (string, error) {
	sub := p.sub()
	if item.Star != nil {
		sub.printStar(item.Star)
	} else if err := sub.printExpr(item.Expr); err != nil {
		return "", err
	}
	if item.Alias != "" {
		sub.space()
		sub.writeKw("AS")
		sub.space()
		sub.write(sub.quoteIdent(item.Alias))
	}
	return sub.buf.String(), nil
}

// sub returns a child Printer sharing opts/params/indent but writing
// into its own buffer, for rendering a fragment to a string (select
// items, join/comma lists) without disturbing the parent's buffer.
func (p *Printer) sub() *Printer {
	return &Printer{opts: p.opts, indent: p.indent, params: p.params, upper: p.upper, lower: p.lower}
}

func (p *Printer) printStar(s *ast.Star) {
	if s.Table != "" {
		p.write(p.quoteIdent(s.Table))
		p.write(".")
	}
	p.write("*")
}

func (p *Printer) printGroupByClause(g *ast.GroupByClause) error {
	p.writeKw("GROUP BY")
	p.space()
	switch g.Kind {
	case ast.GroupByRollup, ast.GroupByCube:
		if g.Kind == ast.GroupByRollup {
			p.writeKw("ROLLUP")
		} else {
			p.writeKw("CUBE")
		}
		p.write(" (")
		if err := p.printExprList(g.Items); err != nil {
			return err
		}
		p.write(")")
	case ast.GroupBySets:
		p.writeKw("GROUPING SETS")
		p.write(" (")
		for i, set := range g.Sets {
			if i > 0 {
				p.write(", ")
			}
			p.write("(")
			if err := p.printExprList(set); err != nil {
				return err
			}
			p.write(")")
		}
		p.write(")")
	default:
		if err := p.printExprList(g.Items); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printExprList(items []ast.Expr) error {
	for i, e := range items {
		if i > 0 {
			p.write(", ")
		}
		if err := p.printExpr(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printWindowClause(w *ast.WindowClause) error {
	p.writeKw("WINDOW")
	p.space()
	for i, nw := range w.Windows {
		if i > 0 {
			p.write(", ")
		}
		p.write(p.quoteIdent(nw.Name))
		p.space()
		p.writeKw("AS")
		p.space()
		p.write("(")
		if err := p.printWindowSpec(nw.Spec); err != nil {
			return err
		}
		p.write(")")
	}
	return nil
}

func (p *Printer) printWindowSpec(spec *ast.WindowSpec) error {
	wrote := false
	if spec.BaseWindow != "" {
		p.write(p.quoteIdent(spec.BaseWindow))
		wrote = true
	}
	if len(spec.PartitionBy) > 0 {
		if wrote {
			p.space()
		}
		p.writeKw("PARTITION BY")
		p.space()
		if err := p.printExprList(spec.PartitionBy); err != nil {
			return err
		}
		wrote = true
	}
	if spec.OrderBy != nil {
		if wrote {
			p.space()
		}
		if err := p.printOrderByClause(spec.OrderBy); err != nil {
			return err
		}
		wrote = true
	}
	if spec.Frame != nil {
		if wrote {
			p.space()
		}
		p.printWindowFrame(spec.Frame)
	}
	return nil
}

func (p *Printer) printWindowFrame(f *ast.WindowFrame) {
	switch f.Kind {
	case ast.FrameRange:
		p.writeKw("RANGE")
	case ast.FrameGroups:
		p.writeKw("GROUPS")
	default:
		p.writeKw("ROWS")
	}
	p.space()
	if f.End != nil {
		p.writeKw("BETWEEN")
		p.space()
		p.printFrameBound(f.Start)
		p.space()
		p.writeKw("AND")
		p.space()
		p.printFrameBound(*f.End)
		return
	}
	p.printFrameBound(f.Start)
}

func (p *Printer) printFrameBound(b ast.FrameBound) {
	switch b.Kind {
	case ast.BoundUnboundedPreceding:
		p.writeKw("UNBOUNDED PRECEDING")
	case ast.BoundUnboundedFollowing:
		p.writeKw("UNBOUNDED FOLLOWING")
	case ast.BoundCurrentRow:
		p.writeKw("CURRENT ROW")
	case ast.BoundPreceding:
		_ = p.printExpr(b.Offset)
		p.space()
		p.writeKw("PRECEDING")
	case ast.BoundFollowing:
		_ = p.printExpr(b.Offset)
		p.space()
		p.writeKw("FOLLOWING")
	}
}

func (p *Printer) printOrderByClause(o *ast.OrderByClause) error {
	p.writeKw("ORDER BY")
	p.space()
	items := make([]string, len(o.Items))
	for i, it := range o.Items {
		sub := p.sub()
		if err := sub.printExpr(it.Expr); err != nil {
			return err
		}
		switch it.Direction {
		case ast.Ascending:
			sub.space()
			sub.writeKw("ASC")
		case ast.Descending:
			sub.space()
			sub.writeKw("DESC")
		}
		switch it.Nulls {
		case ast.NullsFirst:
			sub.space()
			sub.writeKw("NULLS FIRST")
		case ast.NullsLast:
			sub.space()
			sub.writeKw("NULLS LAST")
		}
		items[i] = sub.buf.String()
	}
	p.write(strings.Join(items, ", "))
	return nil
}

func (p *Printer) printLimitClause(l *ast.LimitClause) error {
	if l.Limit != nil {
		p.writeKw("LIMIT")
		p.space()
		if err := p.printExpr(l.Limit); err != nil {
			return err
		}
	}
	if l.Offset != nil {
		if l.Limit != nil {
			p.space()
		}
		p.writeKw("OFFSET")
		p.space()
		if err := p.printExpr(l.Offset); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printForUpdateClause(f *ast.ForUpdateClause) {
	switch f.Strength {
	case ast.LockNoKeyUpdate:
		p.writeKw("FOR NO KEY UPDATE")
	case ast.LockShare:
		p.writeKw("FOR SHARE")
	case ast.LockKeyShare:
		p.writeKw("FOR KEY SHARE")
	default:
		p.writeKw("FOR UPDATE")
	}
	if len(f.OfTables) > 0 {
		p.space()
		p.writeKw("OF")
		p.space()
		p.write(strings.Join(f.OfTables, ", "))
	}
	if f.NoWait {
		p.space()
		p.writeKw("NOWAIT")
	}
	if f.SkipLocked {
		p.space()
		p.writeKw("SKIP LOCKED")
	}
}

func (p *Printer) printWithClause(w *ast.WithClause) error {
	p.writeKw("WITH")
	if w.Recursive {
		p.space()
		p.writeKw("RECURSIVE")
	}
	p.space()
	for i, cte := range w.CTEs {
		if i > 0 {
			p.write(",")
			if p.opts.WithClauseStyle != WithInline {
				p.newline()
			} else {
				p.space()
			}
		}
		p.write(p.quoteIdent(cte.Name))
		if len(cte.ColumnAliases) > 0 {
			p.write(" (")
			for j, c := range cte.ColumnAliases {
				if j > 0 {
					p.write(", ")
				}
				p.write(p.quoteIdent(c))
			}
			p.write(")")
		}
		p.space()
		p.writeKw("AS")
		p.space()
		if cte.Materialized != nil {
			if !*cte.Materialized {
				p.writeKw("NOT")
				p.space()
			}
			p.writeKw("MATERIALIZED")
			p.space()
		}
		p.write("(")
		if p.opts.WithClauseStyle == WithFullNewline {
			p.indentIn()
			p.newline()
		}
		if err := p.printStatement(cte.Body); err != nil {
			return err
		}
		if p.opts.WithClauseStyle == WithFullNewline {
			p.indentOut()
			p.newline()
		}
		p.write(")")
	}
	return nil
}

func (p *Printer) printBinarySelect(b *ast.BinarySelect) error {
	if err := p.printStatement(b.Left); err != nil {
		return err
	}
	p.newline()
	p.writeKw(b.Operator.String())
	p.newline()
	if err := p.printStatement(b.Right); err != nil {
		return err
	}
	if b.OrderBy != nil {
		p.newline()
		if err := p.printOrderByClause(b.OrderBy); err != nil {
			return err
		}
	}
	if b.Limit != nil {
		p.newline()
		if err := p.printLimitClause(b.Limit); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printValuesQuery(v *ast.ValuesQuery) error {
	p.writeKw("VALUES")
	p.space()
	if err := p.printValuesRows(v.Rows); err != nil {
		return err
	}
	if v.OrderBy != nil {
		p.newline()
		if err := p.printOrderByClause(v.OrderBy); err != nil {
			return err
		}
	}
	if v.Limit != nil {
		p.newline()
		if err := p.printLimitClause(v.Limit); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printValuesRows(rows [][]ast.Expr) error {
	rendered := make([]string, len(rows))
	for i, row := range rows {
		sub := p.sub()
		sub.write("(")
		if err := sub.printExprList(row); err != nil {
			return err
		}
		sub.write(")")
		rendered[i] = sub.buf.String()
	}
	p.write(p.joinBreak(rendered, ",", p.opts.CommaBreak, p.opts.ValuesOneLine))
	return nil
}

func (p *Printer) printExplain(e *ast.Explain) error {
	p.writeKw("EXPLAIN")
	if e.Mode == ast.ExplainAnalyze {
		p.space()
		p.writeKw("ANALYZE")
	}
	if e.Verbose {
		p.space()
		p.writeKw("VERBOSE")
	}
	if e.Format != "" {
		p.space()
		p.writeKw("FORMAT")
		p.space()
		p.writeKw(e.Format)
	}
	p.newline()
	return p.printStatement(e.Stmt)
}

func (p *Printer) printTruncate(t *ast.Truncate) error {
	p.writeKw("TRUNCATE")
	p.space()
	p.writeKw("TABLE")
	p.space()
	p.write(strings.Join(t.Tables, ", "))
	if t.RestartIdentity {
		p.space()
		p.writeKw("RESTART IDENTITY")
	}
	if t.Cascade {
		p.space()
		p.writeKw("CASCADE")
	}
	return nil
}

// formatBool renders a SQL boolean literal's textual form; kept as a
// helper since TRUE/FALSE are themselves keywords subject to case.
func (p *Printer) formatBool(v bool) string {
	if v {
		return p.kw("TRUE")
	}
	return p.kw("FALSE")
}
