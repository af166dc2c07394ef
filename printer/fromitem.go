package printer

import (
	"fmt"
	"strings"

	"github.com/sqlxform/sqlxform/ast"
)

func (p *Printer) printFromItem(item ast.FromItem) error {
	if err := p.printLeadingComments(item); err != nil {
		return err
	}
	if err := p.printFromItemBody(item); err != nil {
		return err
	}
	p.printTrailingComments(item)
	return nil
}

func (p *Printer) printFromItemBody(item ast.FromItem) error {
	switch x := item.(type) {
	case *ast.BaseTableRef:
		p.write(p.qualifiedName(x.Schema, "", x.Name))
		p.printAlias(x.Alias, x.ColumnAliases)
	case *ast.SubquerySource:
		if x.Lateral {
			p.writeKw("LATERAL")
			p.space()
		}
		if p.opts.SubqueryOneLine {
			p.write("(")
			if err := p.printStatement(x.Query); err != nil {
				return err
			}
			p.write(")")
		} else {
			p.write("(")
			p.indentIn()
			p.newline()
			if err := p.printStatement(x.Query); err != nil {
				return err
			}
			p.indentOut()
			p.newline()
			p.write(")")
		}
		p.printAlias(x.Alias, x.ColumnAliases)
	case *ast.ValuesSource:
		p.writeKw("VALUES")
		p.space()
		if err := p.printValuesRows(x.Rows); err != nil {
			return err
		}
		p.printAlias(x.Alias, x.ColumnAliases)
	case *ast.FunctionSource:
		if x.Lateral {
			p.writeKw("LATERAL")
			p.space()
		}
		if err := p.printFunctionCall(x.Call); err != nil {
			return err
		}
		p.printAlias(x.Alias, x.ColumnAliases)
	case *ast.Join:
		return p.printJoin(x)
	default:
		return fmt.Errorf("printer: unsupported from-item type %T", item)
	}
	return nil
}

func (p *Printer) printAlias(alias string, colAliases []string) {
	if alias == "" {
		return
	}
	p.space()
	p.writeKw("AS")
	p.space()
	p.write(p.quoteIdent(alias))
	if len(colAliases) > 0 {
		p.write(" (")
		for i, c := range colAliases {
			if i > 0 {
				p.write(", ")
			}
			p.write(p.quoteIdent(c))
		}
		p.write(")")
	}
}

func (p *Printer) printJoin(j *ast.Join) error {
	if err := p.printFromItem(j.Left); err != nil {
		return err
	}
	if !p.opts.JoinOneLine {
		p.newline()
	} else {
		p.space()
	}
	if j.ConditionKind == ast.JoinConditionNatural {
		p.writeKw("NATURAL")
		p.space()
	}
	p.writeKw(j.Kind.String())
	p.space()
	p.writeKw("JOIN")
	p.space()
	if err := p.printFromItem(j.Right); err != nil {
		return err
	}
	switch j.ConditionKind {
	case ast.JoinConditionOn:
		p.space()
		p.writeKw("ON")
		p.space()
		if err := p.printExpr(j.On); err != nil {
			return err
		}
	case ast.JoinConditionUsing:
		p.space()
		p.writeKw("USING")
		p.write(" (")
		p.write(strings.Join(j.UsingColumns, ", "))
		p.write(")")
	}
	return nil
}
