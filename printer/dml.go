package printer

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
)

func (p *Printer) printInsert(ins *ast.Insert) error {
	if ins.With != nil {
		if err := p.printWithClause(ins.With); err != nil {
			return err
		}
		p.newline()
	}
	p.writeKw("INSERT INTO")
	p.space()
	p.write(p.qualifiedName(ins.Table.Schema, "", ins.Table.Name))
	if len(ins.Columns) > 0 {
		p.write(" (")
		cols := make([]string, len(ins.Columns))
		for i, c := range ins.Columns {
			cols[i] = p.quoteIdent(c)
		}
		p.write(p.joinBreak(cols, ",", p.opts.CommaBreak, p.opts.InsertColumnsOneLine))
		p.write(")")
	}
	p.newline()
	if ins.Select != nil {
		if err := p.printStatement(ins.Select); err != nil {
			return err
		}
	} else {
		p.writeKw("VALUES")
		p.space()
		if err := p.printValuesRows(ins.ValuesRows); err != nil {
			return err
		}
	}
	if ins.OnConflict != nil {
		p.newline()
		if err := p.printOnConflict(ins.OnConflict); err != nil {
			return err
		}
	}
	if ins.Returning != nil {
		p.newline()
		if err := p.printReturning(ins.Returning); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printOnConflict(oc *ast.OnConflict) error {
	p.writeKw("ON CONFLICT")
	if len(oc.TargetColumns) > 0 {
		p.write(" (")
		p.write(strings.Join(oc.TargetColumns, ", "))
		p.write(")")
	} else if oc.TargetConstraint != "" {
		p.space()
		p.writeKw("ON CONSTRAINT")
		p.space()
		p.write(oc.TargetConstraint)
	}
	p.space()
	if oc.Action == ast.ConflictDoNothing {
		p.writeKw("DO NOTHING")
		return nil
	}
	p.writeKw("DO UPDATE SET")
	p.space()
	if err := p.printSetItems(oc.SetItems); err != nil {
		return err
	}
	if oc.Where != nil {
		p.newline()
		p.writeKw("WHERE")
		p.space()
		if err := p.printExpr(oc.Where); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printSetItems(items []ast.SetItem) error {
	rendered := make([]string, len(items))
	for i, it := range items {
		sub := p.sub()
		sub.write(sub.quoteIdent(it.Column))
		sub.write(" = ")
		if err := sub.printExpr(it.Value); err != nil {
			return err
		}
		rendered[i] = sub.buf.String()
	}
	p.write(p.joinBreak(rendered, ",", p.opts.CommaBreak, false))
	return nil
}

func (p *Printer) printReturning(r *ast.ReturningClause) error {
	p.writeKw("RETURNING")
	p.space()
	items := make([]string, len(r.Items))
	for i, item := range r.Items {
		rendered, err := p.renderSelectItem(item)
		if err != nil {
			return err
		}
		items[i] = rendered
	}
	p.write(strings.Join(items, ", "))
	return nil
}

func (p *Printer) printUpdate(upd *ast.Update) error {
	if upd.With != nil {
		if err := p.printWithClause(upd.With); err != nil {
			return err
		}
		p.newline()
	}
	p.writeKw("UPDATE")
	p.space()
	p.write(p.qualifiedName(upd.Table.Schema, "", upd.Table.Name))
	p.printAlias(upd.Table.Alias, nil)
	p.newline()
	p.writeKw("SET")
	p.space()
	if err := p.printSetItems(upd.SetItems); err != nil {
		return err
	}
	if upd.From != nil {
		p.newline()
		p.writeKw("FROM")
		p.space()
		if err := p.printFromItem(upd.From.Item); err != nil {
			return err
		}
	}
	if upd.Where != nil {
		p.newline()
		p.writeKw("WHERE")
		p.space()
		if err := p.printExpr(upd.Where.Condition); err != nil {
			return err
		}
	}
	if upd.Returning != nil {
		p.newline()
		if err := p.printReturning(upd.Returning); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printDelete(del *ast.Delete) error {
	if del.With != nil {
		if err := p.printWithClause(del.With); err != nil {
			return err
		}
		p.newline()
	}
	p.writeKw("DELETE FROM")
	p.space()
	p.write(p.qualifiedName(del.Table.Schema, "", del.Table.Name))
	p.printAlias(del.Table.Alias, nil)
	if del.Using != nil {
		p.newline()
		p.writeKw("USING")
		p.space()
		if err := p.printFromItem(del.Using.Item); err != nil {
			return err
		}
	}
	if del.Where != nil {
		p.newline()
		p.writeKw("WHERE")
		p.space()
		if err := p.printExpr(del.Where.Condition); err != nil {
			return err
		}
	}
	if del.Returning != nil {
		p.newline()
		if err := p.printReturning(del.Returning); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printMerge(m *ast.Merge) error {
	p.writeKw("MERGE INTO")
	p.space()
	p.write(p.qualifiedName(m.Target.Schema, "", m.Target.Name))
	p.printAlias(m.Target.Alias, nil)
	p.newline()
	p.writeKw("USING")
	p.space()
	if err := p.printFromItem(m.Using); err != nil {
		return err
	}
	p.space()
	p.writeKw("ON")
	p.space()
	if err := p.printExpr(m.On); err != nil {
		return err
	}
	for _, action := range m.Actions {
		p.newline()
		if err := p.printMergeAction(action); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printMergeAction(a ast.MergeAction) error {
	p.writeKw("WHEN")
	p.space()
	switch a.MatchKind {
	case ast.MergeMatched:
		p.writeKw("MATCHED")
	case ast.MergeNotMatchedBySource:
		p.writeKw("NOT MATCHED BY SOURCE")
	default:
		p.writeKw("NOT MATCHED")
	}
	if a.Condition != nil {
		p.space()
		p.writeKw("AND")
		p.space()
		if err := p.printExpr(a.Condition); err != nil {
			return err
		}
	}
	p.space()
	p.writeKw("THEN")
	p.space()
	switch a.Action {
	case ast.MergeActionUpdate:
		p.writeKw("UPDATE SET")
		p.space()
		return p.printSetItems(a.SetItems)
	case ast.MergeActionDelete:
		p.writeKw("DELETE")
	case ast.MergeActionInsert:
		p.writeKw("INSERT")
		if len(a.Columns) > 0 {
			p.write(" (")
			p.write(strings.Join(a.Columns, ", "))
			p.write(")")
		}
		p.space()
		p.writeKw("VALUES")
		p.write(" (")
		if err := p.printExprList(a.Values); err != nil {
			return err
		}
		p.write(")")
	default:
		p.writeKw("DO NOTHING")
	}
	return nil
}
