package printer

import (
	"strings"

	"github.com/sqlxform/sqlxform/ast"
	"github.com/sqlxform/sqlxform/token"
)

func (p *Printer) printLeadingComments(n ast.Node) error {
	if !p.opts.ExportComment {
		return nil
	}
	for _, c := range n.Comments() {
		if c.Position != token.Before {
			continue
		}
		p.write(p.renderComment(c))
		p.newline()
	}
	return nil
}

func (p *Printer) printTrailingComments(n ast.Node) {
	if !p.opts.ExportComment {
		return
	}
	for _, c := range n.Comments() {
		if c.Position != token.After {
			continue
		}
		p.space()
		p.write(p.renderComment(c))
	}
}

// renderComment spells c under the configured CommentStyle. Smart mode
// keeps a standalone comment (block-original, now on its own line) as a
// block comment, and renders anything else - including a comment that
// started as a line comment - as a trailing line comment, since that is
// the only form that can't accidentally swallow the rest of the line.
func (p *Printer) renderComment(c token.AttachedComment) string {
	text := strings.TrimSpace(c.Text)
	switch p.opts.CommentStyle {
	case CommentBlock:
		return "/* " + text + " */"
	case CommentLine:
		return blockTextAsLines(text)
	default: // CommentSmart
		if c.Block && strings.Contains(text, "\n") {
			return "/* " + text + " */"
		}
		return blockTextAsLines(text)
	}
}

func blockTextAsLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "-- " + strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
