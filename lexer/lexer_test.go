package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlxform/sqlxform/sqlerrs"
	"github.com/sqlxform/sqlxform/token"
)

func kinds(t []token.Token) []token.Kind {
	out := make([]token.Kind, len(t))
	for i, tok := range t {
		out[i] = tok.Kind
	}
	return out
}

func texts(t []token.Token) []string {
	out := make([]string, len(t))
	for i, tok := range t {
		out[i] = tok.Text
	}
	return out
}

func TestTokenize_SimpleSelect(t *testing.T) {
	toks, err := Tokenize("SELECT id, name FROM users WHERE id = 1")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, "SELECT", toks[0].Text)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestTokenize_QuotedIdentifier(t *testing.T) {
	toks, err := Tokenize(`SELECT "my col" FROM "My Table"`)
	require.NoError(t, err)
	assert.Contains(t, texts(toks), `"my col"`)
	assert.Contains(t, texts(toks), `"My Table"`)
}

func TestTokenize_QuotedIdentifierEscapedQuote(t *testing.T) {
	toks, err := Tokenize(`SELECT "a""b" FROM t`)
	require.NoError(t, err)
	assert.Contains(t, texts(toks), `"a""b"`)
}

func TestTokenize_StringLiteralEscapedQuote(t *testing.T) {
	toks, err := Tokenize(`SELECT 'it''s' FROM t`)
	require.NoError(t, err)
	assert.Contains(t, texts(toks), `'it''s'`)
}

func TestTokenize_EscapeStringLiteral(t *testing.T) {
	toks, err := Tokenize(`SELECT E'a\nb' FROM t`)
	require.NoError(t, err)
	assert.Contains(t, texts(toks), `E'a\nb'`)
}

func TestTokenize_DollarQuotedLiteral(t *testing.T) {
	toks, err := Tokenize(`SELECT $$hello 'world'$$ FROM t`)
	require.NoError(t, err)
	found := false
	for _, tx := range texts(toks) {
		if tx == "$$hello 'world'$$" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTokenize_DollarQuotedLiteralWithTag(t *testing.T) {
	toks, err := Tokenize(`SELECT $tag$a $$ b$tag$ FROM t`)
	require.NoError(t, err)
	assert.Contains(t, texts(toks), `$tag$a $$ b$tag$`)
}

func TestTokenize_UnterminatedStringReturnsLexError(t *testing.T) {
	_, err := Tokenize(`SELECT 'unterminated FROM t`)
	require.Error(t, err)
	var lexErr *sqlerrs.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.ErrorIs(t, lexErr, sqlerrs.ErrUnterminatedString)
}

func TestTokenize_Numbers(t *testing.T) {
	toks, err := Tokenize("SELECT 1, 1.5, .5, 1e10, 1.5e-10 FROM t")
	require.NoError(t, err)
	var nums []string
	for _, tok := range toks {
		if tok.Kind == token.NumericLiteral {
			nums = append(nums, tok.Text)
		}
	}
	assert.Equal(t, []string{"1", "1.5", ".5", "1e10", "1.5e-10"}, nums)
}

func TestTokenize_Parameters(t *testing.T) {
	toks, err := Tokenize("SELECT ?, $1, :name, @name FROM t")
	require.NoError(t, err)
	var params []string
	for _, tok := range toks {
		if tok.Kind == token.Parameter {
			params = append(params, tok.Text)
		}
	}
	assert.Equal(t, []string{"?", "$1", ":name", "@name"}, params)
}

func TestTokenize_Operators_LongestMatch(t *testing.T) {
	toks, err := Tokenize("a <= b AND c <> d AND e || f AND g::int")
	require.NoError(t, err)
	var ops []string
	for _, tok := range toks {
		if tok.Kind == token.Operator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"<=", "<>", "||", "::"}, ops)
}

func TestTokenize_LineCommentAttachedAfterSameLine(t *testing.T) {
	toks, err := Tokenize("SELECT id -- trailing\nFROM t")
	require.NoError(t, err)
	var idTok token.Token
	for _, tok := range toks {
		if tok.Text == "id" {
			idTok = tok
		}
	}
	require.NotEmpty(t, idTok.AttachedComments)
	assert.Equal(t, token.After, idTok.AttachedComments[0].Position)
	assert.Equal(t, "-- trailing", idTok.AttachedComments[0].Text)
}

func TestTokenize_LineCommentAttachedBeforeOnOwnLine(t *testing.T) {
	toks, err := Tokenize("SELECT id\n-- leading\nFROM t")
	require.NoError(t, err)
	var fromTok token.Token
	for _, tok := range toks {
		if tok.Text == "FROM" {
			fromTok = tok
		}
	}
	require.NotEmpty(t, fromTok.AttachedComments)
	assert.Equal(t, token.Before, fromTok.AttachedComments[0].Position)
}

func TestTokenize_BlockCommentNesting(t *testing.T) {
	toks, err := Tokenize("SELECT /* outer /* inner */ still-outer */ id FROM t")
	require.NoError(t, err)
	var idTok token.Token
	for _, tok := range toks {
		if tok.Text == "id" {
			idTok = tok
		}
	}
	require.NotEmpty(t, idTok.AttachedComments)
	assert.True(t, idTok.AttachedComments[0].Block)
}

func TestTokenize_KeywordCaseInsensitive(t *testing.T) {
	toks, err := Tokenize("select Id from Users")
	require.NoError(t, err)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, "select", toks[0].Text)
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize("SELECT\n  id")
	require.NoError(t, err)
	var idTok token.Token
	for _, tok := range toks {
		if tok.Text == "id" {
			idTok = tok
		}
	}
	assert.Equal(t, 2, idTok.Span.Start.Line)
}
