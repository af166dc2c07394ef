package parser

import (
	pc "github.com/shibukawa/parsercombinator"

	"github.com/sqlxform/sqlxform/token"
)

// This file wires github.com/shibukawa/parsercombinator into one
// bounded clause fragment, the ON CONFLICT target, the same way the teacher
// uses it for its own clause sub-grammars (parser/parsercommon and
// parser/parserstep4): a small set of PrimitiveType/KeywordType atoms
// combined with Seq/Or/Optional/ZeroOrMore, run over a short slice of
// lookahead tokens rather than the whole statement. The bulk of
// statement/clause structure stays hand-written recursive descent per
// spec.md's Pratt-loop requirement; parsercombinator covers only the
// grammar below, where a small composable grammar reads more
// clearly than another run of if/switch lookahead.

// toParserTokens mirrors the teacher's parsercommon.ToParserToken: it
// lifts a plain token slice into the combinator library's own token
// wrapper so Seq/Or/etc. can run over it.
func toParserTokens(toks []token.Token) []pc.Token[token.Token] {
	out := make([]pc.Token[token.Token], len(toks))
	for i, t := range toks {
		out[i] = pc.Token[token.Token]{
			Type: t.Kind.String(),
			Pos:  &pc.Pos{Line: t.Span.Start.Line, Col: t.Span.Start.Column},
			Val:  t,
		}
	}
	return out
}

// kindAtom matches a single token of the given Kind.
func kindAtom(name string, kind token.Kind) pc.Parser[token.Token] {
	return func(pctx *pc.ParseContext[token.Token], toks []pc.Token[token.Token]) (int, []pc.Token[token.Token], error) {
		if len(toks) > 0 && toks[0].Val.Kind == kind {
			return 1, toks[:1], nil
		}
		return 0, nil, pc.ErrNotMatch
	}
}

// keywordAtom matches a single Keyword token whose text equals one of
// words, case-insensitively.
func keywordAtom(words ...string) pc.Parser[token.Token] {
	return func(pctx *pc.ParseContext[token.Token], toks []pc.Token[token.Token]) (int, []pc.Token[token.Token], error) {
		if len(toks) == 0 || toks[0].Val.Kind != token.Keyword {
			return 0, nil, pc.ErrNotMatch
		}
		if eqFoldAny(toks[0].Val.Text, words) {
			return 1, toks[:1], nil
		}
		return 0, nil, pc.ErrNotMatch
	}
}

// punctAtom matches a single Punctuation token with the given text.
func punctAtom(text string) pc.Parser[token.Token] {
	return func(pctx *pc.ParseContext[token.Token], toks []pc.Token[token.Token]) (int, []pc.Token[token.Token], error) {
		if len(toks) > 0 && toks[0].Val.Kind == token.Punctuation && toks[0].Val.Text == text {
			return 1, toks[:1], nil
		}
		return 0, nil, pc.ErrNotMatch
	}
}

var (
	identifierAtom = kindAtom("identifier", token.Identifier)
	onAtom         = keywordAtom("ON")
	constraintAtom = keywordAtom("CONSTRAINT")
)

// onConflictTargetGrammar recognizes the two shapes an ON CONFLICT
// target may take: "ON CONSTRAINT name", or a bare "(" that introduces a
// conflict_target column list. It is consulted as a lookahead
// classifier; the actual column/constraint-name consumption still goes
// through the cursor so span/comment bookkeeping stays uniform with the
// rest of the parser.
var onConflictTargetGrammar = pc.Or(
	pc.Seq(onAtom, constraintAtom, identifierAtom),
	punctAtom("("),
)

// classifyOnConflictTarget reports which shape, if any, the upcoming
// tokens match, without consuming from the cursor.
func classifyOnConflictTarget(lookahead []token.Token) (matchedConstraint, matchedParen bool) {
	pctx := pc.NewParseContext[token.Token]()
	pToks := toParserTokens(lookahead)
	consume, _, err := onConflictTargetGrammar(pctx, pToks)
	if err != nil || consume == 0 {
		return false, false
	}
	if pToks[0].Val.Kind == token.Punctuation {
		return false, true
	}
	return true, false
}
