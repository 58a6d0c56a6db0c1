/*
File    : go-ifj21/lexer/lexer_test.go
*/
package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifjlab/go-ifj21/errs"
)

// collect scans the whole input, failing the test on a lexical error.
func collect(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewString(src)
	var tokens []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

type tokenCase struct {
	Input    string
	Expected []Kind
}

func TestLexer_Operators(t *testing.T) {
	tests := []tokenCase{
		{`+ - * / // % ^`, []Kind{Plus, Minus, Asterisk, Slash, DoubleSlash, Percent, Caret}},
		{`< <= > >= == ~= =`, []Kind{Lt, Lte, Gt, Gte, DoubleEq, TildeEq, Equals}},
		{`( ) , : # ..`, []Kind{LParen, RParen, Comma, Colon, Hash, DoubleDot}},
		{`<=<`, []Kind{Lte, Lt}},
		{`a--b`, []Kind{Identifier}}, // "--b" starts a line comment
	}
	for _, tc := range tests {
		assert.Equal(t, tc.Expected, kinds(collect(t, tc.Input)), "input: %s", tc.Input)
	}
}

func TestLexer_KeywordsAndIdentifiers(t *testing.T) {
	tokens := collect(t, `if elseif else then end do while repeat until for break return function local global require and or not`)
	assert.Equal(t, []Kind{
		If, Elseif, Else, Then, End, Do, While, Repeat, Until, For, Break,
		Return, Function, Local, Global, Require, And, Or, Not,
	}, kinds(tokens))

	tokens = collect(t, `foo _bar baz9 If functions`)
	assert.Equal(t, []Kind{Identifier, Identifier, Identifier, Identifier, Identifier}, kinds(tokens))
	assert.Equal(t, "foo", tokens[0].Str)
	assert.Equal(t, "If", tokens[3].Str)
	assert.Equal(t, "functions", tokens[4].Str)
}

func TestLexer_TypeKeywords(t *testing.T) {
	tokens := collect(t, `integer number string boolean nil`)
	assert.Equal(t, []Kind{TypeKw, TypeKw, TypeKw, TypeKw, Nil}, kinds(tokens))
	assert.Equal(t, TypeInteger, tokens[0].Type)
	assert.Equal(t, TypeNumber, tokens[1].Type)
	assert.Equal(t, TypeString, tokens[2].Type)
	assert.Equal(t, TypeBool, tokens[3].Type)
}

func TestLexer_Numbers(t *testing.T) {
	tokens := collect(t, `0 42 007 3.14 0.5 1e3 1E3 2.5e-2 7e+2`)
	assert.Equal(t, []Kind{
		Integer, Integer, Integer, Number, Number, Number, Number, Number, Number,
	}, kinds(tokens))
	assert.Equal(t, int64(0), tokens[0].Int)
	assert.Equal(t, int64(42), tokens[1].Int)
	assert.Equal(t, int64(7), tokens[2].Int)
	assert.InDelta(t, 3.14, tokens[3].Num, 1e-12)
	assert.InDelta(t, 1000.0, tokens[5].Num, 1e-12)
	assert.InDelta(t, 0.025, tokens[7].Num, 1e-12)
	assert.InDelta(t, 700.0, tokens[8].Num, 1e-12)
}

func TestLexer_Strings(t *testing.T) {
	tokens := collect(t, `"hello" "a\nb" "t\tt" "q\"q" "b\\b" "x\065x" ""`)
	assert.Equal(t, []Kind{String, String, String, String, String, String, String}, kinds(tokens))
	assert.Equal(t, "hello", tokens[0].Str)
	assert.Equal(t, "a\nb", tokens[1].Str)
	assert.Equal(t, "t\tt", tokens[2].Str)
	assert.Equal(t, `q"q`, tokens[3].Str)
	assert.Equal(t, `b\b`, tokens[4].Str)
	assert.Equal(t, "xAx", tokens[5].Str)
	assert.Equal(t, "", tokens[6].Str)
}

func TestLexer_Comments(t *testing.T) {
	tokens := collect(t, "a -- comment\nb --[[ block\ncomment ]] c")
	assert.Equal(t, []Kind{Identifier, Identifier, Identifier}, kinds(tokens))
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{tokens[0].Str, tokens[1].Str, tokens[2].Str})
}

func TestLexer_Positions(t *testing.T) {
	tokens := collect(t, "ab cd\n  ef")
	require.Len(t, tokens, 3)
	assert.Equal(t, 1, tokens[0].Row)
	assert.Equal(t, 1, tokens[0].Column)
	assert.Equal(t, 1, tokens[1].Row)
	assert.Equal(t, 4, tokens[1].Column)
	assert.Equal(t, 2, tokens[2].Row)
	assert.Equal(t, 3, tokens[2].Column)
}

func TestLexer_RowTracksNewlinesInStrings(t *testing.T) {
	lex := NewString("\"two\nlines\" x")
	tok, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, String, tok.Kind)

	tok, err = lex.Next()
	require.NoError(t, err)
	assert.Equal(t, Identifier, tok.Kind)
	assert.Equal(t, 2, tok.Row)
}

type errorCase struct {
	Input string
}

func TestLexer_Errors(t *testing.T) {
	tests := []errorCase{
		{`1e`},          // exponent without digits
		{`1.2e+`},       // signed exponent without digits
		{`"unclosed`},   // unterminated string
		{`"bad \q esc"`}, // unknown escape
		{`"zero \000"`}, // escape value out of range
		{`"high \256"`}, // escape value out of range
		{`"short \12"`}, // truncated decimal escape
		{`~`},           // lone tilde
		{`.`},           // lone dot
		{`--[[ open`},   // unterminated block comment
		{`@`},           // unknown character
	}
	for _, tc := range tests {
		lex := NewString(tc.Input)
		var err error
		for {
			var tok Token
			tok, err = lex.Next()
			if err != nil || tok.Kind == EOF {
				break
			}
		}
		require.Error(t, err, "input: %s", tc.Input)
		assert.Equal(t, errs.KindLex, errs.KindOf(err), "input: %s", tc.Input)
	}
}

func TestLexer_Pushback(t *testing.T) {
	lex := NewString("a b c")

	first, err := lex.Next()
	require.NoError(t, err)
	second, err := lex.Next()
	require.NoError(t, err)

	// two tokens can be pushed back, a third cannot
	require.NoError(t, lex.Unget())
	require.NoError(t, lex.Unget())
	assert.Error(t, lex.Unget())

	again, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	again, err = lex.Next()
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestLexer_MinusVersusComment(t *testing.T) {
	tokens := collect(t, "a - b")
	assert.Equal(t, []Kind{Identifier, Minus, Identifier}, kinds(tokens))

	tokens = collect(t, "a -b")
	assert.Equal(t, []Kind{Identifier, Minus, Identifier}, kinds(tokens))
}
