package scanner_test

import (
	"testing"

	"github.com/loxlang/loxvm/lang/scanner"
	"github.com/loxlang/loxvm/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s scanner.Scanner
	s.Init(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){};,.+-*/ ! != = == < <= > >=")
	kinds := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL, token.LESS,
		token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL, token.EOF,
	}
	assert.Equal(t, want, kinds)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "class Breakfast fun super this or orchid")
	require.Len(t, toks, 8)
	assert.Equal(t, token.CLASS, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "Breakfast", toks[1].Lexeme)
	assert.Equal(t, token.FUN, toks[2].Kind)
	assert.Equal(t, token.SUPER, toks[3].Kind)
	assert.Equal(t, token.THIS, toks[4].Kind)
	assert.Equal(t, token.OR, toks[5].Kind)
	assert.Equal(t, token.IDENT, toks[6].Kind, "orchid is not the keyword or")
	assert.Equal(t, token.EOF, toks[7].Kind)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "123 45.67 0")
	require.Len(t, toks, 4)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "45.67", toks[1].Lexeme)
	assert.Equal(t, "0", toks[2].Lexeme)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"unterminated`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanIllegalCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanLineComments(t *testing.T) {
	toks := scanAll(t, "1 // comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanBlockComments(t *testing.T) {
	toks := scanAll(t, "1 /* a\nb */ 2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanNestedBlockComments(t *testing.T) {
	toks := scanAll(t, "1 /* outer /* inner */ still-comment */ 2")
	require.Len(t, toks, 3)
	assert.Equal(t, "2", toks[1].Lexeme)
}

func TestScanTracksLineNumbers(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;")
	var lines []int
	for _, tk := range toks {
		lines = append(lines, tk.Line)
	}
	assert.Equal(t, []int{1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2}, lines)
}
