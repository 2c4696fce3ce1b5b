// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoast/reporter"
)

func lexAll(t *testing.T, src string) ([]Token, *reporter.Collector, *Lexer) {
	t.Helper()
	var diags reporter.Collector
	l := NewLexer("test.proto", []byte(src), reporter.NewHandler(&diags, reporter.Permissive), nil)
	var toks []Token
	for {
		tok := l.Next()
		if tok.Kind == TokenEOF {
			return toks, &diags, l
		}
		toks = append(toks, tok)
		require.Less(t, len(toks), 1000, "lexer is not making progress")
	}
}

type expectedToken struct {
	kind      TokenKind
	text      string
	line, col int
	value     any
}

func TestLexer(t *testing.T) {
	t.Parallel()

	src := "// comment\n" +
		"/* block */ syntax = \"proto3\";\n" +
		".foo.bar 12 0x1F 017 1.5 .5e3 1e+2 5f\n" +
		"'it\\'s' \"\\u00e9\\x41\\101\"\n" +
		"{}()[]<>;,:/-+\n"
	toks, diags, l := lexAll(t, src)
	assert.Empty(t, diags.Diagnostics)
	assert.Equal(t, 2, l.Comments())

	expected := []expectedToken{
		{kind: TokenIdent, text: "syntax", line: 2, col: 13},
		{kind: TokenPunct, text: "=", line: 2, col: 20},
		{kind: TokenString, text: `"proto3"`, line: 2, col: 22, value: "proto3"},
		{kind: TokenPunct, text: ";", line: 2, col: 30},
		{kind: TokenPunct, text: ".", line: 3, col: 1},
		{kind: TokenIdent, text: "foo", line: 3, col: 2},
		{kind: TokenPunct, text: ".", line: 3, col: 5},
		{kind: TokenIdent, text: "bar", line: 3, col: 6},
		{kind: TokenInt, text: "12", line: 3, col: 10, value: uint64(12)},
		{kind: TokenInt, text: "0x1F", line: 3, col: 13, value: uint64(31)},
		{kind: TokenInt, text: "017", line: 3, col: 18, value: uint64(15)},
		{kind: TokenFloat, text: "1.5", line: 3, col: 22, value: 1.5},
		{kind: TokenFloat, text: ".5e3", line: 3, col: 26, value: 500.0},
		{kind: TokenFloat, text: "1e+2", line: 3, col: 31, value: 100.0},
		{kind: TokenFloat, text: "5f", line: 3, col: 36, value: 5.0},
		{kind: TokenString, text: `'it\'s'`, line: 4, col: 1, value: "it's"},
		{kind: TokenString, text: `"\u00e9\x41\101"`, line: 4, col: 9, value: "éAA"},
	}
	for i, c := range []byte("{}()[]<>;,:/-+") {
		expected = append(expected, expectedToken{kind: TokenPunct, text: string(c), line: 5, col: i + 1})
	}

	require.Len(t, toks, len(expected))
	for i, exp := range expected {
		tok := toks[i]
		assert.Equal(t, exp.kind, tok.Kind, "case %d: wrong kind", i)
		assert.Equal(t, exp.text, tok.Text, "case %d: wrong text", i)
		assert.Equal(t, exp.line, tok.Span.Start.Line, "case %d: wrong line", i)
		assert.Equal(t, exp.col, tok.Span.Start.Col, "case %d: wrong column", i)
		assert.Equal(t, exp.line, tok.Span.End.Line, "case %d: wrong end line", i)
		switch tok.Kind {
		case TokenInt:
			assert.Equal(t, exp.value, tok.Int, "case %d: wrong value", i)
		case TokenFloat:
			assert.InDelta(t, exp.value, tok.Float, 1e-9, "case %d: wrong value", i)
		case TokenString:
			assert.Equal(t, exp.value, tok.Str, "case %d: wrong value", i)
		}
	}
}

func TestLexerColumnsCountRunes(t *testing.T) {
	t.Parallel()

	toks, diags, _ := lexAll(t, "/* é */ foo")
	assert.Empty(t, diags.Diagnostics)
	require.Len(t, toks, 1)
	assert.Equal(t, 9, toks[0].Span.Start.Col)
	assert.Equal(t, 9, toks[0].Span.Start.Offset)
}

func TestLexerByteOrderMark(t *testing.T) {
	t.Parallel()

	toks, diags, _ := lexAll(t, "\xEF\xBB\xBFsyntax")
	assert.Empty(t, diags.Diagnostics)
	require.Len(t, toks, 1)
	assert.Equal(t, "syntax", toks[0].Text)
	assert.Equal(t, 1, toks[0].Span.Start.Col)
}

func TestLexerEOF(t *testing.T) {
	t.Parallel()

	l := NewLexer("test.proto", []byte("  // only a comment"), nil, nil)
	for range 3 {
		assert.Equal(t, TokenEOF, l.Next().Kind)
	}
}

func TestLexerErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		str    string
		errMsg string
		col    int
	}{
		{str: `0xffffffffffffffffffff`, errMsg: "hexadecimal integer literal out of range"},
		{str: `99999999999999999999`, errMsg: "integer literal out of range"},
		{str: `x "foobar`, errMsg: "unterminated string literal", col: 3},
		{str: "'foobar\n", errMsg: "unterminated string literal"},
		{str: `"foobar\J"`, errMsg: "invalid escape sequence", col: 8},
		{str: `"foobar\xgfoo"`, errMsg: "invalid hex escape", col: 8},
		{str: `"foobar\u09gafoo"`, errMsg: "invalid unicode escape", col: 8},
		{str: `"foobar\U0010005zfoo"`, errMsg: "invalid unicode escape", col: 8},
		{str: `"foobar\U00110000foo"`, errMsg: "unicode escape is out of range", col: 8},
		{str: `"\400"`, errMsg: "octal escape is out of range", col: 2},
		{str: "'foobar\000baz'", errMsg: "null character ('\\0') not allowed", col: 8},
		{str: "\"a\xffb\"", errMsg: "invalid UTF-8 encoding in string literal", col: 3},
		{str: `1.543g12`, errMsg: "invalid float literal"},
		{str: `0.1234.5678`, errMsg: "invalid float literal"},
		{str: `0x987.345aaf`, errMsg: "invalid hexadecimal integer literal"},
		{str: `09`, errMsg: "invalid octal integer literal"},
		{str: `/* foobar`, errMsg: "block comment never terminates"},
		{str: `#`, errMsg: `illegal character "#"`},
		{str: "\xff", errMsg: "invalid UTF-8 encoding"},
	}
	for _, tc := range testCases {
		t.Run(tc.str, func(t *testing.T) {
			t.Parallel()
			toks, diags, _ := lexAll(t, tc.str)
			require.Len(t, diags.Diagnostics, 1)
			diag := diags.Diagnostics[0]
			assert.Equal(t, reporter.KindLexical, diag.Kind)
			assert.Equal(t, reporter.SeverityError, diag.Severity)
			assert.Contains(t, diag.Message(), tc.errMsg)
			wantCol := tc.col
			if wantCol == 0 {
				wantCol = 1
			}
			assert.Equal(t, wantCol, diag.Column())
			var errToks int
			for _, tok := range toks {
				if tok.Kind == TokenError {
					errToks++
				}
			}
			assert.Equal(t, 1, errToks)
		})
	}
}

func TestLexerResumesAfterError(t *testing.T) {
	t.Parallel()

	toks, diags, _ := lexAll(t, "a \"oops\nb # c")
	require.Len(t, diags.Diagnostics, 2)
	var idents []string
	for _, tok := range toks {
		if tok.Kind == TokenIdent {
			idents = append(idents, tok.Text)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, idents)
	assert.Equal(t, 2, diags.Diagnostics[1].Line())
	assert.Equal(t, 3, diags.Diagnostics[1].Column())
}

func TestLexerReset(t *testing.T) {
	t.Parallel()

	src := "\xEF\xBB\xBFsyntax = \"proto3\";\nmessage Foo {}\n"
	l := NewLexer("test.proto", []byte(src), nil, nil)
	l.Reset(len("syntax = \"proto3\";\n"))
	tok := l.Next()
	assert.Equal(t, "message", tok.Text)
	assert.Equal(t, 2, tok.Span.Start.Line)
	assert.Equal(t, 1, tok.Span.Start.Col)
	tok = l.Next()
	assert.Equal(t, "Foo", tok.Text)
	assert.Equal(t, 9, tok.Span.Start.Col)

	l.Reset(-5)
	assert.Equal(t, "syntax", l.Next().Text)
	l.Reset(len(src) * 2)
	assert.Equal(t, TokenEOF, l.Next().Kind)
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	assert.True(t, IsKeyword("message"))
	assert.True(t, IsKeyword("max"))
	assert.False(t, IsKeyword("group"))
	assert.False(t, IsKeyword("int32"))
	assert.Equal(t, `keyword "message"`, Token{Kind: TokenIdent, Text: "message"}.Describe())
	assert.Equal(t, `identifier "foo"`, Token{Kind: TokenIdent, Text: "foo"}.Describe())
	assert.Equal(t, `";"`, Token{Kind: TokenPunct, Text: ";"}.Describe())
}
