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
	"fmt"

	"github.com/bufbuild/protoast/ast"
)

// TokenKind identifies the category of a Token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenInt
	TokenFloat
	TokenString
	TokenPunct
	// TokenError is a malformed token. The lexer has already reported a
	// diagnostic for it.
	TokenError
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return "identifier"
	case TokenInt:
		return "integer literal"
	case TokenFloat:
		return "float literal"
	case TokenString:
		return "string literal"
	case TokenPunct:
		return "punctuation"
	case TokenError:
		return "invalid token"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Token is a single lexical element of a source file.
type Token struct {
	Kind TokenKind
	// Text is the token exactly as written in the source.
	Text string
	Span ast.Span

	// Int is the value of a TokenInt.
	Int uint64
	// Float is the value of a TokenFloat.
	Float float64
	// Str is the decoded value of a TokenString, with escapes processed.
	Str string
}

// IsPunct reports whether t is the punctuation character c.
func (t Token) IsPunct(c byte) bool {
	return t.Kind == TokenPunct && len(t.Text) == 1 && t.Text[0] == c
}

// IsIdent reports whether t is the identifier (or keyword) s.
func (t Token) IsIdent(s string) bool {
	return t.Kind == TokenIdent && t.Text == s
}

// Describe returns a description of t for use in diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		if keywords[t.Text] {
			return fmt.Sprintf("keyword %q", t.Text)
		}
		return fmt.Sprintf("identifier %q", t.Text)
	case TokenPunct:
		return fmt.Sprintf("%q", t.Text)
	case TokenInt, TokenFloat:
		return fmt.Sprintf("%s %s", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// keywords are the identifiers that have meaning to the grammar. They are
// not reserved: any of them may also be used as a name.
var keywords = map[string]bool{
	"syntax":     true,
	"import":     true,
	"weak":       true,
	"public":     true,
	"package":    true,
	"option":     true,
	"message":    true,
	"enum":       true,
	"service":    true,
	"rpc":        true,
	"returns":    true,
	"reserved":   true,
	"extend":     true,
	"extensions": true,
	"to":         true,
	"max":        true,
	"oneof":      true,
	"map":        true,
	"repeated":   true,
	"optional":   true,
	"required":   true,
	"default":    true,
	"stream":     true,
	"true":       true,
	"false":      true,
}

// IsKeyword reports whether s is one of the identifiers with meaning to the
// grammar.
func IsKeyword(s string) bool {
	return keywords[s]
}
