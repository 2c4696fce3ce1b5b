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
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/logging"
	"github.com/bufbuild/protoast/reporter"
)

const punctuation = "{}()[];,.=<>-+:/"

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// Lexer converts source text into a sequence of tokens. Malformed tokens are
// reported to the handler as lexical errors and returned as a single token
// of kind TokenError, after which scanning resumes.
type Lexer struct {
	info    *ast.FileInfo
	data    []byte
	pos     int
	handler *reporter.Handler
	log     *logging.Logger

	comments int
}

// NewLexer creates a lexer for the given file contents. A leading UTF-8 byte
// order mark is skipped. The logger may be nil.
func NewLexer(filename string, data []byte, handler *reporter.Handler, logger *slog.Logger) *Lexer {
	data = bytes.TrimPrefix(data, utf8Bom)
	if handler == nil {
		handler = reporter.NewHandler(nil, reporter.Permissive)
	}
	return &Lexer{
		info:    ast.NewFileInfo(filename, data),
		data:    data,
		handler: handler,
		log:     logging.Wrap(logger),
	}
}

// Reset moves the lexer to the given byte offset of Info().Data(), which
// excludes any byte order mark. Offsets outside the data are clamped. The
// positions of later tokens are still relative to the start of the file.
func (l *Lexer) Reset(offset int) {
	l.pos = min(max(offset, 0), len(l.data))
}

// Info returns the file info for the source being scanned.
func (l *Lexer) Info() *ast.FileInfo {
	return l.info
}

// Comments returns the number of comments skipped so far.
func (l *Lexer) Comments() int {
	return l.comments
}

// Next scans and returns the next token. Once the end of input is reached,
// every call returns a TokenEOF.
func (l *Lexer) Next() Token {
	tok := l.next()
	if l.log.TraceEnabled() {
		l.log.Trace("token",
			slog.String("kind", tok.Kind.String()),
			slog.String("text", tok.Text),
			slog.String("pos", tok.Span.Start.String()),
		)
	}
	return tok
}

func (l *Lexer) next() Token {
	for {
		if l.pos >= len(l.data) {
			return l.token(TokenEOF, l.pos)
		}
		start := l.pos
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
			continue
		case c == '/' && l.peekByte(1) == '/':
			l.skipLineComment()
			l.comments++
			continue
		case c == '/' && l.peekByte(1) == '*':
			if !l.skipBlockComment() {
				return l.errorToken(start, l.info.Span(start, start+2), errors.New("block comment never terminates, unexpected EOF"))
			}
			l.comments++
			continue
		case isLetter(c):
			l.readIdentifier()
			return l.token(TokenIdent, start)
		case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
			return l.readNumber(start)
		case c == '"' || c == '\'':
			return l.readStringLiteral(start, c)
		case strings.IndexByte(punctuation, c) >= 0:
			l.pos++
			return l.token(TokenPunct, start)
		default:
			return l.readIllegal(start)
		}
	}
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n >= len(l.data) {
		return 0
	}
	return l.data[l.pos+n]
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	return Token{
		Kind: kind,
		Text: string(l.data[start:l.pos]),
		Span: l.info.Span(start, l.pos),
	}
}

// errorToken reports err at span and returns an error token covering the
// source from start to the current position.
func (l *Lexer) errorToken(start int, span ast.Span, err error) Token {
	// The parser checks the handler after every token, so the abort error
	// can be ignored here.
	_ = l.handler.HandleError(reporter.KindLexical, span, err)
	return l.token(TokenError, start)
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.data) && l.data[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) skipBlockComment() bool {
	l.pos += 2
	end := bytes.Index(l.data[l.pos:], []byte("*/"))
	if end < 0 {
		l.pos = len(l.data)
		return false
	}
	l.pos += end + 2
	return true
}

func (l *Lexer) readIdentifier() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if !isLetter(c) && !isDigit(c) {
			return
		}
		l.pos++
	}
}

func (l *Lexer) readNumber(start int) Token {
	hex := l.data[l.pos] == '0' && (l.peekByte(1) == 'x' || l.peekByte(1) == 'X')
	allowExpSign := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if (c == '-' || c == '+') && !allowExpSign {
			break
		}
		allowExpSign = false
		if c != '.' && c != '_' && !isLetter(c) && !isDigit(c) && c != '-' && c != '+' {
			// no more chars in the number token
			break
		}
		if (c == 'e' || c == 'E') && !hex {
			// scientific notation char can be followed by
			// an exponent sign
			allowExpSign = true
		}
		l.pos++
	}
	tok := l.token(TokenInt, start)
	text := tok.Text
	switch {
	case hex:
		ui, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return l.errorToken(start, tok.Span, numError(err, "hexadecimal integer", text))
		}
		tok.Int = ui
	case strings.ContainsAny(text, ".eEfF"):
		floatText := text
		if last := text[len(text)-1]; last == 'f' || last == 'F' {
			floatText = text[:len(text)-1]
		}
		f, err := strconv.ParseFloat(floatText, 64)
		if err != nil || strings.ContainsAny(floatText, "_xXpPnN") {
			if err == nil {
				err = strconv.ErrSyntax
			}
			return l.errorToken(start, tok.Span, numError(err, "float", text))
		}
		tok.Kind = TokenFloat
		tok.Float = f
	case len(text) > 1 && text[0] == '0':
		ui, err := strconv.ParseUint(text[1:], 8, 64)
		if err != nil {
			return l.errorToken(start, tok.Span, numError(err, "octal integer", text))
		}
		tok.Int = ui
	default:
		ui, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return l.errorToken(start, tok.Span, numError(err, "integer", text))
		}
		tok.Int = ui
	}
	return tok
}

func numError(err error, kind, s string) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%s literal out of range: %s", kind, s)
	}
	// syntax error
	return fmt.Errorf("invalid %s literal: %s", kind, s)
}

func (l *Lexer) readStringLiteral(start int, quote byte) Token {
	l.pos++
	var buf strings.Builder
	var firstErr error
	var errSpan ast.Span
	fail := func(from int, err error) {
		if firstErr == nil {
			firstErr = err
			errSpan = l.info.Span(from, l.pos)
		}
	}
	for {
		if l.pos >= len(l.data) || l.data[l.pos] == '\n' {
			// Resume at the newline.
			return l.errorToken(start, l.info.Span(start, l.pos), errors.New("unterminated string literal"))
		}
		c := l.data[l.pos]
		switch {
		case c == quote:
			l.pos++
			if firstErr != nil {
				return l.errorToken(start, errSpan, firstErr)
			}
			tok := l.token(TokenString, start)
			tok.Str = buf.String()
			return tok
		case c == 0:
			l.pos++
			fail(l.pos-1, errors.New("null character ('\\0') not allowed in string literal"))
		case c == '\\':
			escStart := l.pos
			l.pos++
			if l.pos >= len(l.data) || l.data[l.pos] == '\n' {
				continue
			}
			if err := l.readEscape(&buf); err != nil {
				fail(escStart, err)
			}
		default:
			r, sz := utf8.DecodeRune(l.data[l.pos:])
			l.pos += sz
			if r == utf8.RuneError && sz == 1 {
				fail(l.pos-1, errors.New("invalid UTF-8 encoding in string literal"))
				continue
			}
			buf.WriteRune(r)
		}
	}
}

// readEscape decodes the escape sequence following a backslash.
func (l *Lexer) readEscape(buf *strings.Builder) error {
	c := l.data[l.pos]
	l.pos++
	switch c {
	case 'a':
		buf.WriteByte('\a')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'v':
		buf.WriteByte('\v')
	case '\\', '\'', '"', '?':
		buf.WriteByte(c)
	case 'x', 'X':
		hex := l.readDigits(2, isHexDigit)
		if hex == "" {
			return errors.New(`invalid hex escape: \x must be followed by a hex digit`)
		}
		i, _ := strconv.ParseUint(hex, 16, 8)
		buf.WriteByte(byte(i))
	case '0', '1', '2', '3', '4', '5', '6', '7':
		l.pos--
		octal := l.readDigits(3, isOctalDigit)
		i, _ := strconv.ParseUint(octal, 8, 16)
		if i > 0xff {
			return fmt.Errorf("octal escape is out of range, must be between 0 and 377: \\%s", octal)
		}
		buf.WriteByte(byte(i))
	case 'u', 'U':
		size := 4
		if c == 'U' {
			size = 8
		}
		u := l.readDigits(size, isHexDigit)
		if len(u) != size {
			return fmt.Errorf("invalid unicode escape: \\%c%s", c, u)
		}
		i, _ := strconv.ParseUint(u, 16, 32)
		if i > utf8.MaxRune {
			return fmt.Errorf("unicode escape is out of range, must be between 0 and 0x10ffff: \\%c%s", c, u)
		}
		buf.WriteRune(rune(i))
	default:
		r, _ := utf8.DecodeRune(l.data[l.pos-1:])
		return fmt.Errorf("invalid escape sequence: %q", "\\"+string(r))
	}
	return nil
}

func (l *Lexer) readDigits(maxLen int, accept func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.data) && l.pos-start < maxLen && accept(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// readIllegal consumes a run of characters that cannot start a token.
func (l *Lexer) readIllegal(start int) Token {
	invalidUTF8 := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isSpace(c) || isLetter(c) || isDigit(c) || c == '"' || c == '\'' ||
			strings.IndexByte(punctuation, c) >= 0 {
			break
		}
		r, sz := utf8.DecodeRune(l.data[l.pos:])
		if r == utf8.RuneError && sz == 1 {
			invalidUTF8 = true
		}
		l.pos += sz
	}
	var err error
	if invalidUTF8 {
		err = errors.New("invalid UTF-8 encoding")
	} else {
		err = fmt.Errorf("illegal character %q", l.data[start:l.pos])
	}
	return l.errorToken(start, l.info.Span(start, l.pos), err)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}
