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
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/logging"
	"github.com/bufbuild/protoast/reporter"
)

// DefaultMaxDepth is the nesting limit used when Parser.MaxDepth is zero.
const DefaultMaxDepth = 64

// Parser holds the limits and logger used when parsing. The zero value is
// ready to use. A Parser holds no state between calls, so a single value may
// be used by multiple goroutines.
type Parser struct {
	// MaxDepth bounds how deeply blocks (message, enum, service, oneof,
	// extend and rpc bodies) and message literals in option values may be
	// nested. If zero, DefaultMaxDepth is used.
	MaxDepth int
	// MaxTokens bounds the number of tokens in a file. If zero, there is no
	// limit.
	MaxTokens int
	// Logger receives trace output for every token and declaration, and a
	// debug summary for every file. May be nil.
	Logger *slog.Logger
}

// Parse parses the given source code with default limits. It is shorthand
// for Parser{}.Parse.
func Parse(filename string, r io.Reader, handler *reporter.Handler) (*ast.Document, error) {
	return Parser{}.Parse(filename, r, handler)
}

// Parse reads the given source code and parses it into a document. The given
// filename is used to construct source positions in diagnostics. If handler
// is nil, diagnostics are discarded and the parse is permissive.
//
// In permissive mode, a document is always returned unless a fatal error
// occurs. The returned error is reporter.ErrInvalidSource if any errors
// were reported. In strict mode, the first diagnostic stops the parse, and
// the parse returns a nil document along with that diagnostic.
func (p Parser) Parse(filename string, r io.Reader, handler *reporter.Handler) (*ast.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(filename, data, handler)
}

// ParseBytes is like Parse, but with the source already in memory.
func (p Parser) ParseBytes(filename string, data []byte, handler *reporter.Handler) (doc *ast.Document, err error) {
	if handler == nil {
		handler = reporter.NewHandler(nil, reporter.Permissive)
	}
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	lex := NewLexer(filename, data, handler, p.Logger)
	st := &parser{
		lex:       lex,
		info:      lex.Info(),
		handler:   handler,
		log:       logging.Wrap(p.Logger),
		maxDepth:  maxDepth,
		maxTokens: p.MaxTokens,
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			doc, err = nil, handler.ReporterError()
		}
	}()
	doc = st.parseDocument()
	if err := Validate(doc, handler); err != nil {
		return nil, err
	}
	st.log.Debug("parsed file",
		slog.String("file", filename),
		slog.String("syntax", doc.Dialect.String()),
		slog.Int("definitions", len(doc.Definitions)),
		slog.Int("tokens", st.tokens),
		slog.Int("comments", lex.Comments()),
	)
	return doc, handler.Error()
}

// bailout is the panic value used to unwind the parser once the handler
// has decided that the parse must stop. It never escapes ParseBytes.
type bailout struct{}

type parser struct {
	lex     *Lexer
	info    *ast.FileInfo
	handler *reporter.Handler
	log     *logging.Logger

	// Up to two tokens of lookahead.
	ahead []Token
	// The most recently consumed token.
	prev Token
	// Number of tokens consumed, used to guarantee progress.
	consumed int

	depth, maxDepth   int
	tokens, maxTokens int
}

func (p *parser) fill(n int) {
	for len(p.ahead) < n {
		tok := p.lex.Next()
		p.check()
		if tok.Kind != TokenEOF {
			p.tokens++
			if p.maxTokens > 0 && p.tokens > p.maxTokens {
				p.fatal(tok.Span, fmt.Errorf("%w: file has more than %d tokens", ErrTooManyTokens, p.maxTokens))
			}
		}
		p.ahead = append(p.ahead, tok)
	}
}

func (p *parser) peek() Token {
	p.fill(1)
	return p.ahead[0]
}

func (p *parser) peek2() Token {
	p.fill(2)
	return p.ahead[1]
}

// next consumes and returns the next token. At the end of input it returns
// the EOF token without consuming it.
func (p *parser) next() Token {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		return tok
	}
	copy(p.ahead, p.ahead[1:])
	p.ahead = p.ahead[:len(p.ahead)-1]
	p.prev = tok
	p.consumed++
	return tok
}

// spanFrom returns the span from the start of the given token through the
// most recently consumed token.
func (p *parser) spanFrom(start Token) ast.Span {
	if p.prev.Span.End.Offset <= start.Span.Start.Offset {
		return start.Span
	}
	return ast.Span{Start: start.Span.Start, End: p.prev.Span.End}
}

// check unwinds the parse if the handler has aborted.
func (p *parser) check() {
	if p.handler.ReporterError() != nil {
		panic(bailout{})
	}
}

func (p *parser) handle(d reporter.Diagnostic) {
	if err := p.handler.Handle(d); err != nil {
		panic(bailout{})
	}
}

func (p *parser) errorf(kind reporter.Kind, span ast.Span, format string, args ...any) {
	p.handle(reporter.Errorf(kind, span, format, args...))
}

func (p *parser) warn(kind reporter.Kind, span ast.Span, err error) {
	p.handle(reporter.Warning(kind, span, err))
}

func (p *parser) fatal(span ast.Span, err error) {
	p.handle(reporter.Error(reporter.KindFatal, span, err))
	// not reached: fatal diagnostics always abort
	panic(bailout{})
}

// errUnexpected is reported when the parser finds a token it does not know
// how to handle.
type errUnexpected struct {
	got   Token
	where string
	want  string
}

func (e errUnexpected) Error() string {
	var sb strings.Builder
	sb.WriteString("syntax error: unexpected ")
	sb.WriteString(e.got.Describe())
	if e.where != "" {
		sb.WriteByte(' ')
		sb.WriteString(e.where)
	}
	if e.want != "" {
		sb.WriteString(", expected ")
		sb.WriteString(e.want)
	}
	return sb.String()
}

// unexpected reports tok as a syntax error. Error tokens are skipped since
// they were diagnosed by the lexer.
func (p *parser) unexpected(tok Token, where, want string) {
	if tok.Kind == TokenError {
		return
	}
	p.handle(reporter.Error(reporter.KindSyntax, tok.Span, errUnexpected{got: tok, where: where, want: want}))
}

func (p *parser) enter(open Token) {
	p.depth++
	if p.depth > p.maxDepth {
		p.fatal(open.Span, fmt.Errorf("%w: nesting depth exceeds %d", ErrTooDeep, p.maxDepth))
	}
}

func (p *parser) exit() {
	p.depth--
}

// punct consumes the punctuation c. If some other token is next, it is
// reported and left unconsumed.
func (p *parser) punct(c byte, where string) (Token, bool) {
	tok := p.peek()
	if tok.IsPunct(c) {
		return p.next(), true
	}
	p.unexpected(tok, where, strconv.Quote(string(c)))
	return tok, false
}

// accept consumes the punctuation c if it is next.
func (p *parser) accept(c byte) bool {
	if p.peek().IsPunct(c) {
		p.next()
		return true
	}
	return false
}

// ident consumes an identifier. If some other token is next, it is
// reported and left unconsumed.
func (p *parser) ident(where, want string) (Token, bool) {
	tok := p.peek()
	if tok.Kind == TokenIdent {
		return p.next(), true
	}
	p.unexpected(tok, where, want)
	return tok, false
}

// qualifiedName parses a dotted name such as foo.bar.Baz. When leadingDot
// is set, the name may be fully-qualified with a leading dot.
func (p *parser) qualifiedName(where, want string, leadingDot bool) (string, ast.Span, bool) {
	start := p.peek()
	var sb strings.Builder
	if leadingDot && start.IsPunct('.') {
		sb.WriteByte('.')
		p.next()
	}
	for {
		tok, ok := p.ident(where, want)
		if !ok {
			return sb.String(), p.spanFrom(start), false
		}
		sb.WriteString(tok.Text)
		if !p.peek().IsPunct('.') {
			break
		}
		sb.WriteByte('.')
		p.next()
	}
	return sb.String(), p.spanFrom(start), true
}

// skipStatement discards tokens until the end of the current statement: a
// ';' or a balanced block, both of which are consumed, or a '}' that closes
// the enclosing block, which is not.
func (p *parser) skipStatement() {
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenEOF, tok.IsPunct('}'):
			return
		case tok.IsPunct(';'):
			p.next()
			return
		case tok.IsPunct('{'):
			p.skipBlock()
			return
		default:
			p.next()
		}
	}
}

// skipBlock discards a balanced block, starting at its '{'.
func (p *parser) skipBlock() {
	p.next()
	depth := 1
	for depth > 0 {
		tok := p.next()
		switch {
		case tok.Kind == TokenEOF:
			return
		case tok.IsPunct('{'):
			depth++
		case tok.IsPunct('}'):
			depth--
		}
	}
}

// endStatement consumes the ';' that terminates a statement. A missing ';'
// before something that can begin the next statement is reported without
// skipping anything.
func (p *parser) endStatement(where string) {
	tok := p.peek()
	if tok.IsPunct(';') {
		p.next()
		return
	}
	p.unexpected(tok, where, `";"`)
	if tok.Kind == TokenIdent || tok.IsPunct('}') || tok.Kind == TokenEOF {
		return
	}
	p.skipStatement()
}

// block parses the statements of a braced body, whose '{' has already been
// consumed, through the closing '}'. Empty statements are skipped, as are
// malformed tokens.
func (p *parser) block(where string, stmt func(tok Token)) {
	for {
		tok := p.peek()
		switch {
		case tok.IsPunct('}'):
			p.next()
			return
		case tok.Kind == TokenEOF:
			p.unexpected(tok, where, `"}"`)
			return
		case tok.IsPunct(';'), tok.Kind == TokenError:
			p.next()
			continue
		}
		before := p.consumed
		stmt(tok)
		if p.consumed == before && !p.peek().IsPunct('}') {
			p.next()
		}
	}
}

// stringLiteral parses one or more adjacent string literals, which are
// concatenated.
func (p *parser) stringLiteral(where string) (*ast.StringValue, bool) {
	start := p.peek()
	if start.Kind != TokenString {
		p.unexpected(start, where, "string literal")
		return nil, false
	}
	var buf bytes.Buffer
	for p.peek().Kind == TokenString {
		buf.WriteString(p.next().Str)
	}
	return &ast.StringValue{Spanned: ast.At(p.spanFrom(start)), Value: buf.String()}, true
}

func (p *parser) traceDecl(kind, name string, span ast.Span) {
	if p.log.TraceEnabled() {
		p.log.Trace("declaration",
			slog.String("kind", kind),
			slog.String("name", name),
			slog.String("span", span.String()),
		)
	}
}
