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
	"math"
	"strconv"
	"strings"

	"github.com/bufbuild/protoast/ast"
)

func (p *parser) parseOptionStatement() *ast.Option {
	kw := p.next()
	name, ok := p.parseOptionName("in option")
	if !ok {
		p.skipStatement()
		return nil
	}
	if _, ok := p.punct('=', "after option name"); !ok {
		p.skipStatement()
		return nil
	}
	val, ok := p.parseValue("in option value")
	if !ok {
		p.skipStatement()
		return nil
	}
	p.endStatement("after option")
	opt := &ast.Option{Spanned: ast.At(p.spanFrom(kw)), Name: name, Value: val}
	p.traceDecl("option", name.String(), opt.Span())
	return opt
}

// parseCompactOptions parses a bracketed, comma-separated list of options,
// such as the one that may follow a field. On failure, the options parsed so
// far are returned, and the caller must recover.
func (p *parser) parseCompactOptions() ([]*ast.Option, bool) {
	p.next() // '['
	var opts []*ast.Option
	for {
		start := p.peek()
		name, ok := p.parseOptionName("in compact options")
		if !ok {
			return opts, false
		}
		if _, ok := p.punct('=', "after option name"); !ok {
			return opts, false
		}
		val, ok := p.parseValue("in option value")
		if !ok {
			return opts, false
		}
		opts = append(opts, &ast.Option{Spanned: ast.At(p.spanFrom(start)), Name: name, Value: val})
		if !p.accept(',') {
			break
		}
	}
	if _, ok := p.punct(']', "after compact options"); !ok {
		return opts, false
	}
	return opts, true
}

func (p *parser) parseOptionName(where string) (ast.OptionName, bool) {
	start := p.peek()
	var parts []ast.NamePart
	for {
		if p.peek().IsPunct('(') {
			p.next()
			name, _, ok := p.qualifiedName(where, "extension name", true)
			if !ok {
				return ast.OptionName{}, false
			}
			if _, ok := p.punct(')', "after extension name"); !ok {
				return ast.OptionName{}, false
			}
			parts = append(parts, ast.NamePart{Name: name, Extension: true})
		} else {
			tok, ok := p.ident(where, "option name")
			if !ok {
				return ast.OptionName{}, false
			}
			parts = append(parts, ast.NamePart{Name: tok.Text})
		}
		if !p.accept('.') {
			break
		}
	}
	return ast.OptionName{Spanned: ast.At(p.spanFrom(start)), Parts: parts}, true
}

// parseValue parses a scalar option value or a message literal.
func (p *parser) parseValue(where string) (ast.Value, bool) {
	tok := p.peek()
	switch {
	case tok.Kind == TokenString:
		str, ok := p.stringLiteral(where)
		if !ok {
			return nil, false
		}
		return str, true
	case tok.Kind == TokenInt:
		p.next()
		return &ast.UintValue{Spanned: ast.At(tok.Span), Value: tok.Int}, true
	case tok.Kind == TokenFloat:
		p.next()
		return &ast.FloatValue{Spanned: ast.At(tok.Span), Value: tok.Float}, true
	case tok.IsPunct('-'):
		return p.parseNegative()
	case tok.IsPunct('{'):
		agg, ok := p.parseAggregate()
		if !ok {
			return nil, false
		}
		return agg, true
	case tok.Kind == TokenIdent:
		return p.parseIdentValue(), true
	default:
		p.unexpected(tok, where, "option value")
		return nil, false
	}
}

func (p *parser) parseIdentValue() ast.Value {
	tok := p.next()
	switch tok.Text {
	case "true", "false":
		return &ast.BoolValue{Spanned: ast.At(tok.Span), Value: tok.Text == "true"}
	case "inf":
		return &ast.FloatValue{Spanned: ast.At(tok.Span), Value: math.Inf(1)}
	case "nan":
		return &ast.FloatValue{Spanned: ast.At(tok.Span), Value: math.NaN()}
	}
	name := tok.Text
	for p.peek().IsPunct('.') && p.peek2().Kind == TokenIdent {
		p.next()
		name += "." + p.next().Text
	}
	return &ast.IdentValue{Spanned: ast.At(p.spanFrom(tok)), Name: name}
}

func (p *parser) parseNegative() (ast.Value, bool) {
	minus := p.next()
	tok := p.peek()
	switch {
	case tok.Kind == TokenInt:
		p.next()
		span := ast.At(p.spanFrom(minus))
		switch {
		case tok.Int == 1<<63:
			return &ast.IntValue{Spanned: span, Value: math.MinInt64}, true
		case tok.Int > 1<<63:
			// Too small for int64, so the value becomes a float.
			return &ast.FloatValue{Spanned: span, Value: -float64(tok.Int)}, true
		default:
			return &ast.IntValue{Spanned: span, Value: -int64(tok.Int)}, true
		}
	case tok.Kind == TokenFloat:
		p.next()
		return &ast.FloatValue{Spanned: ast.At(p.spanFrom(minus)), Value: -tok.Float}, true
	case tok.IsIdent("inf"):
		p.next()
		return &ast.FloatValue{Spanned: ast.At(p.spanFrom(minus)), Value: math.Inf(-1)}, true
	case tok.IsIdent("nan"):
		p.next()
		return &ast.FloatValue{Spanned: ast.At(p.spanFrom(minus)), Value: math.NaN()}, true
	default:
		p.unexpected(tok, `after "-"`, "a number")
		return nil, false
	}
}

// parseAggregate parses a message literal in the text format, delimited by
// either braces or angle brackets. A malformed field is reported and the
// rest of the literal is skipped, so that the statement holding it can
// still be completed.
func (p *parser) parseAggregate() (*ast.AggregateValue, bool) {
	open := p.next()
	closer := byte('}')
	if open.IsPunct('<') {
		closer = '>'
	}
	p.enter(open)
	agg := &ast.AggregateValue{}
	for {
		tok := p.peek()
		if tok.IsPunct(closer) {
			p.next()
			break
		}
		if tok.Kind == TokenEOF {
			p.unexpected(tok, "in message literal", strconv.Quote(string(closer)))
			p.exit()
			return nil, false
		}
		fld, ok := p.parseAggregateField()
		if !ok {
			p.skipAggregate()
			break
		}
		agg.Fields = append(agg.Fields, fld)
		if !p.accept(',') {
			p.accept(';')
		}
	}
	p.exit()
	agg.Spanned = ast.At(p.spanFrom(open))
	return agg, true
}

// skipAggregate discards tokens through the delimiter that closes the
// current message literal.
func (p *parser) skipAggregate() {
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenEOF:
			return
		case tok.IsPunct('{'), tok.IsPunct('<'), tok.IsPunct('['):
			depth++
		case tok.IsPunct('}'), tok.IsPunct('>'), tok.IsPunct(']'):
			if depth == 0 {
				p.next()
				return
			}
			depth--
		}
		p.next()
	}
}

func (p *parser) parseAggregateField() (*ast.AggregateField, bool) {
	start := p.peek()
	fld := &ast.AggregateField{}
	if start.IsPunct('[') {
		p.next()
		name, ok := p.parseExtensionFieldName()
		if !ok {
			return nil, false
		}
		if _, ok := p.punct(']', "after extension name"); !ok {
			return nil, false
		}
		fld.Name = name
		fld.Extension = true
	} else {
		tok, ok := p.ident("in message literal", "field name")
		if !ok {
			return nil, false
		}
		fld.Name = tok.Text
	}

	hasColon := p.accept(':')
	tok := p.peek()
	var val ast.Value
	var ok bool
	switch {
	case tok.IsPunct('{'), tok.IsPunct('<'):
		var agg *ast.AggregateValue
		if agg, ok = p.parseAggregate(); ok {
			val = agg
		}
	case tok.IsPunct('['):
		var list *ast.ListValue
		if list, ok = p.parseList(); ok {
			val = list
		}
	case !hasColon:
		p.unexpected(tok, "after field name", `":"`)
		return nil, false
	default:
		val, ok = p.parseValue("in message literal")
	}
	if !ok {
		return nil, false
	}
	fld.Value = val
	fld.Spanned = ast.At(p.spanFrom(start))
	return fld, true
}

// parseExtensionFieldName parses the name inside brackets in a message
// literal, which is either an extension name or a type URL such as
// type.googleapis.com/foo.Bar.
func (p *parser) parseExtensionFieldName() (string, bool) {
	var sb strings.Builder
	if p.accept('.') {
		sb.WriteByte('.')
	}
	for {
		tok, ok := p.ident("in extension name", "identifier")
		if !ok {
			return "", false
		}
		sb.WriteString(tok.Text)
		sep := p.peek()
		if !sep.IsPunct('.') && !sep.IsPunct('/') {
			return sb.String(), true
		}
		sb.WriteString(p.next().Text)
	}
}

func (p *parser) parseList() (*ast.ListValue, bool) {
	open := p.next()
	p.enter(open)
	defer p.exit()
	list := &ast.ListValue{}
	if !p.peek().IsPunct(']') {
		for {
			var val ast.Value
			var ok bool
			if tok := p.peek(); tok.IsPunct('{') || tok.IsPunct('<') {
				var agg *ast.AggregateValue
				if agg, ok = p.parseAggregate(); ok {
					val = agg
				}
			} else {
				val, ok = p.parseValue("in list")
			}
			if !ok {
				p.skipAggregate()
				list.Spanned = ast.At(p.spanFrom(open))
				return list, true
			}
			list.Elements = append(list.Elements, val)
			if !p.accept(',') {
				break
			}
		}
	}
	if _, ok := p.punct(']', "after list elements"); !ok {
		p.skipAggregate()
	}
	list.Spanned = ast.At(p.spanFrom(open))
	return list, true
}
