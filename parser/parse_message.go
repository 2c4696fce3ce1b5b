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
	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/reporter"
)

func (p *parser) parseMessage() *ast.Message {
	kw := p.next()
	name, ok := p.ident("in message declaration", "message name")
	if !ok {
		p.skipStatement()
		return nil
	}
	open, ok := p.punct('{', "after message name")
	if !ok {
		p.skipStatement()
		return nil
	}
	msg := &ast.Message{Name: name.Text}
	p.enter(open)
	p.block("in message body", func(tok Token) {
		p.parseMessageElement(msg, tok)
	})
	p.exit()
	msg.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("message", msg.Name, msg.Span())
	return msg
}

func (p *parser) parseMessageElement(msg *ast.Message, tok Token) {
	// A keyword followed by a dot starts a qualified type name, as in
	// "message.Foo foo = 1;".
	if tok.Kind == TokenIdent && !p.peek2().IsPunct('.') {
		switch tok.Text {
		case "message":
			if nested := p.parseMessage(); nested != nil {
				msg.Messages = append(msg.Messages, nested)
			}
			return
		case "enum":
			if en := p.parseEnum(); en != nil {
				msg.Enums = append(msg.Enums, en)
			}
			return
		case "extend":
			if ext := p.parseExtend(); ext != nil {
				msg.Extends = append(msg.Extends, ext)
			}
			return
		case "oneof":
			if oo := p.parseOneOf(); oo != nil {
				msg.OneOfs = append(msg.OneOfs, oo)
			}
			return
		case "option":
			if opt := p.parseOptionStatement(); opt != nil {
				msg.Options = append(msg.Options, opt)
			}
			return
		case "reserved":
			if rsvd := p.parseReserved(ast.MaxFieldNumber); rsvd != nil {
				msg.Reserved = append(msg.Reserved, rsvd)
			}
			return
		case "extensions":
			if rng := p.parseExtensionRange(); rng != nil {
				msg.Extensions = append(msg.Extensions, rng)
			}
			return
		}
	}
	if tok.Kind == TokenIdent || tok.IsPunct('.') {
		if fld := p.parseField("in field declaration"); fld != nil {
			msg.Fields = append(msg.Fields, fld)
		}
		return
	}
	p.unexpected(tok, "in message body", "a field or declaration")
	p.skipStatement()
}

func labelOf(tok Token) (ast.Label, bool) {
	if tok.Kind != TokenIdent {
		return ast.LabelSingular, false
	}
	switch tok.Text {
	case "optional":
		return ast.LabelOptional, true
	case "required":
		return ast.LabelRequired, true
	case "repeated":
		return ast.LabelRepeated, true
	default:
		return ast.LabelSingular, false
	}
}

// parseField parses a field declaration. Labels are accepted everywhere a
// field may appear; whether the label is allowed is decided by validation.
//
// Once the type has been parsed, a field is always returned: if the rest of
// the declaration is malformed, the field is a placeholder marked Partial.
func (p *parser) parseField(where string) *ast.Field {
	start := p.peek()
	fld := &ast.Field{}
	if label, ok := labelOf(start); ok {
		p.next()
		fld.Label = label
		fld.LabelSpan = start.Span
	}
	typ, ok := p.parseType(where)
	if !ok {
		p.skipStatement()
		return nil
	}
	fld.Type = typ

	name, ok := p.ident(where, "field name")
	if !ok {
		return p.partialField(fld, start)
	}
	fld.Name = name.Text
	fld.NameSpan = name.Span
	if _, ok := p.punct('=', "after field name"); !ok {
		return p.partialField(fld, start)
	}
	num := p.peek()
	if num.Kind != TokenInt {
		p.unexpected(num, "after field name", "field number")
		return p.partialField(fld, start)
	}
	p.next()
	fld.Number = clampInt64(num.Int)
	fld.NumberSpan = num.Span

	if p.peek().IsPunct('[') {
		opts, ok := p.parseCompactOptions()
		p.addFieldOptions(fld, opts)
		if !ok {
			return p.partialField(fld, start)
		}
	}
	p.endStatement("after field declaration")
	fld.Spanned = ast.At(p.spanFrom(start))
	p.traceDecl("field", fld.Name, fld.Span())
	return fld
}

func (p *parser) partialField(fld *ast.Field, start Token) *ast.Field {
	fld.Partial = true
	p.skipStatement()
	fld.Spanned = ast.At(p.spanFrom(start))
	return fld
}

// addFieldOptions adds the given compact options to fld, lifting the
// "default" pseudo-option into the field's default value.
func (p *parser) addFieldOptions(fld *ast.Field, opts []*ast.Option) {
	for _, opt := range opts {
		if !opt.Name.IsSimple("default") {
			fld.Options = append(fld.Options, opt)
			continue
		}
		if fld.Default != nil {
			p.errorf(reporter.KindStructural, opt.Name.Span(), "field %s: default value already set", fld.Name)
			continue
		}
		fld.Default = opt.Value
	}
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}

// parseType parses a field type: a scalar, a map type, or a possibly
// qualified message or enum name.
func (p *parser) parseType(where string) (*ast.FieldType, bool) {
	tok := p.peek()
	if tok.IsIdent("map") && p.peek2().IsPunct('<') {
		return p.parseMapType()
	}
	return p.parseSimpleType(where)
}

func (p *parser) parseSimpleType(where string) (*ast.FieldType, bool) {
	tok := p.peek()
	if tok.Kind == TokenIdent && !p.peek2().IsPunct('.') {
		if scalar, ok := ast.LookupScalar(tok.Text); ok {
			p.next()
			return &ast.FieldType{Spanned: ast.At(tok.Span), Kind: ast.TypeScalar, Scalar: scalar}, true
		}
	}
	if tok.Kind != TokenIdent && !tok.IsPunct('.') {
		p.unexpected(tok, where, "type name")
		return nil, false
	}
	name, span, ok := p.qualifiedName(where, "type name", true)
	if !ok {
		return nil, false
	}
	return &ast.FieldType{Spanned: ast.At(span), Kind: ast.TypeNamed, Name: name}, true
}

func (p *parser) parseMapType() (*ast.FieldType, bool) {
	kw := p.next()
	p.next() // '<'
	key, ok := p.parseSimpleType("in map key type")
	if !ok {
		return nil, false
	}
	if _, ok := p.punct(',', "after map key type"); !ok {
		return nil, false
	}
	val, ok := p.parseSimpleType("in map value type")
	if !ok {
		return nil, false
	}
	if _, ok := p.punct('>', "after map value type"); !ok {
		return nil, false
	}
	return &ast.FieldType{Spanned: ast.At(p.spanFrom(kw)), Kind: ast.TypeMap, Key: key, Value: val}, true
}

func (p *parser) parseOneOf() *ast.OneOf {
	kw := p.next()
	name, ok := p.ident("in oneof declaration", "oneof name")
	if !ok {
		p.skipStatement()
		return nil
	}
	open, ok := p.punct('{', "after oneof name")
	if !ok {
		p.skipStatement()
		return nil
	}
	oo := &ast.OneOf{Name: name.Text}
	p.enter(open)
	p.block("in oneof body", func(tok Token) {
		if tok.IsIdent("option") && !p.peek2().IsPunct('.') {
			if opt := p.parseOptionStatement(); opt != nil {
				oo.Options = append(oo.Options, opt)
			}
			return
		}
		if tok.Kind == TokenIdent || tok.IsPunct('.') {
			if fld := p.parseField("in oneof field declaration"); fld != nil {
				oo.Fields = append(oo.Fields, fld)
			}
			return
		}
		p.unexpected(tok, "in oneof body", "a field or option")
		p.skipStatement()
	})
	p.exit()
	oo.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("oneof", oo.Name, oo.Span())
	return oo
}

func (p *parser) parseExtend() *ast.Extend {
	kw := p.next()
	extendee, _, ok := p.qualifiedName("in extend declaration", "message name", true)
	if !ok {
		p.skipStatement()
		return nil
	}
	open, ok := p.punct('{', "after extendee")
	if !ok {
		p.skipStatement()
		return nil
	}
	ext := &ast.Extend{Extendee: extendee}
	p.enter(open)
	p.block("in extend body", func(tok Token) {
		if tok.Kind == TokenIdent || tok.IsPunct('.') {
			if fld := p.parseField("in extension field declaration"); fld != nil {
				ext.Fields = append(ext.Fields, fld)
			}
			return
		}
		p.unexpected(tok, "in extend body", "a field")
		p.skipStatement()
	})
	p.exit()
	ext.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("extend", ext.Extendee, ext.Span())
	return ext
}
