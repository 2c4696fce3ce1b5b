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

	"github.com/bufbuild/protoast/ast"
)

func (p *parser) parseEnum() *ast.Enum {
	kw := p.next()
	name, ok := p.ident("in enum declaration", "enum name")
	if !ok {
		p.skipStatement()
		return nil
	}
	open, ok := p.punct('{', "after enum name")
	if !ok {
		p.skipStatement()
		return nil
	}
	en := &ast.Enum{Name: name.Text}
	p.enter(open)
	p.block("in enum body", func(tok Token) {
		// "option = 1;" declares a value named option.
		if tok.Kind == TokenIdent && !p.peek2().IsPunct('=') {
			switch tok.Text {
			case "option":
				if opt := p.parseOptionStatement(); opt != nil {
					en.Options = append(en.Options, opt)
				}
				return
			case "reserved":
				if rsvd := p.parseReserved(math.MaxInt32); rsvd != nil {
					en.Reserved = append(en.Reserved, rsvd)
				}
				return
			}
		}
		if tok.Kind == TokenIdent {
			if val := p.parseEnumValue(); val != nil {
				en.Values = append(en.Values, val)
			}
			return
		}
		p.unexpected(tok, "in enum body", "an enum value or option")
		p.skipStatement()
	})
	p.exit()
	en.AllowAlias = allowAlias(en.Options)
	en.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("enum", en.Name, en.Span())
	return en
}

// allowAlias reports whether opts include "allow_alias = true".
func allowAlias(opts []*ast.Option) bool {
	for _, opt := range opts {
		if !opt.Name.IsSimple("allow_alias") {
			continue
		}
		if b, ok := opt.Value.(*ast.BoolValue); ok {
			return b.Value
		}
	}
	return false
}

// parseEnumValue parses "NAME = number [options];". Once the name has been
// parsed, a value is always returned, marked Partial if the rest of the
// declaration is malformed.
func (p *parser) parseEnumValue() *ast.EnumValue {
	name := p.next()
	val := &ast.EnumValue{Name: name.Text, NameSpan: name.Span}
	partial := func() *ast.EnumValue {
		val.Partial = true
		p.skipStatement()
		val.Spanned = ast.At(p.spanFrom(name))
		return val
	}
	if _, ok := p.punct('=', "after enum value name"); !ok {
		return partial()
	}
	numStart := p.peek()
	num, ok := p.parseRangeBound("after enum value name")
	if !ok {
		return partial()
	}
	val.Number = num
	val.NumberSpan = p.spanFrom(numStart)
	if p.peek().IsPunct('[') {
		opts, ok := p.parseCompactOptions()
		val.Options = opts
		if !ok {
			p.skipStatement()
			val.Spanned = ast.At(p.spanFrom(name))
			return val
		}
	}
	p.endStatement("after enum value")
	val.Spanned = ast.At(p.spanFrom(name))
	return val
}
