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
)

func (p *parser) parseService() *ast.Service {
	kw := p.next()
	name, ok := p.ident("in service declaration", "service name")
	if !ok {
		p.skipStatement()
		return nil
	}
	open, ok := p.punct('{', "after service name")
	if !ok {
		p.skipStatement()
		return nil
	}
	svc := &ast.Service{Name: name.Text}
	p.enter(open)
	p.block("in service body", func(tok Token) {
		switch {
		case tok.IsIdent("option"):
			if opt := p.parseOptionStatement(); opt != nil {
				svc.Options = append(svc.Options, opt)
			}
		case tok.IsIdent("rpc"):
			if rpc := p.parseRPC(); rpc != nil {
				svc.RPCs = append(svc.RPCs, rpc)
			}
		default:
			p.unexpected(tok, "in service body", `"rpc" or "option"`)
			p.skipStatement()
		}
	})
	p.exit()
	svc.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("service", svc.Name, svc.Span())
	return svc
}

func (p *parser) parseRPC() *ast.RPC {
	kw := p.next()
	name, ok := p.ident("in rpc declaration", "rpc name")
	if !ok {
		p.skipStatement()
		return nil
	}
	rpc := &ast.RPC{Name: name.Text}
	if rpc.InputType, rpc.InputStream, ok = p.parseRPCType("in rpc input type"); !ok {
		p.skipStatement()
		return nil
	}
	if tok := p.peek(); !tok.IsIdent("returns") {
		p.unexpected(tok, "after rpc input type", `"returns"`)
		p.skipStatement()
		return nil
	}
	p.next()
	if rpc.OutputType, rpc.OutputStream, ok = p.parseRPCType("in rpc output type"); !ok {
		p.skipStatement()
		return nil
	}

	if open := p.peek(); open.IsPunct('{') {
		p.next()
		p.enter(open)
		p.block("in rpc body", func(tok Token) {
			if tok.IsIdent("option") {
				if opt := p.parseOptionStatement(); opt != nil {
					rpc.Options = append(rpc.Options, opt)
				}
				return
			}
			p.unexpected(tok, "in rpc body", `"option"`)
			p.skipStatement()
		})
		p.exit()
	} else {
		p.endStatement("after rpc declaration")
	}
	rpc.Spanned = ast.At(p.spanFrom(kw))
	p.traceDecl("rpc", rpc.Name, rpc.Span())
	return rpc
}

// parseRPCType parses "( [stream] Type )".
func (p *parser) parseRPCType(where string) (string, bool, bool) {
	if _, ok := p.punct('(', where); !ok {
		return "", false, false
	}
	stream := false
	// "stream" is only a keyword when a type name follows it.
	if tok := p.peek(); tok.IsIdent("stream") {
		if next := p.peek2(); next.Kind == TokenIdent || next.IsPunct('.') {
			p.next()
			stream = true
		}
	}
	name, _, ok := p.qualifiedName(where, "message type", true)
	if !ok {
		return "", false, false
	}
	if _, ok := p.punct(')', where); !ok {
		return "", false, false
	}
	return name, stream, true
}
