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

func (p *parser) parseDocument() *ast.Document {
	doc := &ast.Document{Filename: p.info.Name()}
	first := p.peek()
	if first.IsIdent("syntax") {
		doc.Dialect = p.parseSyntax()
	} else {
		p.warn(reporter.KindStructural, first.Span, ErrNoSyntax)
	}
	for p.peek().Kind != TokenEOF {
		before := p.consumed
		p.parseTopLevel(doc)
		if p.consumed == before {
			p.next()
		}
	}
	doc.Spanned = ast.At(p.info.Span(0, len(p.info.Data())))
	return doc
}

func (p *parser) parseTopLevel(doc *ast.Document) {
	tok := p.peek()
	switch {
	case tok.IsPunct(';'), tok.Kind == TokenError:
		p.next()
		return
	case tok.Kind != TokenIdent:
		p.unexpected(tok, "at top level", "a declaration")
		if tok.IsPunct('}') {
			p.next()
			return
		}
		p.skipStatement()
		return
	}

	switch tok.Text {
	case "syntax":
		p.errorf(reporter.KindSyntax, tok.Span, "syntax declaration must be the first statement in the file")
		p.parseSyntax()
	case "import":
		if imp := p.parseImport(); imp != nil {
			doc.Imports = append(doc.Imports, imp)
		}
	case "package":
		pkg := p.parsePackage()
		if pkg == nil {
			return
		}
		if doc.Package != nil {
			p.errorf(reporter.KindStructural, pkg.Span(), "multiple package declarations: first was %q", doc.Package.Name)
			return
		}
		doc.Package = pkg
	case "option":
		if opt := p.parseOptionStatement(); opt != nil {
			doc.Options = append(doc.Options, opt)
		}
	case "message":
		if msg := p.parseMessage(); msg != nil {
			doc.Definitions = append(doc.Definitions, msg)
		}
	case "enum":
		if en := p.parseEnum(); en != nil {
			doc.Definitions = append(doc.Definitions, en)
		}
	case "service":
		if svc := p.parseService(); svc != nil {
			doc.Definitions = append(doc.Definitions, svc)
		}
	case "extend":
		if ext := p.parseExtend(); ext != nil {
			doc.Definitions = append(doc.Definitions, ext)
		}
	default:
		p.unexpected(tok, "at top level", "a declaration")
		p.skipStatement()
	}
}

func (p *parser) parseSyntax() ast.Dialect {
	p.next()
	if _, ok := p.punct('=', "in syntax declaration"); !ok {
		p.skipStatement()
		return ast.DialectUnspecified
	}
	str, ok := p.stringLiteral("in syntax declaration")
	if !ok {
		p.skipStatement()
		return ast.DialectUnspecified
	}
	dialect := ast.DialectUnspecified
	switch str.Value {
	case "proto2":
		dialect = ast.DialectProto2
	case "proto3":
		dialect = ast.DialectProto3
	default:
		p.errorf(reporter.KindSyntax, str.Span(), `syntax value must be "proto2" or "proto3"`)
	}
	p.endStatement("after syntax declaration")
	return dialect
}

func (p *parser) parseImport() *ast.Import {
	kw := p.next()
	mod := ast.ImportDefault
	switch tok := p.peek(); {
	case tok.IsIdent("public"):
		p.next()
		mod = ast.ImportPublic
	case tok.IsIdent("weak"):
		p.next()
		mod = ast.ImportWeak
	}
	path, ok := p.stringLiteral("in import")
	if !ok {
		p.skipStatement()
		return nil
	}
	p.endStatement("after import")
	return &ast.Import{Spanned: ast.At(p.spanFrom(kw)), Path: path.Value, Modifier: mod}
}

func (p *parser) parsePackage() *ast.Package {
	kw := p.next()
	name, _, ok := p.qualifiedName("in package declaration", "package name", false)
	if !ok {
		p.skipStatement()
		return nil
	}
	p.endStatement("after package declaration")
	return &ast.Package{Spanned: ast.At(p.spanFrom(kw)), Name: name}
}
