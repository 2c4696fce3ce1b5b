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

package printer

import (
	"strconv"
	"strings"

	"github.com/bufbuild/protoast/ast"
)

func (p *printer) printFile(doc *ast.Document) {
	if doc.Dialect != ast.DialectUnspecified {
		p.section()
		p.line("syntax = ", strconv.Quote(doc.Dialect.String()), ";")
	}
	if doc.Package != nil {
		p.section()
		p.line("package ", doc.Package.Name, ";")
	}
	if len(doc.Imports) > 0 {
		p.section()
		for _, imp := range doc.Imports {
			modifier := ""
			if imp.Modifier != ast.ImportDefault {
				modifier = imp.Modifier.String() + " "
			}
			p.line("import ", modifier, strconv.Quote(imp.Path), ";")
		}
	}
	if len(doc.Options) > 0 {
		p.section()
		p.printOptionStatements(doc.Options)
	}
	for _, def := range doc.Definitions {
		p.section()
		p.printDefinition(def)
	}
}

func (p *printer) printDefinition(def ast.Definition) {
	switch def := def.(type) {
	case *ast.Message:
		p.printMessage(def)
	case *ast.Enum:
		p.printEnum(def)
	case *ast.Service:
		p.printService(def)
	case *ast.Extend:
		p.printExtend(def)
	}
}

func (p *printer) printOptionStatements(opts []*ast.Option) {
	for _, opt := range opts {
		p.line("option ", opt.Name.String(), " = ", FormatValue(opt.Value), ";")
	}
}

func (p *printer) printMessage(msg *ast.Message) {
	empty := len(msg.Options) == 0 && len(msg.Fields) == 0 && len(msg.OneOfs) == 0 &&
		len(msg.Messages) == 0 && len(msg.Enums) == 0 && len(msg.Extends) == 0 &&
		len(msg.Reserved) == 0 && len(msg.Extensions) == 0
	p.block("message "+msg.Name, empty, func() {
		p.printOptionStatements(msg.Options)
		for _, fld := range msg.Fields {
			p.printField(fld)
		}
		for _, oo := range msg.OneOfs {
			p.block("oneof "+oo.Name, len(oo.Options) == 0 && len(oo.Fields) == 0, func() {
				p.printOptionStatements(oo.Options)
				for _, fld := range oo.Fields {
					p.printField(fld)
				}
			})
		}
		for _, nested := range msg.Messages {
			p.printMessage(nested)
		}
		for _, en := range msg.Enums {
			p.printEnum(en)
		}
		for _, ext := range msg.Extends {
			p.printExtend(ext)
		}
		for _, rsvd := range msg.Reserved {
			p.printReserved(rsvd)
		}
		for _, er := range msg.Extensions {
			p.line("extensions ", formatRanges(er.Ranges), compactOptions(nil, er.Options), ";")
		}
	})
}

func (p *printer) printField(fld *ast.Field) {
	var sb strings.Builder
	if fld.Label != ast.LabelSingular {
		sb.WriteString(fld.Label.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(fld.Type.String())
	sb.WriteByte(' ')
	sb.WriteString(fld.Name)
	sb.WriteString(" = ")
	sb.WriteString(strconv.FormatInt(fld.Number, 10))
	sb.WriteString(compactOptions(fld.Default, fld.Options))
	sb.WriteByte(';')
	p.line(sb.String())
}

// compactOptions formats a bracketed option list, with the default value
// first when there is one. It returns the empty string when there are no
// options.
func compactOptions(def ast.Value, opts []*ast.Option) string {
	if def == nil && len(opts) == 0 {
		return ""
	}
	elems := make([]string, 0, len(opts)+1)
	if def != nil {
		elems = append(elems, "default = "+FormatValue(def))
	}
	for _, opt := range opts {
		elems = append(elems, opt.Name.String()+" = "+FormatValue(opt.Value))
	}
	return " [" + strings.Join(elems, ", ") + "]"
}

func (p *printer) printReserved(rsvd *ast.Reserved) {
	if len(rsvd.Names) > 0 {
		names := make([]string, len(rsvd.Names))
		for i, name := range rsvd.Names {
			names[i] = strconv.Quote(name)
		}
		p.line("reserved ", strings.Join(names, ", "), ";")
		return
	}
	p.line("reserved ", formatRanges(rsvd.Ranges), ";")
}

func formatRanges(ranges []*ast.Range) string {
	elems := make([]string, len(ranges))
	for i, rng := range ranges {
		switch {
		case rng.Max:
			elems[i] = strconv.FormatInt(rng.Start, 10) + " to max"
		case rng.Start == rng.End:
			elems[i] = strconv.FormatInt(rng.Start, 10)
		default:
			elems[i] = strconv.FormatInt(rng.Start, 10) + " to " + strconv.FormatInt(rng.End, 10)
		}
	}
	return strings.Join(elems, ", ")
}

func (p *printer) printEnum(en *ast.Enum) {
	empty := len(en.Options) == 0 && len(en.Values) == 0 && len(en.Reserved) == 0
	p.block("enum "+en.Name, empty, func() {
		p.printOptionStatements(en.Options)
		for _, val := range en.Values {
			p.line(val.Name, " = ", strconv.FormatInt(val.Number, 10), compactOptions(nil, val.Options), ";")
		}
		for _, rsvd := range en.Reserved {
			p.printReserved(rsvd)
		}
	})
}

func (p *printer) printService(svc *ast.Service) {
	p.block("service "+svc.Name, len(svc.Options) == 0 && len(svc.RPCs) == 0, func() {
		p.printOptionStatements(svc.Options)
		for _, rpc := range svc.RPCs {
			header := "rpc " + rpc.Name + "(" + streamPrefix(rpc.InputStream) + rpc.InputType +
				") returns (" + streamPrefix(rpc.OutputStream) + rpc.OutputType + ")"
			if len(rpc.Options) == 0 {
				p.line(header, ";")
				continue
			}
			p.block(header, false, func() {
				p.printOptionStatements(rpc.Options)
			})
		}
	})
}

func streamPrefix(stream bool) string {
	if stream {
		return "stream "
	}
	return ""
}

func (p *printer) printExtend(ext *ast.Extend) {
	p.block("extend "+ext.Extendee, len(ext.Fields) == 0, func() {
		for _, fld := range ext.Fields {
			p.printField(fld)
		}
	})
}
