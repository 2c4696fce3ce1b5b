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

package ast

import (
	"fmt"
	"math"
)

// EncodeOptions controls the output of Encode.
type EncodeOptions struct {
	// If set, spans are not included in the output.
	OmitSpans bool
}

// Encode converts a document into a tree of maps, slices and scalars, which
// is suitable for serializing with an encoder for JSON, YAML and the like.
// Every definition and value map carries a "kind" key naming its variant.
// Empty lists and unset optional elements are omitted.
func Encode(doc *Document, opts EncodeOptions) map[string]any {
	c := codec{opts}
	return c.document(doc)
}

type codec struct {
	EncodeOptions
}

type object map[string]any

func (o object) set(key string, v any) {
	switch v := v.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	case []any:
		if len(v) == 0 {
			return
		}
	case map[string]any:
		if v == nil {
			return
		}
	}
	o[key] = v
}

func (c codec) node(kind string, n Node) object {
	o := object{}
	if kind != "" {
		o["kind"] = kind
	}
	if !c.OmitSpans {
		o.set("span", c.span(n.Span()))
	}
	return o
}

func (c codec) span(s Span) map[string]any {
	if s.IsZero() {
		return nil
	}
	return map[string]any{
		"start": fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Col),
		"end":   fmt.Sprintf("%d:%d", s.End.Line, s.End.Col),
	}
}

func (c codec) document(doc *Document) map[string]any {
	o := c.node("", doc)
	o.set("filename", doc.Filename)
	o["syntax"] = doc.Dialect.String()
	if doc.Package != nil {
		o.set("package", doc.Package.Name)
	}
	imports := make([]any, len(doc.Imports))
	for i, imp := range doc.Imports {
		io := c.node("", imp)
		io["path"] = imp.Path
		io.set("modifier", imp.Modifier.String())
		imports[i] = map[string]any(io)
	}
	o.set("imports", imports)
	o.set("options", c.options(doc.Options))
	defs := make([]any, len(doc.Definitions))
	for i, def := range doc.Definitions {
		defs[i] = c.definition(def)
	}
	o.set("definitions", defs)
	return o
}

func (c codec) definition(def Definition) map[string]any {
	switch def := def.(type) {
	case *Message:
		return c.message(def)
	case *Enum:
		return c.enum(def)
	case *Service:
		return c.service(def)
	case *Extend:
		return c.extend(def)
	default:
		panic(fmt.Sprintf("ast: unknown definition type %T", def))
	}
}

func (c codec) message(m *Message) map[string]any {
	o := c.node("message", m)
	o["name"] = m.Name
	o.set("fields", c.fields(m.Fields))
	oneofs := make([]any, len(m.OneOfs))
	for i, oo := range m.OneOfs {
		oo2 := c.node("oneof", oo)
		oo2["name"] = oo.Name
		oo2.set("fields", c.fields(oo.Fields))
		oo2.set("options", c.options(oo.Options))
		oneofs[i] = map[string]any(oo2)
	}
	o.set("oneofs", oneofs)
	nested := make([]any, 0, len(m.Messages)+len(m.Enums)+len(m.Extends))
	for _, nm := range m.Messages {
		nested = append(nested, c.message(nm))
	}
	for _, ne := range m.Enums {
		nested = append(nested, c.enum(ne))
	}
	for _, ext := range m.Extends {
		nested = append(nested, c.extend(ext))
	}
	o.set("nested", nested)
	o.set("reserved", c.reserved(m.Reserved))
	exts := make([]any, len(m.Extensions))
	for i, er := range m.Extensions {
		eo := c.node("", er)
		eo.set("ranges", c.ranges(er.Ranges))
		eo.set("options", c.options(er.Options))
		exts[i] = map[string]any(eo)
	}
	o.set("extensions", exts)
	o.set("options", c.options(m.Options))
	return o
}

func (c codec) fields(fields []*Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		fo := c.node("", f)
		fo.set("label", f.Label.String())
		fo.set("type", c.fieldType(f.Type))
		fo.set("name", f.Name)
		fo["number"] = f.Number
		if f.Default != nil {
			fo["default"] = c.value(f.Default)
		}
		fo.set("options", c.options(f.Options))
		if f.Partial {
			fo["partial"] = true
		}
		out[i] = map[string]any(fo)
	}
	return out
}

func (c codec) fieldType(t *FieldType) map[string]any {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeScalar:
		o := c.node("scalar", t)
		o["name"] = t.Scalar.String()
		return o
	case TypeMap:
		o := c.node("map", t)
		o.set("key", c.fieldType(t.Key))
		o.set("value", c.fieldType(t.Value))
		return o
	default:
		o := c.node("named", t)
		o["name"] = t.Name
		return o
	}
}

func (c codec) reserved(reserved []*Reserved) []any {
	out := make([]any, len(reserved))
	for i, r := range reserved {
		ro := c.node("", r)
		ro.set("ranges", c.ranges(r.Ranges))
		names := make([]any, len(r.Names))
		for j, name := range r.Names {
			names[j] = name
		}
		ro.set("names", names)
		out[i] = map[string]any(ro)
	}
	return out
}

func (c codec) ranges(ranges []*Range) []any {
	out := make([]any, len(ranges))
	for i, r := range ranges {
		ro := c.node("", r)
		ro["start"] = r.Start
		if r.Max {
			ro["end"] = "max"
		} else {
			ro["end"] = r.End
		}
		out[i] = map[string]any(ro)
	}
	return out
}

func (c codec) enum(e *Enum) map[string]any {
	o := c.node("enum", e)
	o["name"] = e.Name
	values := make([]any, len(e.Values))
	for i, v := range e.Values {
		vo := c.node("", v)
		vo.set("name", v.Name)
		vo["number"] = v.Number
		vo.set("options", c.options(v.Options))
		if v.Partial {
			vo["partial"] = true
		}
		values[i] = map[string]any(vo)
	}
	o.set("values", values)
	o.set("reserved", c.reserved(e.Reserved))
	o.set("options", c.options(e.Options))
	if e.AllowAlias {
		o["allow_alias"] = true
	}
	return o
}

func (c codec) service(s *Service) map[string]any {
	o := c.node("service", s)
	o["name"] = s.Name
	rpcs := make([]any, len(s.RPCs))
	for i, rpc := range s.RPCs {
		ro := c.node("rpc", rpc)
		ro["name"] = rpc.Name
		ro["input_type"] = rpc.InputType
		if rpc.InputStream {
			ro["input_stream"] = true
		}
		ro["output_type"] = rpc.OutputType
		if rpc.OutputStream {
			ro["output_stream"] = true
		}
		ro.set("options", c.options(rpc.Options))
		rpcs[i] = map[string]any(ro)
	}
	o.set("rpcs", rpcs)
	o.set("options", c.options(s.Options))
	return o
}

func (c codec) extend(e *Extend) map[string]any {
	o := c.node("extend", e)
	o["extendee"] = e.Extendee
	o.set("fields", c.fields(e.Fields))
	return o
}

func (c codec) options(opts []*Option) []any {
	out := make([]any, len(opts))
	for i, opt := range opts {
		oo := c.node("", opt)
		oo["name"] = opt.Name.String()
		oo["value"] = c.value(opt.Value)
		out[i] = map[string]any(oo)
	}
	return out
}

func (c codec) value(v Value) map[string]any {
	switch v := v.(type) {
	case *BoolValue:
		o := c.node("bool", v)
		o["value"] = v.Value
		return o
	case *IntValue:
		o := c.node("int", v)
		o["value"] = v.Value
		return o
	case *UintValue:
		o := c.node("uint", v)
		o["value"] = v.Value
		return o
	case *FloatValue:
		o := c.node("float", v)
		// Infinities and NaN have no JSON representation.
		switch {
		case math.IsInf(v.Value, 1):
			o["value"] = "inf"
		case math.IsInf(v.Value, -1):
			o["value"] = "-inf"
		case math.IsNaN(v.Value):
			o["value"] = "nan"
		default:
			o["value"] = v.Value
		}
		return o
	case *StringValue:
		o := c.node("string", v)
		o["value"] = v.Value
		return o
	case *IdentValue:
		o := c.node("ident", v)
		o["value"] = v.Name
		return o
	case *AggregateValue:
		o := c.node("aggregate", v)
		fields := make([]any, len(v.Fields))
		for i, f := range v.Fields {
			fo := c.node("", f)
			fo["name"] = f.Name
			if f.Extension {
				fo["extension"] = true
			}
			fo["value"] = c.value(f.Value)
			fields[i] = map[string]any(fo)
		}
		o.set("fields", fields)
		return o
	case *ListValue:
		o := c.node("list", v)
		elems := make([]any, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = c.value(e)
		}
		o.set("elements", elems)
		return o
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("ast: unknown value type %T", v))
	}
}
