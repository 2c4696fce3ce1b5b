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
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/cases"
	"github.com/bufbuild/protoast/printer"
)

// Result is the result of converting a parsed document into a descriptor
// proto.
type Result interface {
	// AST returns the document the descriptor was built from.
	AST() *ast.Document
	// Proto returns the file descriptor. Options are left uninterpreted and
	// named field types are left unresolved, with only TypeName set.
	Proto() *descriptorpb.FileDescriptorProto
	// Node returns the AST node that the given descriptor proto was built
	// from, or nil. Synthetic map entry messages and the fields in them map
	// to the map field, and synthetic oneofs map to their proto3 optional
	// field.
	Node(m proto.Message) ast.Node
}

type result struct {
	doc   *ast.Document
	proto *descriptorpb.FileDescriptorProto
	nodes map[proto.Message]ast.Node
}

// ResultFromAST constructs a descriptor proto from the given document.
// Placeholder fields and enum values produced by error recovery are
// omitted. The document should already have been validated; out of range
// numbers are clamped rather than reported.
func ResultFromAST(doc *ast.Document) Result {
	r := &result{
		doc:   doc,
		nodes: map[proto.Message]ast.Node{},
	}
	r.proto = r.asFileDescriptor(doc)
	return r
}

// ResultWithoutAST wraps a descriptor proto that was not produced by the
// parser, such as one for a standard import. Its AST method returns nil.
func ResultWithoutAST(proto *descriptorpb.FileDescriptorProto) Result {
	return &result{proto: proto}
}

func (r *result) AST() *ast.Document {
	return r.doc
}

func (r *result) Proto() *descriptorpb.FileDescriptorProto {
	return r.proto
}

func (r *result) Node(m proto.Message) ast.Node {
	return r.nodes[m]
}

func (r *result) put(m proto.Message, n ast.Node) {
	r.nodes[m] = n
}

func (r *result) asFileDescriptor(doc *ast.Document) *descriptorpb.FileDescriptorProto {
	fd := &descriptorpb.FileDescriptorProto{Name: proto.String(doc.Filename)}
	r.put(fd, doc)
	// proto2 is the default, so no need to set for that value
	if doc.IsProto3() {
		fd.Syntax = proto.String("proto3")
	}
	if doc.Package != nil {
		fd.Package = proto.String(doc.Package.Name)
	}
	for _, imp := range doc.Imports {
		index := int32(len(fd.Dependency))
		fd.Dependency = append(fd.Dependency, imp.Path)
		switch imp.Modifier {
		case ast.ImportPublic:
			fd.PublicDependency = append(fd.PublicDependency, index)
		case ast.ImportWeak:
			fd.WeakDependency = append(fd.WeakDependency, index)
		}
	}
	if opts := r.asUninterpretedOptions(doc.Options); len(opts) > 0 {
		fd.Options = &descriptorpb.FileOptions{UninterpretedOption: opts}
	}
	for _, def := range doc.Definitions {
		switch def := def.(type) {
		case *ast.Message:
			fd.MessageType = append(fd.MessageType, r.asMessageDescriptor(def, doc.IsProto3()))
		case *ast.Enum:
			fd.EnumType = append(fd.EnumType, r.asEnumDescriptor(def))
		case *ast.Service:
			fd.Service = append(fd.Service, r.asServiceDescriptor(def))
		case *ast.Extend:
			fd.Extension = append(fd.Extension, r.asExtensions(def, doc.IsProto3())...)
		}
	}
	return fd
}

func (r *result) asUninterpretedOptions(opts []*ast.Option) []*descriptorpb.UninterpretedOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*descriptorpb.UninterpretedOption, len(opts))
	for i, opt := range opts {
		out[i] = r.asUninterpretedOption(opt)
	}
	return out
}

func (r *result) asUninterpretedOption(opt *ast.Option) *descriptorpb.UninterpretedOption {
	uo := &descriptorpb.UninterpretedOption{}
	r.put(uo, opt)
	for _, part := range opt.Name.Parts {
		uo.Name = append(uo.Name, &descriptorpb.UninterpretedOption_NamePart{
			NamePart:    proto.String(part.Name),
			IsExtension: proto.Bool(part.Extension),
		})
	}
	switch val := opt.Value.(type) {
	case *ast.BoolValue:
		uo.IdentifierValue = proto.String(strconv.FormatBool(val.Value))
	case *ast.IntValue:
		uo.NegativeIntValue = proto.Int64(val.Value)
	case *ast.UintValue:
		uo.PositiveIntValue = proto.Uint64(val.Value)
	case *ast.FloatValue:
		uo.DoubleValue = proto.Float64(val.Value)
	case *ast.StringValue:
		uo.StringValue = []byte(val.Value)
	case *ast.IdentValue:
		uo.IdentifierValue = proto.String(val.Name)
	case *ast.AggregateValue:
		uo.AggregateValue = proto.String(printer.AggregateText(val))
	}
	return uo
}

func (r *result) asMessageDescriptor(msg *ast.Message, proto3 bool) *descriptorpb.DescriptorProto {
	md := &descriptorpb.DescriptorProto{Name: proto.String(msg.Name)}
	r.put(md, msg)
	if opts := r.asUninterpretedOptions(msg.Options); len(opts) > 0 {
		md.Options = &descriptorpb.MessageOptions{UninterpretedOption: opts}
	}

	// Fields of oneofs are interleaved with the other fields in source order.
	type indexedField struct {
		fld   *ast.Field
		oneof int
	}
	fields := make([]indexedField, 0, len(msg.Fields))
	for _, fld := range msg.Fields {
		fields = append(fields, indexedField{fld: fld, oneof: -1})
	}
	for i, oo := range msg.OneOfs {
		ood := &descriptorpb.OneofDescriptorProto{Name: proto.String(oo.Name)}
		r.put(ood, oo)
		if opts := r.asUninterpretedOptions(oo.Options); len(opts) > 0 {
			ood.Options = &descriptorpb.OneofOptions{UninterpretedOption: opts}
		}
		md.OneofDecl = append(md.OneofDecl, ood)
		for _, fld := range oo.Fields {
			fields = append(fields, indexedField{fld: fld, oneof: i})
		}
	}
	slices.SortStableFunc(fields, func(a, b indexedField) int {
		return cmp.Compare(a.fld.Span().Start.Offset, b.fld.Span().Start.Offset)
	})
	// Map entries are nested where their field is declared.
	type nestedType struct {
		offset int
		md     *descriptorpb.DescriptorProto
	}
	nested := make([]nestedType, 0, len(msg.Messages))
	for _, f := range fields {
		if f.fld.Partial {
			continue
		}
		fd := r.asFieldDescriptor(f.fld, proto3)
		if f.oneof >= 0 {
			fd.OneofIndex = proto.Int32(int32(f.oneof))
			fd.Proto3Optional = nil
		}
		if f.fld.IsMap() {
			nested = append(nested, nestedType{f.fld.Span().Start.Offset, r.asMapEntry(f.fld)})
		}
		md.Field = append(md.Field, fd)
	}
	for _, nm := range msg.Messages {
		nested = append(nested, nestedType{nm.Span().Start.Offset, r.asMessageDescriptor(nm, proto3)})
	}
	slices.SortStableFunc(nested, func(a, b nestedType) int {
		return cmp.Compare(a.offset, b.offset)
	})
	for _, nt := range nested {
		md.NestedType = append(md.NestedType, nt.md)
	}
	for _, en := range msg.Enums {
		md.EnumType = append(md.EnumType, r.asEnumDescriptor(en))
	}
	for _, ext := range msg.Extends {
		md.Extension = append(md.Extension, r.asExtensions(ext, proto3)...)
	}
	for _, er := range msg.Extensions {
		opts := r.asUninterpretedOptions(er.Options)
		for _, rng := range er.Ranges {
			erd := &descriptorpb.DescriptorProto_ExtensionRange{
				Start: proto.Int32(toInt32(rng.Start)),
				End:   proto.Int32(toInt32(rng.End + 1)),
			}
			if len(opts) > 0 {
				erd.Options = &descriptorpb.ExtensionRangeOptions{UninterpretedOption: opts}
			}
			r.put(erd, rng)
			md.ExtensionRange = append(md.ExtensionRange, erd)
		}
	}
	for _, rsvd := range msg.Reserved {
		for _, rng := range rsvd.Ranges {
			rr := &descriptorpb.DescriptorProto_ReservedRange{
				Start: proto.Int32(toInt32(rng.Start)),
				End:   proto.Int32(toInt32(rng.End + 1)),
			}
			r.put(rr, rng)
			md.ReservedRange = append(md.ReservedRange, rr)
		}
		md.ReservedName = append(md.ReservedName, rsvd.Names...)
	}

	if proto3 {
		r.addSyntheticOneOfs(md)
	}
	return md
}

// addSyntheticOneOfs adds a oneof to md for each proto3 optional field, named
// the way protoc names them, and points the field at it.
func (r *result) addSyntheticOneOfs(md *descriptorpb.DescriptorProto) {
	var allNames map[string]struct{}
	for _, fd := range md.Field {
		if !fd.GetProto3Optional() {
			continue
		}
		if allNames == nil {
			allNames = map[string]struct{}{}
			for _, fd := range md.Field {
				allNames[fd.GetName()] = struct{}{}
			}
			for _, od := range md.OneofDecl {
				allNames[od.GetName()] = struct{}{}
			}
		}
		ooName := fd.GetName()
		if !strings.HasPrefix(ooName, "_") {
			ooName = "_" + ooName
		}
		for {
			if _, ok := allNames[ooName]; !ok {
				allNames[ooName] = struct{}{}
				break
			}
			ooName = "X" + ooName
		}
		fd.OneofIndex = proto.Int32(int32(len(md.OneofDecl)))
		ood := &descriptorpb.OneofDescriptorProto{Name: proto.String(ooName)}
		md.OneofDecl = append(md.OneofDecl, ood)
		r.put(ood, r.nodes[fd])
	}
}

var fieldTypes = map[ast.ScalarType]descriptorpb.FieldDescriptorProto_Type{
	ast.ScalarDouble:   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	ast.ScalarFloat:    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	ast.ScalarInt32:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	ast.ScalarInt64:    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	ast.ScalarUint32:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	ast.ScalarUint64:   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	ast.ScalarSint32:   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	ast.ScalarSint64:   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	ast.ScalarFixed32:  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	ast.ScalarFixed64:  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	ast.ScalarSfixed32: descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	ast.ScalarSfixed64: descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	ast.ScalarBool:     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	ast.ScalarString:   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	ast.ScalarBytes:    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

func newFieldDescriptor(name string, typ *ast.FieldType, number int64, lbl descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
	fd := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(cases.JSONName(name)),
		Number:   proto.Int32(toInt32(number)),
		Label:    lbl.Enum(),
	}
	switch typ.Kind {
	case ast.TypeScalar:
		fd.Type = fieldTypes[typ.Scalar].Enum()
	case ast.TypeMap:
		fd.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		fd.TypeName = proto.String(cases.MapEntryName(name))
	default:
		// whether this is an enum or a message is not known until the name
		// is resolved, so Type is left unset
		fd.TypeName = proto.String(typ.Name)
	}
	return fd
}

func asLabel(lbl ast.Label) descriptorpb.FieldDescriptorProto_Label {
	switch lbl {
	case ast.LabelRequired:
		return descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	case ast.LabelRepeated:
		return descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	default:
		return descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	}
}

func (r *result) asFieldDescriptor(fld *ast.Field, proto3 bool) *descriptorpb.FieldDescriptorProto {
	lbl := asLabel(fld.Label)
	if fld.IsMap() {
		lbl = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	}
	fd := newFieldDescriptor(fld.Name, fld.Type, fld.Number, lbl)
	r.put(fd, fld)
	if opts := r.asUninterpretedOptions(fld.Options); len(opts) > 0 {
		fd.Options = &descriptorpb.FieldOptions{UninterpretedOption: opts}
	}
	if fld.Default != nil {
		fd.DefaultValue = proto.String(defaultValueText(fld.Default, fld.Type))
	}
	if proto3 && fld.Label == ast.LabelOptional {
		fd.Proto3Optional = proto.Bool(true)
	}
	return fd
}

func (r *result) asMapEntry(fld *ast.Field) *descriptorpb.DescriptorProto {
	lbl := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	keyFd := newFieldDescriptor("key", fld.Type.Key, 1, lbl)
	valFd := newFieldDescriptor("value", fld.Type.Value, 2, lbl)
	md := &descriptorpb.DescriptorProto{
		Name:    proto.String(cases.MapEntryName(fld.Name)),
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
		Field:   []*descriptorpb.FieldDescriptorProto{keyFd, valFd},
	}
	r.put(md, fld)
	r.put(keyFd, fld)
	r.put(valFd, fld)
	return md
}

func (r *result) asExtensions(ext *ast.Extend, proto3 bool) []*descriptorpb.FieldDescriptorProto {
	var out []*descriptorpb.FieldDescriptorProto
	for _, fld := range ext.Fields {
		if fld.Partial {
			continue
		}
		fd := r.asFieldDescriptor(fld, proto3)
		fd.Extendee = proto.String(ext.Extendee)
		out = append(out, fd)
	}
	return out
}

func (r *result) asEnumDescriptor(en *ast.Enum) *descriptorpb.EnumDescriptorProto {
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(en.Name)}
	r.put(ed, en)
	if opts := r.asUninterpretedOptions(en.Options); len(opts) > 0 {
		ed.Options = &descriptorpb.EnumOptions{UninterpretedOption: opts}
	}
	for _, val := range en.Values {
		if val.Partial {
			continue
		}
		evd := &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(val.Name),
			Number: proto.Int32(toInt32(val.Number)),
		}
		r.put(evd, val)
		if opts := r.asUninterpretedOptions(val.Options); len(opts) > 0 {
			evd.Options = &descriptorpb.EnumValueOptions{UninterpretedOption: opts}
		}
		ed.Value = append(ed.Value, evd)
	}
	for _, rsvd := range en.Reserved {
		// enum reserved ranges are inclusive
		for _, rng := range rsvd.Ranges {
			rr := &descriptorpb.EnumDescriptorProto_EnumReservedRange{
				Start: proto.Int32(toInt32(rng.Start)),
				End:   proto.Int32(toInt32(rng.End)),
			}
			r.put(rr, rng)
			ed.ReservedRange = append(ed.ReservedRange, rr)
		}
		ed.ReservedName = append(ed.ReservedName, rsvd.Names...)
	}
	return ed
}

func (r *result) asServiceDescriptor(svc *ast.Service) *descriptorpb.ServiceDescriptorProto {
	sd := &descriptorpb.ServiceDescriptorProto{Name: proto.String(svc.Name)}
	r.put(sd, svc)
	if opts := r.asUninterpretedOptions(svc.Options); len(opts) > 0 {
		sd.Options = &descriptorpb.ServiceOptions{UninterpretedOption: opts}
	}
	for _, rpc := range svc.RPCs {
		md := &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(rpc.Name),
			InputType:  proto.String(rpc.InputType),
			OutputType: proto.String(rpc.OutputType),
		}
		r.put(md, rpc)
		if rpc.InputStream {
			md.ClientStreaming = proto.Bool(true)
		}
		if rpc.OutputStream {
			md.ServerStreaming = proto.Bool(true)
		}
		if opts := r.asUninterpretedOptions(rpc.Options); len(opts) > 0 {
			md.Options = &descriptorpb.MethodOptions{UninterpretedOption: opts}
		}
		sd.Method = append(sd.Method, md)
	}
	return sd
}

// defaultValueText renders a default value the way FieldDescriptorProto
// stores it: bytes are C-escaped, other strings are stored verbatim.
func defaultValueText(v ast.Value, typ *ast.FieldType) string {
	switch v := v.(type) {
	case *ast.StringValue:
		if typ != nil && typ.Kind == ast.TypeScalar && typ.Scalar == ast.ScalarBytes {
			return cEscape(v.Value)
		}
		return v.Value
	case *ast.BoolValue:
		return strconv.FormatBool(v.Value)
	case *ast.IntValue:
		return strconv.FormatInt(v.Value, 10)
	case *ast.UintValue:
		return strconv.FormatUint(v.Value, 10)
	case *ast.FloatValue:
		switch {
		case math.IsInf(v.Value, 1):
			return "inf"
		case math.IsInf(v.Value, -1):
			return "-inf"
		case math.IsNaN(v.Value):
			return "nan"
		}
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *ast.IdentValue:
		return v.Name
	default:
		return printer.FormatValue(v)
	}
}

func cEscape(s string) string {
	var sb strings.Builder
	for i := range len(s) {
		c := s[i]
		switch c {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '"':
			sb.WriteString(`\"`)
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if c < 0x20 || c >= 0x7f {
				sb.WriteByte('\\')
				sb.WriteByte('0' + (c >> 6))
				sb.WriteByte('0' + ((c >> 3) & 7))
				sb.WriteByte('0' + (c & 7))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}

func toInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}
