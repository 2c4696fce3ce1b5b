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
	"fmt"
	"math"
	"slices"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/cases"
	"github.com/bufbuild/protoast/internal/interval"
	"github.com/bufbuild/protoast/reporter"
	"github.com/bufbuild/protoast/walk"
)

// Validate checks a parsed document for structural problems: well-formed
// declarations that break a rule of the language, such as duplicate field
// numbers or a required field in a proto3 file. Each problem is reported to
// handler with KindStructural. Placeholder elements produced by recovery
// are not checked.
//
// The returned error is non-nil only when the handler aborted.
func Validate(doc *ast.Document, handler *reporter.Handler) error {
	v := &validator{handler: handler, proto3: doc.IsProto3()}
	if err := v.validateFile(doc); err != nil {
		return err
	}
	return walk.NodesEnterAndExit(doc, v.enter, v.exit)
}

type validator struct {
	handler *reporter.Handler
	proto3  bool
	// Enclosing messages, oneofs and extend blocks of the current node.
	stack []ast.Node
}

func (v *validator) errorf(span ast.Span, format string, args ...any) error {
	return v.handler.HandleErrorf(reporter.KindStructural, span, format, args...)
}

func (v *validator) enter(name protoreflect.FullName, n ast.Node) error {
	var err error
	switch n := n.(type) {
	case *ast.Message:
		err = v.validateMessage(name, n)
	case *ast.OneOf:
		err = v.validateOneOf(name, n)
	case *ast.Field:
		err = v.validateField(name, n)
	case *ast.Enum:
		err = v.validateEnum(name, n)
	case *ast.Service:
		err = v.validateService(name, n)
	case *ast.Extend:
		err = v.validateExtend(name, n)
	}
	switch n.(type) {
	case *ast.Message, *ast.OneOf, *ast.Extend:
		v.stack = append(v.stack, n)
	}
	return err
}

func (v *validator) exit(_ protoreflect.FullName, n ast.Node) error {
	switch n.(type) {
	case *ast.Message, *ast.OneOf, *ast.Extend:
		v.stack = v.stack[:len(v.stack)-1]
	}
	return nil
}

func (v *validator) container() ast.Node {
	if len(v.stack) == 0 {
		return nil
	}
	return v.stack[len(v.stack)-1]
}

// symbol is a name declared in a scope, used to find duplicates.
type symbol struct {
	name string
	what string
	span ast.Span
}

// checkNames reports every symbol whose name was already declared earlier in
// the same scope.
func (v *validator) checkNames(scope string, syms []symbol) error {
	slices.SortStableFunc(syms, func(a, b symbol) int {
		return cmp.Compare(a.span.Start.Offset, b.span.Start.Offset)
	})
	seen := make(map[string]symbol, len(syms))
	for _, sym := range syms {
		if sym.name == "" {
			continue
		}
		if prev, ok := seen[sym.name]; ok {
			if err := v.errorf(sym.span, "%s: %s %q is already defined as %s at %s", scope, sym.what, sym.name, prev.what, prev.span.Start); err != nil {
				return err
			}
			continue
		}
		seen[sym.name] = sym
	}
	return nil
}

func fieldSymbols(syms []symbol, fields []*ast.Field, what string) []symbol {
	for _, fld := range fields {
		if fld.Partial {
			continue
		}
		syms = append(syms, symbol{name: fld.Name, what: what, span: fld.NameSpan})
	}
	return syms
}

func enumSymbols(syms []symbol, enums []*ast.Enum) []symbol {
	for _, en := range enums {
		syms = append(syms, symbol{name: en.Name, what: "enum", span: en.Span()})
		for _, val := range en.Values {
			if val.Partial {
				continue
			}
			syms = append(syms, symbol{name: val.Name, what: "enum value", span: val.NameSpan})
		}
	}
	return syms
}

func (v *validator) validateFile(doc *ast.Document) error {
	scope := "package " + doc.PackageName()
	if doc.Package == nil {
		scope = fmt.Sprintf("file %q", doc.Filename)
	}
	var syms []symbol
	for _, msg := range doc.Messages() {
		syms = append(syms, symbol{name: msg.Name, what: "message", span: msg.Span()})
	}
	syms = enumSymbols(syms, doc.Enums())
	for _, svc := range doc.Services() {
		syms = append(syms, symbol{name: svc.Name, what: "service", span: svc.Span()})
	}
	for _, ext := range doc.Extends() {
		syms = fieldSymbols(syms, ext.Fields, "extension")
	}
	return v.checkNames(scope, syms)
}

func (v *validator) validateMessage(name protoreflect.FullName, msg *ast.Message) error {
	scope := fmt.Sprintf("message %s", name)

	if v.proto3 && len(msg.Extensions) > 0 {
		if err := v.errorf(msg.Extensions[0].Span(), "%s: extension ranges are not allowed in proto3", scope); err != nil {
			return err
		}
	}

	for _, opt := range msg.Options {
		if !opt.Name.IsSimple("map_entry") {
			continue
		}
		if b, ok := opt.Value.(*ast.BoolValue); !ok {
			if err := v.errorf(opt.Value.Span(), "%s: expecting bool value for map_entry option", scope); err != nil {
				return err
			}
		} else if b.Value {
			if err := v.errorf(opt.Value.Span(), "%s: map_entry option should not be set explicitly; use map type instead", scope); err != nil {
				return err
			}
		}
	}

	// reserved ranges should not overlap
	var rsvd interval.Map[int64, *ast.Range]
	rsvdNames, err := v.reservedNames(scope, msg.Reserved)
	if err != nil {
		return err
	}
	for _, r := range msg.Reserved {
		for _, rng := range r.Ranges {
			if err := v.checkRange(scope, rng, ast.MinFieldNumber, ast.MaxFieldNumber); err != nil {
				return err
			}
			if rng.Start > rng.End {
				continue
			}
			if overlap := rsvd.Insert(rng.Start, rng.End, rng); overlap.Found() {
				if err := v.errorf(rng.Span(), "%s: reserved ranges overlap: %d to %d and %d to %d", scope, overlap.Start, overlap.End, rng.Start, rng.End); err != nil {
					return err
				}
			}
		}
	}

	// extension ranges should not overlap each other or any reserved range
	var exts interval.Map[int64, *ast.Range]
	for _, er := range msg.Extensions {
		for _, rng := range er.Ranges {
			if err := v.checkRange(scope, rng, ast.MinFieldNumber, ast.MaxFieldNumber); err != nil {
				return err
			}
			if rng.Start > rng.End {
				continue
			}
			if overlap := rsvd.Overlap(rng.Start, rng.End); overlap.Found() {
				if err := v.errorf(rng.Span(), "%s: extension range %d to %d overlaps reserved range %d to %d", scope, rng.Start, rng.End, overlap.Start, overlap.End); err != nil {
					return err
				}
			}
			if overlap := exts.Insert(rng.Start, rng.End, rng); overlap.Found() {
				if err := v.errorf(rng.Span(), "%s: extension ranges overlap: %d to %d and %d to %d", scope, overlap.Start, overlap.End, rng.Start, rng.End); err != nil {
					return err
				}
			}
		}
	}

	// now, check that fields don't re-use numbers and don't try to use
	// extension or reserved ranges or reserved names
	fields := msg.AllFields()
	slices.SortStableFunc(fields, func(a, b *ast.Field) int {
		return cmp.Compare(a.Span().Start.Offset, b.Span().Start.Offset)
	})
	fieldNumbers := map[int64]string{}
	jsonNames := map[string]string{}
	for _, fld := range fields {
		if fld.Partial {
			continue
		}
		if v.proto3 {
			jsonName := cases.JSONName(fld.Name)
			if existing, ok := jsonNames[jsonName]; ok && existing != fld.Name {
				if err := v.errorf(fld.NameSpan, "%s: default JSON name %q of field %s conflicts with field %s", scope, jsonName, fld.Name, existing); err != nil {
					return err
				}
			} else if !ok {
				jsonNames[jsonName] = fld.Name
			}
		}
		if _, ok := rsvdNames[fld.Name]; ok {
			if err := v.errorf(fld.NameSpan, "%s: field %s is using a reserved name", scope, fld.Name); err != nil {
				return err
			}
		}
		if existing := fieldNumbers[fld.Number]; existing != "" {
			if err := v.errorf(fld.NumberSpan, "%s: fields %s and %s both have the same tag %d", scope, existing, fld.Name, fld.Number); err != nil {
				return err
			}
		} else {
			fieldNumbers[fld.Number] = fld.Name
		}
		if r := rsvd.Get(fld.Number); r.Found() {
			if err := v.errorf(fld.NumberSpan, "%s: field %s is using tag %d which is in reserved range %d to %d", scope, fld.Name, fld.Number, r.Start, r.End); err != nil {
				return err
			}
		}
		if e := exts.Get(fld.Number); e.Found() {
			if err := v.errorf(fld.NumberSpan, "%s: field %s is using tag %d which is in extension range %d to %d", scope, fld.Name, fld.Number, e.Start, e.End); err != nil {
				return err
			}
		}
	}

	syms := fieldSymbols(nil, fields, "field")
	for _, oo := range msg.OneOfs {
		syms = append(syms, symbol{name: oo.Name, what: "oneof", span: oo.Span()})
	}
	for _, nested := range msg.Messages {
		syms = append(syms, symbol{name: nested.Name, what: "message", span: nested.Span()})
	}
	syms = enumSymbols(syms, msg.Enums)
	for _, ext := range msg.Extends {
		syms = fieldSymbols(syms, ext.Fields, "extension")
	}
	return v.checkNames(scope, syms)
}

// reservedNames collects the reserved names of a message or enum, reporting
// names that are not identifiers or are reserved more than once.
func (v *validator) reservedNames(scope string, reserved []*ast.Reserved) (map[string]struct{}, error) {
	names := map[string]struct{}{}
	for _, r := range reserved {
		for _, name := range r.Names {
			if !isIdentifier(name) {
				if err := v.errorf(r.Span(), "%s: reserved name %q is not a valid identifier", scope, name); err != nil {
					return nil, err
				}
			}
			if _, ok := names[name]; ok {
				if err := v.errorf(r.Span(), "%s: name %q is reserved multiple times", scope, name); err != nil {
					return nil, err
				}
			}
			names[name] = struct{}{}
		}
	}
	return names, nil
}

func (v *validator) checkRange(scope string, rng *ast.Range, lowest, highest int64) error {
	if rng.Start > rng.End {
		return v.errorf(rng.Span(), "%s: range start %d is greater than range end %d", scope, rng.Start, rng.End)
	}
	if rng.Start < lowest || rng.End > highest {
		return v.errorf(rng.Span(), "%s: range %d to %d is out of range: should be between %d and %d", scope, rng.Start, rng.End, lowest, highest)
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (v *validator) validateOneOf(name protoreflect.FullName, oo *ast.OneOf) error {
	if len(oo.Fields) == 0 {
		return v.errorf(oo.Span(), "oneof %s: oneof must contain at least one field", name)
	}
	return nil
}

func (v *validator) validateField(name protoreflect.FullName, fld *ast.Field) error {
	if fld.Partial {
		return nil
	}
	scope := fmt.Sprintf("field %s", name)
	parent := v.container()
	_, inOneOf := parent.(*ast.OneOf)
	_, isExtension := parent.(*ast.Extend)

	if fld.Number < ast.MinFieldNumber || fld.Number > ast.MaxFieldNumber {
		if err := v.errorf(fld.NumberSpan, "%s: tag number %d must be in range %d to %d", scope, fld.Number, ast.MinFieldNumber, ast.MaxFieldNumber); err != nil {
			return err
		}
	} else if fld.Number >= ast.FirstReservedNumber && fld.Number <= ast.LastReservedNumber {
		if err := v.errorf(fld.NumberSpan, "%s: tag number %d is in disallowed reserved range %d-%d", scope, fld.Number, ast.FirstReservedNumber, ast.LastReservedNumber); err != nil {
			return err
		}
	}

	switch {
	case fld.IsMap():
		if err := v.validateMapField(scope, fld, inOneOf, isExtension); err != nil {
			return err
		}
	case inOneOf:
		if fld.Label != ast.LabelSingular {
			if err := v.errorf(fld.LabelSpan, "%s: fields in a oneof must not have labels", scope); err != nil {
				return err
			}
		}
	case v.proto3:
		if fld.Label == ast.LabelRequired {
			if err := v.errorf(fld.LabelSpan, "%s: label 'required' is not allowed in proto3", scope); err != nil {
				return err
			}
		}
	default:
		if fld.Label == ast.LabelSingular {
			if err := v.errorf(fld.NameSpan, "%s: field has no label; proto2 requires explicit 'optional' label", scope); err != nil {
				return err
			}
		}
	}
	if isExtension && fld.Label == ast.LabelRequired {
		if err := v.errorf(fld.LabelSpan, "%s: extension fields cannot be 'required'", scope); err != nil {
			return err
		}
	}

	if fld.Default != nil {
		switch {
		case v.proto3:
			if err := v.errorf(fld.Default.Span(), "%s: default values are not allowed in proto3", scope); err != nil {
				return err
			}
		case fld.Label == ast.LabelRepeated || fld.IsMap():
			if err := v.errorf(fld.Default.Span(), "%s: default value cannot be set because field is repeated", scope); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) validateMapField(scope string, fld *ast.Field, inOneOf, isExtension bool) error {
	if fld.Label != ast.LabelSingular {
		if err := v.errorf(fld.LabelSpan, "%s: field labels are not allowed on map fields", scope); err != nil {
			return err
		}
	}
	if inOneOf {
		if err := v.errorf(fld.Type.Span(), "%s: map fields are not allowed in oneofs", scope); err != nil {
			return err
		}
	}
	if isExtension {
		if err := v.errorf(fld.Type.Span(), "%s: map fields are not allowed to be extensions", scope); err != nil {
			return err
		}
	}
	key := fld.Type.Key
	if key != nil && (key.Kind != ast.TypeScalar || !key.Scalar.IsValidMapKey()) {
		if err := v.errorf(key.Span(), "%s: key type of map field must be an integral, bool or string type, not %s", scope, key); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateEnum(name protoreflect.FullName, en *ast.Enum) error {
	scope := fmt.Sprintf("enum %s", name)

	if len(en.Values) == 0 {
		if err := v.errorf(en.Span(), "%s: enums must define at least one value", scope); err != nil {
			return err
		}
	}

	for _, opt := range en.Options {
		if !opt.Name.IsSimple("allow_alias") {
			continue
		}
		if _, ok := opt.Value.(*ast.BoolValue); !ok {
			if err := v.errorf(opt.Value.Span(), "%s: expecting bool value for allow_alias option", scope); err != nil {
				return err
			}
		}
	}

	if v.proto3 && len(en.Values) > 0 {
		first := en.Values[0]
		if !first.Partial && first.Number != 0 {
			if err := v.errorf(first.NumberSpan, "%s: proto3 requires that first value in enum have numeric value of 0", scope); err != nil {
				return err
			}
		}
	}

	var rsvd interval.Map[int64, *ast.Range]
	rsvdNames, err := v.reservedNames(scope, en.Reserved)
	if err != nil {
		return err
	}
	for _, r := range en.Reserved {
		for _, rng := range r.Ranges {
			if err := v.checkRange(scope, rng, math.MinInt32, math.MaxInt32); err != nil {
				return err
			}
			if rng.Start > rng.End {
				continue
			}
			if overlap := rsvd.Insert(rng.Start, rng.End, rng); overlap.Found() {
				if err := v.errorf(rng.Span(), "%s: reserved ranges overlap: %d to %d and %d to %d", scope, overlap.Start, overlap.End, rng.Start, rng.End); err != nil {
					return err
				}
			}
		}
	}

	numbers := map[int64]string{}
	keys := map[string]*ast.EnumValue{}
	aliased := false
	for _, val := range en.Values {
		if val.Partial {
			continue
		}
		if v.proto3 {
			// Values that only differ by case or by the enum name prefix must
			// be aliases.
			key := cases.EnumValueKey(val.Name, en.Name)
			if prev, ok := keys[key]; ok && prev.Number != val.Number {
				if err := v.errorf(val.NameSpan, "%s: value %s conflicts with %s when case and the enum name prefix are ignored", scope, val.Name, prev.Name); err != nil {
					return err
				}
			} else if !ok {
				keys[key] = val
			}
		}
		if val.Number < math.MinInt32 || val.Number > math.MaxInt32 {
			if err := v.errorf(val.NumberSpan, "%s: value %s: number %d is out of range for int32", scope, val.Name, val.Number); err != nil {
				return err
			}
		}
		if existing, ok := numbers[val.Number]; ok {
			aliased = true
			if !en.AllowAlias {
				if err := v.errorf(val.NumberSpan, "%s: values %s and %s both have the same numeric value %d; use allow_alias option if intentional", scope, existing, val.Name, val.Number); err != nil {
					return err
				}
			}
		} else {
			numbers[val.Number] = val.Name
		}
		if _, ok := rsvdNames[val.Name]; ok {
			if err := v.errorf(val.NameSpan, "%s: value %s is using a reserved name", scope, val.Name); err != nil {
				return err
			}
		}
		if r := rsvd.Get(val.Number); r.Found() {
			if err := v.errorf(val.NumberSpan, "%s: value %s is using number %d which is in reserved range %d to %d", scope, val.Name, val.Number, r.Start, r.End); err != nil {
				return err
			}
		}
	}
	if en.AllowAlias && !aliased {
		if err := v.errorf(en.Span(), "%s: allow_alias is true but no values are aliases", scope); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateService(name protoreflect.FullName, svc *ast.Service) error {
	scope := fmt.Sprintf("service %s", name)
	syms := make([]symbol, 0, len(svc.RPCs))
	for _, rpc := range svc.RPCs {
		syms = append(syms, symbol{name: rpc.Name, what: "method", span: rpc.Span()})
	}
	return v.checkNames(scope, syms)
}

func (v *validator) validateExtend(name protoreflect.FullName, ext *ast.Extend) error {
	scope := fmt.Sprintf("extend %s", ext.Extendee)
	if name != "" {
		scope = fmt.Sprintf("extend %s in %s", ext.Extendee, name)
	}
	if len(ext.Fields) == 0 {
		if err := v.errorf(ext.Span(), "%s: extend sections must define at least one extension", scope); err != nil {
			return err
		}
	}
	if v.proto3 && !isOptionsMessage(ext.Extendee) {
		if err := v.errorf(ext.Span(), "%s: extend blocks in proto3 can only be used to define custom options", scope); err != nil {
			return err
		}
	}
	return nil
}

// isOptionsMessage reports whether extendee names one of the option messages
// in google/protobuf/descriptor.proto.
func isOptionsMessage(extendee string) bool {
	name := strings.TrimPrefix(extendee, ".")
	return strings.HasPrefix(name, "google.protobuf.") && strings.HasSuffix(name, "Options")
}
