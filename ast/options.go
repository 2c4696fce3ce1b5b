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
	"strings"
)

// Option is an option statement, or one element of a compact option list
// such as the one following a field.
type Option struct {
	Spanned

	Name  OptionName
	Value Value
}

// OptionName is the possibly-compound name of an option, such as
// "deprecated" or "(foo.bar).baz".
type OptionName struct {
	Spanned

	Parts []NamePart
}

// NamePart is one dot-separated component of an option name.
type NamePart struct {
	// For an extension part, the qualified name inside the parentheses,
	// possibly with a leading dot.
	Name string
	// Extension is set when the part was written in parentheses.
	Extension bool
}

func (p NamePart) String() string {
	if p.Extension {
		return "(" + p.Name + ")"
	}
	return p.Name
}

func (n OptionName) String() string {
	var sb strings.Builder
	for i, part := range n.Parts {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part.String())
	}
	return sb.String()
}

// IsSimple reports whether the name is the single, non-extension name s.
func (n OptionName) IsSimple(s string) bool {
	return len(n.Parts) == 1 && !n.Parts[0].Extension && n.Parts[0].Name == s
}

// Value is the value of an option. Values are untyped at parse time. The
// concrete type is one of *BoolValue, *IntValue, *UintValue, *FloatValue,
// *StringValue, *IdentValue, *AggregateValue or *ListValue.
type Value interface {
	Node
	value()
}

var (
	_ Value = (*BoolValue)(nil)
	_ Value = (*IntValue)(nil)
	_ Value = (*UintValue)(nil)
	_ Value = (*FloatValue)(nil)
	_ Value = (*StringValue)(nil)
	_ Value = (*IdentValue)(nil)
	_ Value = (*AggregateValue)(nil)
	_ Value = (*ListValue)(nil)
)

// BoolValue is the literal true or false.
type BoolValue struct {
	Spanned
	Value bool
}

// IntValue is a negative integer literal.
type IntValue struct {
	Spanned
	Value int64
}

// UintValue is a non-negative integer literal.
type UintValue struct {
	Spanned
	Value uint64
}

// FloatValue is a floating point literal, including inf and nan.
type FloatValue struct {
	Spanned
	Value float64
}

// StringValue is a string literal. Adjacent literals are concatenated.
type StringValue struct {
	Spanned
	Value string
}

// IdentValue is an identifier, typically the name of an enum value.
type IdentValue struct {
	Spanned
	Name string
}

// AggregateValue is a message literal in the text format, such as
// { foo: 1 bar { baz: "x" } }.
type AggregateValue struct {
	Spanned
	Fields []*AggregateField
}

// AggregateField is one name/value entry of an AggregateValue. The same
// name may appear more than once.
type AggregateField struct {
	Spanned

	Name string
	// Extension is set when the name was written in brackets, such as
	// [foo.bar] or [type.googleapis.com/foo.Bar].
	Extension bool
	Value     Value
}

// Lookup returns the first field with the given name, or nil.
func (a *AggregateValue) Lookup(name string) *AggregateField {
	for _, f := range a.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ListValue is a list of values inside an aggregate, such as [1, 2, 3].
type ListValue struct {
	Spanned
	Elements []Value
}

func (*BoolValue) value()      {}
func (*IntValue) value()       {}
func (*UintValue) value()      {}
func (*FloatValue) value()     {}
func (*StringValue) value()    {}
func (*IdentValue) value()     {}
func (*AggregateValue) value() {}
func (*ListValue) value()      {}
