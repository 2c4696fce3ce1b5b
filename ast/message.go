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

const (
	// MinFieldNumber is the smallest legal field number.
	MinFieldNumber = 1
	// MaxFieldNumber is the largest legal field number, 2^29-1.
	MaxFieldNumber = 536870911
	// FirstReservedNumber is the start of the range of field numbers
	// reserved for the protobuf implementation.
	FirstReservedNumber = 19000
	// LastReservedNumber is the end (inclusive) of that range.
	LastReservedNumber = 19999
)

// Message is a message declaration.
type Message struct {
	Spanned

	Name       string
	Fields     []*Field
	OneOfs     []*OneOf
	Messages   []*Message
	Enums      []*Enum
	Extends    []*Extend
	Reserved   []*Reserved
	Extensions []*ExtensionRange
	Options    []*Option
}

func (m *Message) DefinitionName() string { return m.Name }
func (*Message) definition()              {}

// AllFields returns the fields of the message followed by the fields of each
// of its oneofs. These are the fields whose numbers must be distinct.
func (m *Message) AllFields() []*Field {
	all := make([]*Field, 0, len(m.Fields))
	all = append(all, m.Fields...)
	for _, oo := range m.OneOfs {
		all = append(all, oo.Fields...)
	}
	return all
}

// Label is the cardinality keyword of a field.
type Label int

const (
	// LabelSingular means no label was written. In proto3 this is an ordinary
	// singular field; it is also the label of map fields and oneof fields.
	LabelSingular Label = iota
	LabelOptional
	LabelRequired
	LabelRepeated
)

func (l Label) String() string {
	switch l {
	case LabelOptional:
		return "optional"
	case LabelRequired:
		return "required"
	case LabelRepeated:
		return "repeated"
	default:
		return ""
	}
}

// Field is a field declaration in a message, oneof or extend block.
type Field struct {
	Spanned

	Label Label
	// Zero if Label is LabelSingular.
	LabelSpan Span
	Type      *FieldType
	Name      string
	// Zero for placeholder fields that had no name.
	NameSpan Span
	Number   int64
	// Zero for placeholder fields that had no number.
	NumberSpan Span
	// The value of the "default" pseudo-option, if present. Nil otherwise.
	Default Value
	Options []*Option
	// Partial is set on placeholder fields that the parser synthesized while
	// recovering from a malformed declaration.
	Partial bool
}

// IsMap reports whether the field has a map type.
func (f *Field) IsMap() bool {
	return f.Type != nil && f.Type.Kind == TypeMap
}

// OneOf is a oneof declaration.
type OneOf struct {
	Spanned

	Name    string
	Fields  []*Field
	Options []*Option
}

// Reserved is a reserved statement. A single statement declares either
// ranges or names, never both.
type Reserved struct {
	Spanned

	Ranges []*Range
	Names  []string
}

// ExtensionRange is an extensions statement.
type ExtensionRange struct {
	Spanned

	Ranges  []*Range
	Options []*Option
}

// Range is a single number or an inclusive range of numbers.
type Range struct {
	Spanned

	Start int64
	// Equal to Start for a single number.
	End int64
	// Max is set when the end was written as the "max" keyword. End then
	// holds the largest value legal in the enclosing context.
	Max bool
}
