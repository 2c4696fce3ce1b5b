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

// Node is implemented by every element of the tree.
type Node interface {
	Span() Span
}

// Spanned is embedded in every node and records the region of source the
// node was parsed from. It can only be created with At, so a node's span is
// fixed at construction.
type Spanned struct {
	span Span
}

// At returns a Spanned for the given span.
func At(span Span) Spanned {
	return Spanned{span: span}
}

// Span returns the source span of the node.
func (s Spanned) Span() Span {
	return s.span
}

// Dialect identifies which variant of the language a file is written in.
type Dialect int

const (
	// DialectUnspecified means the file had no syntax statement. Such files
	// are handled with proto2 semantics.
	DialectUnspecified Dialect = iota
	DialectProto2
	DialectProto3
)

func (d Dialect) String() string {
	switch d {
	case DialectProto2:
		return "proto2"
	case DialectProto3:
		return "proto3"
	default:
		return "unspecified"
	}
}

// Document is the root of the AST for a single source file.
type Document struct {
	Spanned

	Filename string
	Dialect  Dialect
	// Nil when the file has no package statement.
	Package     *Package
	Imports     []*Import
	Options     []*Option
	Definitions []Definition
}

// IsProto3 reports whether the document declared proto3 syntax.
func (d *Document) IsProto3() bool {
	return d.Dialect == DialectProto3
}

// PackageName returns the declared package, or the empty string.
func (d *Document) PackageName() string {
	if d.Package == nil {
		return ""
	}
	return d.Package.Name
}

// Messages returns the top-level messages, in declaration order.
func (d *Document) Messages() []*Message {
	return definitionsOf[*Message](d.Definitions)
}

// Enums returns the top-level enums, in declaration order.
func (d *Document) Enums() []*Enum {
	return definitionsOf[*Enum](d.Definitions)
}

// Services returns the services, in declaration order.
func (d *Document) Services() []*Service {
	return definitionsOf[*Service](d.Definitions)
}

// Extends returns the top-level extend blocks, in declaration order.
func (d *Document) Extends() []*Extend {
	return definitionsOf[*Extend](d.Definitions)
}

func definitionsOf[T Definition](defs []Definition) []T {
	var out []T
	for _, def := range defs {
		if t, ok := def.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Package is a package declaration.
type Package struct {
	Spanned

	// A dotted name, such as "foo.bar.baz".
	Name string
}

// ImportModifier is the optional keyword that follows "import".
type ImportModifier int

const (
	ImportDefault ImportModifier = iota
	ImportPublic
	ImportWeak
)

func (m ImportModifier) String() string {
	switch m {
	case ImportPublic:
		return "public"
	case ImportWeak:
		return "weak"
	default:
		return ""
	}
}

// Import is an import statement.
type Import struct {
	Spanned

	Path     string
	Modifier ImportModifier
}

// Definition is a named type-level declaration: one of *Message, *Enum,
// *Service or *Extend.
type Definition interface {
	Node
	// DefinitionName returns the declared name, or the extendee for an
	// extend block.
	DefinitionName() string

	definition()
}

var (
	_ Definition = (*Message)(nil)
	_ Definition = (*Enum)(nil)
	_ Definition = (*Service)(nil)
	_ Definition = (*Extend)(nil)
)
