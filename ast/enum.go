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

// Enum is an enum declaration.
type Enum struct {
	Spanned

	Name     string
	Values   []*EnumValue
	Reserved []*Reserved
	Options  []*Option
	// AllowAlias is set when the enum has "option allow_alias = true".
	AllowAlias bool
}

func (e *Enum) DefinitionName() string { return e.Name }
func (*Enum) definition()              {}

// EnumValue is a single value of an enum.
type EnumValue struct {
	Spanned

	Name       string
	NameSpan   Span
	Number     int64
	NumberSpan Span
	Options    []*Option
	// Partial is set on placeholder values synthesized during recovery.
	Partial bool
}

// Service is a service declaration.
type Service struct {
	Spanned

	Name    string
	RPCs    []*RPC
	Options []*Option
}

func (s *Service) DefinitionName() string { return s.Name }
func (*Service) definition()              {}

// RPC is a method of a service.
type RPC struct {
	Spanned

	Name         string
	InputType    string
	InputStream  bool
	OutputType   string
	OutputStream bool
	Options      []*Option
}

// Extend is an extend block, which adds fields to another message.
type Extend struct {
	Spanned

	// The name of the extended message, as written.
	Extendee string
	Fields   []*Field
}

func (e *Extend) DefinitionName() string { return e.Extendee }
func (*Extend) definition()              {}
