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

// Package printer renders a parsed document back to protobuf source text.
//
// The output is canonical rather than faithful: comments and the original
// whitespace are not preserved, and the elements of each message are
// grouped by kind. Parsing the output yields a document equal to the
// input, apart from source spans.
package printer

import (
	"io"
	"strings"

	"github.com/bufbuild/protoast/ast"
)

// Options controls the formatting behavior of the printer.
type Options struct {
	// Indent is the string used for each level of indentation.
	// Defaults to two spaces if empty.
	Indent string
}

// withDefaults returns a copy of opts with default values applied.
func (opts Options) withDefaults() Options {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	return opts
}

// Print renders doc to w using the default options.
func Print(w io.Writer, doc *ast.Document) error {
	return Options{}.Print(w, doc)
}

// String renders doc to a string using the default options.
func String(doc *ast.Document) string {
	var sb strings.Builder
	_ = Print(&sb, doc)
	return sb.String()
}

// Print renders doc to w.
func (opts Options) Print(w io.Writer, doc *ast.Document) error {
	p := &printer{options: opts.withDefaults()}
	p.printFile(doc)
	_, err := io.WriteString(w, p.buf.String())
	return err
}

// printer accumulates output for a single document.
type printer struct {
	options Options
	buf     strings.Builder
	depth   int
	// Set once anything has been written at the top level, to separate
	// sections with blank lines.
	started bool
}

// line writes one indented line built from parts.
func (p *printer) line(parts ...string) {
	for range p.depth {
		p.buf.WriteString(p.options.Indent)
	}
	for _, part := range parts {
		p.buf.WriteString(part)
	}
	p.buf.WriteByte('\n')
}

// section starts a new top-level section, preceded by a blank line unless
// it is the first.
func (p *printer) section() {
	if p.started {
		p.buf.WriteByte('\n')
	}
	p.started = true
}

// block prints "header {", the body one level deeper, and "}". An empty body
// is printed as "header {}".
func (p *printer) block(header string, empty bool, body func()) {
	if empty {
		p.line(header, " {}")
		return
	}
	p.line(header, " {")
	p.depth++
	body()
	p.depth--
	p.line("}")
}
