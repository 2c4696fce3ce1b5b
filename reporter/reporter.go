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

// Package reporter contains the types used for reporting errors and warnings
// from the lexer and parser.
//
// A Sink receives every diagnostic. A Handler sits between the parser and the
// sink and decides, based on its Mode, whether a diagnostic aborts the
// operation. A Handler is owned by a single parse; callers that parse files
// in parallel must give each parse its own Handler and Sink, then merge the
// results.
package reporter

import (
	"fmt"
	"slices"

	"github.com/bufbuild/protoast/ast"
)

// Sink is responsible for receiving diagnostics. It is called once per
// diagnostic, in the order they are found.
type Sink interface {
	Report(Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

// Report implements Sink.
func (f SinkFunc) Report(d Diagnostic) {
	f(d)
}

// Discard is a Sink that ignores all diagnostics.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector is a Sink that accumulates diagnostics. The zero value is ready
// to use.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Errors returns the collected diagnostics with error severity.
func (c *Collector) Errors() []Diagnostic {
	return c.filter(SeverityError)
}

// Warnings returns the collected diagnostics with warning severity.
func (c *Collector) Warnings() []Diagnostic {
	return c.filter(SeverityWarning)
}

// OfKind returns the collected diagnostics of the given kind.
func (c *Collector) OfKind(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic with error severity was
// collected.
func (c *Collector) HasErrors() bool {
	return slices.ContainsFunc(c.Diagnostics, Diagnostic.IsError)
}

func (c *Collector) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Mode selects how a Handler reacts to diagnostics.
type Mode int

const (
	// Permissive reports every diagnostic to the sink and lets the operation
	// continue, so that a best-effort result can be produced.
	Permissive Mode = iota
	// Strict aborts the operation at the first diagnostic, of any severity.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Handler is used by the lexer and parser to report diagnostics. Every
// Handle method returns a non-nil error when the operation must stop; that
// error is the diagnostic that caused the abort.
type Handler struct {
	sink Sink
	mode Mode

	errsReported bool
	err          error
}

// NewHandler creates a handler that sends diagnostics to sink. A nil sink
// discards them.
func NewHandler(sink Sink, mode Mode) *Handler {
	if sink == nil {
		sink = Discard
	}
	return &Handler{sink: sink, mode: mode}
}

// Mode returns the mode of the handler.
func (h *Handler) Mode() Mode {
	return h.mode
}

// HandleErrorf reports an error diagnostic with a formatted message.
func (h *Handler) HandleErrorf(kind Kind, span ast.Span, format string, args ...any) error {
	return h.Handle(Errorf(kind, span, format, args...))
}

// HandleError reports an error diagnostic.
func (h *Handler) HandleError(kind Kind, span ast.Span, err error) error {
	return h.Handle(Error(kind, span, err))
}

// HandleWarning reports a warning. Warnings only stop the operation in
// strict mode.
func (h *Handler) HandleWarning(kind Kind, span ast.Span, err error) error {
	return h.Handle(Warning(kind, span, err))
}

// Handle reports d to the sink. Fatal diagnostics always abort, other
// diagnostics abort only in strict mode. Once the handler has aborted, later
// diagnostics are dropped and the original abort error is returned.
func (h *Handler) Handle(d Diagnostic) error {
	if h.err != nil {
		return h.err
	}
	if d.Kind == KindFatal {
		d.Severity = SeverityError
	}
	if d.IsError() {
		h.errsReported = true
	}
	h.sink.Report(d)
	if d.Kind == KindFatal || h.mode == Strict {
		h.err = d
	}
	return h.err
}

// Error returns the error that aborted the operation, if any. Otherwise, in
// permissive mode, it returns ErrInvalidSource when any error diagnostics
// were reported, and nil if not.
func (h *Handler) Error() error {
	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the error that aborted the operation, or nil if the
// operation may continue.
func (h *Handler) ReporterError() error {
	return h.err
}
