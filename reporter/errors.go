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

package reporter

import (
	"errors"
	"fmt"

	"github.com/bufbuild/protoast/ast"
)

// ErrInvalidSource is a sentinel error that is returned by a permissive parse
// when errors were reported, since in that mode the reporter never aborts
// the operation itself.
var ErrInvalidSource = errors.New("parse failed: invalid proto source")

// ErrorWithPos is an error about a proto source file that includes information
// about the location in the file that caused the error.
//
// The value of Error() will contain both the SourcePos and Underlying error.
// The value of Unwrap() will only be the Underlying error.
type ErrorWithPos interface {
	error
	GetPosition() ast.SourcePos
	Unwrap() error
}

// Severity indicates whether a diagnostic is an error or a warning.
type Severity int

const (
	SeverityError Severity = 1 + iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Kind classifies the stage that produced a diagnostic.
type Kind int

const (
	// KindLexical is reported for malformed tokens: unterminated literals and
	// comments, invalid escapes and numbers, illegal characters.
	KindLexical Kind = 1 + iota
	// KindSyntax is reported for unexpected or missing tokens.
	KindSyntax
	// KindStructural is reported for well-formed declarations that break a
	// rule of the language, such as a duplicate field number.
	KindStructural
	// KindFatal is reported when a resource limit is exceeded. It always
	// aborts the operation.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindStructural:
		return "structural"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Diagnostic is a single error or warning about a source file.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	// The span of the offending source. Span.Start is the position of the
	// first character of the offending token.
	Span ast.Span
	// The underlying error, without position information.
	Err error
}

// Error returns a diagnostic at the given span.
func Error(kind Kind, span ast.Span, err error) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Span: span, Err: err}
}

// Errorf returns a diagnostic at the given span whose message is formatted
// with fmt.Errorf.
func Errorf(kind Kind, span ast.Span, format string, args ...any) Diagnostic {
	return Error(kind, span, fmt.Errorf(format, args...))
}

// Warning returns a warning diagnostic at the given span.
func Warning(kind Kind, span ast.Span, err error) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Span: span, Err: err}
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Span.Start, d.Err)
}

// GetPosition implements the ErrorWithPos interface, supplying a location in
// proto source that caused the error.
func (d Diagnostic) GetPosition() ast.SourcePos {
	return d.Span.Start
}

// Unwrap implements the ErrorWithPos interface, supplying the underlying
// error. This error will not include location information.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Message returns the diagnostic message without position information.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// Line returns the 1-based line of the start of the offending source.
func (d Diagnostic) Line() int {
	return d.Span.Start.Line
}

// Column returns the 1-based column of the start of the offending source.
func (d Diagnostic) Column() int {
	return d.Span.Start.Col
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

var _ ErrorWithPos = Diagnostic{}
