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
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoast/ast"
)

func span(info *ast.FileInfo, start, end int) ast.Span {
	return info.Span(start, end)
}

func TestHandlerPermissive(t *testing.T) {
	t.Parallel()
	info := ast.NewFileInfo("test.proto", []byte("message M {}\n"))
	var c Collector
	h := NewHandler(&c, Permissive)

	require.NoError(t, h.HandleWarning(KindStructural, span(info, 0, 7), errors.New("just a warning")))
	assert.NoError(t, h.Error())

	require.NoError(t, h.HandleErrorf(KindSyntax, span(info, 8, 9), "unexpected %q", "M"))
	require.NoError(t, h.HandleErrorf(KindStructural, span(info, 10, 11), "second"))
	assert.ErrorIs(t, h.Error(), ErrInvalidSource)
	assert.NoError(t, h.ReporterError())

	require.Len(t, c.Diagnostics, 3)
	assert.Len(t, c.Errors(), 2)
	assert.Len(t, c.Warnings(), 1)
	assert.Len(t, c.OfKind(KindStructural), 2)
	assert.True(t, c.HasErrors())
	assert.Equal(t, `unexpected "M"`, c.Diagnostics[1].Message())
	assert.Equal(t, 1, c.Diagnostics[1].Line())
	assert.Equal(t, 9, c.Diagnostics[1].Column())
}

func TestHandlerStrict(t *testing.T) {
	t.Parallel()
	info := ast.NewFileInfo("test.proto", []byte("message M {}\n"))
	var c Collector
	h := NewHandler(&c, Strict)

	err := h.HandleWarning(KindStructural, span(info, 0, 7), errors.New("warned"))
	require.Error(t, err)
	var d Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "test.proto:1:1: warned", err.Error())

	// Later diagnostics are dropped once aborted.
	err2 := h.HandleErrorf(KindSyntax, span(info, 8, 9), "ignored")
	assert.Equal(t, err, err2)
	assert.Len(t, c.Diagnostics, 1)
	assert.Equal(t, err, h.Error())
}

func TestHandlerFatalAbortsPermissive(t *testing.T) {
	t.Parallel()
	info := ast.NewFileInfo("test.proto", []byte("message M {}\n"))
	h := NewHandler(nil, Permissive)
	err := h.Handle(Warning(KindFatal, span(info, 0, 1), errors.New("too deep")))
	require.Error(t, err)
	var d Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, KindFatal, d.Kind)
	assert.Equal(t, err, h.ReporterError())
}

func TestDiagnosticUnwrap(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("sentinel")
	d := Error(KindStructural, ast.Span{}, sentinel)
	assert.ErrorIs(t, d, sentinel)
	var ewp ErrorWithPos = d
	assert.Equal(t, 0, ewp.GetPosition().Line)
}

func TestRender(t *testing.T) {
	t.Parallel()
	src := "syntax = \"proto3\";\nmessage M {\n\tstring s = \"oops\n}\n"
	info := ast.NewFileInfo("test.proto", []byte(src))
	start := bytes.IndexByte([]byte(src), '"') // first quote on line 1
	d1 := Errorf(KindSyntax, span(info, start, start+8), "bad syntax")
	quote := bytes.LastIndexByte([]byte(src), '"')
	d2 := Errorf(KindLexical, span(info, quote, quote+5), "unterminated string")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, info, []Diagnostic{d1, d2}))
	expected := "" +
		"test.proto:1:10: error: bad syntax\n" +
		"    1 | syntax = \"proto3\";\n" +
		"      |          ^^^^^^^^\n" +
		"test.proto:3:13: error: unterminated string\n" +
		"    3 |     string s = \"oops\n" +
		"      |                ^^^^^\n"
	assert.Equal(t, expected, buf.String())
}

func TestRenderWithoutSource(t *testing.T) {
	t.Parallel()
	d := Warning(KindStructural, ast.Span{Start: ast.SourcePos{Filename: "a.proto", Line: 2, Col: 3}}, errors.New("careful"))
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, []Diagnostic{d}))
	assert.Equal(t, "a.proto:2:3: warning: careful\n", buf.String())
}
