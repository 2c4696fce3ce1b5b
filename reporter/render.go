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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/bufbuild/protoast/ast"
)

// TabstopWidth is the size of a tab stop when rendering source lines.
const TabstopWidth = 4

// Render writes a human-readable report of diags to w. Each diagnostic is
// printed as "file:line:col: severity: message". If source is not nil, the
// offending line follows, with the span underlined by carets.
func Render(w io.Writer, source *ast.FileInfo, diags []Diagnostic) error {
	out := bufio.NewWriter(w)
	for _, d := range diags {
		fmt.Fprintf(out, "%s: %s: %s\n", d.Span.Start, d.Severity, d.Message())
		if source == nil || d.Span.Start.Line <= 0 {
			continue
		}
		line := source.Line(d.Span.Start.Line)
		if line == "" {
			continue
		}
		gutter := fmt.Sprintf("%5d | ", d.Span.Start.Line)
		expanded, startCol := expandTabs(line, d.Span.Start.Col)
		fmt.Fprintf(out, "%s%s\n", gutter, expanded)

		endCol := d.Span.End.Col
		if d.Span.End.Line != d.Span.Start.Line || endCol <= d.Span.Start.Col {
			// Underline through the end of the line.
			endCol = len([]rune(line)) + 1
		}
		_, endWidth := expandTabs(line, endCol)
		carets := max(endWidth-startCol, 1)
		fmt.Fprintf(out, "%*s | %s%s\n", len(gutter)-3, "", strings.Repeat(" ", startCol), strings.Repeat("^", carets))
	}
	return out.Flush()
}

// expandTabs replaces tabs in line with spaces and returns the display
// width of the text before the 1-based rune column col.
func expandTabs(line string, col int) (string, int) {
	var sb strings.Builder
	var column, width int
	runes := 0
	found := false
	for gs := uniseg.NewGraphemes(line); gs.Next(); {
		if !found && runes >= col-1 {
			width, found = column, true
		}
		cluster := gs.Str()
		runes += len(gs.Runes())
		if cluster == "\t" {
			tab := TabstopWidth - (column % TabstopWidth)
			sb.WriteString(strings.Repeat(" ", tab))
			column += tab
			continue
		}
		sb.WriteString(cluster)
		column += uniseg.StringWidth(cluster)
	}
	if !found {
		width = column
	}
	return sb.String(), width
}
