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
	"fmt"
	"sort"
	"unicode/utf8"
)

// FileInfo contains information about the contents of a source file that is
// needed to translate byte offsets into line and column positions.
type FileInfo struct {
	// The name of the source file.
	name string
	// The raw contents of the source file.
	data []byte
	// The offsets for each line in the file. The value is the zero-based byte
	// offset for a given line. The line is given by its index. So the value at
	// index 0 is the offset for the first line (which is always zero). The
	// value at index 1 is the offset at which the second line begins. Etc.
	lines []int
}

// NewFileInfo creates a new instance for the given file. The line table is
// computed eagerly, so positions can be requested for any offset in any order.
func NewFileInfo(filename string, contents []byte) *FileInfo {
	lines := make([]int, 1, len(contents)/32+1)
	for i, b := range contents {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &FileInfo{
		name:  filename,
		data:  contents,
		lines: lines,
	}
}

// Name returns the name of the file.
func (f *FileInfo) Name() string {
	return f.name
}

// Data returns the raw contents of the file.
func (f *FileInfo) Data() []byte {
	return f.data
}

// LineCount returns the number of lines in the file.
func (f *FileInfo) LineCount() int {
	return len(f.lines)
}

// Line returns the text of the given 1-based line, without its line ending.
func (f *FileInfo) Line(line int) string {
	if line < 1 || line > len(f.lines) {
		return ""
	}
	start := f.lines[line-1]
	end := len(f.data)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	if end > start && f.data[end-1] == '\r' {
		end--
	}
	return string(f.data[start:end])
}

// SourcePos computes the position of the given byte offset. Columns count
// runes, not bytes, so a multi-byte character occupies a single column.
func (f *FileInfo) SourcePos(offset int) SourcePos {
	if offset < 0 {
		panic(fmt.Sprintf("invalid offset: %d must not be negative", offset))
	}
	if offset > len(f.data) {
		panic(fmt.Sprintf("invalid offset: %d is greater than file size %d", offset, len(f.data)))
	}

	lineNumber := sort.Search(len(f.lines), func(n int) bool {
		return f.lines[n] > offset
	})

	col := utf8.RuneCount(f.data[f.lines[lineNumber-1]:offset])
	return SourcePos{
		Filename: f.name,
		Offset:   offset,
		Line:     lineNumber,
		// Columns are 1-indexed in this AST
		Col: col + 1,
	}
}

// Span computes the span covering the half-open byte range [start, end).
func (f *FileInfo) Span(start, end int) Span {
	return Span{Start: f.SourcePos(start), End: f.SourcePos(end)}
}

// SourcePos identifies a location in a proto source file.
type SourcePos struct {
	Filename  string
	Line, Col int
	Offset    int
}

// UnknownPos is a placeholder position when only the source file
// name is known.
func UnknownPos(filename string) SourcePos {
	return SourcePos{Filename: filename}
}

func (pos SourcePos) String() string {
	if pos.Line <= 0 || pos.Col <= 0 {
		return pos.Filename
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename, pos.Line, pos.Col)
}

// Span is a region of a source file. End is the position immediately after
// the last character of the region.
type Span struct {
	Start, End SourcePos
}

// IsZero reports whether s is the zero span, which is used for nodes that
// were synthesized without any source text.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.Start.Line <= 0 {
		return s.Start.Filename
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.Filename, s.Start.Line, s.Start.Col, s.End.Line, s.End.Col)
}

// Join returns the smallest span that covers both a and b. A zero span is
// ignored.
func Join(a, b Span) Span {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	}
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}
