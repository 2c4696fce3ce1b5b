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

package printer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/parser"
	"github.com/bufbuild/protoast/printer"
	"github.com/bufbuild/protoast/reporter"
)

func parse(t *testing.T, filename, source string) *ast.Document {
	t.Helper()
	var diags reporter.Collector
	doc, err := parser.Parser{}.ParseBytes(filename, []byte(source), reporter.NewHandler(&diags, reporter.Permissive))
	require.NoError(t, err, "%v", diags.Diagnostics)
	require.Empty(t, diags.Errors())
	return doc
}

func TestPrint(t *testing.T) {
	t.Parallel()

	doc := parse(t, "test.proto", `
syntax = "proto3";
package foo.v1;
import public "a.proto";
option go_package = "x";
message M {
  map<string, int32> m = 1;
  oneof k { string a = 2; }
  reserved 5 to 10, 20 to max;
  enum E { E_UNSPECIFIED = 0; }
}
message Empty {}
service S { rpc Get(stream M) returns (M) { option deprecated = true; } rpc Put(M) returns (Empty); }
`)
	want := strings.TrimLeft(`
syntax = "proto3";

package foo.v1;

import public "a.proto";

option go_package = "x";

message M {
  map<string, int32> m = 1;
  oneof k {
    string a = 2;
  }
  enum E {
    E_UNSPECIFIED = 0;
  }
  reserved 5 to 10, 20 to max;
}

message Empty {}

service S {
  rpc Get(stream M) returns (M) {
    option deprecated = true;
  }
  rpc Put(M) returns (Empty);
}
`, "\n")
	assert.Equal(t, want, printer.String(doc))
}

func TestPrintIndent(t *testing.T) {
	t.Parallel()

	doc := parse(t, "test.proto", `syntax = "proto2"; message M { optional int32 x = 1 [default = -3, deprecated = true]; }`)
	var sb strings.Builder
	require.NoError(t, printer.Options{Indent: "\t"}.Print(&sb, doc))
	assert.Equal(t, "syntax = \"proto2\";\n\nmessage M {\n\toptional int32 x = 1 [default = -3, deprecated = true];\n}\n", sb.String())
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	doc := parse(t, "test.proto", `
syntax = "proto3";
option (x) = { a: 1 b: [1, 2] [x.y]: "s\n" c { d: -inf e: 1.5 } f: FOO };
option (y) = 3.0;
option (z) = -0;
`)
	require.Len(t, doc.Options, 3)
	assert.Equal(t, `{ a: 1 b: [1, 2] [x.y]: "s\n" c: { d: -inf e: 1.5 } f: FOO }`, printer.FormatValue(doc.Options[0].Value))
	agg, ok := doc.Options[0].Value.(*ast.AggregateValue)
	require.True(t, ok)
	assert.Equal(t, `a: 1 b: [1, 2] [x.y]: "s\n" c: { d: -inf e: 1.5 } f: FOO`, printer.AggregateText(agg))
	assert.Equal(t, "3.0", printer.FormatValue(doc.Options[1].Value))
	assert.Equal(t, "-0", printer.FormatValue(doc.Options[2].Value))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	paths, err := filepath.Glob(filepath.Join("..", "parser", "testdata", "*.proto"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			t.Parallel()
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			doc := parse(t, path, string(data))
			text := printer.String(doc)
			again := parse(t, path, text)
			diff := cmp.Diff(doc, again,
				cmpopts.IgnoreTypes(ast.Spanned{}, ast.Span{}),
				cmpopts.EquateNaNs(),
			)
			assert.Empty(t, diff, "printed source:\n%s", text)
		})
	}
}
