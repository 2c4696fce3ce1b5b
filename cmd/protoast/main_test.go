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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/descriptorpb"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoast/parser"
	"github.com/bufbuild/protoast/printer"
)

const goodSource = `syntax = "proto3";
package demo;
message Foo {
  string name = 1;
}
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func runForTest(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRunUsage(t *testing.T) {
	t.Parallel()
	code, _, stderr := runForTest(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: protoast")

	code, stdout, _ := runForTest(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "commands:")

	code, _, stderr = runForTest(t, "compile")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "compile"`)

	code, _, stderr = runForTest(t, "check", "-bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-bogus")
}

func TestRunCheck(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := writeFile(t, dir, "good.proto", goodSource)
	bad := writeFile(t, dir, "bad.proto", "syntax = \"proto3\";\nmessage Bar {\n  string name = 1\n}\n")

	code, stdout, stderr := runForTest(t, "check", good)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)

	code, _, stderr = runForTest(t, "check", good, bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, bad+":4:1: error:")
	assert.Contains(t, stderr, "    4 | }")
	assert.Contains(t, stderr, "^")
	assert.NotContains(t, stderr, good)
}

func TestRunCheckMissingFile(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "missing.proto")
	code, _, stderr := runForTest(t, "check", missing)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, missing)
}

func TestRunCheckStrict(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "nosyntax.proto", "message Foo {}\n")

	code, _, stderr := runForTest(t, "check", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "warning: no syntax specified")

	code, _, stderr = runForTest(t, "check", "-strict", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "warning: no syntax specified")
}

func TestRunCheckLimits(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "deep.proto", "syntax = \"proto3\";\nmessage A { message B { message C {} } }\n")

	code, _, _ := runForTest(t, "check", "-max-depth", "3", path)
	assert.Equal(t, 0, code)
	code, _, stderr := runForTest(t, "check", "-max-depth", "2", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "too deeply nested")

	code, _, stderr = runForTest(t, "check", "-max-tokens", "5", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "too many tokens")
}

func TestRunCheckImports(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "deps/dep.proto", "syntax = \"proto3\";\npackage dep;\nmessage Dep {\n  int32 x = 1\n}\n")
	main := writeFile(t, dir, "main.proto", `syntax = "proto3";
import "dep.proto";
import "google/protobuf/empty.proto";
message Main {}
`)

	code, _, stderr := runForTest(t, "check", main)
	assert.Equal(t, 0, code, stderr)

	code, _, stderr = runForTest(t, "check", "-follow-imports", "-I", filepath.Join(dir, "deps"), main)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "dep.proto:5:1: error:")
}

func TestRunDump(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "good.proto", goodSource)

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runForTest(t, "dump", "-spans=false", path)
		require.Equal(t, 0, code, stderr)
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
		assert.Equal(t, "proto3", doc["syntax"])
		assert.Equal(t, "demo", doc["package"])
		assert.NotContains(t, doc, "span")
		defs, ok := doc["definitions"].([]any)
		require.True(t, ok)
		require.Len(t, defs, 1)
		msg, ok := defs[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "message", msg["kind"])
		assert.Equal(t, "Foo", msg["name"])
	})
	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runForTest(t, "dump", "-format", "yaml", path)
		require.Equal(t, 0, code, stderr)
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
		assert.Equal(t, "proto3", doc["syntax"])
		assert.Equal(t, map[string]any{"start": "1:1", "end": "6:1"}, doc["span"])
	})
	t.Run("descriptor", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runForTest(t, "dump", "-format", "descriptor", path)
		require.Equal(t, 0, code, stderr)
		var fd descriptorpb.FileDescriptorProto
		require.NoError(t, protojson.Unmarshal([]byte(stdout), &fd))
		assert.Equal(t, path, fd.GetName())
		assert.Equal(t, "demo", fd.GetPackage())
		assert.Equal(t, "proto3", fd.GetSyntax())
		require.Len(t, fd.GetMessageType(), 1)
		assert.Equal(t, "Foo", fd.GetMessageType()[0].GetName())
	})
	t.Run("yaml write failure", func(t *testing.T) {
		t.Parallel()
		var stderr bytes.Buffer
		code := run(context.Background(), []string{"dump", "-format", "yaml", path}, failingWriter{}, &stderr)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "disk full")
	})
	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		code, _, stderr := runForTest(t, "dump", "-format", "xml", path)
		assert.Equal(t, 2, code)
		assert.Contains(t, stderr, `unknown output format "xml"`)
	})
}

func TestRunFmt(t *testing.T) {
	t.Parallel()
	const messy = "syntax=\"proto3\";message Foo{string name=1;  repeated int32 ids = 2 [packed=true];}"
	doc, err := parser.Parse("messy.proto", strings.NewReader(messy), nil)
	require.NoError(t, err)
	want := printer.String(doc)

	dir := t.TempDir()
	path := writeFile(t, dir, "messy.proto", messy)

	code, stdout, stderr := runForTest(t, "fmt", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, want, stdout)

	code, stdout, _ = runForTest(t, "fmt", "-d", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "--- "+path+".orig")
	assert.Contains(t, stdout, "+++ "+path)
	assert.Contains(t, stdout, "+message Foo {")

	code, _, _ = runForTest(t, "fmt", "-w", path)
	require.Equal(t, 0, code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	// Formatted files produce no diff.
	code, stdout, _ = runForTest(t, "fmt", "-d", path)
	require.Equal(t, 0, code)
	assert.Empty(t, stdout)
}

func TestRunFmtRefusesBrokenFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	const broken = "syntax = \"proto3\";\nmessage Foo {\n  string name = 1\n}\n"
	path := writeFile(t, dir, "broken.proto", broken)

	code, stdout, stderr := runForTest(t, "fmt", "-w", path)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "error:")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))
}

func TestRunConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "proto/a.proto", goodSource)
	writeFile(t, dir, "proto/nested/b.proto", "message B {}\n")
	writeFile(t, dir, "other/c.txt", "not proto")
	cfgPath := writeFile(t, dir, "protoast.toml", `
strict = true
include = ["proto/**/*.proto"]

[output]
format = "yaml"
`)

	// b.proto has no syntax statement, which fails in strict mode.
	code, stdout, stderr := runForTest(t, "check", "-config", cfgPath)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "b.proto:1:1: warning:")

	// Flags override the configuration.
	code, _, stderr = runForTest(t, "check", "-config", cfgPath, "-strict=false")
	assert.Equal(t, 0, code, stderr)

	code, stdout, stderr = runForTest(t, "dump", "-config", cfgPath, "-strict=false", "-spans=false")
	require.Equal(t, 0, code, stderr)
	dec := yaml.NewDecoder(strings.NewReader(stdout))
	var names []string
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			break
		}
		names = append(names, doc["filename"].(string))
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "proto", "a.proto"),
		filepath.Join(dir, "proto", "nested", "b.proto"),
	}, names)
}

func TestRunConfigErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "protoast.toml", "max_depth = -1\n")
	code, _, stderr := runForTest(t, "check", "-config", cfgPath, "x.proto")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "max_depth must not be negative")

	cfgPath = writeFile(t, dir, "empty/protoast.toml", "")
	code, _, stderr = runForTest(t, "check", "-config", cfgPath)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "no input files")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "watched.proto", goodSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", path}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching 1 files")
	}, 10*time.Second, 10*time.Millisecond)
	assert.Contains(t, stdout.String(), "ok "+path)

	require.NoError(t, os.WriteFile(path, []byte("syntax = \"proto3\";\nmessage {}\n"), 0o600))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "FAIL "+path)
	}, 10*time.Second, 10*time.Millisecond)
	assert.Contains(t, stderr.String(), path+":2:9: error:")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRunSymbols(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "sym.proto", `syntax = "proto2";
package demo;
message Foo {
  optional string name = 1;
  extensions 100 to 200;
}
extend Foo {
  optional int32 ext = 100;
}
enum Color { RED = 0; }
service Svc {
  rpc Get(Foo) returns (Foo);
}
`)
	code, stdout, stderr := runForTest(t, "symbols", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, strings.Join([]string{
		path + ":3:1: message demo.Foo",
		path + ":4:3: field demo.Foo.name",
		path + ":8:3: extension demo.ext",
		path + ":10:1: enum demo.Color",
		path + ":10:14: enum_value demo.RED",
		path + ":11:1: service demo.Svc",
		path + ":12:3: rpc demo.Svc.Get",
	}, "\n")+"\n", stdout)
}
