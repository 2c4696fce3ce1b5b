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

package protoast

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/parser"
	"github.com/bufbuild/protoast/reporter"
)

func TestLoad(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"good.proto": `syntax = "proto3"; message Foo { string name = 1; }`,
				"bad.proto":  `syntax = "proto3"; message Bar { string name = 1 }`,
			}),
		},
	}
	files, err := loader.Load(context.Background(), "good.proto", "bad.proto")
	require.ErrorIs(t, err, reporter.ErrInvalidSource)
	require.Len(t, files, 2)
	assert.True(t, files.HasErrors())

	good := files[0]
	assert.Equal(t, "good.proto", good.Path)
	require.NoError(t, good.Err)
	assert.Empty(t, good.Diagnostics)
	require.NotNil(t, good.AST)
	assert.Equal(t, ast.DialectProto3, good.AST.Dialect)
	require.NotNil(t, good.Info)
	assert.Equal(t, 1, good.Info.LineCount())
	res := good.Result()
	require.NotNil(t, res)
	assert.Equal(t, "Foo", res.Proto().GetMessageType()[0].GetName())

	bad := files[1]
	assert.Equal(t, "bad.proto", bad.Path)
	require.ErrorIs(t, bad.Err, reporter.ErrInvalidSource)
	assert.Contains(t, bad.Err.Error(), "bad.proto")
	assert.True(t, bad.HasErrors())
	require.NotNil(t, bad.AST, "permissive parse still produces a document")
	require.Len(t, files.Diagnostics(), len(bad.Diagnostics))
	assert.Equal(t, reporter.KindSyntax, bad.Diagnostics[0].Kind)
}

func TestLoadNoFiles(t *testing.T) {
	t.Parallel()
	loader := Loader{Resolver: &SourceResolver{}}
	files, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestLoadNotFound(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(nil)},
	}
	files, err := loader.Load(context.Background(), "missing.proto")
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Len(t, files, 1)
	require.ErrorIs(t, files[0].Err, fs.ErrNotExist)
	assert.Nil(t, files[0].AST)
	assert.Nil(t, files[0].Result())
	assert.True(t, files.HasErrors())
}

func TestLoadStrict(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"nosyntax.proto": `message Foo {}`,
			}),
		},
		Mode: reporter.Strict,
	}
	files, err := loader.Load(context.Background(), "nosyntax.proto")
	require.Error(t, err)
	f := files.Find("nosyntax.proto")
	require.NotNil(t, f)
	require.ErrorIs(t, f.Err, parser.ErrNoSyntax)
	var diag reporter.Diagnostic
	require.ErrorAs(t, f.Err, &diag)
	assert.Equal(t, reporter.SeverityWarning, diag.Severity)
	assert.Nil(t, f.AST)
	assert.Len(t, f.Diagnostics, 1)
	// A warning is not an error diagnostic, but the file still failed.
	assert.False(t, f.HasErrors())
	assert.True(t, files.HasErrors())
}

func TestLoadLimits(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"deep.proto": `syntax = "proto3"; message A { message B { message C {} } }`,
			}),
		},
		MaxDepth: 2,
	}
	files, err := loader.Load(context.Background(), "deep.proto")
	require.ErrorIs(t, err, parser.ErrTooDeep)
	require.Len(t, files, 1)
	assert.Nil(t, files[0].AST)
	require.Len(t, files[0].Diagnostics, 1)
	assert.Equal(t, reporter.KindFatal, files[0].Diagnostics[0].Kind)
}

func TestLoadFollowImports(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: WithStandardImports(&SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"a.proto": `syntax = "proto3";
import "b.proto";
import "google/protobuf/timestamp.proto";
message A { B b = 1; google.protobuf.Timestamp at = 2; }`,
				"b.proto": `syntax = "proto3";
import public "a.proto";
message B {}`,
			}),
		}),
		FollowImports: true,
	}
	files, err := loader.Load(context.Background(), "a.proto")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.proto", files[0].Path)
	assert.False(t, files[0].Dependency)
	assert.Equal(t, "b.proto", files[1].Path)
	assert.True(t, files[1].Dependency)
	assert.NotNil(t, files[1].AST)

	ts := files[2]
	assert.Equal(t, "google/protobuf/timestamp.proto", ts.Path)
	assert.True(t, ts.Dependency)
	assert.Nil(t, ts.AST)
	require.NotNil(t, ts.Proto)
	res := ts.Result()
	require.NotNil(t, res)
	assert.Nil(t, res.AST())
	assert.Equal(t, "google.protobuf", res.Proto().GetPackage())
}

func TestLoadWithoutFollowingImports(t *testing.T) {
	t.Parallel()
	loader := Loader{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"a.proto": `syntax = "proto3"; import "missing.proto";`,
			}),
		},
	}
	files, err := loader.Load(context.Background(), "a.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestLoadOrder(t *testing.T) {
	t.Parallel()
	srcs := map[string]string{}
	var paths []string
	for i := range 20 {
		path := fmt.Sprintf("file%02d.proto", 19-i)
		srcs[path] = fmt.Sprintf("syntax = \"proto2\"; package p%d;", i)
		paths = append(paths, path)
	}
	// Duplicates are loaded once.
	paths = append(paths, paths[0])
	loader := Loader{
		Resolver:       &SourceResolver{Accessor: SourceAccessorFromMap(srcs)},
		MaxParallelism: 3,
	}
	files, err := loader.Load(context.Background(), paths...)
	require.NoError(t, err)
	require.Len(t, files, 20)
	for i, f := range files {
		assert.Equal(t, paths[i], f.Path)
		assert.Equal(t, fmt.Sprintf("p%d", i), f.AST.Package.Name)
	}
}

func TestLoadImportCycle(t *testing.T) {
	t.Parallel()
	const n = 30
	srcs := map[string]string{}
	for i := range n {
		srcs[fmt.Sprintf("f%d.proto", i)] = fmt.Sprintf(
			"syntax = \"proto3\";\nimport \"f%d.proto\";\nmessage M%d {}\n", (i+1)%n, i)
	}
	loader := Loader{
		Resolver:       &SourceResolver{Accessor: SourceAccessorFromMap(srcs)},
		MaxParallelism: 3,
		FollowImports:  true,
	}
	files, err := loader.Load(context.Background(), "f0.proto", "f5.proto")
	require.NoError(t, err)
	require.Len(t, files, n)
	assert.False(t, files.HasErrors())
	assert.Equal(t, "f0.proto", files[0].Path)
	assert.False(t, files[0].Dependency)
	assert.Equal(t, "f5.proto", files[1].Path)
	assert.False(t, files[1].Dependency)
	deps := files[2:]
	for i, f := range deps {
		assert.True(t, f.Dependency, f.Path)
		require.NotNil(t, f.AST, f.Path)
		if i > 0 {
			assert.Less(t, deps[i-1].Path, f.Path)
		}
	}
	assert.Equal(t, "f1.proto", deps[0].Path)
	assert.Equal(t, "f9.proto", deps[len(deps)-1].Path)
}

func TestLoadCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loader := Loader{Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(nil)}}
	files, err := loader.Load(ctx, "a.proto")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, files)
}

func TestLoadSearchResults(t *testing.T) {
	t.Parallel()
	doc, err := parser.Parse("doc.proto", strings.NewReader(`syntax = "proto3";`), nil)
	require.NoError(t, err)
	resolver := ResolverFunc(func(path string) (SearchResult, error) {
		switch path {
		case "doc.proto", "misnamed.proto":
			return SearchResult{AST: doc}, nil
		case "empty.proto":
			return SearchResult{}, nil
		}
		return SearchResult{}, protoregistry.NotFound
	})
	loader := Loader{Resolver: resolver}
	files, err := loader.Load(context.Background(), "doc.proto", "misnamed.proto", "empty.proto", "other.proto")
	require.Error(t, err)
	require.Len(t, files, 4)
	require.NoError(t, files[0].Err)
	assert.Same(t, doc, files[0].AST)
	assert.Nil(t, files[0].Info)
	assert.ErrorContains(t, files[1].Err, `returned document for "doc.proto"`)
	assert.ErrorContains(t, files[2].Err, "is empty")
	assert.ErrorIs(t, files[3].Err, protoregistry.NotFound)
}

func TestCompositeResolver(t *testing.T) {
	t.Parallel()
	_, err := CompositeResolver(nil).FindFileByPath("a.proto")
	require.ErrorIs(t, err, protoregistry.NotFound)

	first := &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{"a.proto": "a"})}
	second := &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{"b.proto": "b"})}
	composite := CompositeResolver{first, second}
	res, err := composite.FindFileByPath("b.proto")
	require.NoError(t, err)
	require.NotNil(t, res.Source)
	_, err = composite.FindFileByPath("c.proto")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSourceResolverImportPaths(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	require.NoError(t, os.MkdirAll(filepath.Join(second, "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(first, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(second, "pkg", "x.proto"), []byte(`syntax = "proto3";`), 0o600))

	loader := Loader{
		Resolver: &SourceResolver{ImportPaths: []string{first, second}},
	}
	files, err := loader.Load(context.Background(), "pkg/x.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "pkg/x.proto", files[0].AST.Filename)

	_, err = loader.Load(context.Background(), "pkg/y.proto")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWithStandardImports(t *testing.T) {
	t.Parallel()
	resolver := WithStandardImports(&SourceResolver{Accessor: SourceAccessorFromMap(nil)})
	for _, name := range standardFilenames {
		res, err := resolver.FindFileByPath(name)
		require.NoError(t, err, name)
		require.NotNil(t, res.Proto, name)
		assert.Equal(t, name, res.Proto.GetName())
	}
	assert.True(t, IsStandardImport("google/protobuf/empty.proto"))
	assert.False(t, IsStandardImport("google/protobuf/go_features.proto"))
	_, err := resolver.FindFileByPath("google/protobuf/go_features.proto")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
