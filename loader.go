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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/logging"
	"github.com/bufbuild/protoast/parser"
	"github.com/bufbuild/protoast/reporter"
)

// Loader parses many files concurrently. Every file gets its own
// reporter.Handler, so the diagnostics of one file never affect another.
type Loader struct {
	// Resolves paths into sources, documents or descriptors. This field is
	// the only required field.
	Resolver Resolver
	// The maximum number of files parsed at once. If unspecified or set to a
	// non-positive value, then min(runtime.NumCPU(), runtime.GOMAXPROCS(-1))
	// will be used.
	MaxParallelism int
	// The mode of each file's handler.
	Mode reporter.Mode
	// Limits passed to the parser. See parser.Parser.
	MaxDepth  int
	MaxTokens int
	// If true, the files imported by the requested files are loaded too,
	// transitively.
	FollowImports bool
	// Receives a debug record per file. May be nil.
	Logger *slog.Logger
}

// File is the outcome of loading one file.
type File struct {
	// The path the file was requested with.
	Path string
	// The parsed document. It is nil if the file could not be found, if
	// the parse was aborted, or if the resolver supplied only a descriptor.
	AST *ast.Document
	// The descriptor supplied by the resolver, if any.
	Proto *descriptorpb.FileDescriptorProto
	// The file's contents, when the loader read them. Used to render
	// diagnostics with source lines.
	Info *ast.FileInfo
	// Every diagnostic reported for the file, in order.
	Diagnostics []reporter.Diagnostic
	// Err is set when the file could not be resolved or when the parse
	// failed. It is reporter.ErrInvalidSource, wrapped with the path, when
	// a permissive parse reported errors.
	Err error
	// Whether the file was only loaded because another file imports it.
	Dependency bool
}

// Result converts the file into a descriptor proto. It returns nil when
// the file has neither a document nor a descriptor. Each call converts the
// document again.
func (f *File) Result() parser.Result {
	switch {
	case f.AST != nil:
		return parser.ResultFromAST(f.AST)
	case f.Proto != nil:
		return parser.ResultWithoutAST(f.Proto)
	default:
		return nil
	}
}

// HasErrors reports whether any error diagnostic was reported for the file.
func (f *File) HasErrors() bool {
	return slices.ContainsFunc(f.Diagnostics, reporter.Diagnostic.IsError)
}

// Files is the result of a Loader.
type Files []*File

// Diagnostics returns the diagnostics of every file, in file order.
func (fs Files) Diagnostics() []reporter.Diagnostic {
	var out []reporter.Diagnostic
	for _, f := range fs {
		out = append(out, f.Diagnostics...)
	}
	return out
}

// HasErrors reports whether any file failed or has error diagnostics.
func (fs Files) HasErrors() bool {
	return slices.ContainsFunc(fs, func(f *File) bool {
		return f.Err != nil || f.HasErrors()
	})
}

// Find returns the file with the given path, or nil.
func (fs Files) Find(path string) *File {
	for _, f := range fs {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// Load loads the given files. The result holds the requested files, in the
// order given, followed by any imported files sorted by path. The returned
// error joins the Err of every file; the files are returned even when it is
// not nil. Only a cancelled context yields a nil result.
func (l *Loader) Load(ctx context.Context, paths ...string) (Files, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	par := l.MaxParallelism
	if par <= 0 {
		par = min(runtime.GOMAXPROCS(-1), runtime.NumCPU())
	}

	group, ctx := errgroup.WithContext(ctx)
	e := &executor{
		l:       l,
		log:     logging.Wrap(l.Logger),
		group:   group,
		sem:     semaphore.NewWeighted(int64(par)),
		results: map[string]*File{},
	}
	for _, path := range paths {
		e.load(ctx, path, false)
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	files := make(Files, 0, len(e.results))
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if !seen[path] {
			seen[path] = true
			files = append(files, e.results[path])
		}
	}
	var deps Files
	for path, f := range e.results {
		if !seen[path] {
			deps = append(deps, f)
		}
	}
	slices.SortFunc(deps, func(a, b *File) int {
		return strings.Compare(a.Path, b.Path)
	})
	files = append(files, deps...)

	var errs []error
	for _, f := range files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return files, errors.Join(errs...)
}

type executor struct {
	l     *Loader
	log   *logging.Logger
	group *errgroup.Group
	sem   *semaphore.Weighted

	mu      sync.Mutex
	results map[string]*File
}

// load starts loading path unless it has already been started.
func (e *executor) load(ctx context.Context, path string, dep bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.results[path]; ok {
		return
	}
	f := &File{Path: path, Dependency: dep}
	e.results[path] = f
	e.group.Go(func() error {
		return e.doLoad(ctx, f)
	})
}

func (e *executor) doLoad(ctx context.Context, f *File) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	e.loadFile(f)
	e.sem.Release(1)

	e.log.Debug("loaded file",
		slog.String("file", f.Path),
		slog.Bool("dependency", f.Dependency),
		slog.Int("diagnostics", len(f.Diagnostics)),
		slog.Bool("failed", f.Err != nil),
	)

	if e.l.FollowImports && f.AST != nil {
		for _, imp := range f.AST.Imports {
			e.load(ctx, imp.Path, true)
		}
	}
	if e.l.FollowImports && f.Proto != nil {
		for _, dep := range f.Proto.GetDependency() {
			e.load(ctx, dep, true)
		}
	}
	return nil
}

func (e *executor) loadFile(f *File) {
	sr, err := e.l.Resolver.FindFileByPath(f.Path)
	if err != nil {
		f.Err = fmt.Errorf("%s: %w", f.Path, err)
		return
	}
	if c, ok := sr.Source.(io.Closer); ok {
		defer func() {
			_ = c.Close()
		}()
	}

	switch {
	case sr.Proto != nil:
		if sr.Proto.GetName() != f.Path {
			f.Err = fmt.Errorf("search result for %q returned descriptor for %q", f.Path, sr.Proto.GetName())
			return
		}
		f.Proto = sr.Proto
	case sr.AST != nil:
		if sr.AST.Filename != f.Path {
			f.Err = fmt.Errorf("search result for %q returned document for %q", f.Path, sr.AST.Filename)
			return
		}
		f.AST = sr.AST
	case sr.Source != nil:
		data, err := io.ReadAll(sr.Source)
		if err != nil {
			f.Err = fmt.Errorf("%s: %w", f.Path, err)
			return
		}
		e.parse(f, data)
	default:
		f.Err = fmt.Errorf("search result for %q is empty", f.Path)
	}
}

func (e *executor) parse(f *File, data []byte) {
	var diags reporter.Collector
	handler := reporter.NewHandler(&diags, e.l.Mode)
	p := parser.Parser{
		MaxDepth:  e.l.MaxDepth,
		MaxTokens: e.l.MaxTokens,
		Logger:    e.l.Logger,
	}
	doc, err := p.ParseBytes(f.Path, data, handler)
	f.AST = doc
	f.Info = ast.NewFileInfo(f.Path, data)
	f.Diagnostics = diags.Diagnostics
	switch {
	case errors.Is(err, reporter.ErrInvalidSource):
		f.Err = fmt.Errorf("%s: %w", f.Path, err)
	case err != nil:
		f.Err = err
	}
}
