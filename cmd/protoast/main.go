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

// Command protoast checks, dumps and formats protobuf source files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pmezard/go-difflib/difflib"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/protoast"
	"github.com/bufbuild/protoast/ast"
	"github.com/bufbuild/protoast/internal/config"
	"github.com/bufbuild/protoast/internal/logging"
	"github.com/bufbuild/protoast/printer"
	"github.com/bufbuild/protoast/reporter"
	"github.com/bufbuild/protoast/walk"
)

const usage = `usage: protoast <command> [flags] [files...]

commands:
  check   report diagnostics for the given files
  dump    print the syntax tree or descriptor of the given files
  fmt     print the given files in canonical form
  symbols list the fully-qualified names declared in the given files
  watch   check the given files again whenever they change

Run "protoast <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check", "dump", "fmt", "symbols", "watch":
	case "help", "-h", "-help", "--help":
		_, _ = io.WriteString(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "protoast: unknown command %q\n", cmd)
		_, _ = io.WriteString(stderr, usage)
		return 2
	}

	opts, err := parseFlags(cmd, rest, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := logging.New(logging.Options{
		Verbose: opts.verbose,
		Trace:   opts.trace,
		Writer:  stderr,
	})
	e, err := setup(opts, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
		return 2
	}

	switch cmd {
	case "check":
		return e.check(ctx, stderr)
	case "dump":
		return e.dump(ctx, stdout, stderr)
	case "fmt":
		return e.format(ctx, stdout, stderr)
	case "symbols":
		return e.symbols(ctx, stdout, stderr)
	default:
		return e.watch(ctx, stdout, stderr)
	}
}

type options struct {
	configPath  string
	strict      bool
	maxDepth    int
	maxTokens   int
	parallelism int
	importPaths stringList
	follow      bool
	format      string
	spans       bool
	write       bool
	diff        bool
	verbose     bool
	trace       bool

	// Names of the flags given on the command line, which take precedence
	// over the configuration file.
	set   map[string]bool
	files []string
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, string(filepath.ListSeparator))
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseFlags(cmd string, args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("protoast "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to "+config.FileName+"; by default it is searched for from the working directory up")
	fs.BoolVar(&opts.strict, "strict", false, "stop each file at its first diagnostic, including warnings")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "maximum nesting depth of declarations and values")
	fs.IntVar(&opts.maxTokens, "max-tokens", 0, "maximum number of tokens per file; 0 means no limit")
	fs.IntVar(&opts.parallelism, "j", 0, "number of files parsed at once")
	fs.Var(&opts.importPaths, "I", "directory to search for imports; may be repeated")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	fs.BoolVar(&opts.trace, "trace", false, "log every token and declaration")
	switch cmd {
	case "check", "symbols", "watch":
		fs.BoolVar(&opts.follow, "follow-imports", false, "also check imported files")
	case "dump":
		fs.StringVar(&opts.format, "format", "", "output format: json, yaml or descriptor")
		fs.BoolVar(&opts.spans, "spans", true, "include source spans in json and yaml output")
	case "fmt":
		fs.BoolVar(&opts.write, "w", false, "write the result to the source file instead of stdout")
		fs.BoolVar(&opts.diff, "d", false, "print a diff instead of the formatted file")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	opts.files = fs.Args()
	return opts, nil
}

type env struct {
	cfg    config.Config
	files  []string
	loader protoast.Loader
	log    *logging.Logger
	spans  bool
	write  bool
	diff   bool
}

func setup(opts *options, logger *slog.Logger) (*env, error) {
	log := logging.Wrap(logger)
	cfg := config.Default()
	var dir string
	path := opts.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path != "" {
		res, err := config.Load(path, config.LoadOptions{})
		if err != nil {
			return nil, err
		}
		for _, w := range res.Warnings {
			logger.Warn(w)
		}
		cfg, dir = res.Config, res.Dir
		log.Debug("loaded configuration", slog.String("path", path))
	}

	if opts.set["strict"] {
		cfg.Strict = opts.strict
	}
	if opts.set["max-depth"] {
		cfg.MaxDepth = opts.maxDepth
	}
	if opts.set["max-tokens"] {
		cfg.MaxTokens = opts.maxTokens
	}
	if opts.set["j"] {
		cfg.Parallelism = opts.parallelism
	}
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	switch cfg.Output.Format {
	case config.FormatJSON, config.FormatYAML, config.FormatDescriptor:
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}

	importPaths := make([]string, 0, len(cfg.ImportPaths)+len(opts.importPaths))
	for _, p := range cfg.ImportPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		importPaths = append(importPaths, p)
	}
	importPaths = append(importPaths, opts.importPaths...)

	files := opts.files
	if len(files) == 0 {
		if dir == "" || len(cfg.Include) == 0 {
			return nil, errors.New("no input files")
		}
		rel, err := cfg.Expand(os.DirFS(dir))
		if err != nil {
			return nil, err
		}
		for _, f := range rel {
			files = append(files, filepath.Join(dir, filepath.FromSlash(f)))
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%s: include patterns match no files", path)
		}
	}

	mode := reporter.Permissive
	if cfg.Strict {
		mode = reporter.Strict
	}
	// Requested files are opened as given; imports are also searched for in
	// the import paths.
	resolver := protoast.CompositeResolver{&protoast.SourceResolver{}}
	if len(importPaths) > 0 {
		resolver = append(resolver, &protoast.SourceResolver{ImportPaths: importPaths})
	}
	return &env{
		cfg:   cfg,
		files: files,
		loader: protoast.Loader{
			Resolver:       protoast.WithStandardImports(resolver),
			MaxParallelism: cfg.Parallelism,
			Mode:           mode,
			MaxDepth:       cfg.MaxDepth,
			MaxTokens:      cfg.MaxTokens,
			FollowImports:  opts.follow,
			Logger:         logger,
		},
		log:   log,
		spans: opts.spans,
		write: opts.write,
		diff:  opts.diff,
	}, nil
}

// load loads paths and reports their diagnostics to stderr. It returns nil
// if the load was cancelled.
func (e *env) load(ctx context.Context, stderr io.Writer, paths ...string) protoast.Files {
	files, err := e.loader.Load(ctx, paths...)
	if files == nil {
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
		}
		return nil
	}
	printDiagnostics(stderr, files)
	return files
}

func printDiagnostics(w io.Writer, files protoast.Files) {
	for _, f := range files {
		if len(f.Diagnostics) > 0 {
			_ = reporter.Render(w, f.Info, f.Diagnostics)
			continue
		}
		if f.Err != nil {
			_, _ = fmt.Fprintf(w, "%v\n", f.Err)
		}
	}
}

func (e *env) check(ctx context.Context, stderr io.Writer) int {
	files := e.load(ctx, stderr, e.files...)
	if files == nil || files.HasErrors() {
		return 1
	}
	return 0
}

func (e *env) dump(ctx context.Context, stdout, stderr io.Writer) int {
	files := e.load(ctx, stderr, e.files...)
	if files == nil {
		return 1
	}
	var yamlEnc *yaml.Encoder
	if e.cfg.Output.Format == config.FormatYAML {
		yamlEnc = yaml.NewEncoder(stdout)
		yamlEnc.SetIndent(2)
	}
	for _, f := range files {
		if f.Dependency || (f.AST == nil && f.Proto == nil) {
			continue
		}
		var err error
		switch e.cfg.Output.Format {
		case config.FormatDescriptor:
			var data []byte
			data, err = protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(f.Result().Proto())
			if err == nil {
				_, err = fmt.Fprintf(stdout, "%s\n", data)
			}
		case config.FormatYAML:
			if f.AST != nil {
				err = yamlEnc.Encode(ast.Encode(f.AST, ast.EncodeOptions{OmitSpans: !e.spans}))
			}
		default:
			if f.AST != nil {
				var data []byte
				data, err = json.MarshalIndent(ast.Encode(f.AST, ast.EncodeOptions{OmitSpans: !e.spans}), "", "  ")
				if err == nil {
					_, err = fmt.Fprintf(stdout, "%s\n", data)
				}
			}
		}
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "protoast: %s: %v\n", f.Path, err)
			return 1
		}
	}
	if yamlEnc != nil {
		if err := yamlEnc.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
			return 1
		}
	}
	if files.HasErrors() {
		return 1
	}
	return 0
}

func (e *env) format(ctx context.Context, stdout, stderr io.Writer) int {
	files := e.load(ctx, stderr, e.files...)
	if files == nil {
		return 1
	}
	code := 0
	for _, f := range files {
		if f.Dependency {
			continue
		}
		if f.AST == nil || f.Info == nil || f.Err != nil || f.HasErrors() {
			code = 1
			continue
		}
		formatted := printer.String(f.AST)
		original := string(f.Info.Data())
		switch {
		case e.diff:
			if formatted == original {
				continue
			}
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(original),
				B:        difflib.SplitLines(formatted),
				FromFile: f.Path + ".orig",
				ToFile:   f.Path,
				Context:  3,
			})
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "protoast: %s: %v\n", f.Path, err)
				code = 1
				continue
			}
			_, _ = io.WriteString(stdout, diff)
		case e.write:
			if formatted == original {
				continue
			}
			if err := os.WriteFile(f.Path, []byte(formatted), 0o644); err != nil {
				_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
				code = 1
				continue
			}
			e.log.Info("formatted file", slog.String("file", f.Path))
		default:
			_, _ = io.WriteString(stdout, formatted)
		}
	}
	return code
}

// symbols prints one line per named element: its kind, fully-qualified
// name and position.
func (e *env) symbols(ctx context.Context, stdout, stderr io.Writer) int {
	files := e.load(ctx, stderr, e.files...)
	if files == nil {
		return 1
	}
	for _, f := range files {
		if f.Dependency || f.AST == nil {
			continue
		}
		var inExtend int
		err := walk.NodesEnterAndExit(f.AST,
			func(name protoreflect.FullName, n ast.Node) error {
				kind := symbolKind(n)
				if kind == "" {
					if _, ok := n.(*ast.Extend); ok {
						inExtend++
					}
					return nil
				}
				if kind == "field" && inExtend > 0 {
					kind = "extension"
				}
				_, err := fmt.Fprintf(stdout, "%s:%d:%d: %s %s\n", f.Path, n.Span().Start.Line, n.Span().Start.Col, kind, name)
				return err
			},
			func(_ protoreflect.FullName, n ast.Node) error {
				if _, ok := n.(*ast.Extend); ok {
					inExtend--
				}
				return nil
			})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
			return 1
		}
	}
	if files.HasErrors() {
		return 1
	}
	return 0
}

func symbolKind(n ast.Node) string {
	switch n.(type) {
	case *ast.Message:
		return "message"
	case *ast.Field:
		return "field"
	case *ast.OneOf:
		return "oneof"
	case *ast.Enum:
		return "enum"
	case *ast.EnumValue:
		return "enum_value"
	case *ast.Service:
		return "service"
	case *ast.RPC:
		return "rpc"
	default:
		return ""
	}
}

// watch checks every file, then checks each file again whenever it is
// written, until ctx is done.
func (e *env) watch(ctx context.Context, stdout, stderr io.Writer) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
		return 1
	}
	defer func() {
		_ = watcher.Close()
	}()

	targets := make(map[string]string, len(e.files))
	dirs := map[string]bool{}
	for _, f := range e.files {
		targets[filepath.Clean(f)] = f
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			_, _ = fmt.Fprintf(stderr, "protoast: watching %s: %v\n", dir, err)
			return 1
		}
	}

	e.report(stdout, e.load(ctx, stderr, e.files...))
	_, _ = fmt.Fprintf(stdout, "watching %d files\n", len(e.files))
	for {
		select {
		case <-ctx.Done():
			return 0
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			path, ok := targets[filepath.Clean(ev.Name)]
			if !ok || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			e.log.Debug("file changed", slog.String("file", path), slog.String("op", ev.Op.String()))
			e.report(stdout, e.load(ctx, stderr, path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			_, _ = fmt.Fprintf(stderr, "protoast: %v\n", err)
		}
	}
}

// report prints one status line per requested file.
func (e *env) report(w io.Writer, files protoast.Files) {
	for _, f := range files {
		if f.Dependency {
			continue
		}
		var errs int
		for _, d := range f.Diagnostics {
			if d.IsError() {
				errs++
			}
		}
		switch {
		case f.Err == nil:
			_, _ = fmt.Fprintf(w, "ok %s\n", f.Path)
		case errs > 0:
			_, _ = fmt.Fprintf(w, "FAIL %s (%d errors)\n", f.Path, errs)
		default:
			_, _ = fmt.Fprintf(w, "FAIL %s\n", f.Path)
		}
	}
}
