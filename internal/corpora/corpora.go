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

// Package corpora runs golden-file tests over a directory of proto sources.
//
// Each source file is a test case. Every declared output is compared with a
// sibling file named after the source plus the output's extension, so the
// diagnostics for foo.proto live in foo.proto.stderr. A missing golden file
// means the output is expected to be empty.
package corpora

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
)

// FilterEnv names the environment variable holding a glob that restricts
// which cases run, e.g. PROTOAST_CORPUS='errors/**'.
const FilterEnv = "PROTOAST_CORPUS"

// Corpus describes a directory of test cases.
type Corpus struct {
	// Root is the directory holding the cases, relative to the test file
	// that calls Run.
	Root string
	// Pattern selects case files under Root. Defaults to "**/*.proto".
	Pattern string
	// Refresh names an environment variable holding a glob. Cases matching
	// it have their golden files rewritten instead of compared.
	Refresh string
	// Outputs lists the outputs each case produces.
	Outputs []Output
	// Test runs one case and returns one string per entry in Outputs.
	Test func(t *testing.T, path, text string) []string
}

// Output describes one golden file per case.
type Output struct {
	// Extension is appended, after a dot, to the case's file name.
	Extension string
	// Compare reports a mismatch, or "" if got and want agree. If nil the
	// strings must be equal and a mismatch is shown as a unified diff.
	Compare func(got, want string) string
}

// Run executes every case in the corpus as a subtest of t.
func (c Corpus) Run(t *testing.T) {
	t.Helper()
	root := filepath.Join(callerDir(), c.Root)
	pattern := c.Pattern
	if pattern == "" {
		pattern = "**/*.proto"
	}
	cases, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		t.Fatalf("corpora: listing %q: %v", root, err)
	}
	if len(cases) == 0 {
		t.Fatalf("corpora: no files match %q in %q", pattern, root)
	}

	filter, err := globFromEnv(FilterEnv)
	if err != nil {
		t.Fatal(err)
	}
	var refresh string
	if c.Refresh != "" {
		refresh, err = globFromEnv(c.Refresh)
		if err != nil {
			t.Fatal(err)
		}
	}
	if refresh != "" {
		// Refreshing never counts as a passing run.
		t.Logf("corpora: refreshing golden files matching %q", refresh)
		t.Fail()
	}

	for _, name := range cases {
		if filter != "" && !doublestar.MatchUnvalidated(filter, name) {
			continue
		}
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(root, filepath.FromSlash(name))
			data, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("corpora: reading %q: %v", file, err)
			}
			results := c.Test(t, name, string(data))
			if len(results) != len(c.Outputs) {
				t.Fatalf("corpora: test returned %d outputs, want %d", len(results), len(c.Outputs))
			}
			update := refresh != "" && doublestar.MatchUnvalidated(refresh, name)
			for i, out := range c.Outputs {
				golden := file + "." + out.Extension
				if update {
					if err := writeGolden(golden, results[i]); err != nil {
						t.Error(err)
					}
					continue
				}
				want, err := os.ReadFile(golden)
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("corpora: reading %q: %v", golden, err)
					continue
				}
				compare := out.Compare
				if compare == nil {
					compare = Diff
				}
				if msg := compare(results[i], string(want)); msg != "" {
					t.Errorf("corpora: %s mismatch:\n%s", golden, msg)
				}
			}
		})
	}
}

// Diff returns a unified diff from want to got, or "" if they are equal.
func Diff(got, want string) string {
	if got == want {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

func globFromEnv(name string) (string, error) {
	glob := os.Getenv(name)
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return "", fmt.Errorf("corpora: %s=%q is not a valid glob", name, glob)
	}
	return glob, nil
}

func writeGolden(path, content string) error {
	if content == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("corpora: deleting %q: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("corpora: writing %q: %w", path, err)
	}
	return nil
}

// callerDir returns the directory of the file that called Run.
func callerDir() string {
	_, file, _, ok := runtime.Caller(2)
	if !ok {
		panic("corpora: could not determine the test file's directory")
	}
	return filepath.Dir(file)
}
