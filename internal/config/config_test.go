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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
strict = true
max_depth = 32
max_tokens = 100000
parallelism = 4
import_paths = ["proto", "third_party"]
include = ["proto/**/*.proto"]

[output]
format = "yaml"
`)
	res, err := Load(path, LoadOptions{Strict: true})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, dir, res.Dir)
	assert.Equal(t, Config{
		Strict:      true,
		MaxDepth:    32,
		MaxTokens:   100000,
		Parallelism: 4,
		ImportPaths: []string{"proto", "third_party"},
		Include:     []string{"proto/**/*.proto"},
		Output:      OutputConfig{Format: FormatYAML},
	}, res.Config)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse([]byte(""), LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoadUnknownKeys(t *testing.T) {
	t.Parallel()

	data := []byte(`
strict = true
colour = "red"

[output]
format = "descriptor"
width = 80
`)
	_, _, err := Parse(data, LoadOptions{Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown configuration keys: colour, output.width")

	cfg, warnings, err := Parse(data, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown configuration keys: colour, output.width"}, warnings)
	assert.True(t, cfg.Strict)
	assert.Equal(t, FormatDescriptor, cfg.Output.Format)
}

func TestLoadWarningsNamePath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "extra = 1\n")
	res, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, path+": unknown configuration keys: extra", res.Warnings[0])
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		contents string
		errMsg   string
	}{
		"syntax":       {contents: "strict = ", errMsg: "toml:"},
		"type":         {contents: `max_depth = "deep"`, errMsg: "toml:"},
		"negative":     {contents: "max_tokens = -1", errMsg: "max_tokens must not be negative"},
		"parallelism":  {contents: "parallelism = -2", errMsg: "parallelism must not be negative"},
		"format":       {contents: "[output]\nformat = \"xml\"", errMsg: `output.format must be one of "json", "yaml" or "descriptor", got "xml"`},
		"pattern":      {contents: `include = ["proto/[a-"]`, errMsg: `include: invalid pattern "proto/[a-"`},
		"missing_file": {errMsg: "no such file"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			if tc.contents != "" {
				path = writeConfig(t, dir, tc.contents)
			}
			_, err := Load(path, LoadOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"proto/a.proto":         {},
		"proto/sub/b.proto":     {},
		"proto/sub/readme.md":   {},
		"vendor/c.proto":        {},
		"proto/sub/dir.proto/x": {},
	}
	cfg := Config{Include: []string{"proto/**/*.proto", "vendor/*.proto", "proto/a.proto"}}
	files, err := cfg.Expand(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"proto/a.proto", "proto/sub/b.proto", "vendor/c.proto"}, files)
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o700))

	path, err := Find(nested)
	require.NoError(t, err)
	if path != "" {
		// a protoast.toml above the temp dir would be found; only check
		// that ours takes precedence once written
		assert.NotEqual(t, root, filepath.Dir(path))
	}

	want := writeConfig(t, root, "")
	path, err = Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
}
