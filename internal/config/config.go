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

// Package config loads protoast.toml, the configuration file for the
// protoast command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the name of the configuration file looked up by the command.
const FileName = "protoast.toml"

// Output formats accepted by [output] format.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatDescriptor = "descriptor"
)

// Config mirrors the protoast.toml schema.
type Config struct {
	// Strict stops each parse at its first diagnostic.
	Strict bool `toml:"strict"`
	// MaxDepth bounds declaration and message literal nesting. Zero selects
	// the parser's default.
	MaxDepth int `toml:"max_depth"`
	// MaxTokens bounds the number of tokens per file. Zero means no limit.
	MaxTokens int `toml:"max_tokens"`
	// Parallelism bounds the number of files parsed at once. Zero selects
	// the number of CPUs.
	Parallelism int `toml:"parallelism"`
	// ImportPaths are the directories searched for input files, relative
	// to the directory holding the configuration file.
	ImportPaths []string `toml:"import_paths"`
	// Include lists doublestar patterns selecting the files to check when
	// none are named on the command line.
	Include []string     `toml:"include"`
	Output  OutputConfig `toml:"output"`
}

// OutputConfig configures the dump command.
type OutputConfig struct {
	Format string `toml:"format"`
}

// LoadOptions tunes config loading behavior.
type LoadOptions struct {
	// Strict turns unknown keys into an error instead of a warning.
	Strict bool
}

// Result wraps a loaded configuration alongside any non-fatal warnings.
type Result struct {
	Config Config
	// Dir is the directory holding the configuration file. Relative paths
	// in Config are resolved against it.
	Dir      string
	Warnings []string
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Output: OutputConfig{Format: FormatJSON}}
}

// Load reads and validates a configuration file.
func Load(path string, opts LoadOptions) (Result, error) {
	res := Result{Dir: filepath.Dir(path)}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, warnings, err := Parse(data, opts)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Config = cfg
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, path+": "+w)
	}
	return res, nil
}

// Parse decodes and validates the contents of a configuration file.
func Parse(data []byte, opts LoadOptions) (Config, []string, error) {
	cfg := Default()
	var warnings []string

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(&cfg)
	var strictErr *toml.StrictMissingError
	switch {
	case errors.As(err, &strictErr):
		unknown := make([]string, 0, len(strictErr.Errors))
		for i := range strictErr.Errors {
			unknown = append(unknown, strings.Join(strictErr.Errors[i].Key(), "."))
		}
		slices.Sort(unknown)
		message := "unknown configuration keys: " + strings.Join(unknown, ", ")
		if opts.Strict {
			return cfg, nil, errors.New(message)
		}
		warnings = append(warnings, message)
		// decode again, ignoring the unknown keys
		cfg = Default()
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, nil, err
		}
	case err != nil:
		return cfg, nil, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, warnings, nil
}

func (c *Config) validate() error {
	switch {
	case c.MaxDepth < 0:
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	case c.MaxTokens < 0:
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	case c.Parallelism < 0:
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	switch c.Output.Format {
	case FormatJSON, FormatYAML, FormatDescriptor:
	default:
		return fmt.Errorf("output.format must be one of %q, %q or %q, got %q",
			FormatJSON, FormatYAML, FormatDescriptor, c.Output.Format)
	}
	for _, pattern := range c.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("include: invalid pattern %q", pattern)
		}
	}
	return nil
}

// Expand returns the files in fsys matched by the Include patterns, sorted
// and without duplicates. Paths use forward slashes.
func (c *Config) Expand(fsys fs.FS) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, pattern := range c.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Find looks for FileName in dir and each of its parents. It returns the
// empty string if there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
