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

// Package logging builds the slog loggers used by the lexer, parser, loader
// and command line tool.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace is a custom log level more verbose than Debug. It is used for
// per-token and per-declaration logging.
const LevelTrace = slog.Level(-8)

// Options configures the logger returned by New.
type Options struct {
	// Verbose enables debug level logging.
	Verbose bool
	// Trace enables trace level logging. It implies Verbose.
	Trace bool
	// Writer directs log output; defaults to os.Stderr when nil.
	Writer io.Writer
}

// New constructs a text slog.Logger.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Trace:
		level = LevelTrace
	case opts.Verbose:
		level = slog.LevelDebug
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

var ctx = context.Background()

// Logger wraps slog.Logger with nil-safe helpers. Both a nil *Logger and a
// Logger with a nil L discard everything.
type Logger struct {
	L *slog.Logger
}

// Wrap returns a Logger for l, which may be nil.
func Wrap(l *slog.Logger) *Logger {
	return &Logger{L: l}
}

// Enabled returns true if logging is enabled at the given level.
func (l *Logger) Enabled(level slog.Level) bool {
	return l != nil && l.L != nil && l.L.Enabled(ctx, level)
}

// Log emits a log message if logging is enabled.
func (l *Logger) Log(level slog.Level, msg string, attrs ...slog.Attr) {
	if l.Enabled(level) {
		l.L.LogAttrs(ctx, level, msg, attrs...)
	}
}

// TraceEnabled returns true if trace-level logging is enabled.
func (l *Logger) TraceEnabled() bool {
	return l.Enabled(LevelTrace)
}

// Trace emits a trace-level log.
func (l *Logger) Trace(msg string, attrs ...slog.Attr) {
	l.Log(LevelTrace, msg, attrs...)
}

// Debug emits a debug-level log.
func (l *Logger) Debug(msg string, attrs ...slog.Attr) {
	l.Log(slog.LevelDebug, msg, attrs...)
}

// Info emits an info-level log.
func (l *Logger) Info(msg string, attrs ...slog.Attr) {
	l.Log(slog.LevelInfo, msg, attrs...)
}

// With returns a Logger that adds attrs to every record.
func (l *Logger) With(attrs ...any) *Logger {
	if l == nil || l.L == nil {
		return l
	}
	return &Logger{L: l.L.With(attrs...)}
}
