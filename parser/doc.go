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

// Package parser contains the logic for parsing protobuf source code into an
// AST (abstract syntax tree) and also for converting an AST into a descriptor
// proto.
//
// The parser is a hand-written recursive-descent parser with at most two
// tokens of lookahead. It accepts both the proto2 and proto3 dialects. Errors
// are sent to a reporter.Handler: in permissive mode the parser recovers from
// malformed statements and always produces a document, while in strict mode
// the first diagnostic aborts the parse.
//
// After the syntax is parsed, the document is checked for structural
// problems, such as duplicate field numbers or labels that the dialect does
// not allow. These checks never need information from other files.
package parser
