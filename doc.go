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

// Package protoast parses protobuf source files into syntax trees.
//
// The work is split into packages that can be used on their own:
//
//   - ast defines the syntax tree and source positions.
//   - parser contains the lexer, the recursive-descent parser, structural
//     validation and the conversion of a document into a descriptor proto.
//   - reporter carries diagnostics and decides when a parse must stop.
//   - printer writes a document back out as canonical source.
//   - walk visits the elements of a document.
//
// This package ties them together for callers that need to parse many files.
//
// # Resolvers
//
// A Resolver is how the loader locates the files to parse. It can answer a
// query with any of the following:
//   - Source code, which is parsed and validated.
//   - A document that was parsed earlier, which is used as is.
//   - A descriptor proto, which has no document. WithStandardImports uses
//     this to supply the files that ship with protoc.
//
// # Loader
//
// A Loader accepts a list of paths and parses them in parallel. Each file is
// parsed with its own reporter, in the mode the loader is configured with,
// so one broken file does not stop the others. A minimal Loader, that reads
// files relative to the current working directory, can be had with the
// following snippet:
//
//	loader := protoast.Loader{
//		Resolver: &protoast.SourceResolver{},
//	}
//	files, err := loader.Load(ctx, "foo.proto", "bar.proto")
package protoast
