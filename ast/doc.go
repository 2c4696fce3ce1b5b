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

// Package ast defines types for modeling the AST (Abstract Syntax
// Tree) for the protocol buffers source language.
//
// The root of the tree for a proto source file is a *Document. Top-level
// and nested definitions are represented by the Definition interface, whose
// concrete types are *Message, *Enum, *Service and *Extend. Option values
// are represented by the Value interface. Both are closed sets: consumers
// are expected to use type switches over the concrete types defined in this
// package, and user code should not attempt to implement these interfaces.
//
// Every node records the span of source text it was parsed from. Spans are
// assigned once, when the parser constructs the node, and cannot be changed
// afterwards. The tree is strictly hierarchical: every node is reachable from
// exactly one Document and references to other types (such as the type of a
// field or the input type of an RPC) are stored as names, not as pointers.
// Connecting those names to definitions is left to later stages.
//
// Nodes are built exclusively by the parser package. Consumers must treat a
// parsed tree as read-only.
package ast
