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

// Package walk provides helper functions for traversing the elements of a
// parsed document or of a descriptor proto, along with their fully-qualified
// names.
package walk

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protoast/ast"
)

// Nodes walks all named elements in the given document: messages, fields,
// oneofs, enums, enum values, services, RPCs and extend blocks. The given
// function is called for each, along with its fully-qualified name. Fields
// of an extend block are named relative to the scope that contains the
// block, and the block itself is reported with the name of that scope.
//
// Elements are visited depth-first. The children of a message are visited
// by kind (fields, oneofs, nested messages, enums, then extend blocks), each
// kind in source order. If the function returns an error, the walk is
// aborted and that error is returned.
func Nodes(doc *ast.Document, fn func(protoreflect.FullName, ast.Node) error) error {
	return NodesEnterAndExit(doc, fn, nil)
}

// NodesEnterAndExit is like Nodes, except it calls enter when an element is
// first visited and exit after all of its children have been visited. The
// exit function may be nil.
func NodesEnterAndExit(doc *ast.Document, enter, exit func(protoreflect.FullName, ast.Node) error) error {
	w := &nodeWalker{enter: enter, exit: exit}
	prefix := doc.PackageName()
	for _, def := range doc.Definitions {
		var err error
		switch def := def.(type) {
		case *ast.Message:
			err = w.message(prefix, def)
		case *ast.Enum:
			err = w.enum(prefix, def)
		case *ast.Service:
			err = w.service(prefix, def)
		case *ast.Extend:
			err = w.extend(prefix, def)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type nodeWalker struct {
	enter, exit func(protoreflect.FullName, ast.Node) error
}

func qualify(prefix, name string) protoreflect.FullName {
	if prefix == "" {
		return protoreflect.FullName(name)
	}
	return protoreflect.FullName(prefix + "." + name)
}

func (w *nodeWalker) leaf(name protoreflect.FullName, n ast.Node) error {
	if err := w.enter(name, n); err != nil {
		return err
	}
	if w.exit != nil {
		return w.exit(name, n)
	}
	return nil
}

func (w *nodeWalker) message(prefix string, msg *ast.Message) error {
	fqn := qualify(prefix, msg.Name)
	if err := w.enter(fqn, msg); err != nil {
		return err
	}
	scope := string(fqn)
	for _, fld := range msg.Fields {
		if err := w.leaf(qualify(scope, fld.Name), fld); err != nil {
			return err
		}
	}
	for _, oo := range msg.OneOfs {
		ooName := qualify(scope, oo.Name)
		if err := w.enter(ooName, oo); err != nil {
			return err
		}
		for _, fld := range oo.Fields {
			// oneof fields live in the scope of the message
			if err := w.leaf(qualify(scope, fld.Name), fld); err != nil {
				return err
			}
		}
		if w.exit != nil {
			if err := w.exit(ooName, oo); err != nil {
				return err
			}
		}
	}
	for _, nested := range msg.Messages {
		if err := w.message(scope, nested); err != nil {
			return err
		}
	}
	for _, en := range msg.Enums {
		if err := w.enum(scope, en); err != nil {
			return err
		}
	}
	for _, ext := range msg.Extends {
		if err := w.extend(scope, ext); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(fqn, msg)
	}
	return nil
}

func (w *nodeWalker) enum(prefix string, en *ast.Enum) error {
	fqn := qualify(prefix, en.Name)
	if err := w.enter(fqn, en); err != nil {
		return err
	}
	for _, val := range en.Values {
		// enum values are siblings of the enum, not children
		if err := w.leaf(qualify(prefix, val.Name), val); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(fqn, en)
	}
	return nil
}

func (w *nodeWalker) service(prefix string, svc *ast.Service) error {
	fqn := qualify(prefix, svc.Name)
	if err := w.enter(fqn, svc); err != nil {
		return err
	}
	for _, rpc := range svc.RPCs {
		if err := w.leaf(qualify(string(fqn), rpc.Name), rpc); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(fqn, svc)
	}
	return nil
}

func (w *nodeWalker) extend(prefix string, ext *ast.Extend) error {
	scope := protoreflect.FullName(prefix)
	if err := w.enter(scope, ext); err != nil {
		return err
	}
	for _, fld := range ext.Fields {
		if err := w.leaf(qualify(prefix, fld.Name), fld); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(scope, ext)
	}
	return nil
}

// DescriptorProtos walks all descriptor protos in the given file using a
// depth-first traversal, calling the given function for each descriptor
// proto along with its fully-qualified name.
func DescriptorProtos(file *descriptorpb.FileDescriptorProto, fn func(protoreflect.FullName, proto.Message) error) error {
	return DescriptorProtosEnterAndExit(file, fn, nil)
}

// DescriptorProtosEnterAndExit walks all descriptor protos in the given
// file, calling enter before visiting a proto's children and exit after.
// The exit function may be nil.
func DescriptorProtosEnterAndExit(file *descriptorpb.FileDescriptorProto, enter, exit func(protoreflect.FullName, proto.Message) error) error {
	w := &protoWalker{enter: enter, exit: exit}
	return w.walkDescriptorProtos(file)
}

type protoWalker struct {
	enter, exit func(protoreflect.FullName, proto.Message) error
}

func (w *protoWalker) leaf(fqn string, m proto.Message) error {
	if err := w.enter(protoreflect.FullName(fqn), m); err != nil {
		return err
	}
	if w.exit != nil {
		return w.exit(protoreflect.FullName(fqn), m)
	}
	return nil
}

func (w *protoWalker) walkDescriptorProtos(file *descriptorpb.FileDescriptorProto) error {
	prefix := file.GetPackage()
	if prefix != "" {
		prefix += "."
	}
	for _, msg := range file.MessageType {
		if err := w.walkDescriptorProto(prefix, msg); err != nil {
			return err
		}
	}
	for _, en := range file.EnumType {
		if err := w.walkEnumDescriptorProto(prefix, en); err != nil {
			return err
		}
	}
	for _, ext := range file.Extension {
		if err := w.leaf(prefix+ext.GetName(), ext); err != nil {
			return err
		}
	}
	for _, svc := range file.Service {
		fqn := prefix + svc.GetName()
		if err := w.enter(protoreflect.FullName(fqn), svc); err != nil {
			return err
		}
		for _, mtd := range svc.Method {
			if err := w.leaf(fqn+"."+mtd.GetName(), mtd); err != nil {
				return err
			}
		}
		if w.exit != nil {
			if err := w.exit(protoreflect.FullName(fqn), svc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *protoWalker) walkDescriptorProto(prefix string, msg *descriptorpb.DescriptorProto) error {
	fqn := prefix + msg.GetName()
	if err := w.enter(protoreflect.FullName(fqn), msg); err != nil {
		return err
	}
	prefix = fqn + "."
	for _, fld := range msg.Field {
		if err := w.leaf(prefix+fld.GetName(), fld); err != nil {
			return err
		}
	}
	for _, oo := range msg.OneofDecl {
		if err := w.leaf(prefix+oo.GetName(), oo); err != nil {
			return err
		}
	}
	for _, nested := range msg.NestedType {
		if err := w.walkDescriptorProto(prefix, nested); err != nil {
			return err
		}
	}
	for _, en := range msg.EnumType {
		if err := w.walkEnumDescriptorProto(prefix, en); err != nil {
			return err
		}
	}
	for _, ext := range msg.Extension {
		if err := w.leaf(prefix+ext.GetName(), ext); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(protoreflect.FullName(fqn), msg)
	}
	return nil
}

func (w *protoWalker) walkEnumDescriptorProto(prefix string, en *descriptorpb.EnumDescriptorProto) error {
	fqn := prefix + en.GetName()
	if err := w.enter(protoreflect.FullName(fqn), en); err != nil {
		return err
	}
	for _, val := range en.Value {
		// enum values are siblings of the enum, not children
		if err := w.leaf(prefix+val.GetName(), val); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(protoreflect.FullName(fqn), en)
	}
	return nil
}
