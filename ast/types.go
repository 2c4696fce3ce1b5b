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

package ast

// TypeKind tags the variant held by a FieldType.
type TypeKind int

const (
	TypeScalar TypeKind = iota
	TypeNamed
	TypeMap
)

// ScalarType is one of the built-in field types.
type ScalarType int

const (
	ScalarNone ScalarType = iota
	ScalarDouble
	ScalarFloat
	ScalarInt32
	ScalarInt64
	ScalarUint32
	ScalarUint64
	ScalarSint32
	ScalarSint64
	ScalarFixed32
	ScalarFixed64
	ScalarSfixed32
	ScalarSfixed64
	ScalarBool
	ScalarString
	ScalarBytes
)

var scalarNames = [...]string{
	ScalarDouble:   "double",
	ScalarFloat:    "float",
	ScalarInt32:    "int32",
	ScalarInt64:    "int64",
	ScalarUint32:   "uint32",
	ScalarUint64:   "uint64",
	ScalarSint32:   "sint32",
	ScalarSint64:   "sint64",
	ScalarFixed32:  "fixed32",
	ScalarFixed64:  "fixed64",
	ScalarSfixed32: "sfixed32",
	ScalarSfixed64: "sfixed64",
	ScalarBool:     "bool",
	ScalarString:   "string",
	ScalarBytes:    "bytes",
}

var scalarsByName = func() map[string]ScalarType {
	m := make(map[string]ScalarType, len(scalarNames))
	for i, name := range scalarNames {
		if name != "" {
			m[name] = ScalarType(i)
		}
	}
	return m
}()

// LookupScalar returns the scalar type with the given name.
func LookupScalar(name string) (ScalarType, bool) {
	s, ok := scalarsByName[name]
	return s, ok
}

func (s ScalarType) String() string {
	if s <= ScalarNone || int(s) >= len(scalarNames) {
		return ""
	}
	return scalarNames[s]
}

// IsValidMapKey reports whether s may be used as the key type of a map.
// Floating point and bytes keys are not allowed.
func (s ScalarType) IsValidMapKey() bool {
	switch s {
	case ScalarNone, ScalarDouble, ScalarFloat, ScalarBytes:
		return false
	default:
		return true
	}
}

// FieldType is the type of a field. Exactly one variant is populated,
// according to Kind:
//
//   - TypeScalar: Scalar
//   - TypeNamed: Name, a possibly-qualified reference to a message or enum
//     (with a leading dot if fully qualified)
//   - TypeMap: Key and Value
type FieldType struct {
	Spanned

	Kind   TypeKind
	Scalar ScalarType
	Name   string
	Key    *FieldType
	Value  *FieldType
}

func (t *FieldType) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeScalar:
		return t.Scalar.String()
	case TypeMap:
		return "map<" + t.Key.String() + ", " + t.Value.String() + ">"
	default:
		return t.Name
	}
}
