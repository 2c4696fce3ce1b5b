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

package printer

import (
	"math"
	"strconv"
	"strings"

	"github.com/bufbuild/protoast/ast"
)

// FormatValue renders an option value as source text on a single line.
func FormatValue(v ast.Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

// AggregateText renders the fields of a message literal without the
// enclosing braces, the form used for the aggregate value of an
// uninterpreted option.
func AggregateText(agg *ast.AggregateValue) string {
	var sb strings.Builder
	writeAggregateFields(&sb, agg)
	return sb.String()
}

func writeValue(sb *strings.Builder, v ast.Value) {
	switch v := v.(type) {
	case *ast.BoolValue:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *ast.IntValue:
		if v.Value == 0 {
			// written as -0
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.FormatInt(v.Value, 10))
	case *ast.UintValue:
		sb.WriteString(strconv.FormatUint(v.Value, 10))
	case *ast.FloatValue:
		sb.WriteString(formatFloat(v.Value))
	case *ast.StringValue:
		sb.WriteString(strconv.Quote(v.Value))
	case *ast.IdentValue:
		sb.WriteString(v.Name)
	case *ast.AggregateValue:
		if len(v.Fields) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		writeAggregateFields(sb, v)
		sb.WriteString(" }")
	case *ast.ListValue:
		sb.WriteByte('[')
		for i, elem := range v.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, elem)
		}
		sb.WriteByte(']')
	}
}

func writeAggregateFields(sb *strings.Builder, agg *ast.AggregateValue) {
	for i, fld := range agg.Fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if fld.Extension {
			sb.WriteString("[" + fld.Name + "]")
		} else {
			sb.WriteString(fld.Name)
		}
		sb.WriteString(": ")
		writeValue(sb, fld.Value)
	}
}

// formatFloat renders f so that it lexes back as a float literal.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
