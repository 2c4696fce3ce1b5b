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

package interval_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/protoast/internal/interval"
)

func TestMapInsert(t *testing.T) {
	t.Parallel()
	type r struct {
		start, end int64
		value      string
	}

	tests := []struct {
		name   string
		ranges []r    // Ranges to insert.
		want   string // If not "", the value of the overlap for the last range.
	}{
		{
			name:   "empty-map",
			ranges: []r{{0, 9, "foo"}},
		},
		{
			name:   "new-max",
			ranges: []r{{0, 9, "foo"}, {30, 39, "bar"}},
		},
		{
			name:   "new-min",
			ranges: []r{{30, 39, "bar"}, {0, 9, "foo"}},
		},
		{
			name:   "disjoint-between",
			ranges: []r{{0, 9, "foo"}, {30, 39, "bar"}, {10, 29, "baz"}},
		},
		{
			name:   "subset",
			ranges: []r{{0, 9, "foo"}, {1, 2, "baz"}},
			want:   "foo",
		},
		{
			name:   "identical",
			ranges: []r{{0, 9, "foo"}, {0, 9, "baz"}},
			want:   "foo",
		},
		{
			name:   "overlaps-end",
			ranges: []r{{0, 9, "foo"}, {30, 39, "bar"}, {9, 12, "baz"}},
			want:   "foo",
		},
		{
			name:   "overlaps-start",
			ranges: []r{{0, 9, "foo"}, {30, 39, "bar"}, {25, 31, "baz"}},
			want:   "bar",
		},
		{
			name:   "superset",
			ranges: []r{{10, 20, "foo"}, {30, 39, "bar"}, {0, 50, "baz"}},
			want:   "foo",
		},
		{
			name:   "negative",
			ranges: []r{{-5, -1, "foo"}, {-1, 0, "baz"}},
			want:   "foo",
		},
		{
			name:   "extremes",
			ranges: []r{{math.MinInt64, 0, "foo"}, {1, math.MaxInt64, "bar"}, {0, 1, "baz"}},
			want:   "foo",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var m interval.Map[int64, string]
			for i, rng := range test.ranges {
				overlap := m.Insert(rng.start, rng.end, rng.value)
				if i < len(test.ranges)-1 {
					require.False(t, overlap.Found(), "unexpected overlap inserting %v", rng)
					continue
				}
				if test.want == "" {
					assert.False(t, overlap.Found())
					assert.Equal(t, len(test.ranges), m.Len())
				} else {
					require.True(t, overlap.Found())
					assert.Equal(t, test.want, *overlap.Value)
					assert.Equal(t, len(test.ranges)-1, m.Len())
				}
			}
		})
	}
}

func TestMapGet(t *testing.T) {
	t.Parallel()
	var m interval.Map[int32, string]
	m.Insert(1, 5, "a")
	m.Insert(10, 10, "b")
	m.Insert(19000, 19999, "c")

	got := m.Get(3)
	require.True(t, got.Found())
	assert.Equal(t, int32(1), got.Start)
	assert.Equal(t, int32(5), got.End)
	assert.Equal(t, "a", *got.Value)

	assert.True(t, m.Get(10).Found())
	assert.False(t, m.Get(6).Found())
	assert.False(t, m.Get(0).Found())
	assert.False(t, m.Get(20000).Found())
	assert.Equal(t, "c", *m.Get(19500).Value)

	var starts []int32
	for iv := range m.Intervals() {
		starts = append(starts, iv.Start)
	}
	assert.Equal(t, []int32{1, 10, 19000}, starts)
	assert.Equal(t, `{[1, 5]: "a", 10: "b", [19000, 19999]: "c"}`, fmt.Sprintf("%q", &m))
}
