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

// Package interval provides an ordered map of disjoint, closed integer
// intervals. It is used to detect overlapping reserved and extension ranges
// and to find the range, if any, that contains a field or enum number.
package interval

import (
	"fmt"
	"iter"

	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints" //nolint:exptostd // Tries to replace w/ cmp.
)

// Endpoint is a type that may be used as an interval endpoint.
type Endpoint = constraints.Integer

// Map is an interval map, which maps disjoint closed intervals with
// endpoints in K to values of type V.
//
// A zero value is ready to use.
type Map[K Endpoint, V any] struct {
	// Keys in this map are the ends of intervals in the map.
	tree btree.Map[K, *entry[K, V]]
}

// Interval is an entry returned by [Map.Get], [Map.Overlap] and
// [Map.Insert].
type Interval[K Endpoint, V any] struct {
	// The range for this interval.
	Start, End K

	// The value associated with it. Nil if the lookup found no interval.
	Value *V
}

// Found reports whether the interval is the result of a successful lookup.
func (i Interval[K, V]) Found() bool {
	return i.Value != nil
}

type entry[K Endpoint, V any] struct {
	start K
	value V
}

// Len returns the number of intervals in the map.
func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}

// Get looks up the interval which contains key, if one exists.
func (m *Map[K, V]) Get(key K) Interval[K, V] {
	return m.Overlap(key, key)
}

// Overlap returns the interval with the least start that overlaps
// [start, end], if one exists.
func (m *Map[K, V]) Overlap(start, end K) Interval[K, V] {
	iter := m.tree.Iter()
	// Seek finds the first interval [c, d] with start <= d. Intervals are
	// disjoint, so it is also the one with the least c.
	if !iter.Seek(start) || end < iter.Value().start {
		return Interval[K, V]{}
	}
	return Interval[K, V]{
		Start: iter.Value().start,
		End:   iter.Key(),
		Value: &iter.Value().value,
	}
}

// Intervals returns an iterator over the intervals in this map, in order.
func (m *Map[K, V]) Intervals() iter.Seq[Interval[K, V]] {
	return func(yield func(Interval[K, V]) bool) {
		iter := m.tree.Iter()
		for more := iter.First(); more; more = iter.Next() {
			if !yield(Interval[K, V]{
				Start: iter.Value().start,
				End:   iter.Key(),
				Value: &iter.Value().value,
			}) {
				return
			}
		}
	}
}

// Insert inserts a new interval into this map, with the given associated value.
// Both endpoints are inclusive.
//
// If [start, end] overlaps any interval present in this map, nothing is
// inserted and this function returns the interval with the least start that
// overlaps with it. This case is distinguished by overlap.Found().
func (m *Map[K, V]) Insert(start, end K, value V) (overlap Interval[K, V]) {
	if start > end {
		panic(fmt.Sprintf("interval: start (%#v) > end (%#v)", start, end))
	}
	if overlap := m.Overlap(start, end); overlap.Found() {
		return overlap
	}
	m.tree.Set(end, &entry[K, V]{start: start, value: value})
	return Interval[K, V]{}
}

// Format implements [fmt.Formatter].
func (m *Map[K, V]) Format(s fmt.State, v rune) {
	fmt.Fprint(s, "{")
	first := true
	m.tree.Scan(func(end K, entry *entry[K, V]) bool {
		if !first {
			fmt.Fprint(s, ", ")
		}
		first = false

		if entry.start == end {
			fmt.Fprintf(s, "%#v: ", entry.start)
		} else {
			fmt.Fprintf(s, "[%#v, %#v]: ", entry.start, end)
		}
		fmt.Fprintf(s, fmt.FormatString(s, v), entry.value)

		return true
	})
	fmt.Fprint(s, "}")
}
