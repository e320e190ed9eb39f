// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collection

import (
	"slices"
	"strings"
)

// Group is a named subset of a collection.
type Group struct {
	Key        string
	Collection *Collection
}

// GroupBy splits members by the name elements at indices, where elements
// are separated by separator. Out-of-range indices are ignored. Groups hold
// deep copies and are ordered by key; members keep their relative order.
func (c *Collection) GroupBy(separator string, indices []int) []Group {
	return c.groupBy(func(name string) string {
		elems := strings.Split(name, separator)
		var parts []string
		for _, i := range indices {
			if i >= 0 && i < len(elems) {
				parts = append(parts, elems[i])
			}
		}
		return strings.Join(parts, separator)
	})
}

// GroupByFill is GroupBy keeping every element position: elements not at
// indices are replaced by filler.
func (c *Collection) GroupByFill(separator string, indices []int, filler string) []Group {
	return c.groupBy(func(name string) string {
		elems := strings.Split(name, separator)
		for i := range elems {
			if !slices.Contains(indices, i) {
				elems[i] = filler
			}
		}
		return strings.Join(elems, separator)
	})
}

func (c *Collection) groupBy(key func(string) string) []Group {
	index := make(map[string]*Collection)
	for name, s := range c.All() {
		k := key(name)
		g, ok := index[k]
		if !ok {
			g = c.derive(k)
			index[k] = g
		}
		// names are unique in c
		_ = g.Append(s.Clone())
		if c.IsFlagged(name) {
			g.flagged[name] = struct{}{}
		}
	}

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, Group{Key: k, Collection: index[k]})
	}
	return out
}
