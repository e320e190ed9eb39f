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
	"fmt"
	"iter"
	"runtime"
	"slices"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// Option configures a Collection.
type Option func(*Collection)

// WithWorkers bounds the goroutines used by per-member operations.
// Default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMeasureType sets the measure type of spectra the collection creates,
// such as aggregates. Default is spectrum.PctReflect; an empty type keeps it.
func WithMeasureType(mt spectrum.MeasureType) Option {
	return func(c *Collection) {
		if mt != "" {
			c.measureType = mt
		}
	}
}

// Collection is an ordered set of uniquely named spectra. Spectra live in an
// arena of slots; an ordered list of slot ids gives insertion order and a
// name index gives constant-time lookup. The flagged set is always a subset
// of the member names.
type Collection struct {
	name        string
	measureType spectrum.MeasureType
	workers     int

	slots   []*spectrum.Spectrum
	order   []int
	index   map[string]int
	flagged map[string]struct{}
}

// New creates an empty collection.
func New(name string, opts ...Option) *Collection {
	c := &Collection{
		name:        name,
		measureType: spectrum.PctReflect,
		workers:     runtime.GOMAXPROCS(0),
		index:       make(map[string]int),
		flagged:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFrom creates a collection holding spectra in order. A repeated name fails
// with DUPLICATE_NAME.
func NewFrom(name string, spectra []*spectrum.Spectrum, opts ...Option) (*Collection, error) {
	c := New(name, opts...)
	for _, s := range spectra {
		if err := c.Append(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// derive creates an empty collection sharing c's settings.
func (c *Collection) derive(name string) *Collection {
	return New(name, WithWorkers(c.workers), WithMeasureType(c.measureType))
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// MeasureType returns the measure type of spectra the collection creates.
func (c *Collection) MeasureType() spectrum.MeasureType {
	return c.measureType
}

// Append inserts s at the end. The collection takes ownership of s.
func (c *Collection) Append(s *spectrum.Spectrum) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "nil spectrum")
	}
	if _, exists := c.index[s.Name()]; exists {
		return errors.NewWithContext(errors.ErrCodeDuplicateName,
			fmt.Sprintf("spectrum %q already in collection", s.Name()),
			map[string]any{"collection": c.name, "name": s.Name()})
	}
	c.slots = append(c.slots, s)
	id := len(c.slots) - 1
	c.order = append(c.order, id)
	c.index[s.Name()] = id
	return nil
}

// Get returns the named spectrum.
func (c *Collection) Get(name string) (*spectrum.Spectrum, bool) {
	id, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.slots[id], true
}

// Has reports whether the named spectrum is a member.
func (c *Collection) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Remove deletes the named spectrum and its flag.
func (c *Collection) Remove(name string) bool {
	id, ok := c.index[name]
	if !ok {
		return false
	}
	delete(c.index, name)
	delete(c.flagged, name)
	c.slots[id] = nil
	c.order = slices.DeleteFunc(c.order, func(v int) bool { return v == id })
	return true
}

// Len returns the number of members.
func (c *Collection) Len() int {
	return len(c.order)
}

// Names returns member names in insertion order.
func (c *Collection) Names() []string {
	out := make([]string, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.slots[id].Name())
	}
	return out
}

// Spectra returns the members in insertion order.
func (c *Collection) Spectra() []*spectrum.Spectrum {
	out := make([]*spectrum.Spectrum, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.slots[id])
	}
	return out
}

// All iterates members in insertion order.
func (c *Collection) All() iter.Seq2[string, *spectrum.Spectrum] {
	return func(yield func(string, *spectrum.Spectrum) bool) {
		for _, id := range c.order {
			s := c.slots[id]
			if !yield(s.Name(), s) {
				return
			}
		}
	}
}

// Flag marks a member. Unknown names fail with NOT_FOUND.
func (c *Collection) Flag(name string) error {
	if !c.Has(name) {
		return errors.NewWithContext(errors.ErrCodeNotFound, fmt.Sprintf("spectrum %q not in collection", name),
			map[string]any{"collection": c.name})
	}
	c.flagged[name] = struct{}{}
	return nil
}

// Unflag clears the mark of a member.
func (c *Collection) Unflag(name string) {
	delete(c.flagged, name)
}

// IsFlagged reports whether the member is marked.
func (c *Collection) IsFlagged(name string) bool {
	_, ok := c.flagged[name]
	return ok
}

// Flagged returns the marked names in insertion order.
func (c *Collection) Flagged() []string {
	var out []string
	for name := range c.All() {
		if c.IsFlagged(name) {
			out = append(out, name)
		}
	}
	return out
}

// AsFlagged returns a new collection holding copies of the flagged members,
// still flagged.
func (c *Collection) AsFlagged() *Collection {
	out := c.filter(c.name+"_flagged", c.IsFlagged)
	for name := range out.index {
		out.flagged[name] = struct{}{}
	}
	return out
}

// AsUnflagged returns a new collection holding copies of the unflagged members.
func (c *Collection) AsUnflagged() *Collection {
	return c.filter(c.name+"_unflagged", func(name string) bool { return !c.IsFlagged(name) })
}

func (c *Collection) filter(name string, keep func(string) bool) *Collection {
	out := c.derive(name)
	for n, s := range c.All() {
		if keep(n) {
			// names are unique in c
			_ = out.Append(s.Clone())
		}
	}
	return out
}
