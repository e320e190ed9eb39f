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

package metadata

// Builder provides a fluent API for building Metadata records.
type Builder struct {
	md *Metadata
}

// NewBuilder creates a new Builder with an empty record.
func NewBuilder() *Builder {
	return &Builder{md: New()}
}

// Set adds or updates a key-value pair.
func (b *Builder) Set(key string, value Value) *Builder {
	b.md.Set(key, value)
	return b
}

// SetString is a convenience method for adding string values.
func (b *Builder) SetString(key, value string) *Builder {
	b.md.Set(key, Str(value))
	return b
}

// SetInt is a convenience method for adding integer values.
func (b *Builder) SetInt(key string, value int64) *Builder {
	b.md.Set(key, Int(value))
	return b
}

// SetFloat is a convenience method for adding float values.
func (b *Builder) SetFloat(key string, value float64) *Builder {
	b.md.Set(key, Float(value))
	return b
}

// SetPair is a convenience method for adding pair values.
func (b *Builder) SetPair(key string, a, c float64) *Builder {
	b.md.Set(key, NewPair(a, c))
	return b
}

// SetNull records key with a null value.
func (b *Builder) SetNull(key string) *Builder {
	b.md.Set(key, Null())
	return b
}

// SetFloatOrNull stores value when ok is true and null otherwise.
func (b *Builder) SetFloatOrNull(key string, value float64, ok bool) *Builder {
	if !ok {
		return b.SetNull(key)
	}
	return b.SetFloat(key, value)
}

// Build returns the constructed record. The builder must not be reused.
func (b *Builder) Build() *Metadata {
	return b.md
}
