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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"gopkg.in/yaml.v3"
)

// Metadata is an insertion-ordered record of named values.
// The zero value is not usable; create one with New.
type Metadata struct {
	keys   []string
	values map[string]Value
}

// New returns an empty Metadata record.
func New() *Metadata {
	return &Metadata{values: make(map[string]Value)}
}

// Set adds or replaces a value. A new key is appended to the key order;
// replacing keeps the original position. A nil value is stored as Null.
func (m *Metadata) Set(key string, v Value) {
	if v == nil {
		v = Null()
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get retrieves a value by key, returning nil if not found.
func (m *Metadata) Get(key string) Value {
	if m == nil {
		return nil
	}
	return m.values[key]
}

// Lookup retrieves a value and whether the key was present.
func (m *Metadata) Lookup(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has checks if a key exists.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

// Delete removes a key. Missing keys are ignored.
func (m *Metadata) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns all keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates over key/value pairs in insertion order.
func (m *Metadata) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns a copy of the record. Values are immutable and shared.
func (m *Metadata) Clone() *Metadata {
	out := New()
	if m == nil {
		return out
	}
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Merge copies every entry from other into m; other's values take precedence.
func (m *Metadata) Merge(other *Metadata) {
	for k, v := range other.All() {
		m.Set(k, v)
	}
}

// GetString attempts to retrieve a string value, returning an error if not found or wrong type.
func (m *Metadata) GetString(key string) (string, error) {
	v := m.Get(key)
	if v == nil {
		return "", fmt.Errorf("key %q not found", key)
	}
	s, ok := v.Any().(string)
	if !ok {
		return "", fmt.Errorf("key %q is not a string", key)
	}
	return s, nil
}

// GetInt64 attempts to retrieve an integer value, returning an error if not found or wrong type.
func (m *Metadata) GetInt64(key string) (int64, error) {
	v := m.Get(key)
	if v == nil {
		return 0, fmt.Errorf("key %q not found", key)
	}
	i, ok := v.Any().(int64)
	if !ok {
		return 0, fmt.Errorf("key %q is not an int64", key)
	}
	return i, nil
}

// GetFloat64 attempts to retrieve a numeric value as float64. Integers are widened.
func (m *Metadata) GetFloat64(key string) (float64, error) {
	v := m.Get(key)
	if v == nil {
		return 0, fmt.Errorf("key %q not found", key)
	}
	f, ok := AsFloat64(v)
	if !ok {
		return 0, fmt.Errorf("key %q is not numeric", key)
	}
	return f, nil
}

// GetPair attempts to retrieve a pair value.
func (m *Metadata) GetPair(key string) (Pair, error) {
	v := m.Get(key)
	if v == nil {
		return Pair{}, fmt.Errorf("key %q not found", key)
	}
	p, ok := v.(Pair)
	if !ok {
		return Pair{}, fmt.Errorf("key %q is not a pair", key)
	}
	return p, nil
}

// MarshalJSON encodes the record as a JSON object in key order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata must be a JSON object, got %v", tok)
	}

	*m = Metadata{values: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("invalid metadata key %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode metadata key %q: %w", key, err)
		}
		m.Set(key, ToValue(raw))
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML encodes the record as a YAML mapping in key order.
func (m *Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		raw, err := m.values[k].MarshalYAML()
		if err != nil {
			return nil, err
		}
		var vn yaml.Node
		if err := vn.Encode(raw); err != nil {
			return nil, fmt.Errorf("failed to encode metadata key %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&vn,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping preserving key order.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metadata must be a YAML mapping, got kind %d", node.Kind)
	}
	*m = Metadata{values: make(map[string]Value)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var raw any
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode metadata key %q: %w", node.Content[i].Value, err)
		}
		m.Set(node.Content[i].Value, ToValue(raw))
	}
	return nil
}
