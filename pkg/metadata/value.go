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
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind classifies the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindPair
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPair:
		return "pair"
	default:
		return "null"
	}
}

// AllowedScalar is a constraint (compile-time) for what we allow as scalar values.
type AllowedScalar interface {
	~int64 | ~float64 | ~string
}

// Value is a *runtime* interface so a Metadata record can hold mixed types.
type Value interface {
	isValue()
	Any() any
	Kind() Kind
	String() string

	json.Marshaler
	yaml.Marshaler
}

// Scalar wraps an allowed scalar type.
type Scalar[T AllowedScalar] struct {
	V T
}

func (Scalar[T]) isValue() {}

func (s Scalar[T]) Any() any { return s.V }

// Kind reports the scalar kind.
func (s Scalar[T]) Kind() Kind {
	switch any(s.V).(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	default:
		return KindString
	}
}

// String returns the string representation of the underlying scalar value.
func (s Scalar[T]) String() string {
	return fmt.Sprintf("%v", s.V)
}

// MarshalJSON makes the JSON value be the underlying scalar (not an object wrapper).
func (s Scalar[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.V)
}

// MarshalYAML makes the YAML value be the underlying scalar (not an object wrapper).
func (s Scalar[T]) MarshalYAML() (any, error) {
	return s.V, nil
}

// Pair holds an ordered pair of numbers such as a wavelength range.
type Pair struct {
	A, B float64
}

func (Pair) isValue() {}

func (p Pair) Any() any { return [2]float64{p.A, p.B} }

// Kind reports KindPair.
func (Pair) Kind() Kind { return KindPair }

func (p Pair) String() string {
	return fmt.Sprintf("(%v, %v)", p.A, p.B)
}

// MarshalJSON encodes the pair as a two element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.A, p.B})
}

// MarshalYAML encodes the pair as a two element sequence.
func (p Pair) MarshalYAML() (any, error) {
	return []float64{p.A, p.B}, nil
}

type null struct{}

func (null) isValue()       {}
func (null) Any() any       { return nil }
func (null) Kind() Kind     { return KindNull }
func (null) String() string { return "null" }

func (null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (null) MarshalYAML() (any, error) { return nil, nil }

// Convenience constructors for each value kind.
func Int(v int64) Value          { return &Scalar[int64]{V: v} }
func Str(v string) Value         { return &Scalar[string]{V: v} }
func NewPair(a, b float64) Value { return Pair{A: a, B: b} }
func Null() Value                { return null{} }

// Float returns a float value. NaN and infinities have no JSON form and
// become Null.
func Float(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null()
	}
	return &Scalar[float64]{V: v}
}

// IsNull reports whether v is absent or null.
func IsNull(v Value) bool {
	return v == nil || v.Kind() == KindNull
}

// ToValue creates a Value from a decoded JSON or YAML value.
// Unknown types fall back to their string representation.
func ToValue(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint64:
		return Int(int64(val))
	case float64:
		return Float(val)
	case float32:
		return Float(float64(val))
	case json.Number:
		if i, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return Int(i)
		}
		f, err := val.Float64()
		if err != nil {
			return Str(val.String())
		}
		return Float(f)
	case string:
		return Str(val)
	case []any:
		if len(val) == 2 {
			a, okA := AsFloat64(ToValue(val[0]))
			b, okB := AsFloat64(ToValue(val[1]))
			if okA && okB {
				return NewPair(a, b)
			}
		}
		return Str(fmt.Sprintf("%v", val))
	case [2]float64:
		return NewPair(val[0], val[1])
	default:
		return Str(fmt.Sprintf("%v", val))
	}
}

// AsFloat64 returns the numeric content of an int or float value.
func AsFloat64(v Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch x := v.Any().(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
