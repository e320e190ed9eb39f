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

package measurement

import (
	"fmt"
	"math"
)

// Sample is one wavelength/value observation.
type Sample struct {
	Wavelength float64 `json:"wavelength" yaml:"wavelength"`
	Value      float64 `json:"value" yaml:"value"`
}

// Measurement is a series of values indexed by wavelength.
type Measurement struct {
	Wavelengths []float64 `json:"wavelengths" yaml:"wavelengths"`
	Values      []float64 `json:"values" yaml:"values"`
}

// New creates a Measurement from parallel slices. The slices are copied.
func New(wavelengths, values []float64) (*Measurement, error) {
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("wavelength count %d does not match value count %d", len(wavelengths), len(values))
	}
	m := &Measurement{
		Wavelengths: make([]float64, len(wavelengths)),
		Values:      make([]float64, len(values)),
	}
	copy(m.Wavelengths, wavelengths)
	copy(m.Values, values)
	return m, nil
}

// FromSamples creates a Measurement from samples in order.
func FromSamples(samples ...Sample) *Measurement {
	m := &Measurement{
		Wavelengths: make([]float64, len(samples)),
		Values:      make([]float64, len(samples)),
	}
	for i, s := range samples {
		m.Wavelengths[i] = s.Wavelength
		m.Values[i] = s.Value
	}
	return m
}

// Len returns the number of samples.
func (m *Measurement) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Wavelengths)
}

// At returns the i-th sample.
func (m *Measurement) At(i int) Sample {
	return Sample{Wavelength: m.Wavelengths[i], Value: m.Values[i]}
}

// Samples returns the series as a slice of samples.
func (m *Measurement) Samples() []Sample {
	out := make([]Sample, m.Len())
	for i := range out {
		out[i] = m.At(i)
	}
	return out
}

// Clone returns a deep copy.
func (m *Measurement) Clone() *Measurement {
	if m == nil {
		return nil
	}
	c, _ := New(m.Wavelengths, m.Values)
	return c
}

// Validate checks that the parallel slices agree in length.
func (m *Measurement) Validate() error {
	if m == nil {
		return fmt.Errorf("measurement is nil")
	}
	if len(m.Wavelengths) != len(m.Values) {
		return fmt.Errorf("wavelength count %d does not match value count %d", len(m.Wavelengths), len(m.Values))
	}
	return nil
}

// IsStrictlyIncreasing reports whether every wavelength exceeds its predecessor.
func (m *Measurement) IsStrictlyIncreasing() bool {
	for i := 1; i < m.Len(); i++ {
		if !(m.Wavelengths[i] > m.Wavelengths[i-1]) {
			return false
		}
	}
	return true
}

// Range returns the smallest and largest wavelength. An empty series
// returns NaN for both.
func (m *Measurement) Range() (lo, hi float64) {
	if m.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = m.Wavelengths[0], m.Wavelengths[0]
	for _, w := range m.Wavelengths[1:] {
		lo = math.Min(lo, w)
		hi = math.Max(hi, w)
	}
	return lo, hi
}

// ValueAt returns the value recorded at exactly wavelength w.
func (m *Measurement) ValueAt(w float64) (float64, bool) {
	for i, x := range m.Wavelengths {
		if x == w {
			return m.Values[i], true
		}
	}
	return 0, false
}

// Equal reports whether both series hold the same wavelengths and values
// within tol.
func (m *Measurement) Equal(other *Measurement, tol float64) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := range m.Wavelengths {
		if math.Abs(m.Wavelengths[i]-other.Wavelengths[i]) > tol {
			return false
		}
		if !floatEqual(m.Values[i], other.Values[i], tol) {
			return false
		}
	}
	return true
}

func floatEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}
