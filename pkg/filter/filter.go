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

package filter

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/errors"
)

// Reducer collapses the samples of one spectrum inside a window into a
// single score.
type Reducer string

const (
	ReduceMean   Reducer = "mean"
	ReduceMedian Reducer = "median"
	ReduceMin    Reducer = "min"
	ReduceMax    Reducer = "max"
)

// ParseReducer converts a name to a Reducer. Empty selects ReduceMean.
func ParseReducer(s string) (Reducer, error) {
	switch r := Reducer(strings.ToLower(s)); r {
	case "":
		return ReduceMean, nil
	case ReduceMean, ReduceMedian, ReduceMin, ReduceMax:
		return r, nil
	default:
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, fmt.Sprintf("unknown reducer %q", s),
			map[string]any{"valid": []Reducer{ReduceMean, ReduceMedian, ReduceMin, ReduceMax}})
	}
}

func (r Reducer) reduce(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	switch r {
	case ReduceMedian:
		s := slices.Clone(v)
		slices.Sort(s)
		n := len(s)
		if n%2 == 1 {
			return s[n/2]
		}
		return (s[n/2-1] + s[n/2]) / 2
	case ReduceMin:
		return floats.Min(v)
	case ReduceMax:
		return floats.Max(v)
	default:
		return stat.Mean(v, nil)
	}
}

// Window is an inclusive wavelength range.
type Window struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Everything covers every wavelength.
var Everything = Window{Lo: math.Inf(-1), Hi: math.Inf(1)}

func (w Window) contains(x float64) bool {
	return x >= w.Lo && x <= w.Hi
}

func (w Window) validate() error {
	if !(w.Lo <= w.Hi) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "window bounds out of order",
			map[string]any{"lo": w.Lo, "hi": w.Hi})
	}
	return nil
}

// samples is the windowed frame of a collection: one row per member and one
// column per wavelength in the window. NaN marks a missing sample.
type samples struct {
	names []string
	rows  [][]float64
}

func windowed(c *collection.Collection, w Window) (*samples, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	f, err := c.Frame(nil)
	if err != nil {
		return nil, err
	}
	var cols []int
	for i, x := range f.Wavelengths {
		if w.contains(x) {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 && len(f.Rows) > 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "no wavelengths inside window",
			map[string]any{"collection": c.Name(), "lo": w.Lo, "hi": w.Hi})
	}

	s := &samples{}
	for _, row := range f.Rows {
		values := make([]float64, len(cols))
		for j, i := range cols {
			values[j] = row.Values[i]
		}
		s.names = append(s.names, row.Name)
		s.rows = append(s.rows, values)
	}
	return s, nil
}

// present returns the non-NaN values of v.
func present(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Threshold returns the members whose reduced value inside w is not
// strictly between low and high.
func Threshold(c *collection.Collection, w Window, low, high float64, r Reducer) ([]string, error) {
	s, err := windowed(c, w)
	if err != nil {
		return nil, err
	}
	var bad []string
	for i, row := range s.rows {
		v := r.reduce(present(row))
		if !(v > low && v < high) {
			bad = append(bad, s.names[i])
		}
	}
	return bad, nil
}

// StdDev returns the members that lie threshold or more standard deviations
// from the collection mean. Distances are computed per wavelength inside w
// and reduced per member with r.
func StdDev(c *collection.Collection, w Window, threshold float64, r Reducer) ([]string, error) {
	s, err := windowed(c, w)
	if err != nil {
		return nil, err
	}
	if len(s.rows) == 0 {
		return nil, nil
	}

	width := len(s.rows[0])
	mean := make([]float64, width)
	std := make([]float64, width)
	column := make([]float64, 0, len(s.rows))
	for j := range width {
		column = column[:0]
		for _, row := range s.rows {
			if !math.IsNaN(row[j]) {
				column = append(column, row[j])
			}
		}
		mean[j], std[j] = math.NaN(), math.NaN()
		if len(column) > 1 {
			mean[j], std[j] = stat.MeanStdDev(column, nil)
		}
	}

	var bad []string
	for i, row := range s.rows {
		dist := make([]float64, 0, width)
		for j, x := range row {
			d := math.Abs(x-mean[j]) / std[j]
			if !math.IsNaN(d) && !math.IsInf(d, 0) {
				dist = append(dist, d)
			}
		}
		if len(dist) == 0 {
			continue
		}
		if !(r.reduce(dist) < threshold) {
			bad = append(bad, s.names[i])
		}
	}
	return bad, nil
}

// White reference detection bounds: a flat spectrum close to 1.
const (
	whiteMeanLo = 0.9
	whiteMeanHi = 1.1
	whiteStdMax = 0.03
)

// White returns the members that look like white reference panels inside w:
// mean strictly between 0.9 and 1.1 with a standard deviation below 0.03.
func White(c *collection.Collection, w Window) ([]string, error) {
	s, err := windowed(c, w)
	if err != nil {
		return nil, err
	}
	var white []string
	for i, row := range s.rows {
		v := present(row)
		if len(v) < 2 {
			continue
		}
		mean, std := stat.MeanStdDev(v, nil)
		if mean > whiteMeanLo && mean < whiteMeanHi && std < whiteStdMax {
			white = append(white, s.names[i])
		}
	}
	return white, nil
}

// Flag marks names in c and logs how many were flagged by filter.
func Flag(c *collection.Collection, filter string, names []string) error {
	for _, name := range names {
		if err := c.Flag(name); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		slog.Debug("flagged spectra",
			slog.String("collection", c.Name()),
			slog.String("filter", filter),
			slog.Int("count", len(names)))
	}
	return nil
}
