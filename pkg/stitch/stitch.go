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

// Package stitch merges the overlapping regions of multi-detector spectra
// into a single series with strictly increasing wavelengths.
//
// Each pass repairs the first non-positive wavelength step. A zero step
// collapses the run of equal wavelengths into one sample. A negative step
// marks the start of the next detector: the tail of the previous detector
// and the head of the next one are interpolated onto the union of their
// wavelengths and combined with the selected aggregate.
//
// Passes are bounded and must each make progress, so malformed input fails
// with UNSTITCHABLE_OVERLAP instead of looping.
package stitch

import (
	"log/slog"
	"math"
	"slices"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/internal/curve"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
)

// Method selects how overlapping values are combined.
type Method string

const (
	MethodMean Method = "mean"
	MethodMax  Method = "max"
	MethodMin  Method = "min"
)

// ParseMethod validates an aggregate name. An empty name selects the default.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return Method(defaults.StitchMethod), nil
	case MethodMean, MethodMax, MethodMin:
		return Method(s), nil
	default:
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "unknown stitch method",
			map[string]any{"method": s})
	}
}

// Stitch returns a copy of m with every overlap resolved.
func Stitch(m *measurement.Measurement, method Method) (*measurement.Measurement, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid measurement", err)
	}
	for i, w := range m.Wavelengths {
		if math.IsNaN(w) {
			return nil, errors.NewWithContext(errors.ErrCodeUnstitchableOverlap, "wavelength is NaN",
				map[string]any{"index": i})
		}
	}

	w := slices.Clone(m.Wavelengths)
	v := slices.Clone(m.Values)

	maxPasses := defaults.StitchPassFactor*len(w) + 1
	prevLen, prevBad := -1, -1
	for pass := 0; ; pass++ {
		i := firstNonPositiveStep(w)
		if i < 0 {
			break
		}
		if pass >= maxPasses {
			return nil, errors.NewWithContext(errors.ErrCodeUnstitchableOverlap, "stitching did not converge",
				map[string]any{"passes": pass})
		}
		if pass > 0 && len(w) >= prevLen && i <= prevBad {
			return nil, errors.NewWithContext(errors.ErrCodeUnstitchableOverlap, "stitch pass made no progress",
				map[string]any{"pass": pass, "index": i})
		}
		prevLen, prevBad = len(w), i

		var err error
		if w[i] == w[i-1] {
			w, v = collapseDuplicates(w, v, i, method)
		} else {
			w, v, err = mergeOverlap(w, v, i, method)
			if err != nil {
				return nil, err
			}
		}
		slog.Debug("stitch pass", "pass", pass, "index", i, "samples", len(w))
	}

	return &measurement.Measurement{Wavelengths: w, Values: v}, nil
}

func firstNonPositiveStep(w []float64) int {
	for i := 1; i < len(w); i++ {
		if w[i]-w[i-1] <= 0 {
			return i
		}
	}
	return -1
}

// collapseDuplicates replaces the run of wavelengths equal to w[i-1]
// starting at i-1 with a single aggregated sample.
func collapseDuplicates(w, v []float64, i int, method Method) ([]float64, []float64) {
	k := i
	for k+1 < len(w) && w[k+1] == w[i-1] {
		k++
	}
	agg := aggregate(method, v[i-1:k+1])

	nw := append(slices.Clone(w[:i]), w[k+1:]...)
	nv := append(append(slices.Clone(v[:i-1]), agg), v[k+1:]...)
	return nw, nv
}

// mergeOverlap resolves the negative step between i-1 and i.
func mergeOverlap(w, v []float64, i int, method Method) ([]float64, []float64, error) {
	lo, hi := w[i], w[i-1]

	// left region: samples before the jump above the new detector's start
	l := i - 1
	for l > 0 && w[l-1] > lo {
		l--
	}
	if l > 0 && w[l-1] == lo {
		l--
	}

	// right region: the increasing run from the jump below the old detector's end
	r := i
	for r+1 < len(w) && w[r+1] > w[r] && w[r+1] < hi {
		r++
	}
	if r+1 < len(w) && w[r+1] > w[r] && w[r+1] == hi {
		r++
	}

	left, err := curve.Fit(curve.Linear, w[l:i], v[l:i])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeUnstitchableOverlap, "left overlap region", err)
	}
	right, err := curve.Fit(curve.Linear, w[i:r+1], v[i:r+1])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeUnstitchableOverlap, "right overlap region", err)
	}

	union := slices.Concat(w[l:i], w[i:r+1])
	slices.Sort(union)
	union = slices.Compact(union)

	a := make([]float64, len(union))
	b := make([]float64, len(union))
	for j, x := range union {
		a[j] = left.Predict(x)
		b[j] = right.Predict(x)
	}
	merged := combine(method, a, b)

	nw := slices.Concat(w[:l], union, w[r+1:])
	nv := slices.Concat(v[:l], merged, v[r+1:])
	return nw, nv, nil
}

// combine aggregates two equally long series element-wise.
func combine(method Method, a, b []float64) []float64 {
	out := make([]float64, len(a))
	switch method {
	case MethodMean:
		copy(out, a)
		vecmath.AddBlockInPlace(out, b)
		vecmath.ScaleBlock(out, out, 0.5)
	case MethodMin:
		for j := range out {
			out[j] = math.Min(a[j], b[j])
		}
	default:
		for j := range out {
			out[j] = math.Max(a[j], b[j])
		}
	}
	return out
}

func aggregate(method Method, vs []float64) float64 {
	switch method {
	case MethodMean:
		return floats.Sum(vs) / float64(len(vs))
	case MethodMin:
		return floats.Min(vs)
	default:
		return floats.Max(vs)
	}
}
