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

// Package resample maps a measurement onto a regular wavelength grid.
//
// The input is split into monotonic runs wherever the wavelength decreases,
// so spectra from multi-detector instruments that have not been stitched
// are resampled detector by detector. Each run is interpolated onto the
// grid min, min+spacing, ... below max+1 of its rounded wavelengths; grid
// points outside the run are dropped rather than extrapolated.
package resample

import (
	"math"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/internal/curve"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
)

// Method selects the interpolant.
type Method = curve.Method

const (
	MethodLinear = curve.Linear
	MethodCubic  = curve.Cubic
)

// ParseMethod validates a method name. An empty name selects linear.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodLinear:
		return MethodLinear, nil
	case MethodCubic:
		return MethodCubic, nil
	default:
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "unknown interpolation method",
			map[string]any{"method": s})
	}
}

// Resample interpolates m onto a regular grid with the given spacing.
func Resample(m *measurement.Measurement, spacing float64, method Method) (*measurement.Measurement, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "spacing must be positive",
			map[string]any{"spacing": spacing})
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid measurement", err)
	}

	out := &measurement.Measurement{
		Wavelengths: make([]float64, 0, m.Len()),
		Values:      make([]float64, 0, m.Len()),
	}
	ws, vs := finiteKnots(m.Wavelengths, m.Values)
	for _, r := range Runs(ws) {
		if err := resampleRun(out, ws[r.Start:r.End], vs[r.Start:r.End], spacing, method); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Run is a half-open index range [Start, End) of non-decreasing wavelengths.
type Run struct {
	Start, End int
}

// Runs partitions wavelengths into maximal non-decreasing runs. A boundary
// falls between i and i+1 whenever w[i+1] < w[i].
func Runs(w []float64) []Run {
	if len(w) == 0 {
		return nil
	}
	var runs []Run
	start := 0
	for i := 1; i < len(w); i++ {
		if w[i] < w[i-1] {
			runs = append(runs, Run{Start: start, End: i})
			start = i
		}
	}
	return append(runs, Run{Start: start, End: len(w)})
}

// Grid returns lo, lo+spacing, ... for every point strictly below hi+1.
func Grid(lo, hi, spacing float64) []float64 {
	n := int(math.Ceil((hi + 1 - lo) / spacing))
	if n <= 0 {
		return nil
	}
	g := make([]float64, n)
	for k := range g {
		g[k] = lo + float64(k)*spacing
	}
	return g
}

func resampleRun(out *measurement.Measurement, ws, vs []float64, spacing float64, method Method) error {
	xs, ys := curve.Collapse(ws, vs)

	lo, hi := xs[0], xs[len(xs)-1]
	grid := Grid(math.RoundToEven(lo), math.RoundToEven(hi), spacing)

	c, err := curve.Fit(method, xs, ys)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to fit run", err)
	}

	for _, g := range grid {
		if g < lo || g > hi {
			continue
		}
		v := c.Predict(g)
		if math.IsNaN(v) {
			continue
		}
		out.Wavelengths = append(out.Wavelengths, g)
		out.Values = append(out.Values, v)
	}
	return nil
}

// finiteKnots drops samples whose wavelength or value is NaN.
func finiteKnots(ws, vs []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(ws))
	ys := make([]float64, 0, len(vs))
	for i := range ws {
		if math.IsNaN(ws[i]) || math.IsNaN(vs[i]) {
			continue
		}
		xs = append(xs, ws[i])
		ys = append(ys, vs[i])
	}
	return xs, ys
}
