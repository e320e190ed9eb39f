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

// Package curve fits one-dimensional interpolants over sorted knots.
package curve

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Method selects the interpolant family.
type Method string

const (
	Linear Method = "linear"
	Cubic  Method = "cubic"
)

// minCubicKnots is the smallest knot count a not-a-knot spline accepts.
const minCubicKnots = 4

// Curve evaluates a fitted interpolant. Outside the knot range the value at
// the nearest end knot is returned.
type Curve struct {
	xs, ys []float64
	pred   interp.Predictor
}

// Fit builds a curve through (xs[i], ys[i]). xs must be strictly increasing.
// Cubic fits with fewer than four knots, or that gonum rejects, fall back to
// linear.
func Fit(method Method, xs, ys []float64) (*Curve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("knot count %d does not match value count %d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("no knots to fit")
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("knots not strictly increasing at index %d", i)
		}
	}

	c := &Curve{xs: xs, ys: ys}
	if len(xs) == 1 {
		return c, nil
	}

	switch method {
	case Cubic:
		if len(xs) >= minCubicKnots {
			var nak interp.NotAKnotCubic
			if err := nak.Fit(xs, ys); err == nil {
				c.pred = &nak
				return c, nil
			}
		}
		fallthrough
	case Linear, "":
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("failed to fit linear interpolant: %w", err)
		}
		c.pred = &pl
		return c, nil
	default:
		return nil, fmt.Errorf("unknown interpolation method %q", method)
	}
}

// Predict returns the interpolated value at x.
func (c *Curve) Predict(x float64) float64 {
	n := len(c.xs)
	switch {
	case x <= c.xs[0]:
		return c.ys[0]
	case x >= c.xs[n-1]:
		return c.ys[n-1]
	default:
		return c.pred.Predict(x)
	}
}

// Min returns the first knot.
func (c *Curve) Min() float64 { return c.xs[0] }

// Max returns the last knot.
func (c *Curve) Max() float64 { return c.xs[len(c.xs)-1] }

// Collapse merges runs of equal consecutive xs into one knot carrying the
// mean of their ys. Input must be non-decreasing.
func Collapse(xs, ys []float64) ([]float64, []float64) {
	outX := make([]float64, 0, len(xs))
	outY := make([]float64, 0, len(ys))
	for i := 0; i < len(xs); {
		j := i + 1
		sum := ys[i]
		for j < len(xs) && xs[j] == xs[i] {
			sum += ys[j]
			j++
		}
		outX = append(outX, xs[i])
		outY = append(outY, sum/float64(j-i))
		i = j
	}
	return outX, outY
}
