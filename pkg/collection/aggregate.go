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
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// statistic reduces the non-NaN values observed at one wavelength.
type statistic func(values []float64) float64

// Mean returns the per-wavelength mean named <collection>_mean.
func (c *Collection) Mean(ignoreFlagged bool) (*spectrum.Spectrum, error) {
	return c.aggregate("mean", ignoreFlagged, func(v []float64) float64 {
		return stat.Mean(v, nil)
	})
}

// Median returns the per-wavelength median. Even counts average the two
// middle values.
func (c *Collection) Median(ignoreFlagged bool) (*spectrum.Spectrum, error) {
	return c.aggregate("median", ignoreFlagged, median)
}

// Min returns the per-wavelength minimum.
func (c *Collection) Min(ignoreFlagged bool) (*spectrum.Spectrum, error) {
	return c.aggregate("min", ignoreFlagged, floats.Min)
}

// Max returns the per-wavelength maximum.
func (c *Collection) Max(ignoreFlagged bool) (*spectrum.Spectrum, error) {
	return c.aggregate("max", ignoreFlagged, floats.Max)
}

// Std returns the per-wavelength sample standard deviation. Wavelengths with
// a single observation are NaN.
func (c *Collection) Std(ignoreFlagged bool) (*spectrum.Spectrum, error) {
	return c.aggregate("std", ignoreFlagged, func(v []float64) float64 {
		if len(v) < 2 {
			return math.NaN()
		}
		return stat.StdDev(v, nil)
	})
}

func median(v []float64) float64 {
	s := slices.Clone(v)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// aggregate applies fn across members at every wavelength of the member
// union. Wavelengths no member observes are omitted.
func (c *Collection) aggregate(suffix string, ignoreFlagged bool, fn statistic) (*spectrum.Spectrum, error) {
	members := c.Spectra()
	if ignoreFlagged {
		members = slices.DeleteFunc(members, func(s *spectrum.Spectrum) bool {
			return c.IsFlagged(s.Name())
		})
	}
	if len(members) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "no spectra to aggregate",
			map[string]any{"collection": c.name, "statistic": suffix})
	}

	f, err := c.frame(members, nil)
	if err != nil {
		return nil, err
	}

	var w, v []float64
	column := make([]float64, 0, len(f.Rows))
	for i, x := range f.Wavelengths {
		column = column[:0]
		for _, row := range f.Rows {
			if !math.IsNaN(row.Values[i]) {
				column = append(column, row.Values[i])
			}
		}
		if len(column) == 0 {
			continue
		}
		w = append(w, x)
		v = append(v, fn(column))
	}

	m, err := measurement.New(w, v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to build aggregate", err)
	}
	return spectrum.New(c.name+"_"+suffix, m, c.measureType, nil)
}
