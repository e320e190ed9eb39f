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

package stitch

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
)

func series(t *testing.T, w, v []float64) *measurement.Measurement {
	t.Helper()
	m, err := measurement.New(w, v)
	require.NoError(t, err)
	return m
}

func TestStitchDuplicateWavelength(t *testing.T) {
	m := measurement.FromSamples(
		measurement.Sample{Wavelength: 1, Value: 100},
		measurement.Sample{Wavelength: 2, Value: 200},
		measurement.Sample{Wavelength: 3, Value: 300},
		measurement.Sample{Wavelength: 3, Value: 400},
		measurement.Sample{Wavelength: 4, Value: 500},
	)

	got, err := Stitch(m, MethodMean)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got.Wavelengths)
	assert.Equal(t, []float64{100, 200, 350, 500}, got.Values)
}

func TestStitchAlignedOverlap(t *testing.T) {
	w := []float64{1, 2, 3, 4, 5, 3, 4, 5, 6, 7, 8}
	v := []float64{10, 10, 10, 10, 10, 20, 20, 20, 20, 20, 20}

	tests := []struct {
		method Method
		want   []float64
	}{
		{MethodMean, []float64{10, 10, 15, 15, 15, 20, 20, 20}},
		{MethodMax, []float64{10, 10, 20, 20, 20, 20, 20, 20}},
		{MethodMin, []float64{10, 10, 10, 10, 10, 20, 20, 20}},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			got, err := Stitch(series(t, w, v), tt.method)
			require.NoError(t, err)
			assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, got.Wavelengths)
			assert.Equal(t, tt.want, got.Values)
		})
	}
}

func TestStitchUnalignedOverlap(t *testing.T) {
	m := series(t,
		[]float64{1, 2, 3, 4, 2.5, 3.5, 5},
		[]float64{1, 2, 3, 4, 10, 10, 10},
	)

	got, err := Stitch(m, MethodMean)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2.5, 3, 3.5, 4, 5}, got.Wavelengths)
	// the left tail is held at its edge value 3 below wavelength 3
	assert.InDeltaSlice(t, []float64{1, 2, 6.5, 6.5, 6.75, 7, 10}, got.Values, 1e-12)
}

func TestStitchThreeDetectors(t *testing.T) {
	m := series(t,
		[]float64{1, 2, 3, 4, 3, 4, 5, 6, 5, 6, 7},
		[]float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3},
	)

	got, err := Stitch(m, MethodMax)
	require.NoError(t, err)
	assert.True(t, got.IsStrictlyIncreasing())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7}, got.Wavelengths)
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3, 3}, got.Values)
}

func TestStitchIncreasingIsCopy(t *testing.T) {
	m := series(t, []float64{1, 2, 3}, []float64{4, 5, 6})
	got, err := Stitch(m, MethodMax)
	require.NoError(t, err)
	assert.True(t, m.Equal(got, 0))

	got.Values[0] = -1
	assert.Equal(t, 4.0, m.Values[0], "input must not share storage with output")
}

func TestStitchIdempotent(t *testing.T) {
	m := series(t,
		[]float64{400, 500, 600, 700, 650, 750, 850, 800, 900},
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	)
	once, err := Stitch(m, MethodMean)
	require.NoError(t, err)
	twice, err := Stitch(once, MethodMean)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice, 0))
}

func TestStitchRandomSeriesConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 200; n++ {
		size := 2 + rng.IntN(40)
		w := make([]float64, size)
		v := make([]float64, size)
		for i := range w {
			w[i] = math.Round(rng.Float64()*40) / 2
			v[i] = rng.Float64()
		}

		got, err := Stitch(series(t, w, v), MethodMean)
		require.NoError(t, err, "input %v", w)
		require.True(t, got.IsStrictlyIncreasing(), "output %v from %v", got.Wavelengths, w)

		again, err := Stitch(got, MethodMean)
		require.NoError(t, err)
		require.True(t, got.Equal(again, 0))
	}
}

func TestStitchErrors(t *testing.T) {
	_, err := Stitch(series(t, []float64{1, math.NaN(), 3}, []float64{1, 2, 3}), MethodMean)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnstitchableOverlap), "got %v", err)

	_, err = Stitch(series(t, []float64{1, 2}, []float64{1, 2}), "median")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest), "got %v", err)

	_, err = Stitch(&measurement.Measurement{Wavelengths: []float64{1}}, MethodMean)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest), "got %v", err)
}

func TestStitchEmpty(t *testing.T) {
	got, err := Stitch(&measurement.Measurement{}, MethodMean)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodMax, m)

	m, err = ParseMethod("min")
	require.NoError(t, err)
	assert.Equal(t, MethodMin, m)

	_, err = ParseMethod("first")
	assert.Error(t, err)
}
