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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

func build(t *testing.T, w []float64, members map[string][]float64, order ...string) *collection.Collection {
	t.Helper()
	c := collection.New("plot")
	for _, name := range order {
		m, err := measurement.New(w, members[name])
		require.NoError(t, err)
		s, err := spectrum.New(name, m, spectrum.PctReflect, nil)
		require.NoError(t, err)
		require.NoError(t, c.Append(s))
	}
	return c
}

func TestParseReducer(t *testing.T) {
	tests := []struct {
		in      string
		want    Reducer
		wantErr bool
	}{
		{in: "", want: ReduceMean},
		{in: "MEDIAN", want: ReduceMedian},
		{in: "max", want: ReduceMax},
		{in: "mode", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReducer(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduce(t *testing.T) {
	v := []float64{4, 1, 3, 2}
	assert.Equal(t, 2.5, ReduceMean.reduce(v))
	assert.Equal(t, 2.5, ReduceMedian.reduce(v))
	assert.Equal(t, 1.0, ReduceMin.reduce(v))
	assert.Equal(t, 4.0, ReduceMax.reduce(v))
	assert.Equal(t, []float64{4, 1, 3, 2}, v)
}

func TestThreshold(t *testing.T) {
	c := build(t, []float64{400, 401}, map[string][]float64{
		"s1": {0.5, 0.5},
		"s2": {2, 2},
		"s3": {0.1, 0.9},
		"s4": {-0.5, 0.7},
	}, "s1", "s2", "s3", "s4")

	tests := []struct {
		name   string
		window Window
		reduce Reducer
		want   []string
	}{
		{"mean", Everything, ReduceMean, []string{"s2"}},
		{"min", Everything, ReduceMin, []string{"s2", "s4"}},
		{"max", Everything, ReduceMax, []string{"s2"}},
		{"first band", Window{Lo: 400, Hi: 400}, ReduceMean, []string{"s2", "s4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Threshold(c, tt.window, 0, 1, tt.reduce)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStdDev(t *testing.T) {
	c := build(t, []float64{400}, map[string][]float64{
		"a": {1}, "b": {1}, "c": {1}, "d": {1}, "e": {10},
	}, "a", "b", "c", "d", "e")

	got, err := StdDev(c, Everything, 1.5, ReduceMean)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, got)

	got, err = StdDev(c, Everything, 0.1, ReduceMean)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestWhite(t *testing.T) {
	c := build(t, []float64{400, 401, 402}, map[string][]float64{
		"panel": {1.0, 1.01, 0.99},
		"leaf":  {0.3, 0.4, 0.5},
		"noisy": {0.9, 1.1, 1.0},
	}, "leaf", "panel", "noisy")

	got, err := White(c, Everything)
	require.NoError(t, err)
	assert.Equal(t, []string{"panel"}, got)
}

func TestWindowErrors(t *testing.T) {
	c := build(t, []float64{400, 401}, map[string][]float64{"s1": {1, 1}}, "s1")

	_, err := Threshold(c, Window{Lo: 500, Hi: 400}, 0, 1, ReduceMean)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	_, err = White(c, Window{Lo: 700, Hi: 800})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestFlag(t *testing.T) {
	c := build(t, []float64{400}, map[string][]float64{"s1": {1}, "s2": {2}}, "s1", "s2")

	require.NoError(t, Flag(c, "threshold", []string{"s2"}))
	assert.Equal(t, []string{"s2"}, c.Flagged())

	err := Flag(c, "threshold", []string{"missing"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}
