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
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/join"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// Frame aligns every member on the union of their wavelengths. Missing
// samples are NaN. Each row carries the member metadata reduced to fields;
// empty fields keeps all metadata. Members must have strictly increasing
// wavelengths.
func (c *Collection) Frame(fields []string) (*join.Frame, error) {
	return c.frame(c.Spectra(), fields)
}

func (c *Collection) frame(members []*spectrum.Spectrum, fields []string) (*join.Frame, error) {
	var union []float64
	for _, s := range members {
		m := s.Measurement()
		if !m.IsStrictlyIncreasing() {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("spectrum %q has overlapping wavelengths, try stitching", s.Name()),
				map[string]any{"collection": c.name})
		}
		union = append(union, m.Wavelengths...)
	}
	slices.Sort(union)
	union = slices.Compact(union)

	pos := make(map[float64]int, len(union))
	for i, w := range union {
		pos[w] = i
	}

	f := &join.Frame{Wavelengths: union, Rows: make([]join.Row, 0, len(members))}
	for _, s := range members {
		m := s.Measurement()
		values := make([]float64, len(union))
		for i := range values {
			values[i] = math.NaN()
		}
		for i, w := range m.Wavelengths {
			values[pos[w]] = m.Values[i]
		}
		md := s.Metadata().Clone()
		if len(fields) > 0 {
			md = md.FilterIn(fields)
		}
		f.Rows = append(f.Rows, join.Row{Name: s.Name(), Metadata: md, Values: values})
	}
	return f, nil
}

// FromFrame creates a collection with one spectrum per frame row. NaN
// samples are omitted from the member measurements.
func FromFrame(name string, f *join.Frame, mt spectrum.MeasureType, opts ...Option) (*Collection, error) {
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "misaligned frame", err)
	}
	c := New(name, append(slices.Clip(opts), WithMeasureType(mt))...)
	for _, row := range f.Rows {
		var w, v []float64
		for i, x := range row.Values {
			if math.IsNaN(x) {
				continue
			}
			w = append(w, f.Wavelengths[i])
			v = append(v, x)
		}
		m, err := measurement.New(w, v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to build measurement", err)
		}
		var md = row.Metadata
		if md != nil {
			md = md.Clone()
		}
		s, err := spectrum.New(row.Name, m, mt, md)
		if err != nil {
			return nil, err
		}
		if err := c.Append(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ProximalJoin matches every rover member to a base member by time key and
// returns a collection named after the rover holding one percent
// reflectance spectrum per match, along with the join result.
func ProximalJoin(base, rover *Collection, opts join.Options) (*Collection, *join.Result, error) {
	for _, side := range []*Collection{base, rover} {
		for name, s := range side.All() {
			if !s.Flags().Interpolated {
				slog.Warn("joining spectrum that has not been interpolated",
					slog.String("collection", side.name),
					slog.String("spectrum", name))
			}
		}
	}

	bf, err := base.Frame(nil)
	if err != nil {
		return nil, nil, err
	}
	rf, err := rover.Frame(nil)
	if err != nil {
		return nil, nil, err
	}

	res, err := join.ProximalJoin(bf, rf, opts)
	if err != nil {
		return nil, nil, err
	}

	out := rover.derive(rover.name)
	out.measureType = spectrum.PctReflect
	for _, match := range res.Matches {
		m, err := measurement.New(res.Wavelengths, match.Values)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, "failed to build joined measurement", err)
		}
		s, err := spectrum.New(match.Rover, m, spectrum.PctReflect, match.Metadata)
		if err != nil {
			return nil, nil, err
		}
		if err := out.Append(s); err != nil {
			return nil, nil, err
		}
	}
	return out, res, nil
}
