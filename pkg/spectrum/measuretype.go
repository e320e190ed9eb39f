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

package spectrum

import (
	"fmt"
	"log/slog"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
)

// MeasureType is the physical quantity a spectrum carries.
type MeasureType string

const (
	PctReflect MeasureType = "pct_reflect"
	Radiance   MeasureType = "radiance"
	Irradiance MeasureType = "irradiance"
	Count      MeasureType = "count"
	Reflect    MeasureType = "reflect"
	// Derived marks spectra computed in memory, such as aggregates and joins.
	Derived MeasureType = "derived"
)

// MeasureTypes lists every measure type in declaration order.
var MeasureTypes = []MeasureType{PctReflect, Radiance, Irradiance, Count, Reflect, Derived}

// String returns the measure type name.
func (m MeasureType) String() string {
	return string(m)
}

// ParseMeasureType converts a name to a MeasureType. Empty selects PctReflect.
func ParseMeasureType(s string) (MeasureType, error) {
	if s == "" {
		return PctReflect, nil
	}
	for _, m := range MeasureTypes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, fmt.Sprintf("unknown measure type %q", s),
		map[string]any{"valid": MeasureTypes})
}

// targetColumns selects the column read directly for each file measure type.
var targetColumns = map[MeasureType]measurement.Column{
	PctReflect: measurement.ColumnPctReflect,
	Radiance:   measurement.ColumnTargetRadiance,
	Irradiance: measurement.ColumnTargetIrradiance,
	Count:      measurement.ColumnTargetCount,
	Reflect:    measurement.ColumnTargetReflect,
}

// derivation is one way of computing percent reflectance from a table.
type derivation struct {
	name    string
	columns []measurement.Column
	compute func(cols [][]float64) []float64
}

func ratio(cols [][]float64) []float64 {
	return floats.DivTo(make([]float64, len(cols[0])), cols[0], cols[1])
}

// darkCorrected computes (tgt - tgt_dark) / (ref - ref_dark).
func darkCorrected(cols [][]float64) []float64 {
	n := len(cols[0])
	tgt := floats.SubTo(make([]float64, n), cols[0], cols[2])
	ref := floats.SubTo(make([]float64, n), cols[1], cols[3])
	return floats.DivTo(tgt, tgt, ref)
}

// derivations are tried in order; the first whose columns are all present wins.
var derivations = []derivation{
	{
		name: "dark-corrected counts",
		columns: []measurement.Column{
			measurement.ColumnTargetCount, measurement.ColumnRefCount,
			measurement.ColumnTargetDark, measurement.ColumnRefDark,
		},
		compute: darkCorrected,
	},
	{
		name:    "counts",
		columns: []measurement.Column{measurement.ColumnTargetCount, measurement.ColumnRefCount},
		compute: ratio,
	},
	{
		name:    "radiance",
		columns: []measurement.Column{measurement.ColumnTargetRadiance, measurement.ColumnRefRadiance},
		compute: ratio,
	},
	{
		name:    "reflect",
		columns: []measurement.Column{measurement.ColumnTargetReflect, measurement.ColumnRefReflect},
		compute: ratio,
	},
	{
		name:    "irradiance",
		columns: []measurement.Column{measurement.ColumnTargetIrradiance, measurement.ColumnRefIrradiance},
		compute: ratio,
	},
}

// Select extracts the series of the requested measure type from a decoded
// table. Percent reflectance is derived from target/reference pairs when the
// table does not carry it.
func Select(t *measurement.Table, mt MeasureType) (*measurement.Measurement, error) {
	col, ok := targetColumns[mt]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("measure type %q cannot be read from a file", mt), nil)
	}
	if t.Has(col) {
		return t.Measurement(col)
	}
	if mt != PctReflect {
		return nil, missingColumns(t, mt, []measurement.Column{col})
	}

	for _, d := range derivations {
		cols, ok := columns(t, d.columns)
		if !ok {
			continue
		}
		slog.Debug("derived percent reflectance", "from", d.name)
		return measurement.New(t.Wavelengths(), d.compute(cols))
	}

	var tried []measurement.Column
	for _, d := range derivations {
		tried = append(tried, d.columns[:2]...)
	}
	return nil, missingColumns(t, mt, tried)
}

func columns(t *measurement.Table, names []measurement.Column) ([][]float64, bool) {
	out := make([][]float64, len(names))
	for i, c := range names {
		v, ok := t.Column(c)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func missingColumns(t *measurement.Table, mt MeasureType, want []measurement.Column) error {
	return errors.NewWithContext(errors.ErrCodeMissingColumns,
		fmt.Sprintf("table cannot produce %s", mt),
		map[string]any{"have": t.Columns(), "want": want})
}
