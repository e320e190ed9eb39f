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
	"slices"
)

// Column names a physical quantity recorded by an instrument.
type Column string

// String returns the column name.
func (c Column) String() string {
	return string(c)
}

const (
	ColumnTargetCount      Column = "tgt_count"
	ColumnRefCount         Column = "ref_count"
	ColumnTargetDark       Column = "tgt_count_dark"
	ColumnRefDark          Column = "ref_count_dark"
	ColumnTargetRadiance   Column = "tgt_radiance"
	ColumnRefRadiance      Column = "ref_radiance"
	ColumnTargetIrradiance Column = "tgt_irradiance"
	ColumnRefIrradiance    Column = "ref_irradiance"
	ColumnTargetReflect    Column = "tgt_reflect"
	ColumnRefReflect       Column = "ref_reflect"
	ColumnPctReflect       Column = "pct_reflect"
	ColumnDecReflect       Column = "dec_reflect"
	ColumnChannel          Column = "channel_num"
)

// ReferenceOf returns the reference counterpart of a target column, e.g.
// tgt_radiance becomes ref_radiance. Other columns are returned unchanged.
func ReferenceOf(c Column) Column {
	switch c {
	case ColumnTargetCount:
		return ColumnRefCount
	case ColumnTargetDark:
		return ColumnRefDark
	case ColumnTargetRadiance:
		return ColumnRefRadiance
	case ColumnTargetIrradiance:
		return ColumnRefIrradiance
	case ColumnTargetReflect:
		return ColumnRefReflect
	default:
		return c
	}
}

// Table holds one wavelength index and any number of named value columns.
type Table struct {
	wavelengths []float64
	order       []Column
	columns     map[Column][]float64
}

// NewTable creates an empty table over the given wavelengths. The slice is copied.
func NewTable(wavelengths []float64) *Table {
	return &Table{
		wavelengths: slices.Clone(wavelengths),
		columns:     make(map[Column][]float64),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.wavelengths)
}

// Wavelengths returns a copy of the wavelength index.
func (t *Table) Wavelengths() []float64 {
	return slices.Clone(t.wavelengths)
}

// Set adds or replaces a column. Values must have one entry per row.
func (t *Table) Set(c Column, values []float64) error {
	if len(values) != len(t.wavelengths) {
		return fmt.Errorf("column %s has %d values, table has %d rows", c, len(values), len(t.wavelengths))
	}
	if _, ok := t.columns[c]; !ok {
		t.order = append(t.order, c)
	}
	t.columns[c] = slices.Clone(values)
	return nil
}

// Column returns a copy of the named column.
func (t *Table) Column(c Column) ([]float64, bool) {
	v, ok := t.columns[c]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Has reports whether the table carries the column.
func (t *Table) Has(c Column) bool {
	_, ok := t.columns[c]
	return ok
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []Column {
	return slices.Clone(t.order)
}

// Measurement returns the named column as a Measurement over the table's wavelengths.
func (t *Table) Measurement(c Column) (*Measurement, error) {
	v, ok := t.columns[c]
	if !ok {
		return nil, fmt.Errorf("column %s not present", c)
	}
	return New(t.wavelengths, v)
}
