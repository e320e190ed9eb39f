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
	"slices"
	"strconv"

	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// Document is the serializable form of a collection.
type Document struct {
	header.Header `json:",inline" yaml:",inline"`

	Name        string               `json:"name" yaml:"name"`
	MeasureType spectrum.MeasureType `json:"measureType" yaml:"measureType"`
	Flagged     []string             `json:"flagged,omitempty" yaml:"flagged,omitempty"`
	Spectra     []SpectrumDocument   `json:"spectra" yaml:"spectra"`
}

// SpectrumDocument is the serializable form of one member.
type SpectrumDocument struct {
	Name        string                   `json:"name" yaml:"name"`
	MeasureType spectrum.MeasureType     `json:"measureType" yaml:"measureType"`
	Flags       spectrum.Flags           `json:"flags" yaml:"flags"`
	Metadata    *metadata.Metadata       `json:"metadata" yaml:"metadata"`
	Measurement *measurement.Measurement `json:"measurement" yaml:"measurement"`
}

// Document returns a snapshot of the collection as a document of kind,
// stamped with version.
func (c *Collection) Document(kind header.Kind, version string) *Document {
	d := &Document{
		Name:        c.name,
		MeasureType: c.measureType,
		Flagged:     c.Flagged(),
		Spectra:     make([]SpectrumDocument, 0, c.Len()),
	}
	d.Init(kind, header.APIVersion, version)
	for _, s := range c.All() {
		d.Spectra = append(d.Spectra, SpectrumDocument{
			Name:        s.Name(),
			MeasureType: s.MeasureType(),
			Flags:       s.Flags(),
			Metadata:    s.Metadata().Clone(),
			Measurement: s.Measurement(),
		})
	}
	return d
}

// Table lays the document out with one row per wavelength and one column per
// spectrum. Wavelengths a spectrum lacks are left blank. It satisfies
// serializer.Tabular.
func (d *Document) Table() ([]string, [][]string) {
	cols := make([]string, 0, len(d.Spectra)+1)
	cols = append(cols, "wavelength")

	var union []float64
	columns := make([]map[float64]float64, len(d.Spectra))
	for i, s := range d.Spectra {
		cols = append(cols, s.Name)
		columns[i] = make(map[float64]float64, s.Measurement.Len())
		for j, w := range s.Measurement.Wavelengths {
			columns[i][w] = s.Measurement.Values[j]
			union = append(union, w)
		}
	}
	slices.Sort(union)
	union = slices.Compact(union)

	rows := make([][]string, 0, len(union))
	for _, w := range union {
		row := make([]string, 0, len(cols))
		row = append(row, formatFloat(w))
		for _, col := range columns {
			v, ok := col[w]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(v))
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
