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

package pico

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/floats"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

// MeasurementType is the measurement_type of every record; the instrument
// always stores raw counts.
const MeasurementType = "Counts"

const (
	directionUpwelling   = "upwelling"
	directionDownwelling = "downwelling"

	firstLightSuffix = "0000.pico.light"
	firstDarkSuffix  = "0000.pico.dark"
)

// File is the JSON container.
type File struct {
	Spectra []Record `json:"Spectra"`
}

// Record is one acquisition of one spectrometer.
type Record struct {
	Metadata RecordMetadata `json:"Metadata"`
	Pixels   []float64      `json:"Pixels"`

	GPS      *GPSFix `json:"gps,omitempty"`
	GPSStart *GPSFix `json:"GPS start,omitempty"`
	GPSUpper *GPSFix `json:"GPS,omitempty"`
}

// RecordMetadata carries the per-acquisition settings.
type RecordMetadata struct {
	Name                              string    `json:"name"`
	Direction                         string    `json:"Direction"`
	Dark                              bool      `json:"Dark"`
	WavelengthCalibrationCoefficients []float64 `json:"WavelengthCalibrationCoefficients"`
	IntegrationTime                   float64   `json:"IntegrationTime"`
}

// GPSFix is a position fix attached to a record.
type GPSFix struct {
	Time any `json:"time"`
}

// fix returns the first GPS object present on the record.
func (r *Record) fix() *GPSFix {
	for _, g := range []*GPSFix{r.GPS, r.GPSStart, r.GPSUpper} {
		if g != nil {
			return g
		}
	}
	return nil
}

// gpsTime returns the record's GPS time or null.
func (r *Record) gpsTime() metadata.Value {
	if r == nil {
		return metadata.Null()
	}
	g := r.fix()
	if g == nil {
		return metadata.Null()
	}
	return metadata.ToValue(g.Time)
}

// roles holds the four acquisitions of one measurement.
type roles struct {
	upLight, downLight, upDark, downDark *Record
}

func (r *roles) missing() []string {
	var out []string
	if r.upLight == nil {
		out = append(out, "upwelling light")
	}
	if r.downLight == nil {
		out = append(out, "downwelling light")
	}
	if r.upDark == nil {
		out = append(out, "upwelling dark")
	}
	if r.downDark == nil {
		out = append(out, "downwelling dark")
	}
	return out
}

// assign picks the four roles among records from the named spectrometer.
// A later record replaces an earlier one in the same role.
func assign(spectra []Record, spectrometer string) *roles {
	fold := cases.Fold()
	r := &roles{}
	for i := range spectra {
		rec := &spectra[i]
		if rec.Metadata.Name != spectrometer {
			continue
		}
		switch dir := fold.String(strings.TrimSpace(rec.Metadata.Direction)); {
		case dir == directionUpwelling && rec.Metadata.Dark:
			r.upDark = rec
		case dir == directionDownwelling && rec.Metadata.Dark:
			r.downDark = rec
		case dir == directionUpwelling:
			r.upLight = rec
		case dir == directionDownwelling:
			r.downLight = rec
		}
	}
	return r
}

// Decode parses a container holding both light and dark records.
func Decode(path string, data []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error) {
	return DecodeWithDark(path, data, nil, wantData, wantMetadata)
}

// DecodeWithDark parses a light container and, when dark is non-nil, appends
// the records of its paired dark container before role assignment.
func DecodeWithDark(path string, data, dark []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, malformed(path, "failed to parse JSON container", err)
	}
	if dark != nil {
		var d File
		if err := json.Unmarshal(dark, &d); err != nil {
			return nil, nil, malformed(path, "failed to parse paired dark container", err)
		}
		f.Spectra = append(f.Spectra, d.Spectra...)
	}
	if len(f.Spectra) == 0 {
		return nil, nil, malformed(path, "container holds no spectra", nil)
	}

	spectrometer := f.Spectra[0].Metadata.Name
	r := assign(f.Spectra, spectrometer)

	var table *measurement.Table
	if wantData {
		var err error
		if table, err = buildTable(r); err != nil {
			return nil, nil, malformed(path, "incomplete measurement", err)
		}
	}

	var md *metadata.Metadata
	if wantMetadata {
		if r.downLight == nil {
			return nil, nil, malformed(path, "downwelling light record missing", nil)
		}
		b := metadata.NewBuilder().
			SetString(metadata.KeyFile, path).
			SetString(metadata.KeyInstrumentType, spectrometer).
			SetFloat(metadata.KeyIntegrationTime, r.downLight.Metadata.IntegrationTime).
			SetString(metadata.KeyMeasurementType, MeasurementType).
			Set(metadata.KeyGPSTimeTarget, r.upLight.gpsTime()).
			Set(metadata.KeyGPSTimeReference, r.downLight.gpsTime())
		if table != nil && table.Len() > 0 {
			w := table.Wavelengths()
			b.SetPair(metadata.KeyWavelengthRange, floats.Min(w), floats.Max(w))
		} else {
			b.SetNull(metadata.KeyWavelengthRange)
		}
		md = b.Build()
	}
	return table, md, nil
}

func buildTable(r *roles) (*measurement.Table, error) {
	if missing := r.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	n := len(r.downLight.Pixels)
	table := measurement.NewTable(Wavelengths(r.downLight.Metadata.WavelengthCalibrationCoefficients, n))
	for _, c := range []struct {
		col measurement.Column
		rec *Record
	}{
		{measurement.ColumnTargetCount, r.upLight},
		{measurement.ColumnRefCount, r.downLight},
		{measurement.ColumnTargetDark, r.upDark},
		{measurement.ColumnRefDark, r.downDark},
	} {
		if err := table.Set(c.col, c.rec.Pixels); err != nil {
			return nil, fmt.Errorf("%s: %w", c.col, err)
		}
	}
	return table, nil
}

// Wavelengths evaluates the calibration polynomial, coefficients in ascending
// order of power, at pixel indices 0..n-1.
func Wavelengths(coefficients []float64, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := float64(i)
		var v float64
		for k := len(coefficients) - 1; k >= 0; k-- {
			v = v*x + coefficients[k]
		}
		w[i] = v
	}
	return w
}

// FindDarkFile returns the dark container paired with a light container.
// The first light file of a sequence pairs with the dark file of the same
// stem; any other pairs with the nearest preceding candidate in sorted order.
func FindDarkFile(lightPath string, darkFiles []string) (string, error) {
	if stem, ok := strings.CutSuffix(lightPath, firstLightSuffix); ok {
		return stem + firstDarkSuffix, nil
	}

	candidates := slices.Clone(darkFiles)
	slices.Sort(candidates)
	i, _ := slices.BinarySearch(candidates, lightPath)
	if i == 0 {
		return "", errors.NewWithContext(errors.ErrCodeMissingPairedFile,
			"no dark file precedes the light file",
			map[string]any{"file": lightPath, "candidates": len(darkFiles)})
	}
	return candidates[i-1], nil
}

func malformed(path, msg string, cause error) error {
	if cause == nil {
		return errors.NewWithContext(errors.ErrCodeMalformedRecord, msg, map[string]any{"file": path})
	}
	return errors.WrapWithContext(errors.ErrCodeMalformedRecord, msg, cause, map[string]any{"file": path})
}
