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

// Package sig decodes the compact whitespace-table text format.
package sig

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader/preamble"
)

// DefaultInstrumentType is used when the header names no instrument.
const DefaultInstrumentType = "SIG"

// Metadata keys specific to the compact format.
const (
	KeyLatitudeReference  = "latitude_reference"
	KeyLatitudeTarget     = "latitude_target"
	KeyLongitudeReference = "longitude_reference"
	KeyLongitudeTarget    = "longitude_target"
	KeyErrorReference     = "error_reference"
	KeyErrorTarget        = "error_target"
)

// unitColumns maps the units header to the three value columns after the wavelength.
var unitColumns = map[string][3]measurement.Column{
	"Counts, Counts": {
		measurement.ColumnRefCount, measurement.ColumnTargetCount, measurement.ColumnPctReflect,
	},
	"Radiance, Radiance": {
		measurement.ColumnRefRadiance, measurement.ColumnTargetRadiance, measurement.ColumnPctReflect,
	},
	"Irradiance, Irradiance": {
		measurement.ColumnRefIrradiance, measurement.ColumnTargetIrradiance, measurement.ColumnPctReflect,
	},
}

var parser = preamble.NewParser(
	preamble.WithKVDelimiter("="),
	preamble.WithSentinel("data="),
)

// Decode parses a compact text record.
func Decode(path string, data []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error) {
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, nil, malformed(path, "failed to parse header", err)
	}

	var table *measurement.Table
	if wantData {
		if table, err = decodeTable(doc); err != nil {
			return nil, nil, malformed(path, "failed to parse data table", err)
		}
	}

	var md *metadata.Metadata
	if wantMetadata {
		md = decodeMetadata(path, doc, table)
	}
	return table, md, nil
}

func decodeTable(doc *preamble.Document) (*measurement.Table, error) {
	units, ok := doc.Get("units")
	if !ok {
		return nil, fmt.Errorf("units field missing")
	}
	cols, ok := unitColumns[units]
	if !ok {
		return nil, fmt.Errorf("unsupported units %q", units)
	}

	values, err := preamble.Columns(doc.Body, 1+len(cols), strings.Fields)
	if err != nil {
		return nil, err
	}

	table := measurement.NewTable(values[0])
	for i, c := range cols {
		v := values[i+1]
		if c == measurement.ColumnPctReflect {
			floats.Scale(0.01, v)
		}
		if err := table.Set(c, v); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func decodeMetadata(path string, doc *preamble.Document, table *measurement.Table) *metadata.Metadata {
	instrument, ok := doc.Get("instrument")
	if !ok || instrument == "" {
		instrument = DefaultInstrumentType
	}

	b := metadata.NewBuilder().
		SetString(metadata.KeyFile, path).
		SetString(metadata.KeyInstrumentType, instrument)

	if it, err := doc.Floats("integration", ","); err == nil && len(it) > 0 {
		b.SetFloat(metadata.KeyIntegrationTime, stat.Mean(it, nil))
	} else {
		b.SetNull(metadata.KeyIntegrationTime)
	}

	if units, ok := doc.Get("units"); ok && units != "" {
		first, _, _ := strings.Cut(units, ",")
		b.SetString(metadata.KeyMeasurementType, strings.TrimSpace(first))
	} else {
		b.SetNull(metadata.KeyMeasurementType)
	}

	if t, err := doc.Floats("gpstime", ","); err == nil && len(t) == 2 {
		b.SetFloat(metadata.KeyGPSTimeReference, t[0]).SetFloat(metadata.KeyGPSTimeTarget, t[1])
	} else {
		b.SetNull(metadata.KeyGPSTimeReference).SetNull(metadata.KeyGPSTimeTarget)
	}

	if table != nil && table.Len() > 0 {
		w := table.Wavelengths()
		b.SetPair(metadata.KeyWavelengthRange, floats.Min(w), floats.Max(w))
	} else {
		b.SetNull(metadata.KeyWavelengthRange)
	}

	ref, tgt := coordinatePair(doc, "latitude", 2, "S")
	b.Set(KeyLatitudeReference, ref).Set(KeyLatitudeTarget, tgt)
	ref, tgt = coordinatePair(doc, "longitude", 3, "W")
	b.Set(KeyLongitudeReference, ref).Set(KeyLongitudeTarget, tgt)

	if e, ok := doc.Get("error"); ok && e != "" {
		b.SetString(KeyErrorReference, e[:1]).SetString(KeyErrorTarget, e[len(e)-1:])
	} else {
		b.SetNull(KeyErrorReference).SetNull(KeyErrorTarget)
	}
	return b.Build()
}

// coordinatePair converts the "ref, tgt" form of a coordinate header.
func coordinatePair(doc *preamble.Document, field string, degreeDigits int, negative string) (metadata.Value, metadata.Value) {
	raw, ok := doc.Get(field)
	if !ok {
		return metadata.Null(), metadata.Null()
	}
	parts := strings.Split(strings.ReplaceAll(raw, " ", ""), ",")
	if len(parts) != 2 {
		return metadata.Null(), metadata.Null()
	}
	ref, errRef := ParseCoordinate(parts[0], degreeDigits, negative)
	tgt, errTgt := ParseCoordinate(parts[1], degreeDigits, negative)
	if errRef != nil || errTgt != nil {
		return metadata.Null(), metadata.Null()
	}
	return metadata.Float(ref), metadata.Float(tgt)
}

// ParseCoordinate converts a degrees-minutes value with a trailing hemisphere
// letter (DDMM.mmH or DDDMM.mmH) to signed decimal degrees.
func ParseCoordinate(s string, degreeDigits int, negative string) (float64, error) {
	if len(s) < degreeDigits+2 {
		return 0, fmt.Errorf("coordinate %q too short", s)
	}
	deg, err := strconv.ParseFloat(s[:degreeDigits], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q degrees: %w", s, err)
	}
	minutes, err := strconv.ParseFloat(s[degreeDigits:len(s)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q minutes: %w", s, err)
	}
	v := deg + minutes/60
	if strings.EqualFold(s[len(s)-1:], negative) {
		v = -v
	}
	return v, nil
}

func malformed(path, msg string, cause error) error {
	return errors.WrapWithContext(errors.ErrCodeMalformedRecord, msg, cause, map[string]any{"file": path})
}
