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

// Package sed decodes the verbose tab-separated text format.
package sed

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader/preamble"
)

// InstrumentType is the instrument_type recorded for every record.
const InstrumentType = "SED"

// KeyInstrument holds the free-form instrument description.
const KeyInstrument = "instrument"

const (
	headerWavelength = "Wvl"
	notAvailable     = "n/a"
)

// columnNames maps header labels to table columns.
var columnNames = map[string]measurement.Column{
	"Rad. (Target)":     measurement.ColumnTargetReflect,
	"Rad. (Ref.)":       measurement.ColumnRefReflect,
	"Tgt./Ref. %":       measurement.ColumnPctReflect,
	"Irrad. (Ref.)":     measurement.ColumnRefIrradiance,
	"Irrad. (Target)":   measurement.ColumnTargetIrradiance,
	"Norm. DN (Ref.)":   measurement.ColumnRefCount,
	"Norm. DN (Target)": measurement.ColumnTargetCount,
	"Reflect. %":        measurement.ColumnPctReflect,
	"Reflect. [1.0]":    measurement.ColumnDecReflect,
	"Chan.#":            measurement.ColumnChannel,
}

var geoFields = []struct{ key, field string }{
	{metadata.KeyLatitude, "Latitude"},
	{metadata.KeyLongitude, "Longitude"},
	{metadata.KeyAltitude, "Altitude"},
}

var parser = preamble.NewParser(
	preamble.WithKVDelimiter(": "),
	preamble.WithSentinel("Data:"),
)

// Decode parses a verbose text record.
func Decode(path string, data []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error) {
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, nil, malformed(path, "failed to parse header", err)
	}

	var table *measurement.Table
	if wantData {
		if table, err = decodeTable(doc.Body); err != nil {
			return nil, nil, malformed(path, "failed to parse data table", err)
		}
	}

	var md *metadata.Metadata
	if wantMetadata {
		if md, err = decodeMetadata(path, doc); err != nil {
			return nil, nil, malformed(path, "failed to parse metadata", err)
		}
	}
	return table, md, nil
}

func decodeTable(body []string) (*measurement.Table, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("missing column header")
	}

	labels := strings.Split(body[0], "\t")
	cols := make([]measurement.Column, len(labels))
	wavelengthAt := -1
	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == headerWavelength {
			wavelengthAt = i
			continue
		}
		c, ok := columnNames[label]
		if !ok {
			return nil, fmt.Errorf("unrecognized column %q", label)
		}
		cols[i] = c
	}
	if wavelengthAt < 0 {
		return nil, fmt.Errorf("column %q missing", headerWavelength)
	}

	values, err := preamble.Columns(body[1:], len(labels), func(s string) []string {
		return strings.Split(s, "\t")
	})
	if err != nil {
		return nil, err
	}

	table := measurement.NewTable(values[wavelengthAt])
	for i, c := range cols {
		if i == wavelengthAt {
			continue
		}
		v := values[i]
		if c == measurement.ColumnPctReflect {
			for j := range v {
				v[j] /= 100
			}
		}
		if err := table.Set(c, v); err != nil {
			return nil, err
		}
	}

	// decimal reflectance supersedes the percent column
	if dec, ok := table.Column(measurement.ColumnDecReflect); ok {
		if err := table.Set(measurement.ColumnPctReflect, dec); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func decodeMetadata(path string, doc *preamble.Document) (*metadata.Metadata, error) {
	wr, err := doc.Floats("Wavelength Range", ",")
	if err != nil {
		return nil, err
	}
	if len(wr) != 2 {
		return nil, fmt.Errorf("wavelength range needs 2 values, got %d", len(wr))
	}

	b := metadata.NewBuilder().
		SetString(metadata.KeyFile, path).
		SetString(metadata.KeyInstrumentType, InstrumentType)

	if it, err := doc.Floats("Integration", ","); err == nil && len(it) > 0 {
		b.SetFloat(metadata.KeyIntegrationTime, stat.Mean(it, nil))
	} else {
		b.SetNull(metadata.KeyIntegrationTime)
	}

	b.Set(metadata.KeyMeasurementType, optionalString(doc, "Measurement"))
	b.Set(metadata.KeyGPSTimeTarget, optionalString(doc, "GPS Time"))
	b.SetNull(metadata.KeyGPSTimeReference)
	b.SetPair(metadata.KeyWavelengthRange, wr[0], wr[1])

	for _, geo := range geoFields {
		if _, ok := doc.Get(geo.field); ok {
			b.Set(geo.key, optionalFloat(doc, geo.field))
		}
	}
	if v, ok := doc.Get("Instrument"); ok {
		b.SetString(KeyInstrument, v)
	}
	return b.Build(), nil
}

func optionalString(doc *preamble.Document, field string) metadata.Value {
	v, ok := doc.Get(field)
	if !ok || v == "" || strings.EqualFold(v, notAvailable) {
		return metadata.Null()
	}
	return metadata.Str(v)
}

func optionalFloat(doc *preamble.Document, field string) metadata.Value {
	v, ok := doc.Get(field)
	if !ok {
		return metadata.Null()
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return metadata.Null()
	}
	return metadata.Float(f)
}

func malformed(path, msg string, cause error) error {
	return errors.WrapWithContext(errors.ErrCodeMalformedRecord, msg, cause, map[string]any{"file": path})
}
