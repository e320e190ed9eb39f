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

package asd

import (
	"fmt"
	"math"
	"strings"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

// InstrumentType is the instrument_type recorded for every binary record.
const InstrumentType = "ASD"

// Metadata keys specific to the binary format.
const (
	KeyGPSLatitude    = "gps_latitude"
	KeyGPSLongitude   = "gps_longitude"
	KeyGPSAltitude    = "gps_altitude"
	KeyGPSTrueHeading = "gps_true_heading"
	KeyGPSSpeed       = "gps_speed"
	KeyGPSSatellites  = "gps_satellites"
)

// targetColumns maps each spectrum type to the column holding the target channels.
var targetColumns = map[SpectrumType]measurement.Column{
	TypeRaw:         measurement.ColumnTargetCount,
	TypeReflectance: measurement.ColumnTargetReflect,
	TypeRadiance:    measurement.ColumnTargetRadiance,
	TypeIrradiance:  measurement.ColumnTargetIrradiance,
}

// Decode parses a binary record. Either result may be nil when not requested.
func Decode(path string, data []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, nil, errors.WrapWithContext(errors.ErrCodeCorruptFile, "invalid binary header", err,
			map[string]any{"file": path, "size": len(data)})
	}

	var table *measurement.Table
	if wantData {
		table, err = decodeChannels(path, h, data)
		if err != nil {
			return nil, nil, err
		}
	}

	var md *metadata.Metadata
	if wantMetadata {
		md = headerMetadata(path, h)
	}
	return table, md, nil
}

func decodeChannels(path string, h *Header, data []byte) (*measurement.Table, error) {
	column, ok := targetColumns[h.SpectrumType]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeCorruptFile,
			fmt.Sprintf("spectrum type %s carries no data column", h.SpectrumType),
			map[string]any{"file": path})
	}

	size := h.BlockSize()
	target, err := readBlock(data, offsetData, int(h.Channels), h.DataFormat)
	if err != nil {
		return nil, corrupt(path, "target block", err)
	}

	table := measurement.NewTable(h.Wavelengths())
	if err := table.Set(column, target); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to store target column", err)
	}

	if !h.HasReference() {
		return table, nil
	}

	start := offsetData + size
	if start+refDescOffset > len(data) {
		return nil, corrupt(path, "reference header", fmt.Errorf("offset %d beyond %d bytes", start+refDescOffset, len(data)))
	}
	descLen := int(order.Uint16(data[start+refDescLengthOffset:]))
	reference, err := readBlock(data, start+refDescOffset+descLen, int(h.Channels), h.DataFormat)
	if err != nil {
		return nil, corrupt(path, "reference block", err)
	}
	if err := table.Set(measurement.ReferenceOf(column), reference); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to store reference column", err)
	}
	return table, nil
}

// readBlock decodes n channel values starting at off.
func readBlock(data []byte, off, n int, format DataFormat) ([]float64, error) {
	elem := format.ElementSize()
	end := off + n*elem
	if off < 0 || end > len(data) {
		return nil, fmt.Errorf("block [%d:%d] beyond %d bytes", off, end, len(data))
	}
	out := make([]float64, n)
	for i := range out {
		p := off + i*elem
		if elem == 8 {
			out[i] = math.Float64frombits(order.Uint64(data[p:]))
		} else {
			out[i] = float64(math.Float32frombits(order.Uint32(data[p:])))
		}
	}
	return out, nil
}

func headerMetadata(path string, h *Header) *metadata.Metadata {
	sats := make([]string, len(h.GPS.Satellites))
	for i, s := range h.GPS.Satellites {
		sats[i] = fmt.Sprintf("%d", s)
	}

	return metadata.NewBuilder().
		SetString(metadata.KeyFile, path).
		SetString(metadata.KeyInstrumentType, InstrumentType).
		SetInt(metadata.KeyIntegrationTime, int64(h.IntegrationTime)).
		SetString(metadata.KeyMeasurementType, h.SpectrumType.String()).
		SetInt(metadata.KeyGPSTimeTarget, int64(h.GPS.Timestamp)).
		SetNull(metadata.KeyGPSTimeReference).
		SetPair(metadata.KeyWavelengthRange, float64(h.WaveStart), h.WaveStop()).
		SetString(metadata.KeyVersion, h.Version).
		SetPair(metadata.KeySplices, float64(h.Splices[0]), float64(h.Splices[1])).
		SetFloat(metadata.KeyWavelengthStep, float64(h.WaveStep)).
		SetFloat(KeyGPSLatitude, h.GPS.Latitude).
		SetFloat(KeyGPSLongitude, h.GPS.Longitude).
		SetFloat(KeyGPSAltitude, h.GPS.Altitude).
		SetFloat(KeyGPSTrueHeading, h.GPS.TrueHeading).
		SetFloat(KeyGPSSpeed, h.GPS.Speed).
		SetString(KeyGPSSatellites, strings.Join(sats, ",")).
		Build()
}

func corrupt(path, what string, cause error) error {
	return errors.WrapWithContext(errors.ErrCodeCorruptFile, "truncated "+what, cause,
		map[string]any{"file": path})
}
