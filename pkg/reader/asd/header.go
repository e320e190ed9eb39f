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
	"encoding/binary"
	"fmt"
	"math"
)

// Fixed field offsets of the binary record.
const (
	offsetVersion         = 0
	offsetSpectrumType    = 186
	offsetWaveStart       = 191
	offsetWaveStep        = 195
	offsetDataFormat      = 199
	offsetChannels        = 204
	offsetGPS             = 344
	offsetIntegrationTime = 390
	offsetSplice1         = 444
	offsetSplice2         = 448
	offsetData            = 484

	// The GPS block runs to byte 399, so its timestamp (block bytes 43-46)
	// shares byte 390 with the low byte of the integration time.
	gpsBlockSize = 56

	// reference block layout relative to its start
	refDescLengthOffset = 18
	refDescOffset       = 20
)

// HeaderSize is the number of bytes preceding the channel data.
const HeaderSize = offsetData

var order = binary.LittleEndian

// SpectrumType is the stored quantity selector.
type SpectrumType uint8

const (
	TypeRaw SpectrumType = iota
	TypeReflectance
	TypeRadiance
	TypeNoUnits
	TypeIrradiance
	TypeQI
	TypeTransmittance
	TypeUnknown
	TypeAbsorbance
)

var spectrumTypeNames = [...]string{
	"RAW", "REF", "RAD", "NOUNITS", "IRRAD", "QI", "TRANS", "UNKNOWN", "ABS",
}

// String returns the short type name used in metadata.
func (t SpectrumType) String() string {
	if int(t) < len(spectrumTypeNames) {
		return spectrumTypeNames[t]
	}
	return fmt.Sprintf("TYPE(%d)", uint8(t))
}

// DataFormat selects the channel element encoding.
type DataFormat uint8

const (
	FormatFloat32 DataFormat = 0
	FormatFloat64 DataFormat = 2
)

// ElementSize returns the byte width of one channel value.
func (f DataFormat) ElementSize() int {
	if f == FormatFloat64 {
		return 8
	}
	return 4
}

// GPS is the telemetry block recorded with the spectrum.
type GPS struct {
	TrueHeading  float64
	Speed        float64
	Latitude     float64
	Longitude    float64
	Altitude     float64
	Flags        [2]int8
	HardwareMode byte
	Timestamp    int32
	Flags2       [2]int8
	Satellites   [5]uint8
}

// Header holds every fixed-offset field of the record.
type Header struct {
	Version         string
	SpectrumType    SpectrumType
	WaveStart       float32
	WaveStep        float32
	DataFormat      DataFormat
	Channels        int16
	GPS             GPS
	IntegrationTime uint32
	Splices         [2]float32
}

// HasReference reports whether this version stores a reference block.
func (h *Header) HasReference() bool {
	switch h.Version {
	case "as6", "as7", "as8":
		return true
	default:
		return false
	}
}

// BlockSize returns the byte size of one channel block.
func (h *Header) BlockSize() int {
	return int(h.Channels) * h.DataFormat.ElementSize()
}

// Wavelengths returns linspace(start, start+n*step-1, n).
func (h *Header) Wavelengths() []float64 {
	n := int(h.Channels)
	start := float64(h.WaveStart)
	stop := h.WaveStop()
	w := make([]float64, n)
	if n == 1 {
		w[0] = start
		return w
	}
	delta := (stop - start) / float64(n-1)
	for i := range w {
		w[i] = start + float64(i)*delta
	}
	w[n-1] = stop
	return w
}

// WaveStop returns the last wavelength of the record.
func (h *Header) WaveStop() float64 {
	return float64(h.WaveStart) + float64(h.Channels)*float64(h.WaveStep) - 1
}

// headerError describes a layout violation in the fixed header.
type headerError struct {
	field  string
	detail string
}

func (e *headerError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.detail)
}

// ParseHeader decodes the fixed header from the start of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, &headerError{field: "header", detail: fmt.Sprintf("need %d bytes, have %d", HeaderSize, len(data))}
	}

	h := &Header{Version: string(data[offsetVersion : offsetVersion+3])}
	switch h.Version {
	case "ASD", "asd", "as6", "as7", "as8":
	default:
		return nil, &headerError{field: "version", detail: fmt.Sprintf("unknown tag %q", h.Version)}
	}

	h.SpectrumType = SpectrumType(data[offsetSpectrumType])
	if int(h.SpectrumType) >= len(spectrumTypeNames) {
		return nil, &headerError{field: "spectrum type", detail: fmt.Sprintf("unknown index %d", h.SpectrumType)}
	}

	h.WaveStart = readFloat32(data, offsetWaveStart)
	h.WaveStep = readFloat32(data, offsetWaveStep)

	h.DataFormat = DataFormat(data[offsetDataFormat])
	if h.DataFormat != FormatFloat32 && h.DataFormat != FormatFloat64 {
		return nil, &headerError{field: "data format", detail: fmt.Sprintf("unknown format byte %d", h.DataFormat)}
	}

	h.Channels = int16(order.Uint16(data[offsetChannels:]))
	if h.Channels <= 0 {
		return nil, &headerError{field: "channels", detail: fmt.Sprintf("non-positive count %d", h.Channels)}
	}

	h.GPS = parseGPS(data[offsetGPS : offsetGPS+gpsBlockSize])
	h.IntegrationTime = order.Uint32(data[offsetIntegrationTime:])
	h.Splices = [2]float32{readFloat32(data, offsetSplice1), readFloat32(data, offsetSplice2)}
	return h, nil
}

// parseGPS decodes the packed "5d 2b c l 2b 5B 2c" block.
func parseGPS(b []byte) GPS {
	var g GPS
	g.TrueHeading = readFloat64(b, 0)
	g.Speed = readFloat64(b, 8)
	g.Latitude = readFloat64(b, 16)
	g.Longitude = readFloat64(b, 24)
	g.Altitude = readFloat64(b, 32)
	g.Flags = [2]int8{int8(b[40]), int8(b[41])}
	g.HardwareMode = b[42]
	g.Timestamp = int32(order.Uint32(b[43:]))
	g.Flags2 = [2]int8{int8(b[47]), int8(b[48])}
	copy(g.Satellites[:], b[49:54])
	return g
}

func readFloat32(b []byte, off int) float32 {
	return math.Float32frombits(order.Uint32(b[off:]))
}

func readFloat64(b []byte, off int) float64 {
	return math.Float64frombits(order.Uint64(b[off:]))
}
