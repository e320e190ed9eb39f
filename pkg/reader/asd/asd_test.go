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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

type record struct {
	version   string
	specType  SpectrumType
	start     float32
	step      float32
	format    DataFormat
	target    []float64
	reference []float64
	desc      string
	timestamp int32
	latitude  float64
	itime     uint32
	splices   [2]float32
}

func (r record) bytes() []byte {
	le := binary.LittleEndian
	n := len(r.target)
	elem := r.format.ElementSize()

	buf := make([]byte, HeaderSize, HeaderSize+2*n*elem+refDescOffset+len(r.desc))
	copy(buf[offsetVersion:], r.version)
	buf[offsetSpectrumType] = byte(r.specType)
	le.PutUint32(buf[offsetWaveStart:], math.Float32bits(r.start))
	le.PutUint32(buf[offsetWaveStep:], math.Float32bits(r.step))
	buf[offsetDataFormat] = byte(r.format)
	le.PutUint16(buf[offsetChannels:], uint16(n))
	le.PutUint64(buf[offsetGPS+16:], math.Float64bits(r.latitude))
	le.PutUint32(buf[offsetGPS+43:], uint32(r.timestamp))
	le.PutUint32(buf[offsetIntegrationTime:], r.itime)
	le.PutUint32(buf[offsetSplice1:], math.Float32bits(r.splices[0]))
	le.PutUint32(buf[offsetSplice2:], math.Float32bits(r.splices[1]))

	buf = appendBlock(buf, r.target, r.format)
	if r.reference != nil {
		ref := make([]byte, refDescOffset)
		le.PutUint16(ref[refDescLengthOffset:], uint16(len(r.desc)))
		buf = append(buf, ref...)
		buf = append(buf, r.desc...)
		buf = appendBlock(buf, r.reference, r.format)
	}
	return buf
}

func appendBlock(buf []byte, v []float64, format DataFormat) []byte {
	for _, x := range v {
		if format == FormatFloat64 {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(x)))
		}
	}
	return buf
}

func TestDecodeWithReference(t *testing.T) {
	rec := record{
		version:   "as7",
		specType:  TypeRaw,
		start:     350,
		step:      1,
		format:    FormatFloat64,
		target:    []float64{10, 20, 30, 40},
		reference: []float64{100, 200, 300, 400},
		desc:      "white panel",
		timestamp: 123456,
		latitude:  46.5,
		// low byte overlaps the timestamp's high byte, so it must be zero
		itime:   256,
		splices: [2]float32{1000, 1800},
	}

	table, md, err := Decode("leaf.asd", rec.bytes(), true, true)
	require.NoError(t, err)

	assert.Equal(t, []float64{350, 351, 352, 353}, table.Wavelengths())
	tgt, ok := table.Column(measurement.ColumnTargetCount)
	require.True(t, ok)
	assert.Equal(t, rec.target, tgt)
	ref, ok := table.Column(measurement.ColumnRefCount)
	require.True(t, ok)
	assert.Equal(t, rec.reference, ref)

	require.NoError(t, md.Validate())
	shouldEqualString(t, md, metadata.KeyInstrumentType, "ASD")
	shouldEqualString(t, md, metadata.KeyMeasurementType, "RAW")
	shouldEqualString(t, md, metadata.KeyVersion, "as7")

	itime, err := md.GetInt64(metadata.KeyIntegrationTime)
	require.NoError(t, err)
	assert.Equal(t, int64(256), itime)

	ts, err := md.GetInt64(metadata.KeyGPSTimeTarget)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), ts)
	assert.True(t, metadata.IsNull(md.Get(metadata.KeyGPSTimeReference)))

	wr, err := md.GetPair(metadata.KeyWavelengthRange)
	require.NoError(t, err)
	assert.Equal(t, metadata.Pair{A: 350, B: 353}, wr)

	sp, err := md.GetPair(metadata.KeySplices)
	require.NoError(t, err)
	assert.Equal(t, metadata.Pair{A: 1000, B: 1800}, sp)

	lat, err := md.GetFloat64(KeyGPSLatitude)
	require.NoError(t, err)
	assert.Equal(t, 46.5, lat)
}

func shouldEqualString(t *testing.T, md *metadata.Metadata, key, want string) {
	t.Helper()
	got, err := md.GetString(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeFloat32WithoutReference(t *testing.T) {
	rec := record{
		version:  "asd",
		specType: TypeReflectance,
		start:    400,
		step:     2,
		format:   FormatFloat32,
		target:   []float64{0.25, 0.5, 0.75},
	}

	table, md, err := Decode("old.asd", rec.bytes(), true, false)
	require.NoError(t, err)
	assert.Nil(t, md)
	// stop = start + n*step - 1, so the grid is not the nominal step
	assert.Equal(t, []float64{400, 402.5, 405}, table.Wavelengths())
	assert.Equal(t, []measurement.Column{measurement.ColumnTargetReflect}, table.Columns())
	v, _ := table.Column(measurement.ColumnTargetReflect)
	assert.Equal(t, rec.target, v)
}

func TestDecodeMetadataOnlySkipsChannels(t *testing.T) {
	rec := record{version: "ASD", specType: TypeQI, start: 350, step: 1, target: []float64{1, 2}}

	table, md, err := Decode("qi.asd", rec.bytes(), false, true)
	require.NoError(t, err)
	assert.Nil(t, table)
	shouldEqualString(t, md, metadata.KeyMeasurementType, "QI")
}

func TestDecodeDeterministic(t *testing.T) {
	rec := record{version: "as6", specType: TypeRadiance, start: 350, step: 1,
		target: []float64{1, 2, 3}, reference: []float64{4, 5, 6}}
	data := rec.bytes()

	t1, m1, err := Decode("a.asd", data, true, true)
	require.NoError(t, err)
	t2, m2, err := Decode("a.asd", data, true, true)
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	j1, _ := m1.MarshalJSON()
	j2, _ := m2.MarshalJSON()
	assert.JSONEq(t, string(j1), string(j2))
}

func TestDecodeCorrupt(t *testing.T) {
	valid := record{version: "as7", specType: TypeRaw, start: 350, step: 1,
		target: []float64{1, 2, 3}, reference: []float64{4, 5, 6}}

	tests := []struct {
		name     string
		data     func() []byte
		wantData bool
	}{
		{
			name: "short header",
			data: func() []byte { return valid.bytes()[:100] },
		},
		{
			name: "unknown version",
			data: func() []byte {
				b := valid.bytes()
				copy(b, "xyz")
				return b
			},
		},
		{
			name: "unknown spectrum type",
			data: func() []byte {
				b := valid.bytes()
				b[offsetSpectrumType] = 42
				return b
			},
		},
		{
			name: "unknown data format",
			data: func() []byte {
				b := valid.bytes()
				b[offsetDataFormat] = 1
				return b
			},
		},
		{
			name: "zero channels",
			data: func() []byte {
				b := valid.bytes()
				binary.LittleEndian.PutUint16(b[offsetChannels:], 0)
				return b
			},
		},
		{
			name:     "truncated target block",
			wantData: true,
			data:     func() []byte { return valid.bytes()[:HeaderSize+4] },
		},
		{
			name:     "truncated reference block",
			wantData: true,
			data: func() []byte {
				b := valid.bytes()
				return b[:len(b)-1]
			},
		},
		{
			name:     "type without data column",
			wantData: true,
			data: func() []byte {
				b := valid.bytes()
				b[offsetSpectrumType] = byte(TypeNoUnits)
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode("bad.asd", tt.data(), tt.wantData, true)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeCorruptFile), "got %v", err)
		})
	}
}

func TestSpectrumTypeString(t *testing.T) {
	assert.Equal(t, "IRRAD", TypeIrradiance.String())
	assert.Equal(t, "TYPE(200)", SpectrumType(200).String())
}

func TestGPSTimestampSharesIntegrationTimeByte(t *testing.T) {
	rec := record{
		version:   "as7",
		specType:  TypeRaw,
		start:     350,
		step:      1,
		format:    FormatFloat64,
		target:    []float64{10, 20},
		reference: []float64{100, 200},
		timestamp: 123456,
		itime:     17,
	}

	_, md, err := Decode("leaf.asd", rec.bytes(), false, true)
	require.NoError(t, err)

	itime, err := md.GetInt64(metadata.KeyIntegrationTime)
	require.NoError(t, err)
	assert.Equal(t, int64(17), itime)

	// integration time is written last; its low byte becomes the
	// timestamp's high byte
	ts, err := md.GetInt64(metadata.KeyGPSTimeTarget)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1101E240), ts)
}
