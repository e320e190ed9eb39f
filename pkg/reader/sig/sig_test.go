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

package sig

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

const sample = `/*** Spectra Vista SIG Data ***/
name= leaf_0001.sig
instrument= HI: 1234 (HR-1024i)
integration= 100, 200, 300
units= Counts, Counts
gpstime= 101.5, 202.5
latitude= 4630.0000N, 4630.0000S
longitude= 07215.0000W, 07215.0000E
error= 0, 1
data=
350.0  100  50  50.0
351.0  110  55  50.0
352.0  120  30  25.0
`

func TestDecode(t *testing.T) {
	table, md, err := Decode("leaf.sig", []byte(sample), true, true)
	require.NoError(t, err)

	assert.Equal(t, []float64{350, 351, 352}, table.Wavelengths())
	assert.Equal(t, []measurement.Column{
		measurement.ColumnRefCount,
		measurement.ColumnTargetCount,
		measurement.ColumnPctReflect,
	}, table.Columns())
	pct, _ := table.Column(measurement.ColumnPctReflect)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.25}, pct, 1e-12)

	require.NoError(t, md.Validate())

	inst, _ := md.GetString(metadata.KeyInstrumentType)
	assert.Equal(t, "HI: 1234 (HR-1024i)", inst)

	it, err := md.GetFloat64(metadata.KeyIntegrationTime)
	require.NoError(t, err)
	assert.Equal(t, 200.0, it)

	mt, _ := md.GetString(metadata.KeyMeasurementType)
	assert.Equal(t, "Counts", mt)

	ref, err := md.GetFloat64(metadata.KeyGPSTimeReference)
	require.NoError(t, err)
	tgt, err := md.GetFloat64(metadata.KeyGPSTimeTarget)
	require.NoError(t, err)
	assert.Equal(t, 101.5, ref)
	assert.Equal(t, 202.5, tgt)

	wr, err := md.GetPair(metadata.KeyWavelengthRange)
	require.NoError(t, err)
	assert.Equal(t, metadata.Pair{A: 350, B: 352}, wr)

	latRef, _ := md.GetFloat64(KeyLatitudeReference)
	latTgt, _ := md.GetFloat64(KeyLatitudeTarget)
	assert.InDelta(t, 46.5, latRef, 1e-12)
	assert.InDelta(t, -46.5, latTgt, 1e-12)

	lonRef, _ := md.GetFloat64(KeyLongitudeReference)
	lonTgt, _ := md.GetFloat64(KeyLongitudeTarget)
	assert.InDelta(t, -72.25, lonRef, 1e-12)
	assert.InDelta(t, 72.25, lonTgt, 1e-12)

	errRef, _ := md.GetString(KeyErrorReference)
	errTgt, _ := md.GetString(KeyErrorTarget)
	assert.Equal(t, "0", errRef)
	assert.Equal(t, "1", errTgt)
}

func TestDecodeRadianceUnits(t *testing.T) {
	input := "units= Radiance, Radiance\ndata=\n400 1.5 0.5 33.3\n"

	table, _, err := Decode("rad.sig", []byte(input), true, false)
	require.NoError(t, err)
	assert.True(t, table.Has(measurement.ColumnTargetRadiance))
	assert.True(t, table.Has(measurement.ColumnRefRadiance))
}

func TestDecodeMetadataDefaults(t *testing.T) {
	input := "gpstime= garbage\nlatitude= nope\ndata=\n"

	_, md, err := Decode("bare.sig", []byte(input), false, true)
	require.NoError(t, err)

	inst, _ := md.GetString(metadata.KeyInstrumentType)
	assert.Equal(t, DefaultInstrumentType, inst)

	for _, key := range []string{
		metadata.KeyIntegrationTime,
		metadata.KeyMeasurementType,
		metadata.KeyGPSTimeTarget,
		metadata.KeyGPSTimeReference,
		metadata.KeyWavelengthRange,
		KeyLatitudeReference,
		KeyLongitudeTarget,
		KeyErrorReference,
	} {
		assert.True(t, metadata.IsNull(md.Get(key)), key)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing units", input: "data=\n350 1 2 3\n"},
		{name: "unknown units", input: "units= Watts, Watts\ndata=\n350 1 2 3\n"},
		{name: "short row", input: "units= Counts, Counts\ndata=\n350 1 2\n"},
		{name: "no sentinel", input: "units= Counts, Counts\n350 1 2 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode("bad.sig", []byte(tt.input), true, true)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedRecord))
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in       string
		digits   int
		negative string
		want     float64
		wantErr  bool
	}{
		{in: "4630.0000N", digits: 2, negative: "S", want: 46.5},
		{in: "0130.0000S", digits: 2, negative: "S", want: -1.5},
		{in: "12006.0000W", digits: 3, negative: "W", want: -120.1},
		{in: "N", digits: 2, negative: "S", wantErr: true},
		{in: "ab30.0N", digits: 2, negative: "S", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoordinate(tt.in, tt.digits, tt.negative)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, math.Abs(got-tt.want), 1e-9)
		})
	}
}
