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

package metadata

import "fmt"

// Keys produced by every instrument decoder.
const (
	KeyFile             = "file"
	KeyInstrumentType   = "instrument_type"
	KeyIntegrationTime  = "integration_time"
	KeyMeasurementType  = "measurement_type"
	KeyGPSTimeTarget    = "gps_time_target"
	KeyGPSTimeReference = "gps_time_reference"
	KeyWavelengthRange  = "wavelength_range"
)

// Optional keys shared by several decoders.
const (
	KeyChecksum       = "checksum"
	KeySplices        = "splices"
	KeyWavelengthStep = "wavelength_step"
	KeyVersion        = "version"
	KeyLatitude       = "latitude"
	KeyLongitude      = "longitude"
	KeyAltitude       = "altitude"
)

// RequiredKeys lists the keys every decoded record carries, in output order.
var RequiredKeys = []string{
	KeyFile,
	KeyInstrumentType,
	KeyIntegrationTime,
	KeyMeasurementType,
	KeyGPSTimeTarget,
	KeyGPSTimeReference,
	KeyWavelengthRange,
}

// Validate checks that every required key is present. Values may be null.
func (m *Metadata) Validate() error {
	for _, k := range RequiredKeys {
		if !m.Has(k) {
			return fmt.Errorf("required metadata key %q missing", k)
		}
	}
	return nil
}
