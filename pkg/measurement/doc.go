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

// Package measurement provides the wavelength-indexed series that spectral
// operators consume and produce, and the multi-column Table returned by the
// instrument decoders.
//
// # Core Types
//
//   - Measurement: parallel wavelength and value slices of equal length.
//     Wavelengths are neither unique nor increasing until the series is
//     stitched.
//   - Table: a single wavelength index with named float Columns such as
//     tgt_count, ref_radiance or pct_reflect.
//
// Both types are values in the sense that operators never modify their
// input; they return a new Measurement.
//
//	m, err := measurement.New([]float64{350, 351, 352}, []float64{0.1, 0.2, 0.3})
//	if err != nil {
//	    return err
//	}
//	lo, hi := m.Range()
package measurement
