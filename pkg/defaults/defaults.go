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

package defaults

import "time"

// Reader limits for instrument file ingestion.
const (
	// MaxFileSize is the largest instrument file, after decompression, that
	// the reader accepts.
	MaxFileSize = 64 << 20

	// MaxPreambleLines bounds the key/value preamble scanned before the
	// data sentinel of the text formats.
	MaxPreambleLines = 4096
)

// Operator defaults.
const (
	// InterpolateSpacing is the default resampling grid spacing in nanometers.
	InterpolateSpacing = 1.0

	// InterpolateMethod is the default resampling method.
	InterpolateMethod = "linear"

	// StitchMethod is the default per-wavelength aggregate in overlap regions.
	StitchMethod = "max"

	// StitchPassFactor scales the stitch pass cap with the series length.
	StitchPassFactor = 4

	// JumpReference is the default reference band for jump correction.
	JumpReference = 1
)

// JumpSplices returns the default detector splice wavelengths in nanometers.
func JumpSplices() []float64 {
	return []float64{1000, 1800}
}

// Join defaults.
const (
	// JoinTimeKey is the metadata key matched by the proximal join.
	JoinTimeKey = "gps_time_target"

	// JoinDirection is the default proximal join search direction.
	JoinDirection = "nearest"
)

// CLI timeouts for command-line operations.
const (
	// CLIProcessTimeout bounds a single read, process or join invocation.
	CLIProcessTimeout = 10 * time.Minute
)

// Server timeouts for the HTTP service.
const (
	// ServerReadTimeout is the maximum duration for reading a request,
	// including an uploaded instrument file.
	ServerReadTimeout = 30 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 60 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// ServerReadyCheckTimeout bounds all readiness checks of one /ready call.
	ServerReadyCheckTimeout = 5 * time.Second

	// ServerHandlerTimeout bounds the processing of a single API request.
	ServerHandlerTimeout = 45 * time.Second
)

// Server request limits.
const (
	// ServerMaxUploadSize is the largest multipart request body the API accepts.
	ServerMaxUploadSize = 256 << 20

	// ServerMaxUploadFiles is the largest number of files in one request.
	ServerMaxUploadFiles = 500
)
