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

package reader

import (
	"path/filepath"
	"strings"

	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader/asd"
	"github.com/EnSpec/SpecDAL/pkg/reader/pico"
	"github.com/EnSpec/SpecDAL/pkg/reader/sed"
	"github.com/EnSpec/SpecDAL/pkg/reader/sig"
)

// Format identifies an instrument file family.
type Format string

const (
	FormatASD  Format = "asd"
	FormatSED  Format = "sed"
	FormatSIG  Format = "sig"
	FormatPICO Format = "pico"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// DecodeFunc decodes one instrument file held in memory.
type DecodeFunc func(path string, data []byte, wantData, wantMetadata bool) (*measurement.Table, *metadata.Metadata, error)

// decoders maps each format to its decoder.
var decoders = map[Format]DecodeFunc{
	FormatASD:  asd.Decode,
	FormatSED:  sed.Decode,
	FormatSIG:  sig.Decode,
	FormatPICO: pico.Decode,
}

var extensions = map[string]Format{
	".asd":   FormatASD,
	".sed":   FormatSED,
	".sig":   FormatSIG,
	".pico":  FormatPICO,
	".light": FormatPICO,
	".dark":  FormatPICO,
}

// SupportedExtensions returns the recognized file extensions.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	return out
}

// FormatOf returns the format selected by the file extension after any
// compression suffix is removed. Matching is case-insensitive.
func FormatOf(path string) (Format, bool) {
	name, _ := splitCompression(path)
	f, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// isPicoLight reports whether the path names a light-only container whose
// dark records live in a separate file.
func isPicoLight(path string) bool {
	name, _ := splitCompression(path)
	return strings.HasSuffix(strings.ToLower(name), ".pico.light")
}
