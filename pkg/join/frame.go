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

package join

import (
	"fmt"
	"strings"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

// Direction selects which base rows are candidates for a rover row.
type Direction string

const (
	// Nearest takes the closer of the backward and forward candidates.
	// Equal distances resolve backward.
	Nearest Direction = "nearest"
	// Backward takes the last base row whose key does not exceed the rover key.
	Backward Direction = "backward"
	// Forward takes the first base row whose key is not below the rover key.
	Forward Direction = "forward"
)

// ParseDirection converts a name to a Direction. Empty selects the default.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "":
		return Direction(defaults.JoinDirection), nil
	case Nearest, Backward, Forward:
		return d, nil
	default:
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, fmt.Sprintf("unknown join direction %q", s),
			map[string]any{"valid": []Direction{Nearest, Backward, Forward}})
	}
}

// Row is one record of a frame: a named series aligned with the frame's
// wavelengths plus its metadata. NaN marks an absent value.
type Row struct {
	Name     string
	Metadata *metadata.Metadata
	Values   []float64
}

// Frame is a set of rows sharing one wavelength index.
type Frame struct {
	Wavelengths []float64
	Rows        []Row
}

// Validate checks that every row is aligned with the wavelength index.
func (f *Frame) Validate() error {
	for i, r := range f.Rows {
		if len(r.Values) != len(f.Wavelengths) {
			return fmt.Errorf("row %d (%s) has %d values, frame has %d wavelengths", i, r.Name, len(r.Values), len(f.Wavelengths))
		}
	}
	return nil
}

// Options configures a proximal join.
type Options struct {
	// TimeKey names the metadata entry rows are matched on.
	TimeKey string
	// Direction selects candidate base rows.
	Direction Direction
	// Fields lists the metadata keys retained from both sides; wildcards are
	// allowed. The time key is always retained.
	Fields []string
	// Tolerance, when positive, is the largest key distance accepted for a match.
	Tolerance float64
}

func (o Options) withDefaults() Options {
	if o.TimeKey == "" {
		o.TimeKey = defaults.JoinTimeKey
	}
	if o.Direction == "" {
		o.Direction = Direction(defaults.JoinDirection)
	}
	return o
}

// Match is one joined output row.
type Match struct {
	Rover    string
	Base     string
	Metadata *metadata.Metadata
	// Values holds rover/base for every wavelength of Result.Wavelengths.
	Values []float64
}

// Result is the output of a proximal join.
type Result struct {
	Wavelengths []float64
	Matches     []Match

	// DroppedBase and DroppedRover count rows without a usable time key.
	DroppedBase  int
	DroppedRover int
	// Unmatched lists rover rows without a candidate base row.
	Unmatched []string
}
