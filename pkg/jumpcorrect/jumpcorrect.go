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

// Package jumpcorrect removes additive discontinuities at detector splice
// wavelengths.
//
// Samples are assigned to segments by the splice list: a sample belongs to
// the first segment whose splice wavelength it does not exceed, or to the
// last segment past every splice. Starting from the reference segment each
// neighbour is shifted so that its facing edge meets the already corrected
// segment exactly, walking right then left.
package jumpcorrect

import (
	"slices"
	"sort"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
)

// Segment returns the segment index of wavelength w for sorted splices.
func Segment(w float64, splices []float64) int {
	for i, s := range splices {
		if w <= s {
			return i
		}
	}
	return len(splices)
}

type band struct {
	idx []int
}

func (b band) first() int { return b.idx[0] }
func (b band) last() int  { return b.idx[len(b.idx)-1] }

// Correct returns a copy of m with every segment offset to join the
// reference segment continuously.
func Correct(m *measurement.Measurement, splices []float64, reference int) (*measurement.Measurement, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid measurement", err)
	}
	if !sort.Float64sAreSorted(splices) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "splices must be sorted",
			map[string]any{"splices": splices})
	}
	if reference < 0 || reference > len(splices) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidReference, "reference outside segment range",
			map[string]any{"reference": reference, "segments": len(splices) + 1})
	}

	bands := make([]band, len(splices)+1)
	for i, w := range m.Wavelengths {
		s := Segment(w, splices)
		bands[s].idx = append(bands[s].idx, i)
	}
	if len(bands[reference].idx) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidReference, "reference segment has no samples",
			map[string]any{"reference": reference})
	}

	out := m.Clone()

	// right walk
	prev := reference
	for s := reference + 1; s < len(bands); s++ {
		if len(bands[s].idx) == 0 {
			continue
		}
		offset := out.Values[bands[prev].last()] - out.Values[bands[s].first()]
		shift(out.Values, bands[s], offset)
		prev = s
	}

	// left walk
	prev = reference
	for s := reference - 1; s >= 0; s-- {
		if len(bands[s].idx) == 0 {
			continue
		}
		offset := out.Values[bands[prev].first()] - out.Values[bands[s].last()]
		shift(out.Values, bands[s], offset)
		prev = s
	}

	return out, nil
}

// shift adds offset to every value of the band.
func shift(values []float64, b band, offset float64) {
	if offset == 0 {
		return
	}
	// contiguous bands are shifted in place as one block
	if b.last()-b.first()+1 == len(b.idx) {
		seg := values[b.first() : b.last()+1]
		delta := slices.Repeat([]float64{offset}, len(seg))
		vecmath.AddBlockInPlace(seg, delta)
		return
	}
	for _, i := range b.idx {
		values[i] += offset
	}
}
