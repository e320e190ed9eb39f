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

package spectrum

import (
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/jumpcorrect"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/resample"
	"github.com/EnSpec/SpecDAL/pkg/stitch"
)

// Operation is a whole-measurement transform with an associated flag.
type Operation interface {
	// Name identifies the operation in logs and errors.
	Name() string

	apply(s *Spectrum) (*measurement.Measurement, error)
	mark(f *Flags)
}

type interpolation struct {
	spacing float64
	method  resample.Method
}

// Interpolation returns the resampling operation.
func Interpolation(spacing float64, method string) (Operation, error) {
	m, err := resample.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if spacing <= 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "spacing must be positive",
			map[string]any{"spacing": spacing})
	}
	return interpolation{spacing: spacing, method: m}, nil
}

func (interpolation) Name() string { return "interpolate" }

func (o interpolation) apply(s *Spectrum) (*measurement.Measurement, error) {
	return resample.Resample(s.measurement, o.spacing, o.method)
}

func (interpolation) mark(f *Flags) { f.Interpolated = true }

type stitching struct {
	method stitch.Method
}

// Stitching returns the overlap stitching operation.
func Stitching(method string) (Operation, error) {
	m, err := stitch.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return stitching{method: m}, nil
}

func (stitching) Name() string { return "stitch" }

func (o stitching) apply(s *Spectrum) (*measurement.Measurement, error) {
	return stitch.Stitch(s.measurement, o.method)
}

func (stitching) mark(f *Flags) { f.Stitched = true }

type jumpCorrection struct {
	splices   []float64
	reference int
}

// JumpCorrection returns the additive splice correction. Nil splices are
// taken from each spectrum's metadata.
func JumpCorrection(splices []float64, reference int) Operation {
	return jumpCorrection{splices: splices, reference: reference}
}

func (jumpCorrection) Name() string { return "jump_correct" }

func (o jumpCorrection) apply(s *Spectrum) (*measurement.Measurement, error) {
	splices := o.splices
	if splices == nil {
		var ok bool
		if splices, ok = s.Splices(); !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "no splices given or recorded",
				map[string]any{"spectrum": s.name})
		}
	}
	return jumpcorrect.Correct(s.measurement, splices, o.reference)
}

func (jumpCorrection) mark(f *Flags) { f.JumpCorrected = true }
