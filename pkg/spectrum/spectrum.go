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
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader"
)

// Flags records which operators have been applied.
type Flags struct {
	Interpolated  bool `json:"interpolated" yaml:"interpolated"`
	Stitched      bool `json:"stitched" yaml:"stitched"`
	JumpCorrected bool `json:"jump_corrected" yaml:"jump_corrected"`
}

// Spectrum is one named measurement with its metadata. The measurement is
// only ever replaced as a whole.
type Spectrum struct {
	name        string
	measureType MeasureType
	measurement *measurement.Measurement
	metadata    *metadata.Metadata
	flags       Flags
}

// New creates a spectrum from an in-memory series. The measurement is copied;
// nil metadata becomes empty.
func New(name string, m *measurement.Measurement, mt MeasureType, md *metadata.Metadata) (*Spectrum, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "spectrum name is required")
	}
	if m == nil {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "spectrum measurement is required",
			map[string]any{"name": name})
	}
	if err := m.Validate(); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid measurement", err,
			map[string]any{"name": name})
	}
	if md == nil {
		md = metadata.New()
	}
	return &Spectrum{
		name:        name,
		measureType: mt,
		measurement: m.Clone(),
		metadata:    md,
	}, nil
}

// FromTable selects the requested measure type from a decoded table.
func FromTable(name string, t *measurement.Table, mt MeasureType, md *metadata.Metadata) (*Spectrum, error) {
	if mt == Derived {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "derived spectra cannot be decoded from a file")
	}
	m, err := Select(t, mt)
	if err != nil {
		return nil, err
	}
	return New(name, m, mt, md)
}

// Read decodes the file at path. The spectrum is named after the file.
func Read(ctx context.Context, path string, mt MeasureType, opts ...reader.Option) (*Spectrum, error) {
	if mt == Derived {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "derived spectra cannot be decoded from a file")
	}
	table, md, err := reader.Read(ctx, path, append(slices.Clip(opts), reader.WithData(true))...)
	if err != nil {
		return nil, err
	}
	return FromTable(NameFromPath(path), table, mt, md)
}

// Decode decodes an in-memory file. The format is selected by the extension
// of path and the spectrum is named after it.
func Decode(path string, data []byte, mt MeasureType, opts ...reader.Option) (*Spectrum, error) {
	if mt == Derived {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "derived spectra cannot be decoded from a file")
	}
	table, md, err := reader.Decode(path, data, append(slices.Clip(opts), reader.WithData(true))...)
	if err != nil {
		return nil, err
	}
	return FromTable(NameFromPath(path), table, mt, md)
}

// NameFromPath returns the base name of path without its last extension,
// ignoring a compression suffix.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst"} {
		if trimmed, ok := strings.CutSuffix(strings.ToLower(base), ext); ok {
			base = base[:len(trimmed)]
			break
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the spectrum name.
func (s *Spectrum) Name() string {
	return s.name
}

// MeasureType returns the quantity the spectrum carries.
func (s *Spectrum) MeasureType() MeasureType {
	return s.measureType
}

// Measurement returns a copy of the current measurement.
func (s *Spectrum) Measurement() *measurement.Measurement {
	return s.measurement.Clone()
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return s.measurement.Len()
}

// Metadata returns the spectrum metadata.
func (s *Spectrum) Metadata() *metadata.Metadata {
	return s.metadata
}

// Flags returns the applied-operator flags.
func (s *Spectrum) Flags() Flags {
	return s.flags
}

// Splices returns the splice wavelengths recorded in metadata.
func (s *Spectrum) Splices() ([]float64, bool) {
	p, err := s.metadata.GetPair(metadata.KeySplices)
	if err != nil {
		return nil, false
	}
	return []float64{p.A, p.B}, true
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() *Spectrum {
	return s.CloneAs(s.name)
}

// CloneAs returns a deep copy carrying a different name.
func (s *Spectrum) CloneAs(name string) *Spectrum {
	return &Spectrum{
		name:        name,
		measureType: s.measureType,
		measurement: s.measurement.Clone(),
		metadata:    s.metadata.Clone(),
		flags:       s.flags,
	}
}

// String returns a one-line summary.
func (s *Spectrum) String() string {
	lo, hi := s.measurement.Range()
	return fmt.Sprintf("%s (%s, %d samples, %g-%g)", s.name, s.measureType, s.measurement.Len(), lo, hi)
}

// Interpolate resamples the measurement onto a regular grid.
func (s *Spectrum) Interpolate(spacing float64, method string) error {
	op, err := Interpolation(spacing, method)
	if err != nil {
		return err
	}
	return s.Apply(op)
}

// Stitch resolves overlapping detector sweeps.
func (s *Spectrum) Stitch(method string) error {
	op, err := Stitching(method)
	if err != nil {
		return err
	}
	return s.Apply(op)
}

// JumpCorrect removes additive offsets at the splices. Nil splices fall
// back to the splices recorded in metadata.
func (s *Spectrum) JumpCorrect(splices []float64, reference int) error {
	return s.Apply(JumpCorrection(splices, reference))
}

// Apply computes op and installs the result. On error the spectrum is unchanged.
func (s *Spectrum) Apply(op Operation) error {
	m, err := s.Compute(op)
	if err != nil {
		return err
	}
	s.Install(op, m)
	return nil
}

// Compute runs op against the current measurement without modifying the spectrum.
func (s *Spectrum) Compute(op Operation) (*measurement.Measurement, error) {
	m, err := op.apply(s)
	if err != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return nil, errors.WrapWithContext(code, op.Name()+" failed", err,
			map[string]any{"spectrum": s.name})
	}
	return m, nil
}

// Install replaces the measurement with the result of op and sets its flag.
func (s *Spectrum) Install(op Operation, m *measurement.Measurement) {
	s.measurement = m
	op.mark(&s.flags)
}

// Add returns the sum of two spectra of the same measure type over their
// common wavelengths.
func Add(a, b *Spectrum) (*Spectrum, error) {
	if a.measureType != b.measureType {
		return nil, errors.NewWithContext(errors.ErrCodeTypeMismatch, "cannot add spectra of different measure types",
			map[string]any{"left": a.measureType, "right": b.measureType})
	}

	index := make(map[float64]float64, b.measurement.Len())
	for i, w := range b.measurement.Wavelengths {
		index[w] = b.measurement.Values[i]
	}
	var w, v []float64
	for i, x := range a.measurement.Wavelengths {
		if y, ok := index[x]; ok {
			w = append(w, x)
			v = append(v, a.measurement.Values[i]+y)
		}
	}

	m, err := measurement.New(w, v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to build sum", err)
	}
	return New(a.name+"+"+b.name, m, a.measureType, nil)
}
