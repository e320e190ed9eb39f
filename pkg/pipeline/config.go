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

package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/sosodev/duration"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/filter"
	"github.com/EnSpec/SpecDAL/pkg/join"
	"github.com/EnSpec/SpecDAL/pkg/resample"
	"github.com/EnSpec/SpecDAL/pkg/serializer"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
	"github.com/EnSpec/SpecDAL/pkg/stitch"
)

// Config describes a processing run.
type Config struct {
	MeasureType string            `json:"measure_type,omitempty" yaml:"measure_type,omitempty"`
	Workers     int               `json:"workers,omitempty" yaml:"workers,omitempty"`
	Stitch      StitchConfig      `json:"stitch" yaml:"stitch"`
	JumpCorrect JumpCorrectConfig `json:"jump_correct" yaml:"jump_correct"`
	Interpolate InterpolateConfig `json:"interpolate" yaml:"interpolate"`
	Filters     []FilterConfig    `json:"filters,omitempty" yaml:"filters,omitempty"`
	Group       GroupConfig       `json:"group" yaml:"group"`
	Aggregates  []string          `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
	Join        JoinConfig        `json:"join" yaml:"join"`
}

// StitchConfig enables overlap stitching.
type StitchConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Method  string `json:"method,omitempty" yaml:"method,omitempty"`
}

// JumpCorrectConfig enables splice jump correction. Empty splices are read
// from each spectrum's metadata.
type JumpCorrectConfig struct {
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	Splices   []float64 `json:"splices,omitempty" yaml:"splices,omitempty"`
	Reference *int      `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// InterpolateConfig enables resampling onto a regular grid.
type InterpolateConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Spacing float64 `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Method  string  `json:"method,omitempty" yaml:"method,omitempty"`
}

// Filter kinds.
const (
	FilterThreshold = "threshold"
	FilterStd       = "std"
	FilterWhite     = "white"
)

// FilterConfig flags members failing one filter.
type FilterConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// Wavelengths is the inclusive window; empty covers every wavelength.
	Wavelengths []float64 `json:"wavelengths,omitempty" yaml:"wavelengths,omitempty"`
	Low         float64   `json:"low,omitempty" yaml:"low,omitempty"`
	High        float64   `json:"high,omitempty" yaml:"high,omitempty"`
	Threshold   float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Reduce      string    `json:"reduce,omitempty" yaml:"reduce,omitempty"`
}

// GroupConfig splits the collection by name elements. No indices disables
// grouping.
type GroupConfig struct {
	Separator string `json:"separator,omitempty" yaml:"separator,omitempty"`
	Indices   []int  `json:"indices,omitempty" yaml:"indices,omitempty"`
	Filler    string `json:"filler,omitempty" yaml:"filler,omitempty"`
}

// JoinConfig configures proximal joins. Tolerance is either a number in key
// units or an ISO 8601 duration such as PT30S.
type JoinConfig struct {
	TimeKey   string   `json:"time_key,omitempty" yaml:"time_key,omitempty"`
	Direction string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Fields    []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Tolerance string   `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// Aggregate names.
var Aggregates = []string{"mean", "median", "min", "max", "std"}

// Default returns a configuration with every operator disabled and all
// parameters at their defaults.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML or JSON configuration. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	c, err := serializer.FromFile[Config](path, serializer.WithStrict(true))
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "failed to load pipeline config", err,
			map[string]any{"path": path})
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse reads a configuration in format from r. Unknown fields are rejected.
func Parse(format serializer.Format, r io.Reader) (*Config, error) {
	sr, err := serializer.NewReader(format, r, serializer.WithStrict(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "unsupported pipeline config format", err)
	}
	c := &Config{}
	if err := sr.Deserialize(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse pipeline config", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.MeasureType == "" {
		c.MeasureType = string(spectrum.PctReflect)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Stitch.Method == "" {
		c.Stitch.Method = defaults.StitchMethod
	}
	if c.JumpCorrect.Reference == nil {
		ref := defaults.JumpReference
		c.JumpCorrect.Reference = &ref
	}
	if c.Interpolate.Spacing == 0 {
		c.Interpolate.Spacing = defaults.InterpolateSpacing
	}
	if c.Interpolate.Method == "" {
		c.Interpolate.Method = defaults.InterpolateMethod
	}
	if c.Group.Separator == "" {
		c.Group.Separator = "_"
	}
	if c.Join.TimeKey == "" {
		c.Join.TimeKey = defaults.JoinTimeKey
	}
	if c.Join.Direction == "" {
		c.Join.Direction = defaults.JoinDirection
	}
}

// Validate checks every operator parameter, including those of disabled
// operators.
func (c *Config) Validate() error {
	if _, err := spectrum.ParseMeasureType(c.MeasureType); err != nil {
		return err
	}
	if _, err := stitch.ParseMethod(c.Stitch.Method); err != nil {
		return err
	}
	if _, err := resample.ParseMethod(c.Interpolate.Method); err != nil {
		return err
	}
	if !(c.Interpolate.Spacing > 0) {
		return invalid("interpolate spacing must be positive", map[string]any{"spacing": c.Interpolate.Spacing})
	}
	if !slices.IsSorted(c.JumpCorrect.Splices) {
		return invalid("jump correction splices must be sorted", map[string]any{"splices": c.JumpCorrect.Splices})
	}
	if ref := *c.JumpCorrect.Reference; ref < 0 {
		return invalid("jump correction reference must not be negative", map[string]any{"reference": ref})
	}
	for i, f := range c.Filters {
		if _, err := f.window(); err != nil {
			return errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid filter", err, map[string]any{"index": i})
		}
		if _, err := filter.ParseReducer(f.Reduce); err != nil {
			return err
		}
		switch f.Kind {
		case FilterThreshold, FilterWhite:
		case FilterStd:
			if !(f.Threshold > 0) {
				return invalid("std filter threshold must be positive", map[string]any{"index": i})
			}
		default:
			return invalid(fmt.Sprintf("unknown filter kind %q", f.Kind),
				map[string]any{"index": i, "valid": []string{FilterThreshold, FilterStd, FilterWhite}})
		}
	}
	for _, a := range c.Aggregates {
		if !slices.Contains(Aggregates, a) {
			return invalid(fmt.Sprintf("unknown aggregate %q", a), map[string]any{"valid": Aggregates})
		}
	}
	if _, err := c.JoinOptions(); err != nil {
		return err
	}
	return nil
}

func invalid(msg string, ctx map[string]any) error {
	return errors.NewWithContext(errors.ErrCodeInvalidRequest, msg, ctx)
}

func (f FilterConfig) window() (filter.Window, error) {
	switch len(f.Wavelengths) {
	case 0:
		return filter.Everything, nil
	case 2:
		if f.Wavelengths[0] > f.Wavelengths[1] {
			return filter.Window{}, fmt.Errorf("window %v out of order", f.Wavelengths)
		}
		return filter.Window{Lo: f.Wavelengths[0], Hi: f.Wavelengths[1]}, nil
	default:
		return filter.Window{}, fmt.Errorf("window needs two wavelengths, got %d", len(f.Wavelengths))
	}
}

// JoinOptions converts the join section to join.Options.
func (c *Config) JoinOptions() (join.Options, error) {
	dir, err := join.ParseDirection(c.Join.Direction)
	if err != nil {
		return join.Options{}, err
	}
	tol, err := ParseTolerance(c.Join.Tolerance)
	if err != nil {
		return join.Options{}, err
	}
	return join.Options{
		TimeKey:   c.Join.TimeKey,
		Direction: dir,
		Fields:    c.Join.Fields,
		Tolerance: tol,
	}, nil
}

// ParseTolerance converts a plain number or an ISO 8601 duration to key
// units. Durations are expressed in seconds. Empty means no tolerance.
func ParseTolerance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 0 {
			return 0, invalid("join tolerance must not be negative", map[string]any{"tolerance": s})
		}
		return v, nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid join tolerance", err,
			map[string]any{"tolerance": s})
	}
	return d.ToTimeDuration().Seconds(), nil
}
