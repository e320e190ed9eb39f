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
	"context"
	"log/slog"
	"time"

	"github.com/gosimple/slug"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/filter"
	"github.com/EnSpec/SpecDAL/pkg/join"
	"github.com/EnSpec/SpecDAL/pkg/reader"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// Result holds the output of a processing run.
type Result struct {
	// Collection is the processed input. Filters flag members in place.
	Collection *collection.Collection
	// Groups are set when grouping is configured.
	Groups []collection.Group
	// Aggregates holds one spectrum per configured statistic and group,
	// named <group>_<statistic>.
	Aggregates *collection.Collection
}

// Read decodes paths into a collection named name using the configured
// measure type and worker limit.
func (c *Config) Read(ctx context.Context, name string, paths []string, opts ...reader.Option) (*collection.Collection, error) {
	mt, err := spectrum.ParseMeasureType(c.MeasureType)
	if err != nil {
		return nil, err
	}
	coll, err := collection.ReadFiles(ctx, name, paths, collection.ReadOptions{
		MeasureType: mt,
		Workers:     c.Workers,
		Reader:      opts,
	})
	if err != nil {
		return nil, err
	}
	if coll.Len() == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "no readable spectra",
			map[string]any{"collection": name, "files": len(paths)})
	}
	return coll, nil
}

// Process applies the enabled operators to coll in order: stitch, jump
// correction, interpolation, then filters.
func (c *Config) Process(ctx context.Context, coll *collection.Collection) error {
	if c.Stitch.Enabled {
		if err := coll.Stitch(ctx, c.Stitch.Method); err != nil {
			return err
		}
	}
	if c.JumpCorrect.Enabled {
		if err := coll.JumpCorrect(ctx, c.JumpCorrect.Splices, *c.JumpCorrect.Reference); err != nil {
			return err
		}
	}
	if c.Interpolate.Enabled {
		if err := coll.Interpolate(ctx, c.Interpolate.Spacing, c.Interpolate.Method); err != nil {
			return err
		}
	}
	for _, f := range c.Filters {
		if err := applyFilter(coll, f); err != nil {
			return err
		}
	}
	return nil
}

func applyFilter(coll *collection.Collection, f FilterConfig) error {
	w, err := f.window()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid filter window", err)
	}
	r, err := filter.ParseReducer(f.Reduce)
	if err != nil {
		return err
	}

	var bad []string
	switch f.Kind {
	case FilterThreshold:
		bad, err = filter.Threshold(coll, w, f.Low, f.High, r)
	case FilterStd:
		bad, err = filter.StdDev(coll, w, f.Threshold, r)
	case FilterWhite:
		bad, err = filter.White(coll, w)
	default:
		return invalid("unknown filter kind", map[string]any{"kind": f.Kind})
	}
	if err != nil {
		return err
	}
	return filter.Flag(coll, f.Kind, bad)
}

// Run reads paths, processes them, then groups and aggregates the result.
func (c *Config) Run(ctx context.Context, name string, paths []string, opts ...reader.Option) (*Result, error) {
	start := time.Now()

	coll, err := c.Read(ctx, name, paths, opts...)
	if err != nil {
		return nil, err
	}
	res, err := c.RunCollection(ctx, coll)
	if err != nil {
		return nil, err
	}

	slog.Info("pipeline complete",
		slog.String("collection", name),
		slog.Int("spectra", coll.Len()),
		slog.Int("flagged", len(coll.Flagged())),
		slog.Int("groups", len(res.Groups)),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// RunCollection processes coll in place, then groups and aggregates it.
func (c *Config) RunCollection(ctx context.Context, coll *collection.Collection) (*Result, error) {
	if err := c.Process(ctx, coll); err != nil {
		return nil, err
	}

	res := &Result{Collection: coll}
	if len(c.Group.Indices) > 0 {
		if c.Group.Filler != "" {
			res.Groups = coll.GroupByFill(c.Group.Separator, c.Group.Indices, c.Group.Filler)
		} else {
			res.Groups = coll.GroupBy(c.Group.Separator, c.Group.Indices)
		}
	}

	if len(c.Aggregates) > 0 {
		targets := []*collection.Collection{coll}
		if len(res.Groups) > 0 {
			targets = targets[:0]
			for _, g := range res.Groups {
				targets = append(targets, g.Collection)
			}
		}
		res.Aggregates = collection.New(coll.Name()+"_aggregates", collection.WithMeasureType(coll.MeasureType()))
		for _, t := range targets {
			if err := aggregate(res.Aggregates, t, c.Aggregates); err != nil {
				return nil, err
			}
		}
	}

	return res, nil
}

func aggregate(out, coll *collection.Collection, stats []string) error {
	fns := map[string]func(bool) (*spectrum.Spectrum, error){
		"mean":   coll.Mean,
		"median": coll.Median,
		"min":    coll.Min,
		"max":    coll.Max,
		"std":    coll.Std,
	}
	for _, name := range stats {
		s, err := fns[name](true)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeInvalidRequest) && len(coll.Flagged()) == coll.Len() {
				slog.Warn("skipping aggregate of fully flagged group",
					slog.String("group", coll.Name()),
					slog.String("statistic", name))
				continue
			}
			return err
		}
		if err := out.Append(s); err != nil {
			return err
		}
	}
	return nil
}

// RunJoin reads and processes the base and rover files, then divides every
// rover spectrum by its time-proximal base spectrum.
func (c *Config) RunJoin(ctx context.Context, basePaths, roverPaths []string, opts ...reader.Option) (*collection.Collection, *join.Result, error) {
	jo, err := c.JoinOptions()
	if err != nil {
		return nil, nil, err
	}

	base, err := c.Read(ctx, "base", basePaths, opts...)
	if err != nil {
		return nil, nil, err
	}
	rover, err := c.Read(ctx, "rover", roverPaths, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c.join(ctx, base, rover, jo)
}

// JoinCollections processes base and rover in place, then divides every
// unflagged rover spectrum by its time-proximal unflagged base spectrum.
func (c *Config) JoinCollections(ctx context.Context, base, rover *collection.Collection) (*collection.Collection, *join.Result, error) {
	jo, err := c.JoinOptions()
	if err != nil {
		return nil, nil, err
	}
	return c.join(ctx, base, rover, jo)
}

func (c *Config) join(ctx context.Context, base, rover *collection.Collection, jo join.Options) (*collection.Collection, *join.Result, error) {
	for _, coll := range []*collection.Collection{base, rover} {
		if err := c.Process(ctx, coll); err != nil {
			return nil, nil, err
		}
	}
	return collection.ProximalJoin(unflagged(base), unflagged(rover), jo)
}

// unflagged drops flagged members, returning coll itself when none are flagged.
func unflagged(coll *collection.Collection) *collection.Collection {
	if len(coll.Flagged()) == 0 {
		return coll
	}
	return coll.AsUnflagged()
}

// FileName returns a file system safe name for a group output.
func FileName(key, ext string) string {
	s := slug.Make(key)
	if s == "" {
		s = "group"
	}
	return s + "." + ext
}
