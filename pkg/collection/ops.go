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

package collection

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// Interpolate resamples every member onto a regular grid.
func (c *Collection) Interpolate(ctx context.Context, spacing float64, method string) error {
	op, err := spectrum.Interpolation(spacing, method)
	if err != nil {
		return err
	}
	return c.Apply(ctx, op)
}

// Stitch removes overlaps from every member.
func (c *Collection) Stitch(ctx context.Context, method string) error {
	op, err := spectrum.Stitching(method)
	if err != nil {
		return err
	}
	return c.Apply(ctx, op)
}

// JumpCorrect removes splice discontinuities from every member. Nil splices
// are taken from each member's metadata.
func (c *Collection) JumpCorrect(ctx context.Context, splices []float64, reference int) error {
	return c.Apply(ctx, spectrum.JumpCorrection(splices, reference))
}

// Apply runs op against every member concurrently, bounded by the worker
// limit. Results are installed in insertion order only when every member
// succeeds; on any failure the collection is left unchanged and the first
// error is returned.
func (c *Collection) Apply(ctx context.Context, op spectrum.Operation) error {
	start := time.Now()
	defer func() {
		operationDuration.WithLabelValues(op.Name()).Observe(time.Since(start).Seconds())
	}()

	members := c.Spectra()
	results := make([]*measurement.Measurement, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, s := range members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, op.Name()+" canceled", err)
			}
			m, err := s.Compute(op)
			if err != nil {
				membersProcessed.WithLabelValues(op.Name(), "error").Inc()
				return err
			}
			membersProcessed.WithLabelValues(op.Name(), "success").Inc()
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Warn("collection operation failed",
			slog.String("collection", c.name),
			slog.String("operation", op.Name()),
			slog.String("error", err.Error()))
		return err
	}

	for i, s := range members {
		s.Install(op, results[i])
	}

	slog.Debug("collection operation applied",
		slog.String("collection", c.name),
		slog.String("operation", op.Name()),
		slog.Int("members", len(members)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
