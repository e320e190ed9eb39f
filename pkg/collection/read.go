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
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// ReadOptions configures ReadFiles.
type ReadOptions struct {
	// MeasureType selects the quantity decoded from every file.
	MeasureType spectrum.MeasureType
	// Workers bounds concurrent decodes. Zero uses runtime.GOMAXPROCS(0).
	Workers int
	// Reader options are passed to every decode.
	Reader []reader.Option
}

// withDefaults fills an unset measure type and worker count.
func (o ReadOptions) withDefaults() ReadOptions {
	if o.MeasureType == "" {
		o.MeasureType = spectrum.PctReflect
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// ReadFiles decodes paths concurrently into a collection named name. Files
// that fail to decode are logged and skipped; files whose checksum or name
// repeats an earlier file are skipped. Members keep the order of paths.
// Only context cancellation is returned as an error.
func ReadFiles(ctx context.Context, name string, paths []string, opts ReadOptions) (*Collection, error) {
	opts = opts.withDefaults()
	workers := opts.Workers
	c := New(name, WithWorkers(workers), WithMeasureType(opts.MeasureType))

	results := make([]*spectrum.Spectrum, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := spectrum.Read(gctx, path, opts.MeasureType, opts.Reader...)
			if err != nil {
				filesRead.WithLabelValues("failed").Inc()
				slog.Warn("skipping unreadable file",
					slog.String("path", path),
					slog.String("code", string(errors.CodeOf(err))),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "batch read canceled", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "batch read canceled", err)
	}

	seen := make(map[string]string)
	for i, s := range results {
		if s == nil {
			continue
		}
		if sum, err := s.Metadata().GetString(metadata.KeyChecksum); err == nil {
			if first, dup := seen[sum]; dup {
				filesRead.WithLabelValues("duplicate").Inc()
				slog.Warn("skipping duplicate file",
					slog.String("path", paths[i]),
					slog.String("duplicate_of", first))
				continue
			}
			seen[sum] = paths[i]
		}
		if err := c.Append(s); err != nil {
			filesRead.WithLabelValues("duplicate").Inc()
			slog.Warn("skipping file with repeated spectrum name",
				slog.String("path", paths[i]),
				slog.String("name", s.Name()))
			continue
		}
		filesRead.WithLabelValues("loaded").Inc()
	}

	slog.Debug("batch read complete",
		slog.String("collection", name),
		slog.Int("files", len(paths)),
		slog.Int("loaded", c.Len()))
	return c, nil
}

// File is an instrument file held in memory.
type File struct {
	// Name carries the file name; its extension selects the decoder.
	Name string
	Data []byte
}

// DecodeFiles decodes files concurrently into a collection named name.
// Unlike ReadFiles every file must decode and produce a distinct spectrum
// name; the first failure is returned. Identical files are decoded once.
func DecodeFiles(ctx context.Context, name string, files []File, opts ReadOptions) (*Collection, error) {
	opts = opts.withDefaults()
	workers := opts.Workers
	c := New(name, WithWorkers(workers), WithMeasureType(opts.MeasureType))

	results := make([]*spectrum.Spectrum, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "decode canceled", err)
			}
			s, err := spectrum.Decode(f.Name, f.Data, opts.MeasureType, opts.Reader...)
			if err != nil {
				filesRead.WithLabelValues("failed").Inc()
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for i, s := range results {
		if sum, err := s.Metadata().GetString(metadata.KeyChecksum); err == nil {
			if _, dup := seen[sum]; dup {
				filesRead.WithLabelValues("duplicate").Inc()
				continue
			}
			seen[sum] = struct{}{}
		}
		if err := c.Append(s); err != nil {
			filesRead.WithLabelValues("duplicate").Inc()
			return nil, errors.WrapWithContext(errors.CodeOf(err), "repeated spectrum name", err,
				map[string]any{"file": files[i].Name})
		}
		filesRead.WithLabelValues("loaded").Inc()
	}
	return c, nil
}
