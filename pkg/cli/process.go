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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/pipeline"
	"github.com/EnSpec/SpecDAL/pkg/serializer"
)

func processCmd() *cli.Command {
	return &cli.Command{
		Name:                  "process",
		EnableShellCompletion: true,
		Usage:                 "Run the processing pipeline over spectrometer files",
		ArgsUsage:             "FILE...",
		Description: `Read instrument files, apply the operators enabled in the pipeline
configuration, then group and aggregate the result.

Operators run in a fixed order: stitch, jump correction, interpolation and
filters. Filters flag spectra; flagged spectra are kept in the output and
excluded from aggregates. The --stitch, --jump-correct and --interpolate flags
enable an operator with its configured (or default) parameters.

# Examples

Stitch and resample with default parameters:
  specdal process --stitch --interpolate data/*.asd

Run a configured pipeline and write the per-plot means:
  specdal process -c pipeline.yaml --aggregates means.csv -t csv data/*.sig

Write one document per group:
  specdal process -c pipeline.yaml --group-dir out/ data/*.sig`,
		Flags: []cli.Flag{
			configFlag(),
			nameFlag(),
			measureTypeFlag(),
			workersFlag(),
			maxSizeFlag(),
			&cli.BoolFlag{
				Name:  "stitch",
				Usage: "Enable overlap stitching",
			},
			&cli.BoolFlag{
				Name:  "jump-correct",
				Usage: "Enable splice jump correction",
			},
			&cli.BoolFlag{
				Name:  "interpolate",
				Usage: "Enable resampling onto a regular wavelength grid",
			},
			&cli.StringFlag{
				Name:  "aggregates",
				Usage: "Write the aggregate spectra to this file",
			},
			&cli.StringFlag{
				Name:  "group-dir",
				Usage: "Write one document per group into this directory",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			paths, err := inputFiles(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			res, err := cfg.Run(ctx, cmd.String("name"), paths, readerOptions(cmd)...)
			if err != nil {
				return fmt.Errorf("pipeline failed: %w", err)
			}

			id := runID(ctx)
			if path := cmd.String("aggregates"); path != "" && res.Aggregates != nil {
				if err := writeTo(ctx, format, path, document(res.Aggregates, header.KindPipelineRun, id)); err != nil {
					return err
				}
			}
			if dir := cmd.String("group-dir"); dir != "" {
				if err := writeGroups(ctx, format, dir, res.Groups, id); err != nil {
					return err
				}
			}
			return write(ctx, cmd, document(res.Collection, header.KindPipelineRun, id))
		},
	}
}

// loadConfig reads --config when set and applies the command line overrides.
func loadConfig(cmd *cli.Command) (*pipeline.Config, error) {
	cfg := pipeline.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = pipeline.Load(path); err != nil {
			return nil, err
		}
	}

	if cmd.IsSet("measure-type") {
		cfg.MeasureType = cmd.String("measure-type")
	}
	if n := cmd.Int("workers"); n > 0 {
		cfg.Workers = n
	}
	for flag, enabled := range map[string]*bool{
		"stitch":       &cfg.Stitch.Enabled,
		"jump-correct": &cfg.JumpCorrect.Enabled,
		"interpolate":  &cfg.Interpolate.Enabled,
	} {
		if cmd.IsSet(flag) {
			*enabled = cmd.Bool(flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func document(c *collection.Collection, kind header.Kind, id string) *collection.Document {
	d := c.Document(kind, version)
	d.Metadata[header.MetadataRunID] = id
	return d
}

func writeGroups(ctx context.Context, format serializer.Format, dir string, groups []collection.Group, id string) error {
	if len(groups) == 0 {
		slog.Warn("no groups configured, nothing written", "dir", dir)
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create group directory %q: %w", dir, err)
	}
	seen := make(map[string]int, len(groups))
	for _, g := range groups {
		file := pipeline.FileName(g.Key, extension(format))
		// distinct keys may slug to the same file name
		if n := seen[file]; n > 0 {
			file = pipeline.FileName(g.Key+"-"+strconv.Itoa(n), extension(format))
		}
		seen[file]++
		path := filepath.Join(dir, file)
		if err := writeTo(ctx, format, path, document(g.Collection, header.KindSpectralCollection, id)); err != nil {
			return err
		}
		slog.Debug("wrote group", "key", g.Key, "path", path, "spectra", g.Collection.Len())
	}
	return nil
}

func extension(f serializer.Format) string {
	if f == serializer.FormatTable {
		return "txt"
	}
	return string(f)
}
