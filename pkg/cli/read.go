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

	"github.com/urfave/cli/v3"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/reader"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

func readCmd() *cli.Command {
	return &cli.Command{
		Name:                  "read",
		EnableShellCompletion: true,
		Usage:                 "Decode spectrometer files into a spectral collection",
		ArgsUsage:             "FILE...",
		Description: `Decode one or more instrument files into a single collection and write it
out. Supported formats are ASD (.asd), SED (.sed), SIG (.sig) and PICO (.pico),
optionally gzip (.gz) or zstd (.zst) compressed. Files that cannot be decoded
are reported and skipped; files with identical content are read once.

# Examples

Read a directory of SIG files as YAML:
  specdal read data/*.sig

Write one column per spectrum as CSV:
  specdal read --format csv --output field.csv data/*.asd

Accept files up to 256 MiB after decompression:
  specdal read --max-size 268435456 data/*.sed`,
		Flags: []cli.Flag{
			nameFlag(),
			measureTypeFlag(),
			workersFlag(),
			maxSizeFlag(),
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			paths, err := inputFiles(cmd)
			if err != nil {
				return err
			}
			mt, err := spectrum.ParseMeasureType(cmd.String("measure-type"))
			if err != nil {
				return err
			}

			opts := collection.ReadOptions{
				MeasureType: mt,
				Workers:     cmd.Int("workers"),
				Reader:      readerOptions(cmd),
			}

			coll, err := collection.ReadFiles(ctx, cmd.String("name"), paths, opts)
			if err != nil {
				return fmt.Errorf("failed to read spectra: %w", err)
			}
			slog.Info("read complete",
				"collection", coll.Name(),
				"files", len(paths),
				"spectra", coll.Len())

			doc := coll.Document(header.KindSpectralCollection, version)
			doc.Metadata[header.MetadataRunID] = runID(ctx)
			return write(ctx, cmd, doc)
		},
	}
}

// readerOptions converts the decoding flags to reader options.
func readerOptions(cmd *cli.Command) []reader.Option {
	var opts []reader.Option
	if n := cmd.Int64("max-size"); n > 0 {
		opts = append(opts, reader.WithMaxSize(n))
	}
	return opts
}
