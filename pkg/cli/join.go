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
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/pipeline"
)

func joinCmd() *cli.Command {
	return &cli.Command{
		Name:                  "join",
		EnableShellCompletion: true,
		Usage:                 "Divide rover spectra by time-proximal base spectra",
		ArgsUsage:             "ROVER_FILE...",
		Description: `Read base (reference panel) and rover files, process both with the
pipeline configuration, then pair every rover spectrum with the base spectrum
closest in time and divide them wavelength by wavelength. The output holds one
reflectance spectrum per matched rover file.

Join keys are read from spectrum metadata (gps_time_target by default) and may
be numbers or clock times. Tolerance accepts seconds or an ISO 8601 duration.

# Examples

Join with the nearest base measurement:
  specdal join --base base/*.sig rover/*.sig

Only accept base measurements taken up to 30 seconds earlier:
  specdal join --base base/*.sig --direction backward --tolerance PT30S rover/*.sig`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "base",
				Aliases:  []string{"b"},
				Required: true,
				Usage:    "Base file (can be repeated)",
			},
			configFlag(),
			measureTypeFlag(),
			workersFlag(),
			maxSizeFlag(),
			&cli.BoolFlag{
				Name:  "interpolate",
				Usage: "Resample both sides onto a regular wavelength grid before joining",
			},
			&cli.StringFlag{
				Name:  "time-key",
				Usage: "Metadata key rows are matched on",
			},
			&cli.StringFlag{
				Name:  "direction",
				Usage: "Candidate base rows: nearest, backward or forward",
			},
			&cli.StringFlag{
				Name:  "tolerance",
				Usage: "Largest accepted key distance (e.g. 30 or PT30S)",
			},
			&cli.StringSliceFlag{
				Name:  "field",
				Usage: "Metadata key retained from both sides (can be repeated, wildcards allowed)",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := parseOutputFormat(cmd); err != nil {
				return err
			}
			rover, err := inputFiles(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadJoinConfig(cmd)
			if err != nil {
				return err
			}

			out, res, err := cfg.RunJoin(ctx, cmd.StringSlice("base"), rover, readerOptions(cmd)...)
			if err != nil {
				return fmt.Errorf("join failed: %w", err)
			}
			slog.Info("join complete",
				"matched", len(res.Matches),
				"unmatched", len(res.Unmatched),
				"wavelengths", len(res.Wavelengths))

			doc := document(out, header.KindProximalJoin, runID(ctx))
			doc.Metadata["matched"] = strconv.Itoa(len(res.Matches))
			doc.Metadata["unmatched"] = strconv.Itoa(len(res.Unmatched))
			return write(ctx, cmd, doc)
		},
	}
}

func loadJoinConfig(cmd *cli.Command) (*pipeline.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if v := cmd.String("time-key"); v != "" {
		cfg.Join.TimeKey = v
	}
	if v := cmd.String("direction"); v != "" {
		cfg.Join.Direction = v
	}
	if v := cmd.String("tolerance"); v != "" {
		cfg.Join.Tolerance = v
	}
	if v := cmd.StringSlice("field"); len(v) > 0 {
		cfg.Join.Fields = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
