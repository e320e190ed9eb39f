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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/logging"
	"github.com/EnSpec/SpecDAL/pkg/serializer"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

const (
	name           = "specdal"
	versionDefault = "dev"
	envPrefix      = "SPECDAL_"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Flags shared by several commands. Each call returns a fresh flag since
// parsed values are stored on the flag itself.
func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
		Sources: cli.EnvVars(envPrefix + "OUTPUT"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported values: %v)", serializer.SupportedFormats()),
		Sources: cli.EnvVars(envPrefix + "FORMAT"),
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "workers",
		Usage:   "Maximum number of files decoded or spectra processed concurrently (default: number of CPUs)",
		Sources: cli.EnvVars(envPrefix + "WORKERS"),
	}
}

func measureTypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "measure-type",
		Aliases: []string{"m"},
		Usage:   fmt.Sprintf("Measure type exposed by every spectrum (supported values: %v)", spectrum.MeasureTypes[:5]),
		Sources: cli.EnvVars(envPrefix + "MEASURE_TYPE"),
	}
}

func nameFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "name",
		Value: "dataset",
		Usage: "Name of the resulting collection",
	}
}

func maxSizeFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:  "max-size",
		Value: defaults.MaxFileSize,
		Usage: "Largest accepted file size in bytes after decompression",
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Pipeline configuration file (YAML or JSON)",
		Sources: cli.EnvVars(envPrefix + "CONFIG"),
	}
}

type runIDKey struct{}

// Execute runs the command line tool and exits the process on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, defaults.CLIProcessTimeout)
	defer cancel()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Read, process and join field spectrometer data",
		Version:               fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		EnableShellCompletion: true,
		ShellComplete:         commandLister,
		Description: `specdal decodes ASD, SED, SIG and PICO spectrometer files into spectral
collections, applies stitching, jump correction, interpolation and filters,
and joins rover spectra against base (white reference) spectra by time.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(envPrefix+"LOG_LEVEL", "LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write Prometheus metrics in text format to this file on exit",
				Sources: cli.EnvVars(envPrefix + "METRICS_FILE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			runID := uuid.NewString()
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.SetDefault(slog.Default().With("run_id", runID))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
				"cpus", runtime.NumCPU())
			return context.WithValue(ctx, runIDKey{}, runID), nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("metrics-file")
			if path == "" {
				return nil
			}
			if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
				return fmt.Errorf("failed to write metrics to %q: %w", path, err)
			}
			return nil
		},
		Commands: []*cli.Command{
			readCmd(),
			processCmd(),
			joinCmd(),
		},
	}
}

// commandLister prints the visible subcommands for shell completion.
func commandLister(_ context.Context, cmd *cli.Command) {
	if cmd == nil {
		return
	}
	for _, c := range cmd.Commands {
		if c.Hidden {
			continue
		}
		fmt.Println(c.Name)
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, supported values: %v", f, serializer.SupportedFormats())
	}
	return f, nil
}

// runID returns the id assigned to this invocation, or a fresh one when the
// root command did not run.
func runID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return uuid.NewString()
}

// inputFiles returns the positional arguments, failing when there are none.
func inputFiles(cmd *cli.Command) ([]string, error) {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files, usage: %s %s [options] FILE...", name, cmd.Name)
	}
	return paths, nil
}

// write serializes data to the --output destination in the --format format.
func write(ctx context.Context, cmd *cli.Command, data any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	return writeTo(ctx, format, cmd.String("output"), data)
}

func writeTo(ctx context.Context, format serializer.Format, path string, data any) error {
	ser := serializer.NewFileWriterOrStdout(format, path)
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()
	return ser.Serialize(ctx, data)
}
