// Package cli implements the specdal command line tool.
//
// # Overview
//
// specdal decodes field spectrometer files, runs the processing pipeline
// over them and joins rover measurements against base measurements. Every
// command writes a single document carrying a header (kind, apiVersion,
// timestamp, tool version and run id) followed by the spectra.
//
// # Commands
//
// read - Decode instrument files into a collection:
//
//	specdal read [--name NAME] [--measure-type TYPE] FILE...
//
// process - Run the configured pipeline:
//
//	specdal process [--config FILE] [--stitch] [--jump-correct] [--interpolate]
//	    [--aggregates FILE] [--group-dir DIR] FILE...
//
// join - Divide rover spectra by time-proximal base spectra:
//
//	specdal join --base FILE [--base FILE...] [--direction nearest|backward|forward]
//	    [--tolerance PT30S] ROVER_FILE...
//
// # Global Flags
//
//	--log-level     Log level: debug, info, warn, error (default: info)
//	--metrics-file  Write Prometheus metrics to a text file on exit
//	--help, -h      Show command help
//	--version, -v   Show version information
//
// Output flags are accepted by every command:
//
//	--output, -o   Output file path (default: stdout)
//	--format, -t   Output format: yaml, json, table, csv (default: yaml)
//
// # Environment Variables
//
// Most flags can be set with a SPECDAL_ prefixed variable, for example
// SPECDAL_FORMAT, SPECDAL_WORKERS or SPECDAL_CONFIG. LOG_LEVEL is honored
// as a fallback for SPECDAL_LOG_LEVEL.
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//	2  Interrupted or timed out
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/EnSpec/SpecDAL/pkg/cli.version=1.0.0'"
package cli
