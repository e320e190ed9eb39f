// Package defaults provides centralized configuration constants for SpecDAL.
//
// This package defines operator defaults, reader limits and CLI timeouts used
// across the codebase. Centralizing these values ensures consistency and
// makes tuning easier.
//
// # Categories
//
//   - Reader limits: file size and preamble bounds for instrument files
//   - Operator defaults: resampling spacing and method, stitch aggregate,
//     jump-correction splices and reference band
//   - Join defaults: time key and search direction
//   - CLI timeouts: per-invocation deadline
//
// # Usage
//
//	import "github.com/EnSpec/SpecDAL/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.CLIProcessTimeout)
//	defer cancel()
//
//	m, err := resample.Resample(m, defaults.InterpolateSpacing, resample.MethodLinear)
package defaults
