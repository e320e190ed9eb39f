// Package spectrum provides the Spectrum entity: one named measurement, its
// measure type, metadata and the flags of the operators applied to it.
//
// Spectra are created from decoded files or in-memory series:
//
//	s, err := spectrum.Read(ctx, "leaf_00001.asd", spectrum.PctReflect)
//
// When a file does not carry percent reflectance directly it is derived from
// target/reference column pairs in a fixed precedence: dark-corrected counts,
// counts, radiance, reflectance, irradiance. A table without any pair yields
// MISSING_COLUMNS.
//
// Operators (Interpolate, Stitch, JumpCorrect) compute a new measurement and
// install it only on success, so a failed operator leaves the spectrum
// unchanged. Collections use Compute and Install directly to apply an
// operation to every member before installing any result.
package spectrum
