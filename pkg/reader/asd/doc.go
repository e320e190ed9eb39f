// Package asd decodes the little-endian binary spectrometer record.
//
// The record starts with a 484-byte fixed header (version tag, spectrum type,
// wavelength calibration, GPS block, integration time and splice wavelengths)
// followed by one channel block. Versions as6 through as8 append a reference
// block preceded by a length-prefixed description:
//
//	table, md, err := asd.Decode("leaf.asd", data, true, true)
//
// Every offset is bounds-checked; layout violations return CORRUPT_FILE.
package asd
