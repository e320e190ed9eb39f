// Package pico decodes the JSON container written by dual-field-of-view
// spectrometers.
//
// Each container lists acquisitions under "Spectra". The four acquisitions
// of a measurement (upwelling and downwelling, light and dark) are selected
// by direction and dark flag among records of the first listed spectrometer.
// Some firmware writes dark records to a separate ".pico.dark" file; use
// FindDarkFile and DecodeWithDark for those.
package pico
