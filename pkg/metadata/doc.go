// Package metadata provides the ordered, mixed-type record attached to every
// spectrum.
//
// A Metadata record maps string keys to Values, preserving insertion order
// for output. A Value is one of string, integer, float, number pair or null;
// concrete values are created with Str, Int, Float, NewPair and Null, or via
// ToValue from decoded JSON/YAML.
//
// Every instrument decoder produces the RequiredKeys set (file,
// instrument_type, integration_time, measurement_type, gps_time_target,
// gps_time_reference, wavelength_range) and may add more.
//
// Building a record:
//
//	md := metadata.NewBuilder().
//	    SetString(metadata.KeyFile, path).
//	    SetString(metadata.KeyInstrumentType, "ASD").
//	    SetInt(metadata.KeyIntegrationTime, 10).
//	    SetPair(metadata.KeyWavelengthRange, 350, 2500).
//	    SetNull(metadata.KeyGPSTimeReference).
//	    Build()
//
// Selecting fields with wildcards:
//
//	gps := md.FilterIn([]string{"gps_*"})
package metadata
