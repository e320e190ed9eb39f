// Package errors provides structured error types for better observability
// and programmatic error handling across the decoders, spectral operators
// and collection containers.
//
// Every failure surfaced by the core carries an ErrorCode drawn from a
// closed taxonomy (UNSUPPORTED_FORMAT, CORRUPT_FILE, MISSING_COLUMNS,
// UNSTITCHABLE_OVERLAP and so on). Callers branch on the code rather than
// on message text:
//
//	_, err := reader.Read(path)
//	if errors.IsCode(err, errors.ErrCodeUnsupportedFormat) {
//	    // skip silently
//	}
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeCorruptFile,
//	    "channel data exceeds buffer",
//	    cause,
//	    map[string]any{
//	        "file":   path,
//	        "offset": 484,
//	    },
//	)
package errors
