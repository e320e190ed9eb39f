// Package reader dispatches instrument files to their format decoder.
//
// The format is chosen by file extension:
//
//	.asd                  binary record (package asd)
//	.sed                  verbose tab-separated text (package sed)
//	.sig                  compact whitespace text (package sig)
//	.pico .light .dark    JSON container (package pico)
//
// A trailing .gz or .zst suffix is decompressed transparently. Decoded
// metadata carries a "checksum" entry, the xxhash64 digest of the raw bytes,
// which batch readers use to skip duplicate files.
//
// Usage:
//
//	table, md, err := reader.Read(ctx, "leaf_00001.asd")
//	if err != nil {
//	    return err
//	}
//
// Unknown extensions return UNSUPPORTED_FORMAT.
package reader
