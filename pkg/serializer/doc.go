// Package serializer provides encoding and decoding of SpecDAL documents in multiple formats.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, indented representation
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable with preserved structure
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - Aligned text columns for terminal viewing
//   - Values implementing Tabular render their own rows; others are
//     flattened to FIELD/VALUE pairs
//   - Write-only
//
// CSV:
//   - Comma separated Tabular rows, one column per spectrum
//   - Write-only
//
// # Usage - Encoding
//
//	writer := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "out.yaml")
//	defer writer.Close()
//	if err := writer.Serialize(ctx, doc); err != nil {
//	    return err
//	}
//
// An empty path or a path that cannot be created writes to stdout.
//
// # Usage - Decoding
//
//	cfg, err := serializer.FromFile[pipeline.Config]("pipeline.yaml", serializer.WithStrict(true))
//
// Format is detected from the file extension (FormatFromPath). Strict readers
// reject fields the target type does not declare.
package serializer
