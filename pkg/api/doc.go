// Package api exposes spectral decoding and processing over HTTP.
//
// It configures the reusable pkg/server package with three application
// routes. Each accepts a multipart/form-data body whose file parts are
// instrument files (.asd, .sig, .sed, .pico, optionally gzip or zstd
// compressed). An optional "config" part carries a pipeline configuration in
// YAML or JSON, selected by the part's file name.
//
// # Endpoints
//
//   - POST /v1/spectra - decode "file" parts into a SpectralCollection document
//   - POST /v1/process - decode "file" parts and run the configured pipeline
//   - POST /v1/join    - decode "base" and "rover" parts and join them by time
//
// Query parameters name, measure_type, time_key, direction and tolerance
// override the uploaded configuration.
//
// Example:
//
//	curl -X POST http://localhost:8080/v1/join?tolerance=PT30S \
//	  -F base=@white_00001.sig \
//	  -F rover=@leaf_00001.sig -F rover=@leaf_00002.sig
//
// System endpoints (/health, /ready, /metrics) are provided by pkg/server.
//
// # Configuration
//
// The server reads PORT, SPECDAL_RATE_LIMIT, SHUTDOWN_TIMEOUT_SECONDS and
// LOG_LEVEL from the environment.
package api
