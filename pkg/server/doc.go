// Package server provides the HTTP server of the SpecDAL API.
//
// The server is a thin, stateless shell around a set of API handlers:
//
//   - Rate limiting using a token bucket (golang.org/x/time/rate)
//   - Request ID tracking through the X-Request-Id header
//   - Request body and handler time limits
//   - Panic recovery
//   - Prometheus metrics on /metrics
//   - Health and readiness probes on /health and /ready
//   - Graceful shutdown on SIGINT and SIGTERM
//
// # Usage
//
//	s := server.New(
//	    server.WithName("specdald"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/spectra": h.HandleSpectra,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Errors
//
// Failed requests return an ErrorResponse. WriteErrorFromErr maps the code of
// a structured error to the HTTP status: invalid requests are 400, files that
// cannot be decoded or joined are 422, unsupported formats are 415.
//
// # Configuration
//
// NewConfig reads PORT, SPECDAL_RATE_LIMIT (requests per second; the burst
// is twice the limit) and SHUTDOWN_TIMEOUT_SECONDS from the environment.
//
// # API Versioning
//
// Clients may request a version with a vendor media type:
//
//	Accept: application/vnd.enspec.specdal.v1+json
//
// The negotiated version is reported in the X-API-Version header.
package server
