// Package logging provides structured logging utilities for the SpecDAL command and library packages.
//
// # Overview
//
// This package wraps the standard library slog package with SpecDAL defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("specdal", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("reading files", "count", 12)
//	    slog.Debug("stitch pass", "pass", 2)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("specdal", "v2.0.0", "debug")
//	logger.Info("pipeline starting", "workers", 8)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug specdal read leaf_00001.asd
//	LOG_LEVEL=error specdal process *.sig
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "read files",
//	    "module": "specdal",
//	    "version": "v1.0.0",
//	    "count": 12
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "stitch.Stitch",
//	        "file": "stitch.go",
//	        "line": 45
//	    },
//	    "msg": "stitch pass",
//	    "module": "specdal",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("specdal", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("collection interpolated",
//	    "collection", c.Name(),
//	    "spectra", c.Len(),
//	    "duration_ms", 125,
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("dark file paired", "dark", p) // Development/troubleshooting
//	slog.Info("pipeline finished")            // Normal operations
//	slog.Warn("skipping unreadable file")     // Potential issues
//	slog.Error("join failed")                 // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("failed to decode file",
//	    "error", err,
//	    "file", path,
//	    "run_id", runID,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/cli - CLI command logging
//   - pkg/reader - Decoder dispatch logging
//   - pkg/collection - Batch read and fan-out logging
//   - pkg/join - Dropped-record warnings
//   - pkg/pipeline - Pipeline stage logging
//
// All components share consistent logging format and configuration.
package logging
