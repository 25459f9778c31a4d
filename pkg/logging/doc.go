// Package logging provides structured logging utilities for grafprov.
//
// # Overview
//
// This package wraps the standard library slog package with grafprov defaults
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
//	    logging.SetDefaultStructuredLoggerWithLevel("grafprov", "v1.0.0", "")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("creating service account", "name", "sre-bot")
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("grafprov", "v2.0.0", "debug")
//	logger.Info("grafana request", "path", "/api/datasources")
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug grafprov provision
//	LOG_LEVEL=error grafprov dashboard render
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
//	    "msg": "grafana request",
//	    "module": "grafprov",
//	    "version": "v1.0.0",
//	    "status": 201
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "grafana.(*Client).do",
//	        "file": "client.go",
//	        "line": 45
//	    },
//	    "msg": "retrying grafana request",
//	    "module": "grafprov",
//	    "version": "v1.0.0"
//	}
//
// # Integration
//
// This package is used by:
//   - pkg/cli - logger installation from --log-level
//   - pkg/grafana - per-request logging
//   - pkg/provisioner - stage outcomes
//
package logging
