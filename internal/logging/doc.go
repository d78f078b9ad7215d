// Package logging provides structured logging for tunerbridge.
//
// This package wraps zap with convenience functions for common logging
// patterns used throughout the daemon and CLI.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (per-intent reconciliation traces)
//   - Info: Normal operations (device discovery, pass completion)
//   - Warn: Non-fatal issues (fetch failures, registry intent failures)
//   - Error: Serious issues (control server startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device discovered",
//	    zap.String("device_id", "1052D6A8"),
//	    zap.String("address", "10.0.0.5"),
//	)
//
// # Configuration
//
// CLI commands are silent by default; set TUNERBRIDGE_LOG_LEVEL to enable
// output. The daemon initializes logging explicitly from its configuration:
//
//	if err := logging.Initialize("info"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
