// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Sync components take a *Logger at construction and use Named children so
// diagnostics can be attributed (dispatch, diff, extension, relay).
//
// Example Usage:
//
//	logger := logging.NewDefault().Named("dispatch")
//	logger.Warn("dropping frame", zap.String("reason", "unknown_kind"))
package logging
