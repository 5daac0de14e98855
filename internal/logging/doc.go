// Package logging provides structured logging with per-module log level
// configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to an in-memory ring buffer backing the logs API and SSE stream
//
// # Usage
//
// Configure the logging system once at startup:
//
//	logging.Configure(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"process":  "debug",  // Per-module overrides
//			"recorder": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("recorder")
//	logger.Info("Recording started", "path", path)
//	logger.Warn("Segment missing", "file", name)
//
// Loggers are cached per module and their levels can be changed at runtime
// with ApplyLevels, which the config watcher uses on hot reload.
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t grabnode              # All grabnode logs
//	journalctl -t grabnode -f           # Follow live
//	journalctl -t grabnode MODULE=process
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	process = "debug"
//	api = "warn"
package logging
