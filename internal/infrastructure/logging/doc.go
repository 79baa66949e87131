// Package logging provides structured logging for the extractor CLI.
//
// This package wraps Go's standard log/slog package to keep log output
// consistent: level filtering, text or JSON format, and default fields
// (service, version) on every entry.
//
// # Configuration
//
// Logging is configured via the LoggingConfig section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	log := logging.New(cfg.Logging, "1.0.0")
//	log.Info("parsing project", "path", path)
//
// Never log project passwords or derived key material.
package logging
