// Package log provides structured diagnostic capture for the Lens agent.
//
// This package defines the Logger interface and Event types for the
// agent's connection diagnostics: step progress reporting (each phase of
// a connection attempt emits started/completed/failed events), raw frame
// capture at the transport layer, connection state changes, and errors.
// It is separate from operational logging (slog) - diagnostic capture
// produces a machine-readable trace the desktop tooling can replay when
// debugging pairing problems.
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Diagnostics = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Diagnostics, _ = log.NewFileLogger("/data/app/lens/agent.llog")
//
//	// Both: use MultiLogger
//	cfg.Diagnostics = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Log files use CBOR encoding with .llog extension.
package log
