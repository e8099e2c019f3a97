// Package log provides the structured service event log for the filament
// sensor web service.
//
// This package defines the Logger interface and the Event type used to record
// what the service does: requests served, status streams opened and closed,
// settings merges and printer discovery. It is separate from operational
// logging (the standard log package and slog): the event log is what the
// device exposes to its own web UI through the log endpoints, and what the
// ofs-log tool reads back from disk.
//
// # Basic Usage
//
//	// Keep the most recent lines in memory for /api/logs_live
//	mem := log.NewMemoryLogger(200)
//
//	// Also mirror events to the console and to a binary file
//	file, _ := log.NewFileLogger("/var/log/ofs/events.olog")
//	logger := log.NewMultiLogger(mem, file, log.NewSlogAdapter(slog.Default()))
//
// # File Format
//
// Log files are a plain concatenation of CBOR-encoded events using integer
// map keys. The ofs-log CLI tool provides viewing, export and statistics.
package log
