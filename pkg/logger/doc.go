// Package logger provides structured logging for viewledger built on zerolog.
//
// The package exposes a Logger interface so components can log without
// depending on a concrete backend, plus a global instance initialized from
// the logging configuration. Console output uses colored pretty-printing;
// configuring a log file switches to a multi-writer that also appends JSON
// lines to the file.
//
// Usage:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger()
//	log.InfoWithFields("run started", map[string]interface{}{
//		"dataset": "videos.csv",
//		"items":   42,
//	})
//
// Tests should use NewNopLogger or NewTestLogger instead of the global
// instance.
package logger
