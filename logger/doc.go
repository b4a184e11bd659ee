// Package logger provides structured logging for objfetch using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. The request layer
// emits its per-attempt telemetry records through this package.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("requestor")
//	log.Info("attempt completed", logger.Fields("status", 200))
package logger
