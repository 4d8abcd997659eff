// Package logger provides structured logging utilities built on Go's
// standard slog package: a factory with environment-specific presets and
// a small set of pre-built attributes for common logging scenarios.
//
// Basic usage:
//
//	import "github.com/zpqio/zpq/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("zpq"))
//
//	// Production: JSON format, info level
//	log := logger.New(logger.WithProduction("zpq"))
//
//	log.Info("consumer starting",
//		logger.Component("consumer"),
//	)
//
// Attribute helpers use the empty Attr pattern for nil safety, so calls
// like log.Error("msg", logger.Error(err)) need no explicit nil checks.
package logger
