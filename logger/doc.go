// Package logger provides structured logging for the watershed tools
// using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying run, stage and algorithm fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("pipeline")
//	log.Info("stage finished", logger.Fields(logger.FieldStage, "fill"))
package logger
