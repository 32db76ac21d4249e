// Package logger provides structured logging on top of zerolog.
//
// Components receive a *Logger at construction and tag themselves:
//
//	log := base.WithComponent("reference.pipeline")
//	log.Info("reference stored", logger.Fields(logger.FieldStorageKey, key))
package logger
