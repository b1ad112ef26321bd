package workflow

import (
	"log"

	"github.com/davidroman0O/gostage"
)

// stdLogger adapts the standard library logger to the workflow engine
type stdLogger struct{}

// NewLogger returns a gostage.Logger writing through the standard logger
func NewLogger() gostage.Logger {
	return &stdLogger{}
}

// Debug implements Logger.Debug
func (l *stdLogger) Debug(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}

// Info implements Logger.Info
func (l *stdLogger) Info(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

// Warn implements Logger.Warn
func (l *stdLogger) Warn(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}

// Error implements Logger.Error
func (l *stdLogger) Error(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
