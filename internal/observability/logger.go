// Package observability provides the structured logger and the formatted
// output utilities for verbose CLI mode.
package observability

import "go.uber.org/zap"

// NewLogger returns a zap logger. When verbose is true, uses development
// config (human-readable, debug level); otherwise uses production config
// (JSON, info level).
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
