// Package logging builds the zap logger shared by the CLI and the converters.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a development logger when debug is set, otherwise a
// production logger that only reports warnings and errors.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("building development logger: %w", err)
		}
		return logger, nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building production logger: %w", err)
	}
	return logger, nil
}
