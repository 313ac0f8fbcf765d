// Package logging builds the engine's structured logger. Everything
// downstream takes a *zap.SugaredLogger so tests can pass a nop.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a logger for the given mode. "prod"/"production" gets JSON
// output at info level; anything else gets the console development
// encoder at debug.
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
