package utils

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger builds a sugared zap logger. Production mode emits JSON at info level,
// anything else uses the human readable development encoder at debug level.
func NewLogger(env string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
