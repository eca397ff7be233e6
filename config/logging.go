package config

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger from the log section.
func NewLogger(lc LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zc.Level = level

	if lc.Format == "json" {
		zc.Encoding = "json"
	} else {
		zc.Encoding = "console"
	}

	if lc.Output != "" {
		zc.OutputPaths = []string{lc.Output}
	}

	return zc.Build()
}

// MustLogger falls back to a production logger when the config is unusable.
func MustLogger(lc LogConfig) *zap.Logger {
	if log, err := NewLogger(lc); err == nil {
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
