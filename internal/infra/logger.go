package infra

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger собирает zap логгер по конфигу: json для прода, console для локальной отладки.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logger level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown logger format %q", cfg.Format)
	}
	zc.Level = level

	return zc.Build()
}
