package app

import (
	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/logger"
	"github.com/rs/zerolog"
)

// Runtime holds what every entry point needs before building the App.
type Runtime struct {
	Config    *config.GlobalConfig
	Logger    zerolog.Logger
	LogBuffer *logger.LogBuffer
}

// Bootstrap loads and validates the configuration and creates the root
// logger, which also writes into a fresh run-scoped log buffer.
func Bootstrap(configPath string) (*Runtime, error) {
	cfg, err := config.LoadGlobalConfig(configPath)
	if err != nil {
		return nil, common.WrapError(err, "could not load configuration")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	buf := logger.NewLogBuffer()
	log, err := logger.New(cfg.LogConfig, buf)
	if err != nil {
		return nil, common.WrapError(err, "could not initialize logger")
	}

	return &Runtime{Config: cfg, Logger: log, LogBuffer: buf}, nil
}
