package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pevans/potd"
	"github.com/pevans/potd/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a console logger on stderr at the given level.
func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	return cfg.Build()
}

func main() {
	// Settings come from ~/.potd/config.yaml when present, otherwise the
	// built-in defaults. The program takes no arguments.
	cfg, cfgErr := config.Load()

	level := zapcore.InfoLevel
	if cfg != nil {
		level = cfg.Level()
	}

	logger, err := newLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfgErr != nil {
		logger.Fatal("failed to load config", zap.Error(cfgErr))
	}

	service, err := potd.NewServiceFromConfig(cfg, logger)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if _, err := service.Run(context.Background()); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}
