package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/logging"
)

// env carries the flags shared by commands that reach the upstream.
type env struct {
	configPath string
	logLevel   string
}

func (e *env) setFlags(f *flag.FlagSet) {
	f.StringVar(&e.configPath, "config", "", "path to config.json or config.yaml (optional)")
	f.StringVar(&e.logLevel, "log-level", "", "overrides LOG_LEVEL")
}

func (e *env) load() (config.Config, *httpx.Client, *zap.Logger, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("config: %w", err)
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, "console")
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, httpx.New(cfg.RequestTimeout()), logger, nil
}
