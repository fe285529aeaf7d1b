// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command hdrd serves the typed-header API, the raw HTTP/1.x inspector and
// the caching proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/hdrkit/internal/config"
	"github.com/ManuGH/hdrkit/internal/daemon"
	hdlog "github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "parse":
			os.Exit(runParseCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	hdlog.Configure(hdlog.Config{
		Level:   "info",
		Service: daemon.ServiceName,
		Version: version.Version,
	})
	logger := hdlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath := resolveConfigPath(*configPath)

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(effectiveConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(hdlog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	hdlog.Configure(hdlog.Config{
		Level:   cfg.LogLevel,
		Service: daemon.ServiceName,
		Version: version.Version,
	})

	if effectiveConfigPath != "" {
		logger.Info().
			Str(hdlog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Strs("env_overrides", loader.ConsumedEnvKeys()).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(hdlog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Strs("env_overrides", loader.ConsumedEnvKeys()).
			Msg("loaded configuration from environment and defaults")
	}

	var reloadLoader *config.Loader
	if effectiveConfigPath != "" {
		reloadLoader = loader
	}
	app, err := daemon.Bootstrap(ctx, daemon.Options{
		Version: version.Version,
		Config:  cfg,
		Loader:  reloadLoader,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(hdlog.FieldEvent, "bootstrap.failed").
			Msg("failed to bootstrap daemon")
	}

	// Start daemon app (blocks until shutdown)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str(hdlog.FieldEvent, "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

// resolveConfigPath prefers an explicit path, then ${HDRKIT_DATA_DIR}/config.yaml
// when that file exists. An empty result means ENV and defaults only.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
