package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := shared.FindConfigFile()
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "err", err)
		}
	}
	config.ApplyEnv()

	if config.Log.File != "" {
		fileLogger, f, err := shared.NewFileLogger(config.Log.File)
		if err != nil {
			logger.Warn("failed to open log file, logging to stderr", "err", err)
		} else {
			defer f.Close()
			logger = fileLogger
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Warn("invalid configuration, using defaults", "path", configPath, "err", err)
		config = shared.DefaultConfig()
		config.ApplyEnv()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "songsaver",
		Usage:    "Download Spotify tracks, albums and playlists from YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		runner.Close()
		if errors.Is(err, errNothingDownloaded) {
			logger.Error(err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
