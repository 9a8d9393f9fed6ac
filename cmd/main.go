package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/shared"
)

// configPath returns PLAYLISTER_CONFIG or ./config.toml.
func configPath() string {
	if p := os.Getenv("PLAYLISTER_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

func main() {
	logger := shared.NewLogger(nil)

	path := configPath()
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loadedConfig, err := shared.LoadConfig(path); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)
	shared.SetLogLevel(logger, config.Server.LogLevel)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "playlister",
		Usage:    "Generate playlists from keywords and publish them to YouTube",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
