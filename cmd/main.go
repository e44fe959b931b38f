package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadConfig reads path when it exists and overlays .env and LEARNX_* variables.
func loadConfig(path string, logger *log.Logger) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}
	config.ApplyEnv()
	return config
}

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if v := os.Getenv("LEARNX_CONFIG"); v != "" {
		configPath = v
	}

	runner := NewRunner(RunnerOpts{
		Config:     loadConfig(configPath, logger),
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "learnx",
		Usage:    "Course Q&A and narrated presentations from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not logged in; run 'learnx auth login'", "error", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
