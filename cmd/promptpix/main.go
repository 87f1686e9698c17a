package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basel-ax/promptpix/internal/config"
	"github.com/basel-ax/promptpix/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "promptpix",
	Short:         "Text-to-image generation service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(log)
	log.Debug("configuration loaded",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("http_addr", cfg.HTTPAddr),
	)
	return cfg, log, nil
}
