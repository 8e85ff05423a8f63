package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidyarr/tidyarr/internal/config"
)

var version = "dev"

var (
	flagConfig   string
	flagLogLevel string
	flagLogPath  string

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "tidyarr",
	Short: "Reorganize media directories into a canonical library layout",
	Long: `tidyarr - declarative media file reorganization

Builds rename plans for directories of video and subtitle files,
applies them safely (staged, with rollback), and can monitor watch
roots continuously to process new arrivals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		setupLogging()
		return nil
	},
}

// Execute runs the CLI, exiting non-zero with a readable message on
// unrecoverable errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogPath, "log-path", "", "Directory for logs and plan artifacts")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("tidyarr {{.Version}}\n")
}

// loadConfig resolves the config file (explicit flag, then standard
// search order) and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	path := flagConfig
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		path = discovered
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogPath != "" {
		cfg.Log.Path = flagLogPath
	}
	return nil
}

func setupLogging() {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
