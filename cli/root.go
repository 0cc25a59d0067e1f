// Package cli implements the heartrisk command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/monitoring"
)

const defaultConfigFile = "config.yaml"

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "heartrisk",
	Short: "Heart disease risk scoring service",
	Long: `heartrisk collects personal health indicators, encodes them into the
column layout a frozen classifier was trained on and reports the estimated
probability of heart disease.

Examples:
  # Run the HTTP API
  heartrisk serve --config config.yaml

  # Score a single submission
  heartrisk predict --input answers.json

  # Write the feature schema that ships with a model artifact
  heartrisk schema build --out models/schema.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config file")
}

// initialize loads the configuration and builds the logger.
func initialize() error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	l, err := monitoring.NewLogger(loaded.Log)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			defaults := config.Default()
			return &defaults, nil
		}
		path = defaultConfigFile
	}
	return config.Load(path)
}
