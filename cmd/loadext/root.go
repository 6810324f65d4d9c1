package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/loadext/pkg/cli"
	"mercator-hq/loadext/pkg/config"
	"mercator-hq/loadext/pkg/sqlite"
	"mercator-hq/loadext/pkg/telemetry/logging"
)

// defaultConfigFile is read when present; its absence is not an error.
const defaultConfigFile = "loadext.yaml"

var (
	// Global flags
	cfgFile      string
	verbose      bool
	dbPath       string
	driverName   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "loadext",
	Short: "Load SQLite extensions safely",
	Long: `loadext loads SQLite extension libraries into a database connection.

Extension loading is enabled only for the duration of a batch and is always
switched off again afterwards, whether the batch succeeds, fails or panics.

Configuration is read from loadext.yaml (or --config) and LOADEXT_*
environment variables; --db and --driver override the database section.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "", "sqlite driver: auto, native, purego (overrides database.driver)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json")
}

// environment is what every command needs after flag and config processing.
type environment struct {
	ctx       context.Context
	cfg       *config.Config
	logger    *logging.Logger
	base      *logging.Logger
	runID     string
	driver    string
	formatter cli.Formatter
	out       io.Writer
}

// setup loads configuration, applies the global flags and builds the logger.
// cmd may be nil.
func setup(cmd *cobra.Command) (*environment, error) {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if driverName != "" {
		cfg.Database.Driver = driverName
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	driver, err := sqlite.ResolveDriver(cfg.Database.Driver)
	if err != nil {
		return nil, cli.NewConfigError("driver", err.Error())
	}

	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, stderr(cmd)))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithDatabase(ctx, cfg.Database.Path)
	ctx = logging.WithDriver(ctx, driver)

	return &environment{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger.WithContext(ctx),
		base:      logger,
		runID:     runID,
		driver:    driver,
		formatter: cli.NewFormatter(format),
		out:       stdout(cmd),
	}, nil
}

// nextRun returns a copy of e with a fresh run id, for commands that run
// more than one batch.
func (e *environment) nextRun() *environment {
	next := *e
	next.runID = uuid.NewString()
	next.ctx = logging.WithRunID(e.ctx, next.runID)
	next.logger = e.base.WithContext(next.ctx)
	return &next
}

// loadConfig reads cfgFile with environment overrides. A missing default
// config file yields the defaults; a missing explicit one is an error.
func loadConfig() (*config.Config, error) {
	if cfgFile == defaultConfigFile {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			return config.DefaultConfigWithEnvOverrides()
		}
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// report writes a command result in the selected format.
func (e *environment) report(data any) error {
	return e.formatter.FormatTo(e.out, data)
}

func stdout(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.OutOrStdout()
	}
	return os.Stdout
}

func stderr(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}
