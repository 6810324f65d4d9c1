package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/loadext/pkg/cli"
	"mercator-hq/loadext/pkg/loadext"
	"mercator-hq/loadext/pkg/sqlite"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the engine can load extensions",
	Long: `Open the database and toggle extension loading on and off twice.

The command reports the SQLite version and whether the selected engine
supports extension loading. An engine without support is reported, not
treated as an error; a toggle that fails is.

Examples:
  loadext check
  loadext check --driver purego -o json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}

	conn, err := sqlite.Open(env.driver, env.cfg.Database.Path)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer conn.Close()

	report := &cli.CheckReport{
		Database:  env.cfg.Database.Path,
		Driver:    env.driver,
		Version:   conn.Version(),
		Supported: loadext.Supported(conn),
	}

	var checkErr error
	if report.Supported {
		checkErr = toggleTwice(loadext.New(conn, loadext.WithLogger(env.logger.Slog())))
		if checkErr != nil {
			report.Error = checkErr.Error()
		}
	}

	env.logger.Info("Extension loading checked", "supported", report.Supported, "version", report.Version)

	if err := env.report(report); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if checkErr != nil {
		return cli.NewCommandError("check", checkErr)
	}
	return nil
}

// toggleTwice enables and disables loading twice, always ending disabled.
func toggleTwice(loader *loadext.Loader) error {
	for i := 0; i < 2; i++ {
		if err := loader.WithExtensionLoading(func() error { return nil }); err != nil {
			return err
		}
	}
	return nil
}
