package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/loadext/pkg/cli"
	"mercator-hq/loadext/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without opening a database.

Every field is checked, including each extension path and entry point, and
all problems are reported together. Environment overrides are applied before
validation.

Examples:
  loadext validate
  loadext validate --config /etc/loadext/loadext.yaml -o json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}

	report := &cli.ValidateReport{Config: cfgFile}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	var verr config.ValidationError
	switch {
	case err == nil:
		report.Valid = true
		report.Extensions = len(cfg.Extensions)
	case errors.As(err, &verr):
		for _, fe := range verr.Errors {
			report.Errors = append(report.Errors, fe.Error())
		}
	default:
		return cli.NewConfigError("config", err.Error())
	}

	if err := cli.NewFormatter(format).FormatTo(stdout(cmd), report); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !report.Valid {
		return err
	}
	return nil
}
