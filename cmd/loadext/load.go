package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/loadext/pkg/cli"
	"mercator-hq/loadext/pkg/loadext"
	"mercator-hq/loadext/pkg/sqlite"
	"mercator-hq/loadext/pkg/telemetry/metrics"
)

var loadFlags struct {
	exts            []string
	metricsTextfile string
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a batch of extensions",
	Long: `Load extensions into the database as one guarded batch.

Extensions come from --ext flags or, when none are given, from the extensions
section of the config file. Loading stops at the first failure. Extension
loading is switched off again before the command returns.

An --ext value is a library path, optionally followed by #entry_point. The
value is split at the last '#'; end the value with '#' to keep a '#' in the
path.

Examples:
  # Load the configured extensions into an in-memory database
  loadext load

  # Load two libraries into app.db
  loadext load --db app.db --ext ./vec0.so --ext ./crypto.so#sqlite3_crypto_init

  # JSON result and a node exporter textfile
  loadext load -o json --metrics-textfile /var/lib/node_exporter/loadext.prom`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringArrayVar(&loadFlags.exts, "ext", nil, "extension to load as path[#entry_point] (repeatable)")
	loadCmd.Flags().StringVar(&loadFlags.metricsTextfile, "metrics-textfile", "", "write metrics to this file (overrides telemetry.metrics.textfile)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}

	exts := env.cfg.Requests()
	if len(loadFlags.exts) > 0 {
		if exts, err = parseExtFlags(loadFlags.exts); err != nil {
			return err
		}
	}

	conn, err := sqlite.Open(env.driver, env.cfg.Database.Path)
	if err != nil {
		return cli.NewCommandError("load", err)
	}
	defer conn.Close()

	textfile := env.cfg.Telemetry.Metrics.Textfile
	if loadFlags.metricsTextfile != "" {
		textfile = loadFlags.metricsTextfile
	}

	b := newBatch(env, conn, textfile != "")
	report, loadErr := b.run(env, exts)

	if textfile != "" {
		if err := b.collector.WriteTextfile(textfile); err != nil {
			env.logger.Warn("Failed to write metrics textfile", "error", err)
		}
	}

	if err := env.report(report); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if loadErr != nil {
		return cli.NewCommandError("load", loadErr)
	}
	return nil
}

// batch runs extension batches on one connection and reports each run.
type batch struct {
	conn      sqlite.Conn
	observer  loadext.Observer
	recorder  *cli.Recorder
	collector *metrics.Collector
}

// newBatch wires a result recorder and, when metrics are enabled or forced,
// a metrics collector for batches on conn.
func newBatch(env *environment, conn sqlite.Conn, forceMetrics bool) *batch {
	b := &batch{conn: conn, recorder: &cli.Recorder{}}

	observers := []loadext.Observer{b.recorder}
	if env.cfg.Telemetry.Metrics.Enabled || forceMetrics {
		mcfg := env.cfg.Telemetry.Metrics
		mcfg.Enabled = true
		b.collector = metrics.NewCollector(&mcfg, nil)
		observers = append(observers, b.collector)
	}
	b.observer = loadext.MultiObserver(observers...)
	return b
}

// run loads exts as one batch, logging under env's run id.
func (b *batch) run(env *environment, exts []loadext.Extension) (*cli.LoadReport, error) {
	b.recorder.Reset()

	loader := loadext.New(b.conn,
		loadext.WithLogger(env.logger.Slog()),
		loadext.WithObserver(b.observer),
	)
	err := loader.LoadExtensions(exts)
	report := cli.NewLoadReport(env.runID, env.cfg.Database.Path, env.driver, exts, b.recorder, err)

	if err != nil {
		env.logger.Error("Extension batch failed", "requested", len(exts), "loaded", report.Loaded(), "error", err)
	} else {
		env.logger.Info("Extension batch loaded", "requested", len(exts), "loaded", report.Loaded())
	}
	if report.Cleanup != "" {
		env.logger.Warn("Extension loading could not be disabled", "error", report.Cleanup)
	}

	return report, err
}

// parseExtFlags converts --ext values to load requests.
func parseExtFlags(values []string) ([]loadext.Extension, error) {
	exts := make([]loadext.Extension, 0, len(values))
	for i, v := range values {
		ext, err := parseExtFlag(v)
		if err != nil {
			return nil, cli.NewConfigError(fmt.Sprintf("ext[%d]", i), err.Error())
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// parseExtFlag splits "path#entry" at the last '#'.
func parseExtFlag(v string) (loadext.Extension, error) {
	path, entry := v, ""
	if i := strings.LastIndexByte(v, '#'); i >= 0 {
		path, entry = v[:i], v[i+1:]
	}
	if path == "" {
		return loadext.Extension{}, fmt.Errorf("empty extension path in %q", v)
	}
	return loadext.Extension{Path: path, EntryPoint: entry}, nil
}
