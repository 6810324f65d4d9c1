package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/loadext/pkg/cli"
	"mercator-hq/loadext/pkg/config"
	"mercator-hq/loadext/pkg/sqlite"
)

var watchFlags struct {
	metricsAddr string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the extension batch when the config file changes",
	Long: `Keep one database connection open and load the configured extensions,
then load them again every time the config file changes.

Changes are debounced (watch.debounce). Invalid configurations are logged and
skipped. Changes to the database section need a restart. The command runs
until SIGINT or SIGTERM.

Examples:
  loadext watch --config loadext.yaml
  loadext watch --config loadext.yaml --metrics-addr :9464`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(env.ctx)
	defer stop()

	return watch(ctx, env)
}

// watch runs the initial batch and then one batch per configuration change
// until ctx is done.
func watch(ctx context.Context, env *environment) error {
	conn, err := sqlite.Open(env.driver, env.cfg.Database.Path)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer conn.Close()

	b := newBatch(env, conn, watchFlags.metricsAddr != "")

	if watchFlags.metricsAddr != "" {
		srv := &http.Server{
			Addr:              watchFlags.metricsAddr,
			Handler:           metricsMux(b),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				env.logger.Error("Metrics server failed", "addr", srv.Addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		env.logger.Info("Serving metrics", "addr", srv.Addr)
	}

	w, err := config.NewWatcher(cfgFile, env.cfg.Watch.Debounce, env.logger.Slog())
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer w.Stop()

	database := env.cfg.Database
	runBatch := func(run *environment, cfg *config.Config) {
		if dbPath == "" && driverName == "" && cfg.Database != database {
			run.logger.Warn("Database settings changed; restart to apply", "path", cfg.Database.Path, "driver", cfg.Database.Driver)
		}
		report, _ := b.run(run, cfg.Requests())
		if err := run.report(report); err != nil {
			run.logger.Error("Failed to write result", "error", err)
		}
	}
	rerun := func(cfg *config.Config) { runBatch(env.nextRun(), cfg) }

	runBatch(env, env.cfg)

	if err := w.Watch(ctx, rerun); err != nil {
		return cli.NewCommandError("watch", fmt.Errorf("config watcher: %w", err))
	}
	return nil
}

func metricsMux(b *batch) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", b.collector.Handler())
	return mux
}
