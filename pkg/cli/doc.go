/*
Package cli provides command-line helpers for the loadext command.

Output Formatting:

Command results are reports that print as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Load Reports:

A Recorder observes a loader and turns the batch into per-extension results
(loaded, failed, invalid, skipped):

	rec := &cli.Recorder{}
	loader := loadext.New(conn, loadext.WithObserver(rec))
	err := loader.LoadExtensions(exts)
	report := cli.NewLoadReport(runID, path, driver, exts, rec, err)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
