// listings-admin runs one-off maintenance against the listings database:
// migrations, manual task runs, and schedule and link diagnostics.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "listings-admin",
		Short:         "Maintenance commands for the listings service",
		SilenceUsage:  true,
	}
	root.AddCommand(
		migrateCommand(),
		runCommand(),
		cleanupPreviewCommand(),
		nextRunCommand(),
		checkURLCommand(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
