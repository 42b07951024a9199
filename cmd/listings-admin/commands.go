package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/app"
	"jobmate/listings-service/internal/cleanup"
	"jobmate/listings-service/internal/config"
	"jobmate/listings-service/internal/db"
	"jobmate/listings-service/internal/linkcheck"
	"jobmate/listings-service/internal/scheduler"
)

// withApp builds Core from the environment, fills targets, and runs fn
// between start and stop.
func withApp(ctx context.Context, fn func() error, targets ...any) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a := fx.New(fx.Supply(cfg), app.Core, fx.Populate(targets...))
	if err := a.Err(); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop(context.Background())
	return fn()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				pool   *pgxpool.Pool
				logger *zap.Logger
			)
			return withApp(cmd.Context(), func() error {
				applied, err := db.Migrate(cmd.Context(), pool, logger)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
				}
				return nil
			}, &pool, &logger)
		},
	}
}

func runCommand() *cobra.Command {
	ids := []string{app.TaskScrape, app.TaskCleanup, app.TaskDedup, app.TaskLinkCheck}
	return &cobra.Command{
		Use:       "run <" + strings.Join(ids, "|") + ">",
		Short:     "Run one maintenance task now and print its stats",
		Args:      cobra.ExactArgs(1),
		ValidArgs: ids,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks app.Tasks
			return withApp(cmd.Context(), func() error {
				task, ok := tasks.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", scheduler.ErrUnknownTask, args[0])
				}
				result, err := task.Run(cmd.Context())
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
					return perr
				}
				return err
			}, &tasks)
		},
	}
}

func cleanupPreviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-preview",
		Short: "Count what the next cleanup run would consider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc *cleanup.Service
			return withApp(cmd.Context(), func() error {
				preview, err := svc.Preview(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), preview)
			}, &svc)
		},
	}
}

func nextRunCommand() *cobra.Command {
	var at, tz, from string

	cmd := &cobra.Command{
		Use:   "next-run",
		Short: "Print the next instant a daily HH:MM fires in a timezone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hour, minute, err := config.ParseClock(at)
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("timezone %q: %w", tz, err)
			}
			after := time.Now()
			if from != "" {
				if after, err = time.Parse(time.RFC3339, from); err != nil {
					return fmt.Errorf("--from must be RFC3339: %w", err)
				}
			}

			next := scheduler.NextRun(after, loc, hour, minute)
			if next.IsZero() {
				return fmt.Errorf("no run found for %s in %s", at, tz)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", next.UTC().Format(time.RFC3339), next.In(loc).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "02:00", "Wall-clock time, HH:MM")
	cmd.Flags().StringVar(&tz, "tz", "Europe/London", "IANA timezone")
	cmd.Flags().StringVar(&from, "from", "", "Reference instant (RFC3339), default now")
	return cmd
}

func checkURLCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check-url <url>",
		Short: "Classify one apply URL the way the link checker would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := linkcheck.NewChecker(nil, linkcheck.Options{Timeout: timeout}, nil)
			out := checker.Check(cmd.Context(), args[0])

			result := map[string]any{
				"url":     args[0],
				"status":  out.Status,
				"expired": out.Expired,
				"reason":  out.Reason,
			}
			if out.Err != nil {
				result["error"] = out.Err.Error()
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}
