// Command uploadwatcher monitors the vendor portal against the assignments
// webhook and notifies about files assigned but not yet uploaded.
//
// Usage:
//
//	uploadwatcher run            # daemon: periodic checks + status API
//	uploadwatcher check          # single check, print the result, exit
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"UploadWatcher/internal/app"
	"UploadWatcher/internal/config"
	"UploadWatcher/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "uploadwatcher",
		Short:         "Watch the vendor portal for files assigned but not uploaded",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(&logLevel))
	root.AddCommand(newCheckCmd(&logLevel))
	return root
}

func newRunCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the check loop and the status API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(levelOr(cfg, *logLevel), cfg.Logging.Format)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			return nil
		},
	}
}

func newCheckCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single check and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(levelOr(cfg, *logLevel), cfg.Logging.Format)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := application.RunOnce(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func levelOr(cfg config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.Logging.Level
}
