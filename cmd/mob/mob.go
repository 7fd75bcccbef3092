// Package mob contains the main executable for renio.
package mob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cmdp "github.com/renaissanceio/renio/cmd"
	"github.com/renaissanceio/renio/config"
	"github.com/renaissanceio/renio/records"
)

// New returns the root command with run, records and version subcommands.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "renio",
		Short:         "discover attendees nearby and score time spent together",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), recordsCmd(), versionCmd())
	return root
}

func runCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var duration time.Duration
	c := &cobra.Command{
		Use:   "run",
		Short: "run discovery on a simulated conference floor",
		RunE: func(c *cobra.Command, args []string) error {
			if err := cmdp.LoadConfig(c.Flags(), &cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Identity == "" {
				return errors.New("identity is required")
			}
			ctx, cancel := cmdp.Context(c.Context())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runFloor(ctx, &cfg, c.OutOrStdout())
		},
	}
	cmdp.AddFlags(c.Flags(), &cfg)
	cmdp.AddDiscoveryFlags(c.Flags(), &cfg)
	c.Flags().DurationVar(&duration, "duration", 0, "Stop after this long, zero runs until interrupted")
	return c
}

func recordsCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var top int
	c := &cobra.Command{
		Use:   "records",
		Short: "print the attendees with the highest scores",
		RunE: func(c *cobra.Command, args []string) error {
			if err := cmdp.LoadConfig(c.Flags(), &cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			loggers, err := cfg.LOGGING.Loggers()
			if err != nil {
				return err
			}
			store, err := records.Open(cfg.RecordsPath(), records.WithLogger(loggers.Records))
			if err != nil {
				return err
			}
			loggers.App.Debug("printing records", zap.String("path", store.Path()), zap.Int("top", top))
			return printRecords(c.OutOrStdout(), store.Top(top))
		},
	}
	cmdp.AddFlags(c.Flags(), &cfg)
	c.Flags().IntVarP(&top, "top", "n", 10, "Number of records to print, zero prints all")
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprint(c.OutOrStdout(), cmdp.Version)
			if cmdp.Commit != "" {
				fmt.Fprintf(c.OutOrStdout(), "+%s", cmdp.Commit)
			}
			if cmdp.Branch != "" {
				fmt.Fprintf(c.OutOrStdout(), "+%s", cmdp.Branch)
			}
			fmt.Fprintln(c.OutOrStdout())
		},
	}
}
