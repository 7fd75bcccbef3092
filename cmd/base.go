// Package cmd is the base package for the renio executables.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/renaissanceio/renio/config"
	"github.com/renaissanceio/renio/log"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// Context returns a context that is cancelled on interrupt or termination.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// AddFlags binds the flags shared by all commands to cfg.
func AddFlags(flags *pflag.FlagSet, cfg *config.Config) {
	/** ======================== BaseConfig Flags ========================== **/
	flags.StringVarP(&cfg.ConfigFile, "config", "c",
		cfg.ConfigFile, "Load configuration from file")
	flags.StringVarP(&cfg.DataDirParent, "data-folder", "d",
		cfg.DataDirParent, "Specify data directory for renio")
	flags.StringVar(&cfg.RecordsFile, "records-file",
		cfg.RecordsFile, "Records file, relative to the data folder unless absolute")
	flags.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "Log as JSON instead of plain text")
	flags.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "Serve prometheus metrics")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr",
		cfg.MetricsAddr, "Address of the metrics server")
	flags.StringVar(&cfg.MetricsPush, "metrics-push",
		cfg.MetricsPush, "Push metrics to url")
	flags.DurationVar(&cfg.MetricsPushPeriod, "metrics-push-period",
		cfg.MetricsPushPeriod, "Push period")
}

// AddDiscoveryFlags binds the flags of commands that run discovery to cfg.
func AddDiscoveryFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVarP(&cfg.Identity, "identity", "i",
		cfg.Identity, "Identity advertised to other attendees")
	flags.BoolVar(&cfg.Advertiser.EmbedIdentity, "embed-identity",
		cfg.Advertiser.EmbedIdentity, "Put the identity into the advertisement instead of only the characteristic")

	/** ======================== Scanner Flags ========================== **/
	flags.DurationVar(&cfg.Scanner.Staleness, "staleness",
		cfg.Scanner.Staleness, "Attendees without a sighting for this long leave the live set")
	flags.IntVar(&cfg.Scanner.MaxConnectAttempts, "max-connect-attempts",
		cfg.Scanner.MaxConnectAttempts, "Attempts to read the identity of an attendee before giving up")
	flags.Int64Var(&cfg.Scanner.MaxConcurrentConnects, "max-concurrent-connects",
		cfg.Scanner.MaxConcurrentConnects, "Connect attempts in flight at the same time")
	flags.Float64Var(&cfg.Scanner.ConnectRate, "connect-rate",
		cfg.Scanner.ConnectRate, "Connect attempts per second")

	/** ======================== Mob Flags ========================== **/
	flags.DurationVar(&cfg.Mob.SweepInterval, "sweep-interval",
		cfg.Mob.SweepInterval, "Interval between sweeps of the live set")
	flags.DurationVar(&cfg.Mob.SaveInterval, "save-interval",
		cfg.Mob.SaveInterval, "Interval between saves of the records")

	/** ======================== Sim Flags ========================== **/
	flags.IntVar(&cfg.Sim.Attendees, "attendees",
		cfg.Sim.Attendees, "Number of simulated attendees on the floor")
	flags.DurationVar(&cfg.Sim.Interval, "sim-interval",
		cfg.Sim.Interval, "Interval between simulated broadcasts")
	flags.IntVar(&cfg.Sim.Drift, "drift",
		cfg.Sim.Drift, "Largest signal change of a simulated attendee per interval")
	flags.IntVar(&cfg.Sim.ConnectFailures, "connect-failures",
		cfg.Sim.ConnectFailures, "Connect failures injected into every simulated attendee")
	flags.Uint64Var(&cfg.Sim.Seed, "seed",
		cfg.Sim.Seed, "Seed of the simulated floor")
}

// LoadConfig overrides cfg with the config file and then with flags set on the command line.
// A missing default config file is not an error.
func LoadConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	_, err := os.Stat(cfg.ConfigFile)
	switch {
	case flags.Changed("config") || err == nil:
		if err := config.Load(cfg, cfg.ConfigFile); err != nil {
			return log.ErrMalformedConfig(err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat config: %w", err)
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return log.ErrBadFlags(fmt.Errorf("%s: %w", name, err))
		}
	}
	return cfg.Validate()
}
