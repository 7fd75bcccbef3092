package mob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/renaissanceio/renio/advertiser"
	"github.com/renaissanceio/renio/config"
	"github.com/renaissanceio/renio/filesystem"
	"github.com/renaissanceio/renio/log"
	"github.com/renaissanceio/renio/metrics"
	discovery "github.com/renaissanceio/renio/mob"
	"github.com/renaissanceio/renio/radio/sim"
	"github.com/renaissanceio/renio/records"
	"github.com/renaissanceio/renio/scanner"
)

// runFloor places the local attendee among a simulated crowd and prints every update
// until ctx is done. Records are saved when it returns.
func runFloor(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	loggers, err := cfg.LOGGING.Loggers()
	if err != nil {
		return err
	}
	logger := loggers.App
	logger.Info("starting renio",
		zap.String("identity", cfg.Identity),
		zap.String("data", cfg.DataDir()),
		zap.Inline(&cfg.Sim),
	)

	if err := filesystem.ExistOrCreate(cfg.DataDir()); err != nil {
		return fatal(logger, log.ErrEnsureDataDir(cfg.DataDir(), err))
	}
	store, err := records.Open(cfg.RecordsPath(), records.WithLogger(loggers.Records))
	if err != nil {
		return fatal(logger, log.ErrOpenRecords(cfg.RecordsPath(), err))
	}

	medium := sim.New(sim.WithLogger(loggers.Sim))
	crowd := sim.NewCrowd(medium, cfg.Sim)
	for i, p := range crowd.Peripherals() {
		adv := advertiser.New(p,
			advertiser.WithConfig(cfg.Advertiser),
			advertiser.WithLogger(loggers.Advertiser.Named(fmt.Sprintf("attendee-%d", i+1))),
		)
		if err := adv.Start(fmt.Sprintf("@attendee-%d", i+1)); err != nil {
			return err
		}
		defer adv.Stop()
	}

	scan, err := scanner.New(medium.NewCentral(),
		scanner.WithConfig(cfg.Scanner),
		scanner.WithLogger(loggers.Scanner),
	)
	if err != nil {
		return err
	}
	self := advertiser.New(medium.NewPeripheral(""),
		advertiser.WithConfig(cfg.Advertiser),
		advertiser.WithLogger(loggers.Advertiser),
	)
	m := discovery.New(self, scan, store,
		discovery.WithConfig(cfg.Mob),
		discovery.WithLogger(loggers.Mob),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.CollectMetrics {
		done := metrics.StartServer(ctx, logger, cfg.MetricsAddr)
		defer func() {
			cancel()
			<-done
		}()
	}
	if cfg.MetricsPush != "" {
		metrics.StartPushingMetrics(ctx, logger, clockwork.NewRealClock(),
			cfg.MetricsPush, cfg.MetricsPushPeriod, cfg.Identity)
	}

	if err := m.Start(ctx, cfg.Identity); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, m.Stop())
		if err == nil {
			err = printRecords(out, store.Top(cfg.Mob.Leaderboard))
		}
	}()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return crowd.Run(ctx)
	})
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case update := <-m.Updates():
				if err := printUpdate(out, update); err != nil {
					return err
				}
			}
		}
	})
	return eg.Wait()
}

func fatal(logger *zap.Logger, err error) error {
	if marshaler, ok := err.(zapcore.ObjectMarshaler); ok {
		logger.Error("cannot start", zap.Object("fatal", marshaler))
	}
	return err
}
