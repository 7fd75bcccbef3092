// Package mob runs discovery for the local attendee and turns time spent near
// other attendees into durable scores.
package mob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/renaissanceio/renio/attendee"
	"github.com/renaissanceio/renio/proximity"
	"github.com/renaissanceio/renio/records"
	"github.com/renaissanceio/renio/scanner"
)

var ErrRunning = errors.New("mob is already running")

type Config struct {
	// SweepInterval drives RemoveOldAttendees and score updates.
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
	// SaveInterval between periodic saves of the records. Records are also saved on Stop.
	SaveInterval time.Duration `mapstructure:"save-interval"`
	// Leaderboard is the number of records published with every update.
	Leaderboard int `mapstructure:"leaderboard"`
}

func DefaultConfig() Config {
	return Config{
		SweepInterval: time.Second,
		SaveInterval:  time.Minute,
		Leaderboard:   10,
	}
}

func (cfg *Config) Validate() error {
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %s", cfg.SweepInterval)
	}
	if cfg.SaveInterval <= 0 {
		return fmt.Errorf("save interval must be positive: %s", cfg.SaveInterval)
	}
	if cfg.Leaderboard < 0 {
		return fmt.Errorf("leaderboard must be non-negative: %d", cfg.Leaderboard)
	}
	return nil
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddDuration("sweep interval", cfg.SweepInterval)
	encoder.AddDuration("save interval", cfg.SaveInterval)
	encoder.AddInt("leaderboard", cfg.Leaderboard)
	return nil
}

// ScoreForRange is the score an attendee earns per update while in range r.
func ScoreForRange(r proximity.Range) uint64 {
	return uint64(r.Rank() + 1)
}

// Update is published after every sweep that observed a change.
type Update struct {
	At          time.Time
	Attendees   []attendee.Info
	Leaderboard []records.Record
}

type Opt func(*Mob)

func WithLogger(logger *zap.Logger) Opt {
	return func(m *Mob) {
		m.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(m *Mob) {
		m.config = cfg
	}
}

func WithClock(clock clockwork.Clock) Opt {
	return func(m *Mob) {
		m.clock = clock
	}
}

// Mob coordinates the advertiser, the scanner and the records store.
type Mob struct {
	logger     *zap.Logger
	config     Config
	clock      clockwork.Clock
	advertiser advertiser
	scanner    discovery
	store      scores
	updates    chan Update

	mu       sync.Mutex
	running  bool
	identity string
	self     string
	cancel   context.CancelFunc
	eg       errgroup.Group
}

func New(adv advertiser, scan discovery, store scores, opts ...Opt) *Mob {
	m := &Mob{
		logger:     zap.NewNop(),
		config:     DefaultConfig(),
		clock:      clockwork.NewRealClock(),
		advertiser: adv,
		scanner:    scan,
		store:      store,
		updates:    make(chan Update, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	scan.Register(observer{m})
	return m
}

// Updates delivers the latest update. Updates that were not read are replaced by newer ones.
func (m *Mob) Updates() <-chan Update {
	return m.updates
}

// Start advertises identity and begins discovery.
func (m *Mob) Start(ctx context.Context, identity string) error {
	if err := m.config.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrRunning
	}
	if err := m.advertiser.Start(identity); err != nil {
		return fmt.Errorf("advertise %q: %w", identity, err)
	}
	m.scanner.Start()
	m.running = true
	m.identity = identity
	m.self = attendee.NormalizeIdentity(identity)

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.eg.Go(func() error {
		m.run(ctx)
		return nil
	})
	m.logger.Info("mob started", zap.String("identity", identity), zap.Inline(&m.config))
	return nil
}

// Stop ends discovery and saves the records.
func (m *Mob) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false
	m.cancel()
	m.eg.Wait()
	m.scanner.Stop()
	m.advertiser.Stop()
	if err := m.store.Save(); err != nil && !errors.Is(err, records.ErrNoPath) {
		return fmt.Errorf("final save: %w", err)
	}
	m.logger.Info("mob stopped", zap.String("identity", m.identity))
	return nil
}

func (m *Mob) run(ctx context.Context) {
	sweep := m.clock.NewTicker(m.config.SweepInterval)
	defer sweep.Stop()
	save := m.clock.NewTicker(m.config.SaveInterval)
	defer save.Stop()
	failures := m.scanner.ConnectFailures()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.Chan():
			m.sweep()
		case <-save.Chan():
			m.save()
		case failure := <-failures:
			m.onConnectFailure(failure)
		}
	}
}

// sweep removes stale attendees and, if anything changed, scores every confirmed attendee.
func (m *Mob) sweep() {
	m.scanner.RemoveOldAttendees()
	if !m.scanner.Updated() {
		return
	}
	all := m.scanner.Attendees()
	attendees := make([]attendee.Info, 0, len(all))
	for _, info := range all {
		// the local radio hears its own advertisement
		if !info.Pending && info.Identity == m.self {
			continue
		}
		attendees = append(attendees, info)
		if info.Pending {
			continue
		}
		amount := ScoreForRange(info.Range)
		m.store.IncrementScoreByAmount(info.Identity, amount)
		scoreAwarded.Add(float64(amount))
	}
	m.publish(Update{
		At:          m.clock.Now(),
		Attendees:   attendees,
		Leaderboard: m.store.Top(m.config.Leaderboard),
	})
}

func (m *Mob) publish(update Update) {
	select {
	case m.updates <- update:
		return
	default:
	}
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- update:
	default:
	}
}

func (m *Mob) save() {
	if err := m.store.Save(); err != nil && !errors.Is(err, records.ErrNoPath) {
		m.logger.Warn("periodic save failed", zap.Error(err))
	}
}

func (m *Mob) onConnectFailure(failure scanner.ConnectFailure) {
	if failure.Final {
		connectGiveUps.Inc()
	} else {
		connectRetries.Inc()
	}
	m.logger.Debug("attendee identity unavailable",
		zap.Stringer("address", failure.Address),
		zap.Int("attempt", failure.Attempt),
		zap.Bool("final", failure.Final),
		zap.Error(failure.Err),
	)
}

type observer struct {
	m *Mob
}

func (o observer) RangeChanged(info attendee.Info) {
	o.m.logger.Debug("attendee range changed", zap.Inline(info))
}

func (o observer) Expired(info attendee.Info) {
	attendeesLeft.Inc()
	o.m.logger.Info("attendee left", zap.Inline(info))
}
