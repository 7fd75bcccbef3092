package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/seehuhn/mt19937"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/renaissanceio/renio/proximity"
)

// Config of a simulated conference floor.
type Config struct {
	Attendees int           `mapstructure:"attendees"`
	Interval  time.Duration `mapstructure:"interval"`
	// Drift is the largest signal change in dBm per interval.
	Drift int `mapstructure:"drift"`
	// Strongest and Weakest bound the random walk of every attendee signal.
	Strongest int `mapstructure:"strongest"`
	Weakest   int `mapstructure:"weakest"`
	// ConnectFailures is injected into every attendee before its first connect.
	ConnectFailures int    `mapstructure:"connect-failures"`
	Seed            uint64 `mapstructure:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Attendees: 8,
		Interval:  500 * time.Millisecond,
		Drift:     4,
		Strongest: -40,
		Weakest:   -95,
		Seed:      1,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Attendees < 0 {
		return fmt.Errorf("attendees must be non-negative: %d", cfg.Attendees)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive: %s", cfg.Interval)
	}
	if cfg.Drift < 0 {
		return fmt.Errorf("drift must be non-negative: %d", cfg.Drift)
	}
	if cfg.Weakest >= cfg.Strongest {
		return errors.New("weakest signal must be below strongest")
	}
	if cfg.Weakest < proximity.MinSignal || cfg.Strongest > proximity.MaxSignal {
		return fmt.Errorf("signal bounds outside [%d, %d]", proximity.MinSignal, proximity.MaxSignal)
	}
	return nil
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("attendees", cfg.Attendees)
	encoder.AddDuration("interval", cfg.Interval)
	encoder.AddInt("drift", cfg.Drift)
	encoder.AddInt("strongest", cfg.Strongest)
	encoder.AddInt("weakest", cfg.Weakest)
	encoder.AddInt("connect failures", cfg.ConnectFailures)
	return nil
}

// Crowd moves a set of peripherals around a central by random walk of their signal.
type Crowd struct {
	medium      *Medium
	cfg         Config
	rng         *rand.Rand
	peripherals []*Peripheral
}

// NewCrowd adds cfg.Attendees peripherals to the medium at random distances.
func NewCrowd(medium *Medium, cfg Config) *Crowd {
	c := &Crowd{
		medium: medium,
		cfg:    cfg,
		rng:    rand.New(mt19937.New()),
	}
	c.rng.Seed(int64(cfg.Seed))
	for range cfg.Attendees {
		p := medium.NewPeripheral("")
		p.SetRSSI(cfg.Weakest + c.rng.Intn(cfg.Strongest-cfg.Weakest+1))
		p.FailConnects(cfg.ConnectFailures)
		c.peripherals = append(c.peripherals, p)
	}
	return c
}

func (c *Crowd) Peripherals() []*Peripheral {
	return c.peripherals
}

// Step moves every attendee by at most Drift and keeps the signal within bounds.
func (c *Crowd) Step() {
	if c.cfg.Drift == 0 {
		return
	}
	for _, p := range c.peripherals {
		rssi := p.RSSI() + c.rng.Intn(2*c.cfg.Drift+1) - c.cfg.Drift
		p.SetRSSI(min(max(rssi, c.cfg.Weakest), c.cfg.Strongest))
	}
}

// Run steps and broadcasts every interval until ctx is done.
func (c *Crowd) Run(ctx context.Context) error {
	c.medium.logger.Info("crowd started", zap.Inline(&c.cfg))
	ticker := c.medium.clock.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			c.Step()
			c.medium.Broadcast()
		}
	}
}
