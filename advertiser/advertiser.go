// Package advertiser broadcasts the local identity.
package advertiser

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/renaissanceio/renio/radio"
)

// ErrEmptyIdentity is returned by Start when there is nothing to advertise.
var ErrEmptyIdentity = errors.New("empty identity")

type Config struct {
	Service        uuid.UUID `mapstructure:"service"`
	Characteristic uuid.UUID `mapstructure:"characteristic"`
	// EmbedIdentity puts the identity into the advertised local name
	// so that scanners do not need to connect to read it.
	EmbedIdentity bool `mapstructure:"embed-identity"`
}

func DefaultConfig() Config {
	return Config{
		Service:        radio.ServiceID,
		Characteristic: radio.IdentityCharacteristic,
		EmbedIdentity:  true,
	}
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("service", cfg.Service.String())
	encoder.AddString("characteristic", cfg.Characteristic.String())
	encoder.AddBool("embed identity", cfg.EmbedIdentity)
	return nil
}

type Opt func(*Advertiser)

func WithLogger(logger *zap.Logger) Opt {
	return func(a *Advertiser) {
		a.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(a *Advertiser) {
		a.config = cfg
	}
}

// Advertiser publishes the identity whenever the peripheral is ready.
// Requests made while the radio is not ready are kept and issued once it powers on.
type Advertiser struct {
	logger     *zap.Logger
	config     Config
	peripheral radio.Peripheral

	mu          sync.Mutex
	identity    string
	wanted      bool
	advertising bool
	unsubscribe func()
}

func New(peripheral radio.Peripheral, opts ...Opt) *Advertiser {
	a := &Advertiser{
		logger:     zap.NewNop(),
		config:     DefaultConfig(),
		peripheral: peripheral,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start advertises identity, replacing a previous one.
func (a *Advertiser) Start(identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ErrEmptyIdentity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.wanted && a.advertising && a.identity == identity {
		return nil
	}
	a.identity = identity
	a.wanted = true
	if a.unsubscribe == nil {
		a.unsubscribe = a.peripheral.OnStateChange(a.onStateChange)
	}
	a.publish()
	return nil
}

// Stop withdraws the advertisement. Safe to call in any state.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.wanted = false
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if !a.advertising {
		return
	}
	a.setAdvertising(false)
	if err := a.peripheral.StopAdvertising(); err != nil {
		a.logger.Debug("stop advertising", zap.Error(err))
	}
	a.logger.Info("stopped advertising", zap.String("identity", a.identity))
}

// Advertising is true while the identity is on the air.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.advertising
}

// Queued is true when advertising was requested but waits for the radio.
func (a *Advertiser) Queued() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wanted && !a.advertising
}

func (a *Advertiser) onStateChange(state radio.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.wanted {
		return
	}
	a.logger.Debug("radio state", zap.Stringer("state", state))
	if state.Ready() {
		a.publish()
		return
	}
	if a.advertising {
		a.logger.Info("advertising interrupted", zap.Stringer("state", state))
	}
	a.setAdvertising(false)
}

func (a *Advertiser) publish() {
	if state := a.peripheral.State(); !state.Ready() {
		a.logger.Info("radio not ready, advertising queued",
			zap.String("identity", a.identity),
			zap.Stringer("state", state),
		)
		a.setAdvertising(false)
		return
	}
	adv := radio.Advertisement{
		Service:         a.config.Service,
		Characteristics: map[uuid.UUID][]byte{a.config.Characteristic: []byte(a.identity)},
	}
	if a.config.EmbedIdentity {
		adv.LocalName = a.identity
	}
	if err := a.peripheral.Advertise(adv); err != nil {
		if errors.Is(err, radio.ErrNotReady) {
			a.logger.Info("radio not ready, advertising queued", zap.String("identity", a.identity))
		} else {
			a.logger.Warn("failed to advertise", zap.String("identity", a.identity), zap.Error(err))
		}
		a.setAdvertising(false)
		return
	}
	a.setAdvertising(true)
	a.logger.Info("advertising",
		zap.String("identity", a.identity),
		zap.Inline(&a.config),
	)
}

func (a *Advertiser) setAdvertising(advertising bool) {
	a.advertising = advertising
	if advertising {
		advertisingGauge.Set(1)
	} else {
		advertisingGauge.Set(0)
	}
}
