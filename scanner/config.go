package scanner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"github.com/renaissanceio/renio/proximity"
	"github.com/renaissanceio/renio/radio"
)

type Config struct {
	Service        uuid.UUID            `mapstructure:"service"`
	Characteristic uuid.UUID            `mapstructure:"characteristic"`
	Thresholds     proximity.Thresholds `mapstructure:"thresholds"`
	// Staleness is how long an attendee stays live without a sighting.
	// It arms the per attendee timer and bounds the age checked by RemoveOldAttendees.
	Staleness time.Duration `mapstructure:"staleness"`
	// MaxIdentityLength in bytes, longer identities are dropped as malformed.
	MaxIdentityLength int `mapstructure:"max-identity-length"`

	// MaxConnectAttempts per address before the scanner gives up reading the identity.
	MaxConnectAttempts    int     `mapstructure:"max-connect-attempts"`
	MaxConcurrentConnects int64   `mapstructure:"max-concurrent-connects"`
	ConnectRate           float64 `mapstructure:"connect-rate"`
	ConnectBurst          int     `mapstructure:"connect-burst"`
	// AttemptsCacheSize bounds the number of addresses with remembered failures.
	AttemptsCacheSize int `mapstructure:"attempts-cache-size"`
	// FailuresBuffer is the capacity of the ConnectFailures channel.
	FailuresBuffer int `mapstructure:"failures-buffer"`
}

func DefaultConfig() Config {
	return Config{
		Service:               radio.ServiceID,
		Characteristic:        radio.IdentityCharacteristic,
		Thresholds:            proximity.DefaultThresholds(),
		Staleness:             10 * time.Second,
		MaxIdentityLength:     256,
		MaxConnectAttempts:    2,
		MaxConcurrentConnects: 4,
		ConnectRate:           10,
		ConnectBurst:          1,
		AttemptsCacheSize:     1024,
		FailuresBuffer:        64,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Service == uuid.Nil {
		return errors.New("service identifier is not set")
	}
	if cfg.Characteristic == uuid.Nil {
		return errors.New("characteristic identifier is not set")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}
	if cfg.Staleness <= 0 {
		return fmt.Errorf("staleness must be positive: %s", cfg.Staleness)
	}
	if cfg.MaxIdentityLength <= 0 {
		return fmt.Errorf("max identity length must be positive: %d", cfg.MaxIdentityLength)
	}
	if cfg.MaxConnectAttempts < 0 {
		return fmt.Errorf("max connect attempts must be non-negative: %d", cfg.MaxConnectAttempts)
	}
	if cfg.MaxConcurrentConnects <= 0 {
		return fmt.Errorf("max concurrent connects must be positive: %d", cfg.MaxConcurrentConnects)
	}
	if cfg.ConnectRate <= 0 || cfg.ConnectBurst <= 0 {
		return fmt.Errorf("connect rate and burst must be positive: %v/%d", cfg.ConnectRate, cfg.ConnectBurst)
	}
	if cfg.AttemptsCacheSize <= 0 {
		return fmt.Errorf("attempts cache size must be positive: %d", cfg.AttemptsCacheSize)
	}
	if cfg.FailuresBuffer < 0 {
		return fmt.Errorf("failures buffer must be non-negative: %d", cfg.FailuresBuffer)
	}
	return nil
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("service", cfg.Service.String())
	encoder.AddString("characteristic", cfg.Characteristic.String())
	encoder.AddInt("very close", cfg.Thresholds.VeryClose)
	encoder.AddInt("close", cfg.Thresholds.Close)
	encoder.AddInt("nearby", cfg.Thresholds.Nearby)
	encoder.AddInt("far", cfg.Thresholds.Far)
	encoder.AddDuration("staleness", cfg.Staleness)
	encoder.AddInt("max connect attempts", cfg.MaxConnectAttempts)
	encoder.AddInt64("max concurrent connects", cfg.MaxConcurrentConnects)
	encoder.AddFloat64("connect rate", cfg.ConnectRate)
	return nil
}
