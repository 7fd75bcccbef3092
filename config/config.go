// Package config contains renio configuration definitions.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/renaissanceio/renio/advertiser"
	"github.com/renaissanceio/renio/filesystem"
	"github.com/renaissanceio/renio/mob"
	"github.com/renaissanceio/renio/radio/sim"
	"github.com/renaissanceio/renio/records"
	"github.com/renaissanceio/renio/scanner"
)

const (
	defaultConfigFileName = "./config.toml"
	defaultDataDirName    = ".renio"
)

var (
	defaultHomeDir = filesystem.GetUserHomeDirectory()
	defaultDataDir = filepath.Join(defaultHomeDir, defaultDataDirName)
)

// Config defines the top level configuration of renio.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Scanner    scanner.Config    `mapstructure:"scanner"`
	Advertiser advertiser.Config `mapstructure:"advertiser"`
	Mob        mob.Config        `mapstructure:"mob"`
	Sim        sim.Config        `mapstructure:"sim"`
	LOGGING    LoggerConfig      `mapstructure:"logging"`
}

// BaseConfig defines the default configuration options of the app.
type BaseConfig struct {
	DataDirParent string `mapstructure:"data-folder"`
	ConfigFile    string `mapstructure:"config"`
	// Identity advertised to other attendees, for example a handle.
	Identity string `mapstructure:"identity"`
	// RecordsFile is relative to the data folder unless absolute.
	RecordsFile string `mapstructure:"records-file"`

	CollectMetrics    bool          `mapstructure:"metrics"`
	MetricsAddr       string        `mapstructure:"metrics-addr"`
	MetricsPush       string        `mapstructure:"metrics-push"`
	MetricsPushPeriod time.Duration `mapstructure:"metrics-push-period"`
}

// DataDir returns the absolute path of the data folder.
func (cfg *Config) DataDir() string {
	return filesystem.GetCanonicalPath(cfg.DataDirParent)
}

// RecordsPath returns the absolute path of the records file.
func (cfg *Config) RecordsPath() string {
	if filepath.IsAbs(cfg.RecordsFile) {
		return cfg.RecordsFile
	}
	return filepath.Join(cfg.DataDir(), cfg.RecordsFile)
}

// Validate checks every module configuration.
func (cfg *Config) Validate() error {
	if cfg.RecordsFile == "" {
		return errors.New("records file is not set")
	}
	if cfg.MetricsPush != "" && cfg.MetricsPushPeriod <= 0 {
		return fmt.Errorf("metrics push period must be positive: %s", cfg.MetricsPushPeriod)
	}
	if err := cfg.Scanner.Validate(); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	if cfg.Scanner.MaxIdentityLength > records.MaxIdentityLength {
		return fmt.Errorf("scanner: max identity length %d exceeds the records limit %d",
			cfg.Scanner.MaxIdentityLength, records.MaxIdentityLength)
	}
	if err := cfg.Mob.Validate(); err != nil {
		return fmt.Errorf("mob: %w", err)
	}
	if err := cfg.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Scanner:    scanner.DefaultConfig(),
		Advertiser: advertiser.DefaultConfig(),
		Mob:        mob.DefaultConfig(),
		Sim:        sim.DefaultConfig(),
		LOGGING:    DefaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		DataDirParent:     defaultDataDir,
		ConfigFile:        defaultConfigFileName,
		RecordsFile:       records.DefaultFile,
		MetricsAddr:       "127.0.0.1:1010",
		MetricsPushPeriod: time.Minute,
	}
}

// LoadConfig reads the config file into vip.
// If the file cannot be read, the default config file is tried.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}

	vip.SetConfigFile(fileLocation)
	err := vip.ReadInConfig()
	if err != nil {
		if fileLocation != defaultConfigFileName {
			zap.L().Warn("failed loading config, trying default",
				zap.String("path", fileLocation),
				zap.String("default", defaultConfigFileName),
			)
			vip.SetConfigFile(defaultConfigFileName)
			err = vip.ReadInConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to read config file %w", err)
		}
	}
	return nil
}

// Load overrides cfg with values from the config file at path.
func Load(cfg *Config, path string) error {
	vip := viper.New()
	if err := LoadConfig(path, vip); err != nil {
		return err
	}
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		withIgnoreUntagged(),
		withErrorUnused(),
	}
	if err := vip.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func withIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func withErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}
