package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/renaissanceio/renio/log"
)

const defaultLoggingLevel = zapcore.InfoLevel

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder               string `mapstructure:"log-encoder"`
	AppLoggerLevel        string `mapstructure:"app"`
	ScannerLoggerLevel    string `mapstructure:"scanner"`
	AdvertiserLoggerLevel string `mapstructure:"advertiser"`
	RecordsLoggerLevel    string `mapstructure:"records"`
	MobLoggerLevel        string `mapstructure:"mob"`
	SimLoggerLevel        string `mapstructure:"sim"`
}

func DefaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:               log.ConsoleEncoder,
		AppLoggerLevel:        defaultLoggingLevel.String(),
		ScannerLoggerLevel:    defaultLoggingLevel.String(),
		AdvertiserLoggerLevel: defaultLoggingLevel.String(),
		RecordsLoggerLevel:    defaultLoggingLevel.String(),
		MobLoggerLevel:        defaultLoggingLevel.String(),
		SimLoggerLevel:        defaultLoggingLevel.String(),
	}
}

// Loggers are the per module loggers built from LoggerConfig.
type Loggers struct {
	App, Scanner, Advertiser, Records, Mob, Sim *zap.Logger
}

// Loggers builds a logger for every module with its configured level.
func (cfg *LoggerConfig) Loggers() (*Loggers, error) {
	levels := log.NewLevels(cfg.Encoder)
	var rst Loggers
	for _, module := range []struct {
		name   string
		level  string
		logger **zap.Logger
	}{
		{"app", cfg.AppLoggerLevel, &rst.App},
		{"scanner", cfg.ScannerLoggerLevel, &rst.Scanner},
		{"advertiser", cfg.AdvertiserLoggerLevel, &rst.Advertiser},
		{"records", cfg.RecordsLoggerLevel, &rst.Records},
		{"mob", cfg.MobLoggerLevel, &rst.Mob},
		{"sim", cfg.SimLoggerLevel, &rst.Sim},
	} {
		logger, err := levels.Logger(module.name, module.level)
		if err != nil {
			return nil, fmt.Errorf("logger %s: %w", module.name, err)
		}
		*module.logger = logger
	}
	return &rst, nil
}
