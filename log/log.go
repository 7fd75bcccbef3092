// Package log builds the zap loggers used by renio components.
package log

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ConsoleEncoder writes human readable lines.
	ConsoleEncoder = "console"
	// JSONEncoder writes one json object per entry.
	JSONEncoder = "json"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

// NewNop creates silent logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Encoder returns zap encoder for the given kind. Unknown kinds fall back to console.
func Encoder(kind string) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	if strings.EqualFold(kind, JSONEncoder) {
		cfg = zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// NewWithLevel creates a logger with a fixed level and with a set of (optional) hooks.
func NewWithLevel(module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	return newWithWriter(logWriter, module, level, encoder, hooks...)
}

func newWithWriter(w io.Writer,
	module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

// ParseLevel parses level name, empty string is info.
func ParseLevel(name string) (zap.AtomicLevel, error) {
	if name == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	return zap.ParseAtomicLevel(strings.ToLower(name))
}

// Levels derives module loggers from a root logger, each with its own level.
type Levels struct {
	encoder zapcore.Encoder
	levels  map[string]zap.AtomicLevel
}

// NewLevels creates a Levels with the given encoder kind.
func NewLevels(encoder string) *Levels {
	return &Levels{
		encoder: Encoder(encoder),
		levels:  map[string]zap.AtomicLevel{},
	}
}

// Logger returns logger for module at the given level. The level is shared
// by all loggers of the module so it can be changed at runtime with SetLevel.
func (l *Levels) Logger(module, level string) (*zap.Logger, error) {
	lvl, exists := l.levels[module]
	if !exists {
		parsed, err := ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
		l.levels[module] = lvl
	}
	return NewWithLevel(module, lvl, l.encoder.Clone()), nil
}

// SetLevel changes level of an already created module.
func (l *Levels) SetLevel(module string, level zapcore.Level) bool {
	lvl, exists := l.levels[module]
	if !exists {
		return false
	}
	lvl.SetLevel(level)
	return true
}
