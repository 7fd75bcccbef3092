package logtest

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

const testLogLevel = "TEST_LOG_LEVEL"

// New creates zap logger that will use testing.TB.Log internally.
func New(tb testing.TB, overwrite ...zapcore.Level) *zap.Logger {
	var level zapcore.Level
	if len(overwrite) > 0 {
		level = overwrite[0]
	} else {
		lvl := os.Getenv(testLogLevel)
		if len(lvl) == 0 {
			return zap.NewNop()
		}
		if err := level.Set(lvl); err != nil {
			panic(err)
		}
	}
	return zaptest.NewLogger(tb, zaptest.Level(level))
}
