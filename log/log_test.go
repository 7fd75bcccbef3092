package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	r := require.New(t)

	hooked := 0
	hookFn := func(entry zapcore.Entry) error {
		hooked++
		r.Equal(zapcore.InfoLevel, entry.Level, "got wrong log level")
		return nil
	}

	var buf bytes.Buffer
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	logger := newWithWriter(&buf, "logtest",
		zap.NewAtomicLevelAt(zapcore.InfoLevel), zapcore.NewConsoleEncoder(enc), hookFn)

	logger.Debug("hidden")
	r.Empty(buf.String())
	r.Equal(0, hooked)

	logger.Info("test001")
	r.Equal("INFO\tlogtest\ttest001\n", buf.String())
	r.Equal(1, hooked)
}

func TestEncoderJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "mod", zap.NewAtomicLevelAt(zapcore.InfoLevel), Encoder(JSONEncoder))
	logger.Info("hello", zap.String("identity", "abc"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "abc", entry["identity"])
	require.Equal(t, "mod", entry["logger"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, lvl.Level())

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl.Level())

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestLevelsShareModuleLevel(t *testing.T) {
	levels := NewLevels(ConsoleEncoder)
	first, err := levels.Logger("scanner", "warn")
	require.NoError(t, err)
	second, err := levels.Logger("scanner", "debug")
	require.NoError(t, err)

	require.False(t, first.Core().Enabled(zapcore.InfoLevel))
	require.False(t, second.Core().Enabled(zapcore.InfoLevel))

	require.True(t, levels.SetLevel("scanner", zapcore.DebugLevel))
	require.True(t, first.Core().Enabled(zapcore.DebugLevel))
	require.False(t, levels.SetLevel("unknown", zapcore.DebugLevel))

	_, err = levels.Logger("records", "nope")
	require.Error(t, err)
}

func TestFatalError(t *testing.T) {
	err := ErrEnsureDataDir("/tmp/x", errors.New("denied"))
	require.Equal(t, "could not open/create data dir /tmp/x: denied", err.Error())

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, err.MarshalLogObject(enc))
	require.Equal(t, "ERR_ENSURE_DATA_DIR", enc.Fields["code"])
}
