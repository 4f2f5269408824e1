// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/surveypilot/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newBufferedLogger resets the singleton and initializes it against an in-memory console sink.
func newBufferedLogger(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		buf := newBufferedLogger(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "console-test",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Info("page classified", zap.String("tag", "age"))
		Sync()

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "console-test.")
		assert.Contains(t, out, "page classified")
		assert.Contains(t, out, `"tag": "age"`)
	})

	t.Run("json format emits one object per entry", func(t *testing.T) {
		buf := newBufferedLogger(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "json-test",
		})

		GetLogger().Warn("navigation stuck", zap.Int("attempts", 30))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "json-test", entry["logger"])
		assert.Equal(t, "navigation stuck", entry["msg"])
		assert.EqualValues(t, 30, entry["attempts"])
	})

	t.Run("level filter drops lower entries", func(t *testing.T) {
		buf := newBufferedLogger(t, config.LoggerConfig{Level: "warn", Format: "json"})

		GetLogger().Info("hidden")
		GetLogger().Error("shown")
		Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		buf := newBufferedLogger(t, config.LoggerConfig{Level: "chatty", Format: "json"})

		GetLogger().Debug("debug entry")
		GetLogger().Info("info entry")
		Sync()

		assert.NotContains(t, buf.String(), "debug entry")
		assert.Contains(t, buf.String(), "info entry")
	})

	t.Run("writes to the rotating log file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "surveypilot.log")
		newBufferedLogger(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		})

		GetLogger().Error("run failed")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"run failed"`)
	})

	t.Run("only the first initialization wins", func(t *testing.T) {
		buf := newBufferedLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.AddSync(&bytes.Buffer{}))
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("hello")
		Sync()
		assert.Contains(t, buf.String(), `"logger":"first"`)
		assert.NotContains(t, buf.String(), "second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		require.NotNil(t, GetLogger())
	})

	t.Run("returns the stored logger", func(t *testing.T) {
		newBufferedLogger(t, config.LoggerConfig{Level: "info"})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}

func TestSyncWithoutLogger(t *testing.T) {
	ResetForTest()
	assert.NotPanics(t, Sync)
}
