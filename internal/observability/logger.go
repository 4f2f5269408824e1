// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/surveypilot/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// globalLogger is the process-wide campaign logger.
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const defaultServiceName = "surveypilot"

const (
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorReset   = "\x1b[0m"
)

var namedColors = map[string]string{
	"red":     colorRed,
	"green":   colorGreen,
	"yellow":  colorYellow,
	"blue":    colorBlue,
	"magenta": colorMagenta,
	"cyan":    colorCyan,
	"white":   colorWhite,
}

// Initialize builds the global logger: console output goes to consoleWriter, and a rotated JSON file
// is added when cfg.LogFile is set. Only the first call after process start (or ResetForTest) has an
// effect.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			opts = append(opts, zap.AddCaller())
		}

		name := cfg.ServiceName
		if name == "" {
			name = defaultServiceName
		}
		logger := zap.New(zapcore.NewTee(buildCores(cfg, consoleWriter, level)...), opts...).Named(name)
		globalLogger.Store(logger)

		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

func buildCores(cfg config.LoggerConfig, console zapcore.WriteSyncer, level zap.AtomicLevel) []zapcore.Core {
	cores := []zapcore.Core{zapcore.NewCore(newEncoder(cfg.Format, cfg.Colors), console, level)}
	if cfg.LogFile == "" {
		return cores
	}

	// Campaign log files are always JSON, whatever the console format.
	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return append(cores, zapcore.NewCore(newEncoder("json", config.ColorConfig{}), zapcore.AddSync(rotating), level))
}

// ResetForTest forgets the global logger so the next Initialize call takes effect. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// levelPalette maps each zap level to the ANSI code configured for it. Unknown color names are dropped.
func levelPalette(colors config.ColorConfig) map[zapcore.Level]string {
	palette := make(map[zapcore.Level]string)
	for level, name := range map[zapcore.Level]string{
		zapcore.DebugLevel:  colors.Debug,
		zapcore.InfoLevel:   colors.Info,
		zapcore.WarnLevel:   colors.Warn,
		zapcore.ErrorLevel:  colors.Error,
		zapcore.DPanicLevel: colors.DPanic,
		zapcore.PanicLevel:  colors.Panic,
		zapcore.FatalLevel:  colors.Fatal,
	} {
		if code, ok := namedColors[strings.ToLower(name)]; ok {
			palette[level] = code
		}
	}
	return palette
}

func colorLevelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	palette := levelPalette(colors)
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		label := level.CapitalString()
		if code, ok := palette[level]; ok {
			label = code + label + colorReset
		}
		enc.AppendString(label)
	}
}

// newEncoder returns a colorized single-line encoder for "console" and a JSON encoder otherwise.
func newEncoder(format string, colors config.ColorConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if format != "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(ec)
	}

	ec.EncodeLevel = colorLevelEncoder(colors)
	// "surveypilot.navigator." reads better than a bare name next to the message.
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// GetLogger returns the global logger. Before Initialize it hands out a development logger so early
// errors are still visible.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	fallback, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	fallback.Warn("Global logger requested before initialization; using fallback.")
	return fallback.Named("fallback")
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !benignSyncError(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

// benignSyncError reports errors fsync returns for terminals and pipes, which have nothing to flush.
func benignSyncError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"sync /dev/stdout", "sync /dev/stderr", "invalid argument", "inappropriate ioctl", "operation not supported"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
