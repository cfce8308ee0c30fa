// Package logger builds the zap loggers used across the editor.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat selects the encoder.
type LogFormat string

const (
	// FormatConsole is human readable, one line per entry.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is structured JSON.
	FormatJSON LogFormat = "JSON"
)

// Component names used with For.
const (
	ComponentMachine    = "machine"
	ComponentController = "controller-client"
	ComponentHue        = "hue"
	ComponentHTTPServer = "http"
	ComponentService    = "controller"
	ComponentStore      = "store"
	ComponentCLI        = "cli"
	ComponentTUI        = "tui"
)

var (
	initOnce sync.Once
)

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat falls back to console for unknown values.
func ParseFormat(format string) LogFormat {
	if LogFormat(strings.ToUpper(format)) == FormatJSON {
		return FormatJSON
	}
	return FormatConsole
}

// New creates a logger writing to w with the given level and format.
func New(level string, format LogFormat, w io.Writer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(parseLevel(level)))
	return zap.New(core, zap.AddCaller())
}

// Initialize replaces zap's global loggers. Later calls are no-ops.
func Initialize(level string, format LogFormat, w io.Writer) {
	initOnce.Do(func() {
		if w == nil {
			w = os.Stderr
		}
		l := New(level, format, w)
		zap.ReplaceGlobals(l)
		l.Debug("Logger initialized", zap.String("level", level), zap.String("format", string(format)))
	})
}

// For returns the global sugared logger named after component.
func For(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}

// Sync flushes buffered entries.
func Sync() error {
	return zap.L().Sync()
}
