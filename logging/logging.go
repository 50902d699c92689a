// Package logging provides the structured logger used throughout the
// planner core. It wraps zap the way the rest of the stack does: callers
// depend on the small Logger interface here, never on zap directly.
package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the sugared logging surface used across the planner. It is
// deliberately small: level-tagged message logging plus structured
// key/value pairs, nothing else.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
}

type sugared struct {
	*zap.SugaredLogger
}

func (s *sugared) Named(name string) Logger {
	return &sugared{s.SugaredLogger.Named(name)}
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewDebugLogger("planner2d")
)

// ReplaceGlobal swaps the package-level logger. The engine does not use
// it; it builds its own default with NewLogger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the current package-level logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func newConfig(level zapcore.Level) zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

func build(level zapcore.Level, name string) Logger {
	cfg := newConfig(level)
	l, err := cfg.Build()
	if err != nil {
		// Config above is static and known-good; a build failure here
		// means the zap API changed underneath us.
		panic(err)
	}
	return &sugared{l.Named(name).Sugar()}
}

// NewLogger returns a logger that emits Info level and above.
func NewLogger(name string) Logger {
	return build(zapcore.InfoLevel, name)
}

// NewDebugLogger returns a logger that emits Debug level and above.
func NewDebugLogger(name string) Logger {
	return build(zapcore.DebugLevel, name)
}

// NewTestLogger returns a logger that writes through the test's own
// output sink, so log lines are attributed to the failing test.
func NewTestLogger(tb testing.TB) Logger {
	return &sugared{zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()}
}
