package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = newLogger("info", false)
)

func newLogger(level string, development bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init replaces the process logger. Unknown levels fall back to info.
func Init(level string, development bool) {
	l := newLogger(level, development)
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLogger installs l, e.g. zaptest or an observer core in tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Sync() { _ = L().Sync() }

func Log(level zapcore.Level, msg string, fields map[string]any) {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	if ce := L().Check(level, msg); ce != nil {
		ce.Write(zf...)
	}
}

func Debug(msg string, fields map[string]any) { Log(zapcore.DebugLevel, msg, fields) }
func Info(msg string, fields map[string]any)  { Log(zapcore.InfoLevel, msg, fields) }
func Warn(msg string, fields map[string]any)  { Log(zapcore.WarnLevel, msg, fields) }
func Error(msg string, fields map[string]any) { Log(zapcore.ErrorLevel, msg, fields) }
