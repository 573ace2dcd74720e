package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// levelLogger drops messages below the configured level.
type levelLogger struct {
	out   logger.Logger
	level atomic.Uint32
}

// newLogger returns a console logger, or a file logger when path is set.
func newLogger(level logger.LogLevel, path string) logger.Logger {
	var out logger.Logger
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			out = logger.NewFileLogger(path)
		}
	}
	if out == nil {
		out = logger.NewDefaultLogger()
	}
	return newLevelLogger(out, level)
}

func newLevelLogger(out logger.Logger, level logger.LogLevel) *levelLogger {
	l := &levelLogger{out: out}
	l.SetLevel(level)
	return l
}

// SetLevel changes the threshold; safe for concurrent use with logging calls.
func (l *levelLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(uint32(level))
}

func (l *levelLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) <= level
}

// parseLogLevel maps settings text to a wails level, defaulting to info.
func parseLogLevel(raw string) logger.LogLevel {
	level, err := logger.StringToLogLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return logger.INFO
	}
	return level
}

func (l *levelLogger) Print(message string) { l.out.Print(message) }

func (l *levelLogger) Trace(message string) {
	if l.enabled(logger.TRACE) {
		l.out.Trace(message)
	}
}

func (l *levelLogger) Debug(message string) {
	if l.enabled(logger.DEBUG) {
		l.out.Debug(message)
	}
}

func (l *levelLogger) Info(message string) {
	if l.enabled(logger.INFO) {
		l.out.Info(message)
	}
}

func (l *levelLogger) Warning(message string) {
	if l.enabled(logger.WARNING) {
		l.out.Warning(message)
	}
}

func (l *levelLogger) Error(message string) {
	if l.enabled(logger.ERROR) {
		l.out.Error(message)
	}
}

func (l *levelLogger) Fatal(message string) { l.out.Fatal(message) }
