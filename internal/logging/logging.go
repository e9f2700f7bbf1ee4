// Package logging configures the file-backed logger for kai. The TUI owns
// stdout, so everything goes to a log file under the config directory.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init builds the logger writing to logPath at the given level. Unknown
// levels fall back to info. Must be called once at startup; before Init all
// logging is a no-op.
func Init(level, logPath string) error {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = logLevel
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	sugar = logger.Sugar()
	return nil
}

// DefaultLogPath returns the log file location next to the config file.
func DefaultLogPath(configDir string) string {
	return filepath.Join(configDir, "kai.log")
}

// Sync flushes buffered log entries. Safe to call on the no-op logger.
func Sync() {
	_ = sugar.Sync()
}

// Debugw logs a debug message with key-value context.
func Debugw(msg string, keysAndValues ...interface{}) {
	sugar.Debugw(msg, keysAndValues...)
}

// Infow logs an info message with key-value context.
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

// Warnw logs a warning with key-value context.
func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs an error with key-value context.
func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Errorw(msg, keysAndValues...)
}
