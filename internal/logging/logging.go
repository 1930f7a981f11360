// Package logging builds the logr.Logger used across loopsim.
//
// Library packages never construct loggers; they read one from the context
// with logr.FromContextOrDiscard and log detail through the V levels below.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V(...).
const (
	DEBUG   = 1
	VERBOSE = 2
	TRACE   = 3
)

// ParseLevel maps a level name to a logr verbosity.
func ParseLevel(name string) (int, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return 0, nil
	case "debug":
		return DEBUG, nil
	case "verbose":
		return VERBOSE, nil
	case "trace":
		return TRACE, nil
	}
	return 0, fmt.Errorf("log level must be one of: info, debug, verbose, trace, got %s", name)
}

// New creates a zap-backed logger. format is "console" or "json".
func New(level int, format string) (logr.Logger, error) {
	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return logr.Discard(), fmt.Errorf("unknown log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-1 * level))
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger creates a new Zap logger using the dev mode.
func NewTestLogger() logr.Logger {
	zl := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(nopWriter{})),
		zap.NewAtomicLevelAt(zapcore.Level(-1*TRACE)),
	), zap.AddCaller())
	return zapr.NewLogger(zl)
}

// IntoContext stores the logger in ctx.
func IntoContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// NewTestLoggerIntoContext creates a new test logger and inserts it into the given context.
func NewTestLoggerIntoContext(ctx context.Context) context.Context {
	return IntoContext(ctx, NewTestLogger())
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
