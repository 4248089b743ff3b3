// Package logging provides the small structured-logging surface used across
// dcsam. It wraps go.uber.org/zap the same way go.viam.com/rdk/logging does:
// a narrow Logger interface so callers never depend on the concrete zap
// types, plus a Sublogger method for attributing log lines to a specific
// solver component (continuous shadows, discrete shadows, the elimination
// engine, ...).
package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logging interface threaded through dcsam. Keys
// and values follow zap's sugared convention: alternating key, value pairs.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Sublogger(name string) Logger
}

type zapLogger struct {
	name string
	sug  *zap.SugaredLogger
}

// NewLogger returns a Logger that writes Info+ logs to stderr.
func NewLogger(name string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a broken sink
		// configuration, which cannot happen with the defaults above.
		panic(err)
	}
	return &zapLogger{name: name, sug: z.Sugar().Named(name)}
}

// NewDebugLogger returns a Logger that writes Debug+ logs to stderr.
func NewDebugLogger(name string) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &zapLogger{name: name, sug: z.Sugar().Named(name)}
}

// NewNopLogger returns a Logger that discards everything, for use as a
// default when a caller does not care about diagnostics.
func NewNopLogger() Logger {
	return &zapLogger{sug: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.sug.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.sug.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.sug.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.sug.Errorw(msg, kv...) }

func (l *zapLogger) Sublogger(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &zapLogger{name: full, sug: l.sug.Named(name)}
}
