package logging

import "testing"

// NewTestLogger returns a Logger suitable for use in tests: it writes
// Debug+ logs through t.Log, matching go.viam.com/rdk/logging.NewTestLogger.
func NewTestLogger(tb testing.TB) Logger {
	return &testLogger{tb: tb}
}

type testLogger struct {
	tb   testing.TB
	name string
}

func (l *testLogger) log(level, msg string, kv ...interface{}) {
	l.tb.Helper()
	args := []interface{}{level, msg}
	args = append(args, kv...)
	l.tb.Log(args...)
}

func (l *testLogger) Debugw(msg string, kv ...interface{}) { l.log("DEBUG", msg, kv...) }
func (l *testLogger) Infow(msg string, kv ...interface{})  { l.log("INFO", msg, kv...) }
func (l *testLogger) Warnw(msg string, kv ...interface{})  { l.log("WARN", msg, kv...) }
func (l *testLogger) Errorw(msg string, kv ...interface{}) { l.log("ERROR", msg, kv...) }

func (l *testLogger) Sublogger(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &testLogger{tb: l.tb, name: full}
}
