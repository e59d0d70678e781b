// Package logging provides the structured logger used across session
// lifecycle, the scheduler, and invoked-child bookkeeping. It wraps
// go.uber.org/zap so callers depend on a small local interface rather than
// zap's full API.
package logging

import "go.uber.org/zap"

// Logger is the structured logging surface the engine depends on. <log>
// executable content and internal diagnostics both go through it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	With(keysAndValues ...any) Logger
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a Logger around a production zap configuration.
func New() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: l.Sugar()}, nil
}

// NewDevelopment builds a Logger tuned for local/test readability (console
// encoding, debug level enabled).
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: l.Sugar()}, nil
}

// NewNop returns a Logger that discards everything. Used in tests that
// don't care about log output but need to satisfy the interface.
func NewNop() Logger {
	return &zapLogger{s: zap.NewNop().Sugar()}
}

func (z *zapLogger) Debugw(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Infow(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warnw(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Errorw(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

func (z *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: z.s.With(kv...)}
}

func (z *zapLogger) Sync() error {
	return z.s.Sync()
}
