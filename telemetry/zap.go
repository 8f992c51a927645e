package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps an existing *zap.Logger. Passing nil returns a no-op
// logger instead of panicking, so callers can wire telemetry optionally.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return NewNoopLogger()
	}
	return zapLogger{s: l.Sugar()}
}

func (l zapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	l.s.Debugw(msg, keyvals...)
}

func (l zapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	l.s.Infow(msg, keyvals...)
}

func (l zapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	l.s.Warnw(msg, keyvals...)
}

func (l zapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	l.s.Errorw(msg, keyvals...)
}

func (l zapLogger) With(keyvals ...any) Logger {
	return zapLogger{s: l.s.With(keyvals...)}
}
