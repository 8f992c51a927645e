package telemetry

import "context"

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything. Useful as a
// default when the host application has not wired a real logger.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) Logger                  { return l }
