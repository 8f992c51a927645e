// Package telemetry defines the logging surface used throughout the runtime.
// The core never depends on a concrete logging backend; it depends on the
// Logger interface and is handed an implementation at construction time.
package telemetry

import "context"

// Logger is a structured, leveled logger. Fields are passed as alternating
// key/value pairs, matching the convention used across this codebase.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)

	// With returns a Logger that prepends the given key/value pairs to every
	// subsequent call.
	With(keyvals ...any) Logger
}
