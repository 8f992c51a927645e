package thread

import "errors"

// ErrInvalidArgument is returned when a Thread operation's preconditions are
// violated (e.g. appending to a thread that expects a tool response).
var ErrInvalidArgument = errors.New("thread: invalid argument")

// ErrNotImplemented is returned for base64 ("data:") image transport, which
// is reserved in the schema but not implemented.
var ErrNotImplemented = errors.New("thread: not implemented")

// ErrSelfRollup is returned by Rollup when called with itself as the target.
var ErrSelfRollup = errors.New("thread: cannot roll up a thread onto itself")

// ErrIncompleteRollup is returned by Rollup when either thread involved is
// incomplete or empty.
var ErrIncompleteRollup = errors.New("thread: rollup requires two complete threads")
