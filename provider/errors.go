package provider

import (
	"errors"
	"fmt"
)

// RetryClass is the scheduler's classification of a dispatch failure.
type RetryClass string

const (
	ClassBadRequest        RetryClass = "bad_request"
	ClassTooManyRequests   RetryClass = "too_many_requests"
	ClassInsufficientQuota RetryClass = "insufficient_quota"
	ClassServerError       RetryClass = "server_error"
	ClassTimeout           RetryClass = "timeout"
	ClassUnknown           RetryClass = "unknown"
)

// Error is a provider-neutral error that carries its RetryClass and enough
// of the wire response to classify and to report to the caller. The bundled
// adapters do not construct it: they return their SDK's error (wrapped with
// fmt.Errorf) and classify that in ClassifyError.
//
// Modeled after a provider-fidelity error wrapper: private fields, an
// accessor per field, and an Unwrap so callers can still errors.Is/As
// through to the underlying transport error.
type Error struct {
	provider   string
	class      RetryClass
	httpStatus int
	code       string
	message    string
	requestID  string
	cause      error
}

// NewError constructs a provider Error. provider and class are required;
// NewError panics if either is empty, matching the fail-fast constructor
// style used elsewhere in this codebase.
func NewError(provider string, class RetryClass, opts ...ErrorOption) *Error {
	if provider == "" {
		panic("provider.NewError: provider is required")
	}
	if class == "" {
		panic("provider.NewError: class is required")
	}
	e := &Error{provider: provider, class: class}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrorOption configures optional Error fields.
type ErrorOption func(*Error)

func WithHTTPStatus(status int) ErrorOption { return func(e *Error) { e.httpStatus = status } }
func WithCode(code string) ErrorOption      { return func(e *Error) { e.code = code } }
func WithMessage(msg string) ErrorOption    { return func(e *Error) { e.message = msg } }
func WithRequestID(id string) ErrorOption   { return func(e *Error) { e.requestID = id } }
func WithCause(err error) ErrorOption       { return func(e *Error) { e.cause = err } }

func (e *Error) Provider() string  { return e.provider }
func (e *Error) Class() RetryClass { return e.class }
func (e *Error) HTTPStatus() int   { return e.httpStatus }
func (e *Error) Code() string      { return e.code }
func (e *Error) RequestID() string { return e.requestID }

func (e *Error) Error() string {
	msg := e.message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.requestID != "" {
		return fmt.Sprintf("%s: %s (status=%d code=%s request_id=%s)", e.provider, msg, e.httpStatus, e.code, e.requestID)
	}
	return fmt.Sprintf("%s: %s (status=%d code=%s)", e.provider, msg, e.httpStatus, e.code)
}

func (e *Error) Unwrap() error { return e.cause }

// AsError unwraps err into a *Error, mirroring errors.As for callers that
// prefer a boolean-returning helper.
func AsError(err error) (*Error, bool) {
	var pe *Error
	ok := errors.As(err, &pe)
	return pe, ok
}
