package agent

import "errors"

// ErrInvalidArgument is returned when Advance's preconditions are violated:
// no model set, a thread not owned by this agent, or an already-complete
// thread handed to Advance.
var ErrInvalidArgument = errors.New("agent: invalid argument")

// ErrInvalidResponse is returned when the provider's decoded response is
// neither plain text nor a set of tool calls.
var ErrInvalidResponse = errors.New("agent: invalid response shape from provider")

// ErrStopOutsideStep is returned by Stop when called other than from within
// the agent's own Step callback.
var ErrStopOutsideStep = errors.New("agent: stop() may only be called from within step")

// ErrNotOwner is returned by Adopt when the thread was constructed with a
// different owner.
var ErrNotOwner = errors.New("agent: thread is not owned by this agent")

// ErrAlreadyAdopted is returned by Adopt when the thread is already tracked
// by this agent.
var ErrAlreadyAdopted = errors.New("agent: thread already adopted")
