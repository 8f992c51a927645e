// Package builtintool dispatches provider-hosted tool calls (e.g.
// apply_patch) the agent must execute locally, keyed by call-type keyword.
package builtintool

import (
	"context"
	"sync"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// Call is one builtin tool invocation the agent must dispatch.
type Call struct {
	CallID    string
	Type      string
	Operation provider.BuiltinOperation
}

// Result is the runtime's reply to a builtin tool Call.
type Result struct {
	CallID string
	Status string // completed | failed
	Output string
}

// Handler executes one builtin tool call.
type Handler func(ctx context.Context, call Call) Result

// Registry maps a call-type keyword to the Handler that executes it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs h as the handler for callType, replacing any previous
// registration.
func (r *Registry) Register(callType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[callType] = h
}

// Dispatch runs the handler registered for call.Type. Unhandled call types
// produce a failure result whose output names the missing registration.
func (r *Registry) Dispatch(ctx context.Context, call Call) Result {
	r.mu.RLock()
	h, ok := r.handlers[call.Type]
	r.mu.RUnlock()
	if !ok {
		return Result{CallID: call.CallID, Status: "failed", Output: "no handler registered"}
	}
	return h(ctx, call)
}
