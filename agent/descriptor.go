// Package agent implements the stepwise agent lifecycle: initialize/step/
// finalize, thread ownership, and the tool-call loop with tool-result
// eviction ("rollup").
package agent

import (
	"sync"

	"github.com/sagentic-ai/sagentic-af/ledger"
	"github.com/sagentic-ai/sagentic-af/provider"
)

// Limits bounds request/token throughput and model context/output size.
type Limits struct {
	RPM             int
	TPM             int
	ContextTokens   int
	MaxOutputTokens int
}

// Capabilities advertises what a model supports beyond plain text.
type Capabilities struct {
	Images    bool
	Audio     bool
	Video     bool
	Reasoning bool
	Verbosity bool
}

// ModelDescriptor is the immutable record describing one callable model.
type ModelDescriptor struct {
	ID                     string
	ProviderID             string
	ClientKind             string
	Checkpoint             string
	Pricing                ledger.Pricing
	Limits                 Limits
	Capabilities           Capabilities
	DefaultReasoningEffort provider.ReasoningEffort
}

// ModelRegistry holds the set of model descriptors known to the runtime.
// Builtin descriptors ship with it; user descriptors can be registered at
// construction time.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]ModelDescriptor
}

// NewModelRegistry constructs a registry pre-populated with descriptors.
func NewModelRegistry(descriptors ...ModelDescriptor) *ModelRegistry {
	r := &ModelRegistry{models: make(map[string]ModelDescriptor)}
	for _, d := range descriptors {
		r.models[d.ID] = d
	}
	return r
}

// Register adds or replaces a descriptor.
func (r *ModelRegistry) Register(d ModelDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[d.ID] = d
}

// Get looks up a descriptor by id.
func (r *ModelRegistry) Get(id string) (ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[id]
	return d, ok
}

// Pricing satisfies session.PricingLookup.
func (r *ModelRegistry) Pricing(modelID string) ledger.Pricing {
	d, ok := r.Get(modelID)
	if !ok {
		return ledger.Pricing{}
	}
	return d.Pricing
}
