// Package clientmux routes a neutral provider.Request to the scheduler
// responsible for its model, lazily instantiating provider adapters and
// their schedulers as new models are configured.
package clientmux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/scheduler"
	"github.com/sagentic-ai/sagentic-af/telemetry"
)

// ErrUnknownModel is returned when CreateChatCompletion is called for a
// model the Mux has no scheduler for.
var ErrUnknownModel = errors.New("clientmux: unknown model")

// AdapterCtor builds a provider.Adapter for one model, given the caller's
// API key for that model's provider.
type AdapterCtor func(modelID, apiKey string) (provider.Adapter, error)

// ModelConfig names the provider (client kind) and pool sizing for one
// model the Mux should be able to serve.
type ModelConfig struct {
	ModelID        string
	ClientKind     string
	ProviderKey    string // name used to look up the caller's API key
	TokenPoolMax   int
	RequestPoolMax int
}

// Options configures a Mux at construction time.
type Options struct {
	// ClientTypes registers the adapter constructors usable by Models below.
	// Additional kinds can still be added later via RegisterClientType.
	ClientTypes map[string]AdapterCtor
	Models      []ModelConfig
	Logger      telemetry.Logger
}

// Mux holds modelID -> scheduler and clientKind -> constructor registries.
type Mux struct {
	mu         sync.RWMutex
	ctors      map[string]AdapterCtor
	schedulers map[string]*scheduler.Scheduler
	logger     telemetry.Logger
}

// New constructs a Mux and eagerly instantiates an adapter+scheduler for
// every configured model whose provider key is present in providerKeys.
// Models whose provider is unkeyed are skipped silently (expected, not
// anomalous), logged at Debug.
func New(providerKeys map[string]string, opts Options) *Mux {
	m := &Mux{
		ctors:      make(map[string]AdapterCtor),
		schedulers: make(map[string]*scheduler.Scheduler),
		logger:     opts.Logger,
	}
	if m.logger == nil {
		m.logger = telemetry.NewNoopLogger()
	}
	for kind, ctor := range opts.ClientTypes {
		m.ctors[kind] = ctor
	}
	for _, mc := range opts.Models {
		key, ok := providerKeys[mc.ProviderKey]
		if !ok || key == "" {
			m.logger.Debug(context.Background(), "clientmux: skipping unkeyed provider", "model", mc.ModelID, "provider", mc.ProviderKey)
			continue
		}
		if err := m.instantiate(mc, key); err != nil {
			m.logger.Warn(context.Background(), "clientmux: failed to instantiate model", "model", mc.ModelID, "error", err)
		}
	}
	return m
}

// RegisterClientType lets third parties add a new provider family to a
// constructed Mux before EnsureClient first references it. Kinds that New
// itself needs are passed in Options.ClientTypes.
func (m *Mux) RegisterClientType(kind string, ctor AdapterCtor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctors[kind] = ctor
}

func (m *Mux) instantiate(mc ModelConfig, apiKey string) error {
	m.mu.RLock()
	ctor, ok := m.ctors[mc.ClientKind]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("clientmux: no adapter registered for client kind %q", mc.ClientKind)
	}
	adapter, err := ctor(mc.ModelID, apiKey)
	if err != nil {
		return err
	}
	sched := scheduler.New(mc.ModelID, adapter.Complete, adapter.ClassifyError,
		scheduler.WithPools(mc.TokenPoolMax, mc.RequestPoolMax),
		scheduler.WithLogger(m.logger))
	sched.Start()

	m.mu.Lock()
	m.schedulers[mc.ModelID] = sched
	m.mu.Unlock()
	return nil
}

// EnsureClient lazily creates and starts a scheduler for a model not present
// at construction time.
func (m *Mux) EnsureClient(mc ModelConfig, apiKey string) error {
	m.mu.RLock()
	_, exists := m.schedulers[mc.ModelID]
	m.mu.RUnlock()
	if exists {
		return nil
	}
	return m.instantiate(mc, apiKey)
}

// CreateChatCompletion enqueues req on the scheduler owning req.ModelID.
func (m *Mux) CreateChatCompletion(ctx context.Context, req *provider.Request, estimatedTokens int) (*provider.Response, error) {
	m.mu.RLock()
	sched, ok := m.schedulers[req.ModelID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, req.ModelID)
	}
	return sched.Enqueue(ctx, estimatedTokens, req)
}

// Start fans out to every scheduler's Start.
func (m *Mux) Start() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedulers {
		s.Start()
	}
}

// Stop fans out to every scheduler's Stop.
func (m *Mux) Stop() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedulers {
		s.Stop()
	}
}
