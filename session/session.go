// Package session implements the run-level cost/token accounting and budget
// enforcement that coordinates LLM calls on behalf of a set of Agents.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sagentic-ai/sagentic-af/clientmux"
	"github.com/sagentic-ai/sagentic-af/ledger"
	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/telemetry"
)

var (
	// ErrSessionAborted is returned by any Session operation attempted after
	// Abort.
	ErrSessionAborted = errors.New("session: aborted")
	// ErrBudgetExceeded is returned when the ledger's total cost meets or
	// exceeds the session's budget and either no handler is configured or
	// the handler's revised budget is still exceeded.
	ErrBudgetExceeded = errors.New("session: budget exceeded")
)

// Agent is the narrow capability set Session needs from anything it owns:
// an identity and a way to be told it concluded. Concrete agent
// implementations live in package agent; Session never imports it.
type Agent interface {
	ID() string
	Conclude()
}

// BudgetHandler is invoked at most once at a time per Session when the
// ledger's total cost meets or exceeds the current budget. It returns the
// new budget ceiling to apply.
type BudgetHandler func(ctx context.Context, totalCost, budget float64, nextMessages []provider.Message, s *Session) (newBudget float64, err error)

// EstimateTokens estimates the token draw of a request, used to size the
// scheduler ticket before the real usage is known.
type EstimateTokens func(req *provider.Request) int

// PricingLookup resolves the USD-per-million-token pricing for a model.
type PricingLookup func(modelID string) ledger.Pricing

// ModelResolver supplies the client configuration and provider credential
// needed to lazily instantiate modelID's client on first use. It backs the
// "ensureClient(model) then createChatCompletion(...)" step of InvokeModel;
// ok is false for a model InvokeModel should treat as already provisioned
// (or unresolvable), in which case EnsureClient is skipped.
type ModelResolver func(modelID string) (mc clientmux.ModelConfig, apiKey string, ok bool)

// Options configures a Session at construction time.
type Options struct {
	Clients        *clientmux.Mux
	Budget         float64
	BudgetHandler  BudgetHandler
	EstimateTokens EstimateTokens
	Pricing        PricingLookup
	Models         ModelResolver
	Logger         telemetry.Logger
}

// handlerCall is the shared in-flight budget-handler invocation that
// concurrent overrun callers join instead of re-invoking the handler.
type handlerCall struct {
	done      chan struct{}
	newBudget float64
	err       error
}

// Session coordinates LLM calls on behalf of Agents, owning the ledger and
// enforcing a cost budget.
type Session struct {
	metadata map[string]any

	ledger  *ledger.Ledger
	clients *clientmux.Mux
	bus     *Bus
	logger  telemetry.Logger

	estimateTokens EstimateTokens
	pricing        PricingLookup
	resolveModel   ModelResolver

	mu              sync.Mutex
	budget          float64
	budgetHandler   BudgetHandler
	handlerInFlight *handlerCall

	agents map[string]Agent

	aborted          atomic.Bool
	unsubscribeEntry func()
}

// New constructs a Session ready to spawn agents and invoke models.
func New(opts Options) *Session {
	s := &Session{
		metadata:       make(map[string]any),
		ledger:         ledger.New(),
		clients:        opts.Clients,
		bus:            NewBus(),
		logger:         opts.Logger,
		estimateTokens: opts.EstimateTokens,
		pricing:        opts.Pricing,
		resolveModel:   opts.Models,
		budget:         opts.Budget,
		budgetHandler:  opts.BudgetHandler,
		agents:         make(map[string]Agent),
	}
	if s.logger == nil {
		s.logger = telemetry.NewNoopLogger()
	}
	if s.estimateTokens == nil {
		s.estimateTokens = defaultEstimateTokens
	}
	if s.pricing == nil {
		s.pricing = func(string) ledger.Pricing { return ledger.Pricing{} }
	}
	s.unsubscribeEntry = s.ledger.OnEntry(func(e ledger.Entry) {
		entry := e
		_ = s.bus.Publish(context.Background(), Event{Type: EventLedgerEntry, Entry: &entry})
	})
	return s
}

func defaultEstimateTokens(req *provider.Request) int {
	n := 0
	for _, m := range req.Messages {
		n += len(m.Text) / 4
		for _, p := range m.Parts {
			n += len(p.Text) / 4
		}
	}
	return n
}

// Ledger exposes the session's accounting log.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Bus exposes the session's event bus for subscribers.
func (s *Session) Bus() *Bus { return s.bus }

// AgentCount returns the number of agents currently owned by the session.
func (s *Session) AgentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

// Aborted reports whether Abort has been called.
func (s *Session) Aborted() bool { return s.aborted.Load() }

// SpawnAgent constructs an agent via ctor and adopts it. It fails if the
// session has been aborted.
func (s *Session) SpawnAgent(ctor func(*Session) (Agent, error)) (Agent, error) {
	if s.aborted.Load() {
		return nil, ErrSessionAborted
	}
	a, err := ctor(s)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.agents[a.ID()] = a
	s.mu.Unlock()
	_ = s.bus.Publish(context.Background(), Event{Type: EventAgentStart, AgentID: a.ID()})
	return a, nil
}

// release detaches an agent from the session; called by the agent's
// Conclude.
func (s *Session) release(agentID string) {
	s.mu.Lock()
	delete(s.agents, agentID)
	s.mu.Unlock()
	_ = s.bus.Publish(context.Background(), Event{Type: EventAgentStop, AgentID: agentID})
}

// Release is the public entry point agents call from Conclude.
func (s *Session) Release(agentID string) { s.release(agentID) }

// PublishStep notifies subscribers of one agent step, and a heartbeat
// liveness probe right after, matching the "Session emits heartbeat after
// each step" design note.
func (s *Session) PublishStep(agentID string) {
	_ = s.bus.Publish(context.Background(), Event{Type: EventAgentStep, AgentID: agentID})
	_ = s.bus.Publish(context.Background(), Event{Type: EventHeartbeat, AgentID: agentID})
}

// PublishStopping notifies subscribers that an agent's stop() was called
// from within a step, before the run loop actually exits.
func (s *Session) PublishStopping(agentID string) {
	_ = s.bus.Publish(context.Background(), Event{Type: EventAgentStopping, AgentID: agentID})
}

// InvokeModel submits messages to model on behalf of caller, enforcing
// budget, routing through the client multiplexer, and recording the
// resulting usage in the ledger.
func (s *Session) InvokeModel(ctx context.Context, callerID, modelID string, messages []provider.Message, opts provider.RequestOptions) (provider.Message, error) {
	if s.aborted.Load() {
		return provider.Message{}, ErrSessionAborted
	}

	if err := s.checkBudgetAndHandle(ctx, messages); err != nil {
		return provider.Message{}, err
	}

	if s.resolveModel != nil {
		if mc, apiKey, ok := s.resolveModel(modelID); ok {
			if err := s.clients.EnsureClient(mc, apiKey); err != nil {
				return provider.Message{}, err
			}
		}
	}

	req := &provider.Request{ModelID: modelID, Messages: messages, Options: opts}
	estimated := s.estimateTokens(req)

	start := time.Now()
	resp, err := s.clients.CreateChatCompletion(ctx, req, estimated)
	if err != nil {
		return provider.Message{}, err
	}
	end := time.Now()

	pricing := s.pricing(modelID)
	s.ledger.Add(callerID, modelID, ledger.Timing{Start: start, End: end}, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, pricing)

	if len(resp.Messages) == 0 {
		return provider.Message{}, errors.New("session: provider returned no messages")
	}
	return resp.Messages[len(resp.Messages)-1], nil
}

// checkBudgetAndHandle implements the precise concurrent budget-exceeded
// handshake: at most one handler invocation is ever in flight per session.
func (s *Session) checkBudgetAndHandle(ctx context.Context, nextMessages []provider.Message) error {
	s.mu.Lock()
	totalCost := s.ledger.TotalCost()
	budget := s.budget
	if totalCost < budget {
		s.mu.Unlock()
		return nil
	}
	if s.budgetHandler == nil {
		s.mu.Unlock()
		return ErrBudgetExceeded
	}

	var call *handlerCall
	owner := false
	if s.handlerInFlight == nil {
		call = &handlerCall{done: make(chan struct{})}
		s.handlerInFlight = call
		owner = true
	} else {
		call = s.handlerInFlight
	}
	s.mu.Unlock()

	if owner {
		newBudget, err := s.budgetHandler(ctx, totalCost, budget, nextMessages, s)
		s.mu.Lock()
		call.newBudget, call.err = newBudget, err
		if err == nil {
			s.budget = newBudget
		}
		s.handlerInFlight = nil
		s.mu.Unlock()
		close(call.done)
	} else {
		<-call.done
	}

	if call.err != nil {
		return call.err
	}

	s.mu.Lock()
	stillOver := s.ledger.TotalCost() >= s.budget
	s.mu.Unlock()
	if stillOver {
		return ErrBudgetExceeded
	}
	return nil
}

// Abort marks the session aborted; subsequent SpawnAgent/InvokeModel calls
// fail. In-flight InvokeModel calls already past the budget check race with
// the flag and still deliver their result if the provider succeeds.
func (s *Session) Abort() {
	if !s.aborted.CompareAndSwap(false, true) {
		return
	}
	if s.unsubscribeEntry != nil {
		s.unsubscribeEntry()
	}
	if s.clients != nil {
		s.clients.Stop()
	}
}
