package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sagentic-ai/sagentic-af/builtintool"
	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/session"
	"github.com/sagentic-ai/sagentic-af/thread"
)

// InitializeFunc produces the agent's initial state from its options.
type InitializeFunc[O, S any] func(O) (S, error)

// StepFunc advances the agent's state by one step. It may call a.Stop() to
// end the run after this step.
type StepFunc[O, S, R any] func(ctx context.Context, a *Agent[O, S, R], state S) (S, error)

// FinalizeFunc derives the agent's result from its terminal state.
type FinalizeFunc[S, R any] func(S) (R, error)

// Config is the set of fields an Agent is constructed from: options, model,
// tools, system prompt, JSON expectation, temperature, reasoning effort,
// verbosity and whether tool results are eaten.
type Config[O, S, R any] struct {
	Options         O
	Model           *ModelDescriptor
	Tools           []Tool
	SystemPrompt    string
	ExpectsJSON     bool
	Temperature     float64
	ReasoningEffort provider.ReasoningEffort
	Verbosity       provider.Verbosity
	EatToolResults  bool
	Builtins        *builtintool.Registry

	Initialize InitializeFunc[O, S]
	Step       StepFunc[O, S, R]
	Finalize   FinalizeFunc[S, R]
}

// Agent is a template-method stepwise state machine that talks to one or
// more LLMs, possibly invoking tools. O/S/R are the subclass's option,
// state, and result types — Go's stand-in for the source's dynamically
// typed options/state/result, made concrete via generics.
type Agent[O, S, R any] struct {
	id       string
	session  *session.Session
	metadata map[string]any

	cfg Config[O, S, R]

	isActive  atomic.Bool
	inStep    atomic.Bool
	concluded atomic.Bool

	mu      sync.Mutex
	threads map[*thread.Thread]bool
}

// New constructs an agent bound to parent, ready to Run. Construction does
// not adopt the agent with the session; use session.SpawnAgent for that.
func New[O, S, R any](parent *session.Session, cfg Config[O, S, R]) *Agent[O, S, R] {
	return &Agent[O, S, R]{
		id:       uuid.NewString(),
		session:  parent,
		metadata: make(map[string]any),
		cfg:      cfg,
		threads:  make(map[*thread.Thread]bool),
	}
}

// ID satisfies session.Agent and thread.Owner.
func (a *Agent[O, S, R]) ID() string { return a.id }

// SupportsImages satisfies thread.Owner.
func (a *Agent[O, S, R]) SupportsImages() bool {
	return a.cfg.Model != nil && a.cfg.Model.Capabilities.Images
}

// SystemPrompt satisfies thread.Owner.
func (a *Agent[O, S, R]) SystemPrompt() (string, bool) {
	return a.cfg.SystemPrompt, a.cfg.SystemPrompt != ""
}

// Session returns the owning session.
func (a *Agent[O, S, R]) Session() *session.Session { return a.session }

// IsActive reports whether the agent is between Initialize and Finalize.
func (a *Agent[O, S, R]) IsActive() bool { return a.isActive.Load() }

// Stop ends the run after the current step. Legal only when called from
// within the Step callback.
func (a *Agent[O, S, R]) Stop() error {
	if !a.inStep.Load() {
		return ErrStopOutsideStep
	}
	a.session.PublishStopping(a.id)
	a.isActive.Store(false)
	return nil
}

// CreateThread constructs and adopts a new, empty Thread owned by this
// agent.
func (a *Agent[O, S, R]) CreateThread() *thread.Thread {
	t := thread.New(a)
	a.mu.Lock()
	a.threads[t] = true
	a.mu.Unlock()
	return t
}

// Adopt registers t as owned-and-tracked by this agent. It fails if t was
// constructed with a different owner, or is already tracked.
func (a *Agent[O, S, R]) Adopt(t *thread.Thread) error {
	if t.Owner() != thread.Owner(a) {
		return ErrNotOwner
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.threads[t] {
		return ErrAlreadyAdopted
	}
	a.threads[t] = true
	return nil
}

// Abandon stops tracking t. It is a no-op if t was not tracked.
func (a *Agent[O, S, R]) Abandon(t *thread.Thread) {
	a.mu.Lock()
	delete(a.threads, t)
	a.mu.Unlock()
}

// Run drives the agent through initialize -> (step)* -> finalize -> conclude.
func (a *Agent[O, S, R]) Run(ctx context.Context) (R, error) {
	var zero R
	state, err := a.cfg.Initialize(a.cfg.Options)
	if err != nil {
		return zero, err
	}

	a.isActive.Store(true)
	for a.isActive.Load() && !a.session.Aborted() {
		a.inStep.Store(true)
		state, err = a.cfg.Step(ctx, a, state)
		a.inStep.Store(false)
		if err != nil {
			a.isActive.Store(false)
			a.Conclude()
			return zero, err
		}
		a.session.PublishStep(a.id)
	}
	a.isActive.Store(false)

	result, err := a.cfg.Finalize(state)
	a.Conclude()
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Conclude finalizes the agent and detaches it from its session. It is
// idempotent.
func (a *Agent[O, S, R]) Conclude() {
	if !a.concluded.CompareAndSwap(false, true) {
		return
	}
	a.session.Release(a.id)
}

func (a *Agent[O, S, R]) findTool(name string) Tool {
	for _, t := range a.cfg.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// modelInvocationOptions materializes the fields the spec calls out: tools,
// JSON response format, temperature, and (on supporting models) reasoning
// effort / verbosity.
func (a *Agent[O, S, R]) modelInvocationOptions() provider.RequestOptions {
	opts := provider.RequestOptions{
		ResponseFormatJSON: a.cfg.ExpectsJSON,
		Temperature:        &a.cfg.Temperature,
	}
	for _, t := range a.cfg.Tools {
		opts.Tools = append(opts.Tools, provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.ParametersSchema(),
		})
	}
	if a.cfg.Model != nil && a.cfg.Model.Capabilities.Reasoning {
		opts.ReasoningEffort = a.cfg.ReasoningEffort
	}
	if a.cfg.Model != nil && a.cfg.Model.Capabilities.Verbosity {
		opts.Verbosity = a.cfg.Verbosity
	}
	return opts
}

// Advance is the core loop step: it submits t's materialized messages to
// the model, appends the assistant's reply, and — for tool calls — runs the
// tool-call loop (including builtin-tool dispatch and tool-result eviction)
// before returning the resulting thread.
func (a *Agent[O, S, R]) Advance(ctx context.Context, t *thread.Thread) (*thread.Thread, error) {
	if a.cfg.Model == nil {
		return nil, ErrInvalidArgument
	}
	if t.Owner() != thread.Owner(a) {
		return nil, ErrInvalidArgument
	}
	if t.Complete() {
		return nil, ErrInvalidArgument
	}

	msgs, err := t.Materialize()
	if err != nil {
		return nil, err
	}

	msg, err := a.session.InvokeModel(ctx, a.id, a.cfg.Model.ID, msgs, a.modelInvocationOptions())
	if err != nil {
		return nil, err
	}

	switch {
	case len(msg.ToolCalls) > 0:
		return a.advanceToolCalls(ctx, t, msg.ToolCalls)
	case !msg.IsMultipart:
		return t.AppendAssistantMessage(msg.Text)
	default:
		return nil, ErrInvalidResponse
	}
}

func (a *Agent[O, S, R]) advanceToolCalls(ctx context.Context, t *thread.Thread, calls []provider.ToolCall) (*thread.Thread, error) {
	closed, err := t.AppendAssistantToolCalls(calls)
	if err != nil {
		return nil, err
	}

	var nt *thread.Thread
	for _, call := range calls {
		content := a.invokeOneCall(ctx, call)
		if nt == nil {
			nt, err = closed.AppendToolResult(call.ID, content)
		} else {
			nt, err = nt.AppendToolResult(call.ID, content)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := a.Adopt(nt); err != nil {
		return nil, err
	}
	a.Abandon(closed)

	follow, err := a.Advance(ctx, nt)
	if err != nil {
		return nil, err
	}

	if !a.cfg.EatToolResults {
		return follow, nil
	}

	rollup, err := follow.Rollup(closed, rollupNote(calls))
	if err != nil {
		return nil, err
	}
	if err := a.Adopt(rollup); err != nil {
		return nil, err
	}
	a.Abandon(nt)
	a.Abandon(follow)
	return rollup, nil
}

// invokeOneCall dispatches a single tool call — builtin or user-defined —
// and returns its tool-result content, isolating any failure to a
// "TOOL ERROR: " prefixed message rather than failing the whole loop.
func (a *Agent[O, S, R]) invokeOneCall(ctx context.Context, call provider.ToolCall) string {
	if call.Kind != "" && call.Kind != "function" {
		if a.cfg.Builtins == nil {
			return "TOOL ERROR: no handler registered"
		}
		res := a.cfg.Builtins.Dispatch(ctx, builtintool.Call{
			CallID:    call.ID,
			Type:      call.Kind,
			Operation: decodeBuiltinOperation(call.Function.ArgumentsJSON),
		})
		if res.Status == "completed" {
			return res.Output
		}
		return "TOOL ERROR: " + res.Output
	}

	tool := a.findTool(call.Function.Name)
	if tool == nil {
		return fmt.Sprintf("TOOL ERROR: no such tool %q", call.Function.Name)
	}
	out, err := tool.Invoke(ctx, call.Function.ArgumentsJSON)
	if err != nil {
		return "TOOL ERROR: " + err.Error()
	}
	return out
}

func rollupNote(calls []provider.ToolCall) string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Function.Name)
	}
	return fmt.Sprintf("Results from calling %s were elided to save context.", strings.Join(names, ", "))
}
