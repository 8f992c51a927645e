// Command sagentic-demo wires the full runtime end to end against a stub
// provider adapter: a greeter agent that replies in one step, an adder-tool
// agent that calls a user-defined tool, and an apply-patch agent that
// creates a file through the builtin apply_patch tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sagentic-ai/sagentic-af/agent"
	"github.com/sagentic-ai/sagentic-af/builtintool"
	"github.com/sagentic-ai/sagentic-af/builtintool/applypatch"
	"github.com/sagentic-ai/sagentic-af/clientmux"
	"github.com/sagentic-ai/sagentic-af/fsharness"
	"github.com/sagentic-ai/sagentic-af/ledger"
	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/session"
	"github.com/sagentic-ai/sagentic-af/telemetry"
	"github.com/sagentic-ai/sagentic-af/thread"
)

const demoModelID = "stub-demo-model"

func main() {
	ctx := context.Background()
	logger := telemetry.NewNoopLogger()

	mux := clientmux.New(map[string]string{"stub": "unused"}, clientmux.Options{
		ClientTypes: map[string]clientmux.AdapterCtor{
			"stub": func(modelID, apiKey string) (provider.Adapter, error) { return &stubAdapter{}, nil },
		},
		Models: []clientmux.ModelConfig{
			{ModelID: demoModelID, ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 100000, RequestPoolMax: 50},
		},
		Logger: logger,
	})
	defer mux.Stop()

	models := agent.NewModelRegistry(agent.ModelDescriptor{
		ID:      demoModelID,
		Pricing: ledger.Pricing{PromptUSDPer1M: 3, CompletionUSDPer1M: 15},
		Limits:  agent.Limits{RPM: 50, TPM: 100000},
	})
	model, _ := models.Get(demoModelID)

	sess := session.New(session.Options{
		Clients: mux,
		Budget:  1.0,
		Pricing: models.Pricing,
		Logger:  logger,
	})

	fmt.Println("--- greeter ---")
	runGreeter(ctx, sess, model)
	fmt.Println("--- adder ---")
	runAdder(ctx, sess, model)
	fmt.Println("--- apply-patch ---")
	runApplyPatch(ctx, sess, model)
}

// runGreeter spawns a one-step agent that asks the model to greet name and
// prints the reply.
func runGreeter(ctx context.Context, sess *session.Session, model agent.ModelDescriptor) {
	var ag *agent.Agent[string, *thread.Thread, string]
	spawned, err := sess.SpawnAgent(func(s *session.Session) (session.Agent, error) {
		ag = agent.New(s, agent.Config[string, *thread.Thread, string]{
			Options: "World",
			Model:   &model,
			Initialize: func(name string) (*thread.Thread, error) {
				t := ag.CreateThread()
				t, err := t.AppendUserMessage("Greet " + name)
				return t, err
			},
			Step: func(ctx context.Context, a *agent.Agent[string, *thread.Thread, string], t *thread.Thread) (*thread.Thread, error) {
				next, err := a.Advance(ctx, t)
				if err != nil {
					return nil, err
				}
				return next, a.Stop()
			},
			Finalize: func(t *thread.Thread) (string, error) {
				return t.Tail().Assistant.Text, nil
			},
		})
		return ag, nil
	})
	if err != nil {
		panic(err)
	}
	result, err := ag.Run(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println(spawned.ID(), "->", result)
}

// adderOptions carries the two operands summed by the add tool.
type adderOptions struct{ A, B int }

func runAdder(ctx context.Context, sess *session.Session, model agent.ModelDescriptor) {
	var ag *agent.Agent[adderOptions, *thread.Thread, string]
	spawned, err := sess.SpawnAgent(func(s *session.Session) (session.Agent, error) {
		ag = agent.New(s, agent.Config[adderOptions, *thread.Thread, string]{
			Options: adderOptions{A: 2, B: 3},
			Model:   &model,
			Tools:   []agent.Tool{addTool{}},
			Initialize: func(opts adderOptions) (*thread.Thread, error) {
				t := ag.CreateThread()
				return t.AppendUserMessage(fmt.Sprintf("add %d and %d", opts.A, opts.B))
			},
			Step: func(ctx context.Context, a *agent.Agent[adderOptions, *thread.Thread, string], t *thread.Thread) (*thread.Thread, error) {
				next, err := a.Advance(ctx, t)
				if err != nil {
					return nil, err
				}
				return next, a.Stop()
			},
			Finalize: func(t *thread.Thread) (string, error) {
				return t.Tail().Assistant.Text, nil
			},
		})
		return ag, nil
	})
	if err != nil {
		panic(err)
	}
	result, err := ag.Run(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println(spawned.ID(), "->", result)
}

// addTool is a user-defined tool the adder agent invokes through the normal
// (non-builtin) tool-call path.
type addTool struct{}

func (addTool) Name() string        { return "add" }
func (addTool) Description() string { return "adds two integers" }
func (addTool) ParametersSchema() []byte {
	return []byte(`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}`)
}
func (addTool) Invoke(ctx context.Context, argumentsJSON string) (string, error) {
	var args struct{ A, B int }
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", args.A+args.B), nil
}

func runApplyPatch(ctx context.Context, sess *session.Session, model agent.ModelDescriptor) {
	fs := fsharness.NewMemory()
	builtins := builtintool.NewRegistry()
	builtins.Register("apply_patch", applypatch.NewHandler(fs, applypatch.Options{}))

	var ag *agent.Agent[string, *thread.Thread, string]
	spawned, err := sess.SpawnAgent(func(s *session.Session) (session.Agent, error) {
		ag = agent.New(s, agent.Config[string, *thread.Thread, string]{
			Options:  "hello.txt",
			Model:    &model,
			Builtins: builtins,
			Initialize: func(path string) (*thread.Thread, error) {
				t := ag.CreateThread()
				return t.AppendUserMessage("apply-patch: create " + path)
			},
			Step: func(ctx context.Context, a *agent.Agent[string, *thread.Thread, string], t *thread.Thread) (*thread.Thread, error) {
				next, err := a.Advance(ctx, t)
				if err != nil {
					return nil, err
				}
				return next, a.Stop()
			},
			Finalize: func(t *thread.Thread) (string, error) {
				return t.Tail().Assistant.Text, nil
			},
		})
		return ag, nil
	})
	if err != nil {
		panic(err)
	}
	result, err := ag.Run(ctx)
	if err != nil {
		panic(err)
	}
	content, _ := fs.Get("hello.txt")
	fmt.Println(spawned.ID(), "->", result, "| file contents:", content)
}
