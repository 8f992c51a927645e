package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/clientmux"
	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/session"
	"github.com/sagentic-ai/sagentic-af/thread"
)

const testModelID = "stub-model"

func testModelDescriptor() *ModelDescriptor {
	return &ModelDescriptor{ID: testModelID, ProviderID: "stub", ClientKind: "stub"}
}

type fnAdapter struct {
	complete func(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error)
}

func (a *fnAdapter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	return a.complete(ctx, req)
}

func (a *fnAdapter) ClassifyError(err error) provider.RetryClass { return provider.ClassUnknown }

func newSessionWithAdapter(t *testing.T, adapter provider.Adapter) *session.Session {
	t.Helper()
	mux := clientmux.New(map[string]string{"stub": "key"}, clientmux.Options{
		ClientTypes: map[string]clientmux.AdapterCtor{
			"stub": func(modelID, apiKey string) (provider.Adapter, error) { return adapter, nil },
		},
		Models: []clientmux.ModelConfig{
			{ModelID: testModelID, ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 100_000, RequestPoolMax: 1000},
		},
	})
	s := session.New(session.Options{Clients: mux, Budget: 1.0})
	t.Cleanup(s.Abort)
	return s
}

type greeterState struct{ thread *thread.Thread }

// TestGreeterAgent is end-to-end scenario 4: a system prompt that always
// answers "Hello" with "World"; the run resolves to "World", and the
// session's agent count returns to zero after conclude.
func TestGreeterAgent(t *testing.T) {
	adapter := &fnAdapter{complete: func(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
		return &provider.Response{Messages: []provider.Message{{Role: provider.RoleAssistant, Text: "World"}}}, provider.Headers{}, nil
	}}
	sess := newSessionWithAdapter(t, adapter)

	spawned, err := sess.SpawnAgent(func(s *session.Session) (session.Agent, error) {
		var ag *Agent[struct{}, greeterState, string]
		ag = New(s, Config[struct{}, greeterState, string]{
			Model:        testModelDescriptor(),
			SystemPrompt: "You always respond with 'World' to 'Hello'.",
			Initialize: func(struct{}) (greeterState, error) {
				th := ag.CreateThread()
				th, err := th.AppendUserMessage("Hello")
				if err != nil {
					return greeterState{}, err
				}
				return greeterState{thread: th}, nil
			},
			Step: func(ctx context.Context, a *Agent[struct{}, greeterState, string], state greeterState) (greeterState, error) {
				th, err := a.Advance(ctx, state.thread)
				if err != nil {
					return state, err
				}
				if err := a.Stop(); err != nil {
					return state, err
				}
				return greeterState{thread: th}, nil
			},
			Finalize: func(state greeterState) (string, error) {
				return state.thread.Tail().Assistant.Text, nil
			},
		})
		return ag, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, sess.AgentCount())

	result, err := spawned.(*Agent[struct{}, greeterState, string]).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "World", result)
	require.Equal(t, 0, sess.AgentCount())
}

type adderTool struct {
	calls        atomic.Int64
	lastA, lastB int
}

func (t *adderTool) Name() string        { return "adder" }
func (t *adderTool) Description() string { return "adds two numbers" }
func (t *adderTool) ParametersSchema() []byte {
	return []byte(`{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}`)
}

func (t *adderTool) Invoke(ctx context.Context, argumentsJSON string) (string, error) {
	var args struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return "", err
	}
	t.calls.Add(1)
	t.lastA, t.lastB = args.A, args.B
	return fmt.Sprintf("%d", args.A+args.B), nil
}

type adderState struct{ thread *thread.Thread }

// TestAdderToolAgent is end-to-end scenario 5: the provider first emits a
// tool call to adder(1234, 5678), then, fed the tool result, a text
// response containing "6912". The run resolves with a string containing
// "6912" and the tool is invoked exactly once with {a:1234,b:5678}.
func TestAdderToolAgent(t *testing.T) {
	tool := &adderTool{}
	var invocation atomic.Int64
	adapter := &fnAdapter{complete: func(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
		if invocation.Add(1) == 1 {
			return &provider.Response{Messages: []provider.Message{{
				Role: provider.RoleAssistant,
				ToolCalls: []provider.ToolCall{{
					ID:   "call-1",
					Kind: "function",
					Function: provider.ToolCallFunction{
						Name:          "adder",
						ArgumentsJSON: `{"a":1234,"b":5678}`,
					},
				}},
			}}}, provider.Headers{}, nil
		}
		return &provider.Response{Messages: []provider.Message{{Role: provider.RoleAssistant, Text: "Result: 6912"}}}, provider.Headers{}, nil
	}}
	sess := newSessionWithAdapter(t, adapter)

	spawned, err := sess.SpawnAgent(func(s *session.Session) (session.Agent, error) {
		var ag *Agent[struct{}, adderState, string]
		ag = New(s, Config[struct{}, adderState, string]{
			Model: testModelDescriptor(),
			Tools: []Tool{tool},
			Initialize: func(struct{}) (adderState, error) {
				th := ag.CreateThread()
				th, err := th.AppendUserMessage("What is 1234 + 5678?")
				if err != nil {
					return adderState{}, err
				}
				return adderState{thread: th}, nil
			},
			Step: func(ctx context.Context, a *Agent[struct{}, adderState, string], state adderState) (adderState, error) {
				th, err := a.Advance(ctx, state.thread)
				if err != nil {
					return state, err
				}
				if err := a.Stop(); err != nil {
					return state, err
				}
				return adderState{thread: th}, nil
			},
			Finalize: func(state adderState) (string, error) {
				return state.thread.Tail().Assistant.Text, nil
			},
		})
		return ag, nil
	})
	require.NoError(t, err)

	result, err := spawned.(*Agent[struct{}, adderState, string]).Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, result, "6912")
	require.EqualValues(t, 1, tool.calls.Load())
	require.Equal(t, 1234, tool.lastA)
	require.Equal(t, 5678, tool.lastB)
}
