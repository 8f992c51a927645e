package clientmux

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/provider"
)

type noopAdapter struct{}

func (noopAdapter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	return &provider.Response{Messages: []provider.Message{{Role: provider.RoleAssistant, Text: "ok"}}}, provider.Headers{}, nil
}

func (noopAdapter) ClassifyError(err error) provider.RetryClass { return provider.ClassUnknown }

func TestNew_SkipsModelsWithUnkeyedProvider(t *testing.T) {
	m := New(map[string]string{}, Options{
		ClientTypes: map[string]AdapterCtor{"stub": func(string, string) (provider.Adapter, error) { return noopAdapter{}, nil }},
		Models:      []ModelConfig{{ModelID: "m1", ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 10, RequestPoolMax: 10}},
	})

	_, err := m.CreateChatCompletion(context.Background(), &provider.Request{ModelID: "m1"}, 1)
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestEnsureClient_LazilyRegistersModelNotConfiguredAtConstruction(t *testing.T) {
	m := New(map[string]string{}, Options{
		ClientTypes: map[string]AdapterCtor{"stub": func(string, string) (provider.Adapter, error) { return noopAdapter{}, nil }},
	})
	defer m.Stop()

	_, err := m.CreateChatCompletion(context.Background(), &provider.Request{ModelID: "m1"}, 1)
	require.ErrorIs(t, err, ErrUnknownModel)

	err = m.EnsureClient(ModelConfig{ModelID: "m1", ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 10, RequestPoolMax: 10}, "key")
	require.NoError(t, err)

	resp, err := m.CreateChatCompletion(context.Background(), &provider.Request{ModelID: "m1"}, 1)
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Messages[0].Text)
}

func TestEnsureClient_IsIdempotentForAnAlreadyRunningModel(t *testing.T) {
	m := New(map[string]string{"stub": "key"}, Options{
		ClientTypes: map[string]AdapterCtor{"stub": func(string, string) (provider.Adapter, error) { return noopAdapter{}, nil }},
		Models:      []ModelConfig{{ModelID: "m1", ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 10, RequestPoolMax: 10}},
	})
	defer m.Stop()

	require.NoError(t, m.EnsureClient(ModelConfig{ModelID: "m1", ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 5, RequestPoolMax: 5}, "key"))
}
